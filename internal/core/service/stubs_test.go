package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    []string
	err    error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.orders[o.ID] = cloneOrder(o)
	r.seq = append(r.seq, o.ID)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for i := len(r.seq) - 1; i >= 0; i-- {
		o := r.orders[r.seq[i]]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.RestaurantID != "" && o.RestaurantID != f.RestaurantID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PickupCode != "" && o.PickupCode != f.PickupCode {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	return true, nil
}

func (r *stubOrderRepo) status(id string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

type stubRestaurantRepo struct {
	restaurants map[string]*domain.Restaurant
}

func newStubRestaurantRepo(rs ...*domain.Restaurant) *stubRestaurantRepo {
	repo := &stubRestaurantRepo{restaurants: make(map[string]*domain.Restaurant)}
	for _, r := range rs {
		repo.restaurants[r.ID] = r
	}
	return repo
}

func (r *stubRestaurantRepo) FindByID(_ context.Context, id string) (*domain.Restaurant, error) {
	rest, ok := r.restaurants[id]
	if !ok {
		return nil, domain.ErrRestaurantNotFound
	}
	c := *rest
	return &c, nil
}

func (r *stubRestaurantRepo) List(_ context.Context, verifiedOnly bool) ([]*domain.Restaurant, error) {
	var out []*domain.Restaurant
	for _, rest := range r.restaurants {
		if verifiedOnly && !rest.Verified {
			continue
		}
		c := *rest
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRestaurantRepo) Update(_ context.Context, rest *domain.Restaurant) error {
	if _, ok := r.restaurants[rest.ID]; !ok {
		return domain.ErrRestaurantNotFound
	}
	c := *rest
	r.restaurants[rest.ID] = &c
	return nil
}

func (r *stubRestaurantRepo) SetOpen(_ context.Context, id string, open bool) error {
	rest, ok := r.restaurants[id]
	if !ok {
		return domain.ErrRestaurantNotFound
	}
	rest.IsOpen = open
	return nil
}

func (r *stubRestaurantRepo) SetVerified(_ context.Context, id string, verified bool) error {
	rest, ok := r.restaurants[id]
	if !ok {
		return domain.ErrRestaurantNotFound
	}
	rest.Verified = verified
	return nil
}

func (r *stubRestaurantRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.restaurants[id]; !ok {
		return domain.ErrRestaurantNotFound
	}
	delete(r.restaurants, id)
	return nil
}

type stubMenuRepo struct {
	items map[string]*domain.MenuItem
}

func newStubMenuRepo(items ...*domain.MenuItem) *stubMenuRepo {
	repo := &stubMenuRepo{items: make(map[string]*domain.MenuItem)}
	for _, it := range items {
		repo.items[it.ID] = it
	}
	return repo
}

func (r *stubMenuRepo) Create(_ context.Context, item *domain.MenuItem) error {
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *stubMenuRepo) FindByID(_ context.Context, id string) (*domain.MenuItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrMenuItemNotFound
	}
	c := *it
	return &c, nil
}

func (r *stubMenuRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.MenuItem, error) {
	var out []*domain.MenuItem
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			c := *it
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubMenuRepo) List(_ context.Context, restaurantID string) ([]*domain.MenuItem, error) {
	var out []*domain.MenuItem
	for _, it := range r.items {
		if restaurantID == "" || it.RestaurantID == restaurantID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubMenuRepo) Update(_ context.Context, item *domain.MenuItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrMenuItemNotFound
	}
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *stubMenuRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrMenuItemNotFound
	}
	delete(r.items, id)
	return nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []*domain.OrderEvent
}

func (a *stubAudit) Append(_ context.Context, ev *domain.OrderEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func (a *stubAudit) ListByOrder(_ context.Context, orderID string) ([]*domain.OrderEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*domain.OrderEvent
	for _, ev := range a.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// recordingQueue captures every enqueued message.
type recordingQueue struct {
	mu   sync.Mutex
	msgs []ports.Message
	full bool
}

func (q *recordingQueue) Enqueue(msg ports.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.msgs = append(q.msgs, msg)
	return true
}

func (q *recordingQueue) channels() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.msgs))
	for _, m := range q.msgs {
		out = append(out, m.Channel)
	}
	return out
}

func (q *recordingQueue) count(channel string) int {
	n := 0
	for _, ch := range q.channels() {
		if ch == channel {
			n++
		}
	}
	return n
}

type stubLimiter struct {
	allow bool
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, nil
}

type stubIdempotency struct {
	keys map[string]string
}

func (s *stubIdempotency) Lookup(_ context.Context, key string) (string, bool, error) {
	id, ok := s.keys[key]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, key, orderID string) error {
	s.keys[key] = orderID
	return nil
}

type stubUserRepo struct {
	users       map[string]*domain.User
	restaurants []*domain.Restaurant
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User, rest *domain.Restaurant) error {
	if _, exists := r.users[u.Email]; exists {
		return domain.ErrUserExists
	}
	r.users[u.Email] = cloneUser(u)
	if rest != nil {
		c := *rest
		r.restaurants = append(r.restaurants, &c)
	}
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	for _, u := range r.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return domain.ErrUserNotFound
}
