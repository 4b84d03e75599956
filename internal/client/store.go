// Package client keeps a consumer's view of orders, cart and catalog
// consistent with the server while mutations and pushes interleave.
package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

var (
	ErrUnknownOrder  = errors.New("order not in store")
	ErrActionPending = errors.New("another change to this order is in flight")
)

// Restaurant is a catalog entry as listed by the server.
type Restaurant struct {
	domain.Restaurant
	OpenNow bool `json:"openNow"`
}

// ActionID identifies one optimistic change.
type ActionID uint64

type pendingAction struct {
	id      ActionID
	orderID string
	prev    domain.OrderStatus
}

// Board is the restaurant dashboard: every non-terminal order of one
// restaurant lands in exactly one column.
type Board struct {
	Pending  []domain.Order
	Accepted []domain.Order
	Ready    []domain.Order
}

// Store is the application state container. All access goes through its
// methods; readers receive copies.
type Store struct {
	mu sync.Mutex

	user  *domain.User
	token string

	cart        Cart
	restaurants []Restaurant
	menu        []domain.MenuItem
	orders      OrderSet

	nextAction ActionID
	pending    map[string]pendingAction
}

func NewStore() *Store {
	return &Store{pending: make(map[string]pendingAction)}
}

// --- Session ---

func (s *Store) SetSession(u *domain.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
	} else {
		cp := *u
		s.user = &cp
	}
	s.token = token
}

// Session returns the signed-in user, or false when signed out.
func (s *Store) Session() (domain.User, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, "", false
	}
	return *s.user, s.token, true
}

// Reset drops everything, as on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user, s.token = nil, ""
	s.cart = Cart{}
	s.restaurants = nil
	s.menu = nil
	s.orders = OrderSet{}
	s.pending = make(map[string]pendingAction)
}

// --- Orders ---

// MergeOrder applies a server snapshot unless the store already holds a
// newer one. An applied snapshot settles any optimistic change pending on
// the same order. It reports whether the snapshot was applied.
func (s *Store) MergeOrder(o *domain.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.orders.Upsert(o) {
		return false
	}
	delete(s.pending, o.ID)
	return true
}

// ReplaceOrders loads a full fetch. Pending changes are settled except on
// orders whose stored copy is newer than the fetched one.
func (s *Store) ReplaceOrders(list []*domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.orders.Replace(list)
	for id := range s.pending {
		if !kept[id] {
			delete(s.pending, id)
		}
	}
}

func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Get(id)
}

// Orders returns every order, newest first.
func (s *Store) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Filter(nil)
}

func (s *Store) Active() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Filter(func(o *domain.Order) bool { return o.Status.Active() })
}

func (s *Store) History() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Filter(func(o *domain.Order) bool { return o.Status.Terminal() })
}

func (s *Store) Board(restaurantID string) Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b Board
	for _, o := range s.orders.Filter(func(o *domain.Order) bool { return o.RestaurantID == restaurantID }) {
		switch o.Status {
		case domain.StatusPending:
			b.Pending = append(b.Pending, o)
		case domain.StatusAccepted:
			b.Accepted = append(b.Accepted, o)
		case domain.StatusReady:
			b.Ready = append(b.Ready, o)
		}
	}
	return b
}

// BeginStatusChange applies next locally and records how to undo it. Only
// one change per order may be in flight.
func (s *Store) BeginStatusChange(orderID string, next domain.OrderStatus) (ActionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders.Get(orderID)
	if !ok {
		return 0, ErrUnknownOrder
	}
	if _, busy := s.pending[orderID]; busy {
		return 0, ErrActionPending
	}
	if !current.Status.CanTransitionTo(next) {
		return 0, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next)
	}

	s.nextAction++
	action := pendingAction{
		id:      s.nextAction,
		orderID: orderID,
		prev:    current.Status,
	}
	s.pending[orderID] = action
	// UpdatedAt stays at the last server stamp so the confirming snapshot
	// is never judged stale.
	s.orders.set(orderID, func(o *domain.Order) { o.Status = next })
	return action.id, nil
}

// Commit settles action with the server's answer. The snapshot is applied
// even when a push already settled the action, unless a newer one is held.
// A nil snapshot keeps the optimistic state.
func (s *Store) Commit(id ActionID, server *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if action, ok := s.find(id); ok {
		delete(s.pending, action.orderID)
	}
	if server != nil {
		s.orders.Upsert(server)
	}
}

// Revert restores the status held before action, unless a server snapshot
// already settled it. It reports whether anything was restored.
func (s *Store) Revert(id ActionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.find(id)
	if !ok {
		return false
	}
	delete(s.pending, action.orderID)
	return s.orders.set(action.orderID, func(o *domain.Order) { o.Status = action.prev })
}

// Pending reports whether an optimistic change on orderID is in flight.
func (s *Store) Pending(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[orderID]
	return ok
}

func (s *Store) find(id ActionID) (pendingAction, bool) {
	for _, a := range s.pending {
		if a.id == id {
			return a, true
		}
	}
	return pendingAction{}, false
}

// --- Cart ---

// AddToCart adds one unit of item. When the cart holds another
// restaurant's items, confirm decides whether to empty it first; a nil
// confirm or false leaves the cart untouched and returns false.
func (s *Store) AddToCart(item domain.MenuItem, confirm func() bool) (bool, error) {
	if !item.IsAvailable {
		return false, fmt.Errorf("%w: %s is unavailable", domain.ErrValidation, item.Name)
	}

	s.mu.Lock()
	conflict := !s.cart.Empty() && s.cart.RestaurantID != item.RestaurantID
	s.mu.Unlock()

	if conflict {
		if confirm == nil || !confirm() {
			return false, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cart.Empty() && s.cart.RestaurantID != item.RestaurantID {
		s.cart = Cart{}
	}
	s.cart.add(item)
	return true, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Store) UpdateQuantity(menuItemID string, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.setQuantity(menuItemID, qty)
}

func (s *Store) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = Cart{}
}

// --- Catalog ---

func (s *Store) SetRestaurants(list []Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants = append([]Restaurant(nil), list...)
}

func (s *Store) Restaurants() []Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Restaurant(nil), s.restaurants...)
}

func (s *Store) SetMenu(items []domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu = append([]domain.MenuItem(nil), items...)
}

func (s *Store) Menu() []domain.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MenuItem(nil), s.menu...)
}

// ApplyCatalogEvent folds a push from the public catalog channel into the
// restaurant and menu lists.
func (s *Store) ApplyCatalogEvent(ev domain.CatalogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case domain.CatalogStatusChange:
		if ev.IsOpen == nil {
			return
		}
		for i := range s.restaurants {
			if s.restaurants[i].ID == ev.ID {
				s.restaurants[i].IsOpen = *ev.IsOpen
				if !*ev.IsOpen {
					s.restaurants[i].OpenNow = false
				}
			}
		}
	case domain.CatalogVerified:
		if ev.Verified == nil {
			return
		}
		for i := range s.restaurants {
			if s.restaurants[i].ID == ev.ID {
				s.restaurants[i].Verified = *ev.Verified
			}
		}
	case domain.CatalogMenuUpdate:
		if ev.Item == nil {
			return
		}
		for i := range s.menu {
			if s.menu[i].ID == ev.Item.ID {
				s.menu[i] = *ev.Item
				return
			}
		}
		s.menu = append(s.menu, *ev.Item)
	case domain.CatalogMenuDelete:
		for i := range s.menu {
			if s.menu[i].ID == ev.ID {
				s.menu = append(s.menu[:i], s.menu[i+1:]...)
				return
			}
		}
	}
}
