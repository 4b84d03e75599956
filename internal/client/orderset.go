package client

import "github.com/grabandgo/campus-orders/internal/core/domain"

// OrderSet is the canonical client-side collection of orders: one entry per
// id, kept newest first. The zero value is ready to use.
//
// Snapshots carry the server's UpdatedAt stamp; one older than the stored
// copy of the same order is ignored.
type OrderSet struct {
	byID  map[string]*domain.Order
	order []string
}

// Upsert replaces the order with the same id in place, or prepends it. It
// reports false when o is older than the stored copy and was dropped.
func (s *OrderSet) Upsert(o *domain.Order) bool {
	if s.byID == nil {
		s.byID = make(map[string]*domain.Order)
	}
	prev, ok := s.byID[o.ID]
	if ok && stale(o, prev) {
		return false
	}
	if !ok {
		s.order = append([]string{o.ID}, s.order...)
	}
	s.byID[o.ID] = cloneOrder(o)
	return true
}

// Replace loads list, which is expected newest first as the server returns
// it. Orders missing from list are dropped; where the stored copy is newer
// than the listed one it is kept, and its id is returned.
func (s *OrderSet) Replace(list []*domain.Order) (kept map[string]bool) {
	old := s.byID
	s.byID = make(map[string]*domain.Order, len(list))
	s.order = make([]string, 0, len(list))
	kept = make(map[string]bool)
	for _, o := range list {
		if _, dup := s.byID[o.ID]; dup {
			continue
		}
		if prev, ok := old[o.ID]; ok && stale(o, prev) {
			s.byID[o.ID] = prev
			kept[o.ID] = true
		} else {
			s.byID[o.ID] = cloneOrder(o)
		}
		s.order = append(s.order, o.ID)
	}
	return kept
}

// Get returns a copy of the order with id.
func (s *OrderSet) Get(id string) (domain.Order, bool) {
	o, ok := s.byID[id]
	if !ok {
		return domain.Order{}, false
	}
	return *cloneOrder(o), true
}

func (s *OrderSet) Len() int { return len(s.order) }

// Filter returns copies of the orders for which keep is true, newest first.
func (s *OrderSet) Filter(keep func(*domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0, len(s.order))
	for _, id := range s.order {
		o := s.byID[id]
		if keep == nil || keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	return out
}

// set mutates the stored order in place.
func (s *OrderSet) set(id string, apply func(*domain.Order)) bool {
	o, ok := s.byID[id]
	if ok {
		apply(o)
	}
	return ok
}

func stale(incoming, stored *domain.Order) bool {
	return incoming.UpdatedAt.Before(stored.UpdatedAt)
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}
