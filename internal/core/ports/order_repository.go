package ports

import (
	"context"
	"time"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// ListOrdersFilter carries the query parameters for listing orders.
// UserID and RestaurantID are enforced by the service layer from the caller.
type ListOrdersFilter struct {
	UserID       string             // optional: orders placed by this student
	RestaurantID string             // optional: orders fulfilled by this restaurant
	Status       domain.OrderStatus // optional
	PickupCode   string             // optional: exact match
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, error)
	// UpdateStatus is a compare-and-set: the row changes only while its
	// status still equals from. It reports whether the row changed.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error)
}

// AuditLog persists committed order status changes.
type AuditLog interface {
	Append(ctx context.Context, event *domain.OrderEvent) error
	ListByOrder(ctx context.Context, orderID string) ([]*domain.OrderEvent, error)
}
