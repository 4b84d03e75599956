package ports

import (
	"context"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// LineItemInput is one cart line sent by the client.
type LineItemInput struct {
	MenuItemID string
	// RestaurantID is what the client believes the item belongs to; optional.
	RestaurantID string
	Quantity     int
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	Caller         domain.Caller
	RestaurantID   string
	Items          []LineItemInput
	PaymentRef     string
	IdempotencyKey string
}

// AdvanceStatusInput asks for one restaurant-triggered transition.
type AdvanceStatusInput struct {
	Caller  domain.Caller
	OrderID string
	Status  domain.OrderStatus
}

// OrderService defines the order lifecycle use cases.
type OrderService interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, in AdvanceStatusInput) (*domain.Order, error)
	VerifyPickup(ctx context.Context, orderID, code, restaurantID string) (bool, error)
	VerifyPickupByCode(ctx context.Context, code, restaurantID string) (*domain.Order, bool, error)
	ListOrders(ctx context.Context, caller domain.Caller) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string, caller domain.Caller) (*domain.Order, error)
	OrderHistory(ctx context.Context, id string, caller domain.Caller) ([]*domain.OrderEvent, error)
}
