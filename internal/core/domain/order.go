package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Trigger names what is allowed to cause a transition.
type Trigger string

const (
	// TriggerRestaurant is an explicit action by the fulfilling restaurant.
	TriggerRestaurant Trigger = "restaurant"
	// TriggerPickup is a successful pickup-code verification.
	TriggerPickup Trigger = "pickup"
)

type transitionKey struct {
	from, to OrderStatus
}

// validTransitions defines the allowed state machine edges and their trigger.
var validTransitions = map[transitionKey]Trigger{
	{StatusPending, StatusAccepted}:  TriggerRestaurant,
	{StatusPending, StatusCancelled}: TriggerRestaurant,
	{StatusAccepted, StatusReady}:    TriggerRestaurant,
	{StatusReady, StatusCompleted}:   TriggerPickup,
}

// Valid reports whether s is one of the five known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the order is still being worked on.
func (s OrderStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusReady
}

// CanTransitionTo reports whether any trigger may move an order from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	_, ok := validTransitions[transitionKey{s, next}]
	return ok
}

// CanTransitionBy reports whether trigger t may move an order from s to next.
func (s OrderStatus) CanTransitionBy(next OrderStatus, t Trigger) bool {
	allowed, ok := validTransitions[transitionKey{s, next}]
	return ok && allowed == t
}

// NextStatuses lists the statuses reachable from s, in a stable order.
func (s OrderStatus) NextStatuses() []OrderStatus {
	var out []OrderStatus
	for _, candidate := range []OrderStatus{StatusAccepted, StatusReady, StatusCompleted, StatusCancelled} {
		if s.CanTransitionTo(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// OrderItem is a snapshot of a menu item taken when the order was placed.
// Later menu edits never touch it.
type OrderItem struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	UnitPrice  Money  `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
}

// MaxLineQuantity caps the quantity of one menu item in an order.
const MaxLineQuantity = 99

// LineTotal is UnitPrice × Quantity in major units.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Decimal().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the core aggregate root.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	RestaurantID   string      `json:"restaurantId"`
	Items          []OrderItem `json:"items"`
	TotalAmount    Money       `json:"totalAmount"`
	Status         OrderStatus `json:"status"`
	PickupCode     string      `json:"pickupCode"`
	TransactionRef string      `json:"transactionRef,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// ComputeTotal sums the line totals of items. A sum beyond MaxMoney is a
// validation error rather than a wrapped amount.
func ComputeTotal(items []OrderItem) (Money, error) {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return MoneyFromDecimal(total)
}
