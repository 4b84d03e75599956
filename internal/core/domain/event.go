package domain

import "time"

// Public channel names.
const (
	ChannelCatalog = "restaurant"

	userChannelPrefix       = "orders:user_"
	restaurantChannelPrefix = "orders:restaurant_"
)

// UserChannel is the private order feed of one student.
func UserChannel(userID string) string { return userChannelPrefix + userID }

// RestaurantChannel is the order feed of one restaurant's staff.
func RestaurantChannel(restaurantID string) string { return restaurantChannelPrefix + restaurantID }

// Catalog event types published on ChannelCatalog.
const (
	CatalogStatusChange = "STATUS_CHANGE"
	CatalogMenuUpdate   = "MENU_UPDATE"
	CatalogMenuDelete   = "MENU_DELETE"
	CatalogVerified     = "VERIFIED"
)

// CatalogEvent is the payload of every message on ChannelCatalog.
type CatalogEvent struct {
	Type         string    `json:"type"`
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId,omitempty"`
	IsOpen       *bool     `json:"isOpen,omitempty"`
	Verified     *bool     `json:"verified,omitempty"`
	Item         *MenuItem `json:"item,omitempty"`
}

// OrderEvent records a single committed status change in the audit trail.
type OrderEvent struct {
	OrderID      string      `json:"orderId"`
	UserID       string      `json:"userId"`
	RestaurantID string      `json:"restaurantId"`
	From         OrderStatus `json:"from,omitempty"`
	To           OrderStatus `json:"to"`
	ActorID      string      `json:"actorId"`
	Trigger      string      `json:"trigger"`
	At           time.Time   `json:"at"`
}
