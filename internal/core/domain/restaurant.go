package domain

import "time"

// DefaultHours is assigned to restaurants created through signup.
const DefaultHours = "10 AM - 10 PM"

// Restaurant is a food outlet owned by one RESTAURANT account.
type Restaurant struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cuisine     []string  `json:"cuisine"`
	ImageURL    string    `json:"imageUrl"`
	IsOpen      bool      `json:"isOpen"`
	Verified    bool      `json:"verified"`
	UpiID       string    `json:"upiId,omitempty"`
	Hours       string    `json:"hours,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AcceptingOrders reports whether students may currently order here.
func (r *Restaurant) AcceptingOrders() bool {
	return r.Verified && r.IsOpen
}

// MenuItem belongs to exactly one restaurant.
type MenuItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        Money  `json:"price"`
	Category     string `json:"category"`
	IsAvailable  bool   `json:"isAvailable"`
	ImageURL     string `json:"imageUrl,omitempty"`
}
