package ports

import (
	"context"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// RestaurantView is a restaurant plus values derived at read time.
type RestaurantView struct {
	domain.Restaurant
	OpenNow bool `json:"openNow"`
}

// RestaurantProfileInput holds the owner-editable restaurant fields.
type RestaurantProfileInput struct {
	Name        string
	Description string
	Cuisine     []string
	ImageURL    string
	UpiID       string
	Hours       string
}

// MenuItemInput holds the owner-editable menu item fields.
type MenuItemInput struct {
	Name        string
	Description string
	Price       domain.Money
	Category    string
	IsAvailable bool
	ImageURL    string
}

// CatalogService defines restaurant and menu management.
type CatalogService interface {
	ListRestaurants(ctx context.Context, caller domain.Caller) ([]RestaurantView, error)
	UpdateRestaurant(ctx context.Context, caller domain.Caller, id string, in RestaurantProfileInput) (*domain.Restaurant, error)
	SetRestaurantOpen(ctx context.Context, caller domain.Caller, id string, open bool) error
	VerifyRestaurant(ctx context.Context, caller domain.Caller, id string, verified bool) error
	DeclineRestaurant(ctx context.Context, caller domain.Caller, id string) error

	ListMenu(ctx context.Context, restaurantID string) ([]*domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, caller domain.Caller, in MenuItemInput) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, caller domain.Caller, id string, in MenuItemInput) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, caller domain.Caller, id string) error
}
