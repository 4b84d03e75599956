package ports

import (
	"context"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// RestaurantRepository defines persistence operations for restaurants.
type RestaurantRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Restaurant, error)
	// List returns all restaurants, or only verified ones when verifiedOnly is set.
	List(ctx context.Context, verifiedOnly bool) ([]*domain.Restaurant, error)
	Update(ctx context.Context, r *domain.Restaurant) error
	SetOpen(ctx context.Context, id string, open bool) error
	SetVerified(ctx context.Context, id string, verified bool) error
	// Delete removes the restaurant row only. Orders are kept.
	Delete(ctx context.Context, id string) error
}

// MenuRepository defines persistence operations for menu items.
type MenuRepository interface {
	Create(ctx context.Context, item *domain.MenuItem) error
	FindByID(ctx context.Context, id string) (*domain.MenuItem, error)
	// FindByIDs returns the items that exist; missing ids are simply absent.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.MenuItem, error)
	// List returns every item, or one restaurant's items when restaurantID is non-empty.
	List(ctx context.Context, restaurantID string) ([]*domain.MenuItem, error)
	Update(ctx context.Context, item *domain.MenuItem) error
	Delete(ctx context.Context, id string) error
}
