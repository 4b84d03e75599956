package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// CatalogService manages restaurants and their menus and broadcasts every
// change on the public catalog channel.
type CatalogService struct {
	restaurants ports.RestaurantRepository
	menu        ports.MenuRepository
	notifier    Notifier
	loc         *time.Location
	now         func() time.Time
	logger      zerolog.Logger
}

func NewCatalogService(restaurants ports.RestaurantRepository, menu ports.MenuRepository, notifier Notifier, loc *time.Location, logger zerolog.Logger) *CatalogService {
	if loc == nil {
		loc = time.UTC
	}
	return &CatalogService{
		restaurants: restaurants,
		menu:        menu,
		notifier:    notifier,
		loc:         loc,
		now:         time.Now,
		logger:      logger,
	}
}

// ListRestaurants returns every restaurant for admins. Everyone else sees
// verified restaurants, and a restaurant account also sees its own.
func (s *CatalogService) ListRestaurants(ctx context.Context, caller domain.Caller) ([]ports.RestaurantView, error) {
	verifiedOnly := caller.Role != domain.RoleAdmin && caller.Role != domain.RoleRestaurant
	list, err := s.restaurants.List(ctx, verifiedOnly)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]ports.RestaurantView, 0, len(list))
	for _, r := range list {
		if caller.Role == domain.RoleRestaurant && !r.Verified && r.ID != caller.RestaurantID {
			continue
		}
		views = append(views, ports.RestaurantView{
			Restaurant: *r,
			OpenNow:    r.IsOpen && domain.OpenNow(r.Hours, now, s.loc),
		})
	}
	return views, nil
}

func (s *CatalogService) UpdateRestaurant(ctx context.Context, caller domain.Caller, id string, in ports.RestaurantProfileInput) (*domain.Restaurant, error) {
	r, err := s.ownedRestaurant(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if in.Hours != "" {
		if _, err := domain.ParseHours(in.Hours); err != nil {
			return nil, err
		}
	}

	r.Name = strings.TrimSpace(in.Name)
	r.Description = in.Description
	r.Cuisine = in.Cuisine
	if r.Cuisine == nil {
		r.Cuisine = []string{}
	}
	r.ImageURL = in.ImageURL
	r.UpiID = in.UpiID
	if in.Hours != "" {
		r.Hours = in.Hours
	}
	if err := s.restaurants.Update(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info().Str("restaurant_id", r.ID).Msg("restaurant profile updated")
	return r, nil
}

// SetRestaurantOpen toggles whether the owner's restaurant takes orders.
func (s *CatalogService) SetRestaurantOpen(ctx context.Context, caller domain.Caller, id string, open bool) error {
	r, err := s.ownedRestaurant(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.restaurants.SetOpen(ctx, r.ID, open); err != nil {
		return err
	}
	s.logger.Info().Str("restaurant_id", r.ID).Bool("is_open", open).Msg("restaurant status changed")
	s.notifier.CatalogChanged(ctx, domain.CatalogEvent{Type: domain.CatalogStatusChange, ID: r.ID, IsOpen: &open})
	return nil
}

// VerifyRestaurant sets the admin approval flag.
func (s *CatalogService) VerifyRestaurant(ctx context.Context, caller domain.Caller, id string, verified bool) error {
	if caller.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	if _, err := s.restaurants.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.restaurants.SetVerified(ctx, id, verified); err != nil {
		return err
	}
	s.logger.Info().Str("restaurant_id", id).Bool("verified", verified).Str("admin_id", caller.UserID).Msg("restaurant verification changed")
	s.notifier.CatalogChanged(ctx, domain.CatalogEvent{Type: domain.CatalogVerified, ID: id, Verified: &verified})
	return nil
}

// DeclineRestaurant hard-deletes a restaurant that was never verified.
// Its orders, if any, are kept.
func (s *CatalogService) DeclineRestaurant(ctx context.Context, caller domain.Caller, id string) error {
	if caller.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if r.Verified {
		return fmt.Errorf("%w: cannot decline a verified restaurant", domain.ErrValidation)
	}
	if err := s.restaurants.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("restaurant_id", id).Str("admin_id", caller.UserID).Msg("restaurant declined")
	return nil
}

func (s *CatalogService) ListMenu(ctx context.Context, restaurantID string) ([]*domain.MenuItem, error) {
	return s.menu.List(ctx, restaurantID)
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, caller domain.Caller, in ports.MenuItemInput) (*domain.MenuItem, error) {
	if err := requireRestaurant(caller); err != nil {
		return nil, err
	}
	if err := validateMenuItem(in); err != nil {
		return nil, err
	}
	item := &domain.MenuItem{
		ID:           "m_" + uuid.NewString(),
		RestaurantID: caller.RestaurantID,
	}
	applyMenuInput(item, in)
	if err := s.menu.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().Str("item_id", item.ID).Str("restaurant_id", item.RestaurantID).Msg("menu item created")
	s.notifier.CatalogChanged(ctx, domain.CatalogEvent{Type: domain.CatalogMenuUpdate, ID: item.ID, RestaurantID: item.RestaurantID, Item: item})
	return item, nil
}

// UpdateMenuItem edits an item. Orders already placed keep their snapshot.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, caller domain.Caller, id string, in ports.MenuItemInput) (*domain.MenuItem, error) {
	item, err := s.ownedMenuItem(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := validateMenuItem(in); err != nil {
		return nil, err
	}
	applyMenuInput(item, in)
	if err := s.menu.Update(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().Str("item_id", item.ID).Msg("menu item updated")
	s.notifier.CatalogChanged(ctx, domain.CatalogEvent{Type: domain.CatalogMenuUpdate, ID: item.ID, RestaurantID: item.RestaurantID, Item: item})
	return item, nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, caller domain.Caller, id string) error {
	item, err := s.ownedMenuItem(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.menu.Delete(ctx, item.ID); err != nil {
		return err
	}
	s.logger.Info().Str("item_id", item.ID).Msg("menu item deleted")
	s.notifier.CatalogChanged(ctx, domain.CatalogEvent{Type: domain.CatalogMenuDelete, ID: item.ID, RestaurantID: item.RestaurantID})
	return nil
}

func (s *CatalogService) ownedRestaurant(ctx context.Context, caller domain.Caller, id string) (*domain.Restaurant, error) {
	if err := requireRestaurant(caller); err != nil {
		return nil, err
	}
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ID != caller.RestaurantID || r.OwnerID != caller.UserID {
		return nil, fmt.Errorf("%w: not your restaurant", domain.ErrForbidden)
	}
	return r, nil
}

func (s *CatalogService) ownedMenuItem(ctx context.Context, caller domain.Caller, id string) (*domain.MenuItem, error) {
	if err := requireRestaurant(caller); err != nil {
		return nil, err
	}
	item, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.RestaurantID != caller.RestaurantID {
		return nil, fmt.Errorf("%w: item belongs to another restaurant", domain.ErrForbidden)
	}
	return item, nil
}

func requireRestaurant(caller domain.Caller) error {
	if caller.UserID == "" {
		return domain.ErrUnauthorized
	}
	if caller.Role != domain.RoleRestaurant || caller.RestaurantID == "" {
		return fmt.Errorf("%w: restaurant accounts only", domain.ErrForbidden)
	}
	return nil
}

func validateMenuItem(in ports.MenuItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}

func applyMenuInput(item *domain.MenuItem, in ports.MenuItemInput) {
	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.Price = in.Price
	item.Category = in.Category
	item.IsAvailable = in.IsAvailable
	item.ImageURL = in.ImageURL
}
