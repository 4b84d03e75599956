package sqlite

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// MenuRepository implements ports.MenuRepository on SQLite.
type MenuRepository struct {
	db    *gorm.DB
	retry RetryPolicy
	log   zerolog.Logger
}

func NewMenuRepository(db *gorm.DB, log zerolog.Logger) *MenuRepository {
	return &MenuRepository{db: db, retry: DefaultRetryPolicy, log: log}
}

var _ ports.MenuRepository = (*MenuRepository)(nil)

func (r *MenuRepository) Create(ctx context.Context, item *domain.MenuItem) error {
	return r.retry.run(ctx, r.log, "create menu item", func() error {
		return r.db.WithContext(ctx).Create(toMenuItemModel(item)).Error
	})
}

func (r *MenuRepository) FindByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	var m menuItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMenuItemNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *MenuRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.MenuItem, error) {
	if len(ids) == 0 {
		return []*domain.MenuItem{}, nil
	}
	var rows []menuItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return menuItemsToDomain(rows), nil
}

func (r *MenuRepository) List(ctx context.Context, restaurantID string) ([]*domain.MenuItem, error) {
	q := r.db.WithContext(ctx).Model(&menuItemModel{})
	if restaurantID != "" {
		q = q.Where("restaurant_id = ?", restaurantID)
	}
	var rows []menuItemModel
	if err := q.Order("category ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return menuItemsToDomain(rows), nil
}

func (r *MenuRepository) Update(ctx context.Context, item *domain.MenuItem) error {
	m := toMenuItemModel(item)
	var affected int64
	err := r.retry.run(ctx, r.log, "update menu item", func() error {
		res := r.db.WithContext(ctx).Model(&menuItemModel{}).Where("id = ?", item.ID).
			Select("name", "description", "price", "category", "is_available", "image_url").
			Updates(m)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.retry.run(ctx, r.log, "delete menu item", func() error {
		res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&menuItemModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

func menuItemsToDomain(rows []menuItemModel) []*domain.MenuItem {
	out := make([]*domain.MenuItem, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}
