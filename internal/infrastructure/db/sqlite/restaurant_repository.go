package sqlite

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// RestaurantRepository implements ports.RestaurantRepository on SQLite.
type RestaurantRepository struct {
	db    *gorm.DB
	retry RetryPolicy
	log   zerolog.Logger
}

func NewRestaurantRepository(db *gorm.DB, log zerolog.Logger) *RestaurantRepository {
	return &RestaurantRepository{db: db, retry: DefaultRetryPolicy, log: log}
}

var _ ports.RestaurantRepository = (*RestaurantRepository)(nil)

// Create inserts a restaurant that has no signup behind it (seed data).
func (r *RestaurantRepository) Create(ctx context.Context, rest *domain.Restaurant) error {
	return r.retry.run(ctx, r.log, "create restaurant", func() error {
		return r.db.WithContext(ctx).Create(toRestaurantModel(rest)).Error
	})
}

func (r *RestaurantRepository) FindByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	var m restaurantModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *RestaurantRepository) List(ctx context.Context, verifiedOnly bool) ([]*domain.Restaurant, error) {
	q := r.db.WithContext(ctx).Model(&restaurantModel{})
	if verifiedOnly {
		q = q.Where("verified = ?", true)
	}
	var rows []restaurantModel
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Restaurant, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// Update writes the owner-editable profile fields only.
func (r *RestaurantRepository) Update(ctx context.Context, rest *domain.Restaurant) error {
	m := toRestaurantModel(rest)
	return r.update(ctx, "update restaurant", rest.ID, func(tx *gorm.DB) *gorm.DB {
		return tx.Select("name", "description", "cuisine", "image_url", "upi_id", "hours").Updates(m)
	})
}

func (r *RestaurantRepository) SetOpen(ctx context.Context, id string, open bool) error {
	return r.update(ctx, "set restaurant open", id, func(tx *gorm.DB) *gorm.DB {
		return tx.Update("is_open", open)
	})
}

func (r *RestaurantRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.update(ctx, "set restaurant verified", id, func(tx *gorm.DB) *gorm.DB {
		return tx.Update("verified", verified)
	})
}

// Delete removes the restaurant row only; orders referencing it stay.
func (r *RestaurantRepository) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.retry.run(ctx, r.log, "delete restaurant", func() error {
		res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&restaurantModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}

func (r *RestaurantRepository) update(ctx context.Context, name, id string, apply func(*gorm.DB) *gorm.DB) error {
	var affected int64
	err := r.retry.run(ctx, r.log, name, func() error {
		res := apply(r.db.WithContext(ctx).Model(&restaurantModel{}).Where("id = ?", id))
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}
