package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository on SQLite.
type OrderRepository struct {
	db    *gorm.DB
	retry RetryPolicy
	log   zerolog.Logger
}

func NewOrderRepository(db *gorm.DB, log zerolog.Logger) *OrderRepository {
	return &OrderRepository{db: db, retry: DefaultRetryPolicy, log: log}
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.retry.run(ctx, r.log, "create order", func() error {
		return r.db.WithContext(ctx).Create(toOrderModel(o)).Error
	})
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var m orderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *OrderRepository) List(ctx context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	q := r.db.WithContext(ctx).Model(&orderModel{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.RestaurantID != "" {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.PickupCode != "" {
		q = q.Where("pickup_code = ?", f.PickupCode)
	}

	var rows []orderModel
	if err := q.Order("created_at DESC").Order("rowid DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// UpdateStatus changes the row only while it still holds from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	var affected int64
	err := r.retry.run(ctx, r.log, "update order status", func() error {
		res := r.db.WithContext(ctx).Model(&orderModel{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{"status": string(to), "updated_at": at.UTC()})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
