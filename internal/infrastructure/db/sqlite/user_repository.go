package sqlite

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// UserRepository implements ports.UserRepository on SQLite.
type UserRepository struct {
	db    *gorm.DB
	retry RetryPolicy
	log   zerolog.Logger
}

func NewUserRepository(db *gorm.DB, log zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, retry: DefaultRetryPolicy, log: log}
}

var _ ports.UserRepository = (*UserRepository)(nil)

// Create inserts the user and, when r is non-nil, its restaurant in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *domain.User, rest *domain.Restaurant) error {
	err := r.retry.run(ctx, r.log, "create user", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(toUserModel(u)).Error; err != nil {
				return err
			}
			if rest != nil {
				return tx.Create(toRestaurantModel(rest)).Error
			}
			return nil
		})
	})
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	var affected int64
	err := r.retry.run(ctx, r.log, "update password", func() error {
		res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update("password_hash", passwordHash)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
