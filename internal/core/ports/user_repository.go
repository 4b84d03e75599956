package ports

import (
	"context"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create inserts a user, and the restaurant it owns when r is non-nil,
	// in one transaction. Returns domain.ErrUserExists on a duplicate email.
	Create(ctx context.Context, u *domain.User, r *domain.Restaurant) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
