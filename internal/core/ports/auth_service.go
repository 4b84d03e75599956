package ports

import (
	"context"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// SignupInput carries a manual signup.
type SignupInput struct {
	Name             string
	Email            string
	Phone            string
	Password         string
	Role             string
	SecurityQuestion string
	SecurityAnswer   string
	RestaurantName   string
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	RecoverPassword(ctx context.Context, email, answer, newPassword string) error
	// RealtimeToken mints a connection token for userID; the caller must be that user.
	RealtimeToken(ctx context.Context, caller domain.Caller, userID string) (string, error)
}
