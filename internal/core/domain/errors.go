package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("authentication required")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
	ErrStorageBusy       = errors.New("storage busy, retry later")
	ErrUpstream          = errors.New("upstream service unavailable")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

var (
	ErrOrderNotFound      = fmt.Errorf("order %w", ErrNotFound)
	ErrRestaurantNotFound = fmt.Errorf("restaurant %w", ErrNotFound)
	ErrMenuItemNotFound   = fmt.Errorf("menu item %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
)
