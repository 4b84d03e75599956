package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements signup, login, password recovery and realtime
// token minting.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenIssuer
	logger zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens *TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// Signup creates a STUDENT or RESTAURANT account. A RESTAURANT account gets
// its restaurant row in the same write, closed and unverified.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	if in.Role != domain.RoleStudent && in.Role != domain.RoleRestaurant {
		return nil, fmt.Errorf("%w: role must be %s or %s", domain.ErrValidation, domain.RoleStudent, domain.RoleRestaurant)
	}
	if in.Role == domain.RoleRestaurant && strings.TrimSpace(in.RestaurantName) == "" {
		return nil, fmt.Errorf("%w: restaurant name is required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:               "u_" + uuid.NewString(),
		Name:             strings.TrimSpace(in.Name),
		Email:            email,
		Phone:            in.Phone,
		PasswordHash:     string(hash),
		Role:             in.Role,
		SecurityQuestion: in.SecurityQuestion,
		CreatedAt:        now,
	}
	if answer := normalizeAnswer(in.SecurityAnswer); answer != "" {
		answerHash, err := bcrypt.GenerateFromPassword([]byte(answer), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.SecurityAnswerHash = string(answerHash)
	}

	var restaurant *domain.Restaurant
	if in.Role == domain.RoleRestaurant {
		restaurant = &domain.Restaurant{
			ID:        "r_" + uuid.NewString(),
			OwnerID:   user.ID,
			Name:      strings.TrimSpace(in.RestaurantName),
			Cuisine:   []string{},
			Hours:     domain.DefaultHours,
			CreatedAt: now,
		}
		user.RestaurantID = restaurant.ID
	}

	if err := s.repo.Create(ctx, user, restaurant); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("account created")
	return user, nil
}

// Login checks the password and returns a session token. Unknown emails and
// wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// RecoverPassword replaces the password when answer matches the stored
// security answer, ignoring case.
func (s *AuthService) RecoverPassword(ctx context.Context, email, answer, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}
	if user.SecurityAnswerHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.SecurityAnswerHash), []byte(normalizeAnswer(answer))) != nil {
		s.logger.Info().Str("user_id", user.ID).Msg("password recovery rejected")
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// RealtimeToken mints a connection token scoped to the channels caller may
// read. Asking for someone else's token is forbidden.
func (s *AuthService) RealtimeToken(_ context.Context, caller domain.Caller, userID string) (string, error) {
	if caller.UserID == "" {
		return "", domain.ErrUnauthorized
	}
	if userID != "" && userID != caller.UserID {
		return "", fmt.Errorf("%w: token requested for another user", domain.ErrForbidden)
	}
	return s.tokens.IssueRealtime(caller.UserID, ChannelsFor(caller))
}

// ChannelsFor lists every channel caller is entitled to receive.
func ChannelsFor(caller domain.Caller) []string {
	channels := []string{domain.UserChannel(caller.UserID)}
	if caller.Role == domain.RoleRestaurant && caller.RestaurantID != "" {
		channels = append(channels, domain.RestaurantChannel(caller.RestaurantID))
	}
	return append(channels, domain.ChannelCatalog)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
