package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// SessionClaims is the payload of an API session token.
type SessionClaims struct {
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	jwt.RegisteredClaims
}

// RealtimeClaims is the payload of a realtime connection token. Channels is
// the complete set the holder may receive.
type RealtimeClaims struct {
	Channels []string `json:"channels"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and parses the two HS256 token kinds. Session and
// realtime tokens use different secrets so one can never stand in for the other.
type TokenIssuer struct {
	sessionSecret  []byte
	sessionTTL     time.Duration
	realtimeSecret []byte
	realtimeTTL    time.Duration
	now            func() time.Time
}

func NewTokenIssuer(sessionSecret string, sessionTTL time.Duration, realtimeSecret string, realtimeTTL time.Duration) *TokenIssuer {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if realtimeTTL <= 0 {
		realtimeTTL = 10 * time.Minute
	}
	return &TokenIssuer{
		sessionSecret:  []byte(sessionSecret),
		sessionTTL:     sessionTTL,
		realtimeSecret: []byte(realtimeSecret),
		realtimeTTL:    realtimeTTL,
		now:            time.Now,
	}
}

func (t *TokenIssuer) IssueSession(u *domain.User) (string, error) {
	now := t.now()
	claims := SessionClaims{
		Role:         u.Role,
		RestaurantID: u.RestaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.sessionSecret)
}

// ParseSession validates a session token and returns the caller it names.
func (t *TokenIssuer) ParseSession(token string) (domain.Caller, error) {
	var claims SessionClaims
	if err := t.parse(token, &claims, t.sessionSecret); err != nil {
		return domain.Caller{}, err
	}
	if claims.Subject == "" || claims.Role == "" {
		return domain.Caller{}, fmt.Errorf("%w: token missing identity", domain.ErrUnauthorized)
	}
	return domain.Caller{UserID: claims.Subject, Role: claims.Role, RestaurantID: claims.RestaurantID}, nil
}

func (t *TokenIssuer) IssueRealtime(userID string, channels []string) (string, error) {
	now := t.now()
	claims := RealtimeClaims{
		Channels: channels,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.realtimeTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.realtimeSecret)
}

// ParseRealtime validates a realtime connection token.
func (t *TokenIssuer) ParseRealtime(token string) (*RealtimeClaims, error) {
	var claims RealtimeClaims
	if err := t.parse(token, &claims, t.realtimeSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" || len(claims.Channels) == 0 {
		return nil, fmt.Errorf("%w: token grants no channels", domain.ErrUnauthorized)
	}
	return &claims, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return nil
}
