package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// CallerKey is the echo context key holding the authenticated domain.Caller.
const CallerKey = "caller"

// SessionParser validates a bearer token and returns who it belongs to.
type SessionParser interface {
	ParseSession(token string) (domain.Caller, error)
}

// Auth rejects requests without a valid bearer token and injects the caller.
func Auth(parser SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			token, ok := bearer(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			caller, err := parser.ParseSession(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}

// OptionalAuth injects the caller when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(parser SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				if caller, err := parser.ParseSession(token); err == nil {
					c.Set(CallerKey, caller)
				}
			}
			return next(c)
		}
	}
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
