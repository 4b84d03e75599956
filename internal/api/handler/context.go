package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grabandgo/campus-orders/internal/api/middleware"
	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// ctxCaller returns the caller injected by the Auth middleware. A
// RESTAURANT token without a restaurant id is structurally valid but
// unusable, so it is rejected here before any service call.
func ctxCaller(c echo.Context) (domain.Caller, error) {
	caller, ok := c.Get(middleware.CallerKey).(domain.Caller)
	if !ok || caller.UserID == "" || caller.Role == "" {
		return domain.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if caller.Role == domain.RoleRestaurant && caller.RestaurantID == "" {
		return domain.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing restaurant identity")
	}
	return caller, nil
}

// optionalCaller returns the zero Caller for anonymous requests.
func optionalCaller(c echo.Context) domain.Caller {
	caller, _ := c.Get(middleware.CallerKey).(domain.Caller)
	return caller
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
