package handler

import (
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/grabandgo/campus-orders/internal/api/middleware"
	"github.com/grabandgo/campus-orders/internal/core/domain"
)

var (
	student = domain.Caller{UserID: "u_s1", Role: domain.RoleStudent}
	kitchen = domain.Caller{UserID: "u_k1", Role: domain.RoleRestaurant, RestaurantID: "r1"}
	admin   = domain.Caller{UserID: "u_a1", Role: domain.RoleAdmin}
)

// newContext builds an echo context for a JSON request. A zero caller
// leaves the request anonymous.
func newContext(method, target, body string, caller domain.Caller, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != (domain.Caller{}) {
		c.Set(middleware.CallerKey, caller)
	}
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
