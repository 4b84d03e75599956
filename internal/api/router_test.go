package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/infrastructure/http/handlers"
)

type tokenTable map[string]domain.Caller

func (t tokenTable) ParseSession(token string) (domain.Caller, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return domain.Caller{}, domain.ErrUnauthorized
}

var tokens = tokenTable{
	"student": {UserID: "u_s1", Role: domain.RoleStudent},
	"kitchen": {UserID: "u_k1", Role: domain.RoleRestaurant, RestaurantID: "r1"},
	"admin":   {UserID: "u_a1", Role: domain.RoleAdmin},
}

// fakeOrders fails AdvanceStatus with advanceErr and otherwise succeeds.
type fakeOrders struct {
	ports.OrderService
	advanceErr error
}

func (f *fakeOrders) PlaceOrder(_ context.Context, in ports.PlaceOrderInput) (*domain.Order, error) {
	return &domain.Order{ID: "o_1", UserID: in.Caller.UserID, RestaurantID: in.RestaurantID, Status: domain.StatusPending, TotalAmount: 1300}, nil
}

func (f *fakeOrders) AdvanceStatus(_ context.Context, in ports.AdvanceStatusInput) (*domain.Order, error) {
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	return &domain.Order{ID: in.OrderID, Status: in.Status}, nil
}

func (f *fakeOrders) ListOrders(context.Context, domain.Caller) ([]*domain.Order, error) {
	return []*domain.Order{}, nil
}

type fakeCatalog struct {
	ports.CatalogService
	lastCaller domain.Caller
}

func (f *fakeCatalog) ListRestaurants(_ context.Context, caller domain.Caller) ([]ports.RestaurantView, error) {
	f.lastCaller = caller
	return []ports.RestaurantView{}, nil
}

func newTestRouter(orders *fakeOrders, catalog *fakeCatalog, health ...handlers.Dependency) http.Handler {
	return NewRouter(Deps{
		Orders:   orders,
		Catalog:  catalog,
		Sessions: tokens,
		Realtime: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }),
		Health:   health,
		Registry: prometheus.NewRegistry(),
		Logger:   zerolog.Nop(),
	})
}

func do(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected error envelope, got %q", rec.Body.String())
	}
	return resp.Error
}

func TestRouter_OrderRoutesEnforceRoles(t *testing.T) {
	h := newTestRouter(&fakeOrders{}, &fakeCatalog{})
	body := `{"restaurantId":"r1","items":[{"menuItemId":"m1","quantity":2}]}`

	if rec := do(h, http.MethodPost, "/api/orders", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous place: expected 401, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/api/orders", "kitchen", body); rec.Code != http.StatusForbidden {
		t.Fatalf("restaurant place: expected 403, got %d", rec.Code)
	}
	rec := do(h, http.MethodPost, "/api/orders", "student", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("student place: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"totalAmount":13.00`) {
		t.Fatalf("expected two-decimal total, got %s", rec.Body.String())
	}

	if rec := do(h, http.MethodPut, "/api/orders/o_1/status", "student", `{"status":"READY"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("student advance: expected 403, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPut, "/api/orders/o_1/status", "kitchen", `{"status":"READY"}`); rec.Code != http.StatusOK {
		t.Fatalf("restaurant advance: expected 200, got %d", rec.Code)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		code       int
		retryAfter bool
	}{
		{fmt.Errorf("%w: READY -> ACCEPTED", domain.ErrInvalidTransition), http.StatusConflict, false},
		{domain.ErrOrderNotFound, http.StatusNotFound, false},
		{domain.ErrForbidden, http.StatusForbidden, false},
		{fmt.Errorf("%w: unknown status", domain.ErrValidation), http.StatusBadRequest, false},
		{fmt.Errorf("update status: %w", domain.ErrStorageBusy), http.StatusServiceUnavailable, true},
		{domain.ErrUpstream, http.StatusBadGateway, false},
		{errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		h := newTestRouter(&fakeOrders{advanceErr: tc.err}, &fakeCatalog{})
		rec := do(h, http.MethodPut, "/api/orders/o_1/status", "kitchen", `{"status":"ACCEPTED"}`)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		if got := rec.Header().Get("Retry-After") != ""; got != tc.retryAfter {
			t.Fatalf("%v: Retry-After presence = %v", tc.err, got)
		}
		msg := errorBody(t, rec)
		if tc.code == http.StatusInternalServerError && msg != "internal server error" {
			t.Fatalf("internal errors must not leak, got %q", msg)
		}
	}
}

func TestRouter_RestaurantsOptionalAuth(t *testing.T) {
	catalog := &fakeCatalog{}
	h := newTestRouter(&fakeOrders{}, catalog)

	if rec := do(h, http.MethodGet, "/api/restaurants", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("anonymous list: expected 200, got %d", rec.Code)
	}
	if catalog.lastCaller != (domain.Caller{}) {
		t.Fatalf("expected anonymous caller, got %+v", catalog.lastCaller)
	}
	do(h, http.MethodGet, "/api/restaurants", "admin", "")
	if catalog.lastCaller.Role != domain.RoleAdmin {
		t.Fatalf("expected admin caller, got %+v", catalog.lastCaller)
	}
	if rec := do(h, http.MethodPut, "/api/restaurants/r1/verify", "kitchen", `{"verified":true}`); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin verify: expected 403, got %d", rec.Code)
	}
}

func TestRouter_OpsEndpoints(t *testing.T) {
	down := handlers.Dependency{Name: "redis", Optional: true, Check: func(context.Context) error { return errors.New("down") }}
	h := newTestRouter(&fakeOrders{}, &fakeCatalog{}, down)

	if rec := do(h, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("optional dependency down: expected 200, got %d", rec.Code)
	}

	do(h, http.MethodGet, "/api/orders", "student", "")
	rec := do(h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "campus_http_requests_total") {
		t.Fatalf("expected http metrics, got %d", rec.Code)
	}

	if rec := do(h, http.MethodGet, "/swagger/doc.json", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("swagger doc: expected 200, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/connection/websocket", "", ""); rec.Code != http.StatusTeapot {
		t.Fatalf("realtime route not wired, got %d", rec.Code)
	}
}
