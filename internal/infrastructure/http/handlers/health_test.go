package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runReadiness(t *testing.T, h *HealthDependenciesHandler) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Readiness returned error: %v", err)
	}
	var body readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec, body
}

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := NewHealthHandler().Liveness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("Liveness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	rec, body := runReadiness(t, NewHealthDependenciesHandler(
		Dependency{Name: "sqlite", Check: ok},
		Dependency{Name: "redis", Check: ok},
	))
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("expected ok, got %d %+v", rec.Code, body)
	}
}

func TestReadiness_RequiredDependencyDown(t *testing.T) {
	rec, body := runReadiness(t, NewHealthDependenciesHandler(
		Dependency{Name: "sqlite", Check: failing},
	))
	if rec.Code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Fatalf("expected 503 degraded, got %d %+v", rec.Code, body)
	}
	if body.Dependencies["sqlite"].Error == "" {
		t.Fatalf("expected error detail")
	}
}

func TestReadiness_OptionalDependencyDown(t *testing.T) {
	rec, body := runReadiness(t, NewHealthDependenciesHandler(
		Dependency{Name: "sqlite", Check: ok},
		Dependency{Name: "mongodb", Check: failing, Optional: true},
	))
	if rec.Code != http.StatusOK {
		t.Fatalf("optional dependency must not fail readiness, got %d", rec.Code)
	}
	if body.Dependencies["mongodb"].Status != "unhealthy" {
		t.Fatalf("expected mongodb reported unhealthy: %+v", body)
	}
}
