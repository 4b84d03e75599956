package service

import (
	"errors"
	"testing"
	"time"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

func TestTokenIssuer_SessionRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "rt-secret", time.Minute)
	u := &domain.User{ID: "u_1", Role: domain.RoleRestaurant, RestaurantID: "r_1"}

	token, err := issuer.IssueSession(u)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	caller, err := issuer.ParseSession(token)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if caller != (domain.Caller{UserID: "u_1", Role: domain.RoleRestaurant, RestaurantID: "r_1"}) {
		t.Fatalf("unexpected caller: %+v", caller)
	}
}

func TestTokenIssuer_KindsAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "rt-secret", time.Minute)

	rt, _ := issuer.IssueRealtime("u_1", []string{"orders:user_u_1"})
	if _, err := issuer.ParseSession(rt); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("realtime token accepted as session: %v", err)
	}
	st, _ := issuer.IssueSession(&domain.User{ID: "u_1", Role: domain.RoleStudent})
	if _, err := issuer.ParseRealtime(st); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("session token accepted as realtime: %v", err)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "rt-secret", time.Minute)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	token, _ := issuer.IssueRealtime("u_1", []string{"restaurant"})
	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }

	if _, err := issuer.ParseRealtime(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "rt-secret", time.Minute)
	if _, err := issuer.ParseSession("not.a.token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
