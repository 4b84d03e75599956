package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

const sample = `
admin:
  name: Campus Admin
  email: Admin@Campus.edu
  password: admin123
restaurants:
  - name: Roll Hut
    cuisine: [North Indian, Snacks]
    hours: 9 AM - 11 PM
    verified: true
    open: true
    owner:
      name: Ravi
      email: ravi@campus.edu
      password: rolls123
    menu:
      - name: Paneer Roll
        price: 65.5
        category: Rolls
      - name: Cold Coffee
        price: 40
        category: Drinks
        unavailable: true
`

type memUsers struct {
	users       map[string]*domain.User
	restaurants []*domain.Restaurant
}

func (m *memUsers) Create(_ context.Context, u *domain.User, r *domain.Restaurant) error {
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrUserExists
	}
	m.users[u.Email] = u
	if r != nil {
		m.restaurants = append(m.restaurants, r)
	}
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) UpdatePassword(context.Context, string, string) error { return nil }

type memMenu struct {
	items []*domain.MenuItem
}

func (m *memMenu) Create(_ context.Context, it *domain.MenuItem) error {
	m.items = append(m.items, it)
	return nil
}
func (m *memMenu) FindByID(context.Context, string) (*domain.MenuItem, error) { return nil, nil }
func (m *memMenu) FindByIDs(context.Context, []string) ([]*domain.MenuItem, error) {
	return nil, nil
}
func (m *memMenu) List(context.Context, string) ([]*domain.MenuItem, error) { return nil, nil }
func (m *memMenu) Update(context.Context, *domain.MenuItem) error             { return nil }
func (m *memMenu) Delete(context.Context, string) error                       { return nil }

func TestSeeder_Apply(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	users := &memUsers{users: map[string]*domain.User{}}
	menu := &memMenu{}
	s := NewSeeder(users, menu, zerolog.Nop())

	if err := s.Apply(context.Background(), f); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	admin, ok := users.users["admin@campus.edu"]
	if !ok || admin.Role != domain.RoleAdmin {
		t.Fatalf("admin not seeded: %+v", users.users)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")) != nil {
		t.Fatalf("admin password not hashed correctly")
	}

	if len(users.restaurants) != 1 {
		t.Fatalf("expected one restaurant, got %d", len(users.restaurants))
	}
	r := users.restaurants[0]
	owner := users.users["ravi@campus.edu"]
	if r.OwnerID != owner.ID || owner.RestaurantID != r.ID || !r.Verified || !r.IsOpen {
		t.Fatalf("restaurant not linked or flagged: %+v / %+v", r, owner)
	}

	if len(menu.items) != 2 || menu.items[0].Price != 6550 || menu.items[1].IsAvailable {
		t.Fatalf("unexpected menu: %+v %+v", menu.items[0], menu.items[1])
	}

	if err := s.Apply(context.Background(), f); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(users.restaurants) != 1 || len(menu.items) != 2 {
		t.Fatalf("seeding twice must not duplicate data")
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("admin:\n  mail: x@y.z\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestSeeder_BadHours(t *testing.T) {
	s := NewSeeder(&memUsers{users: map[string]*domain.User{}}, &memMenu{}, zerolog.Nop())
	err := s.Apply(context.Background(), &File{Restaurants: []Restaurant{{
		Name:  "Bad",
		Hours: "always",
		Owner: Account{Email: "b@campus.edu", Password: "x"},
	}}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
