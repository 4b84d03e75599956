// Package seed loads bootstrap accounts and catalog data from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// File is the document layout of a seed file.
type File struct {
	Admin       *Account     `yaml:"admin"`
	Restaurants []Restaurant `yaml:"restaurants"`
}

type Account struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"password"`
}

type Restaurant struct {
	Owner       Account    `yaml:"owner"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Cuisine     []string   `yaml:"cuisine"`
	ImageURL    string     `yaml:"image_url"`
	UpiID       string     `yaml:"upi_id"`
	Hours       string     `yaml:"hours"`
	Verified    bool       `yaml:"verified"`
	Open        bool       `yaml:"open"`
	Menu        []MenuItem `yaml:"menu"`
}

type MenuItem struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Category    string          `yaml:"category"`
	Unavailable bool            `yaml:"unavailable"`
}

// Parse decodes a seed document, rejecting unknown fields.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Seeder writes a seed File through the repositories. Accounts whose email
// already exists are left untouched, so seeding is safe to repeat.
type Seeder struct {
	users ports.UserRepository
	menu  ports.MenuRepository
	log   zerolog.Logger
}

func NewSeeder(users ports.UserRepository, menu ports.MenuRepository, log zerolog.Logger) *Seeder {
	return &Seeder{users: users, menu: menu, log: log}
}

// LoadFile reads path and applies it.
func (s *Seeder) LoadFile(ctx context.Context, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return err
	}
	return s.Apply(ctx, f)
}

func (s *Seeder) Apply(ctx context.Context, f *File) error {
	if f.Admin != nil {
		if _, err := s.createAccount(ctx, *f.Admin, domain.RoleAdmin, nil); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	for _, r := range f.Restaurants {
		if err := s.seedRestaurant(ctx, r); err != nil {
			return fmt.Errorf("seed restaurant %q: %w", r.Name, err)
		}
	}
	return nil
}

func (s *Seeder) seedRestaurant(ctx context.Context, r Restaurant) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: restaurant name is required", domain.ErrValidation)
	}
	hours := r.Hours
	if hours == "" {
		hours = domain.DefaultHours
	}
	if _, err := domain.ParseHours(hours); err != nil {
		return err
	}
	cuisine := r.Cuisine
	if cuisine == nil {
		cuisine = []string{}
	}
	rest := &domain.Restaurant{
		ID:          "r_" + uuid.NewString(),
		Name:        r.Name,
		Description: r.Description,
		Cuisine:     cuisine,
		ImageURL:    r.ImageURL,
		UpiID:       r.UpiID,
		Hours:       hours,
		Verified:    r.Verified,
		IsOpen:      r.Open,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.createAccount(ctx, r.Owner, domain.RoleRestaurant, rest)
	if err != nil || !created {
		return err
	}

	for _, m := range r.Menu {
		if m.Price.IsNegative() {
			return fmt.Errorf("%w: %s has a negative price", domain.ErrValidation, m.Name)
		}
		price, err := domain.MoneyFromDecimal(m.Price)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
		item := &domain.MenuItem{
			ID:           "m_" + uuid.NewString(),
			RestaurantID: rest.ID,
			Name:         m.Name,
			Description:  m.Description,
			Price:        price,
			Category:     m.Category,
			IsAvailable:  !m.Unavailable,
		}
		if err := s.menu.Create(ctx, item); err != nil {
			return err
		}
	}
	s.log.Info().Str("restaurant_id", rest.ID).Int("menu_items", len(r.Menu)).Msg("seeded restaurant")
	return nil
}

// createAccount reports false when the email is already registered.
func (s *Seeder) createAccount(ctx context.Context, a Account, role string, rest *domain.Restaurant) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" || a.Password == "" {
		return false, fmt.Errorf("%w: seed account needs email and password", domain.ErrValidation)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.log.Debug().Str("email", email).Msg("seed account exists, skipping")
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	u := &domain.User{
		ID:           "u_" + uuid.NewString(),
		Name:         a.Name,
		Email:        email,
		Phone:        a.Phone,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if rest != nil {
		rest.OwnerID = u.ID
		u.RestaurantID = rest.ID
	}
	if err := s.users.Create(ctx, u, rest); err != nil {
		return false, err
	}
	s.log.Info().Str("user_id", u.ID).Str("role", role).Msg("seeded account")
	return true, nil
}
