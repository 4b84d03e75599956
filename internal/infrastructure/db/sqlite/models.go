package sqlite

import (
	"time"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

type userModel struct {
	ID                 string `gorm:"primaryKey"`
	Name               string
	Email              string `gorm:"uniqueIndex;not null"`
	Phone              string
	PasswordHash       string `gorm:"not null"`
	Role               string `gorm:"index;not null"`
	SecurityQuestion   string
	SecurityAnswerHash string
	RestaurantID       string
	CreatedAt          time.Time
}

func (userModel) TableName() string { return "users" }

type restaurantModel struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"index"`
	Name        string `gorm:"not null"`
	Description string
	Cuisine     []string `gorm:"serializer:json"`
	ImageURL    string
	IsOpen      bool
	Verified    bool `gorm:"index"`
	UpiID       string
	Hours       string
	CreatedAt   time.Time
}

func (restaurantModel) TableName() string { return "restaurants" }

type menuItemModel struct {
	ID           string `gorm:"primaryKey"`
	RestaurantID string `gorm:"index;not null"`
	Name         string `gorm:"not null"`
	Description  string
	Price        int64
	Category     string
	IsAvailable  bool
	ImageURL     string
}

func (menuItemModel) TableName() string { return "menu_items" }

type orderModel struct {
	ID             string             `gorm:"primaryKey"`
	UserID         string             `gorm:"index;not null"`
	RestaurantID   string             `gorm:"index:idx_orders_restaurant_status;not null"`
	Items          []domain.OrderItem `gorm:"serializer:json"`
	TotalAmount    int64
	Status         string `gorm:"index:idx_orders_restaurant_status;not null"`
	PickupCode     string
	TransactionRef string
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (orderModel) TableName() string { return "orders" }

func toUserModel(u *domain.User) *userModel {
	return &userModel{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		SecurityQuestion:   u.SecurityQuestion,
		SecurityAnswerHash: u.SecurityAnswerHash,
		RestaurantID:       u.RestaurantID,
		CreatedAt:          u.CreatedAt,
	}
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		PasswordHash:       m.PasswordHash,
		Role:               m.Role,
		SecurityQuestion:   m.SecurityQuestion,
		SecurityAnswerHash: m.SecurityAnswerHash,
		RestaurantID:       m.RestaurantID,
		CreatedAt:          m.CreatedAt,
	}
}

func toRestaurantModel(r *domain.Restaurant) *restaurantModel {
	cuisine := r.Cuisine
	if cuisine == nil {
		cuisine = []string{}
	}
	return &restaurantModel{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Description: r.Description,
		Cuisine:     cuisine,
		ImageURL:    r.ImageURL,
		IsOpen:      r.IsOpen,
		Verified:    r.Verified,
		UpiID:       r.UpiID,
		Hours:       r.Hours,
		CreatedAt:   r.CreatedAt,
	}
}

func (m *restaurantModel) toDomain() *domain.Restaurant {
	cuisine := m.Cuisine
	if cuisine == nil {
		cuisine = []string{}
	}
	return &domain.Restaurant{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		Cuisine:     cuisine,
		ImageURL:    m.ImageURL,
		IsOpen:      m.IsOpen,
		Verified:    m.Verified,
		UpiID:       m.UpiID,
		Hours:       m.Hours,
		CreatedAt:   m.CreatedAt,
	}
}

func toMenuItemModel(i *domain.MenuItem) *menuItemModel {
	return &menuItemModel{
		ID:           i.ID,
		RestaurantID: i.RestaurantID,
		Name:         i.Name,
		Description:  i.Description,
		Price:        int64(i.Price),
		Category:     i.Category,
		IsAvailable:  i.IsAvailable,
		ImageURL:     i.ImageURL,
	}
}

func (m *menuItemModel) toDomain() *domain.MenuItem {
	return &domain.MenuItem{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        domain.Money(m.Price),
		Category:     m.Category,
		IsAvailable:  m.IsAvailable,
		ImageURL:     m.ImageURL,
	}
}

func toOrderModel(o *domain.Order) *orderModel {
	return &orderModel{
		ID:             o.ID,
		UserID:         o.UserID,
		RestaurantID:   o.RestaurantID,
		Items:          o.Items,
		TotalAmount:    int64(o.TotalAmount),
		Status:         string(o.Status),
		PickupCode:     o.PickupCode,
		TransactionRef: o.TransactionRef,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func (m *orderModel) toDomain() *domain.Order {
	items := m.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return &domain.Order{
		ID:             m.ID,
		UserID:         m.UserID,
		RestaurantID:   m.RestaurantID,
		Items:          items,
		TotalAmount:    domain.Money(m.TotalAmount),
		Status:         domain.OrderStatus(m.Status),
		PickupCode:     m.PickupCode,
		TransactionRef: m.TransactionRef,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
