package domain

import "time"

const (
	RoleStudent    = "STUDENT"
	RoleRestaurant = "RESTAURANT"
	RoleAdmin      = "ADMIN"
)

// User models an authenticated actor in the system. The role is fixed at creation.
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone,omitempty"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	SecurityQuestion   string    `json:"securityQuestion,omitempty"`
	SecurityAnswerHash string    `json:"-"`
	RestaurantID       string    `json:"restaurantId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Caller is the authenticated identity a request acts as.
type Caller struct {
	UserID       string
	Role         string
	RestaurantID string
}
