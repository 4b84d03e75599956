package handler

import "github.com/grabandgo/campus-orders/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// --- Auth ---

type signupRequest struct {
	Name             string `json:"name"             validate:"required"`
	Email            string `json:"email"            validate:"required,email"`
	Phone            string `json:"phone"`
	Password         string `json:"password"         validate:"required,min=6"`
	Role             string `json:"role"             validate:"required,oneof=STUDENT RESTAURANT"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
	RestaurantName   string `json:"restaurantName"   validate:"required_if=Role RESTAURANT"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type recoverPasswordRequest struct {
	Email          string `json:"email"          validate:"required"`
	SecurityAnswer string `json:"securityAnswer" validate:"required"`
	NewPassword    string `json:"newPassword"    validate:"required,min=6"`
}

type realtimeTokenRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// --- Orders ---

type orderLineRequest struct {
	MenuItemID   string `json:"menuItemId"   validate:"required"`
	RestaurantID string `json:"restaurantId"`
	Quantity     int    `json:"quantity"     validate:"gt=0,lte=99"`
}

type placeOrderRequest struct {
	RestaurantID   string             `json:"restaurantId"   validate:"required"`
	Items          []orderLineRequest `json:"items"          validate:"required,min=1,dive"`
	TransactionRef string             `json:"transactionRef"`
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

type pickupCodeRequest struct {
	PickupCode string `json:"pickupCode" validate:"required"`
}

type orderStatusResponse struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order"`
}

type verifyResponse struct {
	Verified bool          `json:"verified"`
	Order    *domain.Order `json:"order,omitempty"`
}

// --- Catalog ---

type restaurantProfileRequest struct {
	Name        string   `json:"name"        validate:"required"`
	Description string   `json:"description"`
	Cuisine     []string `json:"cuisine"`
	ImageURL    string   `json:"imageUrl"`
	UpiID       string   `json:"upiId"`
	Hours       string   `json:"hours"`
}

type restaurantOpenRequest struct {
	IsOpen *bool `json:"isOpen" validate:"required"`
}

type restaurantVerifyRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

type menuItemRequest struct {
	Name        string       `json:"name"        validate:"required"`
	Description string       `json:"description"`
	Price       domain.Money `json:"price"       validate:"gte=0"`
	Category    string       `json:"category"`
	IsAvailable *bool        `json:"isAvailable"`
	ImageURL    string       `json:"imageUrl"`
}
