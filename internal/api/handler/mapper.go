package handler

import (
	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// --- Request → Service input ---

func toSignupInput(req signupRequest) ports.SignupInput {
	return ports.SignupInput{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Password:         req.Password,
		Role:             req.Role,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
		RestaurantName:   req.RestaurantName,
	}
}

func toPlaceOrderInput(req placeOrderRequest, caller domain.Caller, idempotencyKey string) ports.PlaceOrderInput {
	items := make([]ports.LineItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ports.LineItemInput{
			MenuItemID:   it.MenuItemID,
			RestaurantID: it.RestaurantID,
			Quantity:     it.Quantity,
		})
	}
	return ports.PlaceOrderInput{
		Caller:         caller,
		RestaurantID:   req.RestaurantID,
		Items:          items,
		PaymentRef:     req.TransactionRef,
		IdempotencyKey: idempotencyKey,
	}
}

func toProfileInput(req restaurantProfileRequest) ports.RestaurantProfileInput {
	return ports.RestaurantProfileInput{
		Name:        req.Name,
		Description: req.Description,
		Cuisine:     req.Cuisine,
		ImageURL:    req.ImageURL,
		UpiID:       req.UpiID,
		Hours:       req.Hours,
	}
}

// toMenuItemInput treats a missing isAvailable as true.
func toMenuItemInput(req menuItemRequest) ports.MenuItemInput {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return ports.MenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsAvailable: available,
		ImageURL:    req.ImageURL,
	}
}
