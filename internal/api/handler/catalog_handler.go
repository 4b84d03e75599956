package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// CatalogHandler serves restaurants and menus.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListRestaurants returns the restaurants visible to the caller.
//
// @Summary      List restaurants
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  ports.RestaurantView
// @Router       /restaurants [get]
func (h *CatalogHandler) ListRestaurants(c echo.Context) error {
	list, err := h.service.ListRestaurants(c.Request().Context(), optionalCaller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateRestaurant edits the owner's restaurant profile.
//
// @Summary      Update restaurant profile
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Restaurant id"
// @Param        body  body      restaurantProfileRequest  true  "Profile"
// @Success      200   {object}  domain.Restaurant
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /restaurants/{id} [put]
func (h *CatalogHandler) UpdateRestaurant(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req restaurantProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.UpdateRestaurant(c.Request().Context(), caller, c.Param("id"), toProfileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// SetRestaurantStatus opens or closes the owner's restaurant.
//
// @Summary      Open or close a restaurant
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Restaurant id"
// @Param        body  body      restaurantOpenRequest  true  "Open flag"
// @Success      200   {object}  successResponse
// @Failure      403   {object}  errorResponse
// @Router       /restaurants/{id}/status [put]
func (h *CatalogHandler) SetRestaurantStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req restaurantOpenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetRestaurantOpen(c.Request().Context(), caller, c.Param("id"), *req.IsOpen); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// VerifyRestaurant sets the verified flag.
//
// @Summary      Verify a restaurant
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Restaurant id"
// @Param        body  body      restaurantVerifyRequest  true  "Verified flag"
// @Success      200   {object}  successResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /restaurants/{id}/verify [put]
func (h *CatalogHandler) VerifyRestaurant(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req restaurantVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.VerifyRestaurant(c.Request().Context(), caller, c.Param("id"), *req.Verified); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// DeclineRestaurant removes an unverified restaurant.
//
// @Summary      Decline a restaurant
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Restaurant id"
// @Success      200  {object}  successResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /restaurants/{id} [delete]
func (h *CatalogHandler) DeclineRestaurant(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.service.DeclineRestaurant(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// ListMenu returns menu items, optionally for one restaurant.
//
// @Summary      List menu items
// @Tags         catalog
// @Produce      json
// @Param        restaurantId  query     string  false  "Restaurant id"
// @Success      200           {array}   domain.MenuItem
// @Router       /menu [get]
func (h *CatalogHandler) ListMenu(c echo.Context) error {
	items, err := h.service.ListMenu(c.Request().Context(), c.QueryParam("restaurantId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// CreateMenuItem adds an item to the caller's restaurant.
//
// @Summary      Create menu item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      menuItemRequest  true  "Item"
// @Success      201   {object}  domain.MenuItem
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /menu [post]
func (h *CatalogHandler) CreateMenuItem(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req menuItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.service.CreateMenuItem(c.Request().Context(), caller, toMenuItemInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem edits an item of the caller's restaurant.
//
// @Summary      Update menu item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Menu item id"
// @Param        body  body      menuItemRequest  true  "Item"
// @Success      200   {object}  domain.MenuItem
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /menu/{id} [put]
func (h *CatalogHandler) UpdateMenuItem(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req menuItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.service.UpdateMenuItem(c.Request().Context(), caller, c.Param("id"), toMenuItemInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteMenuItem removes an item of the caller's restaurant.
//
// @Summary      Delete menu item
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Menu item id"
// @Success      200  {object}  successResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /menu/{id} [delete]
func (h *CatalogHandler) DeleteMenuItem(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteMenuItem(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
