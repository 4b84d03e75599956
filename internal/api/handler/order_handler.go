package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grabandgo/campus-orders/internal/core/ports"
)

// OrderHandler handles HTTP requests for the order lifecycle.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create places an order for the authenticated student.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replay protection key"
// @Param        body             body      placeOrderRequest  true   "Cart"
// @Success      201              {object}  domain.Order
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req placeOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := toPlaceOrderInput(req, caller, c.Request().Header.Get("Idempotency-Key"))
	order, err := h.service.PlaceOrder(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// List returns the caller's orders, newest first.
//
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Order
// @Failure      401  {object}  errorResponse
// @Router       /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	orders, err := h.service.ListOrders(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Get returns one order visible to the caller.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  domain.Order
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// History returns the audit trail of one order.
//
// @Summary      Order status history
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {array}   domain.OrderEvent
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /orders/{id}/history [get]
func (h *OrderHandler) History(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	events, err := h.service.OrderHistory(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

// UpdateStatus advances an order on behalf of the fulfilling restaurant.
//
// @Summary      Advance order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Order id"
// @Param        body  body      updateStatusRequest  true  "Target status"
// @Success      200   {object}  orderStatusResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.service.AdvanceStatus(c.Request().Context(), ports.AdvanceStatusInput{
		Caller:  caller,
		OrderID: c.Param("id"),
		Status:  req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderStatusResponse{Success: true, Order: order})
}

// Verify checks a pickup code against one order and completes it on match.
//
// @Summary      Verify pickup code
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Order id"
// @Param        body  body      pickupCodeRequest  true  "Code shown by the student"
// @Success      200   {object}  verifyResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /orders/{id}/verify [post]
func (h *OrderHandler) Verify(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req pickupCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	ok, err := h.service.VerifyPickup(ctx, id, req.PickupCode, caller.RestaurantID)
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(http.StatusOK, verifyResponse{Verified: false})
	}
	order, err := h.service.GetOrder(ctx, id, caller)
	if err != nil {
		return c.JSON(http.StatusOK, verifyResponse{Verified: true})
	}
	return c.JSON(http.StatusOK, verifyResponse{Verified: true, Order: order})
}

// VerifyByCode completes the caller's single READY order matching the code.
//
// @Summary      Verify pickup by code only
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      pickupCodeRequest  true  "Code shown by the student"
// @Success      200   {object}  verifyResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /pickup [post]
func (h *OrderHandler) VerifyByCode(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var req pickupCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, ok, err := h.service.VerifyPickupByCode(c.Request().Context(), req.PickupCode, caller.RestaurantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{Verified: ok, Order: order})
}
