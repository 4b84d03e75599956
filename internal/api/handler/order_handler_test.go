package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

type stubOrderService struct {
	placed   []ports.PlaceOrderInput
	advanced []ports.AdvanceStatusInput
	orders   map[string]*domain.Order
	codes    map[string]string
	err      error
}

func newStubOrderService() *stubOrderService {
	return &stubOrderService{
		orders: map[string]*domain.Order{
			"o_1": {ID: "o_1", UserID: student.UserID, RestaurantID: "r1", Status: domain.StatusReady, PickupCode: "4821", TotalAmount: 1300},
		},
		codes: map[string]string{"o_1": "4821"},
	}
}

func (s *stubOrderService) PlaceOrder(_ context.Context, in ports.PlaceOrderInput) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.placed = append(s.placed, in)
	return &domain.Order{ID: "o_new", UserID: in.Caller.UserID, RestaurantID: in.RestaurantID, Status: domain.StatusPending, PickupCode: "0042"}, nil
}

func (s *stubOrderService) AdvanceStatus(_ context.Context, in ports.AdvanceStatusInput) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.advanced = append(s.advanced, in)
	o := *s.orders[in.OrderID]
	o.Status = in.Status
	return &o, nil
}

func (s *stubOrderService) VerifyPickup(_ context.Context, orderID, code, restaurantID string) (bool, error) {
	o, ok := s.orders[orderID]
	return ok && o.RestaurantID == restaurantID && s.codes[orderID] == code, s.err
}

func (s *stubOrderService) VerifyPickupByCode(_ context.Context, code, restaurantID string) (*domain.Order, bool, error) {
	for id, c := range s.codes {
		if c == code && s.orders[id].RestaurantID == restaurantID {
			return s.orders[id], true, nil
		}
	}
	return nil, false, s.err
}

func (s *stubOrderService) ListOrders(_ context.Context, caller domain.Caller) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range s.orders {
		if o.UserID == caller.UserID || o.RestaurantID == caller.RestaurantID {
			out = append(out, o)
		}
	}
	return out, s.err
}

func (s *stubOrderService) GetOrder(_ context.Context, id string, _ domain.Caller) (*domain.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (s *stubOrderService) OrderHistory(_ context.Context, id string, _ domain.Caller) ([]*domain.OrderEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.OrderEvent{{OrderID: id, To: domain.StatusPending}}, nil
}

func TestOrderHandler_Create(t *testing.T) {
	svc := newStubOrderService()
	h := NewOrderHandler(svc)

	body := `{"restaurantId":"r1","items":[{"menuItemId":"m1","quantity":2},{"menuItemId":"m2","restaurantId":"r1","quantity":1}],"transactionRef":"upi-77"}`
	c, rec := newContext(http.MethodPost, "/api/orders", body, student)
	c.Request().Header.Set("Idempotency-Key", "cart-1")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(svc.placed) != 1 {
		t.Fatalf("expected one PlaceOrder call")
	}
	in := svc.placed[0]
	if in.Caller != student || in.IdempotencyKey != "cart-1" || in.PaymentRef != "upi-77" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if len(in.Items) != 2 || in.Items[0].Quantity != 2 || in.Items[1].RestaurantID != "r1" {
		t.Fatalf("unexpected items: %+v", in.Items)
	}

	var got domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Status != domain.StatusPending || got.PickupCode != "0042" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestOrderHandler_Create_Rejections(t *testing.T) {
	svc := newStubOrderService()
	h := NewOrderHandler(svc)

	c, _ := newContext(http.MethodPost, "/api/orders", `{"restaurantId":"r1","items":[]}`, student)
	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty cart: expected ErrValidation, got %v", err)
	}

	c, _ = newContext(http.MethodPost, "/api/orders", `{"restaurantId":"r1","items":[{"menuItemId":"m1","quantity":0}]}`, student)
	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero quantity: expected ErrValidation, got %v", err)
	}

	c, _ = newContext(http.MethodPost, "/api/orders", `{"restaurantId":"r1","items":[{"menuItemId":"m1","quantity":14189803133622733}]}`, student)
	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("huge quantity: expected ErrValidation, got %v", err)
	}

	c, _ = newContext(http.MethodPost, "/api/orders", `{"restaurantId":"r1","items":[{"menuItemId":"m1","quantity":1}]}`, domain.Caller{})
	if err := h.Create(c); httpCode(err) != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %v", err)
	}

	if len(svc.placed) != 0 {
		t.Fatalf("service must not be reached on rejected input")
	}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	svc := newStubOrderService()
	svc.orders["o_1"].Status = domain.StatusAccepted
	h := NewOrderHandler(svc)

	c, rec := newContext(http.MethodPut, "/api/orders/o_1/status", `{"status":"READY"}`, kitchen, "id", "o_1")
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp orderStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Order.Status != domain.StatusReady {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if svc.advanced[0].OrderID != "o_1" || svc.advanced[0].Caller != kitchen {
		t.Fatalf("unexpected input: %+v", svc.advanced[0])
	}

	svc.err = domain.ErrInvalidTransition
	c, _ = newContext(http.MethodPut, "/api/orders/o_1/status", `{"status":"ACCEPTED"}`, kitchen, "id", "o_1")
	if err := h.UpdateStatus(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestOrderHandler_Verify(t *testing.T) {
	h := NewOrderHandler(newStubOrderService())

	c, rec := newContext(http.MethodPost, "/api/orders/o_1/verify", `{"pickupCode":"4821"}`, kitchen, "id", "o_1")
	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var ok verifyResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &ok)
	if !ok.Verified || ok.Order == nil || ok.Order.ID != "o_1" {
		t.Fatalf("expected verified with order, got %+v", ok)
	}

	c, rec = newContext(http.MethodPost, "/api/orders/o_1/verify", `{"pickupCode":"0000"}`, kitchen, "id", "o_1")
	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var bad map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &bad)
	if bad["verified"] != false {
		t.Fatalf("expected verified=false, got %v", bad)
	}
	if _, present := bad["order"]; present {
		t.Fatalf("rejected verification must not include an order")
	}
}

func TestOrderHandler_VerifyByCode(t *testing.T) {
	h := NewOrderHandler(newStubOrderService())

	c, rec := newContext(http.MethodPost, "/api/pickup", `{"pickupCode":"4821"}`, kitchen)
	if err := h.VerifyByCode(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp verifyResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Verified || resp.Order.ID != "o_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	c, _ = newContext(http.MethodPost, "/api/pickup", `{}`, kitchen)
	if err := h.VerifyByCode(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing code, got %v", err)
	}
}

func TestOrderHandler_RestaurantTokenWithoutRestaurant(t *testing.T) {
	h := NewOrderHandler(newStubOrderService())
	broken := domain.Caller{UserID: "u_x", Role: domain.RoleRestaurant}

	c, _ := newContext(http.MethodGet, "/api/orders", "", broken)
	if err := h.List(c); httpCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestOrderHandler_GetAndHistory(t *testing.T) {
	svc := newStubOrderService()
	h := NewOrderHandler(svc)

	c, _ := newContext(http.MethodGet, "/api/orders/o_missing", "", student, "id", "o_missing")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	c, rec := newContext(http.MethodGet, "/api/orders/o_1/history", "", student, "id", "o_1")
	if err := h.History(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var events []domain.OrderEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil || len(events) != 1 {
		t.Fatalf("unexpected history %s: %v", rec.Body.String(), err)
	}

	svc.err = domain.ErrUpstream
	c, _ = newContext(http.MethodGet, "/api/orders/o_1/history", "", student, "id", "o_1")
	if err := h.History(c); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
