package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/metrics"
)

const (
	minPickupCodeDigits = 4
	maxPickupCodeDigits = 9
)

// AttemptLimiter bounds how often a key may try something (Redis).
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// IdempotencyStore remembers which order a client request key produced (Redis).
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (orderID string, found bool, err error)
	Remember(ctx context.Context, key, orderID string) error
}

// OrderDeps collects the collaborators of OrderService. Audit, Limiter and
// Idempotency are optional.
type OrderDeps struct {
	Orders      ports.OrderRepository
	Menu        ports.MenuRepository
	Restaurants ports.RestaurantRepository
	Audit       ports.AuditLog
	Notifier    Notifier
	Limiter     AttemptLimiter
	Idempotency IdempotencyStore
}

// OrderService owns the order state machine and its persistence.
type OrderService struct {
	deps       OrderDeps
	codeDigits int
	now        func() time.Time
	logger     zerolog.Logger
}

func NewOrderService(deps OrderDeps, pickupCodeDigits int, logger zerolog.Logger) *OrderService {
	pickupCodeDigits = max(minPickupCodeDigits, min(pickupCodeDigits, maxPickupCodeDigits))
	return &OrderService{
		deps:       deps,
		codeDigits: pickupCodeDigits,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// PlaceOrder validates the cart against the live menu, prices it, and stores
// a PENDING order. Nothing is written unless every line is valid.
func (s *OrderService) PlaceOrder(ctx context.Context, in ports.PlaceOrderInput) (*domain.Order, error) {
	if in.Caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.Caller.Role != domain.RoleStudent {
		return nil, fmt.Errorf("%w: only students can place orders", domain.ErrForbidden)
	}
	if in.RestaurantID == "" {
		return nil, fmt.Errorf("%w: restaurantId is required", domain.ErrValidation)
	}
	quantities, ids, err := collectLines(in.RestaurantID, in.Items)
	if err != nil {
		return nil, err
	}

	idemKey := ""
	if in.IdempotencyKey != "" && s.deps.Idempotency != nil {
		idemKey = in.Caller.UserID + ":" + in.IdempotencyKey
		if existing := s.replay(ctx, idemKey, in.Caller.UserID); existing != nil {
			return existing, nil
		}
	}

	restaurant, err := s.deps.Restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.AcceptingOrders() {
		return nil, fmt.Errorf("%w: %s is not accepting orders", domain.ErrValidation, restaurant.Name)
	}

	found, err := s.deps.Menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.MenuItem, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	items := make([]domain.OrderItem, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMenuItemNotFound, id)
		}
		if m.RestaurantID != in.RestaurantID {
			return nil, fmt.Errorf("%w: %s belongs to another restaurant", domain.ErrValidation, m.Name)
		}
		if !m.IsAvailable {
			return nil, fmt.Errorf("%w: %s is unavailable", domain.ErrValidation, m.Name)
		}
		items = append(items, domain.OrderItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Category:   m.Category,
			UnitPrice:  m.Price,
			Quantity:   quantities[id],
		})
	}

	total, err := domain.ComputeTotal(items)
	if err != nil {
		return nil, err
	}

	code, err := generatePickupCode(s.codeDigits)
	if err != nil {
		return nil, fmt.Errorf("generate pickup code: %w", err)
	}

	now := s.now()
	order := &domain.Order{
		ID:             "o_" + uuid.NewString(),
		UserID:         in.Caller.UserID,
		RestaurantID:   in.RestaurantID,
		Items:          items,
		TotalAmount:    total,
		Status:         domain.StatusPending,
		PickupCode:     code,
		TransactionRef: in.PaymentRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.deps.Orders.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("restaurant_id", in.RestaurantID).Msg("failed to create order")
		return nil, err
	}
	metrics.OrdersPlacedTotal.Inc()

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("restaurant_id", order.RestaurantID).
		Str("total", order.TotalAmount.String()).
		Msg("order placed")

	if idemKey != "" {
		if err := s.deps.Idempotency.Remember(ctx, idemKey, order.ID); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("failed to store idempotency key")
		}
	}
	s.recordAudit(ctx, order, "", in.Caller.UserID, "placed")
	s.deps.Notifier.OrderChanged(ctx, order)

	return order, nil
}

// collectLines validates the raw cart lines and merges repeated items.
// It returns quantities by menu item id and the ids in first-seen order.
func collectLines(restaurantID string, lines []ports.LineItemInput) (map[string]int, []string, error) {
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	quantities := make(map[string]int, len(lines))
	ids := make([]string, 0, len(lines))
	for i, l := range lines {
		if l.MenuItemID == "" {
			return nil, nil, fmt.Errorf("%w: items[%d] has no menuItemId", domain.ErrValidation, i)
		}
		if l.Quantity < 1 || l.Quantity > domain.MaxLineQuantity {
			return nil, nil, fmt.Errorf("%w: items[%d] quantity must be between 1 and %d", domain.ErrValidation, i, domain.MaxLineQuantity)
		}
		if l.RestaurantID != "" && l.RestaurantID != restaurantID {
			return nil, nil, fmt.Errorf("%w: items[%d] belongs to another restaurant", domain.ErrValidation, i)
		}
		if _, seen := quantities[l.MenuItemID]; !seen {
			ids = append(ids, l.MenuItemID)
		}
		quantities[l.MenuItemID] += l.Quantity
		if quantities[l.MenuItemID] > domain.MaxLineQuantity {
			return nil, nil, fmt.Errorf("%w: more than %d of %s", domain.ErrValidation, domain.MaxLineQuantity, l.MenuItemID)
		}
	}
	return quantities, ids, nil
}

func (s *OrderService) replay(ctx context.Context, key, userID string) *domain.Order {
	orderID, found, err := s.deps.Idempotency.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency lookup failed, placing order anyway")
		return nil
	}
	if !found {
		return nil
	}
	existing, err := s.deps.Orders.FindByID(ctx, orderID)
	if err != nil || existing.UserID != userID {
		return nil
	}
	s.logger.Info().Str("order_id", existing.ID).Msg("idempotent replay")
	return existing
}

// AdvanceStatus applies one restaurant-triggered transition. Only the
// fulfilling restaurant's own account may call it.
func (s *OrderService) AdvanceStatus(ctx context.Context, in ports.AdvanceStatusInput) (*domain.Order, error) {
	if in.Caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.Caller.Role != domain.RoleRestaurant || in.Caller.RestaurantID == "" {
		return nil, fmt.Errorf("%w: only the fulfilling restaurant can change order status", domain.ErrForbidden)
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, in.Status)
	}

	order, err := s.deps.Orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.RestaurantID != in.Caller.RestaurantID {
		return nil, fmt.Errorf("%w: order belongs to another restaurant", domain.ErrForbidden)
	}

	if !order.Status.CanTransitionBy(in.Status, domain.TriggerRestaurant) {
		if order.Status.CanTransitionTo(in.Status) {
			return nil, fmt.Errorf("%w (from %s to %s requires pickup verification)", domain.ErrInvalidTransition, order.Status, in.Status)
		}
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, order.Status, in.Status)
	}

	updated, ok, err := s.transition(ctx, order, in.Status, in.Caller.UserID, domain.TriggerRestaurant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w (order %s changed concurrently, wanted %s to %s)", domain.ErrInvalidTransition, order.ID, order.Status, in.Status)
	}
	return updated, nil
}

// transition performs the compare-and-set and, only when this call won,
// the audit append and fan-out.
func (s *OrderService) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus, actorID string, trigger domain.Trigger) (*domain.Order, bool, error) {
	from := order.Status
	// Clients drop snapshots older than the one they hold, so every change
	// must carry a later stamp than the last, whatever the wall clock does.
	at := s.now()
	if !at.After(order.UpdatedAt) {
		at = order.UpdatedAt.Add(time.Microsecond)
	}

	changed, err := s.deps.Orders.UpdateStatus(ctx, order.ID, from, to, at)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to update order status")
		return nil, false, err
	}
	if !changed {
		metrics.OrderTransitionConflictsTotal.Inc()
		s.logger.Info().Str("order_id", order.ID).Str("from", string(from)).Str("to", string(to)).Msg("status changed concurrently")
		return nil, false, nil
	}

	updated := *order
	updated.Status = to
	updated.UpdatedAt = at
	metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()

	s.logger.Info().
		Str("order_id", order.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("trigger", string(trigger)).
		Msg("order status changed")

	s.recordAudit(ctx, &updated, from, actorID, string(trigger))
	s.deps.Notifier.OrderChanged(ctx, &updated)
	return &updated, true, nil
}

// VerifyPickup completes a READY order when code matches. Every kind of
// mismatch yields false with no side effects and no hint of the cause.
func (s *OrderService) VerifyPickup(ctx context.Context, orderID, code, restaurantID string) (bool, error) {
	if !s.allowAttempt(ctx, restaurantID) {
		return false, nil
	}
	_, ok, err := s.verify(ctx, orderID, code, restaurantID)
	return ok, err
}

// VerifyPickupByCode finds the single READY order of restaurantID carrying
// code and verifies it. Zero or several matches are a rejection.
func (s *OrderService) VerifyPickupByCode(ctx context.Context, code, restaurantID string) (*domain.Order, bool, error) {
	if !s.allowAttempt(ctx, restaurantID) {
		return nil, false, nil
	}
	if code == "" {
		s.rejectPickup(restaurantID, "")
		return nil, false, nil
	}
	matches, err := s.deps.Orders.List(ctx, ports.ListOrdersFilter{
		RestaurantID: restaurantID,
		Status:       domain.StatusReady,
		PickupCode:   code,
	})
	if err != nil {
		return nil, false, err
	}
	if len(matches) != 1 {
		s.rejectPickup(restaurantID, "")
		return nil, false, nil
	}
	return s.verify(ctx, matches[0].ID, code, restaurantID)
}

func (s *OrderService) verify(ctx context.Context, orderID, code, restaurantID string) (*domain.Order, bool, error) {
	if restaurantID == "" || orderID == "" {
		s.rejectPickup(restaurantID, orderID)
		return nil, false, nil
	}
	order, err := s.deps.Orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.rejectPickup(restaurantID, orderID)
			return nil, false, nil
		}
		return nil, false, err
	}
	if order.RestaurantID != restaurantID || order.Status != domain.StatusReady || !codesEqual(order.PickupCode, code) {
		s.rejectPickup(restaurantID, orderID)
		return nil, false, nil
	}

	updated, ok, err := s.transition(ctx, order, domain.StatusCompleted, "restaurant:"+restaurantID, domain.TriggerPickup)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.rejectPickup(restaurantID, orderID)
		return nil, false, nil
	}
	metrics.PickupVerificationsTotal.WithLabelValues("completed").Inc()
	return updated, true, nil
}

func (s *OrderService) allowAttempt(ctx context.Context, restaurantID string) bool {
	if s.deps.Limiter == nil || restaurantID == "" {
		return true
	}
	ok, err := s.deps.Limiter.Allow(ctx, "pickup:"+restaurantID)
	if err != nil {
		s.logger.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("pickup limiter failed, allowing attempt")
		return true
	}
	if !ok {
		metrics.PickupVerificationsTotal.WithLabelValues("rate_limited").Inc()
		s.logger.Warn().Str("restaurant_id", restaurantID).Msg("pickup verification rate limited")
	}
	return ok
}

func (s *OrderService) rejectPickup(restaurantID, orderID string) {
	metrics.PickupVerificationsTotal.WithLabelValues("rejected").Inc()
	s.logger.Info().Str("restaurant_id", restaurantID).Str("order_id", orderID).Msg("pickup verification rejected")
}

func codesEqual(stored, supplied string) bool {
	return len(stored) == len(supplied) && subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// ListOrders returns the orders visible to caller: a student's own orders,
// or a restaurant's incoming orders. Admins see none.
func (s *OrderService) ListOrders(ctx context.Context, caller domain.Caller) ([]*domain.Order, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	var filter ports.ListOrdersFilter
	switch caller.Role {
	case domain.RoleStudent:
		filter.UserID = caller.UserID
	case domain.RoleRestaurant:
		if caller.RestaurantID == "" {
			return []*domain.Order{}, nil
		}
		filter.RestaurantID = caller.RestaurantID
	case domain.RoleAdmin:
		return []*domain.Order{}, nil
	default:
		return nil, domain.ErrForbidden
	}
	return s.deps.Orders.List(ctx, filter)
}

// GetOrder returns one order if caller placed it or fulfils it. Anything
// else reads as not found.
func (s *OrderService) GetOrder(ctx context.Context, id string, caller domain.Caller) (*domain.Order, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	order, err := s.deps.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case caller.Role == domain.RoleStudent && order.UserID == caller.UserID:
	case caller.Role == domain.RoleRestaurant && caller.RestaurantID != "" && order.RestaurantID == caller.RestaurantID:
	default:
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// OrderHistory returns the audit trail of an order visible to caller.
func (s *OrderService) OrderHistory(ctx context.Context, id string, caller domain.Caller) ([]*domain.OrderEvent, error) {
	if _, err := s.GetOrder(ctx, id, caller); err != nil {
		return nil, err
	}
	if s.deps.Audit == nil {
		return []*domain.OrderEvent{}, nil
	}
	events, err := s.deps.Audit.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: audit log: %v", domain.ErrUpstream, err)
	}
	return events, nil
}

// recordAudit appends to the audit trail. Failures are logged only.
func (s *OrderService) recordAudit(ctx context.Context, o *domain.Order, from domain.OrderStatus, actorID, trigger string) {
	if s.deps.Audit == nil {
		return
	}
	ev := &domain.OrderEvent{
		OrderID:      o.ID,
		UserID:       o.UserID,
		RestaurantID: o.RestaurantID,
		From:         from,
		To:           o.Status,
		ActorID:      actorID,
		Trigger:      trigger,
		At:           o.UpdatedAt,
	}
	if err := s.deps.Audit.Append(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("failed to insert audit event")
	}
}

// generatePickupCode draws uniformly from [0, 10^digits) and zero-pads.
func generatePickupCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
