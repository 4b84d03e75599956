package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

// SessionConfig locates the server.
type SessionConfig struct {
	// BaseURL is the HTTP origin, e.g. http://localhost:3000.
	BaseURL string
	// RealtimeURL defaults to BaseURL with a ws scheme and the gateway path.
	RealtimeURL string
	CallTimeout time.Duration
}

// Session is one signed-in consumer: API calls, local state and the push
// subscription share it.
type Session struct {
	api   *APIClient
	store *Store
	rtURL string
	log   zerolog.Logger
}

func NewSession(cfg SessionConfig, log zerolog.Logger) *Session {
	rtURL := cfg.RealtimeURL
	if rtURL == "" {
		rtURL = strings.Replace(strings.TrimRight(cfg.BaseURL, "/"), "http", "ws", 1) + "/connection/websocket"
	}
	return &Session{
		api:   NewAPIClient(cfg.BaseURL, cfg.CallTimeout),
		store: NewStore(),
		rtURL: rtURL,
		log:   log,
	}
}

func (s *Session) Store() *Store { return s.store }

func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	token, user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.api.SetToken(token)
	s.store.SetSession(user, token)
	return user, nil
}

func (s *Session) Logout() {
	s.api.SetToken("")
	s.store.Reset()
}

// RefreshOrders replaces local orders with the server's list.
func (s *Session) RefreshOrders(ctx context.Context) error {
	list, err := s.api.ListOrders(ctx)
	if err != nil {
		return err
	}
	s.store.ReplaceOrders(list)
	return nil
}

// RefreshCatalog reloads restaurants and, when restaurantID is set, that
// restaurant's menu.
func (s *Session) RefreshCatalog(ctx context.Context, restaurantID string) error {
	restaurants, err := s.api.ListRestaurants(ctx)
	if err != nil {
		return err
	}
	s.store.SetRestaurants(restaurants)
	if restaurantID == "" {
		return nil
	}
	menu, err := s.api.ListMenu(ctx, restaurantID)
	if err != nil {
		return err
	}
	s.store.SetMenu(menu)
	return nil
}

// PlaceOrder checks out the cart. The cart is cleared only once the server
// has accepted the order; on failure it is left as it was. The payment
// reference doubles as the idempotency key, so retrying one payment yields
// one order.
func (s *Session) PlaceOrder(ctx context.Context, transactionRef string) (*domain.Order, error) {
	cart := s.store.Cart()
	if cart.Empty() {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	req := PlaceOrderRequest{RestaurantID: cart.RestaurantID, TransactionRef: transactionRef}
	for _, l := range cart.Lines {
		req.Items = append(req.Items, OrderLine{
			MenuItemID:   l.Item.ID,
			RestaurantID: l.Item.RestaurantID,
			Quantity:     l.Quantity,
		})
	}

	key := transactionRef
	if key == "" {
		key = uuid.NewString()
	}
	order, err := s.api.PlaceOrder(ctx, req, key)
	if err != nil {
		return nil, err
	}
	s.store.ClearCart()
	s.store.MergeOrder(order)
	return order, nil
}

// AdvanceStatus moves an order optimistically, then confirms with the
// server. A rejection reverts the local change; an ambiguous failure
// also re-fetches so the store shows what the server actually holds.
func (s *Session) AdvanceStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	action, err := s.store.BeginStatusChange(orderID, next)
	if err != nil {
		return nil, err
	}

	order, err := s.api.UpdateStatus(ctx, orderID, next)
	if err != nil {
		s.store.Revert(action)
		if Ambiguous(err) {
			if rerr := s.RefreshOrders(ctx); rerr != nil {
				s.log.Warn().Err(rerr).Str("order_id", orderID).Msg("re-fetch after failed status change")
			}
		}
		return nil, err
	}
	s.store.Commit(action, order)
	return order, nil
}

// VerifyPickup asks the server to check a pickup code. A match completes the
// order locally as well.
func (s *Session) VerifyPickup(ctx context.Context, orderID, code string) (bool, error) {
	ok, order, err := s.api.VerifyPickup(ctx, orderID, code)
	if err != nil {
		return false, err
	}
	if ok && order != nil {
		s.store.MergeOrder(order)
	}
	return ok, nil
}

// Listen subscribes to the caller's channels until ctx ends. Every
// (re)connect triggers a full order re-fetch so missed pushes are recovered.
func (s *Session) Listen(ctx context.Context) error {
	user, _, ok := s.store.Session()
	if !ok {
		return domain.ErrUnauthorized
	}
	rt := NewRealtime(RealtimeConfig{
		URL: s.rtURL,
		Token: func(ctx context.Context) (string, error) {
			return s.api.RealtimeToken(ctx, user.ID)
		},
		OnConnect: func(ctx context.Context) {
			if err := s.RefreshOrders(ctx); err != nil {
				s.log.Warn().Err(err).Msg("re-fetch on connect")
			}
		},
		OnFrame: s.apply,
	}, s.log)
	return rt.Run(ctx)
}

func (s *Session) apply(f Frame) {
	switch {
	case strings.HasPrefix(f.Channel, "orders:"):
		var o domain.Order
		if err := json.Unmarshal(f.Data, &o); err != nil || o.ID == "" {
			s.log.Warn().Err(err).Str("channel", f.Channel).Msg("bad order frame")
			return
		}
		s.store.MergeOrder(&o)
	case f.Channel == domain.ChannelCatalog:
		var ev domain.CatalogEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			s.log.Warn().Err(err).Msg("bad catalog frame")
			return
		}
		s.store.ApplyCatalogEvent(ev)
	}
}
