package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/grabandgo/campus-orders/internal/core/domain"
)

const defaultCallTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap maps the status back onto the domain sentinel the server used.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrInvalidTransition
	case http.StatusServiceUnavailable:
		return domain.ErrStorageBusy
	case http.StatusBadGateway:
		return domain.ErrUpstream
	}
	return nil
}

// Ambiguous reports whether err leaves the outcome of a mutation unknown,
// so local state must be re-fetched rather than trusted.
func Ambiguous(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// PlaceOrderRequest is the wire form of a checkout.
type PlaceOrderRequest struct {
	RestaurantID   string      `json:"restaurantId"`
	Items          []OrderLine `json:"items"`
	TransactionRef string      `json:"transactionRef,omitempty"`
}

type OrderLine struct {
	MenuItemID   string `json:"menuItemId"`
	RestaurantID string `json:"restaurantId,omitempty"`
	Quantity     int    `json:"quantity"`
}

// APIClient calls the REST API. Every call is bounded by the client's
// timeout in addition to the caller's context.
type APIClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *APIClient) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, nil, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, resp.User, nil
}

func (c *APIClient) RealtimeToken(ctx context.Context, userID string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/realtime-token", map[string]string{"userId": userID}, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *APIClient) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	var out []Restaurant
	if err := c.do(ctx, http.MethodGet, "/api/restaurants", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) ListMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	path := "/api/menu"
	if restaurantID != "" {
		path += "?restaurantId=" + url.QueryEscape(restaurantID)
	}
	var out []domain.MenuItem
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlaceOrder sends a checkout. idempotencyKey lets a retried request
// return the order the first attempt created.
func (c *APIClient) PlaceOrder(ctx context.Context, req PlaceOrderRequest, idempotencyKey string) (*domain.Order, error) {
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	var out []*domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var resp struct {
		Success bool          `json:"success"`
		Order   *domain.Order `json:"order"`
	}
	body := map[string]domain.OrderStatus{"status": status}
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id)+"/status", body, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

func (c *APIClient) VerifyPickup(ctx context.Context, id, code string) (bool, *domain.Order, error) {
	var resp struct {
		Verified bool          `json:"verified"`
		Order    *domain.Order `json:"order"`
	}
	body := map[string]string{"pickupCode": code}
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(id)+"/verify", body, nil, &resp); err != nil {
		return false, nil, err
	}
	return resp.Verified, resp.Order, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, in any, headers http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope)
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
