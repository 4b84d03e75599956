// Package realtime is the websocket gateway. Each socket is subscribed to
// exactly the channels named in its connection token and receives frames of
// the form {"channel": "...", "data": <payload>}.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/core/service"
	"github.com/grabandgo/campus-orders/internal/metrics"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	handshakeTimeout = 10 * time.Second
	maxMessageSize   = 4096
	sendBuffer       = 64

	minResubscribeDelay = 500 * time.Millisecond
	maxResubscribeDelay = 30 * time.Second
)

// TokenParser validates realtime connection tokens.
type TokenParser interface {
	ParseRealtime(token string) (*service.RealtimeClaims, error)
}

// Frame is what a socket receives for every delivered message.
type Frame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Hub tracks live sockets by channel. It also serves as the in-process
// Publisher when no external broker is configured.
type Hub struct {
	tokens   TokenParser
	upgrader websocket.Upgrader
	log      zerolog.Logger

	resubscribeDelay time.Duration

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
	closed   bool
}

var _ ports.Publisher = (*Hub)(nil)

// NewHub builds a Hub. An empty allowedOrigins accepts any origin.
func NewHub(tokens TokenParser, allowedOrigins []string, log zerolog.Logger) *Hub {
	h := &Hub{
		tokens:           tokens,
		log:              log,
		channels:         make(map[string]map[*client]struct{}),
		resubscribeDelay: minResubscribeDelay,
	}
	h.upgrader = websocket.Upgrader{
		HandshakeTimeout: handshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP authenticates ?token=, upgrades, and attaches the socket.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.ParseRealtime(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, `{"error":"invalid realtime token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", claims.Subject).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:       uuid.NewString(),
		userID:   claims.Subject,
		channels: claims.Channels,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.log.Debug().Str("client_id", c.id).Str("user_id", c.userID).Strs("channels", c.channels).Msg("socket connected")

	go h.writePump(c)
	go h.readPump(c)
}

// Publish delivers payload to every socket subscribed to channel.
func (h *Hub) Publish(_ context.Context, channel string, payload []byte) error {
	h.Deliver(channel, payload)
	return nil
}

// Deliver fans payload out locally. A socket whose queue is full is
// disconnected; it re-syncs by fetching when it reconnects.
func (h *Hub) Deliver(channel string, payload []byte) {
	frame, err := json.Marshal(Frame{Channel: channel, Data: json.RawMessage(payload)})
	if err != nil {
		h.log.Error().Err(err).Str("channel", channel).Msg("encode realtime frame")
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.channels[channel] {
		select {
		case c.send <- frame:
			metrics.RealtimeDeliveredTotal.Inc()
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		metrics.RealtimeSlowClientsTotal.Inc()
		h.log.Warn().Str("client_id", c.id).Str("user_id", c.userID).Msg("slow socket disconnected")
		h.unregister(c)
	}
}

// RunSubscriber feeds every message from sub into local delivery until ctx
// ends. A subscription that fails or closes is retried with exponential
// backoff; HTTP keeps serving meanwhile and clients re-sync on reconnect.
func (h *Hub) RunSubscriber(ctx context.Context, sub ports.Subscriber) error {
	delay := h.resubscribeDelay
	for {
		started := time.Now()
		err := sub.Subscribe(ctx, h.Deliver)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > maxResubscribeDelay {
			delay = h.resubscribeDelay
		}
		metrics.BrokerResubscribesTotal.Inc()
		h.log.Error().Err(err).Dur("retry_in", delay).Msg("broker subscription ended")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxResubscribeDelay)
	}
}

// Subscribers reports how many sockets listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Close disconnects every socket and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*client
	seen := make(map[*client]struct{})
	for _, set := range h.channels {
		for c := range set {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				all = append(all, c)
			}
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	for _, ch := range c.channels {
		set, ok := h.channels[ch]
		if !ok {
			set = make(map[*client]struct{})
			h.channels[ch] = set
		}
		set[c] = struct{}{}
	}
	metrics.RealtimeConnections.Inc()
	return true
}

func (h *Hub) unregister(c *client) {
	c.closeOnce.Do(func() {
		h.mu.Lock()
		for _, ch := range c.channels {
			if set, ok := h.channels[ch]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(h.channels, ch)
				}
			}
		}
		h.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
		metrics.RealtimeConnections.Dec()
	})
}
