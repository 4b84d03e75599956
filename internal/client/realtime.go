package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
	handshakeTimeout  = 10 * time.Second
)

// Frame is one message pushed by the realtime gateway.
type Frame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// RealtimeConfig wires a Realtime subscriber.
type RealtimeConfig struct {
	// URL is the gateway endpoint, e.g. ws://host:3000/connection/websocket.
	URL string
	// Token mints a fresh connection token before every dial.
	Token func(ctx context.Context) (string, error)
	// OnConnect runs after every successful (re)connect, before frames are
	// read. Session uses it for a full re-fetch.
	OnConnect func(ctx context.Context)
	OnFrame   func(Frame)

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Realtime keeps one websocket open, redialling with exponential backoff.
type Realtime struct {
	cfg    RealtimeConfig
	dialer *websocket.Dialer
	log    zerolog.Logger
}

func NewRealtime(cfg RealtimeConfig, log zerolog.Logger) *Realtime {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = defaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	return &Realtime{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:    log,
	}
}

// Run connects and reads until ctx ends, reconnecting after every failure.
func (r *Realtime) Run(ctx context.Context) error {
	backoff := r.cfg.MinBackoff
	for {
		connected, err := r.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = r.cfg.MinBackoff
		}
		r.log.Warn().Err(err).Dur("retry_in", backoff).Msg("realtime disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, r.cfg.MaxBackoff)
	}
}

// session runs one connection and reports whether the dial succeeded.
func (r *Realtime) session(ctx context.Context) (bool, error) {
	token, err := r.cfg.Token(ctx)
	if err != nil {
		return false, fmt.Errorf("realtime token: %w", err)
	}
	target, err := withToken(r.cfg.URL, token)
	if err != nil {
		return false, err
	}

	conn, _, err := r.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	r.log.Debug().Msg("realtime connected")
	if r.cfg.OnConnect != nil {
		r.cfg.OnConnect(ctx)
	}

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				r.log.Warn().Err(err).Msg("discarding malformed frame")
				continue
			}
			return true, err
		}
		if r.cfg.OnFrame != nil {
			r.cfg.OnFrame(f)
		}
	}
}

func withToken(raw, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
