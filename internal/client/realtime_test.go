package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// gateway is a scripted websocket endpoint. Each connection gets the next
// script; the last one is held open until the test ends.
type gateway struct {
	t       *testing.T
	scripts [][]string
	conns   atomic.Int32
	tokens  chan string
	done    chan struct{}
}

func newGateway(t *testing.T, scripts ...[]string) (*gateway, *httptest.Server) {
	g := &gateway{t: t, scripts: scripts, tokens: make(chan string, 16), done: make(chan struct{})}
	srv := httptest.NewServer(g)
	t.Cleanup(func() {
		close(g.done)
		srv.Close()
	})
	return g, srv
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	g.tokens <- r.URL.Query().Get("token")

	n := int(g.conns.Add(1)) - 1
	if n >= len(g.scripts) {
		n = len(g.scripts) - 1
	}
	for _, msg := range g.scripts[n] {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
	}
	if n < len(g.scripts)-1 {
		return
	}
	select {
	case <-g.done:
	case <-r.Context().Done():
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/connection/websocket"
}

type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) add(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, f)
}

func (l *frameLog) channels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.frames))
	for _, f := range l.frames {
		out = append(out, f.Channel)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRealtime_DeliversFramesAndReconnects(t *testing.T) {
	g, srv := newGateway(t,
		[]string{`{"channel":"orders:u_1","data":{"id":"o_1"}}`, `{bad`, `{"channel":"restaurant","data":{}}`},
		[]string{`{"channel":"orders:u_1","data":{"id":"o_2"}}`},
	)

	var log frameLog
	var connects, minted atomic.Int32
	rt := NewRealtime(RealtimeConfig{
		URL: wsURL(srv),
		Token: func(context.Context) (string, error) {
			minted.Add(1)
			return "rt-token", nil
		},
		OnConnect:  func(context.Context) { connects.Add(1) },
		OnFrame:    log.add,
		MinBackoff: 10 * time.Millisecond,
		MaxBackoff: 20 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	waitFor(t, func() bool { return len(log.channels()) == 3 })
	got := log.channels()
	if got[0] != "orders:u_1" || got[1] != "restaurant" || got[2] != "orders:u_1" {
		t.Fatalf("unexpected frames: %v", got)
	}
	if connects.Load() != 2 || minted.Load() != 2 {
		t.Fatalf("expected 2 connects with fresh tokens, got connects=%d tokens=%d", connects.Load(), minted.Load())
	}
	if tok := <-g.tokens; tok != "rt-token" {
		t.Fatalf("token not passed in query: %q", tok)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestRealtime_RetriesFailedDial(t *testing.T) {
	var attempts atomic.Int32
	rt := NewRealtime(RealtimeConfig{
		URL: "ws://127.0.0.1:1/connection/websocket",
		Token: func(context.Context) (string, error) {
			attempts.Add(1)
			return "t", nil
		},
		MinBackoff: 5 * time.Millisecond,
		MaxBackoff: 10 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	waitFor(t, func() bool { return attempts.Load() >= 3 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithToken(t *testing.T) {
	got, err := withToken("ws://host/connection/websocket?x=1", "a b")
	if err != nil {
		t.Fatalf("withToken: %v", err)
	}
	if got != "ws://host/connection/websocket?token=a+b&x=1" {
		t.Fatalf("unexpected url %q", got)
	}
}
