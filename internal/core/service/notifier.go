package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/metrics"
)

// Notifier turns committed mutations into realtime messages.
type Notifier interface {
	OrderChanged(ctx context.Context, o *domain.Order)
	CatalogChanged(ctx context.Context, ev domain.CatalogEvent)
}

// DedupChecker abstracts the idempotency store (Redis). FirstDelivery
// atomically records key and reports whether it was unseen.
type DedupChecker interface {
	FirstDelivery(ctx context.Context, key string) (bool, error)
}

type fanoutNotifier struct {
	queue ports.FanoutQueue
	dedup DedupChecker
	log   zerolog.Logger
}

// NewNotifier returns a Notifier that enqueues every message on queue. dedup may be nil.
func NewNotifier(queue ports.FanoutQueue, dedup DedupChecker, log zerolog.Logger) Notifier {
	return &fanoutNotifier{queue: queue, dedup: dedup, log: log}
}

// OrderChanged sends the full order snapshot to the student's and the
// restaurant's channels. Failures are logged, never returned.
func (n *fanoutNotifier) OrderChanged(ctx context.Context, o *domain.Order) {
	if n.dedup != nil {
		first, err := n.dedup.FirstDelivery(ctx, o.ID+":"+string(o.Status))
		if err != nil {
			n.log.Warn().Err(err).Str("order_id", o.ID).Msg("fanout dedup check failed, publishing anyway")
		} else if !first {
			metrics.FanoutDedupTotal.WithLabelValues("hit").Inc()
			n.log.Debug().Str("order_id", o.ID).Str("status", string(o.Status)).Msg("duplicate fanout skipped")
			return
		} else {
			metrics.FanoutDedupTotal.WithLabelValues("miss").Inc()
		}
	}

	payload, err := json.Marshal(o)
	if err != nil {
		n.log.Error().Err(err).Str("order_id", o.ID).Msg("encode order for fanout")
		return
	}
	for _, ch := range []string{domain.UserChannel(o.UserID), domain.RestaurantChannel(o.RestaurantID)} {
		n.enqueue(ports.Message{Key: o.ID, Channel: ch, Payload: payload})
	}
}

// CatalogChanged broadcasts a catalog event on the public channel.
func (n *fanoutNotifier) CatalogChanged(_ context.Context, ev domain.CatalogEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.Error().Err(err).Str("type", ev.Type).Msg("encode catalog event")
		return
	}
	n.enqueue(ports.Message{Key: ev.ID, Channel: domain.ChannelCatalog, Payload: payload})
}

func (n *fanoutNotifier) enqueue(msg ports.Message) {
	if !n.queue.Enqueue(msg) {
		metrics.FanoutDroppedTotal.Inc()
		n.log.Warn().Str("channel", msg.Channel).Str("key", msg.Key).Msg("fanout queue full, message dropped")
	}
}
