// Package metrics defines and registers all custom Prometheus metrics for the
// campus ordering service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campus"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersPlacedTotal counts orders persisted with status PENDING.
var OrdersPlacedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	},
)

// OrderTransitionsTotal counts committed status changes.
// Labels:
//   - from, to: order statuses (e.g. "PENDING", "ACCEPTED")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of committed order status transitions.",
	},
	[]string{"from", "to"},
)

// OrderTransitionConflictsTotal counts compare-and-set updates that lost a race.
var OrderTransitionConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transition_conflicts_total",
		Help:      "Status updates rejected because the stored status had already changed.",
	},
)

// PickupVerificationsTotal counts pickup-code checks.
// Label:
//   - result: "completed", "rejected" or "rate_limited"
var PickupVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pickup_verifications_total",
		Help:      "Total number of pickup code verification attempts, by result.",
	},
	[]string{"result"},
)

// ── Fan-out metrics ───────────────────────────────────────────────────────────

// FanoutPublishedTotal counts broker publishes.
// Label:
//   - result: "ok" or "error"
var FanoutPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fanout_published_total",
		Help:      "Total number of realtime publishes, by result.",
	},
	[]string{"result"},
)

// FanoutDroppedTotal counts messages dropped because a worker queue was full.
var FanoutDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fanout_dropped_total",
		Help:      "Realtime messages dropped before publishing because the queue was full.",
	},
)

// FanoutDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (first delivery)
var FanoutDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fanout_dedup_total",
		Help:      "Total number of fan-out deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// FanoutQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var FanoutQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fanout_queue_depth",
		Help:      "Current number of messages pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// FanoutPublishDuration measures a single broker publish.
var FanoutPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fanout_publish_duration_seconds",
		Help:      "Duration of a single realtime publish call.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Storage metrics ───────────────────────────────────────────────────────────

// StorageBusyRetriesTotal counts write attempts retried after SQLITE_BUSY.
var StorageBusyRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_busy_retries_total",
		Help:      "Write attempts retried because the database was busy.",
	},
)

// StorageBusyExhaustedTotal counts writes that ran out of retries.
var StorageBusyExhaustedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_busy_exhausted_total",
		Help:      "Writes that failed because the busy retry budget was exhausted.",
	},
)

// ── Realtime gateway metrics ──────────────────────────────────────────────────

// RealtimeConnections tracks currently open websocket connections.
var RealtimeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Number of open realtime websocket connections.",
	},
)

// RealtimeDeliveredTotal counts frames queued to websocket clients.
var RealtimeDeliveredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_delivered_total",
		Help:      "Total number of frames queued for delivery to websocket clients.",
	},
)

// RealtimeSlowClientsTotal counts clients disconnected because their send queue was full.
var RealtimeSlowClientsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_slow_clients_total",
		Help:      "Websocket clients disconnected because they could not keep up.",
	},
)

// BrokerResubscribesTotal counts broker subscriptions that ended and were retried.
var BrokerResubscribesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broker_resubscribes_total",
		Help:      "Broker subscriptions that failed or closed and were retried.",
	},
)
