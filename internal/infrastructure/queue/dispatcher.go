package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/ports"
	"github.com/grabandgo/campus-orders/internal/metrics"
)

const (
	defaultWorkers        = 4
	channelBuffer         = 256
	defaultPublishTimeout = 2 * time.Second
)

// Dispatcher routes realtime messages to a fixed set of workers using
// consistent hashing on the message key, so updates to one order are
// published in the order they were committed.
type Dispatcher struct {
	workers        []chan ports.Message
	publisher      ports.Publisher
	publishTimeout time.Duration
	log            zerolog.Logger
	wg             sync.WaitGroup
}

var _ ports.FanoutQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.Publisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:        make([]chan ports.Message, numWorkers),
		publisher:      publisher,
		publishTimeout: defaultPublishTimeout,
		log:            log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands msg to the worker responsible for its key. It never blocks:
// when that worker's buffer is full the message is dropped and false returned.
func (d *Dispatcher) Enqueue(msg ports.Message) bool {
	idx := d.shardIndex(msg.Key)
	select {
	case d.workers[idx] <- msg:
		metrics.FanoutQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		return false
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Message) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.FanoutQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.publish(ctx, id, msg)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, worker int, msg ports.Message) {
	pubCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()

	start := time.Now()
	err := d.publisher.Publish(pubCtx, msg.Channel, msg.Payload)
	metrics.FanoutPublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FanoutPublishedTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("channel", msg.Channel).
			Str("key", msg.Key).
			Int("worker_id", worker).
			Msg("realtime publish failed")
		return
	}
	metrics.FanoutPublishedTotal.WithLabelValues("ok").Inc()
}
