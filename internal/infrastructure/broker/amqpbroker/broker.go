// Package amqpbroker carries realtime messages over a RabbitMQ topic exchange.
package amqpbroker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/ports"
)

const (
	// Exchange is the topic exchange every realtime message goes through.
	Exchange = "campus.realtime"

	reconnectDelay = 5 * time.Second
)

// Broker publishes with the channel name as routing key and consumes from an
// exclusive, auto-deleted queue bound to every key.
type Broker struct {
	url string
	log zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	pub  *amqp.Channel
}

var (
	_ ports.Publisher  = (*Broker)(nil)
	_ ports.Subscriber = (*Broker)(nil)
)

// Dial connects to url and declares the exchange.
func Dial(url string, log zerolog.Logger) (*Broker, error) {
	b := &Broker{url: url, log: log}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	if err := declare(ch); err != nil {
		_ = conn.Close()
		return err
	}
	b.mu.Lock()
	b.conn = conn
	b.pub = ch
	b.mu.Unlock()
	return nil
}

func declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp declare exchange: %w", err)
	}
	return nil
}

// IsAlive reports whether the connection and publish channel are open.
func (b *Broker) IsAlive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && !b.conn.IsClosed() && b.pub != nil && !b.pub.IsClosed()
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	ch := b.pub
	b.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		return errors.New("amqp publish: channel closed")
	}
	err := ch.PublishWithContext(ctx, Exchange, channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe consumes until ctx is cancelled, reconnecting after a dropped
// connection.
func (b *Broker) Subscribe(ctx context.Context, handler func(channel string, payload []byte)) error {
	for {
		err := b.consume(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		b.log.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("amqp consumer stopped, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
		if !b.IsAlive() {
			if err := b.connect(); err != nil {
				b.log.Warn().Err(err).Msg("amqp reconnect failed")
			}
		}
	}
}

func (b *Broker) consume(ctx context.Context, handler func(channel string, payload []byte)) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil || conn.IsClosed() {
		return errors.New("amqp connection closed")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch); err != nil {
		return err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("amqp declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", Exchange, false, nil); err != nil {
		return fmt.Errorf("amqp bind queue: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	b.log.Info().Str("queue", q.Name).Str("exchange", Exchange).Msg("amqp consumer active")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			handler(d.RoutingKey, d.Body)
		}
	}
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pub != nil && !b.pub.IsClosed() {
		if err := b.pub.Close(); err != nil {
			return fmt.Errorf("close amqp channel: %w", err)
		}
	}
	if b.conn != nil && !b.conn.IsClosed() {
		if err := b.conn.Close(); err != nil {
			return fmt.Errorf("close amqp connection: %w", err)
		}
	}
	return nil
}
