// Package redisbroker carries realtime messages over Redis pub/sub so every
// gateway instance sees every publish.
package redisbroker

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/core/ports"
)

const orderPattern = "orders:*"

// Broker implements ports.Publisher and ports.Subscriber on Redis.
type Broker struct {
	client *redis.Client
	log    zerolog.Logger
}

func New(client *redis.Client, log zerolog.Logger) *Broker {
	return &Broker{client: client, log: log}
}

var (
	_ ports.Publisher  = (*Broker)(nil)
	_ ports.Subscriber = (*Broker)(nil)
)

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe listens on every order channel and the catalog channel until
// ctx is cancelled. go-redis reconnects the subscription on its own.
func (b *Broker) Subscribe(ctx context.Context, handler func(channel string, payload []byte)) error {
	sub := b.client.PSubscribe(ctx, orderPattern)
	defer sub.Close()

	if err := sub.Subscribe(ctx, domain.ChannelCatalog); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", domain.ChannelCatalog, err)
	}
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Info().Str("pattern", orderPattern).Str("channel", domain.ChannelCatalog).Msg("redis subscription active")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !Routable(msg.Channel) {
				continue
			}
			handler(msg.Channel, []byte(msg.Payload))
		}
	}
}

// Routable reports whether channel is one the gateway delivers.
func Routable(channel string) bool {
	return channel == domain.ChannelCatalog ||
		strings.HasPrefix(channel, domain.UserChannel("")) ||
		strings.HasPrefix(channel, domain.RestaurantChannel(""))
}
