package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore maps a client-supplied request key to the order it created.
// Key format: idem:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := s.client.Get(ctx, "idem:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, true, nil
}

// Remember stores orderID under key unless another request got there first.
func (s *IdempotencyStore) Remember(ctx context.Context, key, orderID string) error {
	if err := s.client.SetNX(ctx, "idem:"+key, orderID, idempotencyTTL).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}
