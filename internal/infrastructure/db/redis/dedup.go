package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = time.Hour

// DedupChecker suppresses repeated fan-out of the same order state.
// Key format: fanout:<order_id>:<status>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// FirstDelivery atomically marks key and reports whether it was unseen.
func (d *DedupChecker) FirstDelivery(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "fanout:"+key, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return ok, nil
}
