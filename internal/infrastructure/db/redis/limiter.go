package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter is a fixed-window counter: at most limit calls per key per window.
// Key format: ratelimit:<key>:<window_start_unix>
type AttemptLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewAttemptLimiter allows limit attempts per window. A limit <= 0 disables limiting.
func NewAttemptLimiter(client *redis.Client, limit int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, limit: int64(limit), window: window, now: time.Now}
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	bucket := l.now().Truncate(l.window).Unix()
	k := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}
