package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grabandgo/campus-orders/internal/core/domain"
	"github.com/grabandgo/campus-orders/internal/metrics"
)

// RetryPolicy bounds how often a write is retried while the database is locked.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     time.Duration
}

// DefaultRetryPolicy retries three times, waiting 50ms plus up to 100ms of jitter.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 50 * time.Millisecond, Jitter: 100 * time.Millisecond}

// isBusy matches SQLITE_BUSY (5) and SQLITE_LOCKED (6) as reported by the driver.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database table is locked")
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	if p.Jitter > 0 {
		d += rand.N(p.Jitter)
	}
	return d * time.Duration(attempt)
}

// run executes op, retrying only on busy errors. An exhausted budget is
// reported as domain.ErrStorageBusy; other errors pass through untouched.
func (p RetryPolicy) run(ctx context.Context, log zerolog.Logger, name string, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if !isBusy(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			break
		}
		metrics.StorageBusyRetriesTotal.Inc()
		wait := p.delay(attempt + 1)
		log.Debug().Str("op", name).Int("attempt", attempt+1).Dur("wait", wait).Msg("database busy, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(domain.ErrStorageBusy, ctx.Err())
		case <-timer.C:
		}
	}
	metrics.StorageBusyExhaustedTotal.Inc()
	log.Warn().Err(err).Str("op", name).Msg("database busy, retries exhausted")
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageBusy, name, err)
}
