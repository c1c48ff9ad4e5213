// Package retryutil wraps exponential backoff for rate-limit-flavored
// upstream errors. It is wired into the extraction path only; scraping
// failures are reported to the caller without retrying.
package retryutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/scrapebridge/scrapebridge/internal/config"
)

// Do runs op, retrying with exponential backoff while retryable(err)
// returns true, up to cfg.MaxAttempts total attempts. A non-retryable
// error stops immediately and is returned as-is.
func Do(ctx context.Context, cfg config.RetryConfig, retryable func(error) bool, op func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.BackoffFactor
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("nextDelay", next).
			Msg("retrying after transient upstream error")
	})
}
