package apierr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds the retry loop for one API call.
//
// Zero values are usable: MaxRetries 0 means a single attempt, and empty
// delays fall back to 1ms and BaseDelay respectively, so a partially
// filled config never spins hot or stalls forever.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BaseDelay is the wait before the first retry; each later wait
	// doubles it.
	BaseDelay time.Duration
	// MaxDelay caps the doubling.
	MaxDelay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// RetryWithBackoff runs fn until it succeeds, fails with an error that
// IsRetryable rejects, or the retry budget is spent. Waits between
// attempts grow exponentially from BaseDelay up to MaxDelay, and a
// cancelled ctx aborts the wait immediately.
//
// fn is expected to classify its own errors (see Classify): retryability
// is decided on the classified sentinels, so an unclassified error is
// never retried.
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxRetries {
			return zero, fmt.Errorf("giving up after %d retries: %w", cfg.MaxRetries, err)
		}

		timer := time.NewTimer(backoffDelay(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoffDelay returns the wait after attempt (zero-based): BaseDelay
// doubled once per completed attempt, capped at MaxDelay.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	d := cfg.BaseDelay
	for i := 0; i < attempt && d < cfg.MaxDelay; i++ {
		d *= 2
	}
	return min(d, cfg.MaxDelay)
}
