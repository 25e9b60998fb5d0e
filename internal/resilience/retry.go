// Package resilience provides retry and circuit breaker primitives for
// calls into unreliable retailer sources and rate providers.
package resilience

import (
	"context"
	"math"
	"time"
)

// RetryConfig controls retry with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// 1 means no retries. Default: 3 (one try plus two retries).
	MaxAttempts int

	// BaseBackoff is the sleep after the first failed attempt; each later
	// sleep doubles it. Default: 1s, so the sequence is 1s, 2s, 4s, ...
	BaseBackoff time.Duration

	// MaxBackoff caps a single sleep. Default: 30s.
	MaxBackoff time.Duration

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil retries everything except context cancellation.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error)
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return cfg
}

// DoVal runs fn until it succeeds, the attempt budget is spent, or the
// context is done. The last error is returned; sleeps are interruptible.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt >= cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(backoffFor(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func backoffFor(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.BaseBackoff) * math.Pow(2, float64(attempt))
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	return time.Duration(d)
}
