package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// BackoffPolicy computes the delay before a retry attempt.
type BackoffPolicy struct {
	// BaseDelay is the delay before the first retry. Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay. Default: 60s.
	MaxDelay time.Duration

	// Factor is the exponential base. Default: 2.0.
	Factor float64

	// Jitter perturbs the delay by ±10% to avoid thundering herds.
	Jitter bool
}

// DefaultBackoff returns the standard backoff policy for API calls.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay: 1 * time.Second,
		MaxDelay:  60 * time.Second,
		Factor:    2.0,
		Jitter:    true,
	}
}

// Delay returns the wait before attempt n (1-based). Attempt 0, with no
// prior failure, yields zero. The result is BaseDelay*Factor^(n-1) capped at
// MaxDelay, perturbed by up to 10% when Jitter is set, and never negative.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	p = p.withDefaults()

	delay := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64()*2 - 1) * jitterRange // [-jitterRange, +jitterRange]
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func (p BackoffPolicy) withDefaults() BackoffPolicy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = 1 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	if p.Factor <= 0 {
		p.Factor = 2.0
	}
	return p
}

// RetryConfig controls the retry loop.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt, so the
	// operation runs at most MaxRetries+1 times. Default: 3.
	MaxRetries int

	// Backoff computes inter-attempt delays.
	Backoff BackoffPolicy

	// ShouldRetry optionally overrides the default retryability check.
	// If nil, IsRetryable is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the 1-based attempt
	// number that failed and its error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns a sensible retry configuration for API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Backoff:    DefaultBackoff(),
	}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	cfg.Backoff = cfg.Backoff.withDefaults()
	return cfg
}

// Do executes fn with retries per cfg. Only retryable failures are retried;
// the final attempt never sleeps. A RateLimitError carrying a Retry-After
// hint overrides the computed backoff when larger. Context cancellation
// stops the loop immediately with the last error.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations returning a value. On success at any attempt
// the value is returned immediately; after exhausting attempts the zero
// value and the last error are returned.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries+1; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt > cfg.MaxRetries {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		delay := cfg.Backoff.Delay(attempt)
		// A server-suggested Retry-After wins when longer than the
		// computed backoff.
		if hint := RetryAfterHint(lastErr); hint > delay {
			delay = hint
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(source, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("source", source),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
