package source

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/civicspend/disclosure-cli/internal/fetcher"
	"github.com/civicspend/disclosure-cli/internal/resilience"
)

// newTestDeps builds adapter deps with fast retries and no rate limiting so
// tests do not sleep.
func newTestDeps() Deps {
	return Deps{
		HTTP: fetcher.New(fetcher.Options{
			Timeout:      5 * time.Second,
			DefaultLimit: rate.Inf,
			HostLimits:   map[string]rate.Limit{},
		}),
		Exec: resilience.NewExecutor(
			resilience.RetryConfig{
				MaxRetries: 1,
				Backoff:    resilience.BackoffPolicy{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
			},
			resilience.CircuitBreakerConfig{FailureThreshold: 10, RecoveryTimeout: time.Second},
		),
	}
}
