package resilience

import (
	"context"
)

// Executor composes the resilience policies around a base operation in a
// fixed order: the retry loop is outermost, each attempt passes through the
// call site's circuit breaker, and the call counter records every attempt.
// An open breaker fails the attempt fast without touching the network, and
// ErrCircuitOpen is not retryable, so the whole operation fails immediately.
//
// One Executor is built per ingestion run; its counter and breakers carry no
// state across runs.
type Executor struct {
	retry    RetryConfig
	breakers *Breakers
	counter  *CallCounter
}

// NewExecutor creates an executor with the given retry and breaker policies.
func NewExecutor(retry RetryConfig, breaker CircuitBreakerConfig) *Executor {
	return &Executor{
		retry:    retry.withDefaults(),
		breakers: NewBreakers(breaker),
		counter:  NewCallCounter(),
	}
}

// Counter exposes the executor's call counter for run reporting.
func (e *Executor) Counter() *CallCounter {
	return e.counter
}

// Breakers exposes the per-call-site breaker registry.
func (e *Executor) Breakers() *Breakers {
	return e.breakers
}

// Execute runs fn under the named call site's policies.
func (e *Executor) Execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, e, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Run executes fn under the named call site's policies, preserving its
// return value. Method form is not possible because Go methods cannot be
// generic.
func Run[T any](ctx context.Context, e *Executor, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cb := e.breakers.Get(op)
	cfg := e.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = RetryLogger(op, "call")
	}

	return DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		val, err := ExecuteVal(ctx, cb, fn)
		e.counter.RecordAttempt(op, err)
		return val, err
	})
}
