// Package resilience provides retry, circuit breaker, and call metrics for
// outbound calls to unreliable upstream APIs.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected because the circuit is
// open: the upstream is presumed down and the network is not attempted.
var ErrCircuitOpen = eris.New("circuit breaker is open: service unavailable")

// CircuitBreakerConfig controls circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open after the last
	// failure before closing again. Default: 60s.
	RecoveryTimeout time.Duration

	// OnStateChange is called with the new open state when the circuit
	// opens or closes.
	OnStateChange func(open bool)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

// CircuitBreaker guards a single call site. While open, calls fail fast with
// ErrCircuitOpen. The circuit closes again, with the failure count reset,
// once RecoveryTimeout has elapsed since the last failure.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu                  sync.Mutex
	open                bool
	consecutiveFailures int
	lastFailureTime     time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the given config.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &CircuitBreaker{
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// Execute runs fn through the breaker. Returns ErrCircuitOpen without
// invoking fn while the circuit is open. A success resets the failure count;
// a failure increments it and opens the circuit at the threshold.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.allowRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.recordResult(err)
	return err
}

// ExecuteVal is Execute for operations returning a value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.allowRequest(); err != nil {
		return zero, err
	}

	val, err := fn(ctx)
	cb.recordResult(err)
	return val, err
}

// Open reports whether the circuit is currently rejecting calls.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeRecover()
	return cb.open
}

// Counters returns the consecutive failure count and open state for
// observability.
func (cb *CircuitBreaker) Counters() (consecutiveFailures int, open bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFailures, cb.open
}

// Reset forces the circuit closed and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	wasOpen := cb.open
	cb.open = false
	cb.consecutiveFailures = 0
	if wasOpen && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(false)
	}
}

func (cb *CircuitBreaker) allowRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.maybeRecover()
	if cb.open {
		return ErrCircuitOpen
	}
	return nil
}

// maybeRecover closes an open circuit once the recovery timeout has elapsed
// since the last failure. Caller must hold cb.mu.
func (cb *CircuitBreaker) maybeRecover() {
	if cb.open && cb.nowFunc().Sub(cb.lastFailureTime) >= cb.cfg.RecoveryTimeout {
		cb.open = false
		cb.consecutiveFailures = 0
		if cb.cfg.OnStateChange != nil {
			cb.cfg.OnStateChange(false)
		}
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.consecutiveFailures = 0
		return
	}

	cb.consecutiveFailures++
	cb.lastFailureTime = cb.nowFunc()

	if !cb.open && cb.consecutiveFailures >= cb.cfg.FailureThreshold {
		cb.open = true
		if cb.cfg.OnStateChange != nil {
			cb.cfg.OnStateChange(true)
		}
	}
}

// Breakers manages independent circuit breakers keyed by call site, so that
// concurrent adapters never share failure counts.
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	cfg      CircuitBreakerConfig
}

// NewBreakers creates a registry of per-call-site circuit breakers.
func NewBreakers(cfg CircuitBreakerConfig) *Breakers {
	return &Breakers{
		breakers: make(map[string]*CircuitBreaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named call site, creating one if needed.
func (b *Breakers) Get(site string) *CircuitBreaker {
	b.mu.RLock()
	cb, ok := b.breakers[site]
	b.mu.RUnlock()
	if ok {
		return cb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// Double-check after acquiring write lock.
	if cb, ok = b.breakers[site]; ok {
		return cb
	}
	cb = NewCircuitBreaker(b.cfg)
	b.breakers[site] = cb
	return cb
}

// States returns a snapshot of all breaker open states.
func (b *Breakers) States() map[string]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	states := make(map[string]bool, len(b.breakers))
	for site, cb := range b.breakers {
		states[site] = cb.Open()
	}
	return states
}

// ResetAll closes every breaker in the registry.
func (b *Breakers) ResetAll() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, cb := range b.breakers {
		cb.Reset()
	}
}
