package resilience

import (
	"sync"
)

// OpStats holds the tallies for a single named operation.
type OpStats struct {
	Attempts  int            `json:"attempts"`
	Successes int            `json:"successes"`
	Failures  int            `json:"failures"`
	Errors    map[string]int `json:"errors,omitempty"`
}

// CallCounter tallies call outcomes per operation name. It is safe for
// concurrent use so adapters may run in parallel. A counter is owned by the
// executor for one ingestion run rather than held as process-global state,
// which makes reset-between-runs (and between tests) trivial.
type CallCounter struct {
	mu  sync.Mutex
	ops map[string]*OpStats
}

// NewCallCounter creates an empty counter.
func NewCallCounter() *CallCounter {
	return &CallCounter{ops: make(map[string]*OpStats)}
}

// RecordAttempt tallies one attempt and its outcome for the named operation.
func (c *CallCounter) RecordAttempt(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.ops[op]
	if stats == nil {
		stats = &OpStats{Errors: make(map[string]int)}
		c.ops[op] = stats
	}

	stats.Attempts++
	if err == nil {
		stats.Successes++
		return
	}
	stats.Failures++
	stats.Errors[ErrorType(err)]++
}

// Snapshot returns a copy of all per-operation stats.
func (c *CallCounter) Snapshot() map[string]OpStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]OpStats, len(c.ops))
	for op, stats := range c.ops {
		cp := OpStats{
			Attempts:  stats.Attempts,
			Successes: stats.Successes,
			Failures:  stats.Failures,
			Errors:    make(map[string]int, len(stats.Errors)),
		}
		for k, v := range stats.Errors {
			cp.Errors[k] = v
		}
		out[op] = cp
	}
	return out
}

// Totals returns the attempt and failure counts summed across operations.
func (c *CallCounter) Totals() (attempts, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, stats := range c.ops {
		attempts += stats.Attempts
		failures += stats.Failures
	}
	return attempts, failures
}

// Reset clears all tallies.
func (c *CallCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = make(map[string]*OpStats)
}
