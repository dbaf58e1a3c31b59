package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/civicspend/disclosure-cli/internal/fetcher"
	"github.com/civicspend/disclosure-cli/internal/model"
	"github.com/civicspend/disclosure-cli/internal/resilience"
	"github.com/civicspend/disclosure-cli/internal/store"
)

// openStore opens the configured store backend with its schema applied.
func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// newExecutor builds one resilience executor for an ingestion run from the
// configured retry and breaker policies.
func newExecutor() *resilience.Executor {
	return resilience.NewExecutor(
		resilience.RetryConfig{
			MaxRetries: cfg.Resilience.MaxRetries,
			Backoff: resilience.BackoffPolicy{
				BaseDelay: time.Duration(cfg.Resilience.BaseDelayMs) * time.Millisecond,
				MaxDelay:  time.Duration(cfg.Resilience.MaxDelayMs) * time.Millisecond,
				Factor:    cfg.Resilience.BackoffFactor,
				Jitter:    cfg.Resilience.Jitter,
			},
		},
		resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Resilience.FailureThreshold,
			RecoveryTimeout:  time.Duration(cfg.Resilience.RecoveryTimeoutS) * time.Second,
		},
	)
}

func newHTTPClient() *fetcher.Client {
	return fetcher.New(fetcher.Options{
		Timeout:      time.Duration(cfg.Resilience.RequestTimeoutS) * time.Second,
		DefaultLimit: rate.Limit(cfg.Resilience.DefaultHostPerSec),
	})
}

// parseDateRange builds an inclusive date window from YYYY-MM-DD flag
// values, either of which may be empty.
func parseDateRange(from, to string) (model.DateRange, error) {
	var dr model.DateRange
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return dr, eris.Wrapf(err, "parse --from %q", from)
		}
		dr.Start = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return dr, eris.Wrapf(err, "parse --to %q", to)
		}
		dr.End = &t
	}
	return dr, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(out))
	return nil
}
