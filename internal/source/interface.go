// Package source implements the four upstream disclosure adapters. Each
// adapter paginates one public API through the resilience executor and maps
// raw payloads into the normalized record shapes in internal/model, falling
// back to a fixed synthetic dataset when no credential is configured or all
// live requests fail.
package source

import (
	"context"

	"github.com/civicspend/disclosure-cli/internal/fetcher"
	"github.com/civicspend/disclosure-cli/internal/model"
	"github.com/civicspend/disclosure-cli/internal/resilience"
)

// FetchOptions selects what an adapter fetches.
type FetchOptions struct {
	// Year is the filing/transaction year. Required.
	Year int

	// Quarter restricts the lobbying adapter to one quarter (1-4); zero
	// fetches all four. Ignored by the other adapters.
	Quarter int

	// Selector narrows the fetch to one upstream entity: a committee ID
	// (campaign finance), foundation EIN (grants), or CIK (filings).
	Selector string
}

// Source is one upstream disclosure adapter.
type Source interface {
	// Name returns the unique identifier for this source (e.g. "fec").
	Name() string

	// Fetch returns normalized records for the period. A live failure
	// degrades to the synthetic dataset; Fetch only errors on context
	// cancellation.
	Fetch(ctx context.Context, opts FetchOptions) (*model.Batch, error)
}

// Deps bundles the shared outbound plumbing handed to every adapter.
type Deps struct {
	HTTP *fetcher.Client
	Exec *resilience.Executor
}
