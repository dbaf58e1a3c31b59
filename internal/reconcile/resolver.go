package reconcile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// ErrEmptyName is returned when resolution is attempted on a blank name.
var ErrEmptyName = eris.New("reconcile: cannot resolve an empty company name")

// CompanyStore is the slice of the record store the resolver needs. Find
// methods return (nil, nil) when no row matches.
type CompanyStore interface {
	FindCompanyByName(ctx context.Context, name string) (*model.Company, error)
	FindCompanyByTicker(ctx context.Context, ticker string) (*model.Company, error)
	FindCompanyByCIK(ctx context.Context, cik string) (*model.Company, error)

	// InsertOrGetCompany inserts the company or, when another writer got
	// there first, returns the existing row. Uniqueness is on the
	// case-insensitive name, so concurrent first sightings converge on one
	// row.
	InsertOrGetCompany(ctx context.Context, c model.Company) (*model.Company, error)
}

// Resolver maps raw organization names onto canonical companies.
type Resolver struct {
	store CompanyStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store CompanyStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve finds or creates the canonical Company for a raw name. Lookup
// order: alias-canonicalized name, then ticker, then regulatory CIK. A miss
// on all three creates the company, so resolution never fails on a non-empty
// name.
func (r *Resolver) Resolve(ctx context.Context, rawName, ticker, cik string) (*model.Company, error) {
	name := CanonicalName(rawName)
	if name == "" {
		return nil, ErrEmptyName
	}

	company, err := r.store.FindCompanyByName(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: find by name")
	}
	if company != nil {
		return company, nil
	}

	if ticker != "" {
		company, err = r.store.FindCompanyByTicker(ctx, strings.ToUpper(ticker))
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: find by ticker")
		}
		if company != nil {
			return company, nil
		}
	}

	if cik != "" {
		company, err = r.store.FindCompanyByCIK(ctx, cik)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: find by cik")
		}
		if company != nil {
			return company, nil
		}
	}

	created, err := r.store.InsertOrGetCompany(ctx, model.Company{
		Name:   name,
		Ticker: strings.ToUpper(ticker),
		CIK:    cik,
	})
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: insert company")
	}
	zap.L().Debug("created company", zap.String("name", name), zap.Int64("id", created.ID))
	return created, nil
}
