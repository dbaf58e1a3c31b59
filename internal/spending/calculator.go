// Package spending computes per-company and platform-wide spending
// aggregates from persisted disclosure records.
package spending

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// Spending categories accepted by Breakdown.
const (
	CategoryAll        = "all"
	CategoryLobbying   = "lobbying"
	CategoryCharitable = "charitable"
	CategoryPolitical  = "political"
)

// Store is the slice of the record store the aggregation engine reads from.
// Sum methods return decimal zero when no rows match.
type Store interface {
	FindCompanyByName(ctx context.Context, name string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)

	SumLobbying(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error)
	SumGrants(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error)

	// SumContributionsMatching sums contributions whose committee name
	// contains the token, case-insensitively.
	SumContributionsMatching(ctx context.Context, token string, dr model.DateRange) (decimal.Decimal, error)

	// GrantCategoryTotals sums grants per recipient category; companyID 0
	// means platform-wide.
	GrantCategoryTotals(ctx context.Context, companyID int64, dr model.DateRange) (map[string]decimal.Decimal, error)

	SourcePresence(ctx context.Context, companyID int64, committeeToken string) (model.SourceFlags, error)
}

// Breakdown is per-company spending split by category. GrantCategories
// splits the charitable figure by recipient category when charitable
// spending was requested.
type Breakdown struct {
	Company         model.Company              `json:"company"`
	Lobbying        decimal.Decimal            `json:"lobbying"`
	Charitable      decimal.Decimal            `json:"charitable"`
	Political       decimal.Decimal            `json:"political"`
	Total           decimal.Decimal            `json:"total"`
	GrantCategories map[string]decimal.Decimal `json:"grant_categories,omitempty"`
}

// CompanySpending pairs a company with its total spending for rankings.
type CompanySpending struct {
	Company model.Company   `json:"company"`
	Total   decimal.Decimal `json:"total"`
}

// Calculator answers spending queries against the store.
type Calculator struct {
	store Store
}

// NewCalculator creates a calculator over the given store.
func NewCalculator(store Store) *Calculator {
	return &Calculator{store: store}
}

// BreakdownByName resolves a company by exact case-insensitive name and
// computes its breakdown.
func (c *Calculator) BreakdownByName(ctx context.Context, name, category string, dr model.DateRange) (*Breakdown, error) {
	company, err := c.store.FindCompanyByName(ctx, name)
	if err != nil {
		return nil, eris.Wrap(err, "spending: find company")
	}
	if company == nil {
		return nil, eris.Errorf("spending: no company named %q", name)
	}

	b, err := c.CompanyBreakdown(ctx, *company, category, dr)
	if err != nil {
		return nil, err
	}
	if (category == CategoryAll || category == CategoryCharitable) && !b.Charitable.IsZero() {
		if b.GrantCategories, err = c.store.GrantCategoryTotals(ctx, company.ID, dr); err != nil {
			return nil, eris.Wrap(err, "spending: grant categories")
		}
	}
	return b, nil
}

// CompanyBreakdown computes category spending for one company. Categories
// outside the requested one stay zero; "all" fills every category. The total
// always reflects only the requested categories.
func (c *Calculator) CompanyBreakdown(ctx context.Context, company model.Company, category string, dr model.DateRange) (*Breakdown, error) {
	b := &Breakdown{Company: company}

	if category != CategoryAll && category != CategoryLobbying &&
		category != CategoryCharitable && category != CategoryPolitical {
		return nil, eris.Errorf("spending: unknown category %q", category)
	}

	var err error
	if category == CategoryAll || category == CategoryLobbying {
		if b.Lobbying, err = c.store.SumLobbying(ctx, company.ID, dr); err != nil {
			return nil, eris.Wrap(err, "spending: sum lobbying")
		}
	}
	if category == CategoryAll || category == CategoryCharitable {
		if b.Charitable, err = c.store.SumGrants(ctx, company.ID, dr); err != nil {
			return nil, eris.Wrap(err, "spending: sum grants")
		}
	}
	if category == CategoryAll || category == CategoryPolitical {
		// Contributions carry no company reference; the link is a
		// best-effort substring match on the company's first name token.
		if token := firstNameToken(company.Name); token != "" {
			if b.Political, err = c.store.SumContributionsMatching(ctx, token, dr); err != nil {
				return nil, eris.Wrap(err, "spending: sum contributions")
			}
		}
	}

	b.Total = b.Lobbying.Add(b.Charitable).Add(b.Political)
	return b, nil
}

// TopSpenders ranks companies by spending in the given category ("all" for
// combined totals), descending, excluding companies that spent nothing
// there. Ties keep the store's listing order.
func (c *Calculator) TopSpenders(ctx context.Context, limit int, category string, dr model.DateRange) ([]CompanySpending, error) {
	companies, err := c.store.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "spending: list companies")
	}

	ranked := make([]CompanySpending, 0, len(companies))
	for _, company := range companies {
		b, err := c.CompanyBreakdown(ctx, company, category, dr)
		if err != nil {
			return nil, err
		}
		if b.Total.IsZero() {
			continue
		}
		ranked = append(ranked, CompanySpending{Company: company, Total: b.Total})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total.GreaterThan(ranked[j].Total)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// FilterBySpending returns companies whose total falls inside the inclusive
// [min, max] bounds. A nil bound is unbounded, so a zero-spending company
// passes a max-only filter.
func (c *Calculator) FilterBySpending(ctx context.Context, min, max *decimal.Decimal, dr model.DateRange) ([]CompanySpending, error) {
	companies, err := c.store.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "spending: list companies")
	}

	var matched []CompanySpending
	for _, company := range companies {
		b, err := c.CompanyBreakdown(ctx, company, CategoryAll, dr)
		if err != nil {
			return nil, err
		}
		if min != nil && b.Total.LessThan(*min) {
			continue
		}
		if max != nil && b.Total.GreaterThan(*max) {
			continue
		}
		matched = append(matched, CompanySpending{Company: company, Total: b.Total})
	}
	return matched, nil
}

// firstNameToken returns the leading word of a company name, lowercased,
// for the contribution-linkage heuristic.
func firstNameToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[0], ".,"))
}
