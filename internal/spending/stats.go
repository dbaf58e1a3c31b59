package spending

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// Statistics is the platform-wide spending summary.
type Statistics struct {
	Companies         int                        `json:"companies"`
	SpendingCompanies int                        `json:"spending_companies"`
	TotalLobbying     decimal.Decimal            `json:"total_lobbying"`
	TotalCharitable   decimal.Decimal            `json:"total_charitable"`
	TotalPolitical    decimal.Decimal            `json:"total_political"`
	TotalSpending     decimal.Decimal            `json:"total_spending"`
	AveragePerCompany decimal.Decimal            `json:"average_per_company"`
	GrantCategories   map[string]decimal.Decimal `json:"grant_categories"`
}

// PlatformStatistics aggregates spending across every company in the store.
// The average is over companies with nonzero spending; with none it is zero
// rather than a division error.
func (c *Calculator) PlatformStatistics(ctx context.Context, dr model.DateRange) (*Statistics, error) {
	companies, err := c.store.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "spending: list companies")
	}

	stats := &Statistics{Companies: len(companies)}
	for _, company := range companies {
		b, err := c.CompanyBreakdown(ctx, company, CategoryAll, dr)
		if err != nil {
			return nil, err
		}
		stats.TotalLobbying = stats.TotalLobbying.Add(b.Lobbying)
		stats.TotalCharitable = stats.TotalCharitable.Add(b.Charitable)
		stats.TotalPolitical = stats.TotalPolitical.Add(b.Political)
		if !b.Total.IsZero() {
			stats.SpendingCompanies++
		}
	}
	stats.TotalSpending = stats.TotalLobbying.Add(stats.TotalCharitable).Add(stats.TotalPolitical)
	if stats.SpendingCompanies > 0 {
		stats.AveragePerCompany = stats.TotalSpending.
			DivRound(decimal.NewFromInt(int64(stats.SpendingCompanies)), 2)
	}

	stats.GrantCategories, err = c.store.GrantCategoryTotals(ctx, 0, dr)
	if err != nil {
		return nil, eris.Wrap(err, "spending: grant category totals")
	}
	return stats, nil
}
