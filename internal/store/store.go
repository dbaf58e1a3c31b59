// Package store persists canonical disclosure entities in PostgreSQL or
// SQLite and answers the aggregation queries the spending engine needs.
package store

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/civicspend/disclosure-cli/internal/config"
	"github.com/civicspend/disclosure-cli/internal/model"
)

// Counts tallies persisted rows per entity for status reporting.
type Counts struct {
	Companies     int64 `json:"companies"`
	Summaries     int64 `json:"financial_summaries"`
	Lobbying      int64 `json:"lobbying_reports"`
	Contributions int64 `json:"political_contributions"`
	Grants        int64 `json:"charitable_grants"`
}

// DataQuality measures how complete the persisted records are: companies
// carrying identifiers, summaries carrying figures, grants carrying a real
// recipient category.
type DataQuality struct {
	Companies              int64 `json:"companies"`
	CompaniesWithTicker    int64 `json:"companies_with_ticker"`
	CompaniesWithCIK       int64 `json:"companies_with_cik"`
	Summaries              int64 `json:"financial_summaries"`
	SummariesWithRevenue   int64 `json:"summaries_with_revenue"`
	SummariesWithNetIncome int64 `json:"summaries_with_net_income"`
	Grants                 int64 `json:"charitable_grants"`
	GrantsCategorized      int64 `json:"grants_categorized"`
}

// Store defines the persistence interface for the disclosure pipeline.
// Find methods return (nil, nil) when no row matches; Sum methods return
// decimal zero when no rows match.
type Store interface {
	// Companies
	FindCompanyByName(ctx context.Context, name string) (*model.Company, error)
	FindCompanyByTicker(ctx context.Context, ticker string) (*model.Company, error)
	FindCompanyByCIK(ctx context.Context, cik string) (*model.Company, error)
	InsertOrGetCompany(ctx context.Context, c model.Company) (*model.Company, error)
	UpdateCompany(ctx context.Context, c model.Company) error
	ListCompanies(ctx context.Context) ([]model.Company, error)

	// Disclosure records
	UpsertFinancialSummary(ctx context.Context, s model.FinancialSummary) error
	UpsertLobbyingReport(ctx context.Context, r model.LobbyingReport) error
	AppendContribution(ctx context.Context, c model.PoliticalContribution) error
	AppendGrant(ctx context.Context, g model.CharitableGrant) error

	// Aggregation
	SumLobbying(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error)
	SumGrants(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error)
	SumContributionsMatching(ctx context.Context, token string, dr model.DateRange) (decimal.Decimal, error)
	// GrantCategoryTotals sums grants per recipient category; companyID 0
	// means platform-wide.
	GrantCategoryTotals(ctx context.Context, companyID int64, dr model.DateRange) (map[string]decimal.Decimal, error)

	// Diagnostics
	Counts(ctx context.Context) (Counts, error)
	DataQuality(ctx context.Context) (DataQuality, error)
	// SourcePresence reports which disclosure sources hold data for the
	// company. committeeToken is the first-token committee match; empty
	// means political presence is unknowable and reported false.
	SourcePresence(ctx context.Context, companyID int64, committeeToken string) (model.SourceFlags, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store named by the config driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: postgres, sqlite)", cfg.Driver)
	}
}
