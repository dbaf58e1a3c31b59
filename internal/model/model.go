// Package model defines the canonical entities shared across the ingestion
// pipeline, the reconciliation layer, and the spending engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is the canonical deduplicated identity a given organization
// resolves to across all sources. Name is unique case-insensitively.
type Company struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Ticker    string    `json:"ticker,omitempty" db:"ticker"`
	CIK       string    `json:"cik,omitempty" db:"cik"`
	HQ        string    `json:"headquarters,omitempty" db:"headquarters"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FinancialSummary holds one fiscal year of reported financials for a
// company. Unique per (company, fiscal_year); re-ingestion overwrites the
// numeric fields with the latest observation.
type FinancialSummary struct {
	ID           int64            `json:"id" db:"id"`
	CompanyID    int64            `json:"company_id" db:"company_id"`
	FiscalYear   int              `json:"fiscal_year" db:"fiscal_year"`
	TotalRevenue *decimal.Decimal `json:"total_revenue,omitempty" db:"total_revenue"`
	NetIncome    *decimal.Decimal `json:"net_income,omitempty" db:"net_income"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// LobbyingReport is a quarterly lobbying disclosure for a company.
// Unique per (company, year, quarter); re-ingestion upserts.
type LobbyingReport struct {
	ID             int64           `json:"id" db:"id"`
	CompanyID      int64           `json:"company_id" db:"company_id"`
	Year           int             `json:"year" db:"year"`
	Quarter        int             `json:"quarter" db:"quarter"`
	AmountSpent    decimal.Decimal `json:"amount_spent" db:"amount_spent"`
	SpecificIssues string          `json:"specific_issues,omitempty" db:"specific_issues"`
	ReportURL      string          `json:"report_url,omitempty" db:"report_url"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// PoliticalContribution is an individual PAC disbursement. It carries no
// company foreign key: the PAC-to-company link is inferred at query time by
// first-token substring match against the company name. Append-only.
type PoliticalContribution struct {
	ID             int64           `json:"id" db:"id"`
	CommitteeName  string          `json:"committee_name" db:"committee_name"`
	RecipientName  string          `json:"recipient_name,omitempty" db:"recipient_name"`
	RecipientParty string          `json:"recipient_party,omitempty" db:"recipient_party"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Date           *time.Time      `json:"date,omitempty" db:"contribution_date"`
	ElectionCycle  string          `json:"election_cycle,omitempty" db:"election_cycle"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// CharitableGrant is a single grant made by a company's foundation.
// Append-only.
type CharitableGrant struct {
	ID                int64           `json:"id" db:"id"`
	CompanyID         int64           `json:"company_id" db:"company_id"`
	RecipientName     string          `json:"recipient_name" db:"recipient_name"`
	RecipientEIN      string          `json:"recipient_ein,omitempty" db:"recipient_ein"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	FiscalYear        int             `json:"fiscal_year" db:"fiscal_year"`
	Description       string          `json:"description,omitempty" db:"description"`
	RecipientCategory string          `json:"recipient_category,omitempty" db:"recipient_category"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// SourceFlags records which of the four disclosure sources have data for a
// company. Political presence uses the same first-token committee match as
// the spending queries.
type SourceFlags struct {
	Financials bool `json:"financials"`
	Lobbying   bool `json:"lobbying"`
	Political  bool `json:"political"`
	Charitable bool `json:"charitable"`
}

// Count returns how many sources are present.
func (f SourceFlags) Count() int {
	n := 0
	for _, set := range []bool{f.Financials, f.Lobbying, f.Political, f.Charitable} {
		if set {
			n++
		}
	}
	return n
}

// Grant recipient categories assigned by the keyword classifier.
const (
	CategoryReligious    = "Religious"
	CategoryEducation    = "Education"
	CategoryHealthcare   = "Healthcare"
	CategoryHumanitarian = "Humanitarian"
	CategoryEnvironment  = "Environment"
	CategoryArts         = "Arts"
	CategoryOther        = "Other"
)

// DateRange bounds a spending query. Either side may be nil (unbounded).
// Lobbying reports and grants are filtered by the year components only;
// contributions are filtered by full calendar date.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// YearBounds returns the inclusive [startYear, endYear] view of the range.
// A nil bound yields 0 (start) or 0 (end), meaning unbounded.
func (r DateRange) YearBounds() (startYear, endYear int) {
	if r.Start != nil {
		startYear = r.Start.Year()
	}
	if r.End != nil {
		endYear = r.End.Year()
	}
	return startYear, endYear
}

// ContainsYear reports whether the given year satisfies the range's year
// bounds.
func (r DateRange) ContainsYear(year int) bool {
	if r.Start != nil && year < r.Start.Year() {
		return false
	}
	if r.End != nil && year > r.End.Year() {
		return false
	}
	return true
}

// ContainsDate reports whether a date falls inside the range. A nil date
// fails any bounded range.
func (r DateRange) ContainsDate(d *time.Time) bool {
	if r.Start == nil && r.End == nil {
		return true
	}
	if d == nil {
		return false
	}
	if r.Start != nil && d.Before(*r.Start) {
		return false
	}
	if r.End != nil && d.After(*r.End) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}
