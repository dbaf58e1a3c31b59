package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// The types below are the normalized per-source record shapes produced by the
// source adapters, before company resolution. They carry the raw organization
// reference (committee name, client name, foundation EIN, filer name) that
// the reconciler maps onto a canonical Company.

// ContributionRecord is a normalized FEC Schedule A disbursement.
type ContributionRecord struct {
	CommitteeID    string
	CommitteeName  string
	RecipientName  string
	RecipientParty string
	Amount         decimal.Decimal
	Date           *time.Time
	ElectionCycle  string
}

// LobbyingRecord is a normalized Senate LDA quarterly report.
type LobbyingRecord struct {
	RegistrantName string
	ClientName     string
	Year           int
	Quarter        int
	AmountSpent    decimal.Decimal
	SpecificIssues string
	ReportURL      string
}

// GrantRecord is a normalized foundation grant filing line.
type GrantRecord struct {
	FoundationEIN     string
	RecipientName     string
	RecipientEIN      string
	Amount            decimal.Decimal
	FiscalYear        int
	Description       string
	RecipientCategory string
}

// FilingRecord is a normalized corporate financial filing summary.
type FilingRecord struct {
	CIK          string
	CompanyName  string
	Ticker       string
	FiscalYear   int
	TotalRevenue *decimal.Decimal
	NetIncome    *decimal.Decimal
	FilingURL    string
}

// Batch groups the normalized records one adapter run produced. Each adapter
// fills only the slice for its own domain.
type Batch struct {
	Contributions []ContributionRecord
	Lobbying      []LobbyingRecord
	Grants        []GrantRecord
	Filings       []FilingRecord
}

// Empty reports whether the batch holds no records at all.
func (b *Batch) Empty() bool {
	return len(b.Contributions) == 0 && len(b.Lobbying) == 0 &&
		len(b.Grants) == 0 && len(b.Filings) == 0
}

// Len returns the total record count across all domains.
func (b *Batch) Len() int {
	return len(b.Contributions) + len(b.Lobbying) + len(b.Grants) + len(b.Filings)
}

// Merge appends all records from other into b.
func (b *Batch) Merge(other *Batch) {
	if other == nil {
		return
	}
	b.Contributions = append(b.Contributions, other.Contributions...)
	b.Lobbying = append(b.Lobbying, other.Lobbying...)
	b.Grants = append(b.Grants, other.Grants...)
	b.Filings = append(b.Filings, other.Filings...)
}
