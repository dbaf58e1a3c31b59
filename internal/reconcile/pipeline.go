package reconcile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// Store is the slice of the record store the reconciler writes through.
type Store interface {
	CompanyStore

	UpdateCompany(ctx context.Context, c model.Company) error
	UpsertFinancialSummary(ctx context.Context, s model.FinancialSummary) error
	UpsertLobbyingReport(ctx context.Context, r model.LobbyingReport) error
	AppendContribution(ctx context.Context, c model.PoliticalContribution) error
	AppendGrant(ctx context.Context, g model.CharitableGrant) error
}

// foundationSponsors maps corporate foundation EINs onto the sponsoring
// company name. Grants from foundations outside this table cannot be linked
// and are skipped.
var foundationSponsors = map[string]string{
	"13-3398765": "Apple Inc.",
	"91-1144442": "Microsoft Corporation",
	"94-3068481": "Alphabet Inc.",
}

// Result tallies what one reconciliation pass persisted.
type Result struct {
	Contributions int
	Lobbying      int
	Grants        int
	Summaries     int
	Skipped       int
}

// Total returns the number of records persisted.
func (r Result) Total() int {
	return r.Contributions + r.Lobbying + r.Grants + r.Summaries
}

// Reconciler resolves each record's organization reference and persists the
// batch through the store.
type Reconciler struct {
	store    Store
	resolver *Resolver
}

// New creates a reconciler over the given store.
func New(store Store) *Reconciler {
	return &Reconciler{store: store, resolver: NewResolver(store)}
}

// Persist writes every record in the batch. A record that cannot be
// resolved or written is logged and skipped; Persist only errors on context
// cancellation.
func (r *Reconciler) Persist(ctx context.Context, batch *model.Batch) (Result, error) {
	var res Result
	log := zap.L().With(zap.String("component", "reconcile"))

	for _, rec := range batch.Contributions {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.persistContribution(ctx, rec); err != nil {
			log.Warn("skipping contribution", zap.String("committee", rec.CommitteeName), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Contributions++
	}

	for _, rec := range batch.Lobbying {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.persistLobbying(ctx, rec); err != nil {
			log.Warn("skipping lobbying report", zap.String("client", rec.ClientName), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Lobbying++
	}

	for _, rec := range batch.Grants {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.persistGrant(ctx, rec); err != nil {
			log.Warn("skipping grant", zap.String("foundation", rec.FoundationEIN),
				zap.String("recipient", rec.RecipientName), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Grants++
	}

	for _, rec := range batch.Filings {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.persistFiling(ctx, rec); err != nil {
			log.Warn("skipping filing", zap.String("company", rec.CompanyName), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Summaries++
	}

	return res, nil
}

// persistContribution stores the contribution and makes sure the sponsoring
// company exists as a canonical row. The contribution itself carries no
// company reference; the link is inferred at query time.
func (r *Reconciler) persistContribution(ctx context.Context, rec model.ContributionRecord) error {
	if sponsor := ExtractCompanyFromPAC(rec.CommitteeName); sponsor != "" {
		if _, err := r.resolver.Resolve(ctx, sponsor, "", ""); err != nil {
			return err
		}
	}
	return r.store.AppendContribution(ctx, model.PoliticalContribution{
		CommitteeName:  rec.CommitteeName,
		RecipientName:  rec.RecipientName,
		RecipientParty: rec.RecipientParty,
		Amount:         rec.Amount,
		Date:           rec.Date,
		ElectionCycle:  rec.ElectionCycle,
	})
}

func (r *Reconciler) persistLobbying(ctx context.Context, rec model.LobbyingRecord) error {
	company, err := r.resolver.Resolve(ctx, rec.ClientName, "", "")
	if err != nil {
		return err
	}
	return r.store.UpsertLobbyingReport(ctx, model.LobbyingReport{
		CompanyID:      company.ID,
		Year:           rec.Year,
		Quarter:        rec.Quarter,
		AmountSpent:    rec.AmountSpent,
		SpecificIssues: rec.SpecificIssues,
		ReportURL:      rec.ReportURL,
	})
}

func (r *Reconciler) persistGrant(ctx context.Context, rec model.GrantRecord) error {
	sponsor, ok := foundationSponsors[rec.FoundationEIN]
	if !ok {
		return eris.Errorf("reconcile: no sponsoring company known for foundation EIN %s", rec.FoundationEIN)
	}
	company, err := r.resolver.Resolve(ctx, sponsor, "", "")
	if err != nil {
		return err
	}
	return r.store.AppendGrant(ctx, model.CharitableGrant{
		CompanyID:         company.ID,
		RecipientName:     rec.RecipientName,
		RecipientEIN:      rec.RecipientEIN,
		Amount:            rec.Amount,
		FiscalYear:        rec.FiscalYear,
		Description:       rec.Description,
		RecipientCategory: rec.RecipientCategory,
	})
}

// persistFiling upserts the fiscal-year financials and backfills ticker and
// CIK onto companies first seen through a source that carries neither.
func (r *Reconciler) persistFiling(ctx context.Context, rec model.FilingRecord) error {
	company, err := r.resolver.Resolve(ctx, rec.CompanyName, rec.Ticker, rec.CIK)
	if err != nil {
		return err
	}

	ticker := strings.ToUpper(rec.Ticker)
	if (company.Ticker == "" && ticker != "") || (company.CIK == "" && rec.CIK != "") {
		if company.Ticker == "" {
			company.Ticker = ticker
		}
		if company.CIK == "" {
			company.CIK = rec.CIK
		}
		if err := r.store.UpdateCompany(ctx, *company); err != nil {
			return eris.Wrap(err, "reconcile: backfill identifiers")
		}
	}

	return r.store.UpsertFinancialSummary(ctx, model.FinancialSummary{
		CompanyID:    company.ID,
		FiscalYear:   rec.FiscalYear,
		TotalRevenue: rec.TotalRevenue,
		NetIncome:    rec.NetIncome,
	})
}
