package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// fakeStore is an in-memory Store for exercising resolution and persistence
// without a database.
type fakeStore struct {
	mu            sync.Mutex
	nextID        int64
	companies     []model.Company
	summaries     map[string]model.FinancialSummary
	reports       map[string]model.LobbyingReport
	contributions []model.PoliticalContribution
	grants        []model.CharitableGrant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		summaries: make(map[string]model.FinancialSummary),
		reports:   make(map[string]model.LobbyingReport),
	}
}

func (s *fakeStore) FindCompanyByName(_ context.Context, name string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if strings.EqualFold(s.companies[i].Name, name) {
			c := s.companies[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindCompanyByTicker(_ context.Context, ticker string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].Ticker == ticker && ticker != "" {
			c := s.companies[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindCompanyByCIK(_ context.Context, cik string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].CIK == cik && cik != "" {
			c := s.companies[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertOrGetCompany(_ context.Context, c model.Company) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if strings.EqualFold(s.companies[i].Name, c.Name) {
			existing := s.companies[i]
			return &existing, nil
		}
	}
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = time.Now()
	s.companies = append(s.companies, c)
	out := c
	return &out, nil
}

func (s *fakeStore) UpdateCompany(_ context.Context, c model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].ID == c.ID {
			s.companies[i] = c
			return nil
		}
	}
	return nil
}

func (s *fakeStore) UpsertFinancialSummary(_ context.Context, sum model.FinancialSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := summaryKey(sum.CompanyID, sum.FiscalYear)
	s.summaries[key] = sum
	return nil
}

func (s *fakeStore) UpsertLobbyingReport(_ context.Context, r model.LobbyingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reportKey(r.CompanyID, r.Year, r.Quarter)
	s.reports[key] = r
	return nil
}

func (s *fakeStore) AppendContribution(_ context.Context, c model.PoliticalContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions = append(s.contributions, c)
	return nil
}

func (s *fakeStore) AppendGrant(_ context.Context, g model.CharitableGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = append(s.grants, g)
	return nil
}

func summaryKey(companyID int64, year int) string {
	return fmt.Sprintf("%d/%d", companyID, year)
}

func reportKey(companyID int64, year, quarter int) string {
	return fmt.Sprintf("%d/%d/%d", companyID, year, quarter)
}

func TestResolver_FindOrCreate(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "Apple Inc.", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", first.Name)

	// Variants of the same company never create a second row.
	for _, variant := range []string{"Apple Inc.", "APPLE CORPORATION", "apple computer"} {
		got, err := resolver.Resolve(ctx, variant, "", "")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID, "variant %q", variant)
	}
	assert.Len(t, store.companies, 1)
}

func TestResolver_TickerAndCIKFallback(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	seeded, err := store.InsertOrGetCompany(ctx, model.Company{Name: "Initech", Ticker: "INTC", CIK: "0000999999"})
	require.NoError(t, err)

	byTicker, err := resolver.Resolve(ctx, "Initech Global", "intc", "")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, byTicker.ID)

	byCIK, err := resolver.Resolve(ctx, "Initech Worldwide", "", "0000999999")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, byCIK.ID)

	// A miss on all three keys creates a fresh company.
	fresh, err := resolver.Resolve(ctx, "Hooli", "HOOL", "")
	require.NoError(t, err)
	assert.NotEqual(t, seeded.ID, fresh.ID)
	assert.Equal(t, "HOOL", fresh.Ticker)
}

func TestResolver_EmptyName(t *testing.T) {
	resolver := NewResolver(newFakeStore())
	_, err := resolver.Resolve(context.Background(), "   ", "", "")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestPersist_FullBatch(t *testing.T) {
	store := newFakeStore()
	rec := New(store)
	ctx := context.Background()

	date := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	revenue := decimal.NewFromInt(383_000_000_000)
	income := decimal.NewFromInt(97_000_000_000)

	batch := &model.Batch{
		Contributions: []model.ContributionRecord{{
			CommitteeID:   "C00123456",
			CommitteeName: "APPLE INC. PAC",
			RecipientName: "Friends of the First District",
			Amount:        decimal.NewFromInt(5000),
			Date:          &date,
		}},
		Lobbying: []model.LobbyingRecord{{
			ClientName:  "Apple Inc.",
			Year:        2023,
			Quarter:     1,
			AmountSpent: decimal.NewFromInt(2_500_000),
		}},
		Grants: []model.GrantRecord{{
			FoundationEIN:     "13-3398765",
			RecipientName:     "Bay Area Food Bank",
			Amount:            decimal.NewFromInt(120_000),
			FiscalYear:        2023,
			RecipientCategory: model.CategoryHumanitarian,
		}},
		Filings: []model.FilingRecord{{
			CIK:          "0000320193",
			CompanyName:  "Apple Inc.",
			Ticker:       "AAPL",
			FiscalYear:   2023,
			TotalRevenue: &revenue,
			NetIncome:    &income,
		}},
	}

	res, err := rec.Persist(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, Result{Contributions: 1, Lobbying: 1, Grants: 1, Summaries: 1}, res)
	assert.Equal(t, 4, res.Total())

	// Everything resolved onto one canonical company.
	require.Len(t, store.companies, 1)
	apple := store.companies[0]
	assert.Equal(t, "Apple Inc.", apple.Name)
	assert.Equal(t, "AAPL", apple.Ticker)
	assert.Equal(t, "0000320193", apple.CIK)

	require.Len(t, store.contributions, 1)
	assert.Equal(t, "APPLE INC. PAC", store.contributions[0].CommitteeName)

	report, ok := store.reports[reportKey(apple.ID, 2023, 1)]
	require.True(t, ok)
	assert.Equal(t, "2500000", report.AmountSpent.String())

	require.Len(t, store.grants, 1)
	assert.Equal(t, apple.ID, store.grants[0].CompanyID)

	summary, ok := store.summaries[summaryKey(apple.ID, 2023)]
	require.True(t, ok)
	require.NotNil(t, summary.TotalRevenue)
	assert.Equal(t, "383000000000", summary.TotalRevenue.String())
}

func TestPersist_LobbyingReingestionUpserts(t *testing.T) {
	store := newFakeStore()
	rec := New(store)
	ctx := context.Background()

	report := model.LobbyingRecord{
		ClientName: "Apple Inc.", Year: 2023, Quarter: 2,
		AmountSpent: decimal.NewFromInt(1_000_000),
	}
	_, err := rec.Persist(ctx, &model.Batch{Lobbying: []model.LobbyingRecord{report}})
	require.NoError(t, err)

	report.AmountSpent = decimal.NewFromInt(1_250_000)
	_, err = rec.Persist(ctx, &model.Batch{Lobbying: []model.LobbyingRecord{report}})
	require.NoError(t, err)

	require.Len(t, store.reports, 1)
	for _, r := range store.reports {
		assert.Equal(t, "1250000", r.AmountSpent.String())
	}
}

func TestPersist_SkipsUnlinkableGrants(t *testing.T) {
	store := newFakeStore()
	rec := New(store)

	res, err := rec.Persist(context.Background(), &model.Batch{Grants: []model.GrantRecord{
		{FoundationEIN: "00-0000000", RecipientName: "Somewhere", Amount: decimal.NewFromInt(10)},
		{FoundationEIN: "91-1144442", RecipientName: "Seattle Children's Hospital", Amount: decimal.NewFromInt(20), FiscalYear: 2023},
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Grants)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, store.grants, 1)
	assert.Equal(t, "Seattle Children's Hospital", store.grants[0].RecipientName)
}

func TestPersist_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newFakeStore()).Persist(ctx, &model.Batch{
		Contributions: []model.ContributionRecord{{CommitteeName: "ACME PAC", Amount: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
