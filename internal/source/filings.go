package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/civicspend/disclosure-cli/internal/config"
	"github.com/civicspend/disclosure-cli/internal/model"
	"github.com/civicspend/disclosure-cli/internal/resilience"
)

// Filings ingests annual report metadata from a SEC full-text query API,
// one CIK at a time. The query API returns filing metadata only; revenue
// and net income come from a fixed placeholder until XBRL extraction is
// wired in.
type Filings struct {
	cfg  config.FilingsConfig
	deps Deps
}

// NewFilings creates the corporate filings adapter.
func NewFilings(cfg config.FilingsConfig, deps Deps) *Filings {
	return &Filings{cfg: cfg, deps: deps}
}

// Name implements Source.
func (s *Filings) Name() string { return "filings" }

// Fetch implements Source. CIKs that fail after retries are skipped; zero
// live records degrade to the synthetic dataset.
func (s *Filings) Fetch(ctx context.Context, opts FetchOptions) (*model.Batch, error) {
	log := zap.L().With(zap.String("source", s.Name()), zap.Int("year", opts.Year))

	if s.cfg.APIKey == "" {
		log.Info("no filings API key configured, serving synthetic dataset")
		return &model.Batch{Filings: sampleFilings(opts.Year)}, nil
	}

	ciks := s.cfg.CIKs
	if opts.Selector != "" {
		ciks = []string{opts.Selector}
	}

	var records []model.FilingRecord
	for _, cik := range ciks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.fetchAnnualReport(ctx, cik, opts.Year)
		if err != nil {
			log.Warn("skipping filer", zap.String("cik", cik), zap.Error(err))
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}

	if len(records) == 0 {
		log.Warn("no live filings fetched, falling back to synthetic dataset")
		return &model.Batch{Filings: sampleFilings(opts.Year)}, nil
	}

	log.Info("fetched filings", zap.Int("records", len(records)))
	return &model.Batch{Filings: records}, nil
}

type filingQueryResponse struct {
	Filings []struct {
		CIK         string `json:"cik"`
		CompanyName string `json:"companyName"`
		Ticker      string `json:"ticker"`
		PeriodOf    string `json:"periodOfReport"`
		LinkToHTML  string `json:"linkToFilingDetails"`
	} `json:"filings"`
}

// Placeholder financials reported until per-filing XBRL extraction lands.
// TODO: pull real revenue and net income from the XBRL facts endpoint.
var (
	placeholderRevenue   = decimal.NewFromInt(1_000_000_000)
	placeholderNetIncome = decimal.NewFromInt(100_000_000)
)

func (s *Filings) fetchAnnualReport(ctx context.Context, cik string, year int) (*model.FilingRecord, error) {
	header := http.Header{}
	header.Set("Authorization", s.cfg.APIKey)

	query := map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query": fmt.Sprintf(`cik:%s AND formType:"10-K" AND periodOfReport:[%d-01-01 TO %d-12-31]`,
					strings.TrimLeft(cik, "0"), year, year),
			},
		},
		"from": 0,
		"size": 1,
		"sort": []map[string]any{{"filedAt": map[string]string{"order": "desc"}}},
	}

	resp, err := resilience.Run(ctx, s.deps.Exec, "filings.query", func(ctx context.Context) (*filingQueryResponse, error) {
		var out filingQueryResponse
		if err := s.deps.HTTP.PostJSON(ctx, s.cfg.BaseURL, header, query, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Filings) == 0 {
		return nil, nil
	}

	raw := resp.Filings[0]
	if raw.CompanyName == "" {
		return nil, nil
	}
	revenue := placeholderRevenue
	netIncome := placeholderNetIncome
	return &model.FilingRecord{
		CIK:          cik,
		CompanyName:  raw.CompanyName,
		Ticker:       raw.Ticker,
		FiscalYear:   year,
		TotalRevenue: &revenue,
		NetIncome:    &netIncome,
		FilingURL:    raw.LinkToHTML,
	}, nil
}

// SearchFilers looks up filer names matching a fragment.
func (s *Filings) SearchFilers(ctx context.Context, name string) ([]string, error) {
	header := http.Header{}
	header.Set("Authorization", s.cfg.APIKey)

	query := map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query": fmt.Sprintf("companyName:%q", url.QueryEscape(name)),
			},
		},
		"from": 0,
		"size": 10,
	}

	return resilience.Run(ctx, s.deps.Exec, "filings.search", func(ctx context.Context) ([]string, error) {
		var out filingQueryResponse
		if err := s.deps.HTTP.PostJSON(ctx, s.cfg.BaseURL, header, query, &out); err != nil {
			return nil, err
		}
		names := make([]string, 0, len(out.Filings))
		for _, f := range out.Filings {
			names = append(names, f.CompanyName)
		}
		return names, nil
	})
}

func sampleFilings(year int) []model.FilingRecord {
	type fixture struct {
		cik     string
		name    string
		ticker  string
		revenue int64
		income  int64
	}
	fixtures := []fixture{
		{"0000320193", "Apple Inc.", "AAPL", 383_000_000_000, 97_000_000_000},
		{"0000789019", "Microsoft Corporation", "MSFT", 211_000_000_000, 72_000_000_000},
		{"0001652044", "Alphabet Inc.", "GOOGL", 307_000_000_000, 74_000_000_000},
	}

	records := make([]model.FilingRecord, 0, len(fixtures))
	for _, f := range fixtures {
		revenue := decimal.NewFromInt(f.revenue)
		income := decimal.NewFromInt(f.income)
		records = append(records, model.FilingRecord{
			CIK:          f.cik,
			CompanyName:  f.name,
			Ticker:       f.ticker,
			FiscalYear:   year,
			TotalRevenue: &revenue,
			NetIncome:    &income,
		})
	}
	return records
}
