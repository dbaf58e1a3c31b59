package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/civicspend/disclosure-cli/internal/config"
	"github.com/civicspend/disclosure-cli/internal/model"
	"github.com/civicspend/disclosure-cli/internal/resilience"
)

// Grants ingests charitable grant lines from corporate foundation 990-PF
// filings via the nonprofit explorer API, one foundation EIN at a time.
type Grants struct {
	cfg  config.GrantsConfig
	deps Deps
}

// NewGrants creates the charitable grants adapter.
func NewGrants(cfg config.GrantsConfig, deps Deps) *Grants {
	return &Grants{cfg: cfg, deps: deps}
}

// Name implements Source.
func (g *Grants) Name() string { return "grants" }

// Fetch implements Source. Foundations that fail after retries are skipped;
// zero live records degrade to the synthetic dataset.
func (g *Grants) Fetch(ctx context.Context, opts FetchOptions) (*model.Batch, error) {
	log := zap.L().With(zap.String("source", g.Name()), zap.Int("year", opts.Year))

	if g.cfg.APIKey == "" {
		log.Info("no grants API key configured, serving synthetic dataset")
		return &model.Batch{Grants: sampleGrants(opts.Year)}, nil
	}

	foundations := g.cfg.Foundations
	if opts.Selector != "" {
		foundations = []string{opts.Selector}
	}

	var records []model.GrantRecord
	for _, ein := range foundations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := g.fetchFoundation(ctx, ein, opts.Year)
		if err != nil {
			log.Warn("skipping foundation", zap.String("ein", ein), zap.Error(err))
			continue
		}
		records = append(records, recs...)
	}

	if len(records) == 0 {
		log.Warn("no live grant records fetched, falling back to synthetic dataset")
		return &model.Batch{Grants: sampleGrants(opts.Year)}, nil
	}

	log.Info("fetched charitable grants", zap.Int("records", len(records)))
	return &model.Batch{Grants: records}, nil
}

type grantFilingsResponse struct {
	Filings []struct {
		TaxPeriodYear int `json:"tax_prd_yr"`
		Grants        []struct {
			RecipientName string      `json:"recipient_name"`
			RecipientEIN  string      `json:"recipient_ein"`
			Amount        json.Number `json:"amount"`
			Purpose       string      `json:"purpose"`
		} `json:"grants"`
	} `json:"filings_with_data"`
}

func (g *Grants) fetchFoundation(ctx context.Context, ein string, year int) ([]model.GrantRecord, error) {
	header := http.Header{}
	header.Set("X-API-Key", g.cfg.APIKey)
	reqURL := fmt.Sprintf("%s/organizations/%s.json", g.cfg.BaseURL, url.PathEscape(normalizeEIN(ein)))

	resp, err := resilience.Run(ctx, g.deps.Exec, "grants.filings", func(ctx context.Context) (*grantFilingsResponse, error) {
		var out grantFilingsResponse
		if err := g.deps.HTTP.GetJSON(ctx, reqURL, header, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	var records []model.GrantRecord
	for _, filing := range resp.Filings {
		if filing.TaxPeriodYear != year {
			continue
		}
		for _, raw := range filing.Grants {
			if raw.RecipientName == "" {
				continue
			}
			amount := decimal.Zero
			if d, err := decimal.NewFromString(raw.Amount.String()); err == nil {
				amount = d
			}
			records = append(records, model.GrantRecord{
				FoundationEIN:     ein,
				RecipientName:     raw.RecipientName,
				RecipientEIN:      raw.RecipientEIN,
				Amount:            amount,
				FiscalYear:        filing.TaxPeriodYear,
				Description:       raw.Purpose,
				RecipientCategory: ClassifyRecipient(raw.RecipientName, raw.Purpose),
			})
		}
	}
	return records, nil
}

// SearchFoundations looks up foundations by name and returns their EINs.
func (g *Grants) SearchFoundations(ctx context.Context, name string) ([]string, error) {
	header := http.Header{}
	header.Set("X-API-Key", g.cfg.APIKey)
	params := url.Values{}
	params.Set("q", name)
	reqURL := fmt.Sprintf("%s/search.json?%s", g.cfg.BaseURL, params.Encode())

	return resilience.Run(ctx, g.deps.Exec, "grants.search", func(ctx context.Context) ([]string, error) {
		var out struct {
			Organizations []struct {
				EIN json.Number `json:"ein"`
			} `json:"organizations"`
		}
		if err := g.deps.HTTP.GetJSON(ctx, reqURL, header, &out); err != nil {
			return nil, err
		}
		eins := make([]string, 0, len(out.Organizations))
		for _, org := range out.Organizations {
			eins = append(eins, org.EIN.String())
		}
		return eins, nil
	})
}

// normalizeEIN strips the conventional hyphen from an EIN for URL paths.
func normalizeEIN(ein string) string {
	out := make([]byte, 0, len(ein))
	for i := 0; i < len(ein); i++ {
		if ein[i] != '-' {
			out = append(out, ein[i])
		}
	}
	return string(out)
}

func sampleGrants(year int) []model.GrantRecord {
	type fixture struct {
		foundationEIN string
		recipient     string
		amount        int64
		description   string
	}
	fixtures := []fixture{
		{"13-3398765", "St. Mary's Church Outreach", 50_000, "General support for community ministry"},
		{"13-3398765", "Bay Area Food Bank", 120_000, "Hunger relief programs"},
		{"13-3398765", "Stanford University", 250_000, "Engineering scholarship fund"},
		{"91-1144442", "Seattle Children's Hospital", 500_000, "Pediatric research equipment"},
		{"91-1144442", "Pacific Science Academy", 180_000, "STEM education outreach"},
		{"91-1144442", "Northwest Wildlife Conservation", 90_000, "Habitat restoration"},
		{"94-3068481", "Museum of Modern Art", 75_000, "Digital arts exhibition"},
		{"94-3068481", "Global Disaster Relief Fund", 300_000, "Emergency response operations"},
		{"94-3068481", "City Harvest", 60_000, "Food rescue and distribution"},
	}

	records := make([]model.GrantRecord, 0, len(fixtures))
	for _, f := range fixtures {
		records = append(records, model.GrantRecord{
			FoundationEIN:     f.foundationEIN,
			RecipientName:     f.recipient,
			Amount:            decimal.NewFromInt(f.amount),
			FiscalYear:        year,
			Description:       f.description,
			RecipientCategory: ClassifyRecipient(f.recipient, f.description),
		})
	}
	return records
}
