package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicspend/disclosure-cli/internal/config"
)

func TestFilings_FetchAnnualReports(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "token", r.Header.Get("Authorization"))

		var body struct {
			Query struct {
				QueryString struct {
					Query string `json:"query"`
				} `json:"query_string"`
			} `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		queries = append(queries, body.Query.QueryString.Query)

		fmt.Fprint(w, `{"filings": [{
			"cik": "320193",
			"companyName": "Apple Inc.",
			"ticker": "AAPL",
			"periodOfReport": "2023-09-30",
			"linkToFilingDetails": "https://www.sec.gov/Archives/a.htm"
		}]}`)
	}))
	defer srv.Close()

	filings := NewFilings(config.FilingsConfig{
		APIKey:  "token",
		BaseURL: srv.URL,
		CIKs:    []string{"0000320193"},
	}, newTestDeps())

	batch, err := filings.Fetch(context.Background(), FetchOptions{Year: 2023})
	require.NoError(t, err)
	require.Len(t, batch.Filings, 1)

	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "cik:320193")
	assert.Contains(t, queries[0], `formType:"10-K"`)
	assert.Contains(t, queries[0], "2023-01-01 TO 2023-12-31")

	rec := batch.Filings[0]
	assert.Equal(t, "0000320193", rec.CIK)
	assert.Equal(t, "Apple Inc.", rec.CompanyName)
	assert.Equal(t, "AAPL", rec.Ticker)
	assert.Equal(t, 2023, rec.FiscalYear)
	require.NotNil(t, rec.TotalRevenue)
	require.NotNil(t, rec.NetIncome)
	assert.Equal(t, "1000000000", rec.TotalRevenue.String())
	assert.Equal(t, "100000000", rec.NetIncome.String())
}

func TestFilings_SkipsEmptyResults(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"filings": []}`)
			return
		}
		fmt.Fprint(w, `{"filings": [{"cik": "789019", "companyName": "Microsoft Corporation", "ticker": "MSFT"}]}`)
	}))
	defer srv.Close()

	filings := NewFilings(config.FilingsConfig{
		APIKey:  "token",
		BaseURL: srv.URL,
		CIKs:    []string{"0000320193", "0000789019"},
	}, newTestDeps())

	batch, err := filings.Fetch(context.Background(), FetchOptions{Year: 2023})
	require.NoError(t, err)
	require.Len(t, batch.Filings, 1)
	assert.Equal(t, "Microsoft Corporation", batch.Filings[0].CompanyName)
}

func TestFilings_SyntheticWithoutKey(t *testing.T) {
	filings := NewFilings(config.FilingsConfig{CIKs: []string{"0000320193"}}, newTestDeps())

	batch, err := filings.Fetch(context.Background(), FetchOptions{Year: 2023})
	require.NoError(t, err)
	require.Len(t, batch.Filings, 3)
	for _, rec := range batch.Filings {
		assert.NotEmpty(t, rec.CIK)
		assert.NotEmpty(t, rec.Ticker)
		require.NotNil(t, rec.TotalRevenue)
		assert.True(t, rec.TotalRevenue.IsPositive())
		assert.Equal(t, 2023, rec.FiscalYear)
	}
}

func TestFilings_FallbackWhenAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	filings := NewFilings(config.FilingsConfig{
		APIKey: "bad", BaseURL: srv.URL, CIKs: []string{"0000320193"},
	}, newTestDeps())

	batch, err := filings.Fetch(context.Background(), FetchOptions{Year: 2024})
	require.NoError(t, err)
	assert.Len(t, batch.Filings, 3)
}

func TestRegistry(t *testing.T) {
	cfg := &config.Config{}
	reg := NewRegistry(cfg, newTestDeps())

	assert.Equal(t, []string{"fec", "filings", "grants", "lobbying"}, reg.Names())

	s, err := reg.Get("fec")
	require.NoError(t, err)
	assert.Equal(t, "fec", s.Name())

	_, err = reg.Get("nope")
	assert.Error(t, err)

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	some, err := reg.Select([]string{"grants", "fec"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "grants", some[0].Name())

	_, err = reg.Select([]string{"bogus"})
	assert.Error(t, err)
}
