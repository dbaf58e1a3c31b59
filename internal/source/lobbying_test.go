package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicspend/disclosure-cli/internal/config"
)

func TestLobbying_FetchAllQuarters(t *testing.T) {
	var periods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		periods = append(periods, r.URL.Query().Get("filing_period"))
		assert.Equal(t, "2023", r.URL.Query().Get("filing_year"))

		fmt.Fprint(w, `{
			"next": null,
			"results": [{
				"filing_year": 2023,
				"expenses": "$1,250,000.00",
				"income": "",
				"filing_document_url": "https://lda.senate.gov/filings/1.html",
				"registrant": {"name": "Capitol Advocates LLC"},
				"client": {"name": "Apple Inc."},
				"lobbying_activities": [{"description": "Trade policy"}]
			}]
		}`)
	}))
	defer srv.Close()

	lda := NewLobbying(config.LobbyingConfig{BaseURL: srv.URL, PageSize: 25, MaxPages: 5}, newTestDeps())

	batch, err := lda.Fetch(context.Background(), FetchOptions{Year: 2023})
	require.NoError(t, err)
	require.Len(t, batch.Lobbying, 4)

	assert.Equal(t, []string{"first_quarter", "second_quarter", "third_quarter", "fourth_quarter"}, periods)
	rec := batch.Lobbying[0]
	assert.Equal(t, "Apple Inc.", rec.ClientName)
	assert.Equal(t, "Capitol Advocates LLC", rec.RegistrantName)
	assert.Equal(t, "1250000", rec.AmountSpent.String())
	assert.Equal(t, 1, rec.Quarter)
	assert.Equal(t, "Trade policy", rec.SpecificIssues)
}

func TestLobbying_SingleQuarter(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "third_quarter", r.URL.Query().Get("filing_period"))
		fmt.Fprint(w, `{"next": null, "results": [{"client": {"name": "Acme"}, "expenses": "10000"}]}`)
	}))
	defer srv.Close()

	lda := NewLobbying(config.LobbyingConfig{BaseURL: srv.URL, PageSize: 25, MaxPages: 5}, newTestDeps())

	batch, err := lda.Fetch(context.Background(), FetchOptions{Year: 2023, Quarter: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, batch.Lobbying, 1)
	assert.Equal(t, 3, batch.Lobbying[0].Quarter)
}

func TestLobbying_FallsBackToIncomeAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"next": null, "results": [
			{"client": {"name": "Acme"}, "expenses": null, "income": "$45,000"},
			{"client": {"name": ""}, "expenses": "99"}
		]}`)
	}))
	defer srv.Close()

	lda := NewLobbying(config.LobbyingConfig{BaseURL: srv.URL, PageSize: 25, MaxPages: 5}, newTestDeps())

	batch, err := lda.Fetch(context.Background(), FetchOptions{Year: 2023, Quarter: 1})
	require.NoError(t, err)
	require.Len(t, batch.Lobbying, 1)
	assert.Equal(t, "45000", batch.Lobbying[0].AmountSpent.String())
}

func TestLobbying_FollowsNextPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		next := `"more"`
		if calls >= 2 {
			next = `""`
		}
		fmt.Fprintf(w, `{"next": %s, "results": [{"client": {"name": "Acme"}, "expenses": "1"}]}`, next)
	}))
	defer srv.Close()

	lda := NewLobbying(config.LobbyingConfig{BaseURL: srv.URL, PageSize: 1, MaxPages: 10}, newTestDeps())

	batch, err := lda.Fetch(context.Background(), FetchOptions{Year: 2023, Quarter: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, batch.Lobbying, 2)
}

func TestLobbying_SyntheticFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	lda := NewLobbying(config.LobbyingConfig{BaseURL: srv.URL, PageSize: 25, MaxPages: 5}, newTestDeps())

	batch, err := lda.Fetch(context.Background(), FetchOptions{Year: 2023})
	require.NoError(t, err)
	// Three companies, four quarters each.
	require.Len(t, batch.Lobbying, 12)

	byClient := map[string]string{}
	for _, rec := range batch.Lobbying {
		if rec.Quarter == 1 {
			byClient[rec.ClientName] = rec.AmountSpent.String()
		}
		assert.Equal(t, 2023, rec.Year)
	}
	assert.Equal(t, "2500000", byClient["Apple Inc."])
	assert.Equal(t, "3200000", byClient["Microsoft Corporation"])
	assert.Equal(t, "2800000", byClient["Alphabet Inc."])
}
