package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1250000", "1250000"},
		{"1,250,000", "1250000"},
		{"$1,250,000.00", "1250000"},
		{"$ 45,000", "45000"},
		{"-500.25", "-500.25"},
		{"", "0"},
		{"n/a", "0"},
		{"$", "0"},
	}
	for _, tc := range tests {
		got := ParseAmount(tc.in)
		assert.True(t, got.Equal(mustDecimal(t, tc.want)), "input %q: got %s", tc.in, got)
	}
}

func TestDateRange_YearBounds(t *testing.T) {
	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

	s, e := DateRange{Start: &start, End: &end}.YearBounds()
	assert.Equal(t, 2022, s)
	assert.Equal(t, 2023, e)

	s, e = DateRange{}.YearBounds()
	assert.Zero(t, s)
	assert.Zero(t, e)
}

func TestDateRange_ContainsYear(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	dr := DateRange{Start: &start, End: &end}

	assert.False(t, dr.ContainsYear(2021))
	assert.True(t, dr.ContainsYear(2022))
	assert.True(t, dr.ContainsYear(2023))
	assert.False(t, dr.ContainsYear(2024))
	assert.True(t, DateRange{}.ContainsYear(1900))
}

func TestDateRange_ContainsDate(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	dr := DateRange{Start: &start}

	in := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, dr.ContainsDate(&in))
	assert.False(t, dr.ContainsDate(&out))

	// A dateless record fails any bounded window but passes an open one.
	assert.False(t, dr.ContainsDate(nil))
	assert.True(t, DateRange{}.ContainsDate(nil))
}

func TestBatch_MergeAndLen(t *testing.T) {
	a := &Batch{Contributions: []ContributionRecord{{CommitteeName: "ACME PAC"}}}
	b := &Batch{
		Lobbying: []LobbyingRecord{{ClientName: "Acme"}},
		Filings:  []FilingRecord{{CompanyName: "Acme"}},
	}

	assert.True(t, (&Batch{}).Empty())
	a.Merge(b)
	a.Merge(nil)
	assert.False(t, a.Empty())
	assert.Equal(t, 3, a.Len())
}
