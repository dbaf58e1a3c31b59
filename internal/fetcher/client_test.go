package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/civicspend/disclosure-cli/internal/resilience"
)

func testClient() *Client {
	return New(Options{
		Timeout:      5 * time.Second,
		DefaultLimit: rate.Inf,
	})
}

func TestGetJSON_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("missing API key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":"APPLE PAC"}]}`))
	}))
	defer srv.Close()

	var out struct {
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	header := http.Header{}
	header.Set("X-API-Key", "secret")

	err := testClient().GetJSON(context.Background(), srv.URL, header, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].Name != "APPLE PAC" {
		t.Errorf("unexpected decode: %+v", out)
	}
}

func TestPostJSON_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient().PostJSON(context.Background(), srv.URL, nil, map[string]string{"query": "cik:320193"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Error("expected ok response")
	}
}

func TestGetJSON_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var re *resilience.RateLimitError
	if !errors.As(err, &re) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if re.RetryAfter != 7*time.Second {
		t.Errorf("expected 7s retry-after, got %v", re.RetryAfter)
	}
}

func TestGetJSON_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	if !resilience.IsRetryable(err) {
		t.Errorf("5xx should be retryable, got %v", err)
	}
	var te *resilience.TransientError
	if !errors.As(err, &te) || te.StatusCode != http.StatusBadGateway {
		t.Errorf("expected TransientError with status 502, got %v", err)
	}
}

func TestGetJSON_ClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if resilience.IsRetryable(err) {
		t.Errorf("403 must not be retryable: %v", err)
	}
}

func TestGetJSON_ConnectionFailureIsTransient(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	if !resilience.IsRetryable(err) {
		t.Errorf("connection failure should be retryable, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{"0", 0},
		{"-5", 0},
		{"Wed, 21 Oct 2026 07:28:00 GMT", 0},
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.in); got != tc.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLimiterFor_SharedPerHost(t *testing.T) {
	c := New(Options{DefaultLimit: rate.Limit(3)})
	a := c.limiterFor("https://api.open.fec.gov/v1/schedules/schedule_a/")
	b := c.limiterFor("https://api.open.fec.gov/v1/committee/C001/")
	if a != b {
		t.Error("expected one limiter per host")
	}
	other := c.limiterFor("https://lda.senate.gov/api/v1/reports/")
	if a == other {
		t.Error("expected distinct limiters for distinct hosts")
	}
}
