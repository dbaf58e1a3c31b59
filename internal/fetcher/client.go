// Package fetcher provides the outbound JSON HTTP client shared by all
// source adapters. It performs a single classified attempt per call; the
// retry loop and circuit breaking live in the resilience executor wrapped
// around it.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/civicspend/disclosure-cli/internal/resilience"
)

// Options configures the HTTP client.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// HostLimits sets per-host request rates. Hosts without an entry use
	// DefaultLimit.
	HostLimits   map[string]rate.Limit
	DefaultLimit rate.Limit
	Burst        int
}

// DefaultHostLimits returns the default per-host request rates for the
// public disclosure APIs.
func DefaultHostLimits() map[string]rate.Limit {
	return map[string]rate.Limit{
		"api.open.fec.gov":   rate.Limit(2),
		"lda.senate.gov":     rate.Limit(5),
		"api.propublica.org": rate.Limit(2),
		"api.sec-api.io":     rate.Limit(5),
	}
}

// Client is a rate-limited JSON HTTP client.
type Client struct {
	http *http.Client
	opts Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "disclosure-cli/1.0"
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = rate.Limit(10)
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	if opts.HostLimits == nil {
		opts.HostLimits = DefaultHostLimits()
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if lim, ok := c.limiters[host]; ok {
		return lim
	}
	limit := c.opts.DefaultLimit
	if l, ok := c.opts.HostLimits[host]; ok {
		limit = l
	}
	lim := rate.NewLimiter(limit, c.opts.Burst)
	c.limiters[host] = lim
	return lim
}

// GetJSON issues a GET request and decodes the JSON response into out.
// Extra headers (API keys) are applied on top of the defaults.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "fetcher: create request")
	}
	return c.doJSON(req, header, out)
}

// PostJSON issues a POST request with a JSON body and decodes the JSON
// response into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "fetcher: marshal body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, header, out)
}

func (c *Client) doJSON(req *http.Request, header http.Header, out any) error {
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Set(k, v)
		}
	}

	if err := c.limiterFor(req.URL.String()).Wait(req.Context()); err != nil {
		return eris.Wrap(err, "fetcher: rate limiter wait")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection and timeout failures are always retryable.
		return resilience.NewTransientError(eris.Wrap(err, "fetcher: request"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "fetcher: read body"), resp.StatusCode)
	}

	if err := classifyStatus(resp, body); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "fetcher: decode %s", req.URL.Host)
	}
	return nil
}

// classifyStatus maps an HTTP response onto the resilience error taxonomy:
// 429 carries the Retry-After hint, 408 and 5xx are transient, all other
// 4xx are terminal.
func classifyStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return resilience.NewRateLimitError(
			eris.Errorf("fetcher: rate limited by %s: %s", resp.Request.URL.Host, truncate(body)),
			parseRetryAfter(resp.Header.Get("Retry-After")),
		)
	case code == http.StatusRequestTimeout || code >= 500:
		return resilience.NewTransientError(
			eris.Errorf("fetcher: status %d from %s: %s", code, resp.Request.URL.Host, truncate(body)), code)
	default:
		return resilience.NewClientError(
			eris.Errorf("fetcher: status %d from %s: %s", code, resp.Request.URL.Host, truncate(body)), code)
	}
}

// parseRetryAfter reads a Retry-After header in seconds form. HTTP-date form
// and garbage both yield zero (no hint).
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(body []byte) string {
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
