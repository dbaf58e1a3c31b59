package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// TransientError wraps an error that is safe to retry (5xx, 408, network
// timeout). StatusCode is zero for non-HTTP failures.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// RateLimitError marks an HTTP 429 response. RetryAfter carries the
// server-suggested wait from the Retry-After header, zero when absent.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError wraps an error as a rate limit with a suggested delay.
func NewRateLimitError(err error, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Err: err, RetryAfter: retryAfter}
}

// ClientError marks a terminal HTTP 4xx response (other than 408/429).
// Never retried.
type ClientError struct {
	Err        error
	StatusCode int
}

func (e *ClientError) Error() string {
	return e.Err.Error()
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError wraps an error as a terminal client failure.
func NewClientError(err error, statusCode int) *ClientError {
	return &ClientError{Err: err, StatusCode: statusCode}
}

// IsRetryable returns true if the error (or any error in its chain) should
// be retried: explicit transient or rate-limit markers, network timeouts,
// connection resets, DNS failures. Terminal client errors are never
// retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClientError
	if errors.As(err, &ce) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var re *RateLimitError
	if errors.As(err, &re) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRetryableHTTPStatus returns true if the HTTP status code indicates a
// failure that is safe to retry.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429: // Too Many Requests
		return true
	default:
		return statusCode >= 500 && statusCode <= 599
	}
}

// RetryAfterHint extracts a server-suggested retry delay from the error
// chain, or zero when none was provided.
func RetryAfterHint(err error) time.Duration {
	var re *RateLimitError
	if errors.As(err, &re) {
		return re.RetryAfter
	}
	return 0
}

// ErrorType buckets an error for the call counter's failure histogram.
func ErrorType(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrCircuitOpen) {
		return "circuit_open"
	}

	var re *RateLimitError
	if errors.As(err, &re) {
		return "rate_limited"
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return "client_error"
	}
	var te *TransientError
	if errors.As(err, &te) {
		if te.StatusCode >= 500 {
			return "server_error"
		}
		return "transient"
	}
	if IsRetryable(err) {
		return "transient"
	}
	return "other"
}
