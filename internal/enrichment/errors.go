package enrichment

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies provider failures so callers can decide whether to
// reconfigure, re-authenticate, wait, or retry.
type ErrorKind string

const (
	KindConfiguration   ErrorKind = "configuration"
	KindAuthentication  ErrorKind = "authentication"
	KindForbidden       ErrorKind = "forbidden"
	KindRateLimited     ErrorKind = "rate_limited"
	KindTransientServer ErrorKind = "transient_server"
	KindTransport       ErrorKind = "transport"
	KindEmptyResponse   ErrorKind = "empty_response"
	KindNotFound        ErrorKind = "not_found"
)

// ProviderError is the typed error every provider returns for expected
// failure modes. Router and service propagate it unchanged.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("enrichment: %s: %s (kind=%s status=%d)", e.Provider, msg, e.Kind, e.Status)
	}
	return fmt.Sprintf("enrichment: %s: %s (kind=%s)", e.Provider, msg, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind via the sentinel helpers below.
func (e *ProviderError) Is(target error) bool {
	var pe *ProviderError
	if errors.As(target, &pe) {
		return pe.Kind == e.Kind && (pe.Provider == "" || pe.Provider == e.Provider)
	}
	return false
}

func newError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// KindOf extracts the kind from err, or empty when err is not a ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRateLimited reports whether err is a rate-limit failure from any provider.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// errorFromStatus maps an HTTP response status onto the shared taxonomy.
// retryAfter is the raw Retry-After header value, may be empty.
func errorFromStatus(provider string, status int, body string, retryAfter string) *ProviderError {
	pe := &ProviderError{Provider: provider, Status: status, Err: fmt.Errorf("http %d: %s", status, truncate(body, 200))}
	switch {
	case status == http.StatusUnauthorized:
		pe.Kind = KindAuthentication
	case status == http.StatusForbidden:
		pe.Kind = KindForbidden
	case status == http.StatusTooManyRequests:
		pe.Kind = KindRateLimited
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			pe.RetryAfter = time.Duration(secs) * time.Second
		}
	case status >= 500:
		pe.Kind = KindTransientServer
	case status == http.StatusNotFound:
		pe.Kind = KindNotFound
	default:
		pe.Kind = KindTransientServer
	}
	return pe
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
