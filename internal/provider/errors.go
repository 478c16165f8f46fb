package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"parsearena/internal/domain"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// KindTransient covers timeouts, rate limits, and upstream 5xx errors.
	KindTransient ErrorKind = "transient"
	// KindPermanent covers bad input the provider rejected.
	KindPermanent ErrorKind = "permanent"
	// KindAuth covers rejected or missing credentials.
	KindAuth ErrorKind = "auth"
)

// Error is a classified provider failure. It stays isolated to the one
// provider's outcome and never aborts sibling providers.
type Error struct {
	Provider   domain.ProviderID
	Kind       ErrorKind
	Err        error
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s error (retry after %s): %v", e.Provider, e.Kind, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransient wraps err as a transient provider failure.
func NewTransient(provider domain.ProviderID, err error) *Error {
	return &Error{Provider: provider, Kind: KindTransient, Err: err}
}

// NewPermanent wraps err as a permanent (bad input) provider failure.
func NewPermanent(provider domain.ProviderID, err error) *Error {
	return &Error{Provider: provider, Kind: KindPermanent, Err: err}
}

// NewAuth wraps err as an authentication failure.
func NewAuth(provider domain.ProviderID, err error) *Error {
	return &Error{Provider: provider, Kind: KindAuth, Err: err}
}

// NewRateLimit wraps a 429 as a transient failure carrying the Retry-After
// hint. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimit(provider domain.ProviderID, err error, retryAfterSecs int) *Error {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &Error{
		Provider:   provider,
		Kind:       KindTransient,
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
	}
}

// FromStatus builds a classified error from an upstream HTTP response.
func FromStatus(provider domain.ProviderID, status int, body []byte, retryAfter string) *Error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, status, string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return NewRateLimit(provider, baseErr, ParseRetryAfterHeader(retryAfter))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewAuth(provider, baseErr)
	case status == http.StatusRequestTimeout || status >= 500:
		return NewTransient(provider, baseErr)
	default:
		return NewPermanent(provider, baseErr)
	}
}

// KindOf extracts the classification of any error a provider call returned.
// Unclassified errors, including deadline and cancellation errors, count as
// transient so a flaky upstream is never misreported as bad input.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}
