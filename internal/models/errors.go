package models

import (
	"errors"
	"fmt"
)

// ProviderError is the typed failure surface between adapters and the
// fallback orchestrator. Transient failures (timeouts, 429, 5xx) are retried
// inside the adapter before surfacing; permanent failures (bad auth,
// malformed payloads) skip straight to the next adapter in priority order.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Transient  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status: %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewTransientError builds a retryable provider failure.
func NewTransientError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Message: message, Transient: true, Err: err}
}

// NewPermanentError builds a non-retryable provider failure.
func NewPermanentError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Message: message, Transient: false, Err: err}
}

// IsTransient reports whether err is a retryable provider failure.
// Unknown error types (network-level failures wrapped by net/http) are
// treated as transient: retrying a timeout is cheap, retrying bad auth is not.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return true
}

// AsProviderError extracts the ProviderError from an error chain, or wraps
// an arbitrary error as a transient failure attributed to provider.
func AsProviderError(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return NewTransientError(provider, 0, err.Error(), err)
}

// RetryableStatus reports whether an HTTP status code indicates a condition
// worth retrying: rate limiting or upstream server trouble.
func RetryableStatus(status int) bool {
	return status == 429 || status >= 500
}
