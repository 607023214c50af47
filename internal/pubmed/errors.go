package pubmed

import (
	"errors"
	"fmt"
)

// Common errors returned by the PubMed client.
var (
	// ErrNotFound indicates the PMID is unknown to PubMed.
	ErrNotFound = errors.New("not found in PubMed")

	// ErrRateLimited indicates the E-utilities rate limit has been exceeded.
	ErrRateLimited = errors.New("PubMed rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with PubMed")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from PubMed")
)

// APIError represents an HTTP error from the E-utilities API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("PubMed API error (status %d): %s", e.StatusCode, e.Message)
}

// LookupError reports why a single PMID could not be summarized.
type LookupError struct {
	PMID   string
	Reason string // e.g. "Not found in API response", or the API's per-entry error
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("PMID %s: %s", e.PMID, e.Reason)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a PMID was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsTemporary returns true for failures worth retrying: rate limiting,
// network errors and server-side (5xx) errors.
func IsTemporary(err error) bool {
	if IsRateLimited(err) || errors.Is(err, ErrNetworkError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
