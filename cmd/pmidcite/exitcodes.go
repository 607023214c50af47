package main

import (
	"errors"

	"github.com/mfujita47/pmidcite/internal/cache"
	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/config"
	"github.com/mfujita47/pmidcite/internal/document"
	"github.com/mfujita47/pmidcite/internal/pubmed"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad pattern, template, backend)
	ExitDataError   = 3 // Data error (unreadable input, unwritable output)
	ExitLookupError = 4 // One or more PMIDs could not be retrieved
)

// exitCodeFor maps an error to the exit code reported for it.
func exitCodeFor(err error) int {
	var lookupErr *pubmed.LookupError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, cache.ErrUnknownBackend),
		citation.IsConfigError(err):
		return ExitConfigError
	case errors.Is(err, document.ErrReadInput),
		errors.Is(err, document.ErrWriteOutput):
		return ExitDataError
	case errors.As(err, &lookupErr),
		errors.Is(err, pubmed.ErrNotFound),
		errors.Is(err, pubmed.ErrNetworkError),
		errors.Is(err, pubmed.ErrInvalidResponse),
		pubmed.IsRateLimited(err):
		return ExitLookupError
	default:
		return ExitError
	}
}
