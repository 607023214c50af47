package citation

import (
	"errors"
	"fmt"
)

// Common errors returned by the citation pipeline.
var (
	// ErrInvalidPattern indicates the marker pattern breaks the single-capture contract.
	ErrInvalidPattern = errors.New("invalid citation pattern")

	// ErrInvalidFormat indicates a citation format template without a {number} placeholder.
	ErrInvalidFormat = errors.New("invalid citation format")

	// ErrSpanOverlap indicates replacement plans that overlap or run out of
	// order. Grouping never produces such plans; seeing this error is a bug.
	ErrSpanOverlap = errors.New("citation spans overlap")
)

// ConfigError reports a configuration value rejected before any scanning.
type ConfigError struct {
	Field  string // e.g. "pattern", "citation_format"
	Value  string
	Reason string
	Kind   error // ErrInvalidPattern or ErrInvalidFormat
	Cause  error // underlying error, if any (e.g. from regexp)
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %s: %v", e.Field, e.Value, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsConfigError returns true if the error was caused by a rejected configuration value.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
