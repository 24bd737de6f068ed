package validate

import (
	"fmt"

	"github.com/hyperjump/triage/pkg/utils"
)

// ValidationError reports oracle output that could not be turned into any valid item.
type ValidationError struct {
	Reason string
	// Excerpt is the start of the raw output, for logs.
	Excerpt string
	Err     error
}

func newValidationError(reason, raw string, err error) *ValidationError {
	return &ValidationError{Reason: reason, Excerpt: utils.Truncate(raw, 200), Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid oracle output: %s: %v", e.Reason, e.Err)
	}
	return "invalid oracle output: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }
