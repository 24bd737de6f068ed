package models

import "fmt"

// ConfigurationError reports bad caller input or configuration (unknown timezone,
// missing required context). It is surfaced to the caller and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// PersistenceError reports a storage write failure for one item or suggestion.
type PersistenceError struct {
	Op    string
	Index int
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s #%d: %v", e.Op, e.Index, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
