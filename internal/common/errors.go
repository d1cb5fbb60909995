package common

import (
	"errors"
	"fmt"
)

// ErrInputNotFound indicates a required upstream artifact is absent.
// Fatal for the run: the pipeline aborts before any output is written.
var ErrInputNotFound = errors.New("required input artifact not found")

// ValidationError indicates a structurally malformed document.
// Fatal for that document's processing, surfaced to the caller.
type ValidationError struct {
	Document string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document '%s' failed validation: %s", e.Document, e.Reason)
}

// ConfigurationError indicates invalid configuration (weights not summing
// to 1, thresholds out of range). Fails fast at construction, before any
// external calls are made.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for '%s': %s", e.Field, e.Reason)
}

// ExternalServiceError indicates an embedding, vector, or LLM call failed
// after retries. Recoverable: scoped to the single entity/objective affected,
// which is recorded as a zero-score with the reason attached.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service '%s' failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
