package controlplane

import "fmt"

// ValidationError rejects a request before it touches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

func invalid(field, value string) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("invalid value %q", value)}
}
