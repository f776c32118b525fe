package tasks

import "fmt"

// ValidationError is returned for malformed input rejected before any
// mutation happens: empty titles, oversized descriptions, non-positive
// check-in values, and the like.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
