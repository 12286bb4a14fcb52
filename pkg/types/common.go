package types

import (
	"fmt"
)

// ValidationError provides enhanced error reporting for validation failures
// across the optimizer's input-validation boundary (§7 "Input validation").
type ValidationError struct {
	Field   string // Field that failed validation
	Message string // Descriptive error message
	Value   string // Invalid value that caused the error
	Err     error  // Underlying error if any
}

// Error implements the error interface with detailed context
func (ve *ValidationError) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %s: %s (value: %s): %v",
			ve.Field, ve.Message, ve.Value, ve.Err)
	}
	return fmt.Sprintf("validation failed for %s: %s (value: %s)",
		ve.Field, ve.Message, ve.Value)
}

// Unwrap exposes the underlying error, if any, for errors.Is/As.
func (ve *ValidationError) Unwrap() error {
	return ve.Err
}
