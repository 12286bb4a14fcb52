// Package validator wraps go-playground/validator/v10 with the service's
// struct-tag validation conventions. The gateway runs inbound API DTOs
// through it; OptimizationConfig and the service configuration are not
// validated here.
package validator

import (
	"fmt"
	"strings"

	playground "github.com/go-playground/validator/v10" // v10.22.1

	"github.com/fieldplan/allocator/pkg/types"
)

// CustomValidator wraps the validator package singleton so callers share one
// compiled set of struct-tag rules instead of re-parsing tags per call.
type CustomValidator struct {
	validate *playground.Validate
}

var defaultValidate *playground.Validate

// NewValidator creates a CustomValidator backed by the shared
// go-playground/validator instance.
func NewValidator() *CustomValidator {
	if defaultValidate == nil {
		defaultValidate = playground.New()
	}
	return &CustomValidator{validate: defaultValidate}
}

// Struct validates v against its `validate:"..."` struct tags, translating
// the first failure into a *types.ValidationError for consistent reporting
// at the input-validation boundary.
func (cv *CustomValidator) Struct(v interface{}) error {
	if err := cv.validate.Struct(v); err != nil {
		if fieldErrs, ok := err.(playground.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &types.ValidationError{
				Field:   fe.Namespace(),
				Message: describeTag(fe),
				Value:   fmt.Sprintf("%v", fe.Value()),
			}
		}
		return &types.ValidationError{Field: "", Message: err.Error()}
	}
	return nil
}

// describeTag renders a human-readable message for one failed validator tag.
func describeTag(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
