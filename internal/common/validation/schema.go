// internal/common/validation/schema.go
package validation

import (
	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r *ValidationResult) ErrorSummary() string {
	if r.Valid || len(r.Errors) == 0 {
		return ""
	}
	summary := r.Errors[0].Field + ": " + r.Errors[0].Message
	for _, e := range r.Errors[1:] {
		summary += "; " + e.Field + ": " + e.Message
	}
	return summary
}

// ValidateDocument validates doc against a JSON schema document. A schema
// that fails to compile is reported as a single validation error rather
// than a hard failure, so a bad registry file degrades to rejected
// payloads instead of a crash.
func ValidateDocument(doc map[string]interface{}, schema map[string]interface{}) *ValidationResult {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	docLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "(schema)", Message: err.Error()},
			},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}

	return &ValidationResult{Valid: false, Errors: errs}
}
