package restclient

import (
	"fmt"
	"strings"

	validatorErrors "github.com/pb33f/libopenapi-validator/errors"
)

// ValidationError wraps libopenapi-validator errors for a request that does
// not match the API document. The request is not sent.
type ValidationError struct {
	Operation string
	Errors    []*validatorErrors.ValidationError
}

func (e *ValidationError) Error() string {
	details := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msg := ve.Message
		if ve.Reason != "" {
			msg += " (" + ve.Reason + ")"
		}
		details = append(details, msg)
	}
	return fmt.Sprintf("request for %s does not match the API document: %s", e.Operation, strings.Join(details, "; "))
}

// Details renders the validation errors with their suggested fixes.
func (e *ValidationError) Details() []map[string]any {
	var result []map[string]any
	for _, ve := range e.Errors {
		item := map[string]any{
			"message": ve.Message,
		}
		if ve.Reason != "" {
			item["reason"] = ve.Reason
		}
		if ve.HowToFix != "" {
			item["howToFix"] = ve.HowToFix
		}
		result = append(result, item)
	}
	return result
}
