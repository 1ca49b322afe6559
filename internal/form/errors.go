package form

import "fmt"

// FieldValidationError reports a value that does not fit its field: a type
// mismatch, a value outside the enum, or a missing required value.
type FieldValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}
