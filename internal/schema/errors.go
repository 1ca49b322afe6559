package schema

import (
	"fmt"
	"strings"
)

// ResolutionError reports a reference that cannot be expanded: either the
// pointer names no schema or the expansion would never terminate.
type ResolutionError struct {
	Ref    string
	Cycle  []string
	Reason string
}

func (e *ResolutionError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("schema reference cycle: %s", strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("cannot resolve schema %q: %s", e.Ref, e.Reason)
}

// PayloadError wraps a JSON Schema validation failure of a caller-supplied payload.
type PayloadError struct {
	Schema string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("payload does not match schema: %v", e.Err)
	}
	return fmt.Sprintf("payload does not match schema %s: %v", e.Schema, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}
