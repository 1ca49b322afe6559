package patch

import "fmt"

// MalformedArgumentError reports a shorthand patch flag that is not a
// key:value pair, or an entry missing its path.
type MalformedArgumentError struct {
	Flag     string
	Argument string
	Reason   string
}

func (e *MalformedArgumentError) Error() string {
	if e.Flag == "" {
		return fmt.Sprintf("malformed patch entry %q: %s", e.Argument, e.Reason)
	}
	return fmt.Sprintf("malformed %s argument %q: %s", e.Flag, e.Argument, e.Reason)
}

type InvalidOpError struct {
	Op string
}

func (e *InvalidOpError) Error() string {
	return fmt.Sprintf("invalid patch operation %q: must be one of add, replace, remove, move, copy, test", e.Op)
}
