package catalog

import "fmt"

// OperationNotFoundError reports an operation id absent from the catalog.
type OperationNotFoundError struct {
	ID string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("no such operation: %s", e.ID)
}
