package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange  = errors.New("view index out of range")
	ErrViewNotFound     = errors.New("view not found")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrLockedColumn     = errors.New("locked column cannot be removed")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrNotSortable      = errors.New("column is not sortable")
	ErrEmptyTitle       = errors.New("view title is empty")
	ErrInvalidOrder     = errors.New("order is not a permutation of the catalog")
	ErrMutationInFlight = errors.New("another request for this view is in flight")
)

// Op names a backend request.
type Op string

const (
	OpList    Op = "list"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReorder Op = "reorder"
)

// BackendRequestError reports a failed backend call. The catalog is left as
// it was before the call.
type BackendRequestError struct {
	Op      Op
	LocalID string
	Err     error
}

func (e *BackendRequestError) Error() string {
	return fmt.Sprintf("%s view request failed: %v", e.Op, e.Err)
}

func (e *BackendRequestError) Unwrap() error {
	return e.Err
}

// InvalidCatalogStateError reports a catalog that is empty or whose selection
// is out of range.
type InvalidCatalogStateError struct {
	Reason string
}

func (e *InvalidCatalogStateError) Error() string {
	return "invalid catalog state: " + e.Reason
}
