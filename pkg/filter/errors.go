package filter

import (
	"errors"
	"fmt"
)

// Tree mutation errors.
var (
	ErrNilClause      = errors.New("clause is nil")
	ErrCycle          = errors.New("clause would contain itself")
	ErrChildNotFound  = errors.New("child not found")
	ErrDuplicateChild = errors.New("duplicate child id")
)

// MalformedFilterError reports a filter document or leaf that cannot be turned
// into a predicate tree. Callers usually fall back to "no filter".
type MalformedFilterError struct {
	Path   string // location in the document, e.g. "children[1].parameter"
	Reason string
}

func (e *MalformedFilterError) Error() string {
	if e.Path == "" {
		return "malformed filter: " + e.Reason
	}
	return fmt.Sprintf("malformed filter at %s: %s", e.Path, e.Reason)
}

func malformed(path, format string, args ...any) *MalformedFilterError {
	return &MalformedFilterError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// UnknownComparatorError reports a leaf that names a comparator the registry
// does not know. Such leaves evaluate to false.
type UnknownComparatorError struct {
	Category Category
	FuncName string
	Key      string // leaf key, empty when the lookup was not made for a leaf
}

func (e *UnknownComparatorError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("unknown comparator %q for category %q", e.FuncName, e.Category)
	}
	return fmt.Sprintf("unknown comparator %q for category %q on key %q", e.FuncName, e.Category, e.Key)
}
