package service

import (
	"fmt"
	"strings"

	"github.com/telhawk-systems/tableviews/views/internal/metrics"
)

// ValidationError rejects a request body. Pointer is a JSON pointer into
// the body, Field a coarse name used for metrics.
type ValidationError struct {
	Field   string
	Pointer string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid table view: %s: %s", e.Pointer, e.Reason)
}

func invalid(field, pointer, format string, args ...any) *ValidationError {
	metrics.ValidationFailures.WithLabelValues(field).Inc()
	return &ValidationError{Field: field, Pointer: pointer, Reason: fmt.Sprintf(format, args...)}
}

// filterPointer turns a filter error path such as children[1].parameter into
// /view/filter/children/1/parameter.
func filterPointer(path string) string {
	if path == "" {
		return "/view/filter"
	}
	r := strings.NewReplacer("[", "/", "]", "", ".", "/")
	return "/view/filter/" + r.Replace(path)
}
