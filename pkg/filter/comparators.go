package filter

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Builtin comparator names
const (
	FuncEq       = "eq"
	FuncNeq      = "neq"
	FuncGt       = "gt"
	FuncGte      = "gte"
	FuncLt       = "lt"
	FuncLte      = "lte"
	FuncLike     = "like"
	FuncIncludes = "includes"
	FuncExcludes = "excludes"
)

func registerBuiltins(r *Registry) {
	r.RegisterCategory(CategoryNumber, normalizeNumber)
	r.Register(CategoryNumber, FuncEq, numberCmp(func(a, b float64) bool { return a == b }, false))
	r.Register(CategoryNumber, FuncNeq, numberCmp(func(a, b float64) bool { return a != b }, true))
	r.Register(CategoryNumber, FuncGt, numberCmp(func(a, b float64) bool { return a > b }, false))
	r.Register(CategoryNumber, FuncGte, numberCmp(func(a, b float64) bool { return a >= b }, false))
	r.Register(CategoryNumber, FuncLt, numberCmp(func(a, b float64) bool { return a < b }, false))
	r.Register(CategoryNumber, FuncLte, numberCmp(func(a, b float64) bool { return a <= b }, false))

	r.RegisterCategory(CategoryString, normalizeString)
	r.Register(CategoryString, FuncEq, stringCmp(func(a, b string) bool { return a == b }, false))
	r.Register(CategoryString, FuncNeq, stringCmp(func(a, b string) bool { return a != b }, true))
	r.Register(CategoryString, FuncLike, stringCmp(func(a, b string) bool {
		return strings.Contains(strings.ToLower(a), strings.ToLower(b))
	}, false))
	r.Register(CategoryString, FuncIncludes, func(field, param any) bool {
		p, ok := toString(param)
		if !ok || field == nil {
			return false
		}
		return slices.Contains(toSet(field), strings.TrimSpace(p))
	})

	r.RegisterCategory(CategoryBoolean, normalizeBoolean)
	r.Register(CategoryBoolean, FuncEq, boolCmp(func(a, b bool) bool { return a == b }, false))
	r.Register(CategoryBoolean, FuncNeq, boolCmp(func(a, b bool) bool { return a != b }, true))

	r.RegisterCategory(CategoryDate, normalizeDate)
	r.Register(CategoryDate, FuncEq, dateCmp(func(a, b time.Time) bool { return a.Equal(b) }, false))
	r.Register(CategoryDate, FuncNeq, dateCmp(func(a, b time.Time) bool { return !a.Equal(b) }, true))
	r.Register(CategoryDate, FuncGt, dateCmp(func(a, b time.Time) bool { return a.After(b) }, false))
	r.Register(CategoryDate, FuncGte, dateCmp(func(a, b time.Time) bool { return !a.Before(b) }, false))
	r.Register(CategoryDate, FuncLt, dateCmp(func(a, b time.Time) bool { return a.Before(b) }, false))
	r.Register(CategoryDate, FuncLte, dateCmp(func(a, b time.Time) bool { return !a.After(b) }, false))

	r.RegisterCategory(CategoryArray, normalizeArray)
	r.Register(CategoryArray, FuncIncludes, arrayIncludes)
	r.Register(CategoryArray, FuncExcludes, func(field, param any) bool {
		return !arrayIncludes(field, param)
	})
}

// numberCmp builds a numeric comparator. missing is the result when the
// field is absent, NaN or not numeric.
func numberCmp(op func(a, b float64) bool, missing bool) Comparator {
	return func(field, param any) bool {
		a, ok := toNumber(field)
		if !ok {
			return missing
		}
		b, ok := toNumber(param)
		if !ok {
			return false
		}
		return op(a, b)
	}
}

func stringCmp(op func(a, b string) bool, missing bool) Comparator {
	return func(field, param any) bool {
		a, ok := toString(field)
		if !ok {
			return missing
		}
		b, ok := toString(param)
		if !ok {
			return false
		}
		return op(a, b)
	}
}

func boolCmp(op func(a, b bool) bool, missing bool) Comparator {
	return func(field, param any) bool {
		a, ok := toBool(field)
		if !ok {
			return missing
		}
		b, ok := toBool(param)
		if !ok {
			return false
		}
		return op(a, b)
	}
}

func dateCmp(op func(a, b time.Time) bool, missing bool) Comparator {
	return func(field, param any) bool {
		a, ok := toTime(field)
		if !ok {
			return missing
		}
		b, ok := toTime(param)
		if !ok {
			return false
		}
		return op(a, b)
	}
}

// arrayIncludes treats the field as a set and reports whether any member of
// param belongs to it.
func arrayIncludes(field, param any) bool {
	if field == nil {
		return false
	}
	set := toSet(field)
	for _, p := range toSet(param) {
		if slices.Contains(set, p) {
			return true
		}
	}
	return false
}

func toNumber(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func toString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	return s, err == nil
}

func toBool(v any) (bool, bool) {
	if v == nil {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	return b, err == nil
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t.UTC(), !t.IsZero()
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, false
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// toSet flattens a list, a comma-delimited string or a scalar into trimmed
// string members.
func toSet(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			out = append(out, strings.TrimSpace(s))
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := toString(e); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	if s, ok := toString(v); ok {
		return []string{s}
	}
	return nil
}

var errMissingParameter = errors.New("parameter is required")

func normalizeNumber(p any) (any, error) {
	if p == nil {
		return nil, errMissingParameter
	}
	f, ok := toNumber(p)
	if !ok {
		return nil, fmt.Errorf("expected a number, got %T", p)
	}
	return f, nil
}

func normalizeString(p any) (any, error) {
	switch p.(type) {
	case nil:
		return nil, errMissingParameter
	case []any, []string, map[string]any:
		return nil, fmt.Errorf("expected a string, got %T", p)
	}
	s, ok := toString(p)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", p)
	}
	return s, nil
}

func normalizeBoolean(p any) (any, error) {
	if p == nil {
		return nil, errMissingParameter
	}
	b, ok := toBool(p)
	if !ok {
		return nil, fmt.Errorf("expected a boolean, got %T", p)
	}
	return b, nil
}

func normalizeDate(p any) (any, error) {
	switch t := p.(type) {
	case nil:
		return nil, errMissingParameter
	case RelativeDate:
		return t, nil
	case *RelativeDate:
		if t == nil {
			return nil, errMissingParameter
		}
		return *t, nil
	case map[string]any:
		last, ok := t["last"].(string)
		if !ok {
			return nil, errors.New(`relative date must be {"last":"<n>(m|h|d)"}`)
		}
		return ParseRelativeDate(last)
	case bool, []any, []string:
		return nil, fmt.Errorf("expected a date, got %T", p)
	}
	ts, ok := toTime(p)
	if !ok {
		return nil, fmt.Errorf("expected a date, got %v", p)
	}
	return ts, nil
}

func normalizeArray(p any) (any, error) {
	switch p.(type) {
	case nil:
		return nil, errMissingParameter
	case map[string]any:
		return nil, fmt.Errorf("expected a list, got %T", p)
	case string:
		// a scalar string is one member, never split
		return []string{strings.TrimSpace(p.(string))}, nil
	}
	set := toSet(p)
	if set == nil {
		return nil, fmt.Errorf("expected a list, got %T", p)
	}
	return set, nil
}
