package filter

import (
	"errors"
	"slices"
	"sync"
)

// Comparator decides whether a field value satisfies a parameter. field is
// nil when the record lacks the key. Comparators must not panic on values of
// an unexpected type.
type Comparator func(field, param any) bool

// Normalizer converts a raw leaf parameter (as written by hand or decoded
// from JSON) into the canonical form the category's comparators expect.
type Normalizer func(param any) (any, error)

// Registry maps (category, funcName) to comparators. It is the only place new
// categories or operators are added; trees and codecs consult it by name.
type Registry struct {
	mu          sync.RWMutex
	comparators map[Category]map[string]Comparator
	normalizers map[Category]Normalizer
}

// Default is the shared registry holding the builtin comparators.
var Default = DefaultRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		comparators: make(map[Category]map[string]Comparator),
		normalizers: make(map[Category]Normalizer),
	}
}

// DefaultRegistry returns a new registry populated with the builtin
// categories. Callers may extend it without affecting Default.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// RegisterCategory declares a category and its parameter normalizer. A nil
// normalizer accepts parameters unchanged.
func (r *Registry) RegisterCategory(category Category, n Normalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n == nil {
		n = func(p any) (any, error) { return p, nil }
	}
	r.normalizers[category] = n
	if r.comparators[category] == nil {
		r.comparators[category] = make(map[string]Comparator)
	}
}

// Register adds or replaces a comparator. The category is declared with a
// pass-through normalizer if it is not known yet.
func (r *Registry) Register(category Category, funcName string, cmp Comparator) {
	if !r.HasCategory(category) {
		r.RegisterCategory(category, nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comparators[category][funcName] = cmp
}

// Lookup returns the comparator for (category, funcName).
func (r *Registry) Lookup(category Category, funcName string) (Comparator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmp, ok := r.comparators[category][funcName]
	if !ok {
		return nil, &UnknownComparatorError{Category: category, FuncName: funcName}
	}
	return cmp, nil
}

// HasCategory reports whether the category has been declared.
func (r *Registry) HasCategory(category Category) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.normalizers[category]
	return ok
}

// Normalize converts param into the canonical form for category.
func (r *Registry) Normalize(category Category, param any) (any, error) {
	r.mu.RLock()
	n, ok := r.normalizers[category]
	r.mu.RUnlock()
	if !ok {
		return nil, malformed("", "unknown category %q", category)
	}
	return n(param)
}

// Categories returns the declared categories in sorted order.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.normalizers))
	for c := range r.normalizers {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Funcs returns the comparator names of a category in sorted order.
func (r *Registry) Funcs(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.comparators[category]))
	for name := range r.comparators[category] {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// NewLeaf builds a leaf after normalising its parameter. The comparator does
// not need to be registered; unknown comparators are reported by
// Evaluator.Check instead.
func (r *Registry) NewLeaf(key string, category Category, funcName string, parameter any) (*Leaf, error) {
	if key == "" {
		return nil, malformed("key", "leaf key is empty")
	}
	if funcName == "" {
		return nil, malformed("funcName", "leaf funcName is empty")
	}
	p, err := r.Normalize(category, parameter)
	if err != nil {
		var mf *MalformedFilterError
		if errors.As(err, &mf) {
			return nil, err
		}
		return nil, malformed("parameter", "%v", err)
	}
	return &Leaf{Key: key, Category: category, FuncName: funcName, Parameter: p}, nil
}
