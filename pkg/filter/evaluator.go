package filter

import (
	"time"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

// Evaluator applies predicate trees to records using a registry. It holds no
// mutable state and is safe for concurrent use.
type Evaluator struct {
	registry *Registry
	now      func() time.Time
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock overrides the clock used to resolve relative date parameters.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator returns an evaluator backed by reg (Default when nil).
func NewEvaluator(reg *Registry, opts ...EvaluatorOption) *Evaluator {
	if reg == nil {
		reg = Default
	}
	e := &Evaluator{registry: reg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = NewEvaluator(Default)

// Evaluate reports whether rec satisfies c using the default registry. A nil
// clause matches every record.
func Evaluate(c Clause, rec model.Record) bool {
	return defaultEvaluator.Evaluate(c, rec)
}

// Evaluate reports whether rec satisfies c.
func (e *Evaluator) Evaluate(c Clause, rec model.Record) bool {
	return e.eval(c, rec, e.now())
}

// Matcher binds c to a single evaluation instant, so every record of a
// dataset is judged against the same relative date bounds.
func (e *Evaluator) Matcher(c Clause) func(model.Record) bool {
	now := e.now()
	return func(rec model.Record) bool {
		return e.eval(c, rec, now)
	}
}

// Check returns an *UnknownComparatorError for every leaf of c whose
// comparator is not registered.
func (e *Evaluator) Check(c Clause) []error {
	var errs []error
	Walk(c, func(n Clause) bool {
		if l, ok := n.(*Leaf); ok {
			if _, err := e.registry.Lookup(l.Category, l.FuncName); err != nil {
				errs = append(errs, &UnknownComparatorError{Category: l.Category, FuncName: l.FuncName, Key: l.Key})
			}
		}
		return true
	})
	return errs
}

func (e *Evaluator) eval(c Clause, rec model.Record, now time.Time) bool {
	if isNil(c) {
		return true
	}
	switch n := c.(type) {
	case *Leaf:
		return e.leaf(n, rec, now)
	case *And:
		for _, child := range n.children {
			if !e.eval(child.Clause, rec, now) {
				return false
			}
		}
		return true
	case *Or:
		for _, child := range n.children {
			if e.eval(child.Clause, rec, now) {
				return true
			}
		}
		return false
	}
	return false
}

func (e *Evaluator) leaf(l *Leaf, rec model.Record, now time.Time) (matched bool) {
	// a panicking custom comparator counts as a non-match
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	cmp, err := e.registry.Lookup(l.Category, l.FuncName)
	if err != nil {
		return false
	}
	param := l.Parameter
	if r, ok := param.(Resolver); ok {
		param = r.Resolve(now)
	}
	return cmp(rec[l.Key], param)
}
