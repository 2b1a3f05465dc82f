// Package transform turns raw resource records into the rows a view shows:
// grouping first, then filtering, then a stable multi-key sort.
package transform

import (
	"time"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

// Params are the resolved inputs of the pipeline.
type Params struct {
	GroupBy string // record key; empty disables grouping
	Filter  filter.Clause
	SortBy  model.SortSpec
}

// Result is the output of Run.
type Result struct {
	Records  []model.Record
	Warnings []error // *filter.MalformedFilterError, *filter.UnknownComparatorError
}

// Option configures a pipeline run.
type Option func(*options)

type options struct {
	registry *filter.Registry
	now      func() time.Time
}

// WithRegistry evaluates filters against a custom comparator registry.
func WithRegistry(r *filter.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithClock fixes the instant relative date filters are resolved against.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{registry: filter.Default, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Apply groups, filters and sorts records. Neither records nor their maps are
// modified; grouped rows are new maps.
//
// Filtering runs on grouped rows, so a filter on a summed column selects
// groups by their totals.
func Apply(records []model.Record, p Params, opts ...Option) []model.Record {
	o := buildOptions(opts)

	rows := records
	if p.GroupBy != "" {
		rows = Group(rows, p.GroupBy)
	}

	if p.Filter != nil {
		match := filter.NewEvaluator(o.registry, filter.WithClock(o.now)).Matcher(p.Filter)
		kept := make([]model.Record, 0, len(rows))
		for _, r := range rows {
			if match(r) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	return Sort(rows, p.SortBy)
}

// Run applies view v of resource res to records. A filter that cannot be
// decoded is ignored and reported as a warning, as are leaves naming unknown
// comparators (which match nothing).
func Run(records []model.Record, v catalog.View, res *resource.Resource, opts ...Option) Result {
	o := buildOptions(opts)

	p := Params{SortBy: v.SortBy, GroupBy: v.GroupBy}
	if res != nil {
		p.GroupBy = res.GroupKey(v.GroupBy)
	}

	var warnings []error
	if v.Filter != nil {
		c, err := filter.NewCodec(o.registry).Deserialize(v.Filter)
		if err != nil {
			warnings = append(warnings, err)
		} else {
			p.Filter = c
			warnings = append(warnings, filter.NewEvaluator(o.registry).Check(c)...)
		}
	}

	return Result{Records: Apply(records, p, opts...), Warnings: warnings}
}
