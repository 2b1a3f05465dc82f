// Package resource holds the static column catalogs of the tabular resources a
// view can be defined over.
package resource

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
)

// ErrUnknownPage is returned when no resource is registered for a page.
var ErrUnknownPage = errors.New("unknown page")

// Resource describes one tabular resource: its columns, the defaults a fresh
// view starts from, and how records are fetched from the node API.
type Resource struct {
	Page            string // view scope, e.g. "channel"
	Endpoint        string // node API path the records come from
	DateRange       bool   // records are fetched for a from/to range
	DefaultTitle    string
	Columns         []model.ColumnMetaData
	DefaultColumns  []string
	SortableColumns []string
	FilterTemplate  filter.Document // leaf offered when a filter row is added
	SortTemplate    model.SortBy
	DefaultSort     model.SortSpec

	// GroupAliases maps user-facing group names to record keys, e.g.
	// "peers" -> "pubKey". NoGroup is the group name meaning "one row per
	// record".
	GroupAliases map[string]string
	NoGroup      string

	// EnumOptions lists the values of array-typed columns.
	EnumOptions map[string][]string
}

// Column returns the metadata of a column.
func (r *Resource) Column(key string) (model.ColumnMetaData, bool) {
	i := slices.IndexFunc(r.Columns, func(c model.ColumnMetaData) bool { return c.Key == key })
	if i < 0 {
		return model.ColumnMetaData{}, false
	}
	return r.Columns[i], true
}

// ResolveColumns maps column keys to their current metadata, skipping keys
// the catalog no longer knows.
func (r *Resource) ResolveColumns(keys []string) []model.ColumnMetaData {
	out := make([]model.ColumnMetaData, 0, len(keys))
	for _, k := range keys {
		if c, ok := r.Column(k); ok {
			out = append(out, c)
		}
	}
	return out
}

// LockedColumns returns the keys of columns that cannot be removed from a
// view, in catalog order.
func (r *Resource) LockedColumns() []string {
	var keys []string
	for _, c := range r.Columns {
		if c.Locked {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// IsSortable reports whether a column may be used as a sort key.
func (r *Resource) IsSortable(key string) bool {
	return slices.Contains(r.SortableColumns, key)
}

// GroupKey resolves a view's groupBy value to the record key to group on. An
// empty result means no grouping.
func (r *Resource) GroupKey(groupBy string) string {
	if groupBy == "" || groupBy == r.NoGroup {
		return ""
	}
	if key, ok := r.GroupAliases[groupBy]; ok {
		return key
	}
	return groupBy
}

// FilterCategory returns the filter category matching a column's value type.
// Link columns filter as strings.
func FilterCategory(vt model.ValueType) filter.Category {
	switch vt {
	case model.ValueNumber:
		return filter.CategoryNumber
	case model.ValueBoolean:
		return filter.CategoryBoolean
	case model.ValueDate:
		return filter.CategoryDate
	case model.ValueArray:
		return filter.CategoryArray
	}
	return filter.CategoryString
}

var (
	mu       sync.RWMutex
	registry = map[string]*Resource{}
)

// Register adds or replaces a resource.
func Register(r *Resource) {
	mu.Lock()
	defer mu.Unlock()
	registry[r.Page] = r
}

// Lookup returns the resource registered for page.
func Lookup(page string) (*Resource, error) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := registry[page]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
	return r, nil
}

// Pages returns the registered page names in sorted order.
func Pages() []string {
	mu.RLock()
	defer mu.RUnlock()
	pages := make([]string, 0, len(registry))
	for p := range registry {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages
}

func init() {
	Register(Channels)
	Register(Forwards)
	Register(Invoices)
	Register(Payments)
}
