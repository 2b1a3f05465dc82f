// Package catalog manages the ordered set of views of one resource page: the
// selected view, per-view dirty flags, and the pending order change.
//
// A Catalog is an immutable value. Every transition returns a new Catalog and
// leaves its receiver untouched, so a failed backend call can simply keep the
// previous value. Store holds the current value for a session; Manager drives
// the backend round-trips.
package catalog

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

// Catalog is the ordered collection of views of one resource and the current
// selection. It is never empty and its selection is always in range.
type Catalog struct {
	resource   *resource.Resource
	views      []View
	selected   int
	orderDirty bool
	orderRev   uint64
}

// New returns a catalog over views, selecting the first. With no views the
// resource's default view is synthesised.
func New(res *resource.Resource, views ...View) Catalog {
	c := Catalog{resource: res}
	for _, v := range views {
		c.views = append(c.views, withLocalID(v.clone()))
	}
	return c.Normalize()
}

func withLocalID(v View) View {
	if v.LocalID == "" {
		v.LocalID = uuid.NewString()
	}
	return v
}

// Resource returns the resource the catalog belongs to.
func (c Catalog) Resource() *resource.Resource { return c.resource }

// Len returns the number of views.
func (c Catalog) Len() int { return len(c.views) }

// Selected returns the index of the selected view.
func (c Catalog) Selected() int { return c.selected }

// OrderDirty reports whether the view order changed since it was last saved.
func (c Catalog) OrderDirty() bool { return c.orderDirty }

// Current returns the selected view.
func (c Catalog) Current() View {
	return c.views[c.selected].clone()
}

// Views returns copies of the views in catalog order.
func (c Catalog) Views() []View {
	out := make([]View, len(c.views))
	for i, v := range c.views {
		out[i] = v.clone()
	}
	return out
}

// Index returns the position of the view with the given local id.
func (c Catalog) Index(localID string) (int, bool) {
	i := slices.IndexFunc(c.views, func(v View) bool { return v.LocalID == localID })
	return i, i >= 0
}

// View returns the view with the given local id.
func (c Catalog) View(localID string) (View, bool) {
	i, ok := c.Index(localID)
	if !ok {
		return View{}, false
	}
	return c.views[i].clone(), true
}

// IndexByID returns the position of the view with the given backend id.
func (c Catalog) IndexByID(id int64) (int, bool) {
	i := slices.IndexFunc(c.views, func(v View) bool { return v.ID != nil && *v.ID == id })
	return i, i >= 0
}

func (c Catalog) clone() Catalog {
	c.views = slices.Clone(c.views)
	return c
}

// SelectView makes the view at index the current one.
func (c Catalog) SelectView(index int) (Catalog, error) {
	if index < 0 || index >= len(c.views) {
		return c, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	next := c.clone()
	next.selected = index
	return next, nil
}

func (c Catalog) editCurrent(fn func(v *View)) Catalog {
	next := c.clone()
	v := next.views[next.selected].clone()
	fn(&v)
	v.Saved = false
	v.Revision++
	next.views[next.selected] = v
	return next
}

// UpdateFilter replaces the selected view's filter with a copy of doc. A nil
// document clears it. Documents that do not decode are rejected.
func (c Catalog) UpdateFilter(doc *filter.Document) (Catalog, error) {
	if _, err := filter.Deserialize(doc); err != nil {
		return c, err
	}
	doc = doc.Clone()
	return c.editCurrent(func(v *View) { v.Filter = doc }), nil
}

// UpdateColumns replaces the selected view's columns. Every key must exist in
// the resource and every locked column must be kept.
func (c Catalog) UpdateColumns(keys []string) (Catalog, error) {
	for _, k := range keys {
		if _, ok := c.resource.Column(k); !ok {
			return c, fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
	}
	for _, k := range c.resource.LockedColumns() {
		if !slices.Contains(keys, k) {
			return c, fmt.Errorf("%w: %q", ErrLockedColumn, k)
		}
	}
	return c.editCurrent(func(v *View) { v.Columns = slices.Clone(keys) }), nil
}

// UpdateSortBy replaces the selected view's sort spec.
func (c Catalog) UpdateSortBy(spec model.SortSpec) (Catalog, error) {
	for _, s := range spec {
		if !s.Direction.Valid() {
			return c, fmt.Errorf("%w: %q", ErrInvalidDirection, s.Direction)
		}
		if len(c.resource.SortableColumns) > 0 && !c.resource.IsSortable(s.Key) {
			return c, fmt.Errorf("%w: %q", ErrNotSortable, s.Key)
		}
	}
	return c.editCurrent(func(v *View) { v.SortBy = slices.Clone(spec) }), nil
}

// UpdateGroupBy sets the selected view's grouping. An empty key removes it.
func (c Catalog) UpdateGroupBy(key string) Catalog {
	return c.editCurrent(func(v *View) { v.GroupBy = key })
}

// UpdateTitle renames the selected view.
func (c Catalog) UpdateTitle(title string) (Catalog, error) {
	if title == "" {
		return c, ErrEmptyTitle
	}
	return c.editCurrent(func(v *View) { v.Title = title }), nil
}

// AddView appends v and selects it.
func (c Catalog) AddView(v View) Catalog {
	next := c.clone()
	next.views = append(next.views, withLocalID(v.clone()))
	next.selected = len(next.views) - 1
	return next
}

// ReorderViews arranges the views in the order of the given local ids, which
// must name every view exactly once. The selection follows the selected view.
// The new order must be saved separately.
func (c Catalog) ReorderViews(order []string) (Catalog, error) {
	if len(order) != len(c.views) {
		return c, ErrInvalidOrder
	}
	current := c.views[c.selected].LocalID
	next := c.clone()
	seen := make(map[string]bool, len(order))
	for i, id := range order {
		j, ok := c.Index(id)
		if !ok || seen[id] {
			return c, ErrInvalidOrder
		}
		seen[id] = true
		next.views[i] = c.views[j]
		if id == current {
			next.selected = i
		}
	}
	next.orderDirty = true
	next.orderRev++
	return next, nil
}

// Hydrate replaces all views with views loaded from the backend and selects
// the first.
func (c Catalog) Hydrate(views []View) Catalog {
	next := New(c.resource, views...)
	next.orderRev = c.orderRev
	return next
}

// Validate checks the catalog invariants.
func (c Catalog) Validate() error {
	switch {
	case c.resource == nil:
		return &InvalidCatalogStateError{Reason: "no resource"}
	case len(c.views) == 0:
		return &InvalidCatalogStateError{Reason: "no views"}
	case c.selected < 0 || c.selected >= len(c.views):
		return &InvalidCatalogStateError{Reason: fmt.Sprintf("selected index %d outside [0,%d)", c.selected, len(c.views))}
	}
	return nil
}

// Normalize restores the invariants: an empty catalog gets the default view
// and the selection is clamped into range.
func (c Catalog) Normalize() Catalog {
	next := c.clone()
	if len(next.views) == 0 && next.resource != nil {
		next.views = []View{NewView(next.resource)}
	}
	next.selected = max(0, min(next.selected, len(next.views)-1))
	return next
}

// markCreated records the id the backend assigned to a new view and selects
// it. The view stays dirty if it was edited after the request was sent.
func (c Catalog) markCreated(localID string, id int64, rev uint64) (Catalog, error) {
	i, ok := c.Index(localID)
	if !ok {
		return c, ErrViewNotFound
	}
	next := c.clone()
	v := next.views[i].clone()
	v.ID = &id
	v.Saved = v.Revision == rev
	next.views[i] = v
	next.selected = i
	return next, nil
}

// markSaved flags a view as saved unless it was edited after the request was
// sent.
func (c Catalog) markSaved(localID string, rev uint64) (Catalog, error) {
	i, ok := c.Index(localID)
	if !ok {
		return c, ErrViewNotFound
	}
	next := c.clone()
	next.views[i].Saved = next.views[i].Revision == rev
	return next, nil
}

// removeView deletes a view and selects the first one.
func (c Catalog) removeView(localID string) (Catalog, error) {
	i, ok := c.Index(localID)
	if !ok {
		return c, ErrViewNotFound
	}
	next := c.clone()
	next.views = slices.Delete(next.views, i, i+1)
	next.selected = 0
	return next.Normalize(), nil
}

func (c Catalog) markOrderSaved(rev uint64) Catalog {
	next := c.clone()
	if next.orderRev == rev {
		next.orderDirty = false
	}
	return next
}
