package catalog

import (
	"slices"

	"github.com/google/uuid"

	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

// View is a named configuration of a resource table.
type View struct {
	// LocalID identifies the view within this client for its whole life,
	// including before the backend has assigned ID. It is never persisted.
	LocalID string
	// ID is the backend id; nil until the view has been created remotely.
	ID    *int64
	Title string
	// Saved is false while the view has local edits the backend has not
	// acknowledged.
	Saved   bool
	Columns []string // column keys into the resource catalog
	Filter  *filter.Document
	SortBy  model.SortSpec
	GroupBy string
	// Revision counts local edits.
	Revision uint64
}

// NewView returns the default view of a resource: default columns and sort,
// an empty filter, not yet persisted.
func NewView(res *resource.Resource) View {
	return View{
		LocalID: uuid.NewString(),
		Title:   res.DefaultTitle,
		Saved:   true,
		Columns: slices.Clone(res.DefaultColumns),
		Filter:  filter.Serialize(&filter.And{}),
		SortBy:  slices.Clone(res.DefaultSort),
	}
}

// Persisted reports whether the backend knows the view.
func (v View) Persisted() bool {
	return v.ID != nil
}

func (v View) clone() View {
	v.Columns = slices.Clone(v.Columns)
	v.SortBy = slices.Clone(v.SortBy)
	v.Filter = v.Filter.Clone()
	if v.ID != nil {
		id := *v.ID
		v.ID = &id
	}
	return v
}

// Document is the persisted form of a view.
type Document struct {
	Title     string                 `json:"title"`
	Columns   []model.ColumnMetaData `json:"columns"`
	Filter    *filter.Document       `json:"filter"`
	SortBy    model.SortSpec         `json:"sortBy"`
	GroupBy   *string                `json:"groupBy"`
	ViewOrder int                    `json:"view_order"`
}

// Envelope pairs a persisted view with its id and page.
type Envelope struct {
	ID   *int64   `json:"id"`
	Page string   `json:"page,omitempty"`
	View Document `json:"view"`
}

// Document renders v for persistence at position order, expanding column
// keys to the resource's current metadata.
func (v View) Document(res *resource.Resource, order int) Document {
	doc := Document{
		Title:     v.Title,
		Columns:   res.ResolveColumns(v.Columns),
		Filter:    v.Filter.Clone(),
		SortBy:    slices.Clone(v.SortBy),
		ViewOrder: order,
	}
	if doc.SortBy == nil {
		doc.SortBy = model.SortSpec{}
	}
	if v.GroupBy != "" {
		g := v.GroupBy
		doc.GroupBy = &g
	}
	return doc
}

// FromEnvelope builds a saved view from its persisted form.
func FromEnvelope(env Envelope) View {
	v := View{
		LocalID: uuid.NewString(),
		Title:   env.View.Title,
		Saved:   true,
		Filter:  env.View.Filter.Clone(),
		SortBy:  slices.Clone(env.View.SortBy),
	}
	if env.ID != nil {
		id := *env.ID
		v.ID = &id
	}
	for _, c := range env.View.Columns {
		v.Columns = append(v.Columns, c.Key)
	}
	if env.View.GroupBy != nil {
		v.GroupBy = *env.View.GroupBy
	}
	return v
}
