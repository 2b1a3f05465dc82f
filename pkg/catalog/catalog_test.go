package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

func int64Ptr(v int64) *int64 { return &v }

func savedView(id int64, title string) View {
	return View{
		ID:      int64Ptr(id),
		Title:   title,
		Saved:   true,
		Columns: []string{"peerAlias", "capacity"},
	}
}

func threeViews() Catalog {
	return New(resource.Channels, savedView(1, "A"), savedView(2, "B"), savedView(3, "C"))
}

func titles(c Catalog) []string {
	var out []string
	for _, v := range c.Views() {
		out = append(out, v.Title)
	}
	return out
}

func TestNewSynthesisesDefaultView(t *testing.T) {
	c := New(resource.Channels)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Selected())

	v := c.Current()
	assert.Nil(t, v.ID)
	assert.True(t, v.Saved)
	assert.Equal(t, resource.Channels.DefaultTitle, v.Title)
	assert.Equal(t, resource.Channels.DefaultColumns, v.Columns)
	assert.NotEmpty(t, v.LocalID)
	require.NotNil(t, v.Filter)
	assert.Equal(t, filter.TypeAnd, v.Filter.Type)
}

func TestSelectView(t *testing.T) {
	c := threeViews()
	next, err := c.SelectView(2)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Selected())
	assert.Equal(t, 0, c.Selected(), "receiver is unchanged")

	_, err = c.SelectView(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = c.SelectView(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEditsMarkSelectedViewDirty(t *testing.T) {
	leaf, err := filter.NewLeaf("capacity", filter.CategoryNumber, filter.FuncGte, 1000)
	require.NoError(t, err)
	doc := filter.Serialize(filter.NewAnd(leaf))

	base, err := threeViews().SelectView(1)
	require.NoError(t, err)

	edits := map[string]func(Catalog) (Catalog, error){
		"filter":  func(c Catalog) (Catalog, error) { return c.UpdateFilter(doc) },
		"columns": func(c Catalog) (Catalog, error) { return c.UpdateColumns([]string{"peerAlias", "balance"}) },
		"sortBy": func(c Catalog) (Catalog, error) {
			return c.UpdateSortBy(model.SortSpec{{Key: "capacity", Direction: model.Desc}})
		},
		"groupBy": func(c Catalog) (Catalog, error) { return c.UpdateGroupBy("peers"), nil },
		"title":   func(c Catalog) (Catalog, error) { return c.UpdateTitle("Renamed") },
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			next, err := edit(base)
			require.NoError(t, err)

			views := next.Views()
			assert.False(t, views[1].Saved)
			assert.Equal(t, uint64(1), views[1].Revision)
			assert.True(t, views[0].Saved)
			assert.True(t, views[2].Saved)
			assert.True(t, base.Views()[1].Saved, "receiver is unchanged")
		})
	}
}

func TestEditValidation(t *testing.T) {
	c := threeViews()

	_, err := c.UpdateColumns([]string{"peerAlias", "nope"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = c.UpdateColumns([]string{"capacity"})
	assert.ErrorIs(t, err, ErrLockedColumn)

	_, err = c.UpdateSortBy(model.SortSpec{{Key: "capacity", Direction: "up"}})
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = c.UpdateSortBy(model.SortSpec{{Key: "mempoolSpace", Direction: model.Asc}})
	assert.ErrorIs(t, err, ErrNotSortable)

	_, err = c.UpdateTitle("")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	var bad filter.Document
	require.NoError(t, json.Unmarshal([]byte(`{"type":"number","key":"capacity","funcName":"gte","parameter":"lots"}`), &bad))
	_, err = c.UpdateFilter(&bad)
	var mf *filter.MalformedFilterError
	assert.ErrorAs(t, err, &mf)

	next, err := c.UpdateFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, next.Current().Filter)
}

func TestAddViewSelectsIt(t *testing.T) {
	c := threeViews()
	next := c.AddView(NewView(resource.Channels))
	assert.Equal(t, 4, next.Len())
	assert.Equal(t, 3, next.Selected())
	assert.Nil(t, next.Current().ID)
	assert.Equal(t, 3, c.Len())
}

func TestReorderViews(t *testing.T) {
	c, err := threeViews().SelectView(0)
	require.NoError(t, err)
	views := c.Views()

	next, err := c.ReorderViews([]string{views[2].LocalID, views[0].LocalID, views[1].LocalID})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, titles(next))
	assert.Equal(t, 1, next.Selected(), "selection follows the view")
	assert.True(t, next.OrderDirty())
	for _, v := range next.Views() {
		assert.True(t, v.Saved, "reordering does not dirty individual views")
	}
	assert.False(t, c.OrderDirty())

	_, err = c.ReorderViews([]string{views[0].LocalID, views[0].LocalID, views[1].LocalID})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	_, err = c.ReorderViews([]string{views[0].LocalID})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestHydrate(t *testing.T) {
	c := threeViews()
	views := c.Views()
	c, err := c.ReorderViews([]string{views[1].LocalID, views[0].LocalID, views[2].LocalID})
	require.NoError(t, err)

	next := c.Hydrate([]View{savedView(9, "Z")})
	assert.Equal(t, []string{"Z"}, titles(next))
	assert.False(t, next.OrderDirty())

	empty := c.Hydrate(nil)
	require.Equal(t, 1, empty.Len())
	assert.Nil(t, empty.Current().ID)
}

func TestViewsReturnsCopies(t *testing.T) {
	c := threeViews()
	views := c.Views()
	views[0].Columns[0] = "mutated"
	*views[0].ID = 99
	fresh := c.Views()
	assert.Equal(t, "peerAlias", fresh[0].Columns[0])
	assert.Equal(t, int64(1), *fresh[0].ID)
}

func TestFilterDocumentsAreNotShared(t *testing.T) {
	leaf, err := filter.NewLeaf("capacity", filter.CategoryNumber, filter.FuncGte, 1000)
	require.NoError(t, err)
	doc := filter.Serialize(filter.NewAnd(leaf))

	c, err := threeViews().UpdateFilter(doc)
	require.NoError(t, err)

	doc.Children[0].Key = "balance"
	doc.Children = nil
	got := c.Current().Filter
	require.Len(t, got.Children, 1)
	assert.Equal(t, "capacity", got.Children[0].Key)

	got.Children[0].Key = "mutated"
	assert.Equal(t, "capacity", c.Current().Filter.Children[0].Key)

	persisted := c.Current().Document(resource.Channels, 0)
	persisted.Filter.Children[0].Key = "mutated"
	assert.Equal(t, "capacity", c.Current().Filter.Children[0].Key)
}

func TestDocumentRoundTrip(t *testing.T) {
	v := savedView(4, "Big peers")
	v.GroupBy = "peers"
	v.SortBy = model.SortSpec{{Key: "capacity", Direction: model.Desc}}

	doc := v.Document(resource.Channels, 2)
	require.Len(t, doc.Columns, 2)
	assert.Equal(t, "Peer Alias", doc.Columns[0].Heading)
	require.NotNil(t, doc.GroupBy)
	assert.Equal(t, "peers", *doc.GroupBy)
	assert.Equal(t, 2, doc.ViewOrder)

	data, err := json.Marshal(Envelope{ID: v.ID, Page: "channel", View: doc})
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))

	back := FromEnvelope(env)
	assert.Equal(t, v.Title, back.Title)
	assert.Equal(t, v.Columns, back.Columns)
	assert.Equal(t, v.SortBy, back.SortBy)
	assert.Equal(t, v.GroupBy, back.GroupBy)
	assert.Equal(t, *v.ID, *back.ID)
	assert.True(t, back.Saved)
}

func TestDocumentJSONShape(t *testing.T) {
	v := NewView(resource.Invoices)
	v.Filter = nil
	data, err := json.Marshal(v.Document(resource.Invoices, 0))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "title")
	assert.Contains(t, raw, "columns")
	assert.Contains(t, raw, "sortBy")
	assert.Contains(t, raw, "view_order")
	assert.Nil(t, raw["filter"])
	assert.Nil(t, raw["groupBy"])
}

func TestLegacySortEntries(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"title":"old","columns":[],"sortBy":[{"value":"capacity","label":"Capacity","direction":"desc"}]}`), &doc))
	assert.Equal(t, model.SortSpec{{Key: "capacity", Direction: model.Desc}}, doc.SortBy)
}

func TestValidateAndNormalize(t *testing.T) {
	c := threeViews()
	assert.NoError(t, c.Validate())

	broken := c.clone()
	broken.selected = 7
	var ice *InvalidCatalogStateError
	require.ErrorAs(t, broken.Validate(), &ice)
	fixed := broken.Normalize()
	assert.NoError(t, fixed.Validate())
	assert.Equal(t, 2, fixed.Selected())

	empty := Catalog{resource: resource.Channels}
	require.Error(t, empty.Validate())
	fixed = empty.Normalize()
	assert.Equal(t, 1, fixed.Len())
	assert.Equal(t, 0, fixed.Selected())
}
