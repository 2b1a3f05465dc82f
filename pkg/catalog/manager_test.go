package catalog

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListViews(ctx context.Context, page string) ([]Envelope, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Envelope), args.Error(1)
}

func (m *MockBackend) CreateView(ctx context.Context, page string, doc Document) (Envelope, error) {
	args := m.Called(ctx, page, doc)
	return args.Get(0).(Envelope), args.Error(1)
}

func (m *MockBackend) UpdateView(ctx context.Context, id int64, doc Document) error {
	args := m.Called(ctx, id, doc)
	return args.Error(0)
}

func (m *MockBackend) DeleteView(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackend) ReorderViews(ctx context.Context, order []model.ViewOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

var errBackend = errors.New("connection refused")

func newManager(c Catalog) (*Manager, *MockBackend) {
	b := new(MockBackend)
	return NewManager(NewStore(c, WithStrict(true)), b), b
}

func TestLoadHydratesInViewOrder(t *testing.T) {
	m, b := newManager(New(resource.Channels))
	b.On("ListViews", mock.Anything, "channel").Return([]Envelope{
		{ID: int64Ptr(7), View: Document{Title: "second", ViewOrder: 1}},
		{ID: int64Ptr(3), View: Document{Title: "first", ViewOrder: 0}},
	}, nil)

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, []string{"first", "second"}, titles(m.Store().State()))
	b.AssertExpectations(t)
}

func TestLoadOrdersExtremeViewOrders(t *testing.T) {
	m, b := newManager(New(resource.Channels))
	b.On("ListViews", mock.Anything, "channel").Return([]Envelope{
		{ID: int64Ptr(1), View: Document{Title: "last", ViewOrder: math.MaxInt}},
		{ID: int64Ptr(2), View: Document{Title: "first", ViewOrder: math.MinInt}},
		{ID: int64Ptr(3), View: Document{Title: "middle", ViewOrder: 0}},
	}, nil)

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, []string{"first", "middle", "last"}, titles(m.Store().State()))
}

func TestLoadFailureKeepsCatalog(t *testing.T) {
	c := threeViews()
	m, b := newManager(c)
	b.On("ListViews", mock.Anything, "channel").Return(nil, errBackend)

	err := m.Load(context.Background())
	var bre *BackendRequestError
	require.ErrorAs(t, err, &bre)
	assert.Equal(t, OpList, bre.Op)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, c, m.Store().State())
}

func TestSaveCreatesNewView(t *testing.T) {
	c := threeViews().AddView(NewView(resource.Channels))
	c, err := c.SelectView(0)
	require.NoError(t, err)
	m, b := newManager(c)
	newView := c.Views()[3]

	b.On("CreateView", mock.Anything, "channel", mock.MatchedBy(func(d Document) bool {
		return d.Title == newView.Title && d.ViewOrder == 3
	})).Return(Envelope{ID: int64Ptr(42)}, nil)

	require.NoError(t, m.Save(context.Background(), newView.LocalID))

	state := m.Store().State()
	created, ok := state.View(newView.LocalID)
	require.True(t, ok)
	require.NotNil(t, created.ID)
	assert.Equal(t, int64(42), *created.ID)
	assert.True(t, created.Saved)
	assert.Equal(t, 3, state.Selected(), "created view is selected")
	b.AssertExpectations(t)
}

func TestSaveUpdatesDirtyView(t *testing.T) {
	c, err := threeViews().UpdateTitle("A renamed")
	require.NoError(t, err)
	m, b := newManager(c)
	local := c.Current().LocalID

	b.On("UpdateView", mock.Anything, int64(1), mock.MatchedBy(func(d Document) bool {
		return d.Title == "A renamed"
	})).Return(nil)

	require.NoError(t, m.Save(context.Background(), local))
	v, _ := m.Store().State().View(local)
	assert.True(t, v.Saved)
}

func TestFailedUpdateLeavesCatalogUnchanged(t *testing.T) {
	c := threeViews().UpdateGroupBy("peers")
	m, b := newManager(c)
	before := m.Store().State()
	b.On("UpdateView", mock.Anything, int64(1), mock.Anything).Return(errBackend)

	err := m.Save(context.Background(), c.Current().LocalID)
	var bre *BackendRequestError
	require.ErrorAs(t, err, &bre)
	assert.Equal(t, OpUpdate, bre.Op)

	after := m.Store().State()
	assert.Equal(t, before, after)
	assert.False(t, after.Current().Saved)
}

func TestFailedCreateAndDeleteLeaveCatalogUnchanged(t *testing.T) {
	c := threeViews().AddView(NewView(resource.Channels))
	m, b := newManager(c)
	before := m.Store().State()
	views := before.Views()

	b.On("CreateView", mock.Anything, "channel", mock.Anything).Return(Envelope{}, errBackend)
	b.On("DeleteView", mock.Anything, int64(2)).Return(errBackend)

	assert.Error(t, m.Save(context.Background(), views[3].LocalID))
	assert.Error(t, m.Delete(context.Background(), views[1].LocalID))
	assert.Equal(t, before, m.Store().State())
}

func TestCreateWithoutIDFails(t *testing.T) {
	c := New(resource.Channels)
	m, b := newManager(c)
	b.On("CreateView", mock.Anything, "channel", mock.Anything).Return(Envelope{}, nil)

	err := m.Save(context.Background(), c.Current().LocalID)
	var bre *BackendRequestError
	require.ErrorAs(t, err, &bre)
	assert.Nil(t, m.Store().State().Current().ID)
}

func TestDeletePersistedView(t *testing.T) {
	c, err := threeViews().SelectView(2)
	require.NoError(t, err)
	m, b := newManager(c)
	target := c.Views()[1]
	b.On("DeleteView", mock.Anything, int64(2)).Return(nil)

	require.NoError(t, m.Delete(context.Background(), target.LocalID))
	state := m.Store().State()
	assert.Equal(t, []string{"A", "C"}, titles(state))
	assert.Equal(t, 0, state.Selected())
}

func TestDeleteUnsavedViewIsLocal(t *testing.T) {
	c := threeViews().AddView(NewView(resource.Channels))
	m, b := newManager(c)

	require.NoError(t, m.Delete(context.Background(), c.Current().LocalID))
	assert.Equal(t, 3, m.Store().State().Len())
	b.AssertNotCalled(t, "DeleteView", mock.Anything, mock.Anything)
}

func TestDeleteLastView(t *testing.T) {
	c := New(resource.Channels, savedView(5, "only"))
	m, b := newManager(c)
	b.On("DeleteView", mock.Anything, int64(5)).Return(nil)

	require.NoError(t, m.Delete(context.Background(), c.Current().LocalID))
	state := m.Store().State()
	require.Equal(t, 1, state.Len())
	assert.Equal(t, 0, state.Selected())
	assert.Nil(t, state.Current().ID)
	assert.Equal(t, resource.Channels.DefaultTitle, state.Current().Title)
}

func TestSaveOrder(t *testing.T) {
	c := threeViews().AddView(NewView(resource.Channels))
	views := c.Views()
	c, err := c.ReorderViews([]string{views[3].LocalID, views[2].LocalID, views[0].LocalID, views[1].LocalID})
	require.NoError(t, err)
	m, b := newManager(c)

	want := []model.ViewOrder{{ID: 3, ViewOrder: 1}, {ID: 1, ViewOrder: 2}, {ID: 2, ViewOrder: 3}}
	b.On("ReorderViews", mock.Anything, want).Return(nil).Once()
	require.NoError(t, m.SaveOrder(context.Background()))
	assert.False(t, m.Store().State().OrderDirty())

	// a failed order save keeps the order dirty
	again, err := m.Store().Dispatch(func(c Catalog) (Catalog, error) {
		v := c.Views()
		return c.ReorderViews([]string{v[1].LocalID, v[0].LocalID, v[2].LocalID, v[3].LocalID})
	})
	require.NoError(t, err)
	require.True(t, again.OrderDirty())
	b.On("ReorderViews", mock.Anything, mock.Anything).Return(errBackend).Once()
	assert.Error(t, m.SaveOrder(context.Background()))
	assert.Equal(t, again, m.Store().State())
}

// blockingBackend holds UpdateView until released.
type blockingBackend struct {
	MockBackend
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) UpdateView(ctx context.Context, id int64, doc Document) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestSecondMutationForSameViewIsRejected(t *testing.T) {
	c := threeViews()
	b := &blockingBackend{started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(NewStore(c), b)
	local := c.Current().LocalID

	done := make(chan error, 1)
	go func() { done <- m.Save(context.Background(), local) }()
	<-b.started

	assert.ErrorIs(t, m.Save(context.Background(), local), ErrMutationInFlight)
	assert.ErrorIs(t, m.Delete(context.Background(), local), ErrMutationInFlight)
	assert.ErrorIs(t, m.Load(context.Background()), ErrMutationInFlight)

	// other views are independent
	other := c.Views()[2]
	b.On("DeleteView", mock.Anything, int64(3)).Return(nil)
	assert.NoError(t, m.Delete(context.Background(), other.LocalID))

	close(b.release)
	require.NoError(t, <-done)
	assert.NoError(t, m.Save(context.Background(), local), "slot is free again")
}

func TestEditDuringSaveKeepsViewDirty(t *testing.T) {
	c, err := threeViews().UpdateTitle("draft 1")
	require.NoError(t, err)
	b := &blockingBackend{started: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(c)
	m := NewManager(store, b)
	local := c.Current().LocalID

	done := make(chan error, 1)
	go func() { done <- m.Save(context.Background(), local) }()
	<-b.started

	_, err = store.Dispatch(func(c Catalog) (Catalog, error) { return c.UpdateTitle("draft 2") })
	require.NoError(t, err)

	close(b.release)
	require.NoError(t, <-done)
	v, _ := store.State().View(local)
	assert.Equal(t, "draft 2", v.Title)
	assert.False(t, v.Saved, "the newer edit is not persisted yet")
}

func TestUnknownViewIsRejected(t *testing.T) {
	m, _ := newManager(threeViews())
	assert.ErrorIs(t, m.Save(context.Background(), "nope"), ErrViewNotFound)
	assert.ErrorIs(t, m.Delete(context.Background(), "nope"), ErrViewNotFound)
}
