package catalog

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

// Backend persists views. Implementations carry their own transport.
type Backend interface {
	ListViews(ctx context.Context, page string) ([]Envelope, error)
	CreateView(ctx context.Context, page string, doc Document) (Envelope, error)
	UpdateView(ctx context.Context, id int64, doc Document) error
	DeleteView(ctx context.Context, id int64) error
	ReorderViews(ctx context.Context, order []model.ViewOrder) error
}

// slot keys that cannot collide with view local ids
const (
	orderSlot   = "\x00order"
	catalogSlot = "\x00catalog"
)

// Manager runs view create/update/delete/reorder requests against a backend
// and applies their outcome to a Store. A request that fails changes
// nothing. Only one request per view (and one order save) may be in flight.
type Manager struct {
	store   *Store
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used for failed requests.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns a manager for the catalog held by store.
func NewManager(store *Store, backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		backend:  backend,
		logger:   slog.Default(),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the store the manager updates.
func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) acquire(key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[key]; busy {
		return nil, ErrMutationInFlight
	}
	if _, busy := m.inflight[catalogSlot]; busy {
		return nil, ErrMutationInFlight
	}
	if key == catalogSlot && len(m.inflight) > 0 {
		return nil, ErrMutationInFlight
	}
	m.inflight[key] = struct{}{}
	return func() {
		m.mu.Lock()
		delete(m.inflight, key)
		m.mu.Unlock()
	}, nil
}

func (m *Manager) fail(ctx context.Context, op Op, localID string, err error) error {
	m.logger.WarnContext(ctx, "view request failed",
		slog.String("op", string(op)),
		slog.String("local_id", localID),
		slog.String("error", err.Error()))
	return &BackendRequestError{Op: op, LocalID: localID, Err: err}
}

// Load replaces the catalog with the views stored for its page, ordered by
// view_order. An empty result leaves only the default view.
func (m *Manager) Load(ctx context.Context) error {
	release, err := m.acquire(catalogSlot)
	if err != nil {
		return err
	}
	defer release()

	page := m.store.State().Resource().Page
	envs, err := m.backend.ListViews(ctx, page)
	if err != nil {
		return m.fail(ctx, OpList, "", err)
	}
	slices.SortStableFunc(envs, func(a, b Envelope) int {
		return cmp.Compare(a.View.ViewOrder, b.View.ViewOrder)
	})
	views := make([]View, 0, len(envs))
	for _, env := range envs {
		views = append(views, FromEnvelope(env))
	}
	_, err = m.store.Dispatch(func(c Catalog) (Catalog, error) {
		return c.Hydrate(views), nil
	})
	return err
}

// Save persists a view: views without an id are created, others updated.
func (m *Manager) Save(ctx context.Context, localID string) error {
	release, err := m.acquire(localID)
	if err != nil {
		return err
	}
	defer release()

	state := m.store.State()
	i, ok := state.Index(localID)
	if !ok {
		return ErrViewNotFound
	}
	v := state.views[i]
	doc := v.Document(state.Resource(), i)

	if v.ID == nil {
		env, err := m.backend.CreateView(ctx, state.Resource().Page, doc)
		if err != nil {
			return m.fail(ctx, OpCreate, localID, err)
		}
		if env.ID == nil {
			return m.fail(ctx, OpCreate, localID, errors.New("backend returned no id"))
		}
		_, err = m.store.Dispatch(func(c Catalog) (Catalog, error) {
			return c.markCreated(localID, *env.ID, v.Revision)
		})
		return err
	}

	if err := m.backend.UpdateView(ctx, *v.ID, doc); err != nil {
		return m.fail(ctx, OpUpdate, localID, err)
	}
	_, err = m.store.Dispatch(func(c Catalog) (Catalog, error) {
		return c.markSaved(localID, v.Revision)
	})
	return err
}

// Delete removes a view. Persisted views are deleted remotely first. The
// selection resets to the first view, and removing the last view leaves the
// default view.
func (m *Manager) Delete(ctx context.Context, localID string) error {
	release, err := m.acquire(localID)
	if err != nil {
		return err
	}
	defer release()

	v, ok := m.store.State().View(localID)
	if !ok {
		return ErrViewNotFound
	}
	if v.ID != nil {
		if err := m.backend.DeleteView(ctx, *v.ID); err != nil {
			return m.fail(ctx, OpDelete, localID, err)
		}
	}
	_, err = m.store.Dispatch(func(c Catalog) (Catalog, error) {
		return c.removeView(localID)
	})
	return err
}

// SaveOrder persists the current order of the persisted views. Each view's
// view_order is its catalog index.
func (m *Manager) SaveOrder(ctx context.Context) error {
	release, err := m.acquire(orderSlot)
	if err != nil {
		return err
	}
	defer release()

	state := m.store.State()
	order := make([]model.ViewOrder, 0, state.Len())
	for i, v := range state.views {
		if v.ID != nil {
			order = append(order, model.ViewOrder{ID: *v.ID, ViewOrder: i})
		}
	}
	if err := m.backend.ReorderViews(ctx, order); err != nil {
		return m.fail(ctx, OpReorder, "", err)
	}
	rev := state.orderRev
	_, err = m.store.Dispatch(func(c Catalog) (Catalog, error) {
		return c.markOrderSaved(rev), nil
	})
	return err
}
