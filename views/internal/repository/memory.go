package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/views/internal/models"
)

// MemoryRepository keeps views in process. Returned rows are copies.
type MemoryRepository struct {
	mu     sync.RWMutex
	views  map[int64]*models.TableView
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{views: make(map[int64]*models.TableView), nextID: 1}
}

func (r *MemoryRepository) Close() {}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) List(_ context.Context, page string) ([]*models.TableView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := []*models.TableView{}
	for _, tv := range r.views {
		if tv.Page == page {
			views = append(views, copyView(tv))
		}
	}
	slices.SortFunc(views, func(a, b *models.TableView) int {
		if a.ViewOrder != b.ViewOrder {
			return a.ViewOrder - b.ViewOrder
		}
		return int(a.ID - b.ID)
	})
	return views, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*models.TableView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tv, ok := r.views[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyView(tv), nil
}

func (r *MemoryRepository) Create(_ context.Context, page string, view catalog.Document) (*models.TableView, error) {
	stored, err := roundTrip(view)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order := 0
	for _, tv := range r.views {
		if tv.Page == page && tv.ViewOrder >= order {
			order = tv.ViewOrder + 1
		}
	}
	now := time.Now().UTC()
	tv := &models.TableView{
		ID:        r.nextID,
		Page:      page,
		View:      stored,
		ViewOrder: order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tv.View.ViewOrder = order
	r.nextID++
	r.views[tv.ID] = tv
	return copyView(tv), nil
}

func (r *MemoryRepository) Update(_ context.Context, id int64, view catalog.Document) (*models.TableView, error) {
	stored, err := roundTrip(view)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	tv, ok := r.views[id]
	if !ok {
		return nil, ErrNotFound
	}
	tv.View = stored
	tv.View.ViewOrder = tv.ViewOrder
	tv.UpdatedAt = time.Now().UTC()
	return copyView(tv), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return ErrNotFound
	}
	delete(r.views, id)
	return nil
}

func (r *MemoryRepository) Reorder(_ context.Context, order []model.ViewOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range order {
		if _, ok := r.views[o.ID]; !ok {
			return ErrNotFound
		}
	}
	now := time.Now().UTC()
	for _, o := range order {
		tv := r.views[o.ID]
		tv.ViewOrder = o.ViewOrder
		tv.View.ViewOrder = o.ViewOrder
		tv.UpdatedAt = now
	}
	return nil
}

// roundTrip stores the document the way the SQL backends do, so callers
// never share slices or filter trees with the repository.
func roundTrip(view catalog.Document) (catalog.Document, error) {
	data, err := encodeView(view)
	if err != nil {
		return catalog.Document{}, err
	}
	var tv models.TableView
	if err := decodeView(&tv, data); err != nil {
		return catalog.Document{}, err
	}
	return tv.View, nil
}

func copyView(tv *models.TableView) *models.TableView {
	out := *tv
	doc, err := roundTrip(tv.View)
	if err == nil {
		out.View = doc
	}
	out.View.ViewOrder = tv.ViewOrder
	return &out
}
