// Package service validates and stores table views.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/telhawk-systems/tableviews/common/logging"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
	"github.com/telhawk-systems/tableviews/views/internal/metrics"
	"github.com/telhawk-systems/tableviews/views/internal/models"
	"github.com/telhawk-systems/tableviews/views/internal/repository"
)

// ListCache caches the result of listing a page. Implemented by
// cache.ListCache.
type ListCache interface {
	Get(ctx context.Context, page string) ([]*models.TableView, bool, error)
	Generation(ctx context.Context, page string) (string, error)
	Set(ctx context.Context, page, gen string, views []*models.TableView) (bool, error)
	Invalidate(ctx context.Context, page string) error
	InvalidateAll(ctx context.Context) error
}

type Service struct {
	repo      repository.Repository
	cache     ListCache
	registry  *filter.Registry
	codec     *filter.Codec
	evaluator *filter.Evaluator
	strict    bool
	maxDepth  int
	logger    *logging.Logger
}

type Option func(*Service)

// WithCache enables list caching. A nil cache disables it.
func WithCache(c ListCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithStrict also rejects unknown comparators, unknown columns and
// unsortable sort keys.
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

func WithMaxFilterDepth(n int) Option {
	return func(s *Service) { s.maxDepth = n }
}

func WithRegistry(reg *filter.Registry) Option {
	return func(s *Service) { s.registry = reg }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		registry: filter.Default,
		maxDepth: filter.DefaultMaxDepth,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = filter.NewCodec(s.registry, filter.WithMaxDepth(s.maxDepth))
	s.evaluator = filter.NewEvaluator(s.registry)
	return s
}

// Ping checks the repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// List returns the views of page ordered by view_order.
func (s *Service) List(ctx context.Context, page string) ([]*models.TableView, error) {
	if _, err := resource.Lookup(page); err != nil {
		return nil, invalid("page", "/page", "%v", err)
	}

	// the generation is read before the repository so a write that lands in
	// between keeps the stale list out of the cache
	var gen string
	fill := false
	if s.cache != nil {
		views, ok, err := s.cache.Get(ctx, page)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "view cache unavailable", logging.Page(page), logging.Error(err))
		case ok:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return views, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			if gen, err = s.cache.Generation(ctx, page); err != nil {
				s.logger.WarnContext(ctx, "view cache unavailable", logging.Page(page), logging.Error(err))
			} else {
				fill = true
			}
		}
	}

	views, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list table views: %w", err)
	}
	metrics.ViewsPerPage.WithLabelValues(page).Set(float64(len(views)))

	if fill {
		stored, err := s.cache.Set(ctx, page, gen, views)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "failed to cache views", logging.Page(page), logging.Error(err))
		case !stored:
			s.logger.DebugContext(ctx, "skipped caching views changed during read", logging.Page(page))
		}
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.TableView, error) {
	tv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get table view %d: %w", id, err)
	}
	return tv, nil
}

// Create stores a new view at the end of its page.
func (s *Service) Create(ctx context.Context, req *models.CreateTableViewRequest) (*models.TableView, error) {
	if req.ID != nil {
		return nil, invalid("id", "/id", "must be null when creating a view")
	}
	res, err := resource.Lookup(req.Page)
	if err != nil {
		return nil, invalid("page", "/page", "%v", err)
	}
	if err := s.validateView(res, req.View); err != nil {
		return nil, err
	}

	tv, err := s.repo.Create(ctx, req.Page, req.View)
	if err != nil {
		return nil, fmt.Errorf("failed to create table view: %w", err)
	}
	s.invalidate(ctx, req.Page)
	s.logger.InfoContext(ctx, "table view created", logging.ViewID(tv.ID), logging.Page(tv.Page))
	return tv, nil
}

// Update replaces the document of an existing view. The view keeps its
// page and position.
func (s *Service) Update(ctx context.Context, req *models.UpdateTableViewRequest) (*models.TableView, error) {
	if req.ID == nil {
		return nil, invalid("id", "/id", "is required")
	}
	existing, err := s.repo.Get(ctx, *req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table view %d: %w", *req.ID, err)
	}
	res, err := resource.Lookup(existing.Page)
	if err != nil {
		return nil, invalid("page", "/page", "%v", err)
	}
	if err := s.validateView(res, req.View); err != nil {
		return nil, err
	}

	tv, err := s.repo.Update(ctx, *req.ID, req.View)
	if err != nil {
		return nil, fmt.Errorf("failed to update table view %d: %w", *req.ID, err)
	}
	s.invalidate(ctx, existing.Page)
	return tv, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get table view %d: %w", id, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete table view %d: %w", id, err)
	}
	s.invalidate(ctx, existing.Page)
	s.logger.InfoContext(ctx, "table view deleted", logging.ViewID(id), logging.Page(existing.Page))
	return nil
}

// Reorder sets view_order for each listed view in one transaction.
func (s *Service) Reorder(ctx context.Context, order []model.ViewOrder) error {
	seen := make(map[int64]bool, len(order))
	for i, o := range order {
		if seen[o.ID] {
			return invalid("order", fmt.Sprintf("/%d/id", i), "view %d listed twice", o.ID)
		}
		seen[o.ID] = true
		if o.ViewOrder < 0 {
			return invalid("order", fmt.Sprintf("/%d/view_order", i), "must not be negative")
		}
	}
	if len(order) == 0 {
		return nil
	}
	if err := s.repo.Reorder(ctx, order); err != nil {
		return fmt.Errorf("failed to reorder table views: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate view cache", logging.Error(err))
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, page string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, page); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate view cache", logging.Page(page), logging.Error(err))
	}
}

func (s *Service) validateView(res *resource.Resource, doc catalog.Document) error {
	if strings.TrimSpace(doc.Title) == "" {
		return invalid("title", "/view/title", "is required")
	}

	for i, col := range doc.Columns {
		if col.Key == "" {
			return invalid("columns", fmt.Sprintf("/view/columns/%d/key", i), "is required")
		}
		if _, ok := res.Column(col.Key); s.strict && !ok {
			return invalid("columns", fmt.Sprintf("/view/columns/%d/key", i), "unknown column %q", col.Key)
		}
	}

	for i, sb := range doc.SortBy {
		if sb.Key == "" {
			return invalid("sortBy", fmt.Sprintf("/view/sortBy/%d/key", i), "is required")
		}
		if !sb.Direction.Valid() {
			return invalid("sortBy", fmt.Sprintf("/view/sortBy/%d/direction", i), "must be asc or desc, got %q", sb.Direction)
		}
		if s.strict && !res.IsSortable(sb.Key) {
			return invalid("sortBy", fmt.Sprintf("/view/sortBy/%d/key", i), "%q is not sortable", sb.Key)
		}
	}

	if doc.Filter == nil {
		return nil
	}
	clause, err := s.codec.Deserialize(doc.Filter)
	if err != nil {
		var mf *filter.MalformedFilterError
		if errors.As(err, &mf) {
			return invalid("filter", filterPointer(mf.Path), "%s", mf.Reason)
		}
		return invalid("filter", "/view/filter", "%v", err)
	}
	if s.strict {
		if errs := s.evaluator.Check(clause); len(errs) > 0 {
			return invalid("filter", "/view/filter", "%v", errors.Join(errs...))
		}
	}
	return nil
}
