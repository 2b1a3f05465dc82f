package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/views/internal/models"
)

// MockRepository is a mock implementation of repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, page string) ([]*models.TableView, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TableView), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id int64) (*models.TableView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TableView), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, page string, view catalog.Document) (*models.TableView, error) {
	args := m.Called(ctx, page, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TableView), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, view catalog.Document) (*models.TableView, error) {
	args := m.Called(ctx, id, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TableView), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) Reorder(ctx context.Context, order []model.ViewOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) Close() {}
