// Package repository stores table views in PostgreSQL, SQLite or memory.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/views/internal/models"
)

var ErrNotFound = errors.New("table view not found")

// Repository persists table views. List returns a page's views ordered by
// view_order, then id. Create appends the view after the page's last one.
// Reorder applies every entry or none.
type Repository interface {
	List(ctx context.Context, page string) ([]*models.TableView, error)
	Get(ctx context.Context, id int64) (*models.TableView, error)
	Create(ctx context.Context, page string, view catalog.Document) (*models.TableView, error)
	Update(ctx context.Context, id int64, view catalog.Document) (*models.TableView, error)
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, order []model.ViewOrder) error
	Ping(ctx context.Context) error
	Close()
}

func encodeView(view catalog.Document) ([]byte, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal view: %w", err)
	}
	return data, nil
}

func decodeView(tv *models.TableView, data []byte) error {
	if err := json.Unmarshal(data, &tv.View); err != nil {
		return fmt.Errorf("failed to unmarshal view %d: %w", tv.ID, err)
	}
	tv.View.ViewOrder = tv.ViewOrder
	return nil
}
