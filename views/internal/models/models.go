package models

import (
	"time"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
)

// TableView is a stored view row. View.ViewOrder always mirrors ViewOrder.
type TableView struct {
	ID        int64            `json:"id"`
	Page      string           `json:"page"`
	View      catalog.Document `json:"view"`
	ViewOrder int              `json:"-"`
	CreatedAt time.Time        `json:"created_at,omitzero"`
	UpdatedAt time.Time        `json:"updated_at,omitzero"`
}

// Envelope converts the row to the wire form the catalog manager consumes.
func (t *TableView) Envelope() catalog.Envelope {
	id := t.ID
	doc := t.View
	doc.ViewOrder = t.ViewOrder
	return catalog.Envelope{ID: &id, Page: t.Page, View: doc}
}

// CreateTableViewRequest is the POST /table-views body. ID must be null.
type CreateTableViewRequest struct {
	ID   *int64           `json:"id"`
	Page string           `json:"page"`
	View catalog.Document `json:"view"`
}

// UpdateTableViewRequest is the PUT /table-views body.
type UpdateTableViewRequest struct {
	ID   *int64           `json:"id"`
	View catalog.Document `json:"view"`
}

// ReorderTableViewsRequest is the PATCH /table-views/order body.
type ReorderTableViewsRequest []model.ViewOrder
