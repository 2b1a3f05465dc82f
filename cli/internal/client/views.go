package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
)

var _ catalog.Backend = (*Client)(nil)

type createRequest struct {
	ID   *int64           `json:"id"`
	Page string           `json:"page"`
	View catalog.Document `json:"view"`
}

type updateRequest struct {
	ID   int64            `json:"id"`
	View catalog.Document `json:"view"`
}

// ListViews returns the views stored for a page, ordered by view_order.
func (c *Client) ListViews(ctx context.Context, page string) ([]catalog.Envelope, error) {
	q := url.Values{}
	q.Set("page", page)
	var out []catalog.Envelope
	if err := c.do(ctx, http.MethodGet, c.viewsURL+"/table-views?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetView returns one stored view.
func (c *Client) GetView(ctx context.Context, id int64) (catalog.Envelope, error) {
	var out catalog.Envelope
	err := c.do(ctx, http.MethodGet, c.viewsURL+"/table-views/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// CreateView stores a new view and returns it with its assigned id.
func (c *Client) CreateView(ctx context.Context, page string, doc catalog.Document) (catalog.Envelope, error) {
	var out catalog.Envelope
	err := c.do(ctx, http.MethodPost, c.viewsURL+"/table-views", createRequest{Page: page, View: doc}, &out)
	return out, err
}

// UpdateView replaces a stored view's document.
func (c *Client) UpdateView(ctx context.Context, id int64, doc catalog.Document) error {
	return c.do(ctx, http.MethodPut, c.viewsURL+"/table-views", updateRequest{ID: id, View: doc}, nil)
}

// DeleteView removes a stored view.
func (c *Client) DeleteView(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.viewsURL+"/table-views/"+strconv.FormatInt(id, 10), nil, nil)
}

// ReorderViews sets view_order for the given views.
func (c *Client) ReorderViews(ctx context.Context, order []model.ViewOrder) error {
	if order == nil {
		order = []model.ViewOrder{}
	}
	return c.do(ctx, http.MethodPatch, c.viewsURL+"/table-views/order", order, nil)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
