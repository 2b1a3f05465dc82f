package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/cli/internal/client/clienttest"
	"github.com/telhawk-systems/tableviews/common/httputil"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

func TestViewCRUD(t *testing.T) {
	srv := clienttest.NewServer(t)
	c := New(srv.URL, "")
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	doc := catalog.NewView(resource.Channels).Document(resource.Channels, 0)
	env, err := c.CreateView(ctx, "channel", doc)
	require.NoError(t, err)
	require.NotNil(t, env.ID)
	assert.Equal(t, "channel", env.Page)

	doc.Title = "Renamed"
	require.NoError(t, c.UpdateView(ctx, *env.ID, doc))

	got, err := c.GetView(ctx, *env.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.View.Title)

	list, err := c.ListViews(ctx, "channel")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteView(ctx, *env.ID))
	_, err = c.GetView(ctx, *env.ID)
	assert.True(t, IsNotFound(err))
}

func TestAPIErrorCarriesPointer(t *testing.T) {
	srv := clienttest.NewServer(t)
	c := New(srv.URL, "")

	_, err := c.CreateView(context.Background(), "channel", catalog.Document{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_failed", apiErr.Code)
	assert.Equal(t, "/view/title", apiErr.Pointer)
	assert.Contains(t, err.Error(), "title is required")
}

func TestWithLoggerLogsRequests(t *testing.T) {
	srv := clienttest.NewServer(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hc := &http.Client{Timeout: time.Second}

	c := New(srv.URL, "", WithLogger(logger), WithHTTPClient(hc))
	_, err := c.ListViews(context.Background(), "channel")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "method=GET")
	assert.Contains(t, buf.String(), "/table-views?page=channel")
	assert.Contains(t, buf.String(), "status=200")
	assert.Nil(t, hc.Transport, "the caller's client is not modified")

	srv.Close()
	_, err = c.ListViews(context.Background(), "channel")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "request failed")
}

func TestAPIErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL, "").Health(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestManagerRoundTrip(t *testing.T) {
	srv := clienttest.NewServer(t)
	c := New(srv.URL, "")
	ctx := context.Background()

	m := catalog.NewManager(catalog.NewStore(catalog.New(resource.Channels)), c)
	first := m.Store().State().Current().LocalID
	require.NoError(t, m.Save(ctx, first))

	_, err := m.Store().Dispatch(func(cat catalog.Catalog) (catalog.Catalog, error) {
		next := cat.AddView(catalog.NewView(resource.Channels))
		return next.UpdateTitle("Second")
	})
	require.NoError(t, err)
	second := m.Store().State().Current().LocalID
	require.NoError(t, m.Save(ctx, second))

	_, err = m.Store().Dispatch(func(cat catalog.Catalog) (catalog.Catalog, error) {
		return cat.ReorderViews([]string{second, first})
	})
	require.NoError(t, err)
	require.NoError(t, m.SaveOrder(ctx))

	fresh := catalog.NewManager(catalog.NewStore(catalog.New(resource.Channels)), c)
	require.NoError(t, fresh.Load(ctx))
	views := fresh.Store().State().Views()
	require.Len(t, views, 2)
	assert.Equal(t, "Second", views[0].Title)
	assert.Equal(t, resource.Channels.DefaultTitle, views[1].Title)

	srv.SetFailing(true)
	before := fresh.Store().State()
	err = fresh.Delete(ctx, views[0].LocalID)
	var bre *catalog.BackendRequestError
	require.ErrorAs(t, err, &bre)
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, before, fresh.Store().State())
}

func TestFetchRecordsDateRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices", r.URL.Path)
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-05-08", r.URL.Query().Get("to"), "to is sent as the following day")
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"data":       []map[string]any{{"amount": 1.0}, {"amount": 2.0}},
			"pagination": map[string]any{"total": 40},
		})
	}))
	defer srv.Close()

	page, err := New("", srv.URL).FetchRecords(context.Background(), model.RecordQuery{
		Page:  "invoices",
		From:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
		Limit: 50,
	})
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	require.NotNil(t, page.Total)
	assert.Equal(t, 40, *page.Total)
}

func TestFetchRecordsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("from"), "channels are not date ranged")
		httputil.WriteJSON(w, http.StatusOK, []map[string]any{{"capacity": 1000.0}})
	}))
	defer srv.Close()

	page, err := New("", srv.URL).FetchRecords(context.Background(), model.RecordQuery{
		Page: "channel",
		From: time.Now(),
		To:   time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Record{{"capacity": 1000.0}}, page.Records)
	assert.Nil(t, page.Total)
}

func TestFetchRecordsUnknownPage(t *testing.T) {
	_, err := New("", "http://localhost").FetchRecords(context.Background(), model.RecordQuery{Page: "nope"})
	assert.True(t, errors.Is(err, resource.ErrUnknownPage))
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
		total *int
		err   bool
	}{
		{name: "null", body: "null", count: 0},
		{name: "empty array", body: "[]", count: 0},
		{name: "object without data", body: `{"pagination":{"total":0}}`, count: 0, total: new(int)},
		{name: "garbage", body: `"nope"`, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodeRecords(json.RawMessage(tt.body))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, page.Records, tt.count)
			assert.NotNil(t, page.Records)
			assert.Equal(t, tt.total, page.Total)
		})
	}
}
