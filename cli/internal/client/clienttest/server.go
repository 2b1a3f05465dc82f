// Package clienttest provides an in-memory view store and node API for
// tests of code built on the client package.
package clienttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/telhawk-systems/tableviews/common/httputil"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
)

// NodePrefix is the path under which the node API is served.
const NodePrefix = "/api"

// Server is a fake view store plus node record API.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	nextID  int64
	views   map[int64]*catalog.Envelope
	records map[string][]model.Record
	failing bool
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		nextID:  1,
		views:   make(map[int64]*catalog.Envelope),
		records: make(map[string][]model.Record),
	}
	s.Server = httptest.NewServer(s)
	t.Cleanup(s.Close)
	return s
}

// NodeURL is the base URL of the node API.
func (s *Server) NodeURL() string {
	return s.URL + NodePrefix
}

// SetFailing makes every request fail with 500.
func (s *Server) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

// SetRecords sets the records served for a node endpoint.
func (s *Server) SetRecords(endpoint string, records []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[endpoint] = records
}

// Views returns the stored views of page ordered by view_order.
func (s *Server) Views(page string) []catalog.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(page)
}

func (s *Server) list(page string) []catalog.Envelope {
	out := []catalog.Envelope{}
	for _, env := range s.views {
		if env.Page == page {
			out = append(out, *env)
		}
	}
	slices.SortFunc(out, func(a, b catalog.Envelope) int {
		if a.View.ViewOrder != b.View.ViewOrder {
			return a.View.ViewOrder - b.View.ViewOrder
		}
		return int(*a.ID - *b.ID)
	})
	return out
}

type viewRequest struct {
	ID   *int64           `json:"id"`
	Page string           `json:"page"`
	View catalog.Document `json:"view"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing {
		httputil.WriteInternalError(w)
		return
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, NodePrefix+"/"):
		recs := s.records[strings.TrimPrefix(path, NodePrefix+"/")]
		if recs == nil {
			recs = []model.Record{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"data":       recs,
			"pagination": map[string]int{"total": len(recs)},
		})

	case path == "/healthz":
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	case path == "/table-views" && r.Method == http.MethodGet:
		httputil.WriteJSON(w, http.StatusOK, s.list(r.URL.Query().Get("page")))

	case path == "/table-views" && r.Method == http.MethodPost:
		var req viewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		if req.View.Title == "" {
			httputil.WriteValidationError(w, "title is required", "/view/title")
			return
		}
		id := s.nextID
		s.nextID++
		order := 0
		for _, env := range s.views {
			if env.Page == req.Page && env.View.ViewOrder >= order {
				order = env.View.ViewOrder + 1
			}
		}
		req.View.ViewOrder = order
		env := &catalog.Envelope{ID: &id, Page: req.Page, View: req.View}
		s.views[id] = env
		httputil.WriteJSON(w, http.StatusCreated, env)

	case path == "/table-views" && r.Method == http.MethodPut:
		var req viewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == nil {
			httputil.WriteBadRequest(w, "id is required")
			return
		}
		env, ok := s.views[*req.ID]
		if !ok {
			httputil.WriteNotFound(w, "table view not found")
			return
		}
		order := env.View.ViewOrder
		env.View = req.View
		env.View.ViewOrder = order
		httputil.WriteJSON(w, http.StatusOK, env)

	case path == "/table-views/order" && r.Method == http.MethodPatch:
		var order []model.ViewOrder
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		for _, o := range order {
			if _, ok := s.views[o.ID]; !ok {
				httputil.WriteNotFound(w, "table view not found")
				return
			}
		}
		for _, o := range order {
			s.views[o.ID].View.ViewOrder = o.ViewOrder
		}
		httputil.NoContent(w)

	case strings.HasPrefix(path, "/table-views/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(path, "/table-views/"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		env, ok := s.views[id]
		if !ok {
			httputil.WriteNotFound(w, "table view not found")
			return
		}
		switch r.Method {
		case http.MethodDelete:
			delete(s.views, id)
			httputil.NoContent(w)
		case http.MethodGet:
			httputil.WriteJSON(w, http.StatusOK, env)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		http.NotFound(w, r)
	}
}
