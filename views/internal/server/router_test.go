package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/tableviews/common/logging"
	"github.com/telhawk-systems/tableviews/common/middleware"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/resource"
	"github.com/telhawk-systems/tableviews/views/internal/handlers"
	"github.com/telhawk-systems/tableviews/views/internal/repository"
	"github.com/telhawk-systems/tableviews/views/internal/service"
)

func setupServer(t *testing.T, logBuf *bytes.Buffer) http.Handler {
	t.Helper()
	logger := logging.Discard()
	if logBuf != nil {
		logger = logging.NewWithWriter(logBuf, slog.LevelInfo, "json")
	}
	svc := service.NewService(repository.NewMemoryRepository(), service.WithLogger(logger))
	return NewRouter(handlers.NewHandler(svc, logger), logger,
		middleware.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}})
}

func TestRoutes(t *testing.T) {
	h := setupServer(t, nil)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/table-views?page=channel", http.StatusOK},
		{http.MethodGet, "/table-views/12", http.StatusNotFound},
		{http.MethodDelete, "/table-views/12", http.StatusNotFound},
		{http.MethodGet, "/table-views/abc", http.StatusNotFound},
		{http.MethodPost, "/table-views/order", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}

func TestCreateThroughRouterIsLogged(t *testing.T) {
	var logs bytes.Buffer
	h := setupServer(t, &logs)

	v := catalog.NewView(resource.Payments)
	body, err := json.Marshal(map[string]any{"id": nil, "page": "payments", "view": v.Document(resource.Payments, 0)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/table-views", bytes.NewReader(body))
	req.Header.Set(middleware.HeaderRequestID, "req-abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "req-abc", w.Header().Get(middleware.HeaderRequestID))
	assert.Contains(t, logs.String(), `"route":"/table-views"`)
	assert.Contains(t, logs.String(), `"status":201`)
	assert.Contains(t, logs.String(), `"request_id":"req-abc"`)
}

func TestPreflight(t *testing.T) {
	h := setupServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/table-views/order", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
