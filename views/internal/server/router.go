package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/tableviews/common/logging"
	"github.com/telhawk-systems/tableviews/common/middleware"
	"github.com/telhawk-systems/tableviews/views/internal/handlers"
	"github.com/telhawk-systems/tableviews/views/internal/metrics"
)

// NewRouter registers the table-views API, /healthz and /metrics.
func NewRouter(h *handlers.Handler, logger *logging.Logger, cors middleware.CORSConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/table-views").Subrouter()
	api.HandleFunc("", h.ListTableViews).Methods(http.MethodGet)
	api.HandleFunc("", h.CreateTableView).Methods(http.MethodPost)
	api.HandleFunc("", h.UpdateTableView).Methods(http.MethodPut)
	api.HandleFunc("/order", h.ReorderTableViews).Methods(http.MethodPatch)
	api.HandleFunc("/{id:[0-9]+}", h.GetTableView).Methods(http.MethodGet)
	api.HandleFunc("/{id:[0-9]+}", h.DeleteTableView).Methods(http.MethodDelete)

	r.Use(instrument(logger))

	var handler http.Handler = r
	handler = middleware.CORS(cors)(handler)
	return middleware.RequestID(handler)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument logs each request and records its metrics under the matched
// route template.
func instrument(logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			elapsed := time.Since(start)
			metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

			if route == "/healthz" || route == "/metrics" {
				return
			}
			logger.InfoContext(r.Context(), "request",
				logging.Method(r.Method),
				logging.Route(route),
				logging.Status(rec.status),
				logging.Duration(elapsed.Milliseconds()))
		})
	}
}
