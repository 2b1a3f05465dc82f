package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/telhawk-systems/tableviews/common/httputil"
	"github.com/telhawk-systems/tableviews/common/logging"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/views/internal/models"
	"github.com/telhawk-systems/tableviews/views/internal/repository"
	"github.com/telhawk-systems/tableviews/views/internal/service"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *service.Service
	logger  *logging.Logger
}

func NewHandler(svc *service.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: svc, logger: logger}
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", logging.Error(err))
		httputil.WriteServiceUnavailable(w, "database unavailable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListTableViews handles GET /table-views?page=<page>.
func (h *Handler) ListTableViews(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		httputil.WriteValidationError(w, "page query parameter is required", "")
		return
	}
	views, err := h.service.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]catalog.Envelope, len(views))
	for i, tv := range views {
		out[i] = tv.Envelope()
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// GetTableView handles GET /table-views/{id}.
func (h *Handler) GetTableView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tv.Envelope())
}

// CreateTableView handles POST /table-views with body {id: null, page, view}.
func (h *Handler) CreateTableView(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTableViewRequest
	if !decode(w, r, &req) {
		return
	}
	tv, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tv.Envelope())
}

// UpdateTableView handles PUT /table-views with body {id, view}.
func (h *Handler) UpdateTableView(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTableViewRequest
	if !decode(w, r, &req) {
		return
	}
	tv, err := h.service.Update(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tv.Envelope())
}

// DeleteTableView handles DELETE /table-views/{id}.
func (h *Handler) DeleteTableView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// ReorderTableViews handles PATCH /table-views/order with body
// [{id, view_order}].
func (h *Handler) ReorderTableViews(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderTableViewsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.Reorder(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		httputil.WriteValidationError(w, ve.Reason, ve.Pointer)
	case errors.Is(err, repository.ErrNotFound):
		httputil.WriteNotFound(w, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "table view request failed",
			logging.Method(r.Method), logging.Path(r.URL.Path), logging.Error(err))
		httputil.WriteInternalError(w)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, fmt.Sprintf("invalid table view id %q", raw))
		return 0, false
	}
	return id, true
}
