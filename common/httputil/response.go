// Package httputil writes JSON responses and JSON:API error documents.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeJSONAPI = "application/vnd.api+json"
)

// WriteJSON writes data as JSON with the given status. Encoding failures are
// logged; the status has already been sent by then.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, ContentTypeJSON, data)
}

// WriteJSONAPI writes data with the JSON:API content type.
func WriteJSONAPI(w http.ResponseWriter, status int, data any) {
	write(w, status, ContentTypeJSONAPI, data)
}

func write(w http.ResponseWriter, status int, contentType string, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
