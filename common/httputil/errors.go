package httputil

import "net/http"

// ErrorObject is a single JSON:API error.
type ErrorObject struct {
	Status int               `json:"status,omitempty"`
	Code   string            `json:"code,omitempty"`
	Title  string            `json:"title,omitempty"`
	Detail string            `json:"detail,omitempty"`
	Source map[string]string `json:"source,omitempty"`
}

// ErrorDocument is the top-level JSON:API error body.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// WriteErrors writes one or more error objects.
func WriteErrors(w http.ResponseWriter, status int, errs ...ErrorObject) {
	WriteJSONAPI(w, status, ErrorDocument{Errors: errs})
}

// WriteError writes a single error object.
func WriteError(w http.ResponseWriter, status int, code, title, detail string) {
	WriteErrors(w, status, ErrorObject{Status: status, Code: code, Title: title, Detail: detail})
}

// WriteValidationError reports a 400. pointer, when set, locates the
// offending member of the request body (e.g. "/view/filter/children/0").
func WriteValidationError(w http.ResponseWriter, detail, pointer string) {
	obj := ErrorObject{
		Status: http.StatusBadRequest,
		Code:   "validation_failed",
		Title:  "Validation Failed",
		Detail: detail,
	}
	if pointer != "" {
		obj.Source = map[string]string{"pointer": pointer}
	}
	WriteErrors(w, http.StatusBadRequest, obj)
}

func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, "bad_request", "Bad Request", detail)
}

func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusNotFound, "not_found", "Resource Not Found", detail)
}

// WriteInternalError reports a 500. Log the cause before calling it.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error",
		"An internal error occurred")
}

func WriteServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusServiceUnavailable, "unavailable", "Service Unavailable", detail)
}
