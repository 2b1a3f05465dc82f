package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSConfig lists the origins allowed to call the views API. Entries may use
// a single wildcard, e.g. "https://*.example.com".
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS returns middleware answering preflight requests for the table-views
// routes. An empty origin list disables CORS headers entirely.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", HeaderRequestID}
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 300
	}
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   headers,
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           maxAge,
	})
	return c.Handler
}
