// Package client talks to the view store service and the node API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/telhawk-systems/tableviews/common/httputil"
)

// Client is an HTTP client for the view store and the node record API.
type Client struct {
	viewsURL string
	nodeURL  string
	client   *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger logs every request and its outcome at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the given base URLs.
func New(viewsURL, nodeURL string, opts ...Option) *Client {
	c := &Client{
		viewsURL: strings.TrimRight(viewsURL, "/"),
		nodeURL:  strings.TrimRight(nodeURL, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger != nil {
		hc := *c.client
		hc.Transport = &loggingTransport{next: hc.Transport, logger: c.logger}
		c.client = &hc
	}
	return c
}

type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	start := time.Now()
	resp, err := next.RoundTrip(req)
	attrs := []any{
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		t.logger.DebugContext(req.Context(), "request failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}
	t.logger.DebugContext(req.Context(), "request", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Pointer    string // JSON pointer of the offending field, if reported
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Pointer != "" {
		return fmt.Sprintf("request failed (%d): %s at %s", e.StatusCode, msg, e.Pointer)
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, msg)
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", httputil.ContentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", httputil.ContentTypeJSON)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var doc httputil.ErrorDocument
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Errors) > 0 {
		e := doc.Errors[0]
		apiErr.Code = e.Code
		apiErr.Message = e.Detail
		if apiErr.Message == "" {
			apiErr.Message = e.Title
		}
		if p, ok := e.Source["pointer"]; ok {
			apiErr.Pointer = p
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}

// Health checks the view store.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.viewsURL+"/healthz", nil, nil)
}
