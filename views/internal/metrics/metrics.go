// Package metrics exposes Prometheus metrics for the views service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableviews_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tableviews_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableviews_cache_lookups_total",
			Help: "View list cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	ViewsPerPage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tableviews_views",
			Help: "Number of stored views per page, refreshed on list",
		},
		[]string{"page"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableviews_validation_failures_total",
			Help: "Rejected view documents by field",
		},
		[]string{"field"},
	)
)
