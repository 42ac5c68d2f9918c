// Package metrics holds tripgate's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgate_route_decisions_total",
			Help: "Routing decisions by selected tier and decision source",
		},
		[]string{"tier", "source"},
	)

	CatalogFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgate_catalog_fallbacks_total",
			Help: "Model selections that fell back to the standard tier",
		},
		[]string{"requested"},
	)

	QuotaChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgate_quota_checks_total",
			Help: "Quota checks by result and violated window",
		},
		[]string{"result", "window"},
	)

	UsageRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgate_usage_records_total",
			Help: "Usage records by write outcome",
		},
		[]string{"outcome"},
	)

	RecorderQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripgate_recorder_queue_depth",
			Help: "Usage records waiting to be written",
		},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)
