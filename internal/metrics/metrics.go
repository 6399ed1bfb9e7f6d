package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_upstream_requests_total",
		Help: "Upstream Metlink API requests by endpoint and outcome.",
	}, []string{"endpoint", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timeline_upstream_request_duration_seconds",
		Help:    "Upstream Metlink API request latency by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	catalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_catalog_lookups_total",
		Help: "Static catalog cache lookups by resource and outcome.",
	}, []string{"resource", "outcome"})

	builds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_builds_total",
		Help: "Timeline builds by outcome.",
	}, []string{"outcome"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_build_duration_seconds",
		Help:    "End-to-end timeline build duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveUpstreamRequest records one upstream API call.
func ObserveUpstreamRequest(endpoint, status string, d time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, status).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// CatalogLookup records a cache lookup outcome: "hit", "miss" or "expired".
func CatalogLookup(resource, outcome string) {
	catalogLookups.WithLabelValues(resource, outcome).Inc()
}

// ObserveBuild records a completed timeline build.
func ObserveBuild(outcome string, d time.Duration) {
	builds.WithLabelValues(outcome).Inc()
	buildDuration.Observe(d.Seconds())
}
