package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	ScoutRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_runs_total",
			Help: "Total number of scout runs",
		},
		[]string{"platform", "status"},
	)

	ScoutRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_run_duration_seconds",
			Help:    "Scout run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)

	ItemsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_fetched_total",
			Help: "Total number of raw items fetched from upstream sources",
		},
		[]string{"platform"},
	)

	TopicsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topics_persisted_total",
			Help: "Total number of topics persisted",
		},
		[]string{"platform"},
	)

	DuplicatesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicates_skipped_total",
			Help: "Total number of already-seen items skipped",
		},
		[]string{"platform"},
	)

	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_errors_total",
			Help: "Total number of per-query fetch failures",
		},
		[]string{"platform"},
	)

	AlertsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Total number of alert card batches delivered",
		},
		[]string{"platform"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version"},
	)
)

// Init sets gauge metrics with their startup values
func Init(serviceName, version string) {
	ApplicationInfo.WithLabelValues(serviceName, version).Set(1)
}
