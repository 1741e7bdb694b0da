// Package observability provides Prometheus metrics for the dashboard.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Source metrics
	QuoteFetches     *prometheus.CounterVec
	QuoteFetchTime   *prometheus.HistogramVec
	ReferenceFetches *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Pipeline metrics
	PipelineRuns *prometheus.CounterVec
	WindowRows   prometheus.Histogram

	// Recorder metrics
	RecorderErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "share_analysis"
	}

	return &Metrics{
		QuoteFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "quote_fetches_total",
			Help:      "Total number of quote fetches by source and status",
		}, []string{"source", "status"}),
		QuoteFetchTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "quote_fetch_duration_seconds",
			Help:      "Quote fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		ReferenceFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "reference_fetches_total",
			Help:      "Total number of reference table fetches by status",
		}, []string{"status"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache lookups by cache and result",
		}, []string{"cache", "result"}),

		PipelineRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		WindowRows: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "window_rows",
			Help:      "Rows in each rendered display window",
			Buckets:   []float64{30, 60, 90, 120, 150, 200, 260},
		}),

		RecorderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "errors_total",
			Help:      "Total number of failed recorder writes by kind",
		}, []string{"kind"}),
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordQuoteFetch records one quote fetch.
func RecordQuoteFetch(source string, seconds float64, err error) {
	DefaultMetrics.QuoteFetches.WithLabelValues(source, status(err)).Inc()
	DefaultMetrics.QuoteFetchTime.WithLabelValues(source).Observe(seconds)
}

// RecordReferenceFetch records one reference table fetch.
func RecordReferenceFetch(err error) {
	DefaultMetrics.ReferenceFetches.WithLabelValues(status(err)).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordPipelineRun records a pipeline run and, on success, the window size.
func RecordPipelineRun(rows int, err error) {
	DefaultMetrics.PipelineRuns.WithLabelValues(status(err)).Inc()
	if err == nil {
		DefaultMetrics.WindowRows.Observe(float64(rows))
	}
}

// RecordRecorderError records a failed recorder write.
func RecordRecorderError(kind string) {
	DefaultMetrics.RecorderErrors.WithLabelValues(kind).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
