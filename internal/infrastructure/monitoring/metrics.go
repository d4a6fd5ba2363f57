// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector holds the service's Prometheus metrics on its own registry
type MetricsCollector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Swap metrics
	suggestRequestsTotal *prometheus.CounterVec
	suggestionsReturned  prometheus.Histogram
	engineDuration       prometheus.Histogram
	swapsAppliedTotal    prometheus.Counter
	cacheOperations      *prometheus.CounterVec
}

// NewMetricsCollector creates the collector and registers Go and process
// collectors alongside the service metrics.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		suggestRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealswap_suggest_requests_total",
				Help: "Swap suggestion requests by outcome",
			},
			[]string{"outcome"},
		),
		suggestionsReturned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealswap_suggestions_returned",
				Help:    "Number of suggestions returned per request",
				Buckets: []float64{0, 1, 2},
			},
		),
		engineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealswap_engine_duration_seconds",
				Help:    "Time spent in the swap engine per request",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		swapsAppliedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mealswap_swaps_applied_total",
				Help: "Swaps applied to stored meals",
			},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealswap_cache_operations_total",
				Help: "Suggestion cache operations by result",
			},
			[]string{"operation", "result"},
		),
	}
}

// RecordHTTPRequest records one served request
func (m *MetricsCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSuggestions records a computed (not cached) suggestion run
func (m *MetricsCollector) RecordSuggestions(count int, duration time.Duration) {
	outcome := "empty"
	if count > 0 {
		outcome = "suggested"
	}
	m.suggestRequestsTotal.WithLabelValues(outcome).Inc()
	m.suggestionsReturned.Observe(float64(count))
	m.engineDuration.Observe(duration.Seconds())
}

// RecordSwapApplied counts an applied swap
func (m *MetricsCollector) RecordSwapApplied() {
	m.swapsAppliedTotal.Inc()
}

// RecordCacheOperation counts a cache hit, miss or error
func (m *MetricsCollector) RecordCacheOperation(operation, result string) {
	m.cacheOperations.WithLabelValues(operation, result).Inc()
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
