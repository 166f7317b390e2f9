package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the HTTP metrics middleware.
type MetricsConfig struct {
	Namespace string
	Subsystem string
	Buckets   []float64
	SkipPaths []string
}

func DefaultMetricsConfig(namespace string) *MetricsConfig {
	return &MetricsConfig{
		Namespace: namespace,
		Subsystem: "http",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		SkipPaths: []string{"/metrics", "/health", "/live", "/ready"},
	}
}

// Metrics holds the HTTP request collectors plus the business counters the
// allocation and stock paths increment.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  *prometheus.GaugeVec

	AllocationDecisions *prometheus.CounterVec
	StockShortages      prometheus.Counter
	StockDriftPairs     prometheus.Gauge
}

// NewMetrics registers all collectors with the default registry.
func NewMetrics(config *MetricsConfig) *Metrics {
	if config == nil {
		config = DefaultMetricsConfig("contracting")
	}

	return &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   config.Buckets,
			},
			[]string{"method", "path", "status"},
		),
		activeRequests: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "requests_active",
				Help:      "Number of in-flight HTTP requests",
			},
			[]string{"method", "path"},
		),
		AllocationDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "allocations",
				Name:      "decisions_total",
				Help:      "Allocation requests decided, by outcome",
			},
			[]string{"outcome"},
		),
		StockShortages: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "stock",
				Name:      "shortages_total",
				Help:      "Allocation items that could not be fully satisfied",
			},
		),
		StockDriftPairs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: "stock",
				Name:      "drift_pairs",
				Help:      "Godown/material pairs where the aggregate disagrees with batch remainders",
			},
		),
	}
}

// Middleware records request counts, latency and in-flight gauge.
func (m *Metrics) Middleware(config *MetricsConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultMetricsConfig("contracting")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			method, path := r.Method, r.URL.Path
			m.activeRequests.WithLabelValues(method, path).Inc()
			defer m.activeRequests.WithLabelValues(method, path).Dec()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			status := strconv.Itoa(rw.statusCode)
			m.requestsTotal.WithLabelValues(method, path, status).Inc()
			m.requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsHandler serves the default registry at GET /metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
