// Package monitoring provides Prometheus metrics, OpenTelemetry tracing and the admin
// server exposing them
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

const namespace = "fusionchef"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Business metrics
	generationStageDuration *prometheus.HistogramVec
	generationsTotal        *prometheus.CounterVec
	engagementWritesTotal   *prometheus.CounterVec
	feedFetchDuration       *prometheus.HistogramVec
	activeSessions          prometheus.Gauge
}

var _ outbound.Metrics = (*MetricsCollector)(nil)

// NewMetricsCollector registers every metric on a dedicated registry together with the
// Go runtime and process collectors
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path", "status_code"},
		),

		generationStageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_stage_duration_seconds",
				Help:      "Duration of each recipe generation stage",
				Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"stage", "status"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Finished recipe generations by outcome",
			},
			[]string{"outcome"},
		),
		engagementWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engagement_writes_total",
				Help:      "Vote, rating, comment and download writes",
			},
			[]string{"action", "status"},
		),
		feedFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feed_fetch_duration_seconds",
				Help:      "Community feed page fetch duration",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"status"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Wizard sessions held in the registry",
			},
		),
	}
}

// Registerer exposes the registry for extra collectors such as the DB pool stats
func (m *MetricsCollector) Registerer() prometheus.Registerer {
	return m.registry
}

// HTTPMiddleware records request metrics labelled with the chi route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.httpRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, path, code).Observe(float64(ww.BytesWritten()))
	})
}

func (m *MetricsCollector) GenerationStage(stage, status string, d time.Duration) {
	m.generationStageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

func (m *MetricsCollector) GenerationFinished(outcome string) {
	m.generationsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) EngagementWrite(action, status string) {
	m.engagementWritesTotal.WithLabelValues(action, status).Inc()
}

func (m *MetricsCollector) FeedFetch(status string, d time.Duration) {
	m.feedFetchDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *MetricsCollector) ActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
