// Package metrics provides Prometheus instrumentation for Kindred.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors for Kindred.
type Metrics struct {
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	RecommendationsServed *prometheus.CounterVec
	ResultSize            *prometheus.HistogramVec
	SnapshotBuilds        prometheus.Counter
	SnapshotBuildDuration prometheus.Histogram
	CatalogProducts       prometheus.Gauge
	VocabularySize        prometheus.Gauge
	ActiveRequests        prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all Kindred metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// Include default Go and process collectors
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kindred_requests_total",
				Help: "Total HTTP requests by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kindred_request_duration_seconds",
				Help:    "HTTP request latency distribution.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"endpoint"},
		),
		RecommendationsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kindred_recommendations_total",
				Help: "Recommendation responses served by path (ranked/fallback).",
			},
			[]string{"path"},
		),
		ResultSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kindred_result_size",
				Help:    "Number of entries per recommendation response.",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"path"},
		),
		SnapshotBuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kindred_snapshot_builds_total",
				Help: "Total catalog snapshot rebuilds.",
			},
		),
		SnapshotBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kindred_snapshot_build_duration_seconds",
				Help:    "Catalog snapshot build latency distribution.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		CatalogProducts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kindred_catalog_products",
				Help: "Products in the current catalog snapshot.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kindred_vocabulary_size",
				Help: "Terms in the current vector-space vocabulary.",
			},
		),
		ActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kindred_active_requests",
				Help: "Number of requests currently being processed.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RecommendationsServed,
		m.ResultSize,
		m.SnapshotBuilds,
		m.SnapshotBuildDuration,
		m.CatalogProducts,
		m.VocabularySize,
		m.ActiveRequests,
	)

	return m
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records a completed request's metrics.
func (m *Metrics) RecordRequest(endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records a served recommendation response.
func (m *Metrics) RecordRecommendation(path string, returned int) {
	m.RecommendationsServed.WithLabelValues(path).Inc()
	m.ResultSize.WithLabelValues(path).Observe(float64(returned))
}

// RecordSnapshotBuild records a completed catalog rebuild.
func (m *Metrics) RecordSnapshotBuild(products, vocabulary int, duration time.Duration) {
	m.SnapshotBuilds.Inc()
	m.SnapshotBuildDuration.Observe(duration.Seconds())
	m.CatalogProducts.Set(float64(products))
	m.VocabularySize.Set(float64(vocabulary))
}

// Middleware returns an HTTP middleware that instruments requests.
func (m *Metrics) Middleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.ActiveRequests.Inc()
		defer m.ActiveRequests.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		m.RecordRequest(endpoint, rec.status, time.Since(start))
	}
}

// statusRecorder captures the response status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
