package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the pipeline.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLatency  prometheus.Observer
	cacheWrite    prometheus.Observer
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	recomputeDuration *prometheus.HistogramVec
	batchRunDuration  *prometheus.HistogramVec
	batchProcessed    *prometheus.CounterVec
	batchErrors       *prometheus.CounterVec
	alertsEmitted     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	recomputeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_recompute_duration_seconds",
		Help:    "Duration of single-student snapshot recomputation",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	batchRunDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batch_run_duration_seconds",
		Help:    "Duration of batch recomputation runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"kind"})

	batchProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_students_processed_total",
		Help: "Students successfully recomputed per batch run kind",
	}, []string{"kind"})

	batchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_student_errors_total",
		Help: "Per-student failures isolated during batch runs",
	}, []string{"kind"})

	alertsEmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risk_alerts_emitted_total",
		Help: "Risk alerts emitted by the pipeline",
	})

	registry.MustRegister(
		collectors.NewGoCollector(),
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHits, cacheMisses,
		dbQueryDuration,
		recomputeDuration, batchRunDuration, batchProcessed, batchErrors,
		alertsEmitted,
	)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		dbQueryDuration:   dbQueryDuration,
		recomputeDuration: recomputeDuration,
		batchRunDuration:  batchRunDuration,
		batchProcessed:    batchProcessed,
		batchErrors:       batchErrors,
		alertsEmitted:     alertsEmitted,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCacheOperation tracks a cache lookup outcome.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks a cache set operation.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	s.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery tracks a database query duration.
func (s *MetricsService) ObserveDBQuery(query string, duration time.Duration) {
	s.dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// ObserveRecompute tracks one snapshot recomputation.
func (s *MetricsService) ObserveRecompute(success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	s.recomputeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveBatchRun tracks a completed batch run.
func (s *MetricsService) ObserveBatchRun(kind string, processed, errors int, duration time.Duration) {
	s.batchRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
	s.batchProcessed.WithLabelValues(kind).Add(float64(processed))
	s.batchErrors.WithLabelValues(kind).Add(float64(errors))
}

// RecordAlertEmitted counts an emitted risk alert.
func (s *MetricsService) RecordAlertEmitted() {
	s.alertsEmitted.Inc()
}
