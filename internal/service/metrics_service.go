package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report outcomes recorded by MetricsService.RecordReportGenerated.
const (
	ReportOutcomeImproving = "improving"
	ReportOutcomeStalled   = "stalled"
	ReportOutcomeEmpty     = "empty"
)

// MetricsService encapsulates Prometheus instrumentation. A nil receiver is a
// valid no-op so services can run without metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	measurements     *prometheus.CounterVec
	goalsMastered    *prometheus.CounterVec
	reportsGenerated *prometheus.CounterVec
	collabDecisions  *prometheus.CounterVec
	jobsFinished     *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers HTTP, cache and therapy domain collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "therapy_measurements_applied_total",
			Help: "Goal measurements applied, by discipline",
		}, []string{"discipline"}),
		goalsMastered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "therapy_goals_mastered_total",
			Help: "Goals that transitioned to mastered, by discipline",
		}, []string{"discipline"}),
		reportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "therapy_reports_generated_total",
			Help: "Progress reports generated, by outcome",
		}, []string{"outcome"}),
		collabDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "therapy_collaboration_decisions_total",
			Help: "Collaboration request decisions",
		}, []string{"decision"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "background_jobs_total",
			Help: "Background job attempts, by kind and result",
		}, []string{"kind", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "background_job_duration_seconds",
			Help:    "Duration of background job attempts",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheWrite,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses, m.measurements, m.goalsMastered, m.reportsGenerated,
		m.collabDecisions, m.jobsFinished, m.jobDuration, goroutines)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordMeasurement counts an applied goal measurement.
func (m *MetricsService) RecordMeasurement(discipline string, mastered bool) {
	if m == nil {
		return
	}
	m.measurements.WithLabelValues(discipline).Inc()
	if mastered {
		m.goalsMastered.WithLabelValues(discipline).Inc()
	}
}

// RecordReportGenerated counts a persisted progress report.
func (m *MetricsService) RecordReportGenerated(outcome string) {
	if m == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(outcome).Inc()
}

// RecordCollaborationDecision counts accepted and declined requests.
func (m *MetricsService) RecordCollaborationDecision(decision string) {
	if m == nil {
		return
	}
	m.collabDecisions.WithLabelValues(decision).Inc()
}

// JobFinished implements jobs.Observer.
func (m *MetricsService) JobFinished(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.jobsFinished.WithLabelValues(kind, result).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
