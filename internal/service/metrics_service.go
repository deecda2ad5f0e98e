package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// wellbeing domain.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	moodEntries        *prometheus.CounterVec
	appointmentsBooked *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	slotsReplenished   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private registry.
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

	moodEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisupport_mood_entries_total",
		Help: "Mood entries logged, by score",
	}, []string{"score"})

	appointmentsBooked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisupport_appointments_booked_total",
		Help: "Appointments booked, by service type",
	}, []string{"service_type"})

	validationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisupport_validation_failures_total",
		Help: "Rejected ledger operations, by operation",
	}, []string{"operation"})

	slotsReplenished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisupport_slots_replenished_total",
		Help: "Appointment slots added by replenishment, by service type",
	}, []string{"service_type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		moodEntries, appointmentsBooked, validationFailures, slotsReplenished, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		moodEntries:        moodEntries,
		appointmentsBooked: appointmentsBooked,
		validationFailures: validationFailures,
		slotsReplenished:   slotsReplenished,
	}
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

// Registry returns the underlying registry.
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

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordMood counts a logged mood entry.
func (m *MetricsService) RecordMood(score int) {
	if m == nil {
		return
	}
	m.moodEntries.WithLabelValues(strconv.Itoa(score)).Inc()
}

// RecordBooking counts a booked appointment.
func (m *MetricsService) RecordBooking(serviceType string) {
	if m == nil {
		return
	}
	m.appointmentsBooked.WithLabelValues(serviceType).Inc()
}

// RecordValidationFailure counts a rejected ledger operation.
func (m *MetricsService) RecordValidationFailure(operation string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(operation).Inc()
}

// RecordReplenished counts slots added for a service.
func (m *MetricsService) RecordReplenished(serviceType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.slotsReplenished.WithLabelValues(serviceType).Add(float64(count))
}
