package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the schedule
// domain.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	overridesTotal  *prometheus.CounterVec
	interchanges    *prometheus.CounterVec
	reconcileTime   prometheus.Histogram
	dbQueryDuration *prometheus.HistogramVec
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

	overridesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_overrides_total",
		Help: "Override transitions by kind and outcome",
	}, []string{"kind", "outcome"})

	interchanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interchange_resolutions_total",
		Help: "Interchange request resolutions by outcome",
	}, []string{"outcome"})

	reconcileTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_reconcile_seconds",
		Help:    "Time spent merging overrides onto base assignments",
		Buckets: prometheus.DefBuckets,
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	registry.MustRegister(requestDuration, requestTotal, overridesTotal, interchanges, reconcileTime, dbQueryDuration)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		overridesTotal:  overridesTotal,
		interchanges:    interchanges,
		reconcileTime:   reconcileTime,
		dbQueryDuration: dbQueryDuration,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return s.handler
}

// ObserveHTTPRequest records one request observation.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordOverrideTransition counts override lifecycle outcomes.
func (s *MetricsService) RecordOverrideTransition(kind, outcome string) {
	if s == nil {
		return
	}
	s.overridesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordInterchangeResolution counts interchange outcomes.
func (s *MetricsService) RecordInterchangeResolution(outcome string) {
	if s == nil {
		return
	}
	s.interchanges.WithLabelValues(outcome).Inc()
}

// ObserveReconcile records one effective-view merge duration.
func (s *MetricsService) ObserveReconcile(duration time.Duration) {
	if s == nil {
		return
	}
	s.reconcileTime.Observe(duration.Seconds())
}

// ObserveDBQuery records one database query duration.
func (s *MetricsService) ObserveDBQuery(operation string, duration time.Duration) {
	if s == nil {
		return
	}
	s.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
