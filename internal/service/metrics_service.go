package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the inbox API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	statsSource     *prometheus.CounterVec
	staleListings   prometheus.Counter
	triageActions   *prometheus.CounterVec
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

	statsSource := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inbox_statistics_source_total",
		Help: "Statistics responses by serving source (legacy, sql, local)",
	}, []string{"source"})

	staleListings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inbox_stale_listings_total",
		Help: "Queue listings served from the last known good snapshot",
	})

	triageActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inbox_triage_actions_total",
		Help: "Triage actions by name and outcome",
	}, []string{"action", "outcome"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, statsSource, staleListings, triageActions, dbQueryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		statsSource:     statsSource,
		staleListings:   staleListings,
		triageActions:   triageActions,
		dbQueryDuration: dbQueryDuration,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveStatisticsSource counts which provider served a statistics request.
// A rising "local" share means both the legacy backend and storage are down.
func (m *MetricsService) ObserveStatisticsSource(source string) {
	if m == nil {
		return
	}
	m.statsSource.WithLabelValues(source).Inc()
}

// ObserveStaleListing counts a queue listing served from snapshot.
func (m *MetricsService) ObserveStaleListing() {
	if m == nil {
		return
	}
	m.staleListings.Inc()
}

// ObserveTriageAction counts a dispatched triage action and its outcome.
func (m *MetricsService) ObserveTriageAction(action, outcome string) {
	if m == nil {
		return
	}
	m.triageActions.WithLabelValues(action, outcome).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}
