package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API, the
// source fetcher and the watcher.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchTotal      *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	watcherRuns     prometheus.Counter
	watcherChanges  *prometheus.CounterVec
	notifyTotal     *prometheus.CounterVec
	parseDuration   prometheus.Observer
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

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "source_fetch_duration_seconds",
		Help:    "Duration of upstream page and sheet fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "source_fetch_total",
		Help: "Total upstream fetches by kind and outcome",
	}, []string{"kind", "outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	watcherRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "watcher_runs_total",
		Help: "Total watcher check cycles",
	})

	watcherChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watcher_changes_total",
		Help: "Detected timetable changes by kind",
	}, []string{"kind"})

	notifyTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification deliveries by outcome",
	}, []string{"outcome"})

	parseDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tab_parse_duration_seconds",
		Help:    "Duration of timetable tab parsing",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, fetchDuration, fetchTotal,
		cacheHits, cacheMisses, watcherRuns, watcherChanges, notifyTotal, parseDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		fetchDuration:   fetchDuration,
		fetchTotal:      fetchTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		watcherRuns:     watcherRuns,
		watcherChanges:  watcherChanges,
		notifyTotal:     notifyTotal,
		parseDuration:   parseDuration,
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

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveFetch records one upstream fetch.
func (m *MetricsService) ObserveFetch(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	m.fetchTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordWatcherRun counts one completed watcher cycle.
func (m *MetricsService) RecordWatcherRun() {
	if m == nil {
		return
	}
	m.watcherRuns.Inc()
}

// RecordWatcherChange counts a detected change of the given kind.
func (m *MetricsService) RecordWatcherChange(kind string) {
	if m == nil {
		return
	}
	m.watcherChanges.WithLabelValues(kind).Inc()
}

// RecordNotification counts one delivery attempt.
func (m *MetricsService) RecordNotification(err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notifyTotal.WithLabelValues(outcome).Inc()
}

// ObserveParse records the time spent parsing one tab.
func (m *MetricsService) ObserveParse(duration time.Duration) {
	if m == nil {
		return
	}
	m.parseDuration.Observe(duration.Seconds())
}
