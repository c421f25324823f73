package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bf6_tracker"

// Metrics owns an isolated registry so tests can build as many as they like
// without colliding on the default registerer. All methods are nil-safe.
type Metrics struct {
	registry *prometheus.Registry

	browserLaunches *prometheus.CounterVec
	browserContexts prometheus.Gauge
	fetchDuration   *prometheus.HistogramVec
	reconciliations *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		browserLaunches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "launches_total",
			Help:      "Shared browser launch attempts by result.",
		}, []string{"result"}),
		browserContexts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "browser",
			Name:      "open_contexts",
			Help:      "Browsing contexts currently open in the shared browser.",
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency by endpoint and outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"endpoint", "outcome"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Snapshot reconciliations by whether any data was present.",
		}, []string{"has_data"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by path and status code.",
		}, []string{"method", "path", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		m.browserLaunches,
		m.browserContexts,
		m.fetchDuration,
		m.reconciliations,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveLaunch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.browserLaunches.WithLabelValues(result).Inc()
}

func (m *Metrics) ContextOpened() {
	if m == nil {
		return
	}
	m.browserContexts.Inc()
}

func (m *Metrics) ContextClosed() {
	if m == nil {
		return
	}
	m.browserContexts.Dec()
}

func (m *Metrics) ObserveFetch(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(endpoint, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveReconcile(hasData bool) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(strconv.FormatBool(hasData)).Inc()
}

func (m *Metrics) ObserveRequest(method, path string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
