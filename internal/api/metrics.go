package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nxmeta/internal/dataset"
	"nxmeta/internal/grouping"
)

// Metrics holds the collectors served on /metrics. Each server has its own
// registry so tests can create servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	reloadsTotal   *prometheus.CounterVec
	edges          prometheus.Gauge
	components     *prometheus.GaugeVec
	lineageLookups *prometheus.CounterVec
}

// NewMetrics registers the nxmeta collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{registry: reg}

	m.requestsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nxmeta_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.requestDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nxmeta_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.inFlight = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "nxmeta_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	m.reloadsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nxmeta_dataset_reloads_total",
			Help: "Dataset reloads by result",
		},
		[]string{"result"},
	)
	m.edges = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "nxmeta_dataset_edges",
			Help: "Inheritance edges in the current dataset",
		},
	)
	m.components = promauto.With(reg).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nxmeta_dataset_components",
			Help: "Components in the current dataset by category",
		},
		[]string{"category"},
	)
	m.lineageLookups = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nxmeta_lineage_lookups_total",
			Help: "Lineage lookups by cache outcome",
		},
		[]string{"cache"},
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSnapshot updates the dataset gauges.
func (m *Metrics) ObserveSnapshot(s *dataset.Snapshot) {
	m.edges.Set(float64(len(s.Edges)))
	for _, c := range grouping.Order {
		m.components.WithLabelValues(string(c)).Set(float64(len(s.Groups[c])))
	}
}

// ObserveReload counts one reload attempt.
func (m *Metrics) ObserveReload(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.reloadsTotal.WithLabelValues(result).Inc()
}

// ObserveLineage counts one lineage lookup.
func (m *Metrics) ObserveLineage(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.lineageLookups.WithLabelValues(outcome).Inc()
}
