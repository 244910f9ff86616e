// Package metrics provides Prometheus metrics export for query orchestration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wealthsense"

// PrometheusExporter exports query metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Query metrics
	queryLatency  *prometheus.HistogramVec
	queryRequests *prometheus.CounterVec
	queryActive   prometheus.Gauge
	payloads      *prometheus.CounterVec

	// SQL agent metrics
	agentRuns    *prometheus.CounterVec
	agentRounds  prometheus.Histogram
	agentLatency prometheus.Histogram

	handler http.Handler
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets:    []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		RuntimeCollectors: true,
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.queryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "latency_seconds",
			Help:      "Query orchestration latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"shape"},
	)

	e.queryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total number of orchestrated queries",
		},
		[]string{"shape", "status"},
	)

	e.queryActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "active",
			Help:      "Number of queries being orchestrated",
		},
	)

	e.payloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "payloads_total",
			Help:      "Structured payloads by source",
		},
		[]string{"shape", "source"},
	)

	e.agentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sqlagent",
			Name:      "runs_total",
			Help:      "Total number of SQL agent runs by outcome",
		},
		[]string{"outcome"},
	)

	e.agentRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sqlagent",
			Name:      "rounds",
			Help:      "Language model rounds per SQL agent run",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 10},
		},
	)

	e.agentLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sqlagent",
			Name:      "latency_seconds",
			Help:      "SQL agent run latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	registry.MustRegister(
		e.queryLatency,
		e.queryRequests,
		e.queryActive,
		e.payloads,
		e.agentRuns,
		e.agentRounds,
		e.agentLatency,
	)
	if cfg.RuntimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	e.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return e
}

// QueryStarted increments the in-flight gauge. Call QueryFinished when done.
func (e *PrometheusExporter) QueryStarted() {
	e.queryActive.Inc()
}

// QueryFinished records a completed query.
func (e *PrometheusExporter) QueryFinished(shape, status string, duration time.Duration) {
	e.queryActive.Dec()
	e.queryRequests.WithLabelValues(shape, status).Inc()
	e.queryLatency.WithLabelValues(shape).Observe(duration.Seconds())
}

// RecordPayload records where a response payload came from: agent, reference or none.
func (e *PrometheusExporter) RecordPayload(shape, source string) {
	e.payloads.WithLabelValues(shape, source).Inc()
}

// RecordAgentRun records one SQL agent run.
func (e *PrometheusExporter) RecordAgentRun(outcome string, rounds int, duration time.Duration) {
	e.agentRuns.WithLabelValues(outcome).Inc()
	e.agentRounds.Observe(float64(rounds))
	e.agentLatency.Observe(duration.Seconds())
}

// Registry returns the underlying registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// ServeHTTP implements http.Handler.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}
