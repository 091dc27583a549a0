package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects pipeline execution metrics.
//
// Metrics exposed (all namespaced with "pipeline_"):
//
//  1. runs_total (counter): Finished runs. Labels: status (completed, rejected).
//  2. nodes_total (counter): Executed nodes. Labels: node_type, status (success, error).
//  3. node_latency_ms (histogram): Node execution duration in milliseconds.
//     Labels: node_type, status.
//  4. node_errors_total (counter): Failed nodes. Labels: node_type, reason
//     (executor, missing_executor, invalid_inputs, timeout, cancelled).
//  5. inflight_runs (gauge): Runs currently executing.
//  6. pending_nodes (gauge): Nodes of the current run not yet executed.
//
// Node ids and run ids are deliberately not used as labels to keep
// cardinality bounded.
//
// Expose via HTTP for Prometheus scraping:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	inflightRuns prometheus.Gauge
	pendingNodes prometheus.Gauge

	nodeLatency *prometheus.HistogramVec

	runs       *prometheus.CounterVec
	nodes      *prometheus.CounterVec
	nodeErrors *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all pipeline metrics with the
// provided registry. A nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{enabled: true}

	pm.inflightRuns = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "pipeline",
		Name:      "inflight_runs",
		Help:      "Number of pipeline runs currently executing",
	})

	pm.pendingNodes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "pipeline",
		Name:      "pending_nodes",
		Help:      "Scheduled nodes not yet executed in the most recently updated run",
	})

	pm.nodeLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pipeline",
		Name:      "node_latency_ms",
		Help:      "Node execution duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"node_type", "status"})

	pm.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipeline",
		Name:      "runs_total",
		Help:      "Finished pipeline runs by outcome",
	}, []string{"status"})

	pm.nodes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipeline",
		Name:      "nodes_total",
		Help:      "Executed nodes by type and outcome",
	}, []string{"node_type", "status"})

	pm.nodeErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pipeline",
		Name:      "node_errors_total",
		Help:      "Failed nodes by type and failure reason",
	}, []string{"node_type", "reason"})

	return pm
}

func (pm *PrometheusMetrics) isEnabled() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RecordNode records one node execution outcome. An empty reason means the
// node succeeded.
func (pm *PrometheusMetrics) RecordNode(nodeType string, latency time.Duration, reason string) {
	if !pm.isEnabled() {
		return
	}
	status := "success"
	if reason != "" {
		status = "error"
		pm.nodeErrors.WithLabelValues(nodeType, reason).Inc()
	}
	pm.nodes.WithLabelValues(nodeType, status).Inc()
	pm.nodeLatency.WithLabelValues(nodeType, status).Observe(float64(latency.Milliseconds()))
}

// RecordRun counts a finished run.
func (pm *PrometheusMetrics) RecordRun(status string) {
	if !pm.isEnabled() {
		return
	}
	pm.runs.WithLabelValues(status).Inc()
}

// RunStarted increments the in-flight run gauge.
func (pm *PrometheusMetrics) RunStarted() {
	if !pm.isEnabled() {
		return
	}
	pm.inflightRuns.Inc()
}

// RunFinished decrements the in-flight run gauge.
func (pm *PrometheusMetrics) RunFinished() {
	if !pm.isEnabled() {
		return
	}
	pm.inflightRuns.Dec()
}

// UpdatePendingNodes sets the number of nodes still waiting to execute.
func (pm *PrometheusMetrics) UpdatePendingNodes(count int) {
	if !pm.isEnabled() {
		return
	}
	pm.pendingNodes.Set(float64(count))
}

// Disable stops metric recording.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable resumes metric recording.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

// Reset zeroes the gauges. Counters and histograms are cumulative.
func (pm *PrometheusMetrics) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.inflightRuns.Set(0)
	pm.pendingNodes.Set(0)
}
