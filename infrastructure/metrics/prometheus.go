// Package metrics exports pipeline and completion metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

const namespace = "rag"

// PrometheusMetrics implements ports.MetricsCollector on a private registry,
// so several instances can coexist in one process and in tests.
//
// Known metric names map onto typed vectors with fixed label sets. Anything
// else is recorded on a generic vector keyed by the metric name.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	queries           *prometheus.CounterVec
	roleTurns         *prometheus.CounterVec
	indexChunks       *prometheus.GaugeVec
	embeddingCache    *prometheus.CounterVec

	llmLatency  *prometheus.HistogramVec
	llmRequests *prometheus.CounterVec
	llmTokens   *prometheus.CounterVec
	llmCircuit  *prometheus.GaugeVec

	events *prometheus.CounterVec
	state  *prometheus.GaugeVec
	values *prometheus.HistogramVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the collector and registers the Go runtime
// and process collectors alongside the pipeline metrics.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,

		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of pipeline operations: retrieval, orchestration, answer and index build.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "path"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Answered queries by path: collaborative, fallback, soft_failed or error.",
		}, []string{"path"}),
		roleTurns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_turns_total",
			Help:      "Completion turns per role and outcome.",
		}, []string{"role", "status"}),
		indexChunks: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the vector index after the last build.",
		}, []string{"embedder"}),
		embeddingCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache lookups by result: hit or miss.",
		}, []string{"result"}),

		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_seconds",
			Help:      "Completion request latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"provider", "model", "role", "status"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Completion requests by outcome.",
		}, []string{"provider", "model", "role", "status"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by completions.",
		}, []string{"provider", "model", "token_type"}),
		llmCircuit: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "llm_circuit_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"provider"}),

		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Counters without a dedicated metric.",
		}, []string{"metric", "provider"}),
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Gauges without a dedicated metric.",
		}, []string{"metric"}),
		values: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "values",
			Help:      "Histograms without a dedicated metric.",
		}, []string{"metric"}),
	}
}

// Registry exposes the underlying registry.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry { return pm.registry }

// Handler serves the registry in the Prometheus exposition format.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{Registry: pm.registry})
}

func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationDuration.WithLabelValues(operation, labels["path"]).Observe(duration.Seconds())
}

func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "rag_queries_total":
		pm.queries.WithLabelValues(labels["path"]).Add(value)
	case "rag_role_turns_total":
		pm.roleTurns.WithLabelValues(labels["role"], labels["status"]).Add(value)
	case "rag_embedding_cache_total":
		pm.embeddingCache.WithLabelValues(labels["result"]).Add(value)
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(labels["provider"], labels["model"], labels["role"], labels["status"]).Add(value)
	case "llm_tokens_total":
		pm.llmTokens.WithLabelValues(labels["provider"], labels["model"], labels["token_type"]).Add(value)
	default:
		pm.events.WithLabelValues(metric, labels["provider"]).Add(value)
	}
}

func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	switch metric {
	case "rag_index_chunks":
		pm.indexChunks.WithLabelValues(labels["embedder"]).Set(value)
	case "llm_circuit_state":
		pm.llmCircuit.WithLabelValues(labels["provider"]).Set(value)
	default:
		pm.state.WithLabelValues(metric).Set(value)
	}
}

func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(labels["provider"], labels["model"], labels["role"], labels["status"]).Observe(value)
	default:
		pm.values.WithLabelValues(metric).Observe(value)
	}
}
