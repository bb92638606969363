// Package metrics provides Prometheus metrics export for the AI service.
package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "staynest"
	subsystem = "ai"
)

// PrometheusExporter exports AI metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	// Recommendation metrics
	recommendRequests *prometheus.CounterVec
	recommendLatency  *prometheus.HistogramVec

	// Vector search metrics
	vectorSearchLatency *prometheus.HistogramVec
	vectorSearchResults prometheus.Histogram

	// Chat metrics
	chatRequests *prometheus.CounterVec
	chatLatency  prometheus.Histogram

	// LLM token metrics
	llmTokensUsed   *prometheus.CounterVec
	llmTokensCached *prometheus.CounterVec

	// Backfill metrics
	backfillListings *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
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

	e.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	e.httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"route", "method"},
	)

	e.recommendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"strategy", "status"},
	)

	e.recommendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recommend_latency_seconds",
			Help:      "Recommendation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"strategy"},
	)

	e.vectorSearchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "vector_search_latency_seconds",
			Help:      "Vector search latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"status"},
	)

	e.vectorSearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "vector_search_results",
			Help:      "Number of matches returned per vector search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"status"},
	)

	e.chatLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_latency_seconds",
			Help:      "Chat request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmTokensCached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_tokens_cached_total",
			Help:      "Total LLM tokens served from cache",
		},
		[]string{"model"},
	)

	e.backfillListings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backfill_listings_total",
			Help:      "Listings handled by the embedding backfill",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		e.httpRequests,
		e.httpLatency,
		e.recommendRequests,
		e.recommendLatency,
		e.vectorSearchLatency,
		e.vectorSearchResults,
		e.chatRequests,
		e.chatLatency,
		e.llmTokensUsed,
		e.llmTokensCached,
		e.backfillListings,
	)

	return e
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records one served HTTP request.
func (e *PrometheusExporter) RecordHTTPRequest(route, method string, status int, latency time.Duration) {
	e.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	e.httpLatency.WithLabelValues(route, method).Observe(latency.Seconds())
}

// RecordRecommendation records a recommendation request for a strategy.
func (e *PrometheusExporter) RecordRecommendation(strategy string, latency time.Duration, success bool) {
	e.recommendRequests.WithLabelValues(strategy, statusLabel(success)).Inc()
	e.recommendLatency.WithLabelValues(strategy).Observe(latency.Seconds())
}

// RecordVectorSearch records a vector search and the number of matches it returned.
func (e *PrometheusExporter) RecordVectorSearch(latency time.Duration, results int, success bool) {
	e.vectorSearchLatency.WithLabelValues(statusLabel(success)).Observe(latency.Seconds())
	if success {
		e.vectorSearchResults.Observe(float64(results))
	}
}

// RecordChatRequest records a chat request metric.
func (e *PrometheusExporter) RecordChatRequest(latency time.Duration, success bool) {
	e.chatRequests.WithLabelValues(statusLabel(success)).Inc()
	e.chatLatency.Observe(latency.Seconds())
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model string, promptTokens, completionTokens, cachedTokens int) {
	e.llmTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	e.llmTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	if cachedTokens > 0 {
		e.llmTokensCached.WithLabelValues(model).Add(float64(cachedTokens))
	}
}

// RecordBackfill records listings updated and skipped by one backfill batch.
func (e *PrometheusExporter) RecordBackfill(updated, skipped int) {
	e.backfillListings.WithLabelValues("updated").Add(float64(updated))
	e.backfillListings.WithLabelValues("skipped").Add(float64(skipped))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}

// ExportText exports metrics in a compact text form for logs and debugging.
func (e *PrometheusExporter) ExportText() (string, error) {
	var sb strings.Builder

	families, err := e.registry.Gather()
	if err != nil {
		slog.Error("failed to gather metrics", "error", err)
		return "", err
	}

	for _, mf := range families {
		sb.WriteString("# TYPE ")
		sb.WriteString(mf.GetName())
		sb.WriteString(" ")
		sb.WriteString(mf.GetType().String())
		sb.WriteString("\n")

		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}

			sb.WriteString(mf.GetName())
			if len(m.GetLabel()) > 0 {
				labels := make([]string, 0, len(m.GetLabel()))
				for _, label := range m.GetLabel() {
					labels = append(labels, label.GetName()+"=\""+label.GetValue()+"\"")
				}
				sort.Strings(labels)
				sb.WriteString("{")
				sb.WriteString(strings.Join(labels, ","))
				sb.WriteString("}")
			}
			sb.WriteString(" ")
			sb.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
