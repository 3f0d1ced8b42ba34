// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMStreamDuration tracks quote generation stream duration.
	LLMStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_stream_duration_seconds",
			Help:    "Quote generation streaming duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total tokens processed by the quote model.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// MintStageDuration tracks mint pipeline stage duration.
	MintStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mint_stage_duration_seconds",
			Help:    "Mint pipeline stage duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"stage", "status"},
	)

	// MintPipelinesTotal tracks completed mint pipeline runs.
	MintPipelinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mint_pipelines_total",
			Help: "Total mint pipeline runs by outcome",
		},
		[]string{"status"},
	)

	// PinDuration tracks pinning service call duration.
	PinDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pin_request_duration_seconds",
			Help:    "Pinning service request duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"kind", "status"},
	)

	// RateLimitRejectionsTotal tracks rejected requests by limiter scope.
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMStream records metrics for a quote generation stream.
func RecordLLMStream(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMStreamDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordMintStage records one mint pipeline stage outcome.
func RecordMintStage(stage, status string, duration float64) {
	MintStageDuration.WithLabelValues(stage, status).Observe(duration)
}

// RecordMintPipeline records one completed pipeline run.
func RecordMintPipeline(status string) {
	MintPipelinesTotal.WithLabelValues(status).Inc()
}

// RecordPin records one pinning service call.
func RecordPin(kind, status string, duration float64) {
	PinDuration.WithLabelValues(kind, status).Observe(duration)
}

// RecordRateLimitRejection records one rejected request.
func RecordRateLimitRejection(scope string) {
	RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
