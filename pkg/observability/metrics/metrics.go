// Package metrics defines the Prometheus metrics exported by the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCount tracks inbound API requests by route and outcome status.
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpt_gateway_requests_total",
			Help: "The total number of API requests handled",
		},
		[]string{"path", "status"},
	)

	// RequestLatency tracks end-to-end request handling latency.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpt_gateway_request_duration_seconds",
			Help:    "The duration of API request handling in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"path"},
	)

	// RateLimitDenials tracks requests rejected by the token bucket limiter.
	RateLimitDenials = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpt_gateway_rate_limit_denials_total",
			Help: "The total number of requests denied by the rate limiter",
		},
	)

	// JailbreakDetections tracks inputs flagged by the jailbreak screen.
	JailbreakDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpt_gateway_jailbreak_detections_total",
			Help: "The total number of inputs flagged as jailbreak attempts",
		},
	)

	// CacheLookups tracks RAG query cache lookups by result (hit/miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpt_gateway_query_cache_lookups_total",
			Help: "The total number of query cache lookups",
		},
		[]string{"result"},
	)

	// GenerationLatency tracks the latency of answer generation calls.
	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpt_gateway_generation_duration_seconds",
			Help:    "The duration of LLM generation calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
)

// RecordCacheLookup records a cache lookup outcome.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
	} else {
		CacheLookups.WithLabelValues("miss").Inc()
	}
}
