// Package agent – metrics.go defines the Prometheus instruments for the
// orchestration path. Exposed on the gateway's /metrics endpoint.
package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "messages_processed_total",
		Help:      "Orchestration turns by routed domain.",
	}, []string{"domain"})

	turnFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "turn_failures_total",
		Help:      "Turns that ended in the apologetic fallback reply.",
	})

	toolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "tool_executions_total",
		Help:      "Tool executions by tool name and outcome.",
	}, []string{"tool", "outcome"})

	fallbackParses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "fallback_tool_parses_total",
		Help:      "Tool calls recovered from inline pseudo-XML output.",
	})

	modelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "finbot",
		Name:      "model_latency_seconds",
		Help:      "Chat completion round-trip latency.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)
