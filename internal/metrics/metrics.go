package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Invocations counts chat invocations, labeled by backend and outcome.
	Invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_invocations_total",
		Help: "The total number of chat invocations",
	}, []string{"backend", "outcome"}) // outcome: success, configuration, transport, provider, unknown

	// InvocationDuration measures the time taken by a chat invocation (end-to-end).
	InvocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_invocation_duration_seconds",
		Help:    "Time taken to complete a chat invocation",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	// ProviderResponses counts HTTP responses received from the provider.
	ProviderResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_provider_responses_total",
		Help: "The total number of HTTP responses received from the provider",
	}, []string{"status"})

	// HTTPRequests counts requests served by the HTTP API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_http_requests_total",
		Help: "The total number of HTTP API requests",
	}, []string{"route", "status"})

	// HistoryWriteFailures counts exchanges that could not be persisted.
	HistoryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_history_write_failures_total",
		Help: "Total number of exchanges that failed to persist",
	})
)
