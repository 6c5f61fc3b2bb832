// Package metrics provides Prometheus instrumentation for the retryexec server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsSubmitted counts executions accepted by the API.
	ExecutionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryexec",
		Name:      "executions_submitted_total",
		Help:      "Total number of executions submitted.",
	}, []string{"queue", "kind"})

	// ExecutionsSucceeded counts executions that ended with a successful attempt.
	ExecutionsSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryexec",
		Name:      "executions_succeeded_total",
		Help:      "Total number of executions that succeeded.",
	}, []string{"queue", "kind"})

	// ExecutionsFailed counts executions that exhausted all attempts.
	ExecutionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryexec",
		Name:      "executions_failed_total",
		Help:      "Total number of executions that exhausted their attempts.",
	}, []string{"queue", "kind"})

	// ExecutionsCancelled counts executions cancelled before a terminal attempt.
	ExecutionsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryexec",
		Name:      "executions_cancelled_total",
		Help:      "Total number of executions cancelled.",
	}, []string{"queue", "kind"})

	// AttemptsTotal counts individual attempts by outcome.
	AttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryexec",
		Name:      "attempts_total",
		Help:      "Total number of operation attempts.",
	}, []string{"queue", "kind", "outcome"})

	// AttemptsPerExecution tracks how many attempts an execution consumed.
	AttemptsPerExecution = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retryexec",
		Name:      "attempts_per_execution",
		Help:      "Number of attempts consumed by one execution.",
		Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
	}, []string{"queue", "kind"})

	// ExecutionDuration tracks wall-clock duration from start to terminal state.
	ExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retryexec",
		Name:      "execution_duration_seconds",
		Help:      "Duration of execution from first attempt to terminal state.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"queue", "kind"})

	// QueueDepth tracks the number of executions waiting in each queue.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "retryexec",
		Name:      "queue_depth",
		Help:      "Number of executions waiting in queue.",
	}, []string{"queue"})

	// ExecutionsRunning tracks currently running executions.
	ExecutionsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "retryexec",
		Name:      "executions_running",
		Help:      "Number of currently running executions.",
	})

	// ServerInfo exposes static server metadata as labels.
	ServerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "retryexec",
		Name:      "server_info",
		Help:      "Static server metadata.",
	}, []string{"version", "backend"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryexec",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retryexec",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Init sets static server info metadata.
func Init(version, backend string) {
	ServerInfo.WithLabelValues(version, backend).Set(1)
}
