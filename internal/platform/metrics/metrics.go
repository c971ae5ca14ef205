// Package metrics holds the process wide prometheus collectors
package metrics

import (
	perr "sentimentd/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentimentd"

// HTTP
var (
	// HTTPRequestsTotal counts requests by method, route pattern and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInFlight tracks requests currently being served
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "HTTP requests currently being processed",
		},
	)
)

// Classification
var (
	// ClassifyRequestsTotal counts classify calls by outcome (ok or an error code name)
	ClassifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "requests_total",
			Help:      "Classify calls by outcome",
		},
		[]string{"outcome"},
	)

	// ClassifyItemsTotal counts classified texts by label
	ClassifyItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "items_total",
			Help:      "Classified texts by predicted label",
		},
		[]string{"label"},
	)

	// ClassifyBatchSize tracks the number of texts per classify call
	ClassifyBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "batch_size",
			Help:      "Texts per classify call",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
	)

	// ClassifyDuration tracks end to end classify latency
	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "duration_seconds",
			Help:      "Classify call duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// NormalizeCacheTotal counts normalizer cache lookups by result (hit or miss)
	NormalizeCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "cache_lookups_total",
			Help:      "Normalizer cache lookups by result",
		},
		[]string{"result"},
	)
)

// Inference
var (
	// InferenceCallsTotal counts ScoreBatch calls by engine and outcome
	InferenceCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "calls_total",
			Help:      "Inference batch calls by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)

	// InferenceDuration tracks ScoreBatch latency by engine
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Inference batch duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"engine"},
	)

	// InferenceInFlight tracks admitted ScoreBatch calls
	InferenceInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "in_flight",
			Help:      "Inference batch calls currently admitted",
		},
	)

	// InferenceAdmissionWait tracks time spent waiting for an admission slot
	InferenceAdmissionWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "admission_wait_seconds",
			Help:      "Time spent waiting for an inference slot",
			Buckets:   []float64{.0001, .001, .01, .05, .1, .5, 1, 5},
		},
	)

	// CircuitBreakerState tracks breaker state by component (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// CircuitBreakerStateChanges counts breaker transitions by component and new state
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Circuit breaker transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Storage
var (
	// HistoryWritesTotal counts history batch writes by backend and outcome
	HistoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "writes_total",
			Help:      "Prediction history batch writes by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	// DBQueryDuration tracks postgres query latency by statement verb
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal counts failed postgres queries by statement verb
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Database query errors",
		},
		[]string{"query"},
	)
)

// Outcome maps err to a bounded label value: "ok" or the error's code name
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return perr.CodeOf(err).String()
}
