package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// operations console.
type Metrics struct {
	// Orchestrator metrics.
	OperationsStarted  *prometheus.CounterVec   // labels: mode={analysis,prediction}
	OperationsFinished *prometheus.CounterVec   // labels: mode, outcome={succeeded,failed}
	OperationDuration  *prometheus.HistogramVec // labels: mode
	OperationPending   prometheus.Gauge
	StaleResponses     prometheus.Counter
	PartialDegradation prometheus.Counter

	// Backend client metrics.
	BackendRequests        *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	BackendRequestDuration *prometheus.HistogramVec // labels: endpoint

	// Connectivity monitor metrics.
	Probes           *prometheus.CounterVec // labels: outcome={success,error}
	BackendConnected prometheus.Gauge

	// Operation event publishing metrics.
	EventsPublished    prometheus.Counter
	EventPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all console metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		OperationsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "operations_started_total",
			Help:      "Operations started by mode.",
		}, []string{"mode"}),
		OperationsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "operations_finished_total",
			Help:      "Terminal operation transitions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodwatch",
			Name:      "operation_duration_seconds",
			Help:      "Duration from submission to terminal transition.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"mode"}),
		OperationPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "operation_pending",
			Help:      "1 while an operation is pending, 0 otherwise.",
		}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "stale_responses_discarded_total",
			Help:      "Responses discarded because their generation was superseded.",
		}),
		PartialDegradation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "partial_degradations_total",
			Help:      "Analyses that succeeded without building enrichment.",
		}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "backend_requests_total",
			Help:      "Inference backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodwatch",
			Name:      "backend_request_duration_seconds",
			Help:      "Inference backend request duration in seconds.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 120, 300},
		}, []string{"endpoint"}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "probes_total",
			Help:      "Liveness probes by outcome.",
		}, []string{"outcome"}),
		BackendConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "backend_connected",
			Help:      "1 when the last probe succeeded, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "operation_events_published_total",
			Help:      "Operation events successfully written to the events topic.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "operation_event_publish_errors_total",
			Help:      "Failed operation event publishes (best-effort, logged only).",
		}),
	}

	prometheus.MustRegister(
		m.OperationsStarted,
		m.OperationsFinished,
		m.OperationDuration,
		m.OperationPending,
		m.StaleResponses,
		m.PartialDegradation,
		m.BackendRequests,
		m.BackendRequestDuration,
		m.Probes,
		m.BackendConnected,
		m.EventsPublished,
		m.EventPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		OperationsStarted:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "floodwatch", Name: "operations_started_total"}, []string{"mode"}),
		OperationsFinished:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "floodwatch", Name: "operations_finished_total"}, []string{"mode", "outcome"}),
		OperationDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "floodwatch", Name: "operation_duration_seconds"}, []string{"mode"}),
		OperationPending:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "floodwatch", Name: "operation_pending"}),
		StaleResponses:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "floodwatch", Name: "stale_responses_discarded_total"}),
		PartialDegradation:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "floodwatch", Name: "partial_degradations_total"}),
		BackendRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "floodwatch", Name: "backend_requests_total"}, []string{"endpoint", "outcome"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "floodwatch", Name: "backend_request_duration_seconds"}, []string{"endpoint"}),
		Probes:                 prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "floodwatch", Name: "probes_total"}, []string{"outcome"}),
		BackendConnected:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "floodwatch", Name: "backend_connected"}),
		EventsPublished:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "floodwatch", Name: "operation_events_published_total"}),
		EventPublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "floodwatch", Name: "operation_event_publish_errors_total"}),
	}
}
