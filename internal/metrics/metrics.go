package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for AdvisorRequestsTotal.
const (
	OutcomeModel    = "model"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

var (
	once sync.Once

	// AdvisorRequestsTotal counts gateway calls by operation and how they resolved.
	AdvisorRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgreen",
		Subsystem: "advisor",
		Name:      "requests_total",
		Help:      "Total number of advice gateway calls, labeled by operation and outcome (model, fallback, failed).",
	}, []string{"operation", "outcome"})

	// AdvisorDurationSeconds is the time spent waiting on the model endpoint.
	AdvisorDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campusgreen",
		Subsystem: "advisor",
		Name:      "upstream_duration_seconds",
		Help:      "Time spent in a single model endpoint call.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"operation"})

	InFlightRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusgreen",
		Subsystem: "api",
		Name:      "inflight_rejected_total",
		Help:      "Requests rejected because the same user already had that operation outstanding.",
	}, []string{"operation"})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AdvisorRequestsTotal,
			AdvisorDurationSeconds,
			InFlightRejectedTotal,
		)
	})
}
