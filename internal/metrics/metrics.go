// Package metrics provides Prometheus metrics for the multirec recording engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label cardinality is bounded: states, reasons and recorder kinds are closed
// enums. Job IDs never appear in labels.

var (
	// JobTransitionsTotal counts job state machine transitions.
	JobTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multirec_job_transitions_total",
		Help: "Total number of job state transitions, by from and to state.",
	}, []string{"from", "to"})

	// JobOutcomeTotal counts finished jobs by terminal state.
	JobOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multirec_job_outcome_total",
		Help: "Total number of jobs reaching a terminal state, by outcome and reason.",
	}, []string{"outcome", "reason"})

	// BusHandlerPanicsTotal counts event handlers that panicked during dispatch.
	BusHandlerPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multirec_bus_handler_panics_total",
		Help: "Total number of recovered event handler panics, by topic.",
	}, []string{"topic"})

	// ComposerClipsTotal counts clips emitted into composite sequences.
	ComposerClipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multirec_composer_clips_total",
		Help: "Total number of clips placed by the composer, by track kind.",
	}, []string{"kind"})

	// ValidationIssuesTotal counts validation issues by severity.
	ValidationIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multirec_validation_issues_total",
		Help: "Total number of validation issues raised, by severity.",
	}, []string{"severity"})

	// AutoRepairTotal counts auto-repair attempts by strategy and result.
	AutoRepairTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multirec_auto_repair_total",
		Help: "Total number of auto-repair attempts, by strategy and result.",
	}, []string{"strategy", "result"})

	// ActiveJobs tracks the number of non-terminal jobs. By invariant 0 or 1.
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "multirec_active_jobs",
		Help: "Current number of non-terminal recording jobs.",
	})
)

// RecordTransition increments the transition counter for a state change.
func RecordTransition(from, to string) {
	JobTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordOutcome increments the terminal outcome counter.
func RecordOutcome(outcome, reason string) {
	JobOutcomeTotal.WithLabelValues(outcome, reason).Inc()
}

// IncBusHandlerPanic counts one recovered handler panic on a topic.
func IncBusHandlerPanic(topic string) {
	BusHandlerPanicsTotal.WithLabelValues(topic).Inc()
}
