// Package metrics exposes the lazily-initialised Prometheus collectors for
// treasury operations, following the singleton-per-registry pattern used
// throughout this codebase's observability package.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TreasuryMetrics bundles the collectors tracking proposal lifecycle events,
// policy outcomes, and emergency actions for one process.
type TreasuryMetrics struct {
	proposalsCreated   *prometheus.CounterVec
	proposalsExecuted  *prometheus.CounterVec
	proposalsFailed    *prometheus.CounterVec
	proposalsCancelled prometheus.Counter
	signaturesRecorded *prometheus.CounterVec
	policyViolations   *prometheus.CounterVec
	executionLatency   *prometheus.HistogramVec
	emergencyActions   *prometheus.CounterVec
	frozen             prometheus.Gauge
}

var (
	treasuryMetricsOnce sync.Once
	treasuryRegistry    *TreasuryMetrics
)

// Treasury returns the lazily-initialised, process-wide treasury metrics
// registry.
func Treasury() *TreasuryMetrics {
	treasuryMetricsOnce.Do(func() {
		treasuryRegistry = &TreasuryMetrics{
			proposalsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "proposal",
				Name:      "created_total",
				Help:      "Count of proposals created, segmented by category.",
			}, []string{"category"}),
			proposalsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "proposal",
				Name:      "executed_total",
				Help:      "Count of proposals that reached Executed, segmented by category.",
			}, []string{"category"}),
			proposalsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "proposal",
				Name:      "failed_total",
				Help:      "Count of proposals that reached Failed, segmented by category.",
			}, []string{"category"}),
			proposalsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "proposal",
				Name:      "cancelled_total",
				Help:      "Count of proposals cancelled before execution.",
			}),
			signaturesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "proposal",
				Name:      "signatures_total",
				Help:      "Count of signatures recorded against proposals, segmented by signer.",
			}, []string{"signer"}),
			policyViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "policy",
				Name:      "violations_total",
				Help:      "Count of policy violations raised, segmented by policy id.",
			}, []string{"policy_id"}),
			executionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "treasuryguard",
				Subsystem: "proposal",
				Name:      "execution_duration_seconds",
				Help:      "Wall-clock duration of ExecuteProposal calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"outcome"}),
			emergencyActions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "treasuryguard",
				Subsystem: "emergency",
				Name:      "actions_total",
				Help:      "Count of emergency actions segmented by type and outcome.",
			}, []string{"action_type", "outcome"}),
			frozen: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "treasuryguard",
				Subsystem: "emergency",
				Name:      "frozen",
				Help:      "Indicates whether the treasury is currently frozen (1) or not (0).",
			}),
		}
		prometheus.MustRegister(
			treasuryRegistry.proposalsCreated,
			treasuryRegistry.proposalsExecuted,
			treasuryRegistry.proposalsFailed,
			treasuryRegistry.proposalsCancelled,
			treasuryRegistry.signaturesRecorded,
			treasuryRegistry.policyViolations,
			treasuryRegistry.executionLatency,
			treasuryRegistry.emergencyActions,
			treasuryRegistry.frozen,
		)
	})
	return treasuryRegistry
}

// RecordProposalCreated increments the created counter for category.
func (m *TreasuryMetrics) RecordProposalCreated(category string) {
	if m == nil {
		return
	}
	m.proposalsCreated.WithLabelValues(labelOrUnknown(category)).Inc()
}

// RecordProposalExecuted increments the executed counter and observes the
// call's latency.
func (m *TreasuryMetrics) RecordProposalExecuted(category string, d time.Duration) {
	if m == nil {
		return
	}
	m.proposalsExecuted.WithLabelValues(labelOrUnknown(category)).Inc()
	m.executionLatency.WithLabelValues("success").Observe(d.Seconds())
}

// RecordProposalFailed increments the failed counter and observes the call's
// latency under the "failed" outcome label.
func (m *TreasuryMetrics) RecordProposalFailed(category string, d time.Duration) {
	if m == nil {
		return
	}
	m.proposalsFailed.WithLabelValues(labelOrUnknown(category)).Inc()
	m.executionLatency.WithLabelValues("failed").Observe(d.Seconds())
}

// RecordProposalCancelled increments the cancellation counter.
func (m *TreasuryMetrics) RecordProposalCancelled() {
	if m == nil {
		return
	}
	m.proposalsCancelled.Inc()
}

// RecordSignature increments the per-signer signature counter.
func (m *TreasuryMetrics) RecordSignature(signer string) {
	if m == nil {
		return
	}
	m.signaturesRecorded.WithLabelValues(labelOrUnknown(signer)).Inc()
}

// RecordPolicyViolation increments the per-policy violation counter.
func (m *TreasuryMetrics) RecordPolicyViolation(policyID string) {
	if m == nil {
		return
	}
	m.policyViolations.WithLabelValues(labelOrUnknown(policyID)).Inc()
}

// RecordEmergencyAction increments the emergency action counter for the
// given action type and outcome ("created", "signed", "executed", "rejected").
func (m *TreasuryMetrics) RecordEmergencyAction(actionType, outcome string) {
	if m == nil {
		return
	}
	m.emergencyActions.WithLabelValues(labelOrUnknown(actionType), labelOrUnknown(outcome)).Inc()
}

// SetFrozen toggles the frozen gauge.
func (m *TreasuryMetrics) SetFrozen(frozen bool) {
	if m == nil {
		return
	}
	if frozen {
		m.frozen.Set(1)
		return
	}
	m.frozen.Set(0)
}

func labelOrUnknown(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
