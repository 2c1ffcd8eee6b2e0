package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the policy engine and the
// transaction pipeline around it.
type Metrics struct {
	// EvaluationsTotal counts policy evaluations by final decision
	// (approved, rejected, pending_approval).
	EvaluationsTotal *prometheus.CounterVec

	// RuleOutcomesTotal counts per-rule outcomes by rule type and result
	// (passed, failed, flagged, skipped).
	RuleOutcomesTotal *prometheus.CounterVec

	// EvaluationDuration tracks end-to-end evaluation latency, including
	// rule-store and spend-history queries.
	EvaluationDuration prometheus.Histogram

	// AuditBufferFill tracks how full the async audit buffer is.
	AuditBufferFill prometheus.Gauge
}

// NewMetrics registers the instruments against reg. When reg is nil a
// private registry is used so tests can construct metrics without
// colliding with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		EvaluationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_policy_evaluations_total",
			Help: "Total number of policy evaluations by decision.",
		}, []string{"decision"}),

		RuleOutcomesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_rule_outcomes_total",
			Help: "Total number of individual rule outcomes by type and result.",
		}, []string{"rule_type", "result"}),

		EvaluationDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_policy_evaluation_duration_seconds",
			Help:    "Histogram of policy evaluation latencies.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "wallet_audit_buffer_fill",
			Help: "Number of audit events waiting in the async buffer.",
		}),
	}
}
