package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeCommitted = "committed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// LedgerMetrics records posting, reversal and period-transition activity. A nil receiver is a no-op.
type LedgerMetrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	auditErrors prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by operation, outcome and error kind.",
	}, []string{"operation", "outcome", "kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_period_transitions_total",
		Help: "Appended period lock-log entries by resulting state.",
	}, []string{"state"})
	auditErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_audit_failures_total",
		Help: "Audit entries the sink failed to accept.",
	})
	reg.MustRegister(operations, duration, transitions, auditErrors)
	return &LedgerMetrics{
		operations:  operations,
		duration:    duration,
		transitions: transitions,
		auditErrors: auditErrors,
	}
}

// ObserveOperation records one finished operation.
func (m *LedgerMetrics) ObserveOperation(operation, outcome, kind string, elapsed time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome), kind).Inc()
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(elapsed.Seconds())
}

// IncTransition counts an appended lock-log entry.
func (m *LedgerMetrics) IncTransition(state string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(state)).Inc()
}

// IncAuditFailure counts a rejected audit write.
func (m *LedgerMetrics) IncAuditFailure() {
	if m == nil || m.auditErrors == nil {
		return
	}
	m.auditErrors.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
