package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for roster operations.
const (
	OutcomeOK      = "ok"
	OutcomeAbsent  = "absent"
	OutcomeRefused = "refused"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for the roster.
type Metrics struct {
	Operations    *prometheus.CounterVec
	HistoryLength prometheus.Histogram
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_operations_total",
			Help: "Roster operations by name and outcome",
		}, []string{"operation", "outcome"}),
		HistoryLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_update_history_length",
			Help:    "Length of a record's update history after a governed update",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.HistoryLength)
	}
	return m
}

// Observe counts one operation. Safe on a nil receiver so the service can
// run without metrics.
func (m *Metrics) Observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHistory records the history length after an update.
func (m *Metrics) ObserveHistory(length int) {
	if m == nil {
		return
	}
	m.HistoryLength.Observe(float64(length))
}
