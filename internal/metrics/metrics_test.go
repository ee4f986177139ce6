package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("get_by_id", OutcomeOK)
	m.Observe("get_by_id", OutcomeOK)
	m.Observe("get_by_id", OutcomeAbsent)
	m.ObserveHistory(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("get_by_id", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("get_by_id", OutcomeAbsent)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Operations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HistoryLength))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe("list_all", OutcomeOK)
		m.ObserveHistory(1)
	})
}
