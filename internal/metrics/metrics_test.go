// ABOUTME: Tests for the Prometheus metrics wrapper
// ABOUTME: Verifies single registration, counter updates, and nil safety

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_ReturnsSingleton(t *testing.T) {
	assert.Same(t, New(), New())
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	before := testutil.ToFloat64(m.TurnsTotal.WithLabelValues("question", "completed"))
	m.ObserveTurn("question", "completed", 1.5)
	assert.Equal(t, before+1, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("question", "completed")))

	pushBefore := testutil.ToFloat64(m.PushFailuresTotal)
	m.PushFailed()
	assert.Equal(t, pushBefore+1, testutil.ToFloat64(m.PushFailuresTotal))

	connBefore := testutil.ToFloat64(m.ActiveConnections)
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	assert.Equal(t, connBefore+1, testutil.ToFloat64(m.ActiveConnections))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("other", "completed", 0.1)
		m.ObserveClassification("other")
		m.ObserveTask("rephrase", "failed")
		m.PushFailed()
		m.PersistFailed()
		m.DuplicateTurn()
		m.ConnectionOpened()
		m.ConnectionClosed()
	})
}
