// ABOUTME: Prometheus metrics for turn handling, push delivery, and persistence
// ABOUTME: Registered once per process on the default registry

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	TurnsTotal           *prometheus.CounterVec
	TurnDuration         *prometheus.HistogramVec
	ClassificationsTotal *prometheus.CounterVec
	TasksTotal           *prometheus.CounterVec
	PushFailuresTotal    prometheus.Counter
	PersistFailuresTotal prometheus.Counter
	DuplicateTurnsTotal  prometheus.Counter
	ActiveConnections    prometheus.Gauge
}

// New creates and registers the metrics.
//
// Metrics:
//   - scribe_turns_total{intent,outcome} - turns by intent and completed/failed
//   - scribe_turn_duration_seconds{intent} - end-to-end response time
//   - scribe_classifications_total{intent} - classifier decisions
//   - scribe_tasks_total{task,outcome} - direct task runs
//   - scribe_push_failures_total - fragments the channel could not deliver
//   - scribe_persist_failures_total - completed turns whose history write failed
//   - scribe_duplicate_turns_total - turns rejected as replays
//   - scribe_active_connections - open WebSocket connections
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			TurnsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scribe_turns_total",
					Help: "Total number of turns handled",
				},
				[]string{"intent", "outcome"},
			),
			TurnDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "scribe_turn_duration_seconds",
					Help:    "Time from turn receipt to final fragment",
					Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
				},
				[]string{"intent"},
			),
			ClassificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scribe_classifications_total",
					Help: "Total number of classifier decisions",
				},
				[]string{"intent"},
			),
			TasksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "scribe_tasks_total",
					Help: "Total number of direct task runs",
				},
				[]string{"task", "outcome"},
			),
			PushFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "scribe_push_failures_total",
				Help: "Total number of stream fragments that could not be delivered",
			}),
			PersistFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "scribe_persist_failures_total",
				Help: "Total number of completed turns whose history write failed",
			}),
			DuplicateTurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "scribe_duplicate_turns_total",
				Help: "Total number of turns rejected as duplicates",
			}),
			ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "scribe_active_connections",
				Help: "Number of open push connections",
			}),
		}
	})
	return globalMetrics
}

// ObserveTurn records a finished turn.
func (m *Metrics) ObserveTurn(intent, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(intent, outcome).Inc()
	if outcome == "completed" {
		m.TurnDuration.WithLabelValues(intent).Observe(seconds)
	}
}

// ObserveClassification records a classifier decision.
func (m *Metrics) ObserveClassification(intent string) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(intent).Inc()
}

// ObserveTask records a direct task run.
func (m *Metrics) ObserveTask(task, outcome string) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(task, outcome).Inc()
}

// PushFailed counts an undelivered fragment.
func (m *Metrics) PushFailed() {
	if m == nil {
		return
	}
	m.PushFailuresTotal.Inc()
}

// PersistFailed counts a failed history write.
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.Inc()
}

// DuplicateTurn counts a rejected replay.
func (m *Metrics) DuplicateTurn() {
	if m == nil {
		return
	}
	m.DuplicateTurnsTotal.Inc()
}

// ConnectionOpened and ConnectionClosed track open push connections.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}
