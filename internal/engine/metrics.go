package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered on the engine's own registry so several engines
// (one per open document, or one per test) never collide.
type metrics struct {
	registry  *prometheus.Registry
	actions   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	replays   *prometheus.CounterVec
	rollbacks prometheus.Counter
	undoDepth prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drillstore_actions_total",
			Help: "Actions run, by action name and outcome",
		}, []string{"action", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drillstore_action_duration_seconds",
			Help:    "Wall time of one action including commit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"action"}),
		replays: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drillstore_history_replays_total",
			Help: "Undo and redo groups applied",
		}, []string{"direction"}),
		rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "drillstore_mutation_rollbacks_total",
			Help: "Mutation calls unwound after a failed write",
		}),
		undoDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drillstore_undo_groups",
			Help: "Groups currently in the undo log",
		}),
	}
}

// Registry exposes the engine's metrics for scraping or inspection.
func (e *Engine) Registry() *prometheus.Registry {
	return e.metrics.registry
}
