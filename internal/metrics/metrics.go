// Package metrics contains the Prometheus implementations of the metrics
// interfaces of the adblock package.
package metrics

import (
	"context"
	"time"

	"github.com/AdguardTeam/adblock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace is the common namespace of all metrics.
const namespace = "adblock"

// Subsystems of the metrics.
const (
	subsystemEngine  = "engine"
	subsystemManager = "manager"
)

// Manager is the Prometheus-based implementation of the
// [adblock.ManagerMetrics] interface.
type Manager struct {
	// decisions is the number of answered requests by the decision and the
	// state of the manager.
	decisions *prometheus.CounterVec

	// active is 1 if there is an active blocker.
	active prometheus.Gauge

	// rulesChanged is the number of the RulesChanged events.
	rulesChanged prometheus.Counter
}

// NewManager registers the manager metrics in reg and returns a properly
// initialized *Manager.
func NewManager(reg prometheus.Registerer) (m *Manager) {
	f := promauto.With(reg)

	return &Manager{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemManager,
			Name:      "decisions_total",
			Help:      "The number of answered requests per decision and blocker state.",
		}, []string{"decision", "active"}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemManager,
			Name:      "blocker_active",
			Help:      "Whether there is an active blocker.",
		}),
		rulesChanged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemManager,
			Name:      "rules_changed_total",
			Help:      "The number of sent rules changed notifications.",
		}),
	}
}

// type check
var _ adblock.ManagerMetrics = (*Manager)(nil)

// IncrementDecisions implements the [adblock.ManagerMetrics] interface for
// *Manager.
func (m *Manager) IncrementDecisions(blocked, active bool) {
	d := adblock.DecisionAllow
	if blocked {
		d = adblock.DecisionBlock
	}

	m.decisions.WithLabelValues(d.String(), BoolString(active)).Inc()
}

// SetBlockerActive implements the [adblock.ManagerMetrics] interface for
// *Manager.
func (m *Manager) SetBlockerActive(active bool) {
	SetStatusGauge(m.active, active)
}

// IncrementRulesChanged implements the [adblock.ManagerMetrics] interface for
// *Manager.
func (m *Manager) IncrementRulesChanged() {
	m.rulesChanged.Inc()
}

// Engine is the Prometheus-based implementation of the [adblock.EngineMetrics]
// interface.
type Engine struct {
	// reloads is the number of reloads by their status.
	reloads *prometheus.CounterVec

	// duration is the duration of the reloads.
	duration prometheus.Histogram

	// rules is the number of the indexed rules.
	rules prometheus.Gauge

	// invalid is the number of the skipped invalid rules.
	invalid prometheus.Gauge

	// updated is the time of the last successful reload.
	updated prometheus.Gauge
}

// NewEngine registers the engine metrics in reg and returns a properly
// initialized *Engine.
func NewEngine(reg prometheus.Registerer) (m *Engine) {
	f := promauto.With(reg)

	return &Engine{
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "reloads_total",
			Help:      "The number of filter list reloads per status.",
		}, []string{"status"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "reload_duration_seconds",
			Help:      "The duration of filter list reloads.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		}),
		rules: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "rules",
			Help:      "The number of rules in the active index.",
		}),
		invalid: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "invalid_rules",
			Help:      "The number of lines skipped during the last successful reload.",
		}),
		updated: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "last_updated_time_seconds",
			Help:      "The time of the last successful reload, as a Unix timestamp.",
		}),
	}
}

// type check
var _ adblock.EngineMetrics = (*Engine)(nil)

// HandleReload implements the [adblock.EngineMetrics] interface for *Engine.
func (m *Engine) HandleReload(
	_ context.Context,
	dur time.Duration,
	report *adblock.LoadReport,
	err error,
) {
	m.duration.Observe(dur.Seconds())

	if err != nil {
		m.reloads.WithLabelValues("error").Inc()

		return
	}

	m.reloads.WithLabelValues("success").Inc()
	m.rules.Set(float64(report.Indexed))
	m.invalid.Set(float64(len(report.Errors)))
	m.updated.Set(float64(report.Updated.Unix()))
}

// BoolString returns "1" if cond is true and "0" otherwise.
func BoolString(cond bool) (s string) {
	if cond {
		return "1"
	}

	return "0"
}

// SetStatusGauge sets g to 1 if ok is true and to 0 otherwise.
func SetStatusGauge(g prometheus.Gauge, ok bool) {
	if ok {
		g.Set(1)
	} else {
		g.Set(0)
	}
}
