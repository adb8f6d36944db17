package adblock

import (
	"context"
	"time"
)

// ManagerMetrics is an interface for collection of the statistics of a
// [Manager].
type ManagerMetrics interface {
	// IncrementDecisions increments the number of the answered requests.
	// blocked is true if the request has been blocked, active is true if
	// there was an active blocker.
	IncrementDecisions(blocked, active bool)

	// SetBlockerActive sets the status of the active blocker.
	SetBlockerActive(active bool)

	// IncrementRulesChanged increments the number of the RulesChanged events.
	IncrementRulesChanged()
}

// EmptyManagerMetrics is the implementation of the [ManagerMetrics] interface
// that does nothing.
type EmptyManagerMetrics struct{}

// type check
var _ ManagerMetrics = EmptyManagerMetrics{}

// IncrementDecisions implements the [ManagerMetrics] interface for
// EmptyManagerMetrics.
func (EmptyManagerMetrics) IncrementDecisions(_, _ bool) {}

// SetBlockerActive implements the [ManagerMetrics] interface for
// EmptyManagerMetrics.
func (EmptyManagerMetrics) SetBlockerActive(_ bool) {}

// IncrementRulesChanged implements the [ManagerMetrics] interface for
// EmptyManagerMetrics.
func (EmptyManagerMetrics) IncrementRulesChanged() {}

// EngineMetrics is an interface for collection of the statistics of an
// [Engine].
type EngineMetrics interface {
	// HandleReload handles the result of a reload.  report is nil if err is
	// not nil.
	HandleReload(ctx context.Context, dur time.Duration, report *LoadReport, err error)
}

// EmptyEngineMetrics is the implementation of the [EngineMetrics] interface
// that does nothing.
type EmptyEngineMetrics struct{}

// type check
var _ EngineMetrics = EmptyEngineMetrics{}

// HandleReload implements the [EngineMetrics] interface for
// EmptyEngineMetrics.
func (EmptyEngineMetrics) HandleReload(_ context.Context, _ time.Duration, _ *LoadReport, _ error) {}
