package adblock

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
)

// SubscriptionID identifies a RulesChanged observer registered with
// [Manager.Subscribe].
type SubscriptionID uint64

// ManagerConfig is the configuration structure for a [Manager].
type ManagerConfig struct {
	// Logger is used to log the contract violations of the callers and the
	// observer panics.  It must not be nil.
	Logger *slog.Logger

	// Metrics is used to collect the statistics.  It must not be nil.
	Metrics ManagerMetrics
}

// Manager owns zero or one active [Blocker] and answers the requests of the
// host with it.  Without an active blocker every request is allowed.  It also
// notifies the observers each time the effective rules change.
//
// A Manager must be created with [NewManager].  It is safe for concurrent use.
type Manager struct {
	logger  *slog.Logger
	metrics ManagerMetrics

	// blocker is the active blocker.  It is nil if there is none.
	blocker atomic.Pointer[blockerHandle]

	// observersMu protects observers and nextID.
	observersMu *sync.Mutex
	observers   map[SubscriptionID]func()
	nextID      SubscriptionID
}

// blockerHandle wraps a [Blocker] so that it can be stored in an
// [atomic.Pointer].
type blockerHandle struct {
	Blocker
}

// NewManager returns a new inactive *Manager.  c must not be nil.
func NewManager(c *ManagerConfig) (m *Manager) {
	return &Manager{
		logger:      c.Logger,
		metrics:     c.Metrics,
		observersMu: &sync.Mutex{},
		observers:   map[SubscriptionID]func(){},
	}
}

// type check
var (
	_ Blocker           = (*Manager)(nil)
	_ service.Refresher = (*Manager)(nil)
)

// SetBlocker makes b the active blocker, discarding the previous one.  If b is
// nil, the manager becomes inactive.  It always notifies the observers.
func (m *Manager) SetBlocker(b Blocker) {
	if b == nil {
		m.blocker.Store(nil)
	} else {
		m.blocker.Store(&blockerHandle{Blocker: b})
	}

	m.metrics.SetBlockerActive(b != nil)
	m.NotifyRulesChanged()
}

// HasBlocker returns true if there is an active blocker.
func (m *Manager) HasBlocker() (ok bool) {
	return m.blocker.Load() != nil
}

// ShouldLoad implements the [Blocker] interface for *Manager.  It returns true
// if there is no active blocker.  A nil request or a request with an empty URL
// is a bug of the caller: it is logged and allowed.
func (m *Manager) ShouldLoad(r *rules.Request) (ok bool) {
	if r == nil || r.URL == "" {
		m.logger.Error("should load: request without url")

		return true
	}

	h := m.blocker.Load()
	if h == nil {
		m.metrics.IncrementDecisions(false, false)

		return true
	}

	ok = h.ShouldLoad(r)
	m.metrics.IncrementDecisions(!ok, true)

	return ok
}

// Refresh implements the [service.Refresher] interface for *Manager.  If the
// active blocker is a [service.Refresher], it is refreshed and the observers
// are notified on success.
func (m *Manager) Refresh(ctx context.Context) (err error) {
	h := m.blocker.Load()
	if h == nil {
		return nil
	}

	r, ok := h.Blocker.(service.Refresher)
	if !ok {
		return nil
	}

	err = r.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing blocker: %w", err)
	}

	m.NotifyRulesChanged()

	return nil
}

// Subscribe registers h to be called on each RulesChanged event and returns
// its ID.  h must not be nil.  h is called synchronously, so it should not
// block.
func (m *Manager) Subscribe(h func()) (id SubscriptionID) {
	m.observersMu.Lock()
	defer m.observersMu.Unlock()

	m.nextID++
	m.observers[m.nextID] = h

	return m.nextID
}

// Unsubscribe removes the observer with the given ID.  It returns false if
// there is no such observer.
func (m *Manager) Unsubscribe(id SubscriptionID) (ok bool) {
	m.observersMu.Lock()
	defer m.observersMu.Unlock()

	if _, ok = m.observers[id]; ok {
		delete(m.observers, id)
	}

	return ok
}

// NotifyRulesChanged calls every registered observer.  The order of the calls
// is unspecified.  A panicking observer is logged and the rest are still
// called.
func (m *Manager) NotifyRulesChanged() {
	m.observersMu.Lock()
	ids := slices.Collect(maps.Keys(m.observers))
	handlers := make([]func(), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, m.observers[id])
	}
	m.observersMu.Unlock()

	m.metrics.IncrementRulesChanged()

	for i, h := range handlers {
		m.notify(ids[i], h)
	}
}

// notify calls h and recovers its panic, if any.
func (m *Manager) notify(id SubscriptionID, h func()) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}

		m.logger.Error(
			"rules changed observer panicked",
			"id", id,
			slogutil.KeyError, fmt.Errorf("panic: %v", v),
		)
	}()

	h()
}
