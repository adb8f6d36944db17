package adblock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/c2h5oh/datasize"
)

// ctxCheckInterval is the number of rules scanned between the checks of the
// context during a reload.
const ctxCheckInterval = 1024

// EngineConfig is the configuration structure for an [Engine].
type EngineConfig struct {
	// Logger is used to log the reloads.  It must not be nil.
	Logger *slog.Logger

	// Metrics is used to collect the reload statistics.  It must not be nil.
	Metrics EngineMetrics

	// Index is the configuration of the compiled indexes.  It must not be
	// nil.
	Index *IndexConfig

	// Sources are the filter lists to load.
	Sources []filterlist.Source

	// OnReload, if not nil, is called after each successful call of
	// [Engine.Reload] or [Engine.Refresh], but not after the initial load.
	// Hosts that reload the engine directly set it to
	// [Manager.NotifyRulesChanged].  [Manager.Refresh] notifies by itself, so
	// an engine refreshed through a manager should not set it.
	OnReload func()

	// MaxListSize is the maximum size of a single list.  If it is zero,
	// [filterlist.DefaultMaxListSize] is used.
	MaxListSize datasize.ByteSize
}

// Engine is a [Blocker] that evaluates requests against an [Index] compiled
// from the filter lists.  The index is replaced atomically on each successful
// reload, so the queries never see a partially built one.
type Engine struct {
	logger    *slog.Logger
	metrics   EngineMetrics
	indexConf *IndexConfig

	// index is the active index.
	index atomic.Pointer[Index]

	// report is the report of the last successful reload.
	report atomic.Pointer[LoadReport]

	// reloadMu prevents concurrent reloads.
	reloadMu *sync.Mutex

	// onReload is called after a successful reload.  It is nil during the
	// initial load.
	onReload func()

	sources     []filterlist.Source
	maxListSize datasize.ByteSize
}

// NewEngine returns a new *Engine with the rules from the sources in c loaded.
// c must not be nil.
func NewEngine(ctx context.Context, c *EngineConfig) (e *Engine, err error) {
	e = &Engine{
		logger:      c.Logger,
		metrics:     c.Metrics,
		indexConf:   c.Index,
		reloadMu:    &sync.Mutex{},
		sources:     c.Sources,
		maxListSize: c.MaxListSize,
	}

	_, err = e.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}

	e.onReload = c.OnReload

	return e, nil
}

// type check
var (
	_ Blocker           = (*Engine)(nil)
	_ service.Refresher = (*Engine)(nil)
)

// ShouldLoad implements the [Blocker] interface for *Engine.
func (e *Engine) ShouldLoad(r *rules.Request) (ok bool) {
	return e.Evaluate(r) == DecisionAllow
}

// Refresh implements the [service.Refresher] interface for *Engine.  It
// reloads the filter lists.
func (e *Engine) Refresh(ctx context.Context) (err error) {
	_, err = e.Reload(ctx)

	return err
}

// Evaluate returns the decision of the active index for r.  r must not be
// nil.
func (e *Engine) Evaluate(r *rules.Request) (d Decision) {
	return e.index.Load().Evaluate(r)
}

// MatchRequest returns the rules of the active index that match r.  r must
// not be nil.
func (e *Engine) MatchRequest(r *rules.Request) (res *MatchResult) {
	return e.index.Load().MatchRequest(r)
}

// Report returns the report of the last successful reload.
func (e *Engine) Report() (report *LoadReport) {
	return e.report.Load()
}

// Reload reads and compiles the filter lists and makes the new index active.
// If any error occurs, including the cancellation of ctx, the active index is
// kept.  The lines that could not be parsed are not errors, they are listed in
// the report.
func (e *Engine) Reload(ctx context.Context) (report *LoadReport, err error) {
	report, err = e.reload(ctx)
	if err == nil && e.onReload != nil {
		e.onReload()
	}

	return report, err
}

// reload loads the lists and swaps the index under reloadMu.
func (e *Engine) reload(ctx context.Context) (report *LoadReport, err error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	defer func() { e.metrics.HandleReload(ctx, time.Since(start), report, err) }()

	s, err := filterlist.Load(ctx, e.sources, e.maxListSize)
	if err != nil {
		return nil, fmt.Errorf("loading lists: %w", err)
	}

	rs, report, err := scanRules(ctx, s)
	err = errors.WithDeferred(err, s.Close())
	if err != nil {
		return nil, fmt.Errorf("scanning rules: %w", err)
	}

	idx, err := NewIndex(rs, e.indexConf)
	if err != nil {
		return nil, fmt.Errorf("compiling index: %w", err)
	}

	report.Indexed = idx.Len()
	report.Updated = time.Now()

	e.index.Store(idx)
	e.report.Store(report)

	e.logReport(ctx, report)

	return report, nil
}

// scanRules returns all network rules from s.
func scanRules(
	ctx context.Context,
	s *filterlist.RuleStorage,
) (rs []*rules.NetworkRule, report *LoadReport, err error) {
	sc := s.NewRuleStorageScanner()
	for i := 0; sc.Scan(); i++ {
		if i%ctxCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		r, _ := sc.Rule()
		if nr, ok := r.(*rules.NetworkRule); ok {
			rs = append(rs, nr)
		}
	}

	if err = sc.Err(); err != nil {
		return nil, nil, err
	}

	return rs, &LoadReport{
		Errors:      sc.Errors(),
		Lists:       s.Len(),
		Rules:       len(rs),
		Unsupported: sc.Unsupported(),
	}, nil
}

// logReport logs the results of a successful reload.
func (e *Engine) logReport(ctx context.Context, report *LoadReport) {
	e.logger.InfoContext(
		ctx,
		"reloaded rules",
		"lists", report.Lists,
		"rules", report.Rules,
		"indexed", report.Indexed,
		"unsupported", report.Unsupported,
		"invalid", len(report.Errors),
	)

	for _, perr := range report.Errors {
		e.logger.DebugContext(ctx, "skipped rule", slogutil.KeyError, perr)
	}
}
