package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/hashicorp/cronexpr"
)

// refresher refreshes its target on a cron schedule and on SIGHUP.
type refresher struct {
	logger *slog.Logger
	target service.Refresher

	// expr is the schedule.  If it is nil, the target is only refreshed on
	// SIGHUP.
	expr *cronexpr.Expression

	// timeout is the timeout of a single refresh.
	timeout time.Duration
}

// run refreshes the target until ctx is canceled.
func (r *refresher) run(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		timer := r.newTimer()
		var tickCh <-chan time.Time
		if timer != nil {
			tickCh = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)

			return
		case <-sigCh:
			stopTimer(timer)
			r.logger.InfoContext(ctx, "refreshing on sighup")
		case <-tickCh:
			r.logger.DebugContext(ctx, "refreshing on schedule")
		}

		r.refresh(ctx)
	}
}

// newTimer returns a timer that fires at the next scheduled time or nil if
// there is none.
func (r *refresher) newTimer() (t *time.Timer) {
	if r.expr == nil {
		return nil
	}

	next := r.expr.Next(time.Now())
	if next.IsZero() {
		return nil
	}

	return time.NewTimer(time.Until(next))
}

// stopTimer stops t if it is not nil.
func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// refresh refreshes the target once and logs the error, if any.
func (r *refresher) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.target.Refresh(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "refresh failed, keeping previous rules", slogutil.KeyError, err)
	}
}
