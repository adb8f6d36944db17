// Package cmd is the entry point of the adblock command.  It loads the filter
// lists and either answers the requests from stdin or serves the HTTP API and
// the filtering HTTP proxy.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/internal/metrics"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/hashicorp/cronexpr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Timeouts.
const (
	refreshTimeout    = 1 * time.Minute
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Main is the entry point of the command.
func Main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		// go-flags has already printed the error.
		os.Exit(1)
	} else if opts == nil {
		os.Exit(0)
	}

	conf, err := readConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading configuration: %s\n", err)
		os.Exit(1)
	}

	conf.applyOptions(opts)
	err = conf.validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %s\n", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, conf.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = run(ctx, logger, conf, os.Stdin, os.Stdout)
	if err != nil {
		logger.ErrorContext(ctx, "running", slogutil.KeyError, err)
		cancel()
		os.Exit(1)
	}
}

// newLogger returns a new text logger writing to w.
func newLogger(w io.Writer, verbose bool) (l *slog.Logger) {
	lvl := slogutil.LevelInfo
	if verbose {
		lvl = slogutil.LevelDebug
	}

	return slogutil.New(&slogutil.Config{
		Output:       w,
		Format:       slogutil.FormatText,
		AddTimestamp: true,
		Level:        lvl,
	})
}

// run loads the lists and serves the requests until ctx is canceled or, in the
// stdin mode, until in is read to the end.  conf must be valid.
func run(
	ctx context.Context,
	logger *slog.Logger,
	conf *configuration,
	in io.Reader,
	out io.Writer,
) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := adblock.NewManager(&adblock.ManagerConfig{
		Logger:  logger.With(slogutil.KeyPrefix, "manager"),
		Metrics: metrics.NewManager(reg),
	})

	e, err := adblock.NewEngine(ctx, &adblock.EngineConfig{
		Logger:  logger.With(slogutil.KeyPrefix, "engine"),
		Metrics: metrics.NewEngine(reg),
		Index: &adblock.IndexConfig{
			CacheSize: conf.CacheSize,
		},
		OnReload:    m.NotifyRulesChanged,
		Sources:     conf.Filters,
		MaxListSize: conf.MaxListSize,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	m.Subscribe(func() {
		logger.Info("rules changed", "rules", e.Report().Indexed)
	})
	m.SetBlocker(e)

	r := &refresher{
		logger:  logger.With(slogutil.KeyPrefix, "refresher"),
		target:  e,
		timeout: refreshTimeout,
	}

	if conf.Refresh != "" {
		// The expression has been validated.
		r.expr = cronexpr.MustParse(conf.Refresh)
	}

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	go r.run(refreshCtx)

	if conf.ListenAddr == "" && conf.ProxyAddr == "" {
		return evaluateLines(in, out, m)
	}

	g, gCtx := errgroup.WithContext(ctx)
	if conf.ListenAddr != "" {
		g.Go(func() (serveErr error) {
			return serve(gCtx, logger, conf.ListenAddr, newMux(logger, m, e, reg))
		})
	}

	if conf.ProxyAddr != "" {
		g.Go(func() (serveErr error) {
			return serve(gCtx, logger, conf.ProxyAddr, newProxy(logger, m, e))
		})
	}

	return g.Wait()
}

// serve serves h on addr until ctx is canceled.
func serve(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) (err error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", addr)

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	err = <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
