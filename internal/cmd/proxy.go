package cmd

import (
	"log/slog"
	"net/http"
	"net/http/httputil"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/httpfilter"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// newProxy returns the handler of the filtering HTTP proxy.  It forwards the
// plain HTTP proxy requests that b allows to their destinations.  CONNECT
// requests are not supported, so HTTPS is not filtered.
func newProxy(logger *slog.Logger, b adblock.Blocker, e httpfilter.Explainer) (h http.Handler) {
	logger = logger.With(slogutil.KeyPrefix, "proxy")

	return httpfilter.New(&httpfilter.Config{
		Logger:    logger,
		Blocker:   b,
		Explainer: e,
		Next: &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetXForwarded()
			},
			ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		},
	})
}
