// Package httpfilter contains an HTTP middleware that gates the requests
// through an [adblock.Blocker].
package httpfilter

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Explainer finds the rules that decided the result for a request.
// [*adblock.Engine] and [*adblock.Index] implement it.
type Explainer interface {
	// MatchRequest returns the rules matching r.
	MatchRequest(r *rules.Request) (res *adblock.MatchResult)
}

// Config is the configuration structure for a [Handler].
type Config struct {
	// Logger is used to log the blocked requests.  It must not be nil.
	Logger *slog.Logger

	// Blocker decides which requests are blocked.  It must not be nil.
	// Usually it is an [*adblock.Manager].
	Blocker adblock.Blocker

	// Explainer, if not nil, is used to show the blocking rule on the blocked
	// page.
	Explainer Explainer

	// Next handles the requests that are not blocked.  It must not be nil.
	Next http.Handler
}

// Handler is an [http.Handler] that answers the blocked requests with
// [http.StatusForbidden] and passes the rest to the next handler.
type Handler struct {
	logger    *slog.Logger
	blocker   adblock.Blocker
	explainer Explainer
	next      http.Handler
}

// New returns a new properly initialized *Handler.  c must not be nil.
func New(c *Config) (h *Handler) {
	return &Handler{
		logger:    c.Logger,
		blocker:   c.Blocker,
		explainer: c.Explainer,
		next:      c.Next,
	}
}

// type check
var _ http.Handler = (*Handler)(nil)

// ServeHTTP implements the [http.Handler] interface for *Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r := NewRequest(req)
	if h.blocker.ShouldLoad(r) {
		h.next.ServeHTTP(w, req)

		return
	}

	ctx := req.Context()
	h.logger.DebugContext(ctx, "blocked", "url", r.URL, "type", r.RequestType)

	page, err := h.blockedPage(r)
	if err != nil {
		h.logger.ErrorContext(ctx, "building blocked page", slogutil.KeyError, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusForbidden)

	_, err = w.Write(page)
	if err != nil {
		h.logger.DebugContext(ctx, "writing blocked page", slogutil.KeyError, err)
	}
}

// NewRequest returns the request for the blocker built from req.  The
// document URL is taken from the Referer header.
func NewRequest(req *http.Request) (r *rules.Request) {
	return rules.NewRequest(requestURL(req), req.Referer(), assumeRequestType(req))
}

// requestURL returns the absolute URL of req.  Proxied requests already have
// one, for the others it is restored from the Host header.
func requestURL(req *http.Request) (u string) {
	if req.URL.IsAbs() {
		return req.URL.String()
	}

	abs := *req.URL
	abs.Host = req.Host
	abs.Scheme = "http"
	if req.TLS != nil {
		abs.Scheme = "https"
	}

	return abs.String()
}

// blockedPageTmpl is the template of the page for the blocked requests.
var blockedPageTmpl = template.Must(template.New("blocked").Parse(`<!DOCTYPE html>
<html>
<head><title>Blocked</title></head>
<body>
<h1>Request to {{.Hostname}} is blocked</h1>
<p>{{.URL}}</p>
{{- if .RuleText}}
<p>Rule: <code>{{.RuleText}}</code></p>
{{- end}}
</body>
</html>
`))

// blockedPageParameters are the parameters of blockedPageTmpl.
type blockedPageParameters struct {
	Hostname string
	URL      string
	RuleText string
}

// blockedPage builds the content of the page for the blocked request r.
func (h *Handler) blockedPage(r *rules.Request) (page []byte, err error) {
	params := blockedPageParameters{
		Hostname: r.Hostname,
		URL:      r.URL,
	}

	if h.explainer != nil {
		res := h.explainer.MatchRequest(r)
		if len(res.BlockingRules) > 0 {
			params.RuleText = res.BlockingRules[0].Text()
		}
	}

	buf := &bytes.Buffer{}
	err = blockedPageTmpl.Execute(buf, params)

	return buf.Bytes(), err
}
