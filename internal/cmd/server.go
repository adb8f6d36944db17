package cmd

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/httpfilter"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMux returns the handler of the HTTP API.
func newMux(
	logger *slog.Logger,
	m *adblock.Manager,
	e httpfilter.Explainer,
	reg *prometheus.Registry,
) (mux *http.ServeMux) {
	mux = http.NewServeMux()
	mux.Handle("GET /check", &checkHandler{
		logger:    logger,
		blocker:   m,
		explainer: e,
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

// checkResponse is the response of the /check endpoint.
type checkResponse struct {
	Decision       string   `json:"decision"`
	Type           string   `json:"type"`
	BlockingRules  []string `json:"blocking_rules,omitempty"`
	ExceptionRules []string `json:"exception_rules,omitempty"`
}

// checkHandler answers the /check requests.
type checkHandler struct {
	logger    *slog.Logger
	blocker   adblock.Blocker
	explainer httpfilter.Explainer
}

// type check
var _ http.Handler = (*checkHandler)(nil)

// ServeHTTP implements the [http.Handler] interface for *checkHandler.  The
// query parameters are "url", "source", and "type".
func (h *checkHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	u := q.Get("url")
	if u == "" {
		http.Error(w, "url is required", http.StatusBadRequest)

		return
	}

	typ := rules.TypeOther
	if name := q.Get("type"); name != "" {
		var err error
		typ, err = rules.ParseRequestType(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
	}

	r := rules.NewRequest(u, q.Get("source"), typ)

	resp := &checkResponse{
		Decision: adblock.DecisionAllow.String(),
		Type:     typ.String(),
	}

	if !h.blocker.ShouldLoad(r) {
		resp.Decision = adblock.DecisionBlock.String()
	}

	res := h.explainer.MatchRequest(r)
	resp.BlockingRules = ruleTexts(res.BlockingRules)
	resp.ExceptionRules = ruleTexts(res.ExceptionRules)

	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		h.logger.DebugContext(req.Context(), "writing check response", slogutil.KeyError, err)
	}
}

// ruleTexts returns the texts of rs.
func ruleTexts(rs []*rules.NetworkRule) (texts []string) {
	for _, r := range rs {
		texts = append(texts, r.Text())
	}

	return texts
}
