package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/internal/metrics"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

// testRules are the common rules for tests.
const testRules = `||ads.example.com^
@@||ads.example.com/allowed.js$script
/banner*$domain=example.com
$unknownopt`

// newTestEngine is a helper that returns an engine with testRules.
func newTestEngine(tb testing.TB) (e *adblock.Engine) {
	tb.Helper()

	e, err := adblock.NewEngine(testutil.ContextWithTimeout(tb, testTimeout), &adblock.EngineConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: adblock.EmptyEngineMetrics{},
		Index:   &adblock.IndexConfig{},
		Sources: []filterlist.Source{{
			Text: testRules,
			ID:   1,
		}},
	})
	require.NoError(tb, err)

	return e
}

func TestEvaluateLines(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`# comment
image http://ads.example.com/banner.png
image http://shop.example.com/banner.png

script http://ads.example.com/allowed.js
image http://cdn.example.org/banner.gif http://notexample.com/page
image http://cdn.example.org/banner.gif http://www.example.com/page
font http://ads.example.com/a.woff
http://ads.example.com/
`)
	out := &bytes.Buffer{}

	err := evaluateLines(in, out, newTestEngine(t))
	require.NoError(t, err)

	assert.Equal(t, `block
allow
allow
allow
block
error: unknown request type "font"
error: want TYPE URL [DOCUMENT_URL]
`, out.String())
}

func TestCheckHandler(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	m := adblock.NewManager(&adblock.ManagerConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: metrics.NewManager(prometheus.NewRegistry()),
	})
	m.SetBlocker(e)

	reg := prometheus.NewRegistry()
	mux := newMux(slogutil.NewDiscardLogger(), m, e, reg)

	testCases := []struct {
		want       *checkResponse
		query      url.Values
		name       string
		wantStatus int
	}{{
		want: &checkResponse{
			Decision:      "block",
			Type:          "image",
			BlockingRules: []string{"||ads.example.com^"},
		},
		query: url.Values{
			"url":  []string{"http://ads.example.com/banner.png"},
			"type": []string{"image"},
		},
		name:       "block",
		wantStatus: http.StatusOK,
	}, {
		want: &checkResponse{
			Decision:       "allow",
			Type:           "script",
			BlockingRules:  []string{"||ads.example.com^"},
			ExceptionRules: []string{"@@||ads.example.com/allowed.js$script"},
		},
		query: url.Values{
			"url":  []string{"http://ads.example.com/allowed.js"},
			"type": []string{"script"},
		},
		name:       "exception",
		wantStatus: http.StatusOK,
	}, {
		want: &checkResponse{
			Decision: "allow",
			Type:     "other",
		},
		query: url.Values{
			"url":    []string{"http://cdn.example.org/banner.gif"},
			"source": []string{"http://notexample.com/page"},
		},
		name:       "default_type",
		wantStatus: http.StatusOK,
	}, {
		want:       nil,
		query:      url.Values{},
		name:       "no_url",
		wantStatus: http.StatusBadRequest,
	}, {
		want: nil,
		query: url.Values{
			"url":  []string{"http://ads.example.com/"},
			"type": []string{"font"},
		},
		name:       "bad_type",
		wantStatus: http.StatusBadRequest,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/check?"+tc.query.Encode(), nil)
			rw := httptest.NewRecorder()
			mux.ServeHTTP(rw, req)

			require.Equal(t, tc.wantStatus, rw.Code)
			if tc.want == nil {
				return
			}

			got := &checkResponse{}
			err := json.NewDecoder(rw.Body).Decode(got)
			require.NoError(t, err)

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewMux_metrics(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	reg := prometheus.NewRegistry()
	m := adblock.NewManager(&adblock.ManagerConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: metrics.NewManager(reg),
	})
	m.SetBlocker(e)

	mux := newMux(slogutil.NewDiscardLogger(), m, e, reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)

	assert.Contains(t, rw.Body.String(), "adblock_manager_blocker_active 1")
}

// errRefresher is a refresher that always fails.
type errRefresher struct {
	calls int
}

// Refresh implements the [service.Refresher] interface for *errRefresher.
func (r *errRefresher) Refresh(_ context.Context) (err error) {
	r.calls++

	return errors.Error("test error")
}

func TestRefresher_run(t *testing.T) {
	t.Parallel()

	target := &errRefresher{}
	r := &refresher{
		logger:  slogutil.NewDiscardLogger(),
		target:  target,
		timeout: testTimeout,
	}

	r.refresh(testutil.ContextWithTimeout(t, testTimeout))
	assert.Equal(t, 1, target.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Without a schedule, run only waits for SIGHUP or the cancellation.
	r.run(ctx)
	assert.Equal(t, 1, target.calls)
}

func TestNewProxy(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(backend.Close)

	e := newTestEngine(t)
	m := adblock.NewManager(&adblock.ManagerConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: adblock.EmptyManagerMetrics{},
	})
	m.SetBlocker(e)

	proxy := httptest.NewServer(newProxy(slogutil.NewDiscardLogger(), m, e))
	t.Cleanup(proxy.Close)

	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)

	cli := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
		Timeout: testTimeout,
	}

	testCases := []struct {
		name       string
		url        string
		wantBody   string
		wantStatus int
	}{{
		name:       "allowed",
		url:        backend.URL + "/page",
		wantBody:   "ok",
		wantStatus: http.StatusOK,
	}, {
		name:       "blocked",
		url:        "http://ads.example.com/banner.png",
		wantBody:   "||ads.example.com^",
		wantStatus: http.StatusForbidden,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resp, respErr := cli.Get(tc.url)
			require.NoError(t, respErr)
			testutil.CleanupAndRequireSuccess(t, resp.Body.Close)

			body, respErr := io.ReadAll(resp.Body)
			require.NoError(t, respErr)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		wantDebug assert.BoolAssertionFunc
		name      string
		verbose   bool
	}{{
		wantDebug: assert.False,
		name:      "default",
		verbose:   false,
	}, {
		wantDebug: assert.True,
		name:      "verbose",
		verbose:   true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			l := newLogger(buf, tc.verbose)

			l.Debug("debug message")
			l.Info("info message")

			tc.wantDebug(t, strings.Contains(buf.String(), "msg=\"debug message\""))
			assert.Contains(t, buf.String(), "msg=\"info message\"")
		})
	}
}
