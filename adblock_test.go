package adblock_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

// testListID is the common filter list ID for tests.
const testListID = 1

// newTestIndex is a helper that compiles the rules into an index with the
// cache of the given size.
func newTestIndex(tb testing.TB, cacheSize int, texts ...string) (idx *adblock.Index) {
	tb.Helper()

	rs := make([]*rules.NetworkRule, 0, len(texts))
	for _, text := range texts {
		r, err := rules.NewNetworkRule(text, testListID)
		require.NoError(tb, err)

		rs = append(rs, r)
	}

	idx, err := adblock.NewIndex(rs, &adblock.IndexConfig{
		CacheSize: cacheSize,
	})
	require.NoError(tb, err)

	return idx
}

// newTestEngine is a helper that returns an engine with the rules from the
// given lists, the first one has testListID.
func newTestEngine(tb testing.TB, lists ...string) (e *adblock.Engine) {
	tb.Helper()

	srcs := make([]filterlist.Source, 0, len(lists))
	for i, text := range lists {
		srcs = append(srcs, filterlist.Source{
			Text: text,
			ID:   testListID + i,
		})
	}

	return newTestEngineSources(tb, srcs...)
}

// newTestEngineSources is a helper that returns an engine with the rules from
// srcs.
func newTestEngineSources(tb testing.TB, srcs ...filterlist.Source) (e *adblock.Engine) {
	tb.Helper()

	e, err := adblock.NewEngine(testutil.ContextWithTimeout(tb, testTimeout), &adblock.EngineConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: adblock.EmptyEngineMetrics{},
		Index: &adblock.IndexConfig{
			CacheSize: adblock.DefaultCacheSize,
		},
		Sources: srcs,
	})
	require.NoError(tb, err)

	return e
}

// writeTestList is a helper that writes the rules to a new file in a temporary
// directory and returns its path.
func writeTestList(tb testing.TB, lines ...string) (path string) {
	tb.Helper()

	path = filepath.Join(tb.TempDir(), "list.txt")
	rewriteTestList(tb, path, lines...)

	return path
}

// rewriteTestList is a helper that replaces the contents of the file.
func rewriteTestList(tb testing.TB, path string, lines ...string) {
	tb.Helper()

	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600)
	require.NoError(tb, err)
}

// newTestManager is a helper that returns a new inactive manager.
func newTestManager(tb testing.TB) (m *adblock.Manager) {
	tb.Helper()

	return adblock.NewManager(&adblock.ManagerConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: adblock.EmptyManagerMetrics{},
	})
}
