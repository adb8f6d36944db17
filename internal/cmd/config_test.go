package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/filterlist"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfigYAML is the common configuration file for tests.
const testConfigYAML = `filters:
  - id: 10
    path: /etc/adblock/easylist.txt
  - id: 2
    text: |
      ||ads.example^
listen: 127.0.0.1:8080
proxy: 127.0.0.1:3128
refresh: "0 */6 * * *"
max_list_size: 1MB
cache_size: 100
`

// writeTestConfig is a helper that writes the configuration into a temporary
// file and returns its path.
func writeTestConfig(tb testing.TB, data string) (path string) {
	tb.Helper()

	path = filepath.Join(tb.TempDir(), "adblock.yaml")
	err := os.WriteFile(path, []byte(data), 0o600)
	require.NoError(tb, err)

	return path
}

func TestReadConfig(t *testing.T) {
	t.Parallel()

	c, err := readConfig(writeTestConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, []filterlist.Source{{
		Path: "/etc/adblock/easylist.txt",
		ID:   10,
	}, {
		Text: "||ads.example^\n",
		ID:   2,
	}}, c.Filters)
	assert.Equal(t, "127.0.0.1:8080", c.ListenAddr)
	assert.Equal(t, "127.0.0.1:3128", c.ProxyAddr)
	assert.Equal(t, "0 */6 * * *", c.Refresh)
	assert.Equal(t, datasize.MB, c.MaxListSize)
	assert.Equal(t, 100, c.CacheSize)
	assert.False(t, c.Verbose)

	require.NoError(t, c.validate())
}

func TestReadConfig_default(t *testing.T) {
	t.Parallel()

	c, err := readConfig("")
	require.NoError(t, err)

	assert.Equal(t, filterlist.DefaultMaxListSize, c.MaxListSize)
	assert.Equal(t, adblock.DefaultCacheSize, c.CacheSize)
	assert.Empty(t, c.Filters)
}

func TestReadConfig_errors(t *testing.T) {
	t.Parallel()

	_, err := readConfig(writeTestConfig(t, "unknown_field: 1\n"))
	assert.Error(t, err)

	_, err = readConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfiguration_applyOptions(t *testing.T) {
	t.Parallel()

	c, err := readConfig(writeTestConfig(t, testConfigYAML))
	require.NoError(t, err)

	c.applyOptions(&options{
		Filters:    []string{"/tmp/a.txt", "/tmp/b.txt"},
		ListenAddr: "127.0.0.1:9090",
		ProxyAddr:  "127.0.0.1:8118",
		Verbose:    true,
	})

	require.Len(t, c.Filters, 4)

	assert.Equal(t, filterlist.Source{Path: "/tmp/a.txt", ID: 11}, c.Filters[2])
	assert.Equal(t, filterlist.Source{Path: "/tmp/b.txt", ID: 12}, c.Filters[3])
	assert.Equal(t, "127.0.0.1:9090", c.ListenAddr)
	assert.Equal(t, "127.0.0.1:8118", c.ProxyAddr)
	assert.Equal(t, "0 */6 * * *", c.Refresh)
	assert.True(t, c.Verbose)
}

func TestConfiguration_validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		conf       *configuration
		name       string
		wantErrMsg string
	}{{
		conf: &configuration{
			Filters: []filterlist.Source{{Text: "||ads.example^", ID: 1}},
		},
		name:       "valid",
		wantErrMsg: "",
	}, {
		conf:       &configuration{},
		name:       "no_filters",
		wantErrMsg: "no filter lists",
	}, {
		conf: &configuration{
			Filters: []filterlist.Source{{Text: "a", ID: 1}, {Text: "b", ID: 1}},
		},
		name:       "duplicate_id",
		wantErrMsg: "filters: at index 1: duplicate id 1",
	}, {
		conf: &configuration{
			Filters:   []filterlist.Source{{Text: "||ads.example^", ID: 1}},
			CacheSize: -1,
		},
		name:       "negative_cache",
		wantErrMsg: "cache_size: negative value -1",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			testutil.AssertErrorMsg(t, tc.wantErrMsg, tc.conf.validate())
		})
	}
}

func TestConfiguration_validate_refresh(t *testing.T) {
	t.Parallel()

	c := &configuration{
		Filters: []filterlist.Source{{Text: "||ads.example^", ID: 1}},
		Refresh: "not a cron expression",
	}

	assert.Error(t, c.validate())
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	opts, err := parseOptions([]string{
		"-c", "/etc/adblock.yaml",
		"-f", "a.txt",
		"--filter", "b.txt",
		"-l", "127.0.0.1:8080",
		"-p", "127.0.0.1:3128",
		"--refresh", "@hourly",
		"-v",
	})
	require.NoError(t, err)
	require.NotNil(t, opts)

	assert.Equal(t, &options{
		ConfigPath: "/etc/adblock.yaml",
		Filters:    []string{"a.txt", "b.txt"},
		ListenAddr: "127.0.0.1:8080",
		ProxyAddr:  "127.0.0.1:3128",
		Refresh:    "@hourly",
		Verbose:    true,
	}, opts)
}
