package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AdguardTeam/adblock"
	"github.com/AdguardTeam/adblock/internal/metrics"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewManager(reg)

	m.SetBlockerActive(true)
	m.IncrementDecisions(true, true)
	m.IncrementDecisions(false, true)
	m.IncrementDecisions(false, false)
	m.IncrementRulesChanged()

	const want = `
# HELP adblock_manager_blocker_active Whether there is an active blocker.
# TYPE adblock_manager_blocker_active gauge
adblock_manager_blocker_active 1
# HELP adblock_manager_decisions_total The number of answered requests per decision and blocker state.
# TYPE adblock_manager_decisions_total counter
adblock_manager_decisions_total{active="0",decision="allow"} 1
adblock_manager_decisions_total{active="1",decision="allow"} 1
adblock_manager_decisions_total{active="1",decision="block"} 1
# HELP adblock_manager_rules_changed_total The number of sent rules changed notifications.
# TYPE adblock_manager_rules_changed_total counter
adblock_manager_rules_changed_total 1
`

	err := testutil.GatherAndCompare(reg, strings.NewReader(want))
	require.NoError(t, err)
}

func TestEngine(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewEngine(reg)

	ctx := context.Background()
	m.HandleReload(ctx, time.Millisecond, &adblock.LoadReport{
		Updated: time.Unix(1_700_000_000, 0),
		Indexed: 42,
	}, nil)
	m.HandleReload(ctx, time.Millisecond, nil, errors.Error("test error"))

	const want = `
# HELP adblock_engine_invalid_rules The number of lines skipped during the last successful reload.
# TYPE adblock_engine_invalid_rules gauge
adblock_engine_invalid_rules 0
# HELP adblock_engine_last_updated_time_seconds The time of the last successful reload, as a Unix timestamp.
# TYPE adblock_engine_last_updated_time_seconds gauge
adblock_engine_last_updated_time_seconds 1.7e+09
# HELP adblock_engine_reloads_total The number of filter list reloads per status.
# TYPE adblock_engine_reloads_total counter
adblock_engine_reloads_total{status="error"} 1
adblock_engine_reloads_total{status="success"} 1
# HELP adblock_engine_rules The number of rules in the active index.
# TYPE adblock_engine_rules gauge
adblock_engine_rules 42
`

	err := testutil.GatherAndCompare(
		reg,
		strings.NewReader(want),
		"adblock_engine_invalid_rules",
		"adblock_engine_last_updated_time_seconds",
		"adblock_engine_reloads_total",
		"adblock_engine_rules",
	)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "adblock_engine_reload_duration_seconds")
	require.NoError(t, err)

	assert.Equal(t, 1, n)
}
