package lookup_test

import (
	"testing"

	"github.com/AdguardTeam/adblock/internal/lookup"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Common domains for tests.
const (
	testDomain      = "domain.example"
	testDomainNoMod = "nomod.domain.example"
	testDomainSub   = "sub.domain.example"
)

// Common rules for tests.
const (
	testRule               = "||" + testDomain + "^"
	testRuleNoDomain       = "||" + testDomainNoMod + "^"
	testRuleShortcut       = "/banner/ads"
	testRuleNoShortcutsURL = "|ws://$domain=" + testDomain
	testRuleWithDomain     = "||" + testDomainSub + "^$domain=" + testDomain
	testRuleWildcardTLD    = "/banner$domain=google.*"
)

// Common URL strings for tests.
const (
	testURLStrNoDomain      = "https://" + testDomainNoMod + "/"
	testURLStrNoMatch       = "https://no-match.example/"
	testURLStrWithDomain    = "https://" + testDomain + "/"
	testURLStrWithSubdomain = "https://" + testDomainSub + "/"
)

// newRule is a helper that parses a network rule.
func newRule(tb testing.TB, text string) (r *rules.NetworkRule) {
	tb.Helper()

	r, err := rules.NewNetworkRule(text, 1)
	require.NoError(tb, err)

	return r
}

// loadTable is a helper that adds the rules to tbl and returns the rules that
// have been accepted.
func loadTable(tb testing.TB, tbl lookup.Table, texts ...string) (added []*rules.NetworkRule) {
	tb.Helper()

	for _, text := range texts {
		r := newRule(tb, text)
		if tbl.TryAdd(r) {
			added = append(added, r)
		}
	}

	return added
}

// assertMatch is a helper for matching a single rule in the table or, if
// wantRuleText is empty, that no rules are returned.
func assertMatch(tb testing.TB, tbl lookup.Table, r *rules.Request, wantRuleText string) {
	tb.Helper()

	gotRules := tbl.MatchAll(r)
	got, ok := tbl.Match(r)

	if wantRuleText == "" {
		assert.Empty(tb, gotRules)
		assert.False(tb, ok)
		assert.Nil(tb, got)

		return
	}

	require.Len(tb, gotRules, 1)
	require.True(tb, ok)

	assert.Equal(tb, wantRuleText, gotRules[0].RuleText)
	assert.Equal(tb, wantRuleText, got.RuleText)
}
