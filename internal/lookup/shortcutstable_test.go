package lookup_test

import (
	"testing"

	"github.com/AdguardTeam/adblock/internal/lookup"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/stretchr/testify/assert"
)

func TestShortcutsTable_TryAdd(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		want assert.BoolAssertionFunc
		name string
		rule string
	}{{
		want: assert.True,
		name: "success",
		rule: testRule,
	}, {
		want: assert.True,
		name: "path",
		rule: testRuleShortcut,
	}, {
		want: assert.False,
		name: "too_short",
		rule: "||ads^",
	}, {
		want: assert.False,
		name: "any_url",
		rule: testRuleNoShortcutsURL,
	}, {
		want: assert.False,
		name: "any_http_url",
		rule: "|https://$domain=" + testDomain,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl := lookup.NewShortcutsTable()
			tc.want(t, tbl.TryAdd(newRule(t, tc.rule)))
		})
	}
}

func TestShortcutsTable_Match(t *testing.T) {
	t.Parallel()

	tbl := lookup.NewShortcutsTable()
	loadTable(t, tbl, testRuleShortcut, testRuleNoDomain)

	assert.Equal(t, 2, tbl.Len())

	testCases := []struct {
		name     string
		url      string
		wantRule string
	}{{
		name:     "path",
		url:      "https://cdn.example/banner/ads/1.gif",
		wantRule: testRuleShortcut,
	}, {
		name:     "repeated",
		url:      "https://cdn.example/banner/ads/banner/ads/1.gif",
		wantRule: testRuleShortcut,
	}, {
		name:     "upper_case",
		url:      "https://cdn.example/BANNER/ADS/1.gif",
		wantRule: testRuleShortcut,
	}, {
		name:     "domain",
		url:      testURLStrNoDomain,
		wantRule: testRuleNoDomain,
	}, {
		name:     "no_match",
		url:      testURLStrNoMatch,
		wantRule: "",
	}, {
		name:     "short_url",
		url:      "a:b",
		wantRule: "",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assertMatch(t, tbl, rules.NewRequest(tc.url, "", rules.TypeOther), tc.wantRule)
		})
	}
}
