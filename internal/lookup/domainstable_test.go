package lookup_test

import (
	"testing"

	"github.com/AdguardTeam/adblock/internal/lookup"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/stretchr/testify/assert"
)

func TestDomainsTable_TryAdd(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		want assert.BoolAssertionFunc
		name string
		rule string
	}{{
		want: assert.True,
		name: "success",
		rule: testRuleWithDomain,
	}, {
		want: assert.False,
		name: "no_domain",
		rule: testRule,
	}, {
		want: assert.False,
		name: "restricted_only",
		rule: testRule + "$domain=~" + testDomainSub,
	}, {
		want: assert.False,
		name: "wildcard_tld",
		rule: testRuleWildcardTLD,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl := lookup.NewDomainsTable()
			tc.want(t, tbl.TryAdd(newRule(t, tc.rule)))
		})
	}
}

func TestDomainsTable_Match(t *testing.T) {
	t.Parallel()

	tbl := lookup.NewDomainsTable()
	loadTable(t, tbl, testRuleWithDomain, testRuleNoShortcutsURL, "||multi.example^$domain=a.example|b.a.example")

	assert.Equal(t, 3, tbl.Len())

	testCases := []struct {
		name      string
		url       string
		sourceURL string
		wantRule  string
	}{{
		name:      "source_domain",
		url:       testURLStrWithSubdomain,
		sourceURL: testURLStrWithDomain,
		wantRule:  testRuleWithDomain,
	}, {
		name:      "source_subdomain",
		url:       testURLStrWithSubdomain,
		sourceURL: "https://www." + testDomain + "/",
		wantRule:  testRuleWithDomain,
	}, {
		name:      "other_source",
		url:       testURLStrWithSubdomain,
		sourceURL: testURLStrNoMatch,
		wantRule:  "",
	}, {
		name:      "no_source",
		url:       testURLStrWithSubdomain,
		sourceURL: "",
		wantRule:  "",
	}, {
		name:      "websocket",
		url:       "ws://socket.example/",
		sourceURL: testURLStrWithDomain,
		wantRule:  testRuleNoShortcutsURL,
	}, {
		name:      "several_buckets",
		url:       "https://multi.example/",
		sourceURL: "https://b.a.example/",
		wantRule:  "||multi.example^$domain=a.example|b.a.example",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := rules.NewRequest(tc.url, tc.sourceURL, rules.TypeOther)
			assertMatch(t, tbl, r, tc.wantRule)
		})
	}
}
