// Package lookup implements index structures that we use to improve matching
// speed in the engines.
package lookup

import "github.com/AdguardTeam/adblock/rules"

// Table is a common interface for all lookup tables.  Tables are filled with
// TryAdd during the index construction and are read-only afterwards, so Match
// and MatchAll are safe for concurrent use.
type Table interface {
	// TryAdd attempts to add the rule to the lookup table.  It returns
	// true/false depending on whether the rule is eligible for this lookup
	// table.
	TryAdd(f *rules.NetworkRule) (ok bool)

	// Match returns the first rule from this lookup table that matches r.
	Match(r *rules.Request) (f *rules.NetworkRule, ok bool)

	// MatchAll finds all matching rules from this lookup table.
	MatchAll(r *rules.Request) (result []*rules.NetworkRule)

	// Len returns the number of rules in the table.
	Len() (n int)
}

// forEachSubdomain calls f for hostname and each of its parent domains,
// starting from the top-level one, until f returns false.
func forEachSubdomain(hostname string, f func(domain string) (cont bool)) {
	for i := len(hostname) - 1; i >= 0; i-- {
		if hostname[i] == '.' && !f(hostname[i+1:]) {
			return
		}
	}

	if hostname != "" {
		f(hostname)
	}
}

// ruleIn checks if the particular rule instance is contained by the slice of
// pointers.
func ruleIn(rule *rules.NetworkRule, rs []*rules.NetworkRule) (ok bool) {
	for _, r := range rs {
		if r == rule {
			return true
		}
	}

	return false
}
