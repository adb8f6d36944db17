package lookup

import (
	"github.com/AdguardTeam/adblock/rules"
)

// SeqScanTable is basically just a list of network rules that are scanned
// sequentially.  Here we put the rules that are not eligible for other tables.
type SeqScanTable struct {
	rules []*rules.NetworkRule
}

// type check
var _ Table = (*SeqScanTable)(nil)

// TryAdd implements the [Table] interface for *SeqScanTable.  It accepts every
// rule.
func (s *SeqScanTable) TryAdd(f *rules.NetworkRule) (ok bool) {
	s.rules = append(s.rules, f)

	return true
}

// Match implements the [Table] interface for *SeqScanTable.
func (s *SeqScanTable) Match(r *rules.Request) (f *rules.NetworkRule, ok bool) {
	for _, rule := range s.rules {
		if rule.Match(r) {
			return rule, true
		}
	}

	return nil, false
}

// MatchAll implements the [Table] interface for *SeqScanTable.
func (s *SeqScanTable) MatchAll(r *rules.Request) (result []*rules.NetworkRule) {
	for _, rule := range s.rules {
		if rule.Match(r) {
			result = append(result, rule)
		}
	}

	return result
}

// Len implements the [Table] interface for *SeqScanTable.
func (s *SeqScanTable) Len() (n int) {
	return len(s.rules)
}
