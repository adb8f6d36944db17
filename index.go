package adblock

import (
	"fmt"

	"github.com/AdguardTeam/adblock/internal/lookup"
	"github.com/AdguardTeam/adblock/rules"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the default number of decisions an [Index] caches.
const DefaultCacheSize = 10_000

// IndexConfig is the configuration structure for an [Index].
type IndexConfig struct {
	// CacheSize is the maximum number of decisions cached by the index.  If
	// it is zero, the decisions are not cached.
	CacheSize int

	// BloomFalsePositiveRate is the false-positive rate of the bloom filters
	// of the domain-anchored rules.  If it is zero,
	// [lookup.DefaultBloomFalsePositiveRate] is used.
	BloomFalsePositiveRate float64
}

// Index is a compiled rule set.  An Index is never changed after [NewIndex]
// returns it, so it is safe for concurrent use.
//
// Exception rules and blocking rules are kept in separate table sets.  Any
// matching exception rule allows the request, however specific the matching
// blocking rules are.
type Index struct {
	// cache memoizes the decisions.  It is nil if caching is disabled.
	cache *lru.Cache

	// allowlist contains the exception rules.
	allowlist *ruleSet

	// blocklist contains the blocking rules.
	blocklist *ruleSet

	// rulesCount is the number of the indexed rules.
	rulesCount int
}

// cacheKey is the key of the decision cache.  Other request fields are
// derived from these.
type cacheKey struct {
	url       string
	sourceURL string
	typ       rules.RequestType
}

// NewIndex compiles rs into a new *Index.  c must not be nil.  Rules disabled
// by $badfilter rules, the $badfilter rules themselves, and duplicates are not
// indexed.  The only error it returns is a *CompileInvariantError.
func NewIndex(rs []*rules.NetworkRule, c *IndexConfig) (idx *Index, err error) {
	rs = filterRules(rs)

	var allowRules, blockRules []*rules.NetworkRule
	for _, r := range rs {
		if r.Whitelist {
			allowRules = append(allowRules, r)
		} else {
			blockRules = append(blockRules, r)
		}
	}

	idx = &Index{
		rulesCount: len(rs),
	}

	idx.allowlist, err = newRuleSet(allowRules, c.BloomFalsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("allowlist: %w", err)
	}

	idx.blocklist, err = newRuleSet(blockRules, c.BloomFalsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("blocklist: %w", err)
	}

	if n := idx.allowlist.len() + idx.blocklist.len(); n != idx.rulesCount {
		return nil, &CompileInvariantError{
			Msg: fmt.Sprintf("%d rules in lookup tables, want %d", n, idx.rulesCount),
		}
	}

	if c.CacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		idx.cache, err = lru.New(c.CacheSize)
		if err != nil {
			return nil, &CompileInvariantError{
				Msg: err.Error(),
			}
		}
	}

	return idx, nil
}

// filterRules returns the rules from rs that need to be indexed, in the same
// order.
func filterRules(rs []*rules.NetworkRule) (filtered []*rules.NetworkRule) {
	// Rules negated by a $badfilter rule have the same pattern and therefore
	// the same shortcut.
	badfilters := map[string][]*rules.NetworkRule{}
	for _, r := range rs {
		if r.IsOptionEnabled(rules.OptionBadfilter) {
			badfilters[r.Shortcut] = append(badfilters[r.Shortcut], r)
		}
	}

	seen := make(map[string]struct{}, len(rs))
	filtered = make([]*rules.NetworkRule, 0, len(rs))
	for _, r := range rs {
		if r.IsOptionEnabled(rules.OptionBadfilter) || isBadfiltered(r, badfilters[r.Shortcut]) {
			continue
		}

		if _, ok := seen[r.RuleText]; ok {
			continue
		}

		seen[r.RuleText] = struct{}{}
		filtered = append(filtered, r)
	}

	return filtered
}

// isBadfiltered returns true if any of badfilters disables r.
func isBadfiltered(r *rules.NetworkRule, badfilters []*rules.NetworkRule) (ok bool) {
	for _, b := range badfilters {
		if b.NegatesBadfilter(r) {
			return true
		}
	}

	return false
}

// Len returns the number of the indexed rules.
func (idx *Index) Len() (n int) {
	return idx.rulesCount
}

// Evaluate returns the decision for r.  r must not be nil.
func (idx *Index) Evaluate(r *rules.Request) (d Decision) {
	if idx.cache == nil {
		return idx.evaluate(r)
	}

	key := cacheKey{
		url:       r.URL,
		sourceURL: r.SourceURL,
		typ:       r.RequestType,
	}

	if v, ok := idx.cache.Get(key); ok {
		return v.(Decision)
	}

	d = idx.evaluate(r)
	idx.cache.Add(key, d)

	return d
}

// evaluate returns the decision for r without using the cache.
func (idx *Index) evaluate(r *rules.Request) (d Decision) {
	// Most requests match no blocking rules, so the allowlist is only checked
	// when there is something to allow.
	if _, ok := idx.blocklist.match(r); !ok {
		return DecisionAllow
	}

	if _, ok := idx.allowlist.match(r); ok {
		return DecisionAllow
	}

	return DecisionBlock
}

// MatchResult contains the rules that match a request.
type MatchResult struct {
	// BlockingRules are the matching blocking rules.
	BlockingRules []*rules.NetworkRule

	// ExceptionRules are the matching exception rules.
	ExceptionRules []*rules.NetworkRule
}

// Decision returns the decision the matching rules lead to.
func (res *MatchResult) Decision() (d Decision) {
	if len(res.BlockingRules) > 0 && len(res.ExceptionRules) == 0 {
		return DecisionBlock
	}

	return DecisionAllow
}

// MatchRequest returns all rules that match r.  Unlike [Index.Evaluate], it
// never uses the cache.  r must not be nil.
func (idx *Index) MatchRequest(r *rules.Request) (res *MatchResult) {
	return &MatchResult{
		BlockingRules:  idx.blocklist.matchAll(r),
		ExceptionRules: idx.allowlist.matchAll(r),
	}
}

// ruleSet is a set of rules distributed among the lookup tables.
type ruleSet struct {
	// tables are the lookup tables.  The order is important: a rule is added
	// to the first table that accepts it, so the faster tables go first.
	tables []lookup.Table
}

// newRuleSet returns a new *ruleSet with rs.  fpRate is the false-positive
// rate of the bloom filter of the hostname table.
func newRuleSet(rs []*rules.NetworkRule, fpRate float64) (s *ruleSet, err error) {
	var hostnameRules uint
	for _, r := range rs {
		if r.Hostname() != "" {
			hostnameRules++
		}
	}

	s = &ruleSet{
		tables: []lookup.Table{
			lookup.NewHostnameTable(hostnameRules, fpRate),
			lookup.NewShortcutsTable(),
			lookup.NewDomainsTable(),
			&lookup.SeqScanTable{},
		},
	}

	for _, r := range rs {
		if !s.add(r) {
			return nil, &CompileInvariantError{
				Msg:      "no lookup table accepted the rule",
				RuleText: r.RuleText,
			}
		}
	}

	return s, nil
}

// add adds f to the first table that accepts it.
func (s *ruleSet) add(f *rules.NetworkRule) (ok bool) {
	for _, t := range s.tables {
		if t.TryAdd(f) {
			return true
		}
	}

	return false
}

// match returns the first rule that matches r.
func (s *ruleSet) match(r *rules.Request) (f *rules.NetworkRule, ok bool) {
	for _, t := range s.tables {
		if f, ok = t.Match(r); ok {
			return f, true
		}
	}

	return nil, false
}

// matchAll returns all rules that match r.
func (s *ruleSet) matchAll(r *rules.Request) (result []*rules.NetworkRule) {
	for _, t := range s.tables {
		result = append(result, t.MatchAll(r)...)
	}

	return result
}

// len returns the number of rules in all tables.
func (s *ruleSet) len() (n int) {
	for _, t := range s.tables {
		n += t.Len()
	}

	return n
}
