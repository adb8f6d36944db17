package lookup

import (
	"strings"

	"github.com/AdguardTeam/adblock/internal/fasthash"
	"github.com/AdguardTeam/adblock/rules"
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/miekg/dns"
)

// DefaultBloomFalsePositiveRate is the default false-positive rate of the
// bloom filter of a [HostnameTable].
const DefaultBloomFalsePositiveRate = 0.01

// HostnameTable is a lookup table for the domain-anchored rules like
// "||example.org^", see [rules.NetworkRule.Hostname].  Such a rule can only
// match a URL with the hostname or its subdomain right after the scheme, so
// the table only checks the rules stored under that host and its parent
// domains.  A bloom filter of the hostnames skips most of the map lookups for
// the hostnames that are not blocked at all.
type HostnameTable struct {
	// filter contains the canonical names of all rule hostnames.
	filter *bloom.BloomFilter

	// hostnames maps the hashes of the canonical names of the rule hostnames
	// to the rules.
	hostnames map[uint32][]*rules.NetworkRule

	// count is the number of rules in the table.
	count int
}

// type check
var _ Table = (*HostnameTable)(nil)

// NewHostnameTable returns a new *HostnameTable for about n rules.  fpRate is
// the false-positive rate of its bloom filter, zero means
// [DefaultBloomFalsePositiveRate].
func NewHostnameTable(n uint, fpRate float64) (t *HostnameTable) {
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = DefaultBloomFalsePositiveRate
	}

	return &HostnameTable{
		filter:    bloom.NewWithEstimates(max(n, 1), fpRate),
		hostnames: make(map[uint32][]*rules.NetworkRule, n),
	}
}

// TryAdd implements the [Table] interface for *HostnameTable.
func (t *HostnameTable) TryAdd(f *rules.NetworkRule) (ok bool) {
	hostname := f.Hostname()
	if hostname == "" {
		return false
	}

	name := dns.CanonicalName(hostname)
	t.filter.AddString(name)

	hash := fasthash.String(name)
	t.hostnames[hash] = append(t.hostnames[hash], f)
	t.count++

	return true
}

// Match implements the [Table] interface for *HostnameTable.
func (t *HostnameTable) Match(r *rules.Request) (f *rules.NetworkRule, ok bool) {
	t.forEachCandidate(r, func(c *rules.NetworkRule) (cont bool) {
		if c.Match(r) {
			f, ok = c, true
		}

		return !ok
	})

	return f, ok
}

// MatchAll implements the [Table] interface for *HostnameTable.
func (t *HostnameTable) MatchAll(r *rules.Request) (result []*rules.NetworkRule) {
	t.forEachCandidate(r, func(c *rules.NetworkRule) (cont bool) {
		if !ruleIn(c, result) && c.Match(r) {
			result = append(result, c)
		}

		return true
	})

	return result
}

// forEachCandidate calls f for each rule stored under the anchor host of r or
// one of its parent domains until f returns false.
func (t *HostnameTable) forEachCandidate(r *rules.Request, f func(c *rules.NetworkRule) (cont bool)) {
	if t.count == 0 {
		return
	}

	host := anchorHost(r.URLLowerCase)
	if host == "" {
		return
	}

	name := dns.CanonicalName(host)

	// Check the top-level domain first and the full name last.
	labels := dns.Split(name)
	for i := len(labels) - 1; i >= 0; i-- {
		domain := name[labels[i]:]
		if !t.filter.TestString(domain) {
			continue
		}

		for _, c := range t.hostnames[fasthash.String(domain)] {
			if !f(c) {
				return
			}
		}
	}
}

// anchorHost returns the part of url a domain anchor is matched against: the
// longest run of hostname characters right after the scheme.  It usually
// equals the hostname, but it is also correct for URLs with userinfo, e.g.
// "http://ads.example@host.example/".
func anchorHost(url string) (host string) {
	_, rest, ok := strings.Cut(url, "://")
	if !ok {
		return ""
	}

	end := 0
	for end < len(rest) && isHostChar(rest[end]) {
		end++
	}

	return strings.TrimSuffix(rest[:end], ".")
}

// isHostChar returns true if c can be a part of the host matched by a domain
// anchor.  url must be lower-cased.
func isHostChar(c byte) (ok bool) {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '_'
}

// Len implements the [Table] interface for *HostnameTable.
func (t *HostnameTable) Len() (n int) {
	return t.count
}
