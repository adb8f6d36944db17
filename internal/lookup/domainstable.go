package lookup

import (
	"strings"

	"github.com/AdguardTeam/adblock/internal/fasthash"
	"github.com/AdguardTeam/adblock/rules"
)

// DomainsTable is a lookup table that uses domains from the $domain modifier
// to speed up the rules search.  Only the rules with $domain modifier are
// eligible for this lookup table.
type DomainsTable struct {
	// domains is the domain lookup table.  Key is the domain name hash.
	domains map[uint32][]*rules.NetworkRule

	// count is the number of rules in the table.
	count int
}

// type check
var _ Table = (*DomainsTable)(nil)

// NewDomainsTable creates a new instance of the DomainsTable.
func NewDomainsTable() (d *DomainsTable) {
	return &DomainsTable{
		domains: map[uint32][]*rules.NetworkRule{},
	}
}

// TryAdd implements the [Table] interface for *DomainsTable.  Rules with a
// "google.*"-like domain are not eligible, since the public suffix of the
// request is not known in advance.
func (d *DomainsTable) TryAdd(f *rules.NetworkRule) (ok bool) {
	permittedDomains := f.GetPermittedDomains()
	if len(permittedDomains) == 0 {
		return false
	}

	for _, domain := range permittedDomains {
		if strings.HasSuffix(domain, ".*") {
			return false
		}
	}

	for _, domain := range permittedDomains {
		hash := fasthash.String(domain)
		d.domains[hash] = append(d.domains[hash], f)
	}

	d.count++

	return true
}

// Match implements the [Table] interface for *DomainsTable.
func (d *DomainsTable) Match(r *rules.Request) (f *rules.NetworkRule, ok bool) {
	d.forEachCandidate(r.SourceHostname, func(c *rules.NetworkRule) (cont bool) {
		if c.Match(r) {
			f, ok = c, true
		}

		return !ok
	})

	return f, ok
}

// MatchAll implements the [Table] interface for *DomainsTable.
func (d *DomainsTable) MatchAll(r *rules.Request) (result []*rules.NetworkRule) {
	d.forEachCandidate(r.SourceHostname, func(c *rules.NetworkRule) (cont bool) {
		// A rule with several permitted domains may be stored under more
		// than one parent domain of the source.
		if !ruleIn(c, result) && c.Match(r) {
			result = append(result, c)
		}

		return true
	})

	return result
}

// forEachCandidate calls f for each rule stored under the source hostname or
// one of its parent domains until f returns false.
func (d *DomainsTable) forEachCandidate(
	sourceHostname string,
	f func(c *rules.NetworkRule) (cont bool),
) {
	if sourceHostname == "" || d.count == 0 {
		return
	}

	forEachSubdomain(sourceHostname, func(domain string) (cont bool) {
		for _, c := range d.domains[fasthash.String(domain)] {
			if !f(c) {
				return false
			}
		}

		return true
	})
}

// Len implements the [Table] interface for *DomainsTable.
func (d *DomainsTable) Len() (n int) {
	return d.count
}
