package rules

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// splitWithEscapeCharacter splits string by the specified separator if it is
// not escaped.
func splitWithEscapeCharacter(str string, sep, escapeCharacter byte, preserveAllTokens bool) []string {
	parts := make([]string, 0)

	if str == "" {
		return parts
	}

	var sb strings.Builder
	escaped := false
	for i := range len(str) {
		c := str[i]

		switch {
		case c == escapeCharacter:
			escaped = true
		case c == sep && escaped:
			sb.WriteByte(c)
			escaped = false
		case c == sep:
			if preserveAllTokens || sb.Len() > 0 {
				parts = append(parts, sb.String())
				sb.Reset()
			}
		default:
			if escaped {
				escaped = false
				sb.WriteByte(escapeCharacter)
			}
			sb.WriteByte(c)
		}
	}

	if preserveAllTokens || sb.Len() > 0 {
		parts = append(parts, sb.String())
	}

	return parts
}

// stringArraysEquals checks if arrays are equal.
func stringArraysEquals(l, r []string) bool {
	if len(l) != len(r) {
		return false
	}

	for i := range l {
		if l[i] != r[i] {
			return false
		}
	}

	return true
}

// isDomainOrSubdomainOfAny checks if domain is one of domains or a subdomain
// of any of them.  Both domain and domains must be lower-cased.
func isDomainOrSubdomainOfAny(domain string, domains []string) bool {
	for _, d := range domains {
		if name, ok := strings.CutSuffix(d, ".*"); ok {
			if matchWildcardTLD(domain, name) {
				return true
			}

			continue
		}

		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}

	return false
}

// matchWildcardTLD returns true if domain is name.TLD or its subdomain, where
// TLD is an ICANN public suffix, e.g. "google.*" matches "www.google.co.uk".
func matchWildcardTLD(domain, name string) (ok bool) {
	tld, icann := publicsuffix.PublicSuffix(domain)
	if tld == "" || !icann {
		return false
	}

	rest, found := strings.CutSuffix(domain, "."+tld)
	if !found {
		return false
	}

	return rest == name || strings.HasSuffix(rest, "."+name)
}
