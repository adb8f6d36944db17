// Package ufnet contains utilities for domain and hostname parsing/validation.
package ufnet

import "strings"

// maxDomainNameLen is the maximum length of an ASCII hostname including dots.
const maxDomainNameLen = 253

// maxLabelLen is the maximum length of a single domain label.
const maxLabelLen = 63

// ExtractHostname quickly retrieves hostname from the given URL.  Userinfo and
// port are stripped, IPv6 literals are returned without the brackets.
//
// NOTE: ExtractHostname is an optimized, best-effort function to retrieve a
// hostname from a URL-like string.  The result is not guaranteed to be correct
// for non-hierarchical URLs.
func ExtractHostname(url string) (hostname string) {
	firstIdx := strings.Index(url, "//")
	if firstIdx == -1 {
		// This is a non-hierarchical structured URL (e.g. stun: or turn:)
		// https://tools.ietf.org/html/rfc4395#section-2.2
		firstIdx = strings.IndexByte(url, ':')
		if firstIdx <= 0 {
			return ""
		}

		firstIdx++
	} else {
		firstIdx += 2
	}

	authority := url[firstIdx:]
	if end := strings.IndexAny(authority, "/?#"); end != -1 {
		authority = authority[:end]
	}

	if at := strings.LastIndexByte(authority, '@'); at != -1 {
		authority = authority[at+1:]
	}

	if strings.HasPrefix(authority, "[") {
		end := strings.IndexByte(authority, ']')
		if end == -1 {
			return ""
		}

		return authority[1:end]
	}

	if colon := strings.IndexByte(authority, ':'); colon != -1 {
		authority = authority[:colon]
	}

	return authority
}

// IsDomainName returns true if name is a valid domain name:
//
//   - at least two labels separated by dots;
//   - each label is 1 to 63 characters of ASCII letters, digits, and hyphens,
//     and does not start or end with a hyphen;
//   - the whole name is at most 253 characters;
//   - the top-level label is alphabetic or an IDNA "xn--" label.
func IsDomainName(name string) (ok bool) {
	if name == "" || len(name) > maxDomainNameLen {
		return false
	}

	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}

	for _, l := range labels {
		if !isLabel(l) {
			return false
		}
	}

	return isTopLevelLabel(labels[len(labels)-1])
}

// isLabel returns true if l is a valid non-top-level domain label.
func isLabel(l string) (ok bool) {
	if l == "" || len(l) > maxLabelLen || l[0] == '-' || l[len(l)-1] == '-' {
		return false
	}

	for i := range len(l) {
		c := l[i]
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '-':
			// Go on.
		default:
			return false
		}
	}

	return true
}

// isTopLevelLabel returns true if l is a valid top-level domain label.
func isTopLevelLabel(l string) (ok bool) {
	if len(l) >= len("xn--ww") && strings.EqualFold(l[:len("xn--")], "xn--") {
		return true
	}

	if len(l) < 2 {
		return false
	}

	for i := range len(l) {
		c := l[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}

	return true
}
