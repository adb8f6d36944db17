package rules

import (
	"regexp"
	"strings"
)

// Special characters and their regular-expression counterparts used in the
// basic rule patterns.
const (
	// MaskStartURL is the domain anchor, it matches the beginning of a
	// hostname label.
	MaskStartURL = "||"
	// MaskPipe is the exact start or end anchor.
	MaskPipe = "|"
	// MaskSeparator is the separator placeholder: any character but a
	// letter, a digit, or one of "_-.%", or the end of the URL.
	MaskSeparator = "^"
	// MaskAnyCharacter is the arbitrary-length wildcard.
	MaskAnyCharacter = "*"

	// RegexAnyCharacter corresponds to MaskAnyCharacter.
	RegexAnyCharacter = ".*"
	// RegexSeparator corresponds to MaskSeparator.
	RegexSeparator = "([^ a-zA-Z0-9.%_-]|$)"
	// RegexStartURL corresponds to MaskStartURL.
	RegexStartURL = `^(http|https|ws|wss)://([a-z0-9-_.]+\.)?`
	// RegexStartString corresponds to MaskPipe at the start of a pattern.
	RegexStartString = "^"
	// RegexEndString corresponds to MaskPipe at the end of a pattern.
	RegexEndString = "$"
)

// isRegexPattern returns true if pattern is a "/regexp/" pattern.
func isRegexPattern(pattern string) (ok bool) {
	return len(pattern) > 2 &&
		strings.HasPrefix(pattern, maskRegexRule) &&
		strings.HasSuffix(pattern, maskRegexRule)
}

// splitAnchors strips the leading domain or start anchor and the trailing end
// anchor from a basic rule pattern.
func splitAnchors(pattern string) (core string, domainAnchor, startAnchor, endAnchor bool) {
	core = pattern
	if strings.HasPrefix(core, MaskStartURL) {
		domainAnchor = true
		core = core[len(MaskStartURL):]
	} else if strings.HasPrefix(core, MaskPipe) {
		startAnchor = true
		core = core[len(MaskPipe):]
	}

	if strings.HasSuffix(core, MaskPipe) {
		endAnchor = true
		core = core[:len(core)-len(MaskPipe)]
	}

	return core, domainAnchor, startAnchor, endAnchor
}

// validatePattern returns an error message if a basic rule pattern has
// misplaced anchors.  Regular-expression patterns are not validated here.
func validatePattern(pattern string) (msg string) {
	if isRegexPattern(pattern) {
		return ""
	}

	core, domainAnchor, _, _ := splitAnchors(pattern)
	if strings.Contains(core, MaskPipe) {
		return "unbalanced anchor"
	}

	if domainAnchor && core == "" {
		return "domain anchor without a domain"
	}

	return ""
}

// patternToRegexp converts a basic rule pattern into a regular expression.  It
// returns [RegexAnyCharacter] for patterns that match any URL.
func patternToRegexp(pattern string) (re string) {
	if pattern == MaskStartURL || pattern == MaskPipe ||
		pattern == MaskAnyCharacter || pattern == "" {
		return RegexAnyCharacter
	}

	if isRegexPattern(pattern) {
		return pattern[1 : len(pattern)-1]
	}

	core, domainAnchor, startAnchor, endAnchor := splitAnchors(pattern)

	var sb strings.Builder
	switch {
	case domainAnchor:
		sb.WriteString(RegexStartURL)
	case startAnchor:
		sb.WriteString(RegexStartString)
	}

	for _, part := range splitKeep(core, "*^") {
		switch part {
		case MaskAnyCharacter:
			sb.WriteString(RegexAnyCharacter)
		case MaskSeparator:
			sb.WriteString(RegexSeparator)
		default:
			sb.WriteString(regexp.QuoteMeta(part))
		}
	}

	if endAnchor {
		sb.WriteString(RegexEndString)
	}

	re = sb.String()
	if re == RegexAnyCharacter {
		return RegexAnyCharacter
	}

	return re
}

// splitKeep splits s around each of the bytes from seps, keeping every
// separator as a separate element.
func splitKeep(s, seps string) (parts []string) {
	for s != "" {
		i := strings.IndexAny(s, seps)
		switch i {
		case -1:
			return append(parts, s)
		case 0:
			parts = append(parts, s[:1])
			s = s[1:]
		default:
			parts = append(parts, s[:i])
			s = s[i:]
		}
	}

	return parts
}

// domainAnchorHostname returns the hostname of a "||hostname^"-like pattern,
// the rule can only match that hostname and its subdomains.  It returns an
// empty string if the pattern is not anchored to a complete hostname.
func domainAnchorHostname(pattern string) (hostname string) {
	rest, ok := strings.CutPrefix(pattern, MaskStartURL)
	if !ok {
		return ""
	}

	end := strings.IndexAny(rest, "^/:?|*")
	if end <= 0 || rest[end] == '*' {
		return ""
	}

	hostname = strings.ToLower(rest[:end])
	if strings.HasPrefix(hostname, ".") || strings.HasSuffix(hostname, ".") {
		return ""
	}

	for i := range len(hostname) {
		c := hostname[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '.' && c != '-' && c != '_' {
			return ""
		}
	}

	return hostname
}

// findShortcut searches for the longest substring of the pattern that does not
// contain any of the special characters which are:
//
//	*
//	^
//	|
func findShortcut(pattern string) (shortcut string) {
	for pattern != "" {
		i := strings.IndexAny(pattern, "*^|")
		if i == -1 {
			if len(pattern) > len(shortcut) {
				return pattern
			}

			break
		}

		if i > len(shortcut) {
			shortcut = pattern[:i]
		}
		pattern = pattern[i+1:]
	}

	return shortcut
}

var (
	reRegexpBrackets1         = regexp.MustCompile(`([^\\])\(.*[^\\]\)`)
	reRegexpBrackets2         = regexp.MustCompile(`([^\\])\{.*[^\\]\}`)
	reRegexpBrackets3         = regexp.MustCompile(`([^\\])\[.*[^\\]\]`)
	reRegexpEscapedCharacters = regexp.MustCompile(`([^\\])\\[a-zA-Z]`)
	reRegexpSpecialCharacters = regexp.MustCompile(`[\\^$*+?.()|[\]{}]`)
)

// findRegexpShortcut searches for a shortcut inside of a regexp pattern.
// Shortcut in this case is a longest string with no regexp special characters.
// Complicated regexps are discarded right away.
func findRegexpShortcut(pattern string) string {
	// Strip the slashes.
	pattern = pattern[1 : len(pattern)-1]

	if strings.ContainsAny(pattern, "?|") {
		// Do not mess with complex expressions which use lookahead or
		// alternation.
		return ""
	}

	// Placeholder for a special character.
	const specialCharacter = "..."

	// Prepend specialCharacter for the following replace calls to work
	// properly.
	pattern = specialCharacter + pattern

	pattern = reRegexpBrackets1.ReplaceAllString(pattern, "$1"+specialCharacter)
	pattern = reRegexpBrackets2.ReplaceAllString(pattern, "$1"+specialCharacter)
	pattern = reRegexpBrackets3.ReplaceAllString(pattern, "$1"+specialCharacter)
	pattern = reRegexpEscapedCharacters.ReplaceAllString(pattern, "$1"+specialCharacter)

	longest := ""
	for _, part := range reRegexpSpecialCharacters.Split(pattern, -1) {
		if len(part) > len(longest) {
			longest = part
		}
	}

	return longest
}
