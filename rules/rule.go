package rules

import (
	"fmt"
	"strings"

	"github.com/AdguardTeam/adblock/internal/ufnet"
	"github.com/AdguardTeam/golibs/errors"
)

// RuleSyntaxError represents an error while parsing a filtering rule.
type RuleSyntaxError struct {
	msg      string
	ruleText string
}

// newRuleSyntaxError returns a new *RuleSyntaxError with a formatted message.
func newRuleSyntaxError(ruleText, format string, args ...any) (err *RuleSyntaxError) {
	return &RuleSyntaxError{
		msg:      fmt.Sprintf(format, args...),
		ruleText: ruleText,
	}
}

// type check
var _ error = (*RuleSyntaxError)(nil)

// Error implements the error interface for *RuleSyntaxError.
func (e *RuleSyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s, rule: %s", e.msg, e.ruleText)
}

// ErrUnsupportedRule signals that this might be a valid rule type, but it is
// not supported by this library.  Cosmetic rules are reported with it.
const ErrUnsupportedRule errors.Error = "this type of rules is unsupported"

// Rule is a base interface for all filtering rules.
type Rule interface {
	// Text returns the original rule text.
	Text() string

	// GetFilterListID returns ID of the filter list this rule belongs to.
	GetFilterListID() int
}

// cosmeticRulesMarkers are the separators of element hiding, CSS, and
// scriptlet rules.  Longer markers go first.
var cosmeticRulesMarkers = []string{
	"#@$?#", "#@%#", "#@?#", "#@$#",
	"#$?#", "#@#", "#%#", "#?#", "#$#",
	"##",
}

// NewRule creates a new filtering rule from the specified line.  It returns
// nil if the line is empty or if it is a comment, and [ErrUnsupportedRule] if
// the line is a cosmetic rule.
func NewRule(line string, filterListID int) (r Rule, err error) {
	line = strings.TrimSpace(line)

	if line == "" || isComment(line) {
		return nil, nil
	}

	if isCosmetic(line) {
		return nil, ErrUnsupportedRule
	}

	nr, err := NewNetworkRule(line, filterListID)
	if err != nil {
		return nil, err
	}

	return nr, nil
}

// isComment checks if the line is a comment or a list metadata line like
// "[Adblock Plus 2.0]".
func isComment(line string) bool {
	switch line[0] {
	case '!', '[':
		return true
	case '#':
		return len(line) == 1 || !isCosmetic(line)
	default:
		return false
	}
}

// isCosmetic checks if the line contains a cosmetic rule marker.
func isCosmetic(line string) bool {
	i := strings.IndexByte(line, '#')
	if i == -1 {
		return false
	}

	for _, marker := range cosmeticRulesMarkers {
		if strings.HasPrefix(line[i:], marker) {
			return true
		}
	}

	return false
}

// loadDomains loads the values of the $domain modifier.  domains are separated
// by sep, "~" marks a restricted domain.  Domains are lower-cased so that the
// matching is case-insensitive.
func loadDomains(domains, sep string) (permitted, restricted []string, err error) {
	if domains == "" {
		return nil, nil, errors.Error("no domains specified")
	}

	for _, d := range strings.Split(domains, sep) {
		isRestricted := strings.HasPrefix(d, "~")
		if isRestricted {
			d = d[1:]
		}

		if !ufnet.IsDomainName(d) && !isWildcardTLDDomain(d) {
			return nil, nil, fmt.Errorf("invalid domain specified: %q", d)
		}

		d = strings.ToLower(d)
		if isRestricted {
			restricted = append(restricted, d)
		} else {
			permitted = append(permitted, d)
		}
	}

	return permitted, restricted, nil
}

// isWildcardTLDDomain returns true if d is a "google.*"-like domain.
func isWildcardTLDDomain(d string) (ok bool) {
	name, found := strings.CutSuffix(d, ".*")

	return found && name != "" && ufnet.IsDomainName(name+".com")
}
