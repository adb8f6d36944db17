package rules

import (
	"fmt"
	"math/bits"
	"regexp"
	"strings"

	"github.com/AdguardTeam/adblock/internal/ufnet"
	"github.com/AdguardTeam/golibs/errors"
)

const (
	maskWhiteList    = "@@"
	maskRegexRule    = "/"
	optionsDelimiter = '$'
	escapeCharacter  = '\\'
)

// minPatternLen is the minimum length of a pattern of a rule without a
// $domain restriction.
const minPatternLen = 3

// ErrTooWideRule is returned if the rule matches all URLs but has no domain
// restrictions.
const ErrTooWideRule errors.Error = "the rule is too wide, add domain restrictions " +
	"or make it more specific"

// reEscapedOptionsDelimiter matches the escaped "$" inside the rule options.
var reEscapedOptionsDelimiter = regexp.MustCompile(regexp.QuoteMeta("\\$"))

// NetworkRuleOption is the enumeration of the flag-like rule options.
type NetworkRuleOption uint8

// NetworkRuleOption enumeration
const (
	OptionThirdParty NetworkRuleOption = 1 << iota // $third-party modifier
	OptionMatchCase                                // $match-case modifier
	OptionBadfilter                                // $badfilter modifier
)

// Count returns the count of enabled options.
func (o NetworkRuleOption) Count() int {
	return bits.OnesCount8(uint8(o))
}

// NetworkRule is a basic URL filtering rule.  A rule is immutable after
// [NewNetworkRule] returns it, so it is safe for concurrent use.
type NetworkRule struct {
	// regex is the compiled pattern.  It is nil if the pattern matches any
	// URL.
	regex *regexp.Regexp

	// RuleText is the original rule text.
	RuleText string

	// Shortcut is the longest substring of the rule pattern with no special
	// characters, in lower case.
	Shortcut string

	// pattern is the basic rule pattern ready to be compiled to regex.
	pattern string

	// hostname is the hostname the rule is anchored to, if the pattern is
	// "||hostname^"-like.
	hostname string

	// permittedDomains is the list of permitted domains from the $domain
	// modifier.
	permittedDomains []string

	// restrictedDomains is the list of restricted domains from the $domain
	// modifier.
	restrictedDomains []string

	// FilterListID is the identifier of the list the rule comes from.
	FilterListID int

	// permittedRequestTypes is the mask of all permitted request types.  Zero
	// means all.
	permittedRequestTypes RequestType

	// restrictedRequestTypes is the mask of all restricted request types.
	// Zero means none.
	restrictedRequestTypes RequestType

	// enabledOptions is the flag with all enabled rule options.
	enabledOptions NetworkRuleOption

	// disabledOptions is the flag with all disabled rule options.
	disabledOptions NetworkRuleOption

	// Whitelist is true if this is an exception rule.
	Whitelist bool
}

// type check
var _ Rule = (*NetworkRule)(nil)

// NewNetworkRule parses the rule text and returns a filter rule.  The pattern
// is compiled right away, so the returned rule never fails to match because of
// a broken pattern.
func NewNetworkRule(ruleText string, filterListID int) (r *NetworkRule, err error) {
	pattern, options, whitelist, err := parseRuleText(ruleText)
	if err != nil {
		return nil, err
	}

	if msg := validatePattern(pattern); msg != "" {
		return nil, newRuleSyntaxError(ruleText, "%s", msg)
	}

	r = &NetworkRule{
		RuleText:     ruleText,
		Whitelist:    whitelist,
		FilterListID: filterListID,
		pattern:      pattern,
	}

	err = r.loadOptions(options)
	if err != nil {
		return nil, newRuleSyntaxError(ruleText, "%s", err)
	}

	// example.org/* -> example.org^
	if strings.HasSuffix(r.pattern, "/*") {
		r.pattern = r.pattern[:len(r.pattern)-len("/*")] + MaskSeparator
	}

	if len(pattern) < minPatternLen && len(r.permittedDomains) == 0 {
		return nil, ErrTooWideRule
	}

	err = r.compilePattern()
	if err != nil {
		return nil, newRuleSyntaxError(ruleText, "%s", err)
	}

	r.hostname = domainAnchorHostname(r.pattern)
	r.loadShortcut()

	return r, nil
}

// Text implements the [Rule] interface for *NetworkRule.
func (f *NetworkRule) Text() string {
	return f.RuleText
}

// GetFilterListID implements the [Rule] interface for *NetworkRule.
func (f *NetworkRule) GetFilterListID() int {
	return f.FilterListID
}

// String returns original rule text.
func (f *NetworkRule) String() string {
	return f.RuleText
}

// Match checks if this filtering rule matches the specified request.
func (f *NetworkRule) Match(r *Request) (ok bool) {
	switch {
	case
		!f.matchShortcut(r),
		f.IsOptionEnabled(OptionThirdParty) && !r.ThirdParty,
		f.IsOptionDisabled(OptionThirdParty) && r.ThirdParty,
		!f.matchRequestType(r.RequestType),
		!f.matchSourceDomain(r.SourceHostname),
		!f.matchPattern(r):
		return false
	}

	return true
}

// IsOptionEnabled returns true if the specified option is enabled.
func (f *NetworkRule) IsOptionEnabled(option NetworkRuleOption) bool {
	return (f.enabledOptions & option) == option
}

// IsOptionDisabled returns true if the specified option is disabled.
func (f *NetworkRule) IsOptionDisabled(option NetworkRuleOption) bool {
	return (f.disabledOptions & option) == option
}

// GetPermittedDomains returns the domains this rule is allowed on.
func (f *NetworkRule) GetPermittedDomains() []string {
	return f.permittedDomains
}

// GetRestrictedDomains returns the domains this rule is disabled on.
func (f *NetworkRule) GetRestrictedDomains() []string {
	return f.restrictedDomains
}

// PermittedRequestTypes returns the mask of the request types the rule is
// limited to.  Zero means all types.
func (f *NetworkRule) PermittedRequestTypes() (t RequestType) {
	return f.permittedRequestTypes
}

// RestrictedRequestTypes returns the mask of the request types the rule never
// applies to.
func (f *NetworkRule) RestrictedRequestTypes() (t RequestType) {
	return f.restrictedRequestTypes
}

// Hostname returns the hostname of a domain-anchored rule like
// "||example.org^".  Such a rule can only match requests to the hostname or
// its subdomains.  It returns an empty string for other rules.
func (f *NetworkRule) Hostname() (hostname string) {
	return f.hostname
}

// IsRegexRule returns true if rule's pattern is a regular expression.
func (f *NetworkRule) IsRegexRule() bool {
	return isRegexPattern(f.pattern)
}

// IsGeneric returns true if the rule is considered "generic".  "generic" means
// that the rule is not restricted to a limited set of domains.  Please note
// that it might be forbidden on some domains, though.
func (f *NetworkRule) IsGeneric() bool {
	return len(f.permittedDomains) == 0
}

// NegatesBadfilter returns true if f is a $badfilter rule that disables r.  r
// must be the same rule without the $badfilter modifier.
func (f *NetworkRule) NegatesBadfilter(r *NetworkRule) (ok bool) {
	switch {
	case
		!f.IsOptionEnabled(OptionBadfilter),
		r.IsOptionEnabled(OptionBadfilter),
		f.Whitelist != r.Whitelist,
		f.pattern != r.pattern,
		f.permittedRequestTypes != r.permittedRequestTypes,
		f.restrictedRequestTypes != r.restrictedRequestTypes,
		(f.enabledOptions ^ OptionBadfilter) != r.enabledOptions,
		f.disabledOptions != r.disabledOptions,
		!stringArraysEquals(f.permittedDomains, r.permittedDomains),
		!stringArraysEquals(f.restrictedDomains, r.restrictedDomains):
		return false
	}

	return true
}

// compilePattern converts the pattern into the regular expression.
func (f *NetworkRule) compilePattern() (err error) {
	pattern := patternToRegexp(f.pattern)
	if pattern == RegexAnyCharacter {
		return nil
	}

	if !f.IsOptionEnabled(OptionMatchCase) {
		pattern = "(?i)" + pattern
	}

	f.regex, err = regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	return nil
}

// matchPattern uses the regex pattern to match the request URL.
func (f *NetworkRule) matchPattern(r *Request) bool {
	return f.regex == nil || f.regex.MatchString(r.URL)
}

// matchShortcut simply checks if shortcut is a substring of the URL.
func (f *NetworkRule) matchShortcut(r *Request) bool {
	return strings.Contains(r.URLLowerCase, f.Shortcut)
}

// matchSourceDomain checks if the specified filtering rule is allowed on this
// domain e.g. it checks the domain against what's specified in the $domain
// modifier.
func (f *NetworkRule) matchSourceDomain(domain string) bool {
	if len(f.permittedDomains) == 0 && len(f.restrictedDomains) == 0 {
		return true
	}

	if len(f.restrictedDomains) > 0 && isDomainOrSubdomainOfAny(domain, f.restrictedDomains) {
		// Domain or host is restricted, i.e. $domain=~example.org.
		return false
	}

	if len(f.permittedDomains) > 0 && !isDomainOrSubdomainOfAny(domain, f.permittedDomains) {
		// Domain is not among permitted, i.e. $domain=example.org and we're
		// checking example.com.
		return false
	}

	return true
}

// matchRequestType checks if the specified request type matches the rule
// properties.
func (f *NetworkRule) matchRequestType(requestType RequestType) bool {
	if f.permittedRequestTypes != 0 && (f.permittedRequestTypes&requestType) != requestType {
		return false
	}

	if f.restrictedRequestTypes != 0 && (f.restrictedRequestTypes&requestType) == requestType {
		return false
	}

	return true
}

// setRequestType permits or forbids the specified request type.
func (f *NetworkRule) setRequestType(requestType RequestType, permitted bool) {
	if permitted {
		f.permittedRequestTypes |= requestType
	} else {
		f.restrictedRequestTypes |= requestType
	}
}

// setOptionEnabled enables or disables the specified option.  It returns an
// error if the option is set both ways.
func (f *NetworkRule) setOptionEnabled(option NetworkRuleOption, enabled bool) (err error) {
	if enabled && f.IsOptionDisabled(option) || !enabled && f.IsOptionEnabled(option) {
		return errors.Error("conflicting modifiers")
	}

	if enabled {
		f.enabledOptions |= option
	} else {
		f.disabledOptions |= option
	}

	return nil
}

// loadOptions loads all the filtering rule options.
func (f *NetworkRule) loadOptions(options string) (err error) {
	if options == "" {
		return nil
	}

	// inDomain is true after a $domain modifier, the domains that follow it
	// may also be separated with commas, e.g. "domain=a.com,~b.com".
	inDomain := false
	for _, option := range splitWithEscapeCharacter(options, ',', escapeCharacter, false) {
		name, value, hasValue := strings.Cut(option, "=")
		name = strings.TrimSpace(name)
		if inDomain && !hasValue && isDomainValue(name) {
			err = f.addDomains(name)
			if err != nil {
				return err
			}

			continue
		}

		err = f.loadOption(name, value)
		if err != nil {
			return err
		}

		inDomain = name == "domain"
	}

	if f.permittedRequestTypes&f.restrictedRequestTypes != 0 {
		return errors.Error("request type is both permitted and restricted")
	}

	return nil
}

// loadOption loads the specified option with its value, which may be empty.
func (f *NetworkRule) loadOption(name, value string) (err error) {
	switch name {
	case "third-party", "~first-party":
		return f.setOptionEnabled(OptionThirdParty, true)
	case "~third-party", "first-party":
		return f.setOptionEnabled(OptionThirdParty, false)
	case "match-case":
		return f.setOptionEnabled(OptionMatchCase, true)
	case "badfilter":
		return f.setOptionEnabled(OptionBadfilter, true)
	case "domain":
		return f.addDomains(value)
	}

	typeName, negated := strings.CutPrefix(name, "~")
	t, ok := optionRequestTypes[typeName]
	if !ok || value != "" {
		return fmt.Errorf("unknown filter modifier: %q", name)
	}

	f.setRequestType(t, !negated)

	return nil
}

// addDomains adds the "|"-separated domains of the $domain modifier.
func (f *NetworkRule) addDomains(value string) (err error) {
	permitted, restricted, err := loadDomains(value, "|")
	if err != nil {
		return err
	}

	f.permittedDomains = append(f.permittedDomains, permitted...)
	f.restrictedDomains = append(f.restrictedDomains, restricted...)

	return nil
}

// isDomainValue returns true if the modifier name s is actually a domain that
// continues the comma-separated list of a $domain modifier.
func isDomainValue(s string) (ok bool) {
	d := strings.TrimPrefix(s, "~")
	if _, ok = optionRequestTypes[d]; ok || !strings.Contains(d, ".") {
		return false
	}

	return ufnet.IsDomainName(d) || isWildcardTLDDomain(d)
}

// optionRequestTypes maps the request type modifiers to request types.
// [TypeRefresh] and [TypeXBLBinding] have no modifiers and are only matched by
// rules without type restrictions.
var optionRequestTypes = map[string]RequestType{
	"document":          TypeDocument,
	"image":             TypeImage,
	"object":            TypeObject,
	"object-subrequest": TypeObjectSubrequest,
	"other":             TypeOther,
	"ping":              TypePing,
	"script":            TypeScript,
	"stylesheet":        TypeStylesheet,
	"subdocument":       TypeSubdocument,
	"xhr":               TypeXmlhttprequest,
	"xmlhttprequest":    TypeXmlhttprequest,
}

// loadShortcut extracts a shortcut from the pattern.  Shortcut is the longest
// substring of the pattern that does not contain any special characters.
func (f *NetworkRule) loadShortcut() {
	var shortcut string
	if f.IsRegexRule() {
		shortcut = findRegexpShortcut(f.pattern)
	} else {
		shortcut = findShortcut(f.pattern)
	}

	// Shortcut needs to be at least longer than 1 character.
	if len(shortcut) > 1 {
		f.Shortcut = strings.ToLower(shortcut)
	}
}

// parseRuleText splits the rule text in multiple parts:
//
//   - pattern is a basic rule pattern which can be easily converted into a
//     regex;
//   - options is a string with all rule options;
//   - whitelist indicates if rule is an exception rule, i.e. it should
//     unblock requests, not block them.
func parseRuleText(ruleText string) (pattern, options string, whitelist bool, err error) {
	startIndex := 0
	if strings.HasPrefix(ruleText, maskWhiteList) {
		whitelist = true
		startIndex = len(maskWhiteList)
	}

	if len(ruleText) <= startIndex {
		return "", "", false, newRuleSyntaxError(ruleText, "the rule is too short")
	}

	// Setting pattern to rule text for the case of empty options.
	pattern = ruleText[startIndex:]

	// Avoid parsing options inside of a regex rule.
	if isRegexPattern(pattern) {
		return pattern, "", whitelist, nil
	}

	foundEscaped := false
	for i := len(ruleText) - 2; i >= startIndex; i-- {
		c := ruleText[i]
		if c != optionsDelimiter {
			continue
		}

		if i > startIndex && ruleText[i-1] == escapeCharacter {
			foundEscaped = true

			continue
		}

		pattern = ruleText[startIndex:i]
		options = ruleText[i+1:]
		if foundEscaped {
			options = reEscapedOptionsDelimiter.ReplaceAllString(
				options,
				string(optionsDelimiter),
			)
		}

		break
	}

	return pattern, options, whitelist, nil
}
