package adblock

import "fmt"

// CompileInvariantError is returned by [NewIndex] when the index it has built
// is inconsistent with the input rules.  It always means a bug in the lookup
// tables and never a bad rule, since the rules are validated when parsed.
type CompileInvariantError struct {
	// Msg describes the violated invariant.
	Msg string

	// RuleText is the text of the offending rule, if there is one.
	RuleText string
}

// type check
var _ error = (*CompileInvariantError)(nil)

// Error implements the error interface for *CompileInvariantError.
func (e *CompileInvariantError) Error() (msg string) {
	if e.RuleText == "" {
		return fmt.Sprintf("compile invariant violated: %s", e.Msg)
	}

	return fmt.Sprintf("compile invariant violated: %s, rule: %s", e.Msg, e.RuleText)
}
