package filterlist

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

const (
	// ErrDuplicateListID is returned by [NewRuleStorage] when two lists share
	// the same ID.
	ErrDuplicateListID errors.Error = "duplicate list id"

	// ErrListTooLarge is returned when a rule list exceeds the configured
	// maximum size.
	ErrListTooLarge errors.Error = "rule list is too large"

	// ErrLineTooLong is the error of a [ParseError] for a line longer than
	// [MaxLineLen].
	ErrLineTooLong errors.Error = "line is too long"
)

// ParseError is returned for a line of a rule list that could not be parsed.
// The line is skipped, the rest of the list is still used.
type ParseError struct {
	// Err is the underlying parsing error.
	Err error

	// Text is the trimmed text of the line.  It is empty for the lines longer
	// than [MaxLineLen].
	Text string

	// ListID is the ID of the list the line comes from.
	ListID int

	// Line is the 1-based line number.
	Line int
}

// type check
var _ errors.Wrapper = (*ParseError)(nil)

// Error implements the error interface for *ParseError.
func (e *ParseError) Error() (msg string) {
	return fmt.Sprintf("list %d: line %d: %s", e.ListID, e.Line, e.Err)
}

// Unwrap implements the [errors.Wrapper] interface for *ParseError.
func (e *ParseError) Unwrap() (unwrapped error) {
	return e.Err
}
