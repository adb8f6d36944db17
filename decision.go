package adblock

import "fmt"

// Decision is the result of evaluating a request against an [Index].
type Decision uint8

// Decision values.
const (
	// DecisionAllow means that the resource may be loaded.  It is the result
	// for the requests no rule matches.
	DecisionAllow Decision = iota

	// DecisionBlock means that a blocking rule matched the request and no
	// exception rule did.
	DecisionBlock
)

// type check
var _ fmt.Stringer = DecisionAllow

// String implements the [fmt.Stringer] interface for Decision.
func (d Decision) String() (s string) {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionBlock:
		return "block"
	default:
		return fmt.Sprintf("Decision(%d)", uint8(d))
	}
}
