package adblock

import (
	"time"

	"github.com/AdguardTeam/adblock/filterlist"
)

// LoadReport describes the result of a successful load of filter lists.  A
// load succeeds even if some lines could not be parsed; they are skipped and
// listed in Errors.
type LoadReport struct {
	// Updated is the time when the index was swapped.
	Updated time.Time

	// Errors are the errors of the skipped lines.
	Errors []*filterlist.ParseError

	// Lists is the number of the loaded lists.
	Lists int

	// Rules is the number of the parsed network rules.
	Rules int

	// Indexed is the number of the rules in the index, that is, without the
	// duplicates and the rules disabled by $badfilter.
	Indexed int

	// Unsupported is the number of the skipped rules of unsupported types,
	// like element hiding rules.
	Unsupported int
}
