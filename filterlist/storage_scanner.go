package filterlist

import (
	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
)

// RuleStorageScanner scans multiple RuleScanner instances one after another.
type RuleStorageScanner struct {
	// Scanners is the list of list scanners backing this combined scanner.
	Scanners []*RuleScanner

	currentScanner    *RuleScanner
	currentScannerIdx int
}

// Scan advances to the next rule of the current scanner or, if there are none
// left, of the next one.
func (s *RuleStorageScanner) Scan() (ok bool) {
	if len(s.Scanners) == 0 {
		return false
	}

	if s.currentScanner == nil {
		s.currentScannerIdx = 0
		s.currentScanner = s.Scanners[s.currentScannerIdx]
	}

	for {
		if s.currentScanner.Scan() {
			return true
		}

		// Take the next scanner or just return false if there's nothing more.
		if s.currentScannerIdx == len(s.Scanners)-1 {
			return false
		}

		s.currentScannerIdx++
		s.currentScanner = s.Scanners[s.currentScannerIdx]
	}
}

// Rule returns the most recent rule and the number of its line in its list.
func (s *RuleStorageScanner) Rule() (r rules.Rule, line int) {
	if s.currentScanner == nil {
		return nil, 0
	}

	return s.currentScanner.Rule()
}

// Errors returns the parse errors of all the scanners.
func (s *RuleStorageScanner) Errors() (errs []*ParseError) {
	for _, sc := range s.Scanners {
		errs = append(errs, sc.Errors()...)
	}

	return errs
}

// Unsupported returns the total count of the skipped unsupported rules.
func (s *RuleStorageScanner) Unsupported() (n int) {
	for _, sc := range s.Scanners {
		n += sc.Unsupported()
	}

	return n
}

// Err returns the read errors of all the scanners, if any.
func (s *RuleStorageScanner) Err() (err error) {
	var errs []error
	for _, sc := range s.Scanners {
		if err = sc.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
