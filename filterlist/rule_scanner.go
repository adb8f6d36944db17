package filterlist

import (
	"bufio"
	"io"
	"strings"

	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
)

// MaxLineLen is the maximum length of a rule list line.  Longer lines are
// skipped with [ErrLineTooLong].
const MaxLineLen = 1024 * 1024

// readBufSize is the size of the read buffer of a [RuleScanner].
const readBufSize = 64 * 1024

// RuleScanner reads the rules from a reader line by line.  Lines that cannot
// be parsed are skipped and collected as [*ParseError] values.
type RuleScanner struct {
	// currentRule is the last rule read.
	currentRule rules.Rule

	// reader reads the lines.
	reader *bufio.Reader

	// err is the first read error other than [io.EOF].
	err error

	// lineBuf contains the current line.
	lineBuf []byte

	// errs are the errors of the lines skipped so far.
	errs []*ParseError

	// listID is the ID of the list being scanned.
	listID int

	// line is the number of the last line read.
	line int

	// currentLine is the number of the line of currentRule.
	currentLine int

	// unsupported is the count of skipped rules of unsupported types.
	unsupported int
}

// NewRuleScanner returns a new RuleScanner that reads the rules of the list
// with the given ID from r.
func NewRuleScanner(r io.Reader, listID int) (s *RuleScanner) {
	return &RuleScanner{
		reader: bufio.NewReaderSize(r, readBufSize),
		listID: listID,
	}
}

// Scan advances the scanner to the next rule, which will then be available
// through [RuleScanner.Rule].  It returns false when the scan stops, either by
// reaching the end of the input or an error, see [RuleScanner.Err].
func (s *RuleScanner) Scan() (ok bool) {
	for s.err == nil {
		tooLong, err := s.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}

			break
		}

		s.line++
		if tooLong {
			s.errs = append(s.errs, &ParseError{
				Err:    ErrLineTooLong,
				ListID: s.listID,
				Line:   s.line,
			})

			continue
		}

		line := string(s.lineBuf)
		r, err := rules.NewRule(line, s.listID)
		switch {
		case errors.Is(err, rules.ErrUnsupportedRule):
			s.unsupported++
		case err != nil:
			s.errs = append(s.errs, &ParseError{
				Err:    err,
				Text:   strings.TrimSpace(line),
				ListID: s.listID,
				Line:   s.line,
			})
		case r != nil:
			s.currentRule = r
			s.currentLine = s.line

			return true
		default:
			// Empty line or comment.
		}
	}

	s.currentRule = nil
	s.currentLine = 0

	return false
}

// readLine reads the next line into s.lineBuf.  If the line is longer than
// [MaxLineLen], tooLong is true and the line is discarded.  err is [io.EOF]
// only if there are no more lines.
func (s *RuleScanner) readLine() (tooLong bool, err error) {
	s.lineBuf = s.lineBuf[:0]

	started := false
	for {
		var chunk []byte
		var isPrefix bool
		chunk, isPrefix, err = s.reader.ReadLine()
		if err != nil {
			if started && errors.Is(err, io.EOF) {
				// The last line ends exactly at the buffer boundary.
				return tooLong, nil
			}

			return false, err
		}

		started = true
		switch {
		case tooLong:
			// Skip the rest of the line.
		case len(s.lineBuf)+len(chunk) > MaxLineLen:
			tooLong = true
			s.lineBuf = s.lineBuf[:0]
		default:
			s.lineBuf = append(s.lineBuf, chunk...)
		}

		if !isPrefix {
			return tooLong, nil
		}
	}
}

// Rule returns the most recent rule generated by a call to [RuleScanner.Scan]
// and the number of its line.
func (s *RuleScanner) Rule() (r rules.Rule, line int) {
	return s.currentRule, s.currentLine
}

// Err returns the first read error encountered by the scanner.  It returns nil
// if the input was read to the end.
func (s *RuleScanner) Err() (err error) {
	return s.err
}

// Errors returns the errors of the lines skipped so far.
func (s *RuleScanner) Errors() (errs []*ParseError) {
	return s.errs
}

// Unsupported returns the count of the rules skipped because their type is not
// supported, e.g. cosmetic rules.
func (s *RuleScanner) Unsupported() (n int) {
	return s.unsupported
}
