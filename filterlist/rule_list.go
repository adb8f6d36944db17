// Package filterlist contains the filter-list sources, the line scanners, and
// the storage that combines several lists.
package filterlist

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/c2h5oh/datasize"
)

// DefaultMaxListSize is the default maximum size of a single rule list.
const DefaultMaxListSize = 64 * datasize.MB

// RuleList represents a set of filtering rules.
type RuleList interface {
	// GetID returns the rule list identifier.
	GetID() (id int)

	// NewScanner creates a new scanner that reads the list contents.
	NewScanner() (sc *RuleScanner)

	// Closer closes the list and releases its resources.
	io.Closer
}

// StringRuleList is a string-based rule list.
type StringRuleList struct {
	// RulesText is the string with the filtering rules, one per line.
	RulesText string

	// ID is the rule list ID.
	ID int
}

// type check
var _ RuleList = (*StringRuleList)(nil)

// GetID implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) GetID() (id int) {
	return l.ID
}

// NewScanner implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) NewScanner() (sc *RuleScanner) {
	return NewRuleScanner(strings.NewReader(l.RulesText), l.ID)
}

// Close implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) Close() (err error) {
	return nil
}

// FileRuleList is a rule list read from a file.  The file is read into memory
// once, so scanning never performs I/O.
type FileRuleList struct {
	path     string
	contents string
	id       int
}

// type check
var _ RuleList = (*FileRuleList)(nil)

// NewFileRuleList reads the file at path into a new *FileRuleList.  maxSize
// limits the file size, zero means [DefaultMaxListSize].
func NewFileRuleList(id int, path string, maxSize datasize.ByteSize) (l *FileRuleList, err error) {
	if maxSize == 0 {
		maxSize = DefaultMaxListSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule list: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	// Read one more byte to find out if the file is larger than the limit.
	b, err := io.ReadAll(io.LimitReader(f, int64(maxSize.Bytes())+1))
	if err != nil {
		return nil, fmt.Errorf("reading rule list %q: %w", path, err)
	}

	if uint64(len(b)) > maxSize.Bytes() {
		return nil, fmt.Errorf("rule list %q: %w: max %s", path, ErrListTooLarge, maxSize)
	}

	return &FileRuleList{
		path:     path,
		contents: string(b),
		id:       id,
	}, nil
}

// GetID implements the [RuleList] interface for *FileRuleList.
func (l *FileRuleList) GetID() (id int) {
	return l.id
}

// Path returns the path of the file the list was read from.
func (l *FileRuleList) Path() (path string) {
	return l.path
}

// NewScanner implements the [RuleList] interface for *FileRuleList.
func (l *FileRuleList) NewScanner() (sc *RuleScanner) {
	return NewRuleScanner(strings.NewReader(l.contents), l.id)
}

// Close implements the [RuleList] interface for *FileRuleList.
func (l *FileRuleList) Close() (err error) {
	l.contents = ""

	return nil
}
