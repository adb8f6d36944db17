package lookup

import (
	"math"
	"strings"

	"github.com/AdguardTeam/adblock/internal/fasthash"
	"github.com/AdguardTeam/adblock/rules"
)

// shortcutLength is the length of the shortcut windows.
const shortcutLength = 5

// ShortcutsTable is a table that relies on the rule "shortcuts" to quickly
// find matching rules.  Here's how it works:
//
//  1. We extract from the rule the longest substring without special
//     characters from, this string is called a "shortcut".
//  2. We take a part of it of length "shortcutLength" and put it to the
//     internal hashmap.
//  3. When we match a request, we take all substrings of length
//     "shortcutsLength" from it and check if there're any rules in the
//     hashmap.
//
// Note that only the rules with a shortcut are eligible for this table.
type ShortcutsTable struct {
	// shortcuts is the map where the key is the hash of the shortcut and
	// value is a list of rules.
	shortcuts map[uint32][]*rules.NetworkRule

	// histogram helps us choose the best shortcut for the shortcuts lookup
	// table.
	histogram map[uint32]int

	// count is the number of rules in the table.
	count int
}

// type check
var _ Table = (*ShortcutsTable)(nil)

// NewShortcutsTable creates a new instance of the ShortcutsTable.
func NewShortcutsTable() (s *ShortcutsTable) {
	return &ShortcutsTable{
		shortcuts: map[uint32][]*rules.NetworkRule{},
		histogram: map[uint32]int{},
	}
}

// TryAdd implements the [Table] interface for *ShortcutsTable.
func (s *ShortcutsTable) TryAdd(f *rules.NetworkRule) (ok bool) {
	shortcut := f.Shortcut
	if len(shortcut) < shortcutLength || isAnyURLShortcut(shortcut) {
		return false
	}

	// Find the applicable shortcut window, the least used one.
	var shortcutHash uint32
	minCount := math.MaxInt
	for i := 0; i <= len(shortcut)-shortcutLength; i++ {
		hash := fasthash.Between(shortcut, i, i+shortcutLength)
		if count := s.histogram[hash]; count < minCount {
			minCount = count
			shortcutHash = hash
		}
	}

	s.histogram[shortcutHash] = minCount + 1
	s.shortcuts[shortcutHash] = append(s.shortcuts[shortcutHash], f)
	s.count++

	return true
}

// Match implements the [Table] interface for *ShortcutsTable.
func (s *ShortcutsTable) Match(r *rules.Request) (f *rules.NetworkRule, ok bool) {
	url := r.URLLowerCase
	for i := 0; i <= len(url)-shortcutLength; i++ {
		hash := fasthash.Between(url, i, i+shortcutLength)
		for _, rule := range s.shortcuts[hash] {
			if rule.Match(r) {
				return rule, true
			}
		}
	}

	return nil, false
}

// MatchAll implements the [Table] interface for *ShortcutsTable.
func (s *ShortcutsTable) MatchAll(r *rules.Request) (result []*rules.NetworkRule) {
	url := r.URLLowerCase
	for i := 0; i <= len(url)-shortcutLength; i++ {
		// The shortcuts table contains the shortcuts of rules of fixed
		// length.  Go through all the substrings of the URL having such
		// length to find matching rules.
		hash := fasthash.Between(url, i, i+shortcutLength)
		for _, rule := range s.shortcuts[hash] {
			// Make sure that the same rule isn't returned twice.  This
			// happens when the URL has a repeating pattern.
			if ruleIn(rule, result) || !rule.Match(r) {
				continue
			}

			result = append(result, rule)
		}
	}

	return result
}

// Len implements the [Table] interface for *ShortcutsTable.
func (s *ShortcutsTable) Len() (n int) {
	return s.count
}

// isAnyURLShortcut checks if the rule potentially matches too many URLs.
// We'd better use another type of lookup table for this kind of rules.
func isAnyURLShortcut(shortcut string) (ok bool) {
	switch shLen := len(shortcut); {
	case
		shLen < len("ws://")+1 && strings.HasPrefix(shortcut, "ws:"),
		shLen < len("wss://")+1 && strings.HasPrefix(shortcut, "wss:"),
		shLen < len("https://")+1 && strings.HasPrefix(shortcut, "http"):
		return true
	default:
		return false
	}
}
