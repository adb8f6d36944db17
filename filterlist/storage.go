package filterlist

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// RuleStorage is an abstraction that combines several rule lists.  It can be
// scanned using a [RuleStorageScanner].
type RuleStorage struct {
	// listsMap is a map with rule lists.  map key is the list ID.
	listsMap map[int]RuleList

	// lists is an array of rules lists which can be accessed using this
	// RuleStorage.
	lists []RuleList
}

// NewRuleStorage creates a new instance of the RuleStorage and validates the
// list of rules specified.
func NewRuleStorage(lists []RuleList) (s *RuleStorage, err error) {
	listsMap := make(map[int]RuleList, len(lists))
	for i, list := range lists {
		id := list.GetID()
		if _, ok := listsMap[id]; ok {
			return nil, fmt.Errorf("list at index %d: %w: %d", i, ErrDuplicateListID, id)
		}

		listsMap[id] = list
	}

	return &RuleStorage{
		listsMap: listsMap,
		lists:    lists,
	}, nil
}

// NewRuleStorageScanner creates a new instance of RuleStorageScanner.  It can
// be used to read and parse all the storage contents.
func (s *RuleStorage) NewRuleStorageScanner() (sc *RuleStorageScanner) {
	scanners := make([]*RuleScanner, 0, len(s.lists))
	for _, list := range s.lists {
		scanners = append(scanners, list.NewScanner())
	}

	return &RuleStorageScanner{
		Scanners: scanners,
	}
}

// List returns the list with the given ID, if any.
func (s *RuleStorage) List(id int) (l RuleList, ok bool) {
	l, ok = s.listsMap[id]

	return l, ok
}

// Len returns the number of lists in the storage.
func (s *RuleStorage) Len() (n int) {
	return len(s.lists)
}

// Close closes the storage instance.
func (s *RuleStorage) Close() (err error) {
	if len(s.lists) == 0 {
		return nil
	}

	var errs []error
	for _, l := range s.lists {
		err = l.Close()
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Annotate(errors.Join(errs...), "closing rule lists: %w")
}
