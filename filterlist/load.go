package filterlist

import (
	"context"
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/c2h5oh/datasize"
)

// Source describes where a rule list comes from.
type Source struct {
	// Path is the path to the file with the rules.  If it is empty, Text is
	// used instead.
	Path string `yaml:"path"`

	// Text is the inline text of the list.
	Text string `yaml:"text"`

	// ID is the ID of the list.  It must be unique among the sources.
	ID int `yaml:"id"`
}

// newRuleList returns the rule list for the source.
func (src *Source) newRuleList(maxSize datasize.ByteSize) (l RuleList, err error) {
	if src.Path == "" {
		if uint64(len(src.Text)) > maxSize.Bytes() {
			return nil, fmt.Errorf("inline list: %w: max %s", ErrListTooLarge, maxSize)
		}

		return &StringRuleList{
			RulesText: src.Text,
			ID:        src.ID,
		}, nil
	}

	return NewFileRuleList(src.ID, src.Path, maxSize)
}

// Load reads the lists from srcs and returns the storage that combines them.
// ctx is checked before each source, so a cancelled load stops between
// sources and the lists already read are closed.  maxSize limits the size of
// each list, zero means [DefaultMaxListSize].
func Load(ctx context.Context, srcs []Source, maxSize datasize.ByteSize) (s *RuleStorage, err error) {
	if maxSize == 0 {
		maxSize = DefaultMaxListSize
	}

	lists := make([]RuleList, 0, len(srcs))
	defer func() {
		if err != nil {
			err = errors.WithDeferred(err, closeAll(lists))
		}
	}()

	for i := range srcs {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("loading lists: %w", err)
		}

		src := &srcs[i]

		var l RuleList
		l, err = src.newRuleList(maxSize)
		if err != nil {
			return nil, fmt.Errorf("list %d: %w", src.ID, err)
		}

		lists = append(lists, l)
	}

	return NewRuleStorage(lists)
}

// closeAll closes every list and returns the joined errors.
func closeAll(lists []RuleList) (err error) {
	var errs []error
	for _, l := range lists {
		errs = append(errs, l.Close())
	}

	return errors.Join(errs...)
}
