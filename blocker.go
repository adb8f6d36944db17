// Package adblock is a request-blocking decision engine.  It compiles filter
// lists into an immutable [Index], keeps the active one in an [Engine], and
// lets a [Manager] gate every resource load of the host through the active
// [Blocker].
package adblock

import "github.com/AdguardTeam/adblock/rules"

// Blocker is the interface for the engines that decide whether a resource
// should be loaded.
type Blocker interface {
	// ShouldLoad returns true if the resource described by r may be loaded.
	// r must not be nil and must have a non-empty URL.  It must be safe for
	// concurrent use.
	ShouldLoad(r *rules.Request) (ok bool)
}

// EmptyBlocker is an empty [Blocker] implementation that does nothing.
type EmptyBlocker struct{}

// type check
var _ Blocker = EmptyBlocker{}

// ShouldLoad implements the [Blocker] interface for EmptyBlocker.  It always
// returns true.
func (EmptyBlocker) ShouldLoad(_ *rules.Request) (ok bool) {
	return true
}
