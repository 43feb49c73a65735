package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is returned when the symbol table has no address left.
	ErrCapacity = errors.New("variable table full")
	// ErrScopeOverflow is returned when a loop or conditional nests deeper
	// than Options.MaxDepth.
	ErrScopeOverflow = errors.New("scope stack overflow")
	// ErrUnbalanced is returned for an end without a matching start, and for
	// scopes still open when the program is closed.
	ErrUnbalanced = errors.New("unbalanced scope")
	// ErrClosed is returned by any operation after Close.
	ErrClosed = errors.New("code generator closed")
)

// SyntaxError reports a condition or expression fragment that cannot be
// lowered.
type SyntaxError struct {
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %q", e.Msg, e.Text)
}
