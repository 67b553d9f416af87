package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexRange is returned for a vertex index outside [0, MaxVertices).
	ErrIndexRange = errors.New("builder: vertex index out of range")
	// ErrUndefinedReuse is returned when a reuse names a slot that was never
	// defined.
	ErrUndefinedReuse = errors.New("builder: reuse of undefined vertex")
	// ErrRedefined is returned when a slot is given coordinates that differ
	// from the ones it was defined with.
	ErrRedefined = errors.New("builder: vertex redefined at other coordinates")
	// ErrNoLoops is returned by Convert when the input defines no loop.
	ErrNoLoops = errors.New("builder: input defines no loops")
)

// SyntaxError reports a malformed token stream.
type SyntaxError struct {
	Offset int64  // byte offset of the offending token
	Token  string // the token, empty at end of input
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("syntax error at offset %d near %q: %s", e.Offset, e.Token, e.Msg)
}
