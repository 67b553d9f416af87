package edit

import (
	"errors"
	"fmt"
)

var (
	ErrArity         = errors.New("wrong number of parameters")
	ErrNonPositive   = errors.New("value must be positive")
	ErrOutOfRange    = errors.New("value out of range")
	ErrNoSelection   = errors.New("nothing selected")
	ErrUnsupportedXY = errors.New("mouse input not supported")
	ErrUnknownMode   = errors.New("unknown edit mode")
	ErrFileTooSmall  = errors.New("file too small")
	ErrNoFilename    = errors.New("no file name given")
	ErrUnknownUnit   = errors.New("unknown unit")
)

// Error is a user error of one edit call. The solid is unchanged.
type Error struct {
	Solid string
	Mode  Mode
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Solid, e.Mode, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// errorf builds an Error around sentinel err. The message is completed with
// the sentinel text.
func errorf(err error, format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}
