package edit

import (
	"fmt"
	"slices"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Handler implements one edit mode.
type Handler interface {
	// Validate checks the typed parameters before anything changes.
	Validate(p Params) error
	// Apply performs the edit on s.Solid. It changes nothing when it fails.
	Apply(s *Session) error
}

// XYHandler is implemented by modes with their own mouse handling.
type XYHandler interface {
	ApplyXY(s *Session, mouse v3.Vec) error
}

// Immediate is implemented by modes that act as soon as they are selected.
type Immediate interface {
	Immediate() bool
}

// Kinded is implemented by modes that take mouse drags the way one of the
// base modes does.
type Kinded interface {
	BaseKind() Mode
}

// modeHandler is a Handler built from an arity list and an apply function.
type modeHandler struct {
	arity     []int
	immediate bool
	kind      Mode
	apply     func(s *Session) error
}

func (h modeHandler) Validate(p Params) error {
	if slices.Contains(h.arity, p.Inpara) {
		return nil
	}
	want := make([]string, len(h.arity))
	for i, n := range h.arity {
		want[i] = fmt.Sprint(n)
	}
	return errorf(ErrArity, "expected %s parameters, got %d", strings.Join(want, " or "), p.Inpara)
}

func (h modeHandler) Apply(s *Session) error { return h.apply(s) }
func (h modeHandler) Immediate() bool        { return h.immediate }
func (h modeHandler) BaseKind() Mode         { return h.kind }

// xyHandler adds mode specific mouse handling to a modeHandler.
type xyHandler struct {
	modeHandler
	xy func(s *Session, mouse v3.Vec) error
}

func (h xyHandler) ApplyXY(s *Session, mouse v3.Vec) error { return h.xy(s, mouse) }

var (
	_ Handler   = modeHandler{}
	_ Immediate = modeHandler{}
	_ Kinded    = modeHandler{}
	_ XYHandler = xyHandler{}
)

// immediate returns a handler taking no parameters that runs on selection.
func immediate(apply func(s *Session) error) modeHandler {
	return modeHandler{arity: []int{0}, immediate: true, apply: apply}
}
