package edit

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/jinzhu/copier"
)

// Params are the numbers typed for the next Edit call.
type Params struct {
	Para   [3]float64
	Inpara int // how many of Para were supplied
}

// Callbacks are the optional user interface hooks of a Session. A nil hook is
// skipped.
type Callbacks struct {
	GetFilename func() string
	Log         func(msg string)
	UpdateAxes  func(keypoint v3.Vec)
	Refresh     func(mode Mode)
}

// Session is the edit state of one solid. Distinct sessions on distinct
// solids may be used concurrently; a Session itself is not safe for
// concurrent use.
type Session struct {
	Flag     Mode // current mode
	EditMode Mode // base mode whose mouse handling applies
	Params   Params

	MParam v3.Vec  // model point from the last mouse event
	MValid bool    // MParam is set
	Scale  float64 // scale factor from the last mouse event

	Local2Base  float64
	Base2Local  float64
	ViewToModel sdf.M44
	ModelToView sdf.M44

	Selected int // metaball control point, -1 for none

	Callbacks Callbacks
	Solid     Solid

	handlers map[Mode]Handler
	snapshot Solid
}

// NewSession returns a Session editing solid in millimetres with an identity
// view. The current state of solid becomes the accepted state.
func NewSession(solid Solid, cb Callbacks) (*Session, error) {
	s := &Session{
		Local2Base:  1,
		Base2Local:  1,
		ViewToModel: sdf.Identity3d(),
		ModelToView: sdf.Identity3d(),
		Selected:    -1,
		Callbacks:   cb,
		Solid:       solid,
		handlers:    baseHandlers(),
	}
	for mode, h := range solid.Handlers() {
		s.handlers[mode] = h
	}
	if err := s.Accept(); err != nil {
		return nil, err
	}
	return s, nil
}

// Modes returns every mode the session accepts.
func (s *Session) Modes() []Mode {
	modes := make([]Mode, 0, len(s.handlers)+1)
	modes = append(modes, ModeIdle)
	for m := range s.handlers {
		modes = append(modes, m)
	}
	return modes
}

// SetUnits selects the local unit for typed lengths.
func (s *Session) SetUnits(name string) error {
	f, ok := ConversionFactor(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	s.Local2Base, s.Base2Local = f, 1/f
	return nil
}

// SetView sets the model to view matrix; its inverse maps mouse positions
// back into the model.
func (s *Session) SetView(modelToView sdf.M44) {
	s.ModelToView = modelToView
	s.ViewToModel = modelToView.Inverse()
}

// SetEditMode makes mode current. Modes that act at once, such as choosing a
// file or stepping to the next control point, are applied immediately.
func (s *Session) SetEditMode(mode Mode) error {
	h, ok := s.handlers[mode]
	if mode != ModeIdle && !ok {
		return s.report(errorf(ErrUnknownMode, "%s has no mode %d", s.Solid.Type(), int(mode)))
	}
	s.Flag = mode
	s.EditMode = ModeIdle
	switch {
	case mode.IsBase():
		s.EditMode = mode
	case ok:
		if k, isKinded := h.(Kinded); isKinded && k.BaseKind().IsBase() {
			s.EditMode = k.BaseKind()
		}
	}
	s.MValid = false
	s.refresh()

	if im, isImm := h.(Immediate); ok && isImm && im.Immediate() {
		return s.Edit()
	}
	return nil
}

// SetParams stores typed parameters for the next Edit call. Only the first
// three values are kept.
func (s *Session) SetParams(vals ...float64) {
	s.Params = Params{}
	s.Params.Inpara = len(vals)
	copy(s.Params.Para[:], vals)
}

// Edit applies the current mode using the typed parameters. A wrong number of
// parameters or an invalid value leaves the solid unchanged. The parameter
// count is reset after every call.
func (s *Session) Edit() error {
	defer func() { s.Params.Inpara = 0 }()
	if s.Flag == ModeIdle {
		return nil
	}
	h, ok := s.handlers[s.Flag]
	if !ok {
		return s.report(errorf(ErrUnknownMode, "%s has no mode %d", s.Solid.Type(), int(s.Flag)))
	}
	if err := h.Validate(s.Params); err != nil {
		return s.report(err)
	}
	if err := h.Apply(s); err != nil {
		return s.report(err)
	}
	s.updateAxes()
	return nil
}

// EditXY applies the current mode using a mouse position in view
// coordinates, each in [-1, 1].
func (s *Session) EditXY(mouse v3.Vec) error {
	defer func() {
		s.Params.Inpara = 0
		s.MValid = false
		s.Scale = 0
	}()
	h, ok := s.handlers[s.Flag]
	if !ok {
		return s.report(errorf(ErrUnsupportedXY, "%s in mode %s", s.Solid.Type(), s.Flag))
	}
	s.Params.Inpara = 0

	var err error
	if xh, isXY := h.(XYHandler); isXY {
		err = xh.ApplyXY(s, mouse)
	} else {
		switch s.EditMode {
		case ModeScale:
			s.Scale = mouseScale(mouse.Y)
		case ModeTranslate:
			s.MParam, s.MValid = s.mouseToModel(mouse, s.keypoint()), true
		default:
			err = errorf(ErrUnsupportedXY, "%s in mode %s", s.Solid.Type(), s.Flag)
		}
		if err == nil {
			err = h.Apply(s)
		}
	}
	if err != nil {
		return s.report(err)
	}
	s.updateAxes()
	return nil
}

// Accept makes the current state of the solid the one Reject returns to.
func (s *Session) Accept() error {
	snap, err := cloneSolid(s.Solid)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", s.Solid.Type(), err)
	}
	s.snapshot = snap
	return nil
}

// Reject restores the solid to its last accepted state and returns to idle.
func (s *Session) Reject() error {
	if err := restoreSolid(s.Solid, s.snapshot); err != nil {
		return fmt.Errorf("restore %s: %w", s.Solid.Type(), err)
	}
	s.Flag, s.EditMode = ModeIdle, ModeIdle
	s.Params.Inpara = 0
	s.MValid = false
	s.Selected = -1
	s.refresh()
	s.updateAxes()
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// report completes err with the solid and mode, logs it and, for a missing
// selection, returns the session to idle.
func (s *Session) report(err error) error {
	var ee *Error
	if !errors.As(err, &ee) {
		ee = &Error{Msg: err.Error(), Err: err}
	}
	ee.Solid, ee.Mode = s.Solid.Type(), s.Flag
	s.log(ee.Error())
	if errors.Is(err, ErrNoSelection) {
		s.Flag, s.EditMode = ModeIdle, ModeIdle
		s.refresh()
	}
	return ee
}

func (s *Session) log(msg string) {
	if s.Callbacks.Log != nil {
		s.Callbacks.Log(msg)
	}
}

func (s *Session) logf(format string, args ...any) {
	s.log(fmt.Sprintf(format, args...))
}

func (s *Session) refresh() {
	if s.Callbacks.Refresh != nil {
		s.Callbacks.Refresh(s.Flag)
	}
}

func (s *Session) updateAxes() {
	if s.Callbacks.UpdateAxes != nil {
		s.Callbacks.UpdateAxes(s.keypoint())
	}
}

// keypoint is the selected metaball point when there is one, otherwise the
// solid's own keypoint.
func (s *Session) keypoint() v3.Vec {
	if mb, ok := s.Solid.(*Metaball); ok && s.Selected >= 0 && s.Selected < len(mb.Points) {
		return mb.Points[s.Selected].Coord
	}
	return s.Solid.Keypoint()
}

// Keypoint returns the point edits and mouse drags act on.
func (s *Session) Keypoint() v3.Vec { return s.keypoint() }

// length returns typed parameter i converted to base units.
func (s *Session) length(i int) float64 {
	return s.Params.Para[i] * s.Local2Base
}

// point returns the typed point in base units, or the mouse point when no
// parameters were typed.
func (s *Session) point() v3.Vec {
	if s.Params.Inpara == 0 && s.MValid {
		return s.MParam
	}
	return v3.Vec{X: s.length(0), Y: s.length(1), Z: s.length(2)}
}

// scaled returns the typed length, or cur times the mouse scale factor when no
// parameters were typed.
func (s *Session) scaled(cur float64) float64 {
	if s.Params.Inpara == 0 && s.Scale > 0 {
		return cur * s.Scale
	}
	return s.length(0)
}

// mouseScale maps a vertical mouse position to a scale factor: up grows, down
// shrinks, and the factor is always positive.
func mouseScale(y float64) float64 {
	f := 1 + 0.25*max(y, -y)
	if y < 0 {
		return 1 / f
	}
	return f
}

// mouseToModel returns the model point under the mouse at the view depth of
// ref.
func (s *Session) mouseToModel(mouse, ref v3.Vec) v3.Vec {
	v := s.ModelToView.MulPosition(ref)
	v.X, v.Y = mouse.X, mouse.Y
	return s.ViewToModel.MulPosition(v)
}

// ray returns the model space line through the mouse position.
func (s *Session) ray(mouse v3.Vec) (origin, dir v3.Vec) {
	a := s.ViewToModel.MulPosition(v3.Vec{X: mouse.X, Y: mouse.Y, Z: -1})
	b := s.ViewToModel.MulPosition(v3.Vec{X: mouse.X, Y: mouse.Y, Z: 1})
	return a, b.Sub(a).Normalize()
}

// cloneSolid returns a deep copy of s.
func cloneSolid(s Solid) (Solid, error) {
	dst := reflect.New(reflect.TypeOf(s).Elem()).Interface()
	if err := copier.CopyWithOption(dst, s, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	clone, ok := dst.(Solid)
	if !ok {
		return nil, fmt.Errorf("%T does not implement Solid", dst)
	}
	return clone, nil
}

// restoreSolid overwrites dst in place with a deep copy of src.
func restoreSolid(dst, src Solid) error {
	if reflect.TypeOf(dst) != reflect.TypeOf(src) {
		return fmt.Errorf("cannot restore %T from %T", dst, src)
	}
	v := reflect.ValueOf(dst).Elem()
	v.Set(reflect.Zero(v.Type()))
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true})
}
