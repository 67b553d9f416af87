package edit

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// baseHandlers returns the scale, translate and rotate modes shared by every
// solid. Each applies a matrix about the solid's keypoint.
func baseHandlers() map[Mode]Handler {
	return map[Mode]Handler{
		ModeScale:     modeHandler{arity: []int{1}, kind: ModeScale, apply: applyScale},
		ModeTranslate: modeHandler{arity: []int{3}, kind: ModeTranslate, apply: applyTranslate},
		ModeRotate:    modeHandler{arity: []int{3}, kind: ModeRotate, apply: applyRotate},
	}
}

// applyScale scales the solid about its keypoint by the typed factor or the
// mouse factor.
func applyScale(s *Session) error {
	f := s.Params.Para[0]
	if s.Params.Inpara == 0 {
		f = s.Scale
	}
	if f <= 0 {
		return errorf(ErrNonPositive, "scale factor %g", f)
	}
	return s.transformAbout(sdf.Scale3d(v3.Vec{X: f, Y: f, Z: f}))
}

// applyTranslate moves the keypoint to the typed point or the mouse point.
func applyTranslate(s *Session) error {
	d := s.point().Sub(s.keypoint())
	return s.Solid.Transform(sdf.Translate3d(d))
}

// applyRotate rotates about the keypoint by the typed angles in degrees,
// about X, then Y, then Z.
func applyRotate(s *Session) error {
	rx := sdf.RotateX(s.Params.Para[0] * math.Pi / 180)
	ry := sdf.RotateY(s.Params.Para[1] * math.Pi / 180)
	rz := sdf.RotateZ(s.Params.Para[2] * math.Pi / 180)
	return s.transformAbout(rz.Mul(ry).Mul(rx))
}

// transformAbout applies m with the keypoint as its fixed point.
func (s *Session) transformAbout(m sdf.M44) error {
	k := s.keypoint()
	return s.Solid.Transform(sdf.Translate3d(k).Mul(m).Mul(sdf.Translate3d(k.Neg())))
}
