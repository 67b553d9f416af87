package edit

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is a procedural primitive that can be edited in a Session.
type Solid interface {
	// Type names the primitive family, e.g. "tor".
	Type() string
	// Keypoint is the point axes are drawn at and mouse drags act on.
	Keypoint() v3.Vec
	// Transform applies a placement matrix to the solid.
	Transform(m sdf.M44) error
	// Check reports whether the parameters describe a valid solid.
	Check() error
	// Handlers returns the family's custom edit modes.
	Handlers() map[Mode]Handler
}

var (
	_ Solid = (*EBM)(nil)
	_ Solid = (*Vol)(nil)
	_ Solid = (*Metaball)(nil)
	_ Solid = (*Tor)(nil)
)

// ---------------------------------------------------------------------------
// EBM: extruded bitmap
// ---------------------------------------------------------------------------

// EBM is a bitmap file of XDim x YDim bytes extruded to Tallness.
type EBM struct {
	Name     string
	XDim     uint32
	YDim     uint32
	Tallness float64
	Mat      sdf.M44
}

// NewEBM returns an EBM placed at the origin.
func NewEBM(name string, x, y uint32, tallness float64) *EBM {
	return &EBM{Name: name, XDim: x, YDim: y, Tallness: tallness, Mat: sdf.Identity3d()}
}

func (e *EBM) Type() string     { return "ebm" }
func (e *EBM) Keypoint() v3.Vec { return e.Mat.MulPosition(v3.Vec{}) }

func (e *EBM) Transform(m sdf.M44) error {
	e.Mat = m.Mul(e.Mat)
	return nil
}

func (e *EBM) Check() error {
	if e.XDim == 0 || e.YDim == 0 {
		return fmt.Errorf("ebm: dimensions %dx%d: %w", e.XDim, e.YDim, ErrNonPositive)
	}
	if e.Tallness <= 0 {
		return fmt.Errorf("ebm: tallness %g: %w", e.Tallness, ErrNonPositive)
	}
	return nil
}

// ---------------------------------------------------------------------------
// VOL: thresholded voxel file
// ---------------------------------------------------------------------------

// Vol is a voxel file of XDim x YDim x ZDim bytes; cells whose value lies in
// [Lo, Hi] are solid.
type Vol struct {
	Name     string
	XDim     uint32
	YDim     uint32
	ZDim     uint32
	Lo       uint32
	Hi       uint32
	CellSize v3.Vec
	Mat      sdf.M44
}

// MaxThreshold is the largest voxel value.
const MaxThreshold = 255

// NewVol returns a Vol placed at the origin with unit cells.
func NewVol(name string, x, y, z uint32, lo, hi uint32) *Vol {
	return &Vol{
		Name: name, XDim: x, YDim: y, ZDim: z, Lo: lo, Hi: hi,
		CellSize: v3.Vec{X: 1, Y: 1, Z: 1},
		Mat:      sdf.Identity3d(),
	}
}

func (v *Vol) Type() string     { return "vol" }
func (v *Vol) Keypoint() v3.Vec { return v.Mat.MulPosition(v3.Vec{}) }

func (v *Vol) Transform(m sdf.M44) error {
	v.Mat = m.Mul(v.Mat)
	return nil
}

func (v *Vol) Check() error {
	if v.XDim == 0 || v.YDim == 0 || v.ZDim == 0 {
		return fmt.Errorf("vol: dimensions %dx%dx%d: %w", v.XDim, v.YDim, v.ZDim, ErrNonPositive)
	}
	if v.CellSize.X <= 0 || v.CellSize.Y <= 0 || v.CellSize.Z <= 0 {
		return fmt.Errorf("vol: cell size %v: %w", v.CellSize, ErrNonPositive)
	}
	if v.Lo > v.Hi || v.Hi > MaxThreshold {
		return fmt.Errorf("vol: thresholds %d..%d: %w", v.Lo, v.Hi, ErrOutOfRange)
	}
	return nil
}

// ---------------------------------------------------------------------------
// METABALL
// ---------------------------------------------------------------------------

// Metaball rendering methods.
const (
	MethodMetaball     = 0
	MethodIsopotential = 1
	MethodBlob         = 2
)

// MetaballPoint is one control point of a Metaball.
type MetaballPoint struct {
	Coord         v3.Vec
	FieldStrength float64
	Sweat         float64
}

// Metaball is the isosurface at Threshold of the field of its points.
type Metaball struct {
	Method    int
	Threshold float64
	InitStep  float64
	FinalStep float64
	Points    []MetaballPoint
}

// NewMetaball returns a metaball with the given points and default stepping.
func NewMetaball(method int, threshold float64, pts ...MetaballPoint) *Metaball {
	return &Metaball{Method: method, Threshold: threshold, InitStep: 10, FinalStep: 1e-3, Points: pts}
}

func (mb *Metaball) Type() string { return "metaball" }

func (mb *Metaball) Keypoint() v3.Vec {
	if len(mb.Points) == 0 {
		return v3.Vec{}
	}
	return mb.Points[0].Coord
}

func (mb *Metaball) Transform(m sdf.M44) error {
	for i := range mb.Points {
		mb.Points[i].Coord = m.MulPosition(mb.Points[i].Coord)
	}
	return nil
}

func (mb *Metaball) Check() error {
	if mb.Threshold <= 0 {
		return fmt.Errorf("metaball: threshold %g: %w", mb.Threshold, ErrNonPositive)
	}
	if mb.Method < MethodMetaball || mb.Method > MethodBlob {
		return fmt.Errorf("metaball: method %d: %w", mb.Method, ErrOutOfRange)
	}
	for i, p := range mb.Points {
		if p.FieldStrength <= 0 {
			return fmt.Errorf("metaball: point %d field strength %g: %w", i, p.FieldStrength, ErrNonPositive)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// TOR
// ---------------------------------------------------------------------------

// Tor is a torus centred at V with unit normal H, major radius R1 and tube
// radius R2.
type Tor struct {
	V  v3.Vec
	H  v3.Vec
	R1 float64
	R2 float64
}

// NewTor returns a torus about +Z at the origin.
func NewTor(r1, r2 float64) *Tor {
	return &Tor{H: v3.Vec{Z: 1}, R1: r1, R2: r2}
}

func (t *Tor) Type() string     { return "tor" }
func (t *Tor) Keypoint() v3.Vec { return t.V }

// Transform moves the centre and normal. The radii follow the length change
// of the normal, so only uniform scales are exact.
func (t *Tor) Transform(m sdf.M44) error {
	v := m.MulPosition(t.V)
	h := m.MulPosition(t.V.Add(t.H)).Sub(v)
	k := h.Length()
	if k <= 0 || math.IsNaN(k) {
		return fmt.Errorf("tor: transform collapses the normal: %w", ErrNonPositive)
	}
	t.V, t.H = v, h.MulScalar(1/k)
	t.R1 *= k
	t.R2 *= k
	return nil
}

func (t *Tor) Check() error {
	if t.R2 <= 0 {
		return fmt.Errorf("tor: r2 %g: %w", t.R2, ErrNonPositive)
	}
	if t.R1 <= t.R2 {
		return fmt.Errorf("tor: r1 %g not greater than r2 %g: %w", t.R1, t.R2, ErrOutOfRange)
	}
	if math.Abs(t.H.Length()-1) > 1e-6 {
		return fmt.Errorf("tor: normal %v is not unit length: %w", t.H, ErrOutOfRange)
	}
	return nil
}
