package builder

import (
	"fmt"
	"io"

	"github.com/chazu/nmgkit/pkg/nmg"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Options controls Convert.
type Options struct {
	Tol  nmg.Tol
	Fuse bool // merge vertices closer than Tol.Dist before fixing normals
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Tol: nmg.DefaultTol()}
}

// Result is the outcome of a conversion. On error the partial Model is still
// returned for inspection when one was built.
type Result struct {
	Model      *nmg.Model
	Region     nmg.RegionID
	Shell      nmg.ShellID
	FaceUse    nmg.FaceUseID
	Extrusion  v3.Vec
	Extruded   bool
	Attributes nmg.Attributes
	Fused      int
}

// Convert reads a face description from r and builds it into a new model:
// the loops become one face, the face gets its plane, is extruded when an
// extrusion vector was given and finally has its normals pointed outward.
func Convert(r io.Reader, opts Options) (*Result, error) {
	m := nmg.NewModel()
	reg, s := m.MakeRegionShell()
	res := &Result{Model: m, Region: reg, Shell: s}

	b := NewBuilder(m, s)
	if err := b.Feed(r); err != nil {
		return res, err
	}
	res.FaceUse = b.FaceUse()
	res.Extrusion = b.Extrusion()
	if res.FaceUse == 0 {
		return res, ErrNoLoops
	}
	if err := Finish(res, opts); err != nil {
		return res, err
	}
	return res, nil
}

// Finish runs the geometry stages of Convert on a result whose topology is
// complete.
func Finish(res *Result, opts Options) error {
	m, tol := res.Model, opts.Tol
	for _, fu := range m.FaceUses(res.Shell) {
		if err := m.CalcFaceGeometry(fu, tol); err != nil {
			return fmt.Errorf("face geometry: %w", err)
		}
	}
	if _, err := m.ComputeRegionAttributes(res.Region, tol); err != nil {
		return fmt.Errorf("region attributes: %w", err)
	}

	if res.Extrusion.Length() > tol.ExtrudeMin {
		if err := m.ExtrudeFace(res.FaceUse, res.Extrusion, tol); err != nil {
			return fmt.Errorf("extrude: %w", err)
		}
		res.Extruded = true
	}
	a, err := m.ComputeRegionAttributes(res.Region, tol)
	if err != nil {
		return fmt.Errorf("region attributes: %w", err)
	}
	res.Attributes = a

	if opts.Fuse {
		res.Fused = m.FuseVertices(res.Shell, tol)
	}
	m.FixNormals(res.Shell, tol)
	if err := m.Check(); err != nil {
		return fmt.Errorf("model check: %w", err)
	}
	return nil
}
