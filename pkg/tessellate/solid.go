package tessellate

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/chazu/nmgkit/pkg/edit"
	"github.com/chazu/nmgkit/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MaxCells is the largest number of set EBM or VOL cells meshed one by one.
// Larger data sets are shown as their bounding box.
const MaxCells = 4096

// Solid meshes an edited primitive through k. EBM and VOL solids whose data
// file can be read are meshed cell by cell; otherwise their bounding box is
// used. Metaballs are approximated by one sphere per control point whose
// radius is where that point alone reaches the threshold.
func Solid(k kernel.Kernel, s edit.Solid) (*kernel.Mesh, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	var (
		ks  kernel.Solid
		mat = sdf.Identity3d()
		err error
	)
	switch p := s.(type) {
	case *edit.Tor:
		ks = k.Torus(p.R1, p.R2)
		mat = torPlacement(p)
	case *edit.Metaball:
		ks, err = metaball(k, p)
	case *edit.EBM:
		ks, err = ebm(k, p)
		mat = p.Mat
	case *edit.Vol:
		ks, err = vol(k, p)
		mat = p.Mat
	default:
		return nil, fmt.Errorf("tessellate: unsupported solid %T", s)
	}
	if err != nil {
		return nil, fmt.Errorf("tessellate: %s: %w", s.Type(), err)
	}
	mesh, err := k.ToMesh(ks)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %s: %w", s.Type(), err)
	}
	transformMesh(mesh, mat)
	mesh.Name = s.Type()
	return mesh, nil
}

// torPlacement maps the torus about +Z at the origin onto t's centre and
// normal.
func torPlacement(t *edit.Tor) sdf.M44 {
	h := t.H.Normalize()
	tilt := math.Acos(max(-1, min(1, h.Z)))
	spin := math.Atan2(h.Y, h.X)
	return sdf.Translate3d(t.V).Mul(sdf.RotateZ(spin)).Mul(sdf.RotateY(tilt))
}

func metaball(k kernel.Kernel, mb *edit.Metaball) (kernel.Solid, error) {
	if len(mb.Points) == 0 {
		return nil, errors.New("metaball has no points")
	}
	var out kernel.Solid
	for _, p := range mb.Points {
		r := math.Sqrt(p.FieldStrength / mb.Threshold)
		if mb.Method == edit.MethodIsopotential {
			r = p.FieldStrength / mb.Threshold
		}
		ball := k.Translate(k.Sphere(r), p.Coord.X, p.Coord.Y, p.Coord.Z)
		if out == nil {
			out = ball
		} else {
			out = k.Union(out, ball)
		}
	}
	return out, nil
}

// readCells returns the first n bytes of the named file, or nil when the file
// cannot supply them.
func readCells(name string, n uint64) []byte {
	if name == "" {
		return nil
	}
	data, err := os.ReadFile(name)
	if err != nil || uint64(len(data)) < n {
		return nil
	}
	return data[:n]
}

// cells unions one box of size per selected cell, or returns nil when there
// are none or too many.
func cells(k kernel.Kernel, n int, set func(i int) bool, size, centre func(i int) v3.Vec) kernel.Solid {
	var pick []int
	for i := range n {
		if set(i) {
			pick = append(pick, i)
			if len(pick) > MaxCells {
				return nil
			}
		}
	}
	var out kernel.Solid
	for _, i := range pick {
		d, c := size(i), centre(i)
		box := k.Translate(k.Box(d.X, d.Y, d.Z), c.X, c.Y, c.Z)
		if out == nil {
			out = box
		} else {
			out = k.Union(out, box)
		}
	}
	return out
}

func ebm(k kernel.Kernel, e *edit.EBM) (kernel.Solid, error) {
	x, y := int(e.XDim), int(e.YDim)
	if data := readCells(e.Name, uint64(x)*uint64(y)); data != nil {
		cell := v3.Vec{X: 1, Y: 1, Z: e.Tallness}
		s := cells(k, x*y,
			func(i int) bool { return data[i] != 0 },
			func(int) v3.Vec { return cell },
			func(i int) v3.Vec {
				return v3.Vec{X: float64(i%x) + 0.5, Y: float64(i/x) + 0.5, Z: e.Tallness / 2}
			})
		if s != nil {
			return s, nil
		}
	}
	box := k.Box(float64(x), float64(y), e.Tallness)
	return k.Translate(box, float64(x)/2, float64(y)/2, e.Tallness/2), nil
}

func vol(k kernel.Kernel, v *edit.Vol) (kernel.Solid, error) {
	x, y, z := int(v.XDim), int(v.YDim), int(v.ZDim)
	cs := v.CellSize
	if data := readCells(v.Name, uint64(x)*uint64(y)*uint64(z)); data != nil {
		s := cells(k, x*y*z,
			func(i int) bool { return uint32(data[i]) >= v.Lo && uint32(data[i]) <= v.Hi },
			func(int) v3.Vec { return cs },
			func(i int) v3.Vec {
				return v3.Vec{
					X: (float64(i%x) + 0.5) * cs.X,
					Y: (float64(i/x%y) + 0.5) * cs.Y,
					Z: (float64(i/(x*y)) + 0.5) * cs.Z,
				}
			})
		if s != nil {
			return s, nil
		}
	}
	d := v3.Vec{X: float64(x) * cs.X, Y: float64(y) * cs.Y, Z: float64(z) * cs.Z}
	return k.Translate(k.Box(d.X, d.Y, d.Z), d.X/2, d.Y/2, d.Z/2), nil
}

// transformMesh applies m to the vertices of mesh and recomputes flat normals.
// A mirroring matrix reverses the triangle winding so faces keep pointing out.
func transformMesh(mesh *kernel.Mesh, m sdf.M44) {
	at := func(i uint32) v3.Vec {
		return v3.Vec{X: float64(mesh.Vertices[3*i]), Y: float64(mesh.Vertices[3*i+1]), Z: float64(mesh.Vertices[3*i+2])}
	}
	set := func(dst []float32, i uint32, p v3.Vec) {
		dst[3*i], dst[3*i+1], dst[3*i+2] = float32(p.X), float32(p.Y), float32(p.Z)
	}
	for i := range uint32(mesh.VertexCount()) {
		set(mesh.Vertices, i, m.MulPosition(at(i)))
	}

	o := m.MulPosition(v3.Vec{})
	ex := m.MulPosition(v3.Vec{X: 1}).Sub(o)
	ey := m.MulPosition(v3.Vec{Y: 1}).Sub(o)
	ez := m.MulPosition(v3.Vec{Z: 1}).Sub(o)
	if ex.Dot(ey.Cross(ez)) < 0 {
		for t := 0; t+2 < len(mesh.Indices); t += 3 {
			mesh.Indices[t+1], mesh.Indices[t+2] = mesh.Indices[t+2], mesh.Indices[t+1]
		}
	}
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		a, b, c := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		n := at(b).Sub(at(a)).Cross(at(c).Sub(at(a)))
		if l := n.Length(); l > 0 {
			n = n.MulScalar(1 / l)
		}
		for _, i := range []uint32{a, b, c} {
			set(mesh.Normals, i, n)
		}
	}
}
