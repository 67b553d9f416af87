// Package tessellate turns NMG models and edited primitives into triangle
// meshes. Models are triangulated face by face; primitives are built through
// a solid kernel.
package tessellate

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/nmgkit/pkg/kernel"
	"github.com/chazu/nmgkit/pkg/nmg"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Model produces one triangle mesh per region of m. Every face-use is
// triangulated in its own plane with its holes bridged into the outer loop;
// triangles wind counter-clockwise about the face-use normal. Wire geometry
// and lone vertices are skipped. The model is not modified.
func Model(m *nmg.Model, tol nmg.Tol) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, r := range m.Regions() {
		mesh := &kernel.Mesh{Name: fmt.Sprintf("region%d", r)}
		for _, s := range m.Shells(r) {
			for _, fu := range m.FaceUses(s) {
				if err := faceUse(mesh, m, fu, tol); err != nil {
					return nil, fmt.Errorf("tessellate: region %d faceuse %d: %w", r, fu, err)
				}
			}
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// ring is one projected loop of a face. idx holds the mesh index of each point.
type ring struct {
	pts  []v2.Vec
	idx  []uint32
	area float64 // signed, counter-clockwise positive
}

func faceUse(mesh *kernel.Mesh, m *nmg.Model, fu nmg.FaceUseID, tol nmg.Tol) error {
	plane, ok := m.FaceUsePlane(fu)
	if !ok {
		return fmt.Errorf("face has no plane: %w", nmg.ErrNoGeometry)
	}
	u, v := basis(plane.N)
	n := [3]float64{plane.N.X, plane.N.Y, plane.N.Z}

	var outers, holes []*ring
	for _, lu := range m.LoopUses(fu) {
		verts := m.LoopVertices(lu)
		if len(verts) < 3 {
			continue
		}
		r := &ring{}
		for _, vx := range verts {
			p, ok := m.VertexGeometry(vx)
			if !ok {
				return fmt.Errorf("vertex %d: %w", vx, nmg.ErrNoGeometry)
			}
			r.pts = append(r.pts, v2.Vec{X: p.Dot(u), Y: p.Dot(v)})
			r.idx = append(r.idx, mesh.AddVertex([3]float64{p.X, p.Y, p.Z}, n))
		}
		r.area = signedArea(r.pts)
		if math.Abs(r.area) <= tol.DistSq {
			continue
		}
		if m.Orientation(lu) == nmg.OrientSame {
			r.orient(1)
			outers = append(outers, r)
		} else {
			r.orient(-1)
			holes = append(holes, r)
		}
	}

	groups := make(map[*ring][]*ring, len(outers))
	for _, h := range holes {
		o := container(outers, h.pts[0])
		if o == nil {
			return errors.New("hole lies outside every peripheral loop")
		}
		groups[o] = append(groups[o], h)
	}
	for _, o := range outers {
		poly := bridge(o, groups[o])
		for _, t := range earClip(poly.pts) {
			mesh.AddTriangle(poly.idx[t[0]], poly.idx[t[1]], poly.idx[t[2]])
		}
	}
	return nil
}

// basis returns unit vectors u, v spanning the plane with normal n such that
// u x v = n.
func basis(n v3.Vec) (u, v v3.Vec) {
	a := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		a = v3.Vec{Y: 1}
	}
	u = a.Sub(n.MulScalar(a.Dot(n))).Normalize()
	return u, n.Cross(u)
}

// orient reverses r unless its signed area has the sign of want.
func (r *ring) orient(want float64) {
	if r.area*want >= 0 {
		return
	}
	for i, j := 0, len(r.pts)-1; i < j; i, j = i+1, j-1 {
		r.pts[i], r.pts[j] = r.pts[j], r.pts[i]
		r.idx[i], r.idx[j] = r.idx[j], r.idx[i]
	}
	r.area = -r.area
}

// container returns the smallest outer ring enclosing p.
func container(outers []*ring, p v2.Vec) *ring {
	var best *ring
	for _, o := range outers {
		if inside(o.pts, p) && (best == nil || o.area < best.area) {
			best = o
		}
	}
	return best
}
