package nmg

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// LoopPlane computes the plane of loop-use lu from its traversal order with
// Newell's method, together with the enclosed area. The normal points so that
// the traversal is counter-clockwise about it. ErrNoArea is returned for a
// lone-point loop and for any loop whose area does not exceed tol.DistSq.
func (m *Model) LoopPlane(lu LoopUseID, tol Tol) (Plane, float64, error) {
	pts, err := m.loopCoords(lu)
	if err != nil {
		return Plane{}, 0, err
	}
	if len(pts) < 3 {
		return Plane{}, 0, ErrNoArea
	}

	var n, c v3.Vec
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
		c = c.Add(p)
	}
	area := n.Length() / 2
	if area <= tol.DistSq {
		return Plane{}, area, ErrNoArea
	}
	n = n.Normalize()
	c = c.MulScalar(1 / float64(len(pts)))
	return Plane{N: n, D: n.Dot(c)}, area, nil
}

// loopCoords returns the coordinates met walking lu.
func (m *Model) loopCoords(lu LoopUseID) ([]v3.Vec, error) {
	verts := m.LoopVertices(lu)
	pts := make([]v3.Vec, len(verts))
	for i, v := range verts {
		vr := m.vertex(v)
		if !vr.hasCoord {
			return nil, fmt.Errorf("vertex %d: %w", v, ErrNoGeometry)
		}
		pts[i] = vr.coord
	}
	return pts, nil
}

// SetFaceGeometry attaches p to the face of fu. The plane is given as seen
// from fu and is stored relative to the face.
func (m *Model) SetFaceGeometry(fu FaceUseID, p Plane) {
	fr := m.faceUse(fu)
	if fr.orient == OrientOpposite {
		p = p.Flip()
	}
	m.face(fr.face).plane = &p
}

// FaceUsePlane returns the plane of the face of fu as seen from fu.
func (m *Model) FaceUsePlane(fu FaceUseID) (Plane, bool) {
	fr := m.faceUse(fu)
	p, ok := m.FaceGeometry(fr.face)
	if ok && fr.orient == OrientOpposite {
		p = p.Flip()
	}
	return p, ok
}

// CalcFaceGeometry computes and attaches the plane of fu from its largest
// peripheral loop. Lone-point loops and holes without area are passed over;
// a peripheral loop without area makes the face fail with ErrNoArea.
func (m *Model) CalcFaceGeometry(fu FaceUseID, tol Tol) error {
	var (
		best     Plane
		bestArea float64
		found    bool
	)
	for _, lu := range m.faceUse(fu).loops {
		lr := m.loopUse(lu)
		if lr.vu != 0 {
			continue
		}
		p, area, err := m.LoopPlane(lu, tol)
		if lr.orient != OrientSame {
			if err != nil && !errors.Is(err, ErrNoArea) {
				return fmt.Errorf("faceuse %d loopuse %d: %w", fu, lu, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("faceuse %d loopuse %d: %w", fu, lu, err)
		}
		if !found || area > bestArea {
			best, bestArea, found = p, area, true
		}
	}
	if !found {
		return fmt.Errorf("faceuse %d has no peripheral loop: %w", fu, ErrNoArea)
	}
	m.SetFaceGeometry(fu, best)
	return nil
}

// ReverseFaceUse reverses the traversal of every loop of fu and flips the
// face plane. Loop orientations relative to the face are kept, so holes stay
// holes.
func (m *Model) ReverseFaceUse(fu FaceUseID) {
	fr := m.faceUse(fu)
	for _, lu := range fr.loops {
		m.reverseLoopUse(lu)
	}
	f := m.face(fr.face)
	if f.plane != nil {
		p := f.plane.Flip()
		f.plane = &p
	}
}

// reverseLoopUse reverses the cycle of lu. Each edge-use keeps its edge and
// takes the vertex-use of its old successor as its new origin.
func (m *Model) reverseLoopUse(lu LoopUseID) {
	lr := m.loopUse(lu)
	n := len(lr.edges)
	if n == 0 {
		return
	}

	var touched []EdgeUseID
	for _, eu := range lr.edges {
		er := m.edgeUse(eu)
		if er.mate != 0 {
			m.edgeUse(er.mate).mate = 0
			touched = append(touched, er.mate)
			er.mate = 0
		}
	}

	vus := make([]VertexUseID, n)
	for i, eu := range lr.edges {
		vus[i] = m.edgeUse(eu).vu
	}
	for i, eu := range lr.edges {
		vu := vus[(i+1)%n]
		m.edgeUse(eu).vu = vu
		m.vertexUse(vu).parent = uint32(eu)
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		lr.edges[i], lr.edges[j] = lr.edges[j], lr.edges[i]
	}

	for _, eu := range lr.edges {
		m.linkMate(eu)
	}
	for _, eu := range touched {
		if m.edgeUses[eu-1].live {
			m.linkMate(eu)
		}
	}
}
