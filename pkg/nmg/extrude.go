package nmg

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ExtrudeFace sweeps the planar face-use fu along dir, closing its shell into
// a prism: a translated copy of the face and one quadrilateral side face per
// edge of every loop, holes included. fu must carry face geometry. The
// original face is reversed when needed so that it faces away from dir.
//
// A dir no longer than tol.ExtrudeMin leaves the model unchanged.
func (m *Model) ExtrudeFace(fu FaceUseID, dir v3.Vec, tol Tol) error {
	length := dir.Length()
	if length <= tol.ExtrudeMin {
		return nil
	}
	p, ok := m.FaceUsePlane(fu)
	if !ok {
		return fmt.Errorf("extrude faceuse %d: %w", fu, ErrNoGeometry)
	}
	cos := p.N.Dot(dir) / length
	if math.Abs(cos) <= tol.Perp {
		return fmt.Errorf("extrude faceuse %d: %w", fu, ErrParallelExtrude)
	}
	if cos > 0 {
		m.ReverseFaceUse(fu)
	}

	fr := m.faceUse(fu)
	s := fr.shell
	type ring struct {
		bottom, top []VertexID
	}
	var rings []ring

	var top FaceUseID
	for _, lu := range fr.loops {
		lr := m.loopUse(lu)
		if lr.vu != 0 {
			continue
		}
		bottom := m.LoopVertices(lu)
		n := len(bottom)
		var err error
		top, err = m.AddLoopToFace(s, top, make([]VertexID, n), lr.orient)
		if err != nil {
			return fmt.Errorf("extrude faceuse %d: %w", fu, err)
		}
		// The top loop runs backwards so that it faces along dir.
		got := m.LoopVertices(m.LastLoopUse(top))
		r := ring{bottom: bottom, top: make([]VertexID, n)}
		for i, v := range bottom {
			r.top[i] = got[n-1-i]
			pt, _ := m.VertexGeometry(v)
			m.SetVertexGeometry(r.top[i], pt.Add(dir))
		}
		rings = append(rings, r)
	}
	if top == 0 {
		return nil
	}
	if err := m.CalcFaceGeometry(top, tol); err != nil {
		return fmt.Errorf("extrude top face: %w", err)
	}

	for _, r := range rings {
		n := len(r.bottom)
		for i := range n {
			j := (i + 1) % n
			quad := []VertexID{r.bottom[j], r.bottom[i], r.top[i], r.top[j]}
			side, err := m.AddLoopToFace(s, 0, quad, OrientSame)
			if err != nil {
				return fmt.Errorf("extrude side %d: %w", i, err)
			}
			if err := m.CalcFaceGeometry(side, tol); err != nil {
				return fmt.Errorf("extrude side %d: %w", i, err)
			}
		}
	}
	return nil
}
