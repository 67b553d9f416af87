package nmg

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FixNormals makes the face-uses of shell s point outward. Winding is first
// made consistent across shared edges, breadth first from the oldest
// face-use of each connected component: a neighbour that traverses a shared
// edge in the same direction is reversed. Each closed component whose signed
// volume is then negative is reversed as a whole. Running it twice changes
// nothing the second time.
func (m *Model) FixNormals(s ShellID, tol Tol) {
	seen := make(map[FaceUseID]bool)
	for _, start := range m.shell(s).faceUses {
		if seen[start] {
			continue
		}
		seen[start] = true
		component := []FaceUseID{start}
		for queue := []FaceUseID{start}; len(queue) > 0; {
			fu := queue[0]
			queue = queue[1:]
			for _, nb := range m.faceNeighbours(fu) {
				if seen[nb.fu] {
					continue
				}
				seen[nb.fu] = true
				if nb.sameDir {
					m.ReverseFaceUse(nb.fu)
				}
				component = append(component, nb.fu)
				queue = append(queue, nb.fu)
			}
		}

		if !m.closedComponent(component) {
			continue
		}
		if vol := m.signedVolume(component); vol < -tol.DistSq*tol.Dist {
			for _, fu := range component {
				m.ReverseFaceUse(fu)
			}
		}
	}
}

type neighbour struct {
	fu      FaceUseID
	sameDir bool // the neighbour runs the shared edge the same way as fu
}

// faceNeighbours returns the face-uses sharing an edge with fu.
func (m *Model) faceNeighbours(fu FaceUseID) []neighbour {
	var out []neighbour
	for _, lu := range m.faceUse(fu).loops {
		for _, eu := range m.loopUse(lu).edges {
			start := m.EdgeUseStart(eu)
			for _, other := range m.edge(m.edgeUse(eu).edge).uses {
				ofu := m.faceUseOfEdgeUse(other)
				if ofu == 0 || ofu == fu {
					continue
				}
				out = append(out, neighbour{fu: ofu, sameDir: m.EdgeUseStart(other) == start})
			}
		}
	}
	return out
}

func (m *Model) faceUseOfEdgeUse(eu EdgeUseID) FaceUseID {
	er := m.edgeUse(eu)
	if er.lu == 0 {
		return 0
	}
	return m.loopUse(er.lu).fu
}

// closedComponent reports whether every edge-use of the face-uses has a mate
// inside the same set.
func (m *Model) closedComponent(fus []FaceUseID) bool {
	in := make(map[FaceUseID]bool, len(fus))
	for _, fu := range fus {
		in[fu] = true
	}
	for _, fu := range fus {
		for _, lu := range m.faceUse(fu).loops {
			for _, eu := range m.loopUse(lu).edges {
				mate := m.edgeUse(eu).mate
				if mate == 0 || !in[m.faceUseOfEdgeUse(mate)] {
					return false
				}
			}
		}
	}
	return true
}

// signedVolume sums the tetrahedra spanned by the origin and a fan over every
// loop. Hole loops wind the other way and subtract themselves.
func (m *Model) signedVolume(fus []FaceUseID) float64 {
	var vol float64
	for _, fu := range fus {
		for _, lu := range m.faceUse(fu).loops {
			pts, err := m.loopCoords(lu)
			if err != nil || len(pts) < 3 {
				continue
			}
			for i := 1; i+1 < len(pts); i++ {
				vol += tripleProduct(pts[0], pts[i], pts[i+1])
			}
		}
	}
	return vol / 6
}

func tripleProduct(a, b, c v3.Vec) float64 {
	return a.Dot(b.Cross(c))
}
