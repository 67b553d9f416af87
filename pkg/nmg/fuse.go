package nmg

import (
	"slices"

	"github.com/dhconnelly/rtreego"
)

// vertexEntry is a vertex stored in the fusing index.
type vertexEntry struct {
	id   VertexID
	rect rtreego.Rect
}

func (e *vertexEntry) Bounds() rtreego.Rect { return e.rect }

var _ rtreego.Spatial = (*vertexEntry)(nil)

// FuseVertices merges the vertices of shell s that lie within tol.Dist of one
// another. The older vertex of each pair survives and keeps its coordinate.
// Edge-uses collapsed to a single vertex are removed, and edges left running
// between the same two vertices are then merged. It
// returns the number of vertices removed.
func (m *Model) FuseVertices(s ShellID, tol Tol) int {
	verts := m.ShellVertices(s)
	tree := rtreego.NewTree(3, 8, 32)
	entries := make(map[VertexID]*vertexEntry, len(verts))
	for _, v := range verts {
		p, ok := m.VertexGeometry(v)
		if !ok {
			continue
		}
		e := &vertexEntry{id: v, rect: rtreego.Point{p.X, p.Y, p.Z}.ToRect(tol.Dist)}
		entries[v] = e
		tree.Insert(e)
	}

	fused := 0
	for _, v := range verts {
		e, ok := entries[v]
		if !ok {
			continue
		}
		p, _ := m.VertexGeometry(v)
		for _, hit := range tree.SearchIntersect(e.rect) {
			other := hit.(*vertexEntry)
			if other.id == v {
				continue
			}
			q, _ := m.VertexGeometry(other.id)
			if p.Sub(q).Length() > tol.Dist {
				continue
			}
			m.FuseVertexUses(m.vertex(v).uses[0], m.vertex(other.id).uses[0])
			tree.Delete(other)
			delete(entries, other.id)
			fused++
		}
	}
	if fused > 0 {
		m.dropCollapsedEdges(s)
		if m.shells[s-1].live {
			m.MergeEdges(s)
		}
	}
	return fused
}

// dropCollapsedEdges kills the loop edge-uses of shell s that now start and
// end at the same vertex. A loop left without edges is killed along with any
// ancestor it empties. It returns the number of edge-uses removed.
func (m *Model) dropCollapsedEdges(s ShellID) int {
	sr := m.shell(s)
	var loops []LoopUseID
	for _, fu := range sr.faceUses {
		loops = append(loops, m.faceUse(fu).loops...)
	}
	loops = append(loops, sr.wireLoops...)

	dropped := 0
	for _, lu := range loops {
		for m.loopUses[lu-1].live {
			edges := m.loopUses[lu-1].edges
			i := slices.IndexFunc(edges, func(eu EdgeUseID) bool {
				return m.EdgeUseStart(eu) == m.EdgeUseEnd(eu)
			})
			if i < 0 {
				break
			}
			dropped++
			if m.CascadeKillEdgeUse(edges[i]) > 1 {
				break
			}
		}
	}
	return dropped
}

// MergeEdges gives every unmated edge-use of shell s the edge of an unmated
// use running the other way between the same two vertices, and mates them.
// It returns the number of pairs joined.
func (m *Model) MergeEdges(s ShellID) int {
	var open []EdgeUseID
	for _, fu := range m.shell(s).faceUses {
		for _, lu := range m.faceUse(fu).loops {
			for _, eu := range m.loopUse(lu).edges {
				if m.edgeUse(eu).mate == 0 {
					open = append(open, eu)
				}
			}
		}
	}

	joined := 0
	for i, a := range open {
		ar := m.edgeUse(a)
		if ar.mate != 0 {
			continue
		}
		as, ae := m.EdgeUseStart(a), m.EdgeUseEnd(a)
		for _, b := range open[i+1:] {
			br := m.edgeUse(b)
			if br.mate != 0 || m.EdgeUseStart(b) != ae || m.EdgeUseEnd(b) != as {
				continue
			}
			if br.edge != ar.edge {
				m.moveEdgeUse(b, ar.edge)
			}
			ar.mate, br.mate = b, a
			joined++
			break
		}
	}
	return joined
}

// moveEdgeUse re-homes eu onto edge e, freeing its old edge when unused.
func (m *Model) moveEdgeUse(eu EdgeUseID, e EdgeID) {
	er := m.edgeUse(eu)
	old := m.edge(er.edge)
	old.uses = slices.DeleteFunc(old.uses, func(u EdgeUseID) bool { return u == eu })
	if len(old.uses) == 0 {
		old.live = false
	}
	er.edge = e
	m.edge(e).uses = append(m.edge(e).uses, eu)
}
