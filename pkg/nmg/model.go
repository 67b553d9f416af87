package nmg

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MakeRegionShell creates a region holding one empty shell. The shell carries
// a lone placeholder vertex-use whose vertex has no geometry yet.
func (m *Model) MakeRegionShell() (RegionID, ShellID) {
	r := m.newRegion()
	s := m.newShell(r)
	m.region(r).shells = append(m.region(r).shells, s)
	m.regionOrder = append(m.regionOrder, r)

	v := m.newVertex()
	m.shell(s).vu = m.newVertexUse(v, parentShell, uint32(s))
	return r, s
}

// Regions returns the live regions in creation order.
func (m *Model) Regions() []RegionID {
	return slices.Clone(m.regionOrder)
}

// Shells returns the shells of region r.
func (m *Model) Shells(r RegionID) []ShellID {
	return slices.Clone(m.region(r).shells)
}

// RegionOf returns the region owning shell s.
func (m *Model) RegionOf(s ShellID) RegionID {
	return m.shell(s).region
}

// FaceUses returns the face-uses of shell s in creation order.
func (m *Model) FaceUses(s ShellID) []FaceUseID {
	return slices.Clone(m.shell(s).faceUses)
}

// WireLoopUses returns the loop-uses owned directly by shell s.
func (m *Model) WireLoopUses(s ShellID) []LoopUseID {
	return slices.Clone(m.shell(s).wireLoops)
}

// WireEdgeUses returns the edge-uses owned directly by shell s.
func (m *Model) WireEdgeUses(s ShellID) []EdgeUseID {
	return slices.Clone(m.shell(s).wireEdges)
}

// LoneVertexUse returns the lone vertex-use of shell s, or zero.
func (m *Model) LoneVertexUse(s ShellID) VertexUseID {
	return m.shell(s).vu
}

// ShellOf returns the shell owning face-use fu.
func (m *Model) ShellOf(fu FaceUseID) ShellID {
	return m.faceUse(fu).shell
}

// FaceOf returns the face used by fu.
func (m *Model) FaceOf(fu FaceUseID) FaceID {
	return m.faceUse(fu).face
}

// FaceUseOrientation returns the orientation of fu.
func (m *Model) FaceUseOrientation(fu FaceUseID) Orientation {
	return m.faceUse(fu).orient
}

// FaceUsesOfFace returns every use of face f.
func (m *Model) FaceUsesOfFace(f FaceID) []FaceUseID {
	return slices.Clone(m.face(f).uses)
}

// LoopUses returns the loop-uses of fu in insertion order.
func (m *Model) LoopUses(fu FaceUseID) []LoopUseID {
	return slices.Clone(m.faceUse(fu).loops)
}

// LastLoopUse returns the most recently added loop-use of fu.
func (m *Model) LastLoopUse(fu FaceUseID) LoopUseID {
	loops := m.faceUse(fu).loops
	if len(loops) == 0 {
		return 0
	}
	return loops[len(loops)-1]
}

// LoopOf returns the loop used by lu.
func (m *Model) LoopOf(lu LoopUseID) LoopID {
	return m.loopUse(lu).loop
}

// FaceUseOfLoop returns the face-use owning lu, or zero for a wire loop.
func (m *Model) FaceUseOfLoop(lu LoopUseID) FaceUseID {
	return m.loopUse(lu).fu
}

// Orientation returns the orientation of loop-use lu.
func (m *Model) Orientation(lu LoopUseID) Orientation {
	return m.loopUse(lu).orient
}

// EdgeUses returns the edge-uses of lu in cycle order. A lone-point loop has
// none.
func (m *Model) EdgeUses(lu LoopUseID) []EdgeUseID {
	return slices.Clone(m.loopUse(lu).edges)
}

// LoopVertexUse returns the vertex-use of a lone-point loop, or zero.
func (m *Model) LoopVertexUse(lu LoopUseID) VertexUseID {
	return m.loopUse(lu).vu
}

// LoopVertexUses returns the vertex-uses met walking lu: one per edge-use
// origin, or the single use of a lone-point loop.
func (m *Model) LoopVertexUses(lu LoopUseID) []VertexUseID {
	lr := m.loopUse(lu)
	if lr.vu != 0 {
		return []VertexUseID{lr.vu}
	}
	out := make([]VertexUseID, 0, len(lr.edges))
	for _, eu := range lr.edges {
		out = append(out, m.edgeUse(eu).vu)
	}
	return out
}

// LoopVertices returns the vertices met walking lu.
func (m *Model) LoopVertices(lu LoopUseID) []VertexID {
	vus := m.LoopVertexUses(lu)
	out := make([]VertexID, len(vus))
	for i, vu := range vus {
		out[i] = m.vertexUse(vu).vertex
	}
	return out
}

// LoopUseOf returns the loop-use owning eu, or zero for a wire edge.
func (m *Model) LoopUseOf(eu EdgeUseID) LoopUseID {
	return m.edgeUse(eu).lu
}

// NextEdgeUse returns the edge-use following eu in its loop. For a wire edge
// it returns the mate.
func (m *Model) NextEdgeUse(eu EdgeUseID) EdgeUseID {
	er := m.edgeUse(eu)
	if er.lu == 0 {
		return er.mate
	}
	edges := m.loopUse(er.lu).edges
	i := slices.Index(edges, eu)
	return edges[(i+1)%len(edges)]
}

// PrevEdgeUse returns the edge-use preceding eu in its loop.
func (m *Model) PrevEdgeUse(eu EdgeUseID) EdgeUseID {
	er := m.edgeUse(eu)
	if er.lu == 0 {
		return er.mate
	}
	edges := m.loopUse(er.lu).edges
	i := slices.Index(edges, eu)
	return edges[(i+len(edges)-1)%len(edges)]
}

// EdgeUseVertexUse returns the vertex-use at the origin of eu.
func (m *Model) EdgeUseVertexUse(eu EdgeUseID) VertexUseID {
	return m.edgeUse(eu).vu
}

// EdgeUseStart returns the vertex at the origin of eu.
func (m *Model) EdgeUseStart(eu EdgeUseID) VertexID {
	return m.vertexUse(m.edgeUse(eu).vu).vertex
}

// EdgeUseEnd returns the vertex at the end of eu: the origin of the next
// edge-use in the loop, or of the mate for a wire edge.
func (m *Model) EdgeUseEnd(eu EdgeUseID) VertexID {
	next := m.NextEdgeUse(eu)
	if next == 0 {
		return 0
	}
	return m.EdgeUseStart(next)
}

// EdgeOf returns the edge used by eu.
func (m *Model) EdgeOf(eu EdgeUseID) EdgeID {
	return m.edgeUse(eu).edge
}

// RadialUses returns every use of edge e.
func (m *Model) RadialUses(e EdgeID) []EdgeUseID {
	return slices.Clone(m.edge(e).uses)
}

// Mate returns the edge-use traversing the same edge in the opposite
// direction, or zero when the edge has no such use.
func (m *Model) Mate(eu EdgeUseID) EdgeUseID {
	return m.edgeUse(eu).mate
}

// VertexOf returns the vertex used by vu.
func (m *Model) VertexOf(vu VertexUseID) VertexID {
	return m.vertexUse(vu).vertex
}

// VertexUses returns every use of vertex v.
func (m *Model) VertexUses(v VertexID) []VertexUseID {
	return slices.Clone(m.vertex(v).uses)
}

// VertexGeometry returns the coordinate of v and whether one is set.
func (m *Model) VertexGeometry(v VertexID) (v3.Vec, bool) {
	vr := m.vertex(v)
	return vr.coord, vr.hasCoord
}

// SetVertexGeometry attaches or overwrites the coordinate of v.
func (m *Model) SetVertexGeometry(v VertexID, p v3.Vec) {
	vr := m.vertex(v)
	vr.coord = p
	vr.hasCoord = true
}

// FaceGeometry returns the plane of face f and whether one is attached.
func (m *Model) FaceGeometry(f FaceID) (Plane, bool) {
	fr := m.face(f)
	if fr.plane == nil {
		return Plane{}, false
	}
	return *fr.plane, true
}

// ShellAttributes returns the attributes last computed for s.
func (m *Model) ShellAttributes(s ShellID) (Attributes, bool) {
	sr := m.shell(s)
	if sr.attr == nil {
		return Attributes{}, false
	}
	return *sr.attr, true
}

// RegionAttributes returns the attributes last computed for r.
func (m *Model) RegionAttributes(r RegionID) (Attributes, bool) {
	rr := m.region(r)
	if rr.attr == nil {
		return Attributes{}, false
	}
	return *rr.attr, true
}

// IsLive reports whether the vertex handle still refers to a live vertex.
func (m *Model) IsLive(v VertexID) bool {
	return v != 0 && int(v) <= len(m.vertices) && m.vertices[v-1].live
}

// Counts summarises the live records of a model.
type Counts struct {
	Regions, Shells      int
	Faces, FaceUses      int
	Loops, LoopUses      int
	Edges, EdgeUses      int
	Vertices, VertexUses int
}

// Counts returns the number of live records of each kind.
func (m *Model) Counts() Counts {
	var c Counts
	c.Regions = countLive(m.regions, func(r *region) bool { return r.live })
	c.Shells = countLive(m.shells, func(s *shell) bool { return s.live })
	c.Faces = countLive(m.faces, func(f *face) bool { return f.live })
	c.FaceUses = countLive(m.faceUses, func(fu *faceUse) bool { return fu.live })
	c.Loops = countLive(m.loops, func(l *loop) bool { return l.live })
	c.LoopUses = countLive(m.loopUses, func(lu *loopUse) bool { return lu.live })
	c.Edges = countLive(m.edges, func(e *edge) bool { return e.live })
	c.EdgeUses = countLive(m.edgeUses, func(eu *edgeUse) bool { return eu.live })
	c.Vertices = countLive(m.vertices, func(v *vertex) bool { return v.live })
	c.VertexUses = countLive(m.vertexUses, func(vu *vertexUse) bool { return vu.live })
	return c
}

func countLive[T any](arena []*T, live func(*T) bool) int {
	n := 0
	for _, rec := range arena {
		if live(rec) {
			n++
		}
	}
	return n
}

// shellOfEdgeUse returns the shell that ultimately owns eu.
func (m *Model) shellOfEdgeUse(eu EdgeUseID) ShellID {
	er := m.edgeUse(eu)
	if er.lu == 0 {
		return er.shell
	}
	return m.shellOfLoopUse(er.lu)
}

func (m *Model) shellOfLoopUse(lu LoopUseID) ShellID {
	lr := m.loopUse(lu)
	if lr.fu == 0 {
		return lr.shell
	}
	return m.faceUse(lr.fu).shell
}
