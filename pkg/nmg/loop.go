package nmg

import (
	"fmt"
	"slices"
)

// AddLoopToFace builds a loop through verts and places it in a face-use of
// shell s. When fu is zero a new face and face-use are created; otherwise the
// loop is added to fu. A zero entry in verts asks for a new vertex at that
// position; callers read the vertices back with LoopVertices(LastLoopUse(fu)).
//
// An edge already present in s between the same two vertices is shared by the
// new edge-use rather than duplicated.
func (m *Model) AddLoopToFace(s ShellID, fu FaceUseID, verts []VertexID, o Orientation) (FaceUseID, error) {
	sr := m.shell(s)
	if fu != 0 && m.faceUse(fu).shell != s {
		panic(fmt.Sprintf("nmg: faceuse %d does not belong to shell %d", fu, s))
	}
	vs, err := m.prepareLoopVertices(s, verts)
	if err != nil {
		return 0, err
	}

	if fu == 0 {
		f := m.newFace()
		fu = m.newFaceUse(s, f, OrientSame)
		sr.faceUses = append(sr.faceUses, fu)
	}

	lu := m.newLoopUse(m.newLoop(), o)
	m.loopUse(lu).fu = fu
	fur := m.faceUse(fu)
	fur.loops = append(fur.loops, lu)

	m.buildLoop(s, lu, vs)
	return fu, nil
}

// AddWireLoop builds a loop through verts owned directly by shell s.
func (m *Model) AddWireLoop(s ShellID, verts []VertexID) (LoopUseID, error) {
	sr := m.shell(s)
	vs, err := m.prepareLoopVertices(s, verts)
	if err != nil {
		return 0, err
	}
	lu := m.newLoopUse(m.newLoop(), OrientSame)
	m.loopUse(lu).shell = s
	sr.wireLoops = append(sr.wireLoops, lu)
	m.buildLoop(s, lu, vs)
	return lu, nil
}

// MakeWireEdge creates a wire edge between va and vb in shell s and returns
// the edge-use starting at va. Zero vertices are created.
func (m *Model) MakeWireEdge(s ShellID, va, vb VertexID) EdgeUseID {
	sr := m.shell(s)
	if va != 0 && va == vb {
		panic(fmt.Sprintf("nmg: wire edge from vertex %d to itself", va))
	}
	vs, err := m.prepareLoopVertices(s, []VertexID{va, vb})
	if err != nil {
		panic(err)
	}
	e := m.findEdge(s, vs[0], vs[1])
	if e == 0 {
		e = m.newEdge()
	}
	eu1 := m.newEdgeUse(e)
	eu2 := m.newEdgeUse(e)
	for i, eu := range []EdgeUseID{eu1, eu2} {
		er := m.edgeUse(eu)
		er.shell = s
		er.vu = m.newVertexUse(vs[i], parentEdgeUse, uint32(eu))
	}
	m.edgeUse(eu1).mate = eu2
	m.edgeUse(eu2).mate = eu1
	sr.wireEdges = append(sr.wireEdges, eu1, eu2)
	return eu1
}

// prepareLoopVertices validates verts, creates the missing vertices and
// retires the shell's placeholder vertex-use.
func (m *Model) prepareLoopVertices(s ShellID, verts []VertexID) ([]VertexID, error) {
	n := len(verts)
	if n == 0 {
		return nil, ErrEmptyLoop
	}
	for _, v := range verts {
		if v != 0 {
			m.vertex(v)
		}
	}
	if n > 1 {
		for i, v := range verts {
			if v != 0 && v == verts[(i+1)%n] {
				return nil, fmt.Errorf("%w: vertex %d at positions %d and %d", ErrDuplicateVertex, v, i, (i+1)%n)
			}
		}
	}

	vs := slices.Clone(verts)
	sr := m.shell(s)
	if sr.vu != 0 {
		lone := sr.vu
		sr.vu = 0
		pv := m.detachVertexUse(lone)
		switch {
		case slices.Contains(vs, pv):
		case vs[0] == 0:
			// The first new vertex takes over the placeholder.
			vs[0] = pv
		case len(m.vertex(pv).uses) == 0:
			m.vertex(pv).live = false
		}
	}
	for i, v := range vs {
		if v == 0 {
			vs[i] = m.newVertex()
		}
	}
	return vs, nil
}

// buildLoop populates lu with a lone vertex-use or an edge-use cycle through vs.
func (m *Model) buildLoop(s ShellID, lu LoopUseID, vs []VertexID) {
	if len(vs) == 1 {
		m.loopUse(lu).vu = m.newVertexUse(vs[0], parentLoopUse, uint32(lu))
		return
	}

	n := len(vs)
	type pair struct{ a, b VertexID }
	key := func(a, b VertexID) pair {
		if a > b {
			a, b = b, a
		}
		return pair{a, b}
	}

	// Resolve every edge before any new edge-use exists so lookups only see
	// complete cycles.
	edges := make([]EdgeID, n)
	local := make(map[pair]EdgeID)
	for i := range vs {
		a, b := vs[i], vs[(i+1)%n]
		if e, ok := local[key(a, b)]; ok {
			edges[i] = e
			continue
		}
		e := m.findEdge(s, a, b)
		if e == 0 {
			e = m.newEdge()
		}
		local[key(a, b)] = e
		edges[i] = e
	}

	lr := m.loopUse(lu)
	for i, v := range vs {
		eu := m.newEdgeUse(edges[i])
		m.edgeUse(eu).lu = lu
		m.edgeUse(eu).vu = m.newVertexUse(v, parentEdgeUse, uint32(eu))
		lr.edges = append(lr.edges, eu)
	}
	for _, eu := range lr.edges {
		m.linkMate(eu)
	}
}

// findEdge returns an edge of shell s joining a and b in either direction.
func (m *Model) findEdge(s ShellID, a, b VertexID) EdgeID {
	for _, ends := range [][2]VertexID{{a, b}, {b, a}} {
		for _, vu := range m.vertex(ends[0]).uses {
			vur := m.vertexUse(vu)
			if vur.kind != parentEdgeUse {
				continue
			}
			eu := EdgeUseID(vur.parent)
			if m.shellOfEdgeUse(eu) != s {
				continue
			}
			if m.EdgeUseEnd(eu) == ends[1] {
				return m.edgeUse(eu).edge
			}
		}
	}
	return 0
}

// linkMate pairs eu with an unpaired use of the same edge running the other way.
func (m *Model) linkMate(eu EdgeUseID) {
	er := m.edgeUse(eu)
	if er.mate != 0 {
		return
	}
	start, end := m.EdgeUseStart(eu), m.EdgeUseEnd(eu)
	for _, other := range m.edge(er.edge).uses {
		if other == eu {
			continue
		}
		or := m.edgeUse(other)
		if or.mate != 0 {
			continue
		}
		if m.EdgeUseStart(other) == end && m.EdgeUseEnd(other) == start {
			er.mate = other
			or.mate = eu
			return
		}
	}
}

// FuseVertexUses makes the uses a and b share one vertex. Every use of b's
// vertex moves to a's vertex, which keeps its geometry (or adopts b's when it
// has none); b's vertex is then freed. Neither use changes its place in the
// hierarchy.
func (m *Model) FuseVertexUses(a, b VertexUseID) {
	va := m.vertexUse(a).vertex
	vb := m.vertexUse(b).vertex
	m.joinVertices(va, vb)
}

// joinVertices moves every use of vb onto va and frees vb.
func (m *Model) joinVertices(va, vb VertexID) {
	if va == vb {
		return
	}
	ar, br := m.vertex(va), m.vertex(vb)
	for _, vu := range br.uses {
		m.vertexUse(vu).vertex = va
		ar.uses = append(ar.uses, vu)
	}
	if !ar.hasCoord && br.hasCoord {
		ar.coord, ar.hasCoord = br.coord, true
	}
	br.uses = nil
	br.live = false
}

// detachVertexUse kills vu but leaves its vertex alive even when unused, and
// returns that vertex.
func (m *Model) detachVertexUse(vu VertexUseID) VertexID {
	vur := m.vertexUse(vu)
	v := vur.vertex
	vr := m.vertex(v)
	vr.uses = slices.DeleteFunc(vr.uses, func(u VertexUseID) bool { return u == vu })
	vur.live = false
	return v
}
