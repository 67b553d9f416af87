package nmg

import (
	"fmt"
	"slices"
)

// The Kill* operations remove one use and free any entity left without uses.
// They report whether the parent record is now empty; cascading upward is the
// caller's decision (see the Cascade* helpers).

// KillVertexUse removes vu from its parent. It reports whether the parent
// (a lone-point loop-use, an edge-use or the shell slot) is left empty.
func (m *Model) KillVertexUse(vu VertexUseID) bool {
	vur := m.vertexUse(vu)
	v := m.detachVertexUse(vu)
	if len(m.vertex(v).uses) == 0 {
		m.vertex(v).live = false
	}

	switch vur.kind {
	case parentShell:
		sr := m.shell(ShellID(vur.parent))
		if sr.vu == vu {
			sr.vu = 0
		}
		return m.shellEmpty(sr)
	case parentLoopUse:
		lr := m.loopUse(LoopUseID(vur.parent))
		lr.vu = 0
		return len(lr.edges) == 0
	case parentEdgeUse:
		m.edgeUse(EdgeUseID(vur.parent)).vu = 0
		return true
	default:
		panic(fmt.Sprintf("nmg: vertexuse %d has no parent", vu))
	}
}

// KillEdgeUse removes eu and its vertex-use. For a loop edge-use it reports
// whether the loop-use has no edge-uses left; for a wire edge-use whether the
// shell is empty. The remaining cycle is not re-closed.
func (m *Model) KillEdgeUse(eu EdgeUseID) bool {
	er := m.edgeUse(eu)
	if er.vu != 0 {
		m.KillVertexUse(er.vu)
	}
	if er.mate != 0 {
		m.edgeUse(er.mate).mate = 0
	}
	e := m.edge(er.edge)
	e.uses = slices.DeleteFunc(e.uses, func(u EdgeUseID) bool { return u == eu })
	if len(e.uses) == 0 {
		e.live = false
	}
	er.live = false

	if er.lu != 0 {
		lr := m.loopUse(er.lu)
		lr.edges = slices.DeleteFunc(lr.edges, func(u EdgeUseID) bool { return u == eu })
		return len(lr.edges) == 0 && lr.vu == 0
	}
	sr := m.shell(er.shell)
	sr.wireEdges = slices.DeleteFunc(sr.wireEdges, func(u EdgeUseID) bool { return u == eu })
	return m.shellEmpty(sr)
}

// KillLoopUse removes lu with everything it owns. It reports whether the
// owning face-use (or, for a wire loop, the shell) is left empty.
func (m *Model) KillLoopUse(lu LoopUseID) bool {
	lr := m.loopUse(lu)
	for _, eu := range slices.Clone(lr.edges) {
		m.KillEdgeUse(eu)
	}
	if lr.vu != 0 {
		m.KillVertexUse(lr.vu)
	}
	l := m.loop(lr.loop)
	l.uses = slices.DeleteFunc(l.uses, func(u LoopUseID) bool { return u == lu })
	if len(l.uses) == 0 {
		l.live = false
	}
	lr.live = false

	if lr.fu != 0 {
		fr := m.faceUse(lr.fu)
		fr.loops = slices.DeleteFunc(fr.loops, func(u LoopUseID) bool { return u == lu })
		return len(fr.loops) == 0
	}
	sr := m.shell(lr.shell)
	sr.wireLoops = slices.DeleteFunc(sr.wireLoops, func(u LoopUseID) bool { return u == lu })
	return m.shellEmpty(sr)
}

// KillFaceUse removes fu with its loop-uses. It reports whether the shell is
// left empty.
func (m *Model) KillFaceUse(fu FaceUseID) bool {
	fr := m.faceUse(fu)
	for _, lu := range slices.Clone(fr.loops) {
		m.KillLoopUse(lu)
	}
	f := m.face(fr.face)
	f.uses = slices.DeleteFunc(f.uses, func(u FaceUseID) bool { return u == fu })
	if len(f.uses) == 0 {
		f.live = false
	}
	fr.live = false

	sr := m.shell(fr.shell)
	sr.faceUses = slices.DeleteFunc(sr.faceUses, func(u FaceUseID) bool { return u == fu })
	return m.shellEmpty(sr)
}

// KillShell removes s with everything it owns. It reports whether the region
// has no shells left.
func (m *Model) KillShell(s ShellID) bool {
	sr := m.shell(s)
	for _, fu := range slices.Clone(sr.faceUses) {
		m.KillFaceUse(fu)
	}
	for _, lu := range slices.Clone(sr.wireLoops) {
		m.KillLoopUse(lu)
	}
	for _, eu := range slices.Clone(sr.wireEdges) {
		m.KillEdgeUse(eu)
	}
	if sr.vu != 0 {
		m.KillVertexUse(sr.vu)
	}
	sr.live = false

	rr := m.region(sr.region)
	rr.shells = slices.DeleteFunc(rr.shells, func(u ShellID) bool { return u == s })
	return len(rr.shells) == 0
}

// KillRegion removes r and its shells. It reports whether the model has no
// regions left.
func (m *Model) KillRegion(r RegionID) bool {
	rr := m.region(r)
	for _, s := range slices.Clone(rr.shells) {
		m.KillShell(s)
	}
	rr.live = false
	m.regionOrder = slices.DeleteFunc(m.regionOrder, func(u RegionID) bool { return u == r })
	return len(m.regionOrder) == 0
}

func (m *Model) shellEmpty(sr *shell) bool {
	return len(sr.faceUses) == 0 && len(sr.wireLoops) == 0 && len(sr.wireEdges) == 0 && sr.vu == 0
}

// ---------------------------------------------------------------------------
// Caller-side cascades
// ---------------------------------------------------------------------------

// CascadeKillEdgeUse kills eu and then every ancestor left empty by it, up to
// and including the shell. It returns the number of records removed.
func (m *Model) CascadeKillEdgeUse(eu EdgeUseID) int {
	er := m.edgeUse(eu)
	lu, s := er.lu, er.shell
	if !m.KillEdgeUse(eu) {
		return 1
	}
	if lu == 0 {
		m.KillShell(s)
		return 2
	}
	return 1 + m.CascadeKillLoopUse(lu)
}

// CascadeKillLoopUse kills lu and then every ancestor left empty by it.
func (m *Model) CascadeKillLoopUse(lu LoopUseID) int {
	lr := m.loopUse(lu)
	fu, s := lr.fu, lr.shell
	if !m.KillLoopUse(lu) {
		return 1
	}
	if fu == 0 {
		m.KillShell(s)
		return 2
	}
	s = m.faceUse(fu).shell
	if !m.KillFaceUse(fu) {
		return 2
	}
	m.KillShell(s)
	return 3
}

// CascadeKillVertexUse kills vu and then every ancestor left empty by it.
func (m *Model) CascadeKillVertexUse(vu VertexUseID) int {
	vur := m.vertexUse(vu)
	kind, parent := vur.kind, vur.parent
	if !m.KillVertexUse(vu) {
		return 1
	}
	switch kind {
	case parentEdgeUse:
		return 1 + m.CascadeKillEdgeUse(EdgeUseID(parent))
	case parentLoopUse:
		return 1 + m.CascadeKillLoopUse(LoopUseID(parent))
	default:
		m.KillShell(ShellID(parent))
		return 2
	}
}
