package nmg

import (
	"errors"
	"fmt"
	"slices"
)

// ValidationError describes one broken invariant of a model.
type ValidationError struct {
	Kind    string // record kind, e.g. "edgeuse"
	ID      uint32 // handle of the offending record
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Kind, e.ID, e.Message)
}

// Validate walks the model from its regions down and reports every broken
// link, open loop, inconsistent edge or orphaned use. An empty slice means
// the model is consistent. It never mutates the model.
func (m *Model) Validate() []ValidationError {
	c := &checker{m: m, reached: make(map[string]map[uint32]bool)}
	for _, r := range m.regionOrder {
		c.region(r)
	}
	c.orphans()
	return c.errs
}

// Check returns the findings of Validate joined into one error, or nil.
func (m *Model) Check() error {
	errs := m.Validate()
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}

type checker struct {
	m       *Model
	errs    []ValidationError
	reached map[string]map[uint32]bool
}

func (c *checker) fail(kind string, id uint32, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
}

// visit records a use reached from its parent. It reports false, after
// recording a finding, when the handle is dead or was reached twice.
func (c *checker) visit(kind string, id uint32, live bool) bool {
	if !live {
		c.fail(kind, id, "referenced but killed")
		return false
	}
	seen := c.reached[kind]
	if seen == nil {
		seen = make(map[uint32]bool)
		c.reached[kind] = seen
	}
	if seen[id] {
		c.fail(kind, id, "has more than one parent")
		return false
	}
	seen[id] = true
	return true
}

func inRange[T any](arena []*T, id uint32) bool {
	return id != 0 && int(id) <= len(arena)
}

func (c *checker) region(r RegionID) {
	if !inRange(c.m.regions, uint32(r)) {
		c.fail("region", uint32(r), "invalid handle")
		return
	}
	rr := c.m.regions[r-1]
	if !c.visit("region", uint32(r), rr.live) {
		return
	}
	for _, s := range rr.shells {
		if !inRange(c.m.shells, uint32(s)) {
			c.fail("region", uint32(r), "invalid shell handle %d", s)
			continue
		}
		sr := c.m.shells[s-1]
		if !c.visit("shell", uint32(s), sr.live) {
			continue
		}
		if sr.region != r {
			c.fail("shell", uint32(s), "region link %d, owned by region %d", sr.region, r)
		}
		c.shell(s, sr)
	}
}

func (c *checker) shell(s ShellID, sr *shell) {
	for _, fu := range sr.faceUses {
		if !inRange(c.m.faceUses, uint32(fu)) {
			c.fail("shell", uint32(s), "invalid faceuse handle %d", fu)
			continue
		}
		fr := c.m.faceUses[fu-1]
		if !c.visit("faceuse", uint32(fu), fr.live) {
			continue
		}
		if fr.shell != s {
			c.fail("faceuse", uint32(fu), "shell link %d, owned by shell %d", fr.shell, s)
		}
		c.faceUse(fu, fr)
	}
	for _, lu := range sr.wireLoops {
		if c.loopUse(lu) && c.m.loopUses[lu-1].fu != 0 {
			c.fail("loopuse", uint32(lu), "wire loop linked to faceuse %d", c.m.loopUses[lu-1].fu)
		}
	}
	for _, eu := range sr.wireEdges {
		if c.edgeUse(eu) && c.m.edgeUses[eu-1].lu != 0 {
			c.fail("edgeuse", uint32(eu), "wire edge linked to loopuse %d", c.m.edgeUses[eu-1].lu)
		}
	}
	if sr.vu != 0 {
		c.vertexUse(sr.vu, parentShell, uint32(s))
	}
}

func (c *checker) faceUse(fu FaceUseID, fr *faceUse) {
	if !inRange(c.m.faces, uint32(fr.face)) || !c.m.faces[fr.face-1].live {
		c.fail("faceuse", uint32(fu), "face %d is not live", fr.face)
	} else if !slices.Contains(c.m.faces[fr.face-1].uses, fu) {
		c.fail("faceuse", uint32(fu), "missing from the uses of face %d", fr.face)
	}
	if len(fr.loops) == 0 {
		c.fail("faceuse", uint32(fu), "has no loops")
	}
	for _, lu := range fr.loops {
		if c.loopUse(lu) && c.m.loopUses[lu-1].fu != fu {
			c.fail("loopuse", uint32(lu), "faceuse link %d, owned by faceuse %d", c.m.loopUses[lu-1].fu, fu)
		}
	}
}

func (c *checker) loopUse(lu LoopUseID) bool {
	if !inRange(c.m.loopUses, uint32(lu)) {
		c.fail("loopuse", uint32(lu), "invalid handle")
		return false
	}
	lr := c.m.loopUses[lu-1]
	if !c.visit("loopuse", uint32(lu), lr.live) {
		return false
	}
	if !inRange(c.m.loops, uint32(lr.loop)) || !c.m.loops[lr.loop-1].live {
		c.fail("loopuse", uint32(lu), "loop %d is not live", lr.loop)
	} else if !slices.Contains(c.m.loops[lr.loop-1].uses, lu) {
		c.fail("loopuse", uint32(lu), "missing from the uses of loop %d", lr.loop)
	}

	switch {
	case lr.vu != 0 && len(lr.edges) != 0:
		c.fail("loopuse", uint32(lu), "has both a vertexuse and edgeuses")
	case lr.vu != 0:
		c.vertexUse(lr.vu, parentLoopUse, uint32(lu))
		return true
	case len(lr.edges) == 0:
		c.fail("loopuse", uint32(lu), "is empty")
		return true
	}

	ok := true
	for _, eu := range lr.edges {
		if !c.edgeUse(eu) {
			ok = false
			continue
		}
		if owner := c.m.edgeUses[eu-1].lu; owner != lu {
			c.fail("edgeuse", uint32(eu), "loopuse link %d, owned by loopuse %d", owner, lu)
			ok = false
		}
	}
	if ok {
		c.loopClosure(lu, lr)
	}
	return true
}

// loopClosure checks that walking lu by next returns to the first edge-use
// after exactly len(edges) steps and that no edge-use starts and ends at the
// same vertex.
func (c *checker) loopClosure(lu LoopUseID, lr *loopUse) {
	first := lr.edges[0]
	eu := first
	for i := range lr.edges {
		if i > 0 && eu == first {
			c.fail("loopuse", uint32(lu), "cycle closes after %d of %d edgeuses", i, len(lr.edges))
			return
		}
		eu = c.m.NextEdgeUse(eu)
	}
	if eu != first {
		c.fail("loopuse", uint32(lu), "cycle does not close")
	}
	if len(lr.edges) > 1 && c.m.EdgeUseEnd(lr.edges[len(lr.edges)-1]) != c.m.EdgeUseStart(first) {
		c.fail("loopuse", uint32(lu), "last edgeuse does not end at the first origin")
	}
	for _, eu := range lr.edges {
		if v := c.m.EdgeUseStart(eu); v == c.m.EdgeUseEnd(eu) {
			c.fail("edgeuse", uint32(eu), "runs from vertex %d to itself", v)
		}
	}
}

func (c *checker) edgeUse(eu EdgeUseID) bool {
	if !inRange(c.m.edgeUses, uint32(eu)) {
		c.fail("edgeuse", uint32(eu), "invalid handle")
		return false
	}
	er := c.m.edgeUses[eu-1]
	if !c.visit("edgeuse", uint32(eu), er.live) {
		return false
	}
	if !inRange(c.m.edges, uint32(er.edge)) || !c.m.edges[er.edge-1].live {
		c.fail("edgeuse", uint32(eu), "edge %d is not live", er.edge)
		return false
	}
	if !slices.Contains(c.m.edges[er.edge-1].uses, eu) {
		c.fail("edgeuse", uint32(eu), "missing from the uses of edge %d", er.edge)
	}
	if er.vu == 0 {
		c.fail("edgeuse", uint32(eu), "has no vertexuse")
		return false
	}
	if !c.vertexUse(er.vu, parentEdgeUse, uint32(eu)) {
		return false
	}
	if er.mate != 0 {
		if !inRange(c.m.edgeUses, uint32(er.mate)) || !c.m.edgeUses[er.mate-1].live {
			c.fail("edgeuse", uint32(eu), "mate %d is not live", er.mate)
			return true
		}
		mr := c.m.edgeUses[er.mate-1]
		if mr.mate != eu {
			c.fail("edgeuse", uint32(eu), "mate %d does not point back", er.mate)
		}
		if mr.edge != er.edge {
			c.fail("edgeuse", uint32(eu), "mate %d uses edge %d, not %d", er.mate, mr.edge, er.edge)
		}
	}
	return true
}

func (c *checker) vertexUse(vu VertexUseID, kind parentKind, parent uint32) bool {
	if !inRange(c.m.vertexUses, uint32(vu)) {
		c.fail("vertexuse", uint32(vu), "invalid handle")
		return false
	}
	vur := c.m.vertexUses[vu-1]
	if !c.visit("vertexuse", uint32(vu), vur.live) {
		return false
	}
	if vur.kind != kind || vur.parent != parent {
		c.fail("vertexuse", uint32(vu), "parent link does not match its owner")
	}
	if !inRange(c.m.vertices, uint32(vur.vertex)) || !c.m.vertices[vur.vertex-1].live {
		c.fail("vertexuse", uint32(vu), "vertex %d is not live", vur.vertex)
		return false
	}
	if !slices.Contains(c.m.vertices[vur.vertex-1].uses, vu) {
		c.fail("vertexuse", uint32(vu), "missing from the uses of vertex %d", vur.vertex)
	}
	return true
}

// orphans reports live uses that no region reaches and live entities whose
// use lists are empty or stale.
func (c *checker) orphans() {
	report := func(kind string, n int, live func(i int) bool) {
		for i := range n {
			if live(i) && !c.reached[kind][uint32(i+1)] {
				c.fail(kind, uint32(i+1), "orphaned")
			}
		}
	}
	report("shell", len(c.m.shells), func(i int) bool { return c.m.shells[i].live })
	report("faceuse", len(c.m.faceUses), func(i int) bool { return c.m.faceUses[i].live })
	report("loopuse", len(c.m.loopUses), func(i int) bool { return c.m.loopUses[i].live })
	report("edgeuse", len(c.m.edgeUses), func(i int) bool { return c.m.edgeUses[i].live })
	report("vertexuse", len(c.m.vertexUses), func(i int) bool { return c.m.vertexUses[i].live })

	for i, e := range c.m.edges {
		if !e.live {
			continue
		}
		if len(e.uses) == 0 {
			c.fail("edge", uint32(i+1), "live with no uses")
			continue
		}
		c.edgeEnds(EdgeID(i+1), e)
	}
	for i, v := range c.m.vertices {
		if !v.live {
			continue
		}
		for _, vu := range v.uses {
			if !inRange(c.m.vertexUses, uint32(vu)) || !c.m.vertexUses[vu-1].live || c.m.vertexUses[vu-1].vertex != VertexID(i+1) {
				c.fail("vertex", uint32(i+1), "stale use %d", vu)
			}
		}
	}
}

// edgeEnds checks that every use of e joins the same pair of vertices.
func (c *checker) edgeEnds(id EdgeID, e *edge) {
	var a, b VertexID
	for i, eu := range e.uses {
		if !c.reached["edgeuse"][uint32(eu)] {
			return
		}
		s, t := c.m.EdgeUseStart(eu), c.m.EdgeUseEnd(eu)
		if s > t {
			s, t = t, s
		}
		if i == 0 {
			a, b = s, t
			continue
		}
		if s != a || t != b {
			c.fail("edge", uint32(id), "uses join (%d,%d) and (%d,%d)", a, b, s, t)
			return
		}
	}
}
