package nmg

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Handles into the Model arenas. The zero value of every handle is "none".
type (
	RegionID    uint32
	ShellID     uint32
	FaceID      uint32
	FaceUseID   uint32
	LoopID      uint32
	LoopUseID   uint32
	EdgeID      uint32
	EdgeUseID   uint32
	VertexID    uint32
	VertexUseID uint32
)

// Orientation is the direction of a use relative to its face normal.
type Orientation int

const (
	OrientSame     Orientation = iota // peripheral loop, winds counter-clockwise about the normal
	OrientOpposite                    // hole
)

func (o Orientation) String() string {
	switch o {
	case OrientSame:
		return "same"
	case OrientOpposite:
		return "opposite"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Flip returns the opposite orientation.
func (o Orientation) Flip() Orientation {
	if o == OrientSame {
		return OrientOpposite
	}
	return OrientSame
}

// Plane is a plane equation N·p = D with unit normal N.
type Plane struct {
	N v3.Vec
	D float64
}

// Distance returns the signed distance of p from the plane.
func (p Plane) Distance(pt v3.Vec) float64 {
	return p.N.Dot(pt) - p.D
}

// Flip returns the plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{N: p.N.Neg(), D: -p.D}
}

// Attributes is the aggregate geometry computed for a shell or region.
type Attributes struct {
	Box sdf.Box3
}

// ---------------------------------------------------------------------------
// Arena records
// ---------------------------------------------------------------------------

// parentKind identifies which kind of record a vertex-use hangs from.
type parentKind uint8

const (
	parentNone parentKind = iota
	parentShell
	parentLoopUse
	parentEdgeUse
)

type region struct {
	live   bool
	shells []ShellID
	attr   *Attributes
}

type shell struct {
	live      bool
	region    RegionID
	faceUses  []FaceUseID
	wireLoops []LoopUseID
	wireEdges []EdgeUseID
	vu        VertexUseID // lone vertex-use, zero when absent
	attr      *Attributes
}

type face struct {
	live  bool
	uses  []FaceUseID
	plane *Plane
}

type faceUse struct {
	live   bool
	shell  ShellID
	face   FaceID
	orient Orientation
	loops  []LoopUseID
}

type loop struct {
	live bool
	uses []LoopUseID
}

type loopUse struct {
	live   bool
	fu     FaceUseID // zero for wire loops
	shell  ShellID   // owning shell of a wire loop
	loop   LoopID
	orient Orientation
	vu     VertexUseID // lone-point loop
	edges  []EdgeUseID // cycle order
}

type edge struct {
	live bool
	uses []EdgeUseID
}

type edgeUse struct {
	live  bool
	lu    LoopUseID // zero for wire edges
	shell ShellID   // owning shell of a wire edge
	edge  EdgeID
	mate  EdgeUseID
	vu    VertexUseID
}

type vertex struct {
	live     bool
	uses     []VertexUseID
	coord    v3.Vec
	hasCoord bool
}

type vertexUse struct {
	live   bool
	kind   parentKind
	parent uint32 // ShellID, LoopUseID or EdgeUseID depending on kind
	vertex VertexID
}

// Model is the root container of the topology store.
// It is not safe for concurrent use.
type Model struct {
	regionOrder []RegionID

	regions    []*region
	shells     []*shell
	faces      []*face
	faceUses   []*faceUse
	loops      []*loop
	loopUses   []*loopUse
	edges      []*edge
	edgeUses   []*edgeUse
	vertices   []*vertex
	vertexUses []*vertexUse
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// ---------------------------------------------------------------------------
// Arena access. Every accessor panics on a zero, out-of-range or dead handle.
// ---------------------------------------------------------------------------

func lookup[T any](kind string, arena []*T, id uint32, live func(*T) bool) *T {
	if id == 0 || int(id) > len(arena) {
		panic(fmt.Sprintf("nmg: invalid %s handle %d", kind, id))
	}
	rec := arena[id-1]
	if !live(rec) {
		panic(fmt.Sprintf("nmg: %s %d has been killed", kind, id))
	}
	return rec
}

func (m *Model) region(id RegionID) *region {
	return lookup("region", m.regions, uint32(id), func(r *region) bool { return r.live })
}

func (m *Model) shell(id ShellID) *shell {
	return lookup("shell", m.shells, uint32(id), func(s *shell) bool { return s.live })
}

func (m *Model) face(id FaceID) *face {
	return lookup("face", m.faces, uint32(id), func(f *face) bool { return f.live })
}

func (m *Model) faceUse(id FaceUseID) *faceUse {
	return lookup("faceuse", m.faceUses, uint32(id), func(fu *faceUse) bool { return fu.live })
}

func (m *Model) loop(id LoopID) *loop {
	return lookup("loop", m.loops, uint32(id), func(l *loop) bool { return l.live })
}

func (m *Model) loopUse(id LoopUseID) *loopUse {
	return lookup("loopuse", m.loopUses, uint32(id), func(lu *loopUse) bool { return lu.live })
}

func (m *Model) edge(id EdgeID) *edge {
	return lookup("edge", m.edges, uint32(id), func(e *edge) bool { return e.live })
}

func (m *Model) edgeUse(id EdgeUseID) *edgeUse {
	return lookup("edgeuse", m.edgeUses, uint32(id), func(eu *edgeUse) bool { return eu.live })
}

func (m *Model) vertex(id VertexID) *vertex {
	return lookup("vertex", m.vertices, uint32(id), func(v *vertex) bool { return v.live })
}

func (m *Model) vertexUse(id VertexUseID) *vertexUse {
	return lookup("vertexuse", m.vertexUses, uint32(id), func(vu *vertexUse) bool { return vu.live })
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

func (m *Model) newRegion() RegionID {
	m.regions = append(m.regions, &region{live: true})
	return RegionID(len(m.regions))
}

func (m *Model) newShell(r RegionID) ShellID {
	m.shells = append(m.shells, &shell{live: true, region: r})
	return ShellID(len(m.shells))
}

func (m *Model) newFace() FaceID {
	m.faces = append(m.faces, &face{live: true})
	return FaceID(len(m.faces))
}

func (m *Model) newFaceUse(s ShellID, f FaceID, o Orientation) FaceUseID {
	m.faceUses = append(m.faceUses, &faceUse{live: true, shell: s, face: f, orient: o})
	id := FaceUseID(len(m.faceUses))
	fr := m.face(f)
	fr.uses = append(fr.uses, id)
	return id
}

func (m *Model) newLoop() LoopID {
	m.loops = append(m.loops, &loop{live: true})
	return LoopID(len(m.loops))
}

func (m *Model) newLoopUse(l LoopID, o Orientation) LoopUseID {
	m.loopUses = append(m.loopUses, &loopUse{live: true, loop: l, orient: o})
	id := LoopUseID(len(m.loopUses))
	lr := m.loop(l)
	lr.uses = append(lr.uses, id)
	return id
}

func (m *Model) newEdge() EdgeID {
	m.edges = append(m.edges, &edge{live: true})
	return EdgeID(len(m.edges))
}

func (m *Model) newEdgeUse(e EdgeID) EdgeUseID {
	m.edgeUses = append(m.edgeUses, &edgeUse{live: true, edge: e})
	id := EdgeUseID(len(m.edgeUses))
	er := m.edge(e)
	er.uses = append(er.uses, id)
	return id
}

func (m *Model) newVertex() VertexID {
	m.vertices = append(m.vertices, &vertex{live: true})
	return VertexID(len(m.vertices))
}

func (m *Model) newVertexUse(v VertexID, kind parentKind, parent uint32) VertexUseID {
	m.vertexUses = append(m.vertexUses, &vertexUse{live: true, kind: kind, parent: parent, vertex: v})
	id := VertexUseID(len(m.vertexUses))
	vr := m.vertex(v)
	vr.uses = append(vr.uses, id)
	return id
}
