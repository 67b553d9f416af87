// Package builder turns a textual face description into loops of one face in
// an nmg shell.
//
// The input is a stream of whitespace separated tokens:
//
//	v<N> x y z   define vertex slot N at (x, y, z) and append it to the loop
//	v<N>         append the already defined vertex N
//	l [hole]     close the pending loop; "hole" makes the next loop a hole
//	e x y z      set the extrusion vector
//
// The pending loop is also closed at end of input. Repeating the coordinates
// of a defined slot is the same as reusing it; giving it other coordinates is
// an error.
package builder

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/nmgkit/pkg/nmg"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MaxVertices bounds the vertex slot numbers of one stream.
const MaxVertices = 10000

// State is the position of the Builder in the token grammar.
type State int

const (
	AwaitingToken State = iota
	InVertexList
	InExtrudeVector
)

func (s State) String() string {
	switch s {
	case AwaitingToken:
		return "awaiting-token"
	case InVertexList:
		return "in-vertex-list"
	case InExtrudeVector:
		return "in-extrude-vector"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type pendingVertex struct {
	ref   VertexRef
	coord v3.Vec
}

// Builder consumes vertex and loop descriptions and builds the loops as one
// face-use of a shell. It is not safe for concurrent use.
type Builder struct {
	m *nmg.Model
	s nmg.ShellID

	fu      nmg.FaceUseID
	state   State
	slots   []nmg.VertexID
	pending []pendingVertex
	orient  nmg.Orientation
	ext     v3.Vec
	loops   int
}

// NewBuilder returns a Builder adding loops to shell s of m.
func NewBuilder(m *nmg.Model, s nmg.ShellID) *Builder {
	return &Builder{m: m, s: s, slots: make([]nmg.VertexID, MaxVertices)}
}

// State returns the current grammar state.
func (b *Builder) State() State { return b.state }

// FaceUse returns the face-use holding the loops, zero before the first loop.
func (b *Builder) FaceUse() nmg.FaceUseID { return b.fu }

// Extrusion returns the last extrusion vector given.
func (b *Builder) Extrusion() v3.Vec { return b.ext }

// Loops returns the number of loops built so far.
func (b *Builder) Loops() int { return b.loops }

// Pending returns the number of vertices waiting for the next loop.
func (b *Builder) Pending() int { return len(b.pending) }

// Vertex returns the vertex defined for slot idx, or zero.
func (b *Builder) Vertex(idx uint32) nmg.VertexID {
	if idx >= MaxVertices {
		return 0
	}
	return b.slots[idx]
}

// AddVertex appends the definition of slot idx at p to the pending loop.
func (b *Builder) AddVertex(idx uint32, p v3.Vec) error {
	return b.add(pendingVertex{ref: New(idx), coord: p})
}

// AddReuse appends the already defined slot idx to the pending loop.
func (b *Builder) AddReuse(idx uint32) error {
	return b.add(pendingVertex{ref: Reuse(idx)})
}

func (b *Builder) add(pv pendingVertex) error {
	idx := pv.ref.Index()
	if idx >= MaxVertices {
		return fmt.Errorf("%w: v%d", ErrIndexRange, idx)
	}
	if !pv.ref.IsReuse() {
		if p, ok := b.definedAt(idx); ok && p != pv.coord {
			return fmt.Errorf("%w: v%d at %v, defined at %v", ErrRedefined, idx, pv.coord, p)
		}
	}
	b.pending = append(b.pending, pv)
	b.state = InVertexList
	return nil
}

// definedAt returns the coordinate slot idx was defined with, by an earlier
// loop or by the pending one.
func (b *Builder) definedAt(idx uint32) (v3.Vec, bool) {
	if v := b.slots[idx]; v != 0 {
		return b.m.VertexGeometry(v)
	}
	for _, pv := range b.pending {
		if pv.ref.Index() == idx && !pv.ref.IsReuse() {
			return pv.coord, true
		}
	}
	return v3.Vec{}, false
}

// SetExtrusion records the extrusion vector.
func (b *Builder) SetExtrusion(d v3.Vec) {
	b.ext = d
}

// EndLoop builds the pending loop, if any, and sets the orientation of the
// next one.
func (b *Builder) EndLoop(nextIsHole bool) error {
	if err := b.Flush(); err != nil {
		return err
	}
	if nextIsHole {
		b.orient = nmg.OrientOpposite
	}
	return nil
}

// Flush builds the pending vertices into a loop of the builder's face-use.
// Slots defined for the first time get a new vertex carrying their
// coordinate. A slot named twice within the same list gets a second vertex
// that is then fused with the first. Reusing a slot defined nowhere is an
// error. After a flush the next loop is a peripheral one.
func (b *Builder) Flush() error {
	n := len(b.pending)
	if n == 0 {
		return nil
	}
	if n > 1 {
		for i, pv := range b.pending {
			if pv.ref.Index() == b.pending[(i+1)%n].ref.Index() {
				return fmt.Errorf("loop %d: %w: v%d", b.loops, nmg.ErrDuplicateVertex, pv.ref.Index())
			}
		}
	}

	type fusePair struct{ first, again int }
	var (
		verts   = make([]nmg.VertexID, n)
		defined = make(map[uint32]int)
		fuses   []fusePair
	)
	for i, pv := range b.pending {
		idx := pv.ref.Index()
		if v := b.slots[idx]; v != 0 {
			verts[i] = v
			continue
		}
		if first, ok := defined[idx]; ok {
			fuses = append(fuses, fusePair{first: first, again: i})
			continue
		}
		if pv.ref.IsReuse() {
			return fmt.Errorf("loop %d: %w: v%d", b.loops, ErrUndefinedReuse, idx)
		}
		defined[idx] = i
	}

	fu, err := b.m.AddLoopToFace(b.s, b.fu, verts, b.orient)
	if err != nil {
		return fmt.Errorf("loop %d: %w", b.loops, err)
	}
	b.fu = fu
	vus := b.m.LoopVertexUses(b.m.LastLoopUse(fu))
	for idx, i := range defined {
		v := b.m.VertexOf(vus[i])
		b.slots[idx] = v
		b.m.SetVertexGeometry(v, b.pending[i].coord)
	}
	for _, f := range fuses {
		b.m.FuseVertexUses(vus[f.first], vus[f.again])
	}

	b.pending = b.pending[:0]
	b.orient = nmg.OrientSame
	b.state = AwaitingToken
	b.loops++
	return nil
}

// Feed consumes the token stream from r and builds every loop it describes,
// including the one left pending at end of input.
func (b *Builder) Feed(r io.Reader) error {
	sc := NewScanner(r)
	for {
		tok, off, ok := sc.Next()
		if !ok {
			break
		}
		var err error
		switch {
		case tok == "e":
			err = b.readExtrusion(sc)
		case tok == "l":
			hole := false
			if next, _, ok := sc.Peek(); ok && next == "hole" {
				sc.Next()
				hole = true
			}
			err = b.EndLoop(hole)
		case strings.HasPrefix(tok, "v"):
			err = b.readVertex(sc, tok, off)
		default:
			err = &SyntaxError{Offset: off, Token: tok, Msg: "expected e, l or v<N>"}
		}
		if err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return b.Flush()
}

func (b *Builder) readExtrusion(sc *Scanner) error {
	prev := b.state
	b.state = InExtrudeVector
	d, err := readTriple(sc, "extrusion vector")
	if err != nil {
		return err
	}
	b.SetExtrusion(d)
	b.state = prev
	return nil
}

func (b *Builder) readVertex(sc *Scanner, tok string, off int64) error {
	idx, err := strconv.ParseUint(tok[1:], 10, 64)
	if err != nil {
		return &SyntaxError{Offset: off, Token: tok, Msg: "vertex index must be decimal digits"}
	}
	if idx >= MaxVertices {
		return fmt.Errorf("offset %d: %w: v%d", off, ErrIndexRange, idx)
	}

	next, _, ok := sc.Peek()
	if !ok {
		return b.AddReuse(uint32(idx))
	}
	if _, isNum := ParseNumber(next); !isNum {
		return b.AddReuse(uint32(idx))
	}
	p, err := readTriple(sc, "vertex coordinates")
	if err != nil {
		return err
	}
	if err := b.AddVertex(uint32(idx), p); err != nil {
		return fmt.Errorf("offset %d: %w", off, err)
	}
	return nil
}

func readTriple(sc *Scanner, what string) (v3.Vec, error) {
	var xyz [3]float64
	for i := range xyz {
		tok, off, ok := sc.Next()
		if !ok {
			return v3.Vec{}, &SyntaxError{Offset: off, Msg: fmt.Sprintf("%s: end of input after %d numbers", what, i)}
		}
		f, isNum := ParseNumber(tok)
		if !isNum {
			return v3.Vec{}, &SyntaxError{Offset: off, Token: tok, Msg: what + ": expected a number"}
		}
		xyz[i] = f
	}
	return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
