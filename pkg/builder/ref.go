package builder

import "fmt"

// VertexRef is one entry of a pending vertex list: either the definition of
// vertex slot N (New) or a reference back to an already defined slot (Reuse).
type VertexRef struct {
	idx   uint32
	reuse bool
}

// New returns a reference that defines slot idx.
func New(idx uint32) VertexRef { return VertexRef{idx: idx} }

// Reuse returns a reference to the previously defined slot idx.
func Reuse(idx uint32) VertexRef { return VertexRef{idx: idx, reuse: true} }

// IsReuse reports whether r refers back to an existing slot.
func (r VertexRef) IsReuse() bool { return r.reuse }

// Index returns the slot number of r.
func (r VertexRef) Index() uint32 { return r.idx }

func (r VertexRef) String() string {
	if r.reuse {
		return fmt.Sprintf("reuse(v%d)", r.idx)
	}
	return fmt.Sprintf("new(v%d)", r.idx)
}
