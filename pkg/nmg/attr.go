package nmg

import (
	"fmt"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// ShellVertices returns the distinct vertices used anywhere in shell s, in
// ascending handle order.
func (m *Model) ShellVertices(s ShellID) []VertexID {
	sr := m.shell(s)
	var vs []VertexID
	for _, fu := range sr.faceUses {
		for _, lu := range m.faceUse(fu).loops {
			vs = append(vs, m.LoopVertices(lu)...)
		}
	}
	for _, lu := range sr.wireLoops {
		vs = append(vs, m.LoopVertices(lu)...)
	}
	for _, eu := range sr.wireEdges {
		vs = append(vs, m.EdgeUseStart(eu))
	}
	if sr.vu != 0 {
		vs = append(vs, m.vertexUse(sr.vu).vertex)
	}
	vs = lo.Uniq(vs)
	slices.Sort(vs)
	return vs
}

// ComputeShellAttributes computes and stores the bounding box of every
// geometrized vertex of s, grown by tol.Dist on each side. A shell without
// geometry yields ErrNoGeometry.
func (m *Model) ComputeShellAttributes(s ShellID, tol Tol) (Attributes, error) {
	pts := lo.FilterMap(m.ShellVertices(s), func(v VertexID, _ int) (v3.Vec, bool) {
		return m.VertexGeometry(v)
	})
	if len(pts) == 0 {
		return Attributes{}, fmt.Errorf("shell %d: %w", s, ErrNoGeometry)
	}
	box := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		box = box.Include(p)
	}
	grow := v3.Vec{X: tol.Dist, Y: tol.Dist, Z: tol.Dist}
	box = sdf.Box3{Min: box.Min.Sub(grow), Max: box.Max.Add(grow)}

	a := Attributes{Box: box}
	m.shell(s).attr = &a
	return a, nil
}

// ComputeRegionAttributes computes the attributes of every shell of r and
// stores their union on r. Shells without geometry are skipped; a region
// with no geometry at all yields ErrNoGeometry.
func (m *Model) ComputeRegionAttributes(r RegionID, tol Tol) (Attributes, error) {
	var (
		box   sdf.Box3
		found bool
	)
	for _, s := range m.region(r).shells {
		a, err := m.ComputeShellAttributes(s, tol)
		if err != nil {
			continue
		}
		if !found {
			box, found = a.Box, true
			continue
		}
		box = box.Extend(a.Box)
	}
	if !found {
		return Attributes{}, fmt.Errorf("region %d: %w", r, ErrNoGeometry)
	}
	a := Attributes{Box: box}
	m.region(r).attr = &a
	return a, nil
}
