package tessellate

import (
	"math"
	"slices"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

func cross(o, a, b v2.Vec) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func signedArea(pts []v2.Vec) float64 {
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// inside reports whether p lies inside the polygon pts (even-odd rule).
func inside(pts []v2.Vec, p v2.Vec) bool {
	in := false
	for i, a := range pts {
		b := pts[(i+1)%len(pts)]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < a.X+(p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y) {
			in = !in
		}
	}
	return in
}

// inTriangle reports whether p lies inside or on the counter-clockwise
// triangle abc.
func inTriangle(p, a, b, c v2.Vec) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

// bridge merges the clockwise holes into the counter-clockwise outer ring,
// joining each hole at its rightmost point to a visible outer vertex. Holes
// are processed right to left so later bridges see earlier ones.
func bridge(outer *ring, holes []*ring) *ring {
	poly := &ring{pts: slices.Clone(outer.pts), idx: slices.Clone(outer.idx)}
	rightmost := func(h *ring) int {
		best := 0
		for i, p := range h.pts {
			if p.X > h.pts[best].X {
				best = i
			}
		}
		return best
	}
	slices.SortFunc(holes, func(a, b *ring) int {
		ax, bx := a.pts[rightmost(a)].X, b.pts[rightmost(b)].X
		switch {
		case ax > bx:
			return -1
		case ax < bx:
			return 1
		}
		return 0
	})

	for _, h := range holes {
		hm := rightmost(h)
		p := visibleVertex(poly.pts, h.pts[hm])

		n := len(h.pts)
		pts := make([]v2.Vec, 0, len(poly.pts)+n+2)
		idx := make([]uint32, 0, len(poly.pts)+n+2)
		pts = append(pts, poly.pts[:p+1]...)
		idx = append(idx, poly.idx[:p+1]...)
		for k := range n + 1 {
			j := (hm + k) % n
			pts = append(pts, h.pts[j])
			idx = append(idx, h.idx[j])
		}
		pts = append(pts, poly.pts[p:]...)
		idx = append(idx, poly.idx[p:]...)
		poly.pts, poly.idx = pts, idx
	}
	return poly
}

// visibleVertex returns the index of a vertex of the counter-clockwise polygon
// pts that can be joined to m, a point inside it, without crossing an edge.
func visibleVertex(pts []v2.Vec, m v2.Vec) int {
	n := len(pts)
	// Cast a ray from m towards +X and find the nearest edge it hits.
	hitX, edge := math.Inf(1), -1
	for i, a := range pts {
		b := pts[(i+1)%n]
		if (a.Y > m.Y) == (b.Y > m.Y) {
			continue
		}
		x := a.X + (m.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x >= m.X && x < hitX {
			hitX, edge = x, i
		}
	}
	if edge < 0 {
		return openCopy(pts, nearestVertex(pts, m), m)
	}
	a, b := edge, (edge+1)%n
	cand := a
	if pts[b].X > pts[a].X {
		cand = b
	}
	hit := v2.Vec{X: hitX, Y: m.Y}

	// A vertex inside the triangle (m, hit, cand) may block the view of cand;
	// the one making the smallest angle with the ray is visible.
	tri := [3]v2.Vec{m, hit, pts[cand]}
	if cross(tri[0], tri[1], tri[2]) < 0 {
		tri[1], tri[2] = tri[2], tri[1]
	}
	best, bestAngle, bestDist := cand, math.Inf(1), math.Inf(1)
	for i, p := range pts {
		if i == cand || p == pts[cand] {
			continue
		}
		if !inTriangle(p, tri[0], tri[1], tri[2]) || p.X < m.X {
			continue
		}
		dx, dy := p.X-m.X, p.Y-m.Y
		angle := math.Abs(math.Atan2(dy, dx))
		dist := dx*dx + dy*dy
		if angle < bestAngle || (angle == bestAngle && dist < bestDist) {
			best, bestAngle, bestDist = i, angle, dist
		}
	}
	return openCopy(pts, best, m)
}

// openCopy picks, among the vertices of pts at the position of pts[i], one
// whose interior wedge contains the direction towards m. Earlier bridges
// leave such repeated vertices behind.
func openCopy(pts []v2.Vec, i int, m v2.Vec) int {
	n := len(pts)
	for j, p := range pts {
		if p != pts[i] {
			continue
		}
		d := v2.Vec{X: m.X - p.X, Y: m.Y - p.Y}
		next, prev := pts[(j+1)%n], pts[(j+n-1)%n]
		e1 := v2.Vec{X: next.X - p.X, Y: next.Y - p.Y}
		e2 := v2.Vec{X: prev.X - p.X, Y: prev.Y - p.Y}
		if wedgeContains(e1, e2, d) {
			return j
		}
	}
	return i
}

// wedgeContains reports whether d lies in the wedge swept counter-clockwise
// from e1 to e2.
func wedgeContains(e1, e2, d v2.Vec) bool {
	c := func(a, b v2.Vec) float64 { return a.X*b.Y - a.Y*b.X }
	if c(e1, e2) > 0 {
		return c(e1, d) > 0 && c(d, e2) > 0
	}
	return !(c(e2, d) >= 0 && c(d, e1) >= 0)
}

func nearestVertex(pts []v2.Vec, m v2.Vec) int {
	best, bestDist := 0, math.Inf(1)
	for i, p := range pts {
		d := (p.X-m.X)*(p.X-m.X) + (p.Y-m.Y)*(p.Y-m.Y)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// earClip triangulates the counter-clockwise simple polygon pts and returns
// index triples into pts. Bridged polygons may repeat points; a repeated
// point never blocks an ear.
func earClip(pts []v2.Vec) [][3]int {
	n := len(pts)
	if n < 3 {
		return nil
	}
	rem := make([]int, n)
	for i := range rem {
		rem[i] = i
	}
	tris := make([][3]int, 0, n-2)

	isEar := func(k int) bool {
		m := len(rem)
		ia, ib, ic := rem[(k+m-1)%m], rem[k], rem[(k+1)%m]
		a, b, c := pts[ia], pts[ib], pts[ic]
		if cross(a, b, c) <= 0 {
			return false
		}
		for _, j := range rem {
			if j == ia || j == ib || j == ic {
				continue
			}
			p := pts[j]
			if p == a || p == b || p == c {
				continue
			}
			if inTriangle(p, a, b, c) {
				return false
			}
		}
		return true
	}

	for len(rem) > 3 {
		m := len(rem)
		clipped := false
		for k := range m {
			if isEar(k) {
				tris = append(tris, [3]int{rem[(k+m-1)%m], rem[k], rem[(k+1)%m]})
				rem = slices.Delete(rem, k, k+1)
				clipped = true
				break
			}
		}
		if !clipped {
			// Numerically degenerate remainder: drop the flattest corner.
			k := flattest(pts, rem)
			if cross(pts[rem[(k+m-1)%m]], pts[rem[k]], pts[rem[(k+1)%m]]) > 0 {
				tris = append(tris, [3]int{rem[(k+m-1)%m], rem[k], rem[(k+1)%m]})
			}
			rem = slices.Delete(rem, k, k+1)
		}
	}
	if cross(pts[rem[0]], pts[rem[1]], pts[rem[2]]) > 0 {
		tris = append(tris, [3]int{rem[0], rem[1], rem[2]})
	}
	return tris
}

func flattest(pts []v2.Vec, rem []int) int {
	m := len(rem)
	best, bestArea := 0, math.Inf(1)
	for k := range m {
		a := math.Abs(cross(pts[rem[(k+m-1)%m]], pts[rem[k]], pts[rem[(k+1)%m]]))
		if a < bestArea {
			best, bestArea = k, a
		}
	}
	return best
}
