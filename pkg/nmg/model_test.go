package nmg

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// makeFace builds one face through new vertices at pts and returns the
// face-use and its vertices.
func makeFace(t *testing.T, m *Model, s ShellID, pts ...v3.Vec) (FaceUseID, []VertexID) {
	t.Helper()
	fu, err := m.AddLoopToFace(s, 0, make([]VertexID, len(pts)), OrientSame)
	if err != nil {
		t.Fatalf("AddLoopToFace: %v", err)
	}
	vs := m.LoopVertices(m.LastLoopUse(fu))
	for i, v := range vs {
		m.SetVertexGeometry(v, pts[i])
	}
	return fu, vs
}

func unitSquare() []v3.Vec {
	return []v3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}}
}

func mustCheck(t *testing.T, m *Model) {
	t.Helper()
	if err := m.Check(); err != nil {
		t.Fatalf("model inconsistent:\n%v", err)
	}
}

func TestMakeRegionShell(t *testing.T) {
	m := NewModel()
	r, s := m.MakeRegionShell()

	if got := m.Regions(); len(got) != 1 || got[0] != r {
		t.Fatalf("Regions() = %v, want [%d]", got, r)
	}
	if got := m.Shells(r); len(got) != 1 || got[0] != s {
		t.Fatalf("Shells() = %v, want [%d]", got, s)
	}
	vu := m.LoneVertexUse(s)
	if vu == 0 {
		t.Fatal("new shell should carry a placeholder vertexuse")
	}
	if _, ok := m.VertexGeometry(m.VertexOf(vu)); ok {
		t.Error("placeholder vertex should have no geometry")
	}
	mustCheck(t, m)
}

func TestAddLoopToFaceClosure(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7} {
		m := NewModel()
		_, s := m.MakeRegionShell()
		fu, err := m.AddLoopToFace(s, 0, make([]VertexID, n), OrientSame)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		lu := m.LastLoopUse(fu)
		eus := m.EdgeUses(lu)
		if len(eus) != n {
			t.Fatalf("n=%d: %d edgeuses", n, len(eus))
		}
		eu := eus[0]
		for i := 0; i < n; i++ {
			if i > 0 && eu == eus[0] {
				t.Fatalf("n=%d: cycle closed after %d steps", n, i)
			}
			if m.EdgeUseEnd(eu) != m.EdgeUseStart(m.NextEdgeUse(eu)) {
				t.Fatalf("n=%d: edgeuse %d does not end where its successor starts", n, eu)
			}
			eu = m.NextEdgeUse(eu)
		}
		if eu != eus[0] {
			t.Errorf("n=%d: cycle did not return to the first edgeuse", n)
		}
		if m.LoneVertexUse(s) != 0 {
			t.Errorf("n=%d: placeholder vertexuse survived", n)
		}
		mustCheck(t, m)
	}
}

func TestAddLoopToFaceRoundTrip(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	pts := []v3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}}
	fu, vs := makeFace(t, m, s, pts...)

	got := m.LoopVertices(m.LastLoopUse(fu))
	for i, v := range got {
		if v != vs[i] {
			t.Fatalf("vertex %d changed identity", i)
		}
		p, ok := m.VertexGeometry(v)
		if !ok || p != pts[i] {
			t.Errorf("vertex %d = %v (%v), want %v", i, p, ok, pts[i])
		}
	}
	if m.Orientation(m.LastLoopUse(fu)) != OrientSame {
		t.Error("loop orientation should be same")
	}
	c := m.Counts()
	if c.FaceUses != 1 || c.LoopUses != 1 || c.EdgeUses != 3 || c.Edges != 3 || c.Vertices != 3 {
		t.Errorf("counts = %+v", c)
	}
}

func TestAddLoopToFaceErrors(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	_, vs := makeFace(t, m, s, unitSquare()...)

	tests := []struct {
		name  string
		verts []VertexID
		want  error
	}{
		{"empty", nil, ErrEmptyLoop},
		{"adjacent", []VertexID{vs[0], vs[0], 0}, ErrDuplicateVertex},
		{"wraps", []VertexID{vs[1], 0, vs[1]}, ErrDuplicateVertex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := m.Counts()
			_, err := m.AddLoopToFace(s, 0, tt.verts, OrientSame)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if m.Counts() != before {
				t.Error("failed call changed the model")
			}
		})
	}
}

func TestLonePointLoop(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, err := m.AddLoopToFace(s, 0, []VertexID{0}, OrientSame)
	if err != nil {
		t.Fatal(err)
	}
	lu := m.LastLoopUse(fu)
	if len(m.EdgeUses(lu)) != 0 || m.LoopVertexUse(lu) == 0 {
		t.Error("single vertex loop should hold one vertexuse and no edgeuses")
	}
	mustCheck(t, m)
}

func TestSharedEdgeMates(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	_, vs := makeFace(t, m, s, unitSquare()[:3]...)

	// Second triangle runs b->a, the reverse of the first face's a->b.
	fu2, err := m.AddLoopToFace(s, 0, []VertexID{vs[1], vs[0], 0}, OrientSame)
	if err != nil {
		t.Fatal(err)
	}
	if c := m.Counts(); c.Edges != 5 || c.EdgeUses != 6 {
		t.Fatalf("counts = %+v, want 5 edges and 6 edgeuses", c)
	}
	eu := m.EdgeUses(m.LastLoopUse(fu2))[0]
	mate := m.Mate(eu)
	if mate == 0 {
		t.Fatal("shared edge should be mated")
	}
	if m.EdgeOf(mate) != m.EdgeOf(eu) || m.EdgeUseStart(mate) != m.EdgeUseEnd(eu) {
		t.Error("mate should run the same edge the other way")
	}
	if len(m.RadialUses(m.EdgeOf(eu))) != 2 {
		t.Error("shared edge should have two uses")
	}
	mustCheck(t, m)
}

func TestFuseVertexUses(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu1, _ := makeFace(t, m, s, unitSquare()[:3]...)
	fu2, err := m.AddLoopToFace(s, 0, make([]VertexID, 3), OrientSame)
	if err != nil {
		t.Fatal(err)
	}

	a := m.LoopVertexUses(m.LastLoopUse(fu1))[0]
	b := m.LoopVertexUses(m.LastLoopUse(fu2))[0]
	want := m.VertexOf(a)
	m.FuseVertexUses(a, b)

	if m.VertexOf(a) != want || m.VertexOf(b) != want {
		t.Fatalf("fused uses report vertices %d and %d, want %d", m.VertexOf(a), m.VertexOf(b), want)
	}
	if got := m.LoopVertexUses(m.LastLoopUse(fu2))[0]; got != b {
		t.Error("fused use moved within its loop")
	}
	if p, _ := m.VertexGeometry(want); p != (v3.Vec{}) {
		t.Errorf("fused vertex geometry = %v", p)
	}
	if c := m.Counts(); c.Vertices != 5 {
		t.Errorf("vertices = %d, want 5", c.Vertices)
	}
	mustCheck(t, m)
}

func TestFuseAdoptsGeometry(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu1, err := m.AddLoopToFace(s, 0, make([]VertexID, 3), OrientSame)
	if err != nil {
		t.Fatal(err)
	}
	fu2, vs := makeFace(t, m, s, unitSquare()[1:]...)

	a := m.LoopVertexUses(m.LastLoopUse(fu1))[0]
	b := m.LoopVertexUses(m.LastLoopUse(fu2))[0]
	m.FuseVertexUses(a, b)
	p, ok := m.VertexGeometry(m.VertexOf(a))
	if !ok || p != unitSquare()[1] {
		t.Errorf("geometry = %v (%v), want %v", p, ok, unitSquare()[1])
	}
	if m.IsLive(vs[0]) {
		t.Error("the absorbed vertex should be freed")
	}
}

func TestSetVertexGeometryNullPanics(t *testing.T) {
	m := NewModel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a null vertex")
		}
	}()
	m.SetVertexGeometry(0, v3.Vec{})
}

func TestForeignFaceUsePanics(t *testing.T) {
	m := NewModel()
	_, s1 := m.MakeRegionShell()
	_, s2 := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s1, unitSquare()...)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a faceuse of another shell")
		}
	}()
	m.AddLoopToFace(s2, fu, []VertexID{0}, OrientSame)
}

// ---------------------------------------------------------------------------
// Kill
// ---------------------------------------------------------------------------

func TestKillLoopUse(t *testing.T) {
	m := NewModel()
	r, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	lu := m.LastLoopUse(fu)

	if !m.KillLoopUse(lu) {
		t.Fatal("killing the only loop should empty the faceuse")
	}
	c := m.Counts()
	if c.LoopUses != 0 || c.EdgeUses != 0 || c.Edges != 0 || c.Vertices != 0 || c.VertexUses != 0 {
		t.Errorf("counts after kill = %+v", c)
	}
	if c.FaceUses != 1 {
		t.Error("faceuse should survive without cascade")
	}
	if !m.KillFaceUse(fu) {
		t.Error("killing the only faceuse should empty the shell")
	}
	if !m.KillShell(s) {
		t.Error("killing the only shell should empty the region")
	}
	if len(m.Shells(r)) != 0 {
		t.Error("region still lists the shell")
	}
}

func TestKillEdgeUseKeepsNeighbour(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	_, vs := makeFace(t, m, s, unitSquare()[:3]...)
	fu2, err := m.AddLoopToFace(s, 0, []VertexID{vs[1], vs[0], 0}, OrientSame)
	if err != nil {
		t.Fatal(err)
	}
	eu := m.EdgeUses(m.LastLoopUse(fu2))[0]
	mate := m.Mate(eu)
	e := m.EdgeOf(eu)

	if m.KillEdgeUse(eu) {
		t.Error("loop with two edgeuses left should not be empty")
	}
	if m.Mate(mate) != 0 {
		t.Error("mate link should be cleared")
	}
	if got := m.RadialUses(e); len(got) != 1 || got[0] != mate {
		t.Errorf("edge uses = %v, want [%d]", got, mate)
	}
}

func TestCascadeKill(t *testing.T) {
	m := NewModel()
	r, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)

	if n := m.CascadeKillLoopUse(m.LastLoopUse(fu)); n != 3 {
		t.Errorf("cascade removed %d levels, want 3", n)
	}
	if len(m.Shells(r)) != 0 {
		t.Error("cascade should have killed the shell")
	}
	if !m.KillRegion(r) {
		t.Error("model should be empty")
	}
	if c := m.Counts(); c != (Counts{}) {
		t.Errorf("counts = %+v, want zero", c)
	}
}

func TestKilledHandlePanics(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	lu := m.LastLoopUse(fu)
	m.KillLoopUse(lu)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a killed loopuse")
		}
	}()
	m.EdgeUses(lu)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateFindsBrokenParent(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	vu := m.LoopVertexUses(m.LastLoopUse(fu))[0]
	m.vertexUse(vu).parent = 999

	errs := m.Validate()
	if len(errs) == 0 {
		t.Fatal("expected a finding")
	}
	if errs[0].Kind != "vertexuse" || errs[0].ID != uint32(vu) {
		t.Errorf("finding = %v", errs[0])
	}
}

func TestValidateFindsOrphan(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	makeFace(t, m, s, unitSquare()...)
	m.shell(s).faceUses = nil

	if m.Check() == nil {
		t.Fatal("orphaned faceuse should be reported")
	}
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

func TestLoopPlane(t *testing.T) {
	tol := DefaultTol()
	tests := []struct {
		name string
		pts  []v3.Vec
		want Plane
		area float64
		err  error
	}{
		{name: "square", pts: unitSquare(), want: Plane{N: v3.Vec{Z: 1}}, area: 1},
		{name: "raised", pts: []v3.Vec{{Z: 2}, {X: 2, Z: 2}, {X: 2, Y: 2, Z: 2}}, want: Plane{N: v3.Vec{Z: 1}, D: 2}, area: 2},
		{name: "collinear", pts: []v3.Vec{{}, {X: 1}, {X: 2}}, err: ErrNoArea},
		{name: "duplicate points", pts: []v3.Vec{{}, {X: 1}, {}}, err: ErrNoArea},
		{name: "edge", pts: []v3.Vec{{}, {X: 1}}, err: ErrNoArea},
		{name: "point", pts: []v3.Vec{{}}, err: ErrNoArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel()
			_, s := m.MakeRegionShell()
			fu, _ := makeFace(t, m, s, tt.pts...)
			p, area, err := m.LoopPlane(m.LastLoopUse(fu), tol)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				if p != (Plane{}) {
					t.Errorf("degenerate loop returned plane %v", p)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.N.Sub(tt.want.N).Length() > 1e-9 || math.Abs(p.D-tt.want.D) > 1e-9 {
				t.Errorf("plane = %v, want %v", p, tt.want)
			}
			if math.Abs(area-tt.area) > 1e-9 {
				t.Errorf("area = %f, want %f", area, tt.area)
			}
		})
	}
}

func TestLoopPlaneNoGeometry(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, err := m.AddLoopToFace(s, 0, make([]VertexID, 3), OrientSame)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.LoopPlane(m.LastLoopUse(fu), DefaultTol()); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("err = %v, want ErrNoGeometry", err)
	}
}

func TestCalcFaceGeometryIgnoresHoles(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	big := []v3.Vec{{}, {X: 4}, {X: 4, Y: 4}, {Y: 4}}
	fu, _ := makeFace(t, m, s, big...)
	// Hole wound clockwise.
	hole := []v3.Vec{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 1}}
	if _, err := m.AddLoopToFace(s, fu, make([]VertexID, 4), OrientOpposite); err != nil {
		t.Fatal(err)
	}
	for i, v := range m.LoopVertices(m.LastLoopUse(fu)) {
		m.SetVertexGeometry(v, hole[i])
	}
	if err := m.CalcFaceGeometry(fu, DefaultTol()); err != nil {
		t.Fatal(err)
	}
	p, ok := m.FaceUsePlane(fu)
	if !ok || p.N.Z < 0.999 {
		t.Errorf("face plane = %v, want +Z", p)
	}
}

func TestCalcFaceGeometrySkipsDegenerateLoops(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	if _, err := m.AddLoopToFace(s, fu, []VertexID{0}, OrientSame); err != nil {
		t.Fatal(err)
	}
	m.SetVertexGeometry(m.LoopVertices(m.LastLoopUse(fu))[0], v3.Vec{X: 0.5, Y: 0.2})
	// A hole with no area.
	if _, err := m.AddLoopToFace(s, fu, make([]VertexID, 3), OrientOpposite); err != nil {
		t.Fatal(err)
	}
	for i, v := range m.LoopVertices(m.LastLoopUse(fu)) {
		m.SetVertexGeometry(v, v3.Vec{X: 0.1 * float64(i+1), Y: 0.5})
	}

	if err := m.CalcFaceGeometry(fu, DefaultTol()); err != nil {
		t.Fatal(err)
	}
	if p, ok := m.FaceUsePlane(fu); !ok || p.N.Z < 0.999 {
		t.Errorf("face plane = %v, want +Z", p)
	}
	mustCheck(t, m)
}

func TestCalcFaceGeometryDegeneratePeripheral(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	if _, err := m.AddLoopToFace(s, fu, make([]VertexID, 3), OrientSame); err != nil {
		t.Fatal(err)
	}
	for i, v := range m.LoopVertices(m.LastLoopUse(fu)) {
		m.SetVertexGeometry(v, v3.Vec{X: 2 + float64(i)})
	}
	if err := m.CalcFaceGeometry(fu, DefaultTol()); !errors.Is(err, ErrNoArea) {
		t.Errorf("err = %v, want ErrNoArea", err)
	}
}

// makeCube extrudes the unit square by +Z.
func makeCube(t *testing.T) (*Model, RegionID, ShellID, FaceUseID) {
	t.Helper()
	m := NewModel()
	r, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	tol := DefaultTol()
	if err := m.CalcFaceGeometry(fu, tol); err != nil {
		t.Fatal(err)
	}
	if err := m.ExtrudeFace(fu, v3.Vec{Z: 1}, tol); err != nil {
		t.Fatal(err)
	}
	return m, r, s, fu
}

func TestExtrudeZeroIsNoop(t *testing.T) {
	for _, dir := range []v3.Vec{{}, {Z: 1e-4}} {
		m := NewModel()
		_, s := m.MakeRegionShell()
		fu, vs := makeFace(t, m, s, unitSquare()...)
		if err := m.CalcFaceGeometry(fu, DefaultTol()); err != nil {
			t.Fatal(err)
		}
		before := m.Counts()
		if err := m.ExtrudeFace(fu, dir, DefaultTol()); err != nil {
			t.Fatal(err)
		}
		if m.Counts() != before {
			t.Errorf("dir %v: counts %+v, want %+v", dir, m.Counts(), before)
		}
		got := m.LoopVertices(m.LastLoopUse(fu))
		for i := range vs {
			if got[i] != vs[i] {
				t.Fatalf("dir %v: loop order changed", dir)
			}
		}
	}
}

func TestExtrudeParallel(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, unitSquare()...)
	if err := m.CalcFaceGeometry(fu, DefaultTol()); err != nil {
		t.Fatal(err)
	}
	if err := m.ExtrudeFace(fu, v3.Vec{X: 1}, DefaultTol()); !errors.Is(err, ErrParallelExtrude) {
		t.Errorf("err = %v, want ErrParallelExtrude", err)
	}
}

func TestExtrudeCube(t *testing.T) {
	m, _, s, fu := makeCube(t)
	c := m.Counts()
	if c.FaceUses != 6 || c.Edges != 12 || c.EdgeUses != 24 || c.Vertices != 8 {
		t.Fatalf("counts = %+v", c)
	}
	mustCheck(t, m)

	fus := m.FaceUses(s)
	if !m.closedComponent(fus) {
		t.Error("extruded shell should be closed")
	}
	if vol := m.signedVolume(fus); math.Abs(vol-1) > 1e-9 {
		t.Errorf("signed volume = %f, want 1", vol)
	}
	p, _ := m.FaceUsePlane(fu)
	if p.N.Z > -0.999 {
		t.Errorf("bottom normal = %v, want -Z", p.N)
	}
}

func TestExtrudeWithHole(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, _ := makeFace(t, m, s, v3.Vec{}, v3.Vec{X: 4}, v3.Vec{X: 4, Y: 4}, v3.Vec{Y: 4})
	hole := []v3.Vec{{X: 1, Y: 1}, {X: 1, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 1}}
	if _, err := m.AddLoopToFace(s, fu, make([]VertexID, 4), OrientOpposite); err != nil {
		t.Fatal(err)
	}
	for i, v := range m.LoopVertices(m.LastLoopUse(fu)) {
		m.SetVertexGeometry(v, hole[i])
	}
	tol := DefaultTol()
	if err := m.CalcFaceGeometry(fu, tol); err != nil {
		t.Fatal(err)
	}
	if err := m.ExtrudeFace(fu, v3.Vec{Z: -1}, tol); err != nil {
		t.Fatal(err)
	}
	mustCheck(t, m)
	fus := m.FaceUses(s)
	if len(fus) != 10 {
		t.Fatalf("faceuses = %d, want 10", len(fus))
	}
	if !m.closedComponent(fus) {
		t.Error("extruded shell should be closed")
	}
	if vol := m.signedVolume(fus); math.Abs(vol-12) > 1e-9 {
		t.Errorf("signed volume = %f, want 12", vol)
	}
}

func faceOrder(m *Model, s ShellID) [][]VertexID {
	var out [][]VertexID
	for _, fu := range m.FaceUses(s) {
		for _, lu := range m.LoopUses(fu) {
			out = append(out, m.LoopVertices(lu))
		}
	}
	return out
}

func sameOrder(a, b [][]VertexID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestFixNormals(t *testing.T) {
	tests := []struct {
		name    string
		reverse func(fus []FaceUseID) []FaceUseID
	}{
		{"untouched", func([]FaceUseID) []FaceUseID { return nil }},
		{"one side", func(fus []FaceUseID) []FaceUseID { return fus[3:4] }},
		{"bottom", func(fus []FaceUseID) []FaceUseID { return fus[:1] }},
		{"all", func(fus []FaceUseID) []FaceUseID { return fus }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, s, _ := makeCube(t)
			want := faceOrder(m, s)
			for _, fu := range tt.reverse(m.FaceUses(s)) {
				m.ReverseFaceUse(fu)
			}
			tol := DefaultTol()
			m.FixNormals(s, tol)
			mustCheck(t, m)

			fus := m.FaceUses(s)
			if vol := m.signedVolume(fus); math.Abs(vol-1) > 1e-9 {
				t.Errorf("signed volume = %f, want 1", vol)
			}
			if !m.closedComponent(fus) {
				t.Error("mates should be restored")
			}
			once := faceOrder(m, s)
			if !sameOrder(once, want) {
				t.Error("outward orientation differs from the extruded one")
			}
			m.FixNormals(s, tol)
			if !sameOrder(faceOrder(m, s), once) {
				t.Error("second FixNormals changed the shell")
			}
		})
	}
}

func TestComputeRegionAttributes(t *testing.T) {
	m, r, s, _ := makeCube(t)
	tol := DefaultTol()
	a, err := m.ComputeRegionAttributes(r, tol)
	if err != nil {
		t.Fatal(err)
	}
	wantMin := v3.Vec{X: -tol.Dist, Y: -tol.Dist, Z: -tol.Dist}
	wantMax := v3.Vec{X: 1 + tol.Dist, Y: 1 + tol.Dist, Z: 1 + tol.Dist}
	if a.Box.Min.Sub(wantMin).Length() > 1e-9 || a.Box.Max.Sub(wantMax).Length() > 1e-9 {
		t.Errorf("box = %v", a.Box)
	}
	if got, ok := m.RegionAttributes(r); !ok || got != a {
		t.Error("region attributes were not stored")
	}
	if _, ok := m.ShellAttributes(s); !ok {
		t.Error("shell attributes were not stored")
	}

	empty := NewModel()
	er, _ := empty.MakeRegionShell()
	if _, err := empty.ComputeRegionAttributes(er, tol); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("err = %v, want ErrNoGeometry", err)
	}
}

func TestFuseVertices(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	_, a := makeFace(t, m, s, v3.Vec{}, v3.Vec{X: 1}, v3.Vec{Y: 1})
	_, b := makeFace(t, m, s, v3.Vec{X: 1.001}, v3.Vec{}, v3.Vec{Z: 1})

	if n := m.FuseVertices(s, DefaultTol()); n != 2 {
		t.Fatalf("fused %d vertices, want 2", n)
	}
	if m.IsLive(b[0]) || m.IsLive(b[1]) {
		t.Error("younger duplicates should be freed")
	}
	if c := m.Counts(); c.Vertices != 4 || c.Edges != 5 {
		t.Errorf("counts = %+v, want 4 vertices and 5 edges", c)
	}
	uses := m.VertexUses(a[0])
	if len(uses) != 2 {
		t.Errorf("vertex %d has %d uses, want 2", a[0], len(uses))
	}
	mustCheck(t, m)
}

func TestFuseVerticesDropsCollapsedEdges(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	fu, vs := makeFace(t, m, s, v3.Vec{}, v3.Vec{X: 0.001}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1})

	if n := m.FuseVertices(s, DefaultTol()); n != 1 {
		t.Fatalf("fused %d vertices, want 1", n)
	}
	lu := m.LoopUses(fu)[0]
	got := m.LoopVertices(lu)
	want := []VertexID{vs[0], vs[2], vs[3]}
	if !slices.Equal(got, want) {
		t.Errorf("loop vertices = %v, want %v", got, want)
	}
	if c := m.Counts(); c.Vertices != 3 || c.Edges != 3 || c.EdgeUses != 3 {
		t.Errorf("counts = %+v, want 3 vertices, edges and edgeuses", c)
	}
	mustCheck(t, m)
}

func TestFuseVerticesKillsCollapsedFace(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	keep, _ := makeFace(t, m, s, unitSquare()...)
	tiny, _ := makeFace(t, m, s, v3.Vec{X: 5, Y: 5, Z: 5}, v3.Vec{X: 5.004, Y: 5, Z: 5}, v3.Vec{X: 5, Y: 5.004, Z: 5})

	if n := m.FuseVertices(s, DefaultTol()); n != 2 {
		t.Fatalf("fused %d vertices, want 2", n)
	}
	if fus := m.FaceUses(s); len(fus) != 1 || fus[0] != keep {
		t.Errorf("face-uses = %v, want only %d (%d collapsed to a point)", fus, keep, tiny)
	}
	if c := m.Counts(); c.FaceUses != 1 || c.Vertices != 4 {
		t.Errorf("counts = %+v, want 1 faceuse and 4 vertices", c)
	}
	mustCheck(t, m)
}

func TestCheckCollapsedEdge(t *testing.T) {
	m := NewModel()
	_, s := m.MakeRegionShell()
	_, vs := makeFace(t, m, s, unitSquare()...)
	m.FuseVertexUses(m.VertexUses(vs[0])[0], m.VertexUses(vs[1])[0])

	err := m.Check()
	if err == nil {
		t.Fatal("Check accepted an edge from a vertex to itself")
	}
	if !strings.Contains(err.Error(), "to itself") {
		t.Errorf("err = %v, want a collapsed edge report", err)
	}
}
