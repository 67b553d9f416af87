package engine

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/nmgkit/pkg/edit"
	"github.com/chazu/nmgkit/pkg/nmg"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(tor :r1 10)`,
			expect: `(tor "__kw_r1" 10)`,
		},
		{
			name:   "multiple keywords",
			input:  `(tor :r1 10 :r2 2)`,
			expect: `(tor "__kw_r1" 10 "__kw_r2" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(set-mode :tor-r1 ref)`,
			expect: `(set_mode "__kw_tor-r1" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:metaball-add`,
			expect: `"__kw_metaball-add"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *Result {
	t.Helper()
	res, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if res == nil {
		t.Fatal("expected non-nil result")
	}
	return res
}

// evalFails evaluates source, expects eval errors and returns their text.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	res, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Error("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return fmt.Sprint(evalErrs)
}

// ---------------------------------------------------------------------------
// Faces
// ---------------------------------------------------------------------------

const unitSquare = `(v 0 0 0 0) (v 1 1 0 0) (v 2 1 1 0) (v 3 0 1 0) (l)`

func TestFaceFlat(t *testing.T) {
	res := mustEval(t, `(face "plate" `+unitSquare+`)`)
	f := res.Face("plate")
	if f == nil {
		t.Fatal("expected face named 'plate'")
	}
	if f.Extruded {
		t.Error("no extrusion was given")
	}
	if got := len(f.Model.FaceUses(f.Shell)); got != 1 {
		t.Errorf("faceuses = %d, want 1", got)
	}
	p, ok := f.Model.FaceUsePlane(f.FaceUse)
	if !ok || math.Abs(p.N.Z) < 0.999 {
		t.Errorf("face plane = %v (%v)", p, ok)
	}
}

func TestFaceExtruded(t *testing.T) {
	res := mustEval(t, `(face "block" `+unitSquare+` (e 0 0 2))`)
	f := res.Face("block")
	if f == nil || !f.Extruded {
		t.Fatal("expected an extruded face")
	}
	c := f.Model.Counts()
	if c.FaceUses != 6 || c.Vertices != 8 || c.Edges != 12 {
		t.Errorf("counts = %+v", c)
	}
	if f.Attributes.Box.Max.Z < 2 {
		t.Errorf("box = %v, want it to reach z=2", f.Attributes.Box)
	}
}

func TestFaceExtrusionAsVec3(t *testing.T) {
	res := mustEval(t, `(face "block" `+unitSquare+` (e (vec3 0 0 -1)))`)
	if f := res.Face("block"); f == nil || f.Extrusion.Z != -1 {
		t.Fatal("extrusion vector not taken from vec3")
	}
}

func TestFaceWithHole(t *testing.T) {
	source := `
; 4x4 plate with a 2x2 hole
(face "frame"
  (v 0 0 0 0) (v 1 4 0 0) (v 2 4 4 0) (v 3 0 4 0) (l :hole)
  (v 4 1 1 0) (v 5 3 1 0) (v 6 3 3 0) (v 7 1 3 0) (l))
`
	res := mustEval(t, source)
	f := res.Face("frame")
	if f == nil {
		t.Fatal("expected face named 'frame'")
	}
	lus := f.Model.LoopUses(f.FaceUse)
	if len(lus) != 2 {
		t.Fatalf("loopuses = %d, want 2", len(lus))
	}
	if f.Model.Orientation(lus[0]) == f.Model.Orientation(lus[1]) {
		t.Error("hole should be oriented opposite to the outer loop")
	}
}

func TestFaceFromVariables(t *testing.T) {
	source := `
(def h 3)
(def square (list (v 0 0 0 0) (v 1 1 0 0) (v 2 1 1 0) (v 3 0 1 0)))
(face "post" square (l) (e 0 0 h))
`
	res := mustEval(t, source)
	f := res.Face("post")
	if f == nil {
		t.Fatal("expected face named 'post'")
	}
	if f.Extrusion.Z != 3 {
		t.Errorf("extrusion = %v, want height 3 from variable", f.Extrusion)
	}
}

func TestFaceAnonymous(t *testing.T) {
	res := mustEval(t, `(face `+unitSquare+`) (face `+unitSquare+`)`)
	if len(res.Faces) != 2 {
		t.Fatalf("faces = %d, want 2", len(res.Faces))
	}
	if res.Faces[0].Name == res.Faces[1].Name {
		t.Errorf("anonymous faces share the name %q", res.Faces[0].Name)
	}
}

func TestFaceFuse(t *testing.T) {
	// Slot 4 sits on top of slot 0.
	source := `
(face "pair"
  (v 0 0 0 0) (v 1 1 0 0) (v 2 1 1 0) (l)
  (v 4 0.001 0 0) (v 3 0 -1 0) (v 1) (l)
  :fuse true)
`
	res := mustEval(t, source)
	if f := res.Face("pair"); f == nil || f.Fused != 1 {
		t.Fatalf("expected one fused vertex, got %+v", f)
	}
}

func TestFaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"no loops", `(face "x")`, "no loops"},
		{"collinear", `(face "x" (v 0 0 0 0) (v 1 1 0 0) (v 2 2 0 0) (l))`, "no area"},
		{"undefined reuse", `(face "x" (v 3) (v 4 1 0 0) (v 5 0 1 0) (l))`, "undefined"},
		{"slot out of range", `(face "x" (v 10000 0 0 0))`, "out of range"},
		{"bad item", `(face "x" 5)`, "expected v, l or e"},
		{"duplicate name", `(face "x" ` + unitSquare + `) (face "x" ` + unitSquare + `)`, "already defined"},
		{"bad position", `(v 0 1 2)`, "optionally a position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("errors = %s, want mention of %q", msg, tt.want)
			}
		})
	}
}

func TestFaceModelChecks(t *testing.T) {
	res := mustEval(t, `(face "block" `+unitSquare+` (e 0 0 1))`)
	f := res.Face("block")
	if err := f.Model.Check(); err != nil {
		t.Fatalf("model check: %v", err)
	}
	for _, fu := range f.Model.FaceUses(f.Shell) {
		if f.Model.FaceUseOrientation(fu) != nmg.OrientSame {
			continue
		}
		if _, ok := f.Model.FaceUsePlane(fu); !ok {
			t.Errorf("faceuse %d has no plane", fu)
		}
	}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

func TestTor(t *testing.T) {
	res := mustEval(t, `(defsolid "ring" (tor :r1 10 :r2 2 :at (vec3 1 2 3) :normal (vec3 0 0 5)))`)
	tor, ok := res.Solid("ring").(*edit.Tor)
	if !ok {
		t.Fatalf("expected *edit.Tor, got %T", res.Solid("ring"))
	}
	if tor.R1 != 10 || tor.R2 != 2 {
		t.Errorf("radii = %g, %g", tor.R1, tor.R2)
	}
	if tor.V.X != 1 || tor.V.Y != 2 || tor.V.Z != 3 {
		t.Errorf("centre = %v", tor.V)
	}
	if tor.H.Z != 1 {
		t.Errorf("normal = %v, want unit +Z", tor.H)
	}
}

func TestMetaball(t *testing.T) {
	source := `
(defsolid "blob"
  (metaball :threshold 2 :method 1
    (ball (vec3 0 0 0))
    (ball (vec3 5 5 0) :strength 2 :sweat 0.5)))
`
	res := mustEval(t, source)
	mb, ok := res.Solid("blob").(*edit.Metaball)
	if !ok {
		t.Fatalf("expected *edit.Metaball, got %T", res.Solid("blob"))
	}
	if mb.Threshold != 2 || mb.Method != edit.MethodIsopotential {
		t.Errorf("threshold = %g, method = %d", mb.Threshold, mb.Method)
	}
	if len(mb.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(mb.Points))
	}
	if mb.Points[0].FieldStrength != 1 {
		t.Errorf("default strength = %g, want 1", mb.Points[0].FieldStrength)
	}
	if mb.Points[1].FieldStrength != 2 || mb.Points[1].Sweat != 0.5 {
		t.Errorf("point 1 = %+v", mb.Points[1])
	}
}

func TestEBMAndVol(t *testing.T) {
	source := `
(defsolid "relief" (ebm "relief.bin" :xdim 16 :ydim 8 :height 5))
(defsolid "scan" (vol "scan.bin" :xdim 4 :ydim 4 :zdim 2 :lo 10 :hi 200 :cell (vec3 1 1 2)))
`
	res := mustEval(t, source)
	e, ok := res.Solid("relief").(*edit.EBM)
	if !ok {
		t.Fatalf("expected *edit.EBM, got %T", res.Solid("relief"))
	}
	if e.Name != "relief.bin" || e.XDim != 16 || e.YDim != 8 || e.Tallness != 5 {
		t.Errorf("ebm = %+v", e)
	}
	v, ok := res.Solid("scan").(*edit.Vol)
	if !ok {
		t.Fatalf("expected *edit.Vol, got %T", res.Solid("scan"))
	}
	if v.ZDim != 2 || v.Lo != 10 || v.Hi != 200 || v.CellSize.Z != 2 {
		t.Errorf("vol = %+v", v)
	}
}

func TestPrimitiveErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"tor radii", `(tor :r1 2 :r2 10)`, "not greater"},
		{"tor missing radius", `(tor :r1 2)`, "missing :r2"},
		{"tor zero normal", `(tor :r1 10 :r2 2 :normal (vec3 0 0 0))`, "zero vector"},
		{"metaball item", `(metaball (vec3 0 0 0))`, "expected ball"},
		{"metaball threshold", `(metaball :threshold 0 (ball (vec3 0 0 0)))`, "threshold"},
		{"ebm dims", `(ebm "a.bin" :height 1)`, "dimensions"},
		{"ebm negative dim", `(ebm "a.bin" :xdim -1 :ydim 2)`, "out of range"},
		{"vol thresholds", `(vol "a.bin" :xdim 1 :ydim 1 :zdim 1 :lo 9 :hi 3)`, "thresholds"},
		{"vol no file", `(vol :xdim 1)`, "data file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("errors = %s, want mention of %q", msg, tt.want)
			}
		})
	}
}

func TestSolidLookup(t *testing.T) {
	res := mustEval(t, `
(defsolid "ring" (tor :r1 10 :r2 2))
(edit (solid "ring") :mode :tor-r2 3)
`)
	if got := res.Solid("ring").(*edit.Tor).R2; got != 3 {
		t.Errorf("r2 = %g, want 3", got)
	}
	msg := evalFails(t, `(solid "nonexistent")`)
	if !strings.Contains(msg, "nonexistent") {
		t.Errorf("errors = %s", msg)
	}
}

func TestDefsolidErrors(t *testing.T) {
	evalFails(t, `(defsolid "a" (tor :r1 10 :r2 2)) (defsolid "a" (tor :r1 10 :r2 2))`)
	evalFails(t, `(def r (defsolid "a" (tor :r1 10 :r2 2))) (defsolid "b" r)`)
	evalFails(t, `(defsolid "a" 5)`)
}

// ---------------------------------------------------------------------------
// Edits
// ---------------------------------------------------------------------------

func TestEditTorRadius(t *testing.T) {
	res := mustEval(t, `
(def ring (defsolid "ring" (tor :r1 10 :r2 2)))
(edit ring :mode :tor-r1 15)
(edit ring :mode :tor-r2 0.5 :units "cm")
`)
	tor := res.Solid("ring").(*edit.Tor)
	if tor.R1 != 15 {
		t.Errorf("r1 = %g, want 15", tor.R1)
	}
	if math.Abs(tor.R2-5) > 1e-9 {
		t.Errorf("r2 = %g, want 5 (0.5cm)", tor.R2)
	}
}

func TestEditMouse(t *testing.T) {
	res := mustEval(t, `
(def ring (defsolid "ring" (tor :r1 12 :r2 2)))
(edit ring :mode :tor-r1 :xy (vec3 0 1 0))
`)
	if got := res.Solid("ring").(*edit.Tor).R1; math.Abs(got-15) > 1e-9 {
		t.Errorf("r1 = %g, want 15", got)
	}
}

func TestEditBaseModes(t *testing.T) {
	res := mustEval(t, `
(def ring (defsolid "ring" (tor :r1 10 :r2 2)))
(edit ring :mode :translate 5 0 0)
(edit ring :mode :scale 2)
`)
	tor := res.Solid("ring").(*edit.Tor)
	if tor.V.X != 5 {
		t.Errorf("centre = %v, want x=5", tor.V)
	}
	if tor.R1 != 20 || tor.R2 != 4 {
		t.Errorf("radii = %g, %g, want 20, 4", tor.R1, tor.R2)
	}
}

func TestEditMetaballPoints(t *testing.T) {
	res := mustEval(t, `
(def blob (defsolid "blob"
  (metaball (ball (vec3 0 0 0)) (ball (vec3 5 5 0)))))
(edit blob :mode :metaball-field-strength :select 1 4)
(edit blob :mode :metaball-pick 5 5 0)
`)
	mb := res.Solid("blob").(*edit.Metaball)
	if mb.Points[1].FieldStrength != 4 {
		t.Errorf("point 1 strength = %g, want 4", mb.Points[1].FieldStrength)
	}
	found := false
	for _, l := range res.Log {
		if strings.Contains(l, "selected point 1") {
			found = true
		}
	}
	if !found {
		t.Errorf("log = %q, want the pick message", res.Log)
	}
}

func TestEditEBMFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.bin")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	res := mustEval(t, fmt.Sprintf(`
(def relief (defsolid "relief" (ebm "relief.bin" :xdim 4 :ydim 4 :height 1)))
(edit relief :mode :ebm-file-name :file %q)
(edit relief :mode :ebm-file-size 8 8)
`, path))
	e := res.Solid("relief").(*edit.EBM)
	if e.Name != path {
		t.Errorf("file = %q, want %q", e.Name, path)
	}
	if e.XDim != 8 || e.YDim != 8 {
		t.Errorf("dims = %dx%d, want 8x8", e.XDim, e.YDim)
	}
}

func TestEditErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"arity", `(edit (tor :r1 10 :r2 2) :mode :tor-r1 1 2)`, "parameters"},
		{"rejected value", `(edit (tor :r1 10 :r2 2) :mode :tor-r1 1)`, "must exceed"},
		{"no mode", `(edit (tor :r1 10 :r2 2) 5)`, "missing :mode"},
		{"unknown mode", `(edit (tor :r1 10 :r2 2) :mode :spin 5)`, "unknown edit mode"},
		{"foreign mode", `(edit (tor :r1 10 :r2 2) :mode :ebm-height 5)`, "no mode"},
		{"unknown unit", `(edit (tor :r1 10 :r2 2) :mode :tor-r1 12 :units "furlong")`, "unknown unit"},
		{"bad selection", `(edit (metaball (ball (vec3 0 0 0))) :mode :metaball-sweat :select 3 1)`, "no control point"},
		{"no selection", `(edit (metaball (ball (vec3 0 0 0))) :mode :metaball-sweat 1)`, "nothing selected"},
		{"not a solid", `(edit 5 :mode :scale 2)`, "expected solid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("errors = %s, want mention of %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	res := mustEval(t, "(+ 1 2)")
	if len(res.Faces) != 0 || len(res.Solids) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
