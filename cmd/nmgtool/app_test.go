package main

import (
	"os"
	"strings"
	"testing"

	"github.com/chazu/nmgkit/pkg/config"
)

// testApp returns an App with a coarse mesh resolution.
func testApp() *App {
	c := config.Default()
	c.MeshCells = 24
	return NewApp(c)
}

// TestE2ERingExample exercises the full pipeline: Lisp source → engine →
// faces and solids → tessellate → meshes.
func TestE2ERingExample(t *testing.T) {
	app := testApp()

	source, err := os.ReadFile("../../examples/ring.nmg")
	if err != nil {
		t.Fatalf("failed to read ring.nmg: %v", err)
	}

	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	expected := map[string]bool{"plate": false, "ring": false, "blob": false}
	if len(result.Meshes) != len(expected) {
		t.Fatalf("expected %d meshes, got %d", len(expected), len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if _, ok := expected[m.Name]; !ok {
			t.Errorf("unexpected mesh name: %q", m.Name)
			continue
		}
		expected[m.Name] = true

		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("mesh %q: empty geometry", m.Name)
		}
		if m.Color == "" {
			t.Errorf("mesh %q: no color assigned", m.Name)
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("missing mesh %q", name)
		}
	}
}

// TestE2EPlateTriangles checks the tessellated plate against its topology:
// two caps of a 40x30 plate with a 10x10 hole plus eight side quads.
func TestE2EPlateTriangles(t *testing.T) {
	app := testApp()
	result := app.Evaluate(`
(face "plate"
  (v 0 0 0 0) (v 1 40 0 0) (v 2 40 30 0) (v 3 0 30 0) (l :hole)
  (v 4 10 10 0) (v 5 20 10 0) (v 6 20 20 0) (v 7 10 20 0) (l)
  (e 0 0 5))`)
	if len(result.Errors) > 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	if len(result.meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.meshes))
	}
	// Each cap is 8 triangles after bridging the hole; each side 2.
	if got := result.meshes[0].TriangleCount(); got != 2*8+8*2 {
		t.Errorf("triangles = %d, want 32", got)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	result := testApp().Evaluate("")
	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	result := testApp().Evaluate(`(defsolid "test"`)
	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2EEditLog ensures session messages reach the result.
func TestE2EEditLog(t *testing.T) {
	result := testApp().Evaluate(`
(def blob (defsolid "blob" (metaball (ball (vec3 0 0 0)) (ball (vec3 4 0 0)))))
(edit blob :mode :metaball-pick 4 0 0)`)
	if len(result.Errors) > 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	if len(result.Log) != 1 || !strings.Contains(result.Log[0], "selected point 1") {
		t.Errorf("log = %q", result.Log)
	}
}

// TestE2EColorPaletteWrapping ensures colors repeat once the palette is used up.
func TestE2EColorPaletteWrapping(t *testing.T) {
	var src strings.Builder
	for i := 0; i <= len(colorPalette); i++ {
		src.WriteString(`(face (v 0 0 0 0) (v 1 1 0 0) (v 2 1 1 0) (l))`)
	}
	result := testApp().Evaluate(src.String())
	if len(result.Errors) > 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	n := len(colorPalette)
	if len(result.Meshes) != n+1 {
		t.Fatalf("expected %d meshes, got %d", n+1, len(result.Meshes))
	}
	if result.Meshes[n].Color != result.Meshes[0].Color {
		t.Errorf("color %d = %s, want wrap to %s", n, result.Meshes[n].Color, result.Meshes[0].Color)
	}
}
