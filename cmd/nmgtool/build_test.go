package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/nmgkit/pkg/builder"
	"github.com/chazu/nmgkit/pkg/export"
)

const plateExample = "../../examples/plate.face"

func TestBuildFile(t *testing.T) {
	dir := t.TempDir()
	out := &outputs{
		json:    filepath.Join(dir, "plate.json"),
		threeMF: filepath.Join(dir, "plate.3mf"),
	}
	var stdout bytes.Buffer
	if err := buildFile(&stdout, plateExample, builder.DefaultOptions(), out); err != nil {
		t.Fatal(err)
	}

	summary := stdout.String()
	for _, want := range []string{"10 faces", "extruded by (0, 0, 5)", "bounds (0, 0, 0) - (40, 30, 5)"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary %q lacks %q", summary, want)
		}
	}

	data, err := os.ReadFile(out.json)
	if err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Summary) != 1 || doc.Summary[0].Triangles != 32 {
		t.Errorf("summary = %+v", doc.Summary)
	}
	if fi, err := os.Stat(out.threeMF); err != nil || fi.Size() == 0 {
		t.Errorf("3mf not written: %v", err)
	}
}

func TestBuildFileJSONToStdout(t *testing.T) {
	var stdout bytes.Buffer
	if err := buildFile(&stdout, plateExample, builder.DefaultOptions(), &outputs{json: "-"}); err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("stdout is not a JSON document: %v", err)
	}
}

func TestBuildFileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.face")
	if err := os.WriteFile(bad, []byte("v0 0 0 0 v1 1 0 0 v2 2 0 0 l"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if err := buildFile(&stdout, bad, builder.DefaultOptions(), &outputs{}); err == nil {
		t.Error("expected an error for a collinear loop")
	}
	if err := buildFile(&stdout, filepath.Join(dir, "absent.face"), builder.DefaultOptions(), &outputs{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestScriptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "square.nmg")
	src := `(face "sq" (v 0 0 0 0) (v 1 1 0 0) (v 2 1 1 0) (v 3 0 1 0) (l))`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if err := scriptFile(&stdout, testApp(), path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "sq: 2 triangles") {
		t.Errorf("output %q", stdout.String())
	}

	if err := os.WriteFile(path, []byte("(face \"sq\"\n(v 0"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	if err := scriptFile(&stdout, testApp(), path); err == nil {
		t.Error("expected an error for an unterminated script")
	}
	if !strings.Contains(stdout.String(), path) {
		t.Errorf("errors %q should name the file", stdout.String())
	}
}

func TestRunInfo(t *testing.T) {
	var stdout bytes.Buffer
	infoCmd.SetOut(&stdout)
	defer infoCmd.SetOut(nil)
	if err := runInfo(infoCmd, []string{plateExample}); err != nil {
		t.Fatal(err)
	}
	out := stdout.String()
	for _, want := range []string{"Faces:    10 / 10", "Max: (40, 30, 5)", "Check: ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output lacks %q:\n%s", want, out)
		}
	}
}
