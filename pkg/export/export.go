// Package export writes triangle meshes to files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/chazu/nmgkit/pkg/kernel"
	"github.com/hpinc/go3mf"
)

// ErrNoMeshes is returned when there is nothing to write.
var ErrNoMeshes = errors.New("export: no meshes")

// Model3MF builds a 3MF model with one object and one build item per
// non-empty mesh.
func Model3MF(meshes []*kernel.Mesh) (*go3mf.Model, error) {
	model := &go3mf.Model{}
	id := uint32(0)
	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		if len(m.Indices)%3 != 0 {
			return nil, fmt.Errorf("export: mesh %q has %d indices", m.Name, len(m.Indices))
		}
		id++
		msh := &go3mf.Mesh{}
		for v := 0; v+2 < len(m.Vertices); v += 3 {
			msh.Vertices.Vertex = append(msh.Vertices.Vertex, go3mf.Point3D{m.Vertices[v], m.Vertices[v+1], m.Vertices[v+2]})
		}
		for t := 0; t < len(m.Indices); t += 3 {
			msh.Triangles.Triangle = append(msh.Triangles.Triangle, go3mf.Triangle{
				V1: m.Indices[t], V2: m.Indices[t+1], V3: m.Indices[t+2],
			})
		}
		model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{ID: id, Name: m.Name, Mesh: msh})
		model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: id})
	}
	if id == 0 {
		return nil, ErrNoMeshes
	}
	return model, nil
}

// Write3MF writes meshes to a 3MF package at path.
func Write3MF(path string, meshes []*kernel.Mesh) error {
	model, err := Model3MF(meshes)
	if err != nil {
		return err
	}
	w, err := go3mf.CreateWriter(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := w.Encode(model); err != nil {
		w.Close()
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	return w.Close()
}

// Summary describes one exported mesh.
type Summary struct {
	Name      string     `json:"name"`
	Vertices  int        `json:"vertexCount"`
	Triangles int        `json:"triangleCount"`
	Min       [3]float64 `json:"min"`
	Max       [3]float64 `json:"max"`
}

// Document is the JSON form of a set of meshes.
type Document struct {
	Meshes  []*kernel.Mesh `json:"meshes"`
	Summary []Summary      `json:"summary"`
}

// NewDocument collects meshes and their summaries.
func NewDocument(meshes []*kernel.Mesh) Document {
	doc := Document{Meshes: meshes}
	for _, m := range meshes {
		s := Summary{Name: m.Name, Vertices: m.VertexCount(), Triangles: m.TriangleCount()}
		s.Min, s.Max, _ = m.Bounds()
		doc.Summary = append(doc.Summary, s)
	}
	return doc
}

// WriteJSON writes meshes as an indented JSON Document.
func WriteJSON(w io.Writer, meshes []*kernel.Mesh) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(meshes)); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
