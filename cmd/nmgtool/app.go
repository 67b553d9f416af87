package main

import (
	"log"

	"github.com/chazu/nmgkit/pkg/config"
	"github.com/chazu/nmgkit/pkg/engine"
	"github.com/chazu/nmgkit/pkg/kernel"
	"github.com/chazu/nmgkit/pkg/kernel/sdfx"
	"github.com/chazu/nmgkit/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs scripts through the engine, the tessellator and the kernel.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cfg    config.Config
}

// MeshData is the JSON-serializable mesh format written for viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one script.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
	Log    []string        `json:"log"`

	meshes []*kernel.Mesh
}

// NewApp creates an App with the sdfx kernel configured by cfg.
func NewApp(cfg config.Config) *App {
	eng := engine.NewEngine()
	eng.SetOptions(cfg.BuilderOptions())
	return &App{
		engine: eng,
		kernel: sdfx.NewWithCells(cfg.MeshCells),
		cfg:    cfg,
	}
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
		Log:    []string{},
	}

	// Step 1: Evaluate the Lisp source into faces and solids.
	res, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the output format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Log = append(result.Log, res.Log...)

	// Step 3: Tessellate faces and primitives into triangle meshes.
	var meshes []*kernel.Mesh
	for _, f := range res.Faces {
		ms, err := tessellate.Model(f.Model, a.cfg.Tol())
		if err != nil {
			log.Printf("Tessellate error: %v", err)
			result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation of " + f.Name + " failed: " + err.Error()})
			return result
		}
		for _, m := range ms {
			m.Name = f.Name
		}
		meshes = append(meshes, ms...)
	}
	for _, s := range res.Solids {
		m, err := tessellate.Solid(a.kernel, s.Solid)
		if err != nil {
			log.Printf("Tessellate error: %v", err)
			result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation of " + s.Name + " failed: " + err.Error()})
			return result
		}
		m.Name = s.Name
		meshes = append(meshes, m)
	}

	// Step 4: Convert kernel meshes to the output format.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	result.meshes = meshes
	return result
}
