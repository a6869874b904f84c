package main

import (
	"context"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/engine"
	"github.com/imacul/sculpt/pkg/mesh"
	"github.com/imacul/sculpt/pkg/scene"
	"github.com/imacul/sculpt/pkg/sculpt"
)

// colorPalette assigns distinct colors to scene objects.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx      context.Context
	engine   *engine.Engine
	registry *scene.Registry
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
// Buffers are flat: 3 floats per vertex, 3 indices per triangle.
type MeshData struct {
	Name     string    `json:"name"`
	Version  uint64    `json:"version"`
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of a script evaluation.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// StrokeRequest carries one brush application from the frontend. The
// frontend samples at most one stroke per rendered frame while the pointer
// is held down.
type StrokeRequest struct {
	Object      string      `json:"object"`
	Version     uint64      `json:"version"` // version the stroke was computed against
	Tool        string      `json:"tool"`    // "add", "subtract", "push"
	Point       [3]float64  `json:"point"`
	Previous    *[3]float64 `json:"previous,omitempty"`
	Radius      float64     `json:"radius"`
	Strength    float64     `json:"strength"`
	SymmetryX   bool        `json:"symmetryX"`
	SymmetryY   bool        `json:"symmetryY"`
	SymmetryZ   bool        `json:"symmetryZ"`
	Invert      bool        `json:"invert"`
	ExactRepair bool        `json:"exactRepair"`
}

// StrokeResult reports the outcome of one stroke.
type StrokeResult struct {
	Mesh     *MeshData `json:"mesh,omitempty"`
	Modified bool      `json:"modified"`
	Error    string    `json:"error,omitempty"`
}

// NewApp creates a new App with a script engine and an empty scene.
func NewApp() *App {
	return &App{
		engine:   engine.NewEngine(),
		registry: scene.NewRegistry(),
	}
}

// startup is called by Wails on app startup. The context is saved so we
// can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Evaluate runs a sculpt script and replaces the scene with its result.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	reg, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, superseded evaluation).
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
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

	a.registry = reg
	result.Meshes = a.sceneMeshes()
	return result
}

// NewSphere adds an icosphere to the scene and returns its mesh.
func (a *App) NewSphere(name string, radius float64, detail int) StrokeResult {
	if radius <= 0 {
		return StrokeResult{Error: fmt.Sprintf("radius %.4f must be positive", radius)}
	}
	obj, err := a.registry.Add(name, mesh.Icosphere(radius, detail))
	if err != nil {
		return StrokeResult{Error: err.Error()}
	}
	md := toMeshData(obj, 0)
	return StrokeResult{Mesh: &md, Modified: true}
}

// ApplyStroke applies one brush stroke to a scene object. The mesh buffer
// is mutated in place on the interactive path; the version in the request
// must match the object's current version or the update is discarded.
func (a *App) ApplyStroke(req StrokeRequest) StrokeResult {
	obj := a.registry.Get(req.Object)
	if obj == nil {
		return StrokeResult{Error: fmt.Sprintf("no object named %q", req.Object)}
	}
	if obj.Version != req.Version {
		return StrokeResult{Error: fmt.Sprintf("stale stroke: computed against version %d, current %d",
			req.Version, obj.Version)}
	}

	tool, err := parseTool(req.Tool)
	if err != nil {
		return StrokeResult{Error: err.Error()}
	}

	st := sculpt.Stroke{
		Tool:        tool,
		Point:       mgl64.Vec3{req.Point[0], req.Point[1], req.Point[2]},
		Radius:      req.Radius,
		Strength:    req.Strength,
		Symmetry:    sculpt.Config{X: req.SymmetryX, Y: req.SymmetryY, Z: req.SymmetryZ},
		Invert:      req.Invert,
		ExactRepair: req.ExactRepair,
	}
	if req.Previous != nil {
		prev := mgl64.Vec3{req.Previous[0], req.Previous[1], req.Previous[2]}
		st.Previous = &prev
	}

	out, modified, err := sculpt.Apply(obj.Mesh, st)
	if err != nil {
		log.Printf("ApplyStroke error: %v", err)
		return StrokeResult{Error: err.Error()}
	}
	obj, err = a.registry.Swap(obj.Name, out, req.Version)
	if err != nil {
		return StrokeResult{Error: err.Error()}
	}

	md := toMeshData(obj, 0)
	return StrokeResult{Mesh: &md, Modified: modified}
}

// Objects returns the current scene contents.
func (a *App) Objects() []MeshData {
	return a.sceneMeshes()
}

func (a *App) sceneMeshes() []MeshData {
	names := a.registry.Names()
	meshes := make([]MeshData, 0, len(names))
	for i, name := range names {
		obj := a.registry.Get(name)
		if obj == nil {
			continue
		}
		meshes = append(meshes, toMeshData(obj, i))
	}
	return meshes
}

func parseTool(s string) (sculpt.Tool, error) {
	switch s {
	case "add":
		return sculpt.ToolAdd, nil
	case "subtract":
		return sculpt.ToolSubtract, nil
	case "push":
		return sculpt.ToolPush, nil
	}
	return 0, fmt.Errorf("invalid tool %q, expected add, subtract, or push", s)
}

// toMeshData flattens an object's mesh into frontend buffers.
func toMeshData(obj *scene.Object, colorIndex int) MeshData {
	m := obj.Mesh
	md := MeshData{
		Name:     obj.Name,
		Version:  obj.Version,
		Vertices: make([]float32, 0, len(m.Positions)*3),
		Normals:  make([]float32, 0, len(m.Normals)*3),
		Indices:  make([]uint32, len(m.Indices)),
		Color:    colorPalette[colorIndex%len(colorPalette)],
	}
	for _, p := range m.Positions {
		md.Vertices = append(md.Vertices, float32(p.X()), float32(p.Y()), float32(p.Z()))
	}
	for _, n := range m.Normals {
		md.Normals = append(md.Normals, float32(n.X()), float32(n.Y()), float32(n.Z()))
	}
	copy(md.Indices, m.Indices)
	return md
}
