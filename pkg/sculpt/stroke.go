package sculpt

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/mesh"
)

// DefaultEdgeFactor derives the subdivision target edge length from the
// brush radius when a stroke does not specify one.
const DefaultEdgeFactor = 0.25

// Stroke carries the parameters of one brush application.
type Stroke struct {
	Tool     Tool
	Point    mgl64.Vec3  // click point in local mesh space
	Previous *mgl64.Vec3 // prior click point; only meaningful for Push
	Radius   float64
	Strength float64 // nominal 0..1
	Symmetry Config
	Invert   bool

	// MaxEdge is the subdivision target edge length near the brush.
	// Zero selects Radius * DefaultEdgeFactor.
	MaxEdge float64
	// Subdivide disables adaptive refinement when false is wanted
	// explicitly; the zero value keeps it on.
	NoSubdivide bool
	// ExactRepair runs the O(n²) symmetry repair after subdivision.
	// Expensive; intended for offline and testing use.
	ExactRepair bool
}

func (s Stroke) edgeLength() float64 {
	if s.MaxEdge > 0 {
		return s.MaxEdge
	}
	return s.Radius * DefaultEdgeFactor
}

// Apply runs one stroke against m, mutating it in place where possible:
// resolve symmetry points, locally subdivide, optionally repair exact
// symmetry, deform, then rebuild normals and bounds if anything moved.
// Subdivision and repair may produce a new mesh object; the returned mesh
// is always the one carrying the result.
//
// The caller must not read m concurrently while a stroke is applied.
func Apply(m *mesh.Mesh, s Stroke) (*mesh.Mesh, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("stroke: nil mesh")
	}
	if err := m.Validate(); err != nil {
		return nil, false, fmt.Errorf("stroke: %w", err)
	}

	points := s.Symmetry.Points(s.Point)

	out := m
	if !s.NoSubdivide && s.Radius > 0 {
		refined := Subdivide(out, points, s.Radius, s.edgeLength())
		if refined != out {
			// New geometry was produced; its normals are stale either way
			// but the deformer needs a usable field to average.
			refined.RecomputeNormals()
			out = refined
		}
	}

	if s.ExactRepair && s.Symmetry.Any() {
		repaired := Repair(out, s.Symmetry, mesh.Epsilon)
		if repaired != out {
			repaired.RecomputeNormals()
			out = repaired
		}
	}

	modified := Deform(out, points, s.Tool, s.Radius, s.Strength, s.Point, s.Previous, s.Invert)
	if modified || out != m {
		out.RecomputeNormals()
		out.RecomputeBounds()
	}
	return out, modified, nil
}

// ApplyClone runs the stroke against a private copy of m, leaving the input
// untouched. Callers that keep prior versions alive (undo snapshots, tests)
// use this entry point; the interactive path uses Apply.
func ApplyClone(m *mesh.Mesh, s Stroke) (*mesh.Mesh, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("stroke: nil mesh")
	}
	return Apply(m.Clone(), s)
}
