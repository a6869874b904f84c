// Package kernel defines the geometry kernel boundary of the sculpting
// engine: primitive construction (the initial mesh source) and the boolean
// evaluator hand-off. Implementations (sdfx, manifold) live behind these
// interfaces so backends can be swapped without touching the core.
package kernel

import "github.com/imacul/sculpt/pkg/mesh"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel constructs watertight primitive meshes for sculpting. Every mesh a
// kernel emits is welded, indexed, and carries recomputed normals and
// bounds.
type Kernel interface {
	// Primitives, centered at the origin.
	Sphere(radius float64) Solid
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations on solids.
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms.
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output at the given tessellation resolution.
	ToMesh(s Solid, cells int) (*mesh.Mesh, error)
}
