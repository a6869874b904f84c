//go:build manifold

// Package manifold provides a CGo-based boolean evaluator binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold performs
// guaranteed-manifold mesh boolean operations, which makes it the reference
// backend for joining sculpted objects.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/kernel"
	"github.com/imacul/sculpt/pkg/mesh"
)

// Compile-time interface check.
var _ kernel.Evaluator = (*Evaluator)(nil)

// Evaluator implements kernel.Evaluator using the Manifold C library.
type Evaluator struct{}

// New creates a new Manifold-backed evaluator.
func New() (kernel.Evaluator, error) {
	return &Evaluator{}, nil
}

// Union merges two prepared meshes into one manifold mesh.
func (e *Evaluator) Union(a, b *mesh.Mesh) (*mesh.Mesh, error) {
	sa, err := toSolid(a)
	if err != nil {
		return nil, fmt.Errorf("manifold: left input: %w", err)
	}
	sb, err := toSolid(b)
	if err != nil {
		return nil, fmt.Errorf("manifold: right input: %w", err)
	}

	alloc := C.manifold_alloc_manifold()
	out := C.manifold_boolean(alloc, sa.ptr, sb.ptr, C.MANIFOLD_ADD)
	merged := newSolid(out)

	result, err := toMesh(merged)
	runtime.KeepAlive(sa)
	runtime.KeepAlive(sb)
	return result, err
}

// solid wraps a C ManifoldManifold pointer with a finalizer for automatic
// memory management.
type solid struct {
	ptr *C.ManifoldManifold
}

func newSolid(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// toSolid uploads an indexed mesh into a Manifold solid via MeshGL.
func toSolid(m *mesh.Mesh) (*solid, error) {
	if m.Indices == nil {
		m.EnsureIndexed()
	}
	numVert := m.VertexCount()
	numTri := m.TriangleCount()
	if numVert == 0 || numTri == 0 {
		return nil, fmt.Errorf("empty mesh")
	}

	props := make([]float32, numVert*3)
	for i, p := range m.Positions {
		props[i*3+0] = float32(p.X())
		props[i*3+1] = float32(p.Y())
		props[i*3+2] = float32(p.Z())
	}
	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_meshgl(meshAlloc,
		(*C.float)(unsafe.Pointer(&props[0])), C.size_t(numVert), 3,
		(*C.uint32_t)(unsafe.Pointer(&indices[0])), C.size_t(numTri),
	)
	defer C.manifold_delete_meshgl(meshGL)

	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_of_meshgl(alloc, meshGL)
	s := newSolid(ptr)

	status := C.manifold_status(s.ptr)
	if status != C.MANIFOLD_NO_ERROR {
		return nil, fmt.Errorf("mesh is not manifold (status %d)", int(status))
	}
	runtime.KeepAlive(props)
	runtime.KeepAlive(indices)
	return s, nil
}

// toMesh extracts an indexed mesh from a Manifold solid.
func toMesh(s *solid) (*mesh.Mesh, error) {
	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, s.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &mesh.Mesh{}, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(meshGL))

	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	out := &mesh.Mesh{
		Positions: make([]mgl64.Vec3, numVert),
		Indices:   indices,
	}
	for i := 0; i < numVert; i++ {
		base := i * numProp
		out.Positions[i] = mgl64.Vec3{
			float64(propData[base+0]),
			float64(propData[base+1]),
			float64(propData[base+2]),
		}
	}
	out.RecomputeNormals()
	out.RecomputeBounds()
	return out, nil
}
