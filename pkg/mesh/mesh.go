// Package mesh defines the indexed triangle mesh that the sculpting core
// operates on, together with the welding, validation and acceleration
// utilities shared by the primitive factory and the boolean evaluator.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the shared spatial tolerance: the weld grid cell size and the
// default pairing tolerance for symmetry repair. Both must agree or welding
// can split vertex pairs the repair pass depends on.
const Epsilon = 1e-4

// Group names a contiguous run of triangles for the renderer. CSG results
// drop their groups; sculpting never creates them.
type Group struct {
	Name  string `json:"name"`
	Start int    `json:"start"` // first triangle index
	Count int    `json:"count"` // number of triangles
}

// Bounds is an axis-aligned bounding volume with a derived bounding sphere.
type Bounds struct {
	Min    mgl64.Vec3
	Max    mgl64.Vec3
	Center mgl64.Vec3
	Radius float64
}

// Mesh is an indexed triangle mesh. Positions is always present; Normals and
// UVs are optional and, when present, parallel to Positions. Indices holds
// three entries per triangle and may be nil for implicit sequential
// triangles (every consecutive position triple is one face).
//
// A mesh is owned by whichever stroke operation is currently mutating it.
// Callers that need the previous geometry kept alive work on a Clone.
type Mesh struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Indices   []uint32
	Groups    []Group

	bounds *Bounds
	accel  *Accelerator
}

// VertexCount returns the number of vertex positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles, indexed or implicit.
func (m *Mesh) TriangleCount() int {
	if m.Indices != nil {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Triangle returns the vertex indices of triangle t.
func (m *Mesh) Triangle(t int) (uint32, uint32, uint32) {
	if m.Indices != nil {
		return m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
	}
	return uint32(t * 3), uint32(t*3 + 1), uint32(t*3 + 2)
}

// EnsureIndexed synthesizes a sequential index list if the mesh has none.
func (m *Mesh) EnsureIndexed() {
	if m.Indices != nil {
		return
	}
	m.Indices = make([]uint32, len(m.Positions))
	for i := range m.Indices {
		m.Indices[i] = uint32(i)
	}
}

// Clone returns a deep copy. Derived data (bounds, accelerator) is not
// carried over; the copy recomputes it on demand.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{}
	if m.Positions != nil {
		c.Positions = make([]mgl64.Vec3, len(m.Positions))
		copy(c.Positions, m.Positions)
	}
	if m.Normals != nil {
		c.Normals = make([]mgl64.Vec3, len(m.Normals))
		copy(c.Normals, m.Normals)
	}
	if m.UVs != nil {
		c.UVs = make([]mgl64.Vec2, len(m.UVs))
		copy(c.UVs, m.UVs)
	}
	if m.Indices != nil {
		c.Indices = make([]uint32, len(m.Indices))
		copy(c.Indices, m.Indices)
	}
	if m.Groups != nil {
		c.Groups = make([]Group, len(m.Groups))
		copy(c.Groups, m.Groups)
	}
	return c
}

// Invalidate drops cached derived data. Call after any mutation of
// positions or topology that bypasses the helpers on this type.
func (m *Mesh) Invalidate() {
	m.bounds = nil
	m.accel = nil
}

// RecomputeNormals rebuilds per-vertex normals by accumulating the
// area-weighted face normal of every incident triangle. Hand-edited
// normals never survive a topology or position change.
func (m *Mesh) RecomputeNormals() {
	normals := make([]mgl64.Vec3, len(m.Positions))
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		a := m.Positions[i0]
		b := m.Positions[i1]
		c := m.Positions[i2]
		// Unnormalized cross product weights by triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		normals[i0] = normals[i0].Add(n)
		normals[i1] = normals[i1].Add(n)
		normals[i2] = normals[i2].Add(n)
	}
	for i, n := range normals {
		if l := n.Len(); l > 1e-12 {
			normals[i] = n.Mul(1 / l)
		}
	}
	m.Normals = normals
}

// RecomputeBounds rebuilds and caches the bounding volume.
func (m *Mesh) RecomputeBounds() Bounds {
	b := Bounds{}
	if len(m.Positions) == 0 {
		m.bounds = &b
		return b
	}
	b.Min = m.Positions[0]
	b.Max = m.Positions[0]
	for _, p := range m.Positions[1:] {
		for a := 0; a < 3; a++ {
			b.Min[a] = math.Min(b.Min[a], p[a])
			b.Max[a] = math.Max(b.Max[a], p[a])
		}
	}
	b.Center = b.Min.Add(b.Max).Mul(0.5)
	b.Radius = b.Max.Sub(b.Center).Len()
	m.bounds = &b
	return b
}

// BoundingVolume returns the cached bounds, computing them if stale.
func (m *Mesh) BoundingVolume() Bounds {
	if m.bounds != nil {
		return *m.bounds
	}
	return m.RecomputeBounds()
}

// EnsureUVs synthesizes texture coordinates by spherical projection when the
// mesh has none. Boolean evaluator inputs require UVs; sculpted primitives
// usually arrive without them.
func (m *Mesh) EnsureUVs() {
	if m.UVs != nil {
		return
	}
	m.UVs = make([]mgl64.Vec2, len(m.Positions))
	for i, p := range m.Positions {
		if l := p.Len(); l > 1e-12 {
			p = p.Mul(1 / l)
		}
		u := 0.5 + math.Atan2(p.Z(), p.X())/(2*math.Pi)
		v := 0.5 - math.Asin(clamp(p.Y(), -1, 1))/math.Pi
		m.UVs[i] = mgl64.Vec2{u, v}
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
