package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTriangleCountImplicitAndIndexed(t *testing.T) {
	implicit := &Mesh{Positions: make([]mgl64.Vec3, 9)}
	if got := implicit.TriangleCount(); got != 3 {
		t.Fatalf("implicit triangle count = %d, want 3", got)
	}
	indexed := &Mesh{
		Positions: make([]mgl64.Vec3, 4),
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	if got := indexed.TriangleCount(); got != 2 {
		t.Fatalf("indexed triangle count = %d, want 2", got)
	}
}

func TestEnsureIndexed(t *testing.T) {
	m := &Mesh{Positions: make([]mgl64.Vec3, 6)}
	m.EnsureIndexed()
	if len(m.Indices) != 6 {
		t.Fatalf("index count = %d, want 6", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx != uint32(i) {
			t.Fatalf("index %d = %d, want sequential", i, idx)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := Icosphere(1, 1)
	m.EnsureUVs()
	m.Groups = []Group{{Name: "body", Start: 0, Count: m.TriangleCount()}}

	c := m.Clone()
	c.Positions[0] = mgl64.Vec3{9, 9, 9}
	c.Indices[0] = 7
	c.Normals[0] = mgl64.Vec3{9, 9, 9}
	c.UVs[0] = mgl64.Vec2{9, 9}
	c.Groups[0].Name = "other"

	if m.Positions[0] == c.Positions[0] {
		t.Fatal("positions share backing storage")
	}
	if m.Indices[0] == 7 {
		t.Fatal("indices share backing storage")
	}
	if m.Normals[0] == c.Normals[0] {
		t.Fatal("normals share backing storage")
	}
	if m.UVs[0] == c.UVs[0] {
		t.Fatal("uvs share backing storage")
	}
	if m.Groups[0].Name != "body" {
		t.Fatal("groups share backing storage")
	}
}

func TestRecomputeNormalsOnSphere(t *testing.T) {
	m := Icosphere(2, 3)
	m.RecomputeNormals()
	for i, p := range m.Positions {
		want := p.Normalize()
		if m.Normals[i].Sub(want).Len() > 0.05 {
			t.Fatalf("vertex %d: normal %v far from radial direction %v", i, m.Normals[i], want)
		}
		if math.Abs(m.Normals[i].Len()-1) > 1e-9 {
			t.Fatalf("vertex %d: normal not unit length: %f", i, m.Normals[i].Len())
		}
	}
}

func TestBoundingVolume(t *testing.T) {
	m := Icosphere(1.5, 1)
	b := m.BoundingVolume()
	for a := 0; a < 3; a++ {
		if math.Abs(b.Min[a]+1.5) > 0.01 || math.Abs(b.Max[a]-1.5) > 0.01 {
			t.Fatalf("axis %d bounds [%f, %f], want [-1.5, 1.5]", a, b.Min[a], b.Max[a])
		}
		if math.Abs(b.Center[a]) > 0.01 {
			t.Fatalf("axis %d center %f, want 0", a, b.Center[a])
		}
	}
	if b.Radius < 1.5 {
		t.Fatalf("bounding radius %f does not enclose the sphere", b.Radius)
	}
}

func TestBoundingVolumeEmpty(t *testing.T) {
	m := &Mesh{}
	b := m.BoundingVolume()
	if b.Radius != 0 {
		t.Fatalf("empty mesh radius = %f, want 0", b.Radius)
	}
}

func TestInvalidateDropsCaches(t *testing.T) {
	m := Icosphere(1, 1)
	m.RecomputeBounds()
	if _, err := m.BuildAccelerator(); err != nil {
		t.Fatal(err)
	}
	m.Invalidate()
	if m.Accel() != nil {
		t.Fatal("accelerator survived invalidation")
	}
	// Bounds must be rebuilt, not served stale.
	m.Positions[0] = mgl64.Vec3{10, 0, 0}
	if b := m.BoundingVolume(); b.Max.X() < 10 {
		t.Fatalf("stale bounds after invalidation: max x = %f", b.Max.X())
	}
}

func TestEnsureUVs(t *testing.T) {
	m := Icosphere(1, 1)
	m.EnsureUVs()
	if len(m.UVs) != m.VertexCount() {
		t.Fatalf("uv count %d != vertex count %d", len(m.UVs), m.VertexCount())
	}
	for i, uv := range m.UVs {
		if uv.X() < 0 || uv.X() > 1 || uv.Y() < 0 || uv.Y() > 1 {
			t.Fatalf("uv %d out of [0,1]: %v", i, uv)
		}
	}
	existing := m.UVs
	m.EnsureUVs()
	if &m.UVs[0] != &existing[0] {
		t.Fatal("existing uvs were replaced")
	}
}
