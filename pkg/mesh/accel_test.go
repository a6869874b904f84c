package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBuildAcceleratorIndexesAllTriangles(t *testing.T) {
	m := Icosphere(1, 2)
	a, err := m.BuildAccelerator()
	if err != nil {
		t.Fatal(err)
	}
	if a.Size() != m.TriangleCount() {
		t.Fatalf("indexed %d triangles, want %d", a.Size(), m.TriangleCount())
	}
	if m.Accel() != a {
		t.Fatal("accelerator was not cached on the mesh")
	}
}

func TestBuildAcceleratorRejectsInvalidMesh(t *testing.T) {
	m := &Mesh{Positions: []mgl64.Vec3{{0, 0, 0}}, Indices: []uint32{0, 1, 2}}
	if _, err := m.BuildAccelerator(); err == nil {
		t.Fatal("expected an error for an invalid mesh")
	}
}

func TestTrianglesNearFindsLocalTriangles(t *testing.T) {
	m := Icosphere(1, 3)
	a, err := m.BuildAccelerator()
	if err != nil {
		t.Fatal(err)
	}

	// A tight box around the north pole catches a small subset.
	hits := a.TrianglesNear(mgl64.Vec3{-0.2, 0.9, -0.2}, mgl64.Vec3{0.2, 1.1, 0.2})
	if len(hits) == 0 {
		t.Fatal("no triangles near the north pole")
	}
	if len(hits) >= m.TriangleCount()/2 {
		t.Fatalf("query returned %d of %d triangles, not selective", len(hits), m.TriangleCount())
	}
	for _, h := range hits {
		i0, i1, i2 := m.Triangle(h)
		top := m.Positions[i0].Y()
		for _, p := range []mgl64.Vec3{m.Positions[i1], m.Positions[i2]} {
			if p.Y() > top {
				top = p.Y()
			}
		}
		if top < 0.85 {
			t.Fatalf("triangle %d is far from the query box (max y %f)", h, top)
		}
	}
}

func TestTrianglesNearMissReturnsNothing(t *testing.T) {
	m := Icosphere(1, 2)
	a, err := m.BuildAccelerator()
	if err != nil {
		t.Fatal(err)
	}
	if hits := a.TrianglesNear(mgl64.Vec3{10, 10, 10}, mgl64.Vec3{11, 11, 11}); len(hits) != 0 {
		t.Fatalf("expected no hits far from the mesh, got %d", len(hits))
	}
}

func TestAcceleratorHandlesFlatTriangles(t *testing.T) {
	m := Plane(2, 2)
	a, err := m.BuildAccelerator()
	if err != nil {
		t.Fatal(err)
	}
	hits := a.TrianglesNear(mgl64.Vec3{-1, -0.1, -1}, mgl64.Vec3{1, 0.1, 1})
	if len(hits) != m.TriangleCount() {
		t.Fatalf("expected every flat triangle, got %d of %d", len(hits), m.TriangleCount())
	}
}
