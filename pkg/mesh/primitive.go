package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Icosphere builds a watertight unit-style sphere by subdividing an
// icosahedron and projecting every vertex back onto the sphere. detail is
// the number of subdivision rounds; 0 returns the bare icosahedron.
// Normals and bounds are precomputed.
func Icosphere(radius float64, detail int) *Mesh {
	t := (1 + math.Sqrt(5)) / 2

	positions := []mgl64.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	indices := []uint32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}
	for i, p := range positions {
		positions[i] = p.Normalize()
	}

	for round := 0; round < detail; round++ {
		type edge struct{ a, b uint32 }
		midpoints := make(map[edge]uint32)
		midpoint := func(a, b uint32) uint32 {
			k := edge{a, b}
			if a > b {
				k = edge{b, a}
			}
			if idx, ok := midpoints[k]; ok {
				return idx
			}
			mid := positions[a].Add(positions[b]).Mul(0.5).Normalize()
			idx := uint32(len(positions))
			positions = append(positions, mid)
			midpoints[k] = idx
			return idx
		}

		next := make([]uint32, 0, len(indices)*4)
		for i := 0; i < len(indices); i += 3 {
			v0, v1, v2 := indices[i], indices[i+1], indices[i+2]
			a := midpoint(v0, v1)
			b := midpoint(v1, v2)
			c := midpoint(v2, v0)
			next = append(next,
				v0, a, c,
				v1, b, a,
				v2, c, b,
				a, b, c,
			)
		}
		indices = next
	}

	for i, p := range positions {
		positions[i] = p.Mul(radius)
	}

	m := &Mesh{Positions: positions, Indices: indices}
	m.RecomputeNormals()
	m.RecomputeBounds()
	return m
}

// Plane builds a flat square patch of side length size in the XZ plane,
// centered at the origin, facing +Y, with segments quads per side.
func Plane(size float64, segments int) *Mesh {
	if segments < 1 {
		segments = 1
	}
	step := size / float64(segments)
	half := size / 2

	m := &Mesh{}
	for z := 0; z <= segments; z++ {
		for x := 0; x <= segments; x++ {
			m.Positions = append(m.Positions, mgl64.Vec3{
				-half + float64(x)*step,
				0,
				-half + float64(z)*step,
			})
		}
	}
	stride := uint32(segments + 1)
	for z := 0; z < segments; z++ {
		for x := 0; x < segments; x++ {
			i := uint32(z)*stride + uint32(x)
			// Counter-clockwise seen from +Y.
			m.Indices = append(m.Indices,
				i, i+stride, i+1,
				i+1, i+stride, i+stride+1,
			)
		}
	}
	m.RecomputeNormals()
	m.RecomputeBounds()
	return m
}
