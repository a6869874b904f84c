package sculpt

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/mesh"
)

// Repair guarantees every vertex of m has an exact mirror counterpart under
// the enabled planes, inserting mirrored vertices and triangles where they
// are missing. Pairing is an O(n²) scan over unpaired vertices, so this is
// an opt-in mode for offline and testing use; the interactive path relies
// on the subdivider's mirrored marking instead.
//
// Synthesized triangles reverse the source winding so outward-facing
// normals stay consistent, and are skipped when a triangle over the same
// vertex set already exists. If no vertex had to be created the input is
// returned unchanged; repair of its own output is always such a no-op.
func Repair(m *mesh.Mesh, cfg Config, tol float64) *mesh.Mesh {
	if !cfg.Any() {
		return m
	}
	m.EnsureIndexed()

	n := len(m.Positions)
	pair := make([]int, n)
	for i := range pair {
		pair[i] = -1
	}

	var added []mgl64.Vec3
	for i := 0; i < n; i++ {
		if pair[i] != -1 {
			continue
		}
		p := m.Positions[i]
		if onPlanes(p, cfg, tol) {
			pair[i] = i
			continue
		}
		mp := mirrorPoint(p, cfg)

		found := -1
		for j := i + 1; j < n; j++ {
			if pair[j] != -1 {
				continue
			}
			if m.Positions[j].Sub(mp).Len() < tol {
				found = j
				break
			}
		}
		if found >= 0 {
			pair[i] = found
			pair[found] = i
			continue
		}
		// No counterpart anywhere: synthesize one.
		idx := n + len(added)
		added = append(added, mp)
		pair = append(pair, i)
		pair[i] = idx
	}

	if len(added) == 0 {
		return m
	}

	out := &mesh.Mesh{
		Positions: make([]mgl64.Vec3, 0, n+len(added)),
		Indices:   make([]uint32, len(m.Indices)),
		Groups:    m.Groups,
	}
	out.Positions = append(out.Positions, m.Positions...)
	out.Positions = append(out.Positions, added...)
	copy(out.Indices, m.Indices)

	existing := make(map[[3]uint32]bool, len(out.Indices)/3)
	for t := 0; t < len(out.Indices); t += 3 {
		existing[sortedTriangle(out.Indices[t], out.Indices[t+1], out.Indices[t+2])] = true
	}

	for t := 0; t < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		m0, m1, m2 := uint32(pair[i0]), uint32(pair[i1]), uint32(pair[i2])
		if m0 == i0 && m1 == i1 && m2 == i2 {
			continue
		}
		// Reverse winding so the mirrored face points outward.
		key := sortedTriangle(m0, m2, m1)
		if existing[key] {
			continue
		}
		existing[key] = true
		out.Indices = append(out.Indices, m0, m2, m1)
	}
	return out
}

// mirrorPoint negates every enabled axis of p.
func mirrorPoint(p mgl64.Vec3, cfg Config) mgl64.Vec3 {
	if cfg.X {
		p[0] = -p[0]
	}
	if cfg.Y {
		p[1] = -p[1]
	}
	if cfg.Z {
		p[2] = -p[2]
	}
	return p
}

// onPlanes reports whether p lies on every enabled mirror plane within tol,
// making it its own mirror image.
func onPlanes(p mgl64.Vec3, cfg Config, tol float64) bool {
	if cfg.X && math.Abs(p.X()) >= tol {
		return false
	}
	if cfg.Y && math.Abs(p.Y()) >= tol {
		return false
	}
	if cfg.Z && math.Abs(p.Z()) >= tol {
		return false
	}
	return true
}

// sortedTriangle is the canonical winding-insensitive key of a triangle.
func sortedTriangle(a, b, c uint32) [3]uint32 {
	k := [3]uint32{a, b, c}
	sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
	return k
}
