package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Weld merges near-duplicate vertices into a watertight indexed mesh.
// Vertices are quantized onto a grid of cell size eps; vertices landing in
// the same cell collapse into one, keeping the first-seen position. The
// triangle list is remapped to the surviving indices. Triangle count never
// changes; vertex count never grows.
//
// If the mesh is already indexed and no merge occurs, the input is returned
// unchanged so callers can detect the no-op by comparing references. An
// unindexed input gets a synthesized index list even when nothing merges.
//
// Pass Epsilon unless a collaborator documents a different tolerance.
func Weld(m *Mesh, eps float64) *Mesh {
	if m.Indices == nil {
		m.EnsureIndexed()
	}

	type cell [3]int64
	seen := make(map[cell]uint32, len(m.Positions))
	remap := make([]uint32, len(m.Positions))
	var kept []int
	merged := false

	for i, p := range m.Positions {
		key := cell{
			int64(math.Round(p.X() / eps)),
			int64(math.Round(p.Y() / eps)),
			int64(math.Round(p.Z() / eps)),
		}
		if j, ok := seen[key]; ok {
			remap[i] = j
			merged = true
			continue
		}
		idx := uint32(len(kept))
		seen[key] = idx
		remap[i] = idx
		kept = append(kept, i)
	}

	if !merged {
		return m
	}

	w := &Mesh{
		Positions: make([]mgl64.Vec3, len(kept)),
		Indices:   make([]uint32, len(m.Indices)),
		Groups:    m.Groups,
	}
	for j, i := range kept {
		w.Positions[j] = m.Positions[i]
	}
	for i, idx := range m.Indices {
		w.Indices[i] = remap[idx]
	}
	if m.Normals != nil {
		// Stale after merging; rebuild from the welded topology.
		w.RecomputeNormals()
	}
	return w
}
