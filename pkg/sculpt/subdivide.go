package sculpt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/mesh"
)

const (
	// Edges longer than edgeSplitFactor times the target length are split.
	edgeSplitFactor = 1.5
	// An edge is only split when its midpoint falls within
	// markRadiusFactor times the brush radius of a symmetry point.
	markRadiusFactor = 0.8
	// Cap on the mark-propagation fixed point. Keeps pathological
	// adjacency graphs from looping.
	maxPropagationPasses = 5
	// Endpoints whose distances from the origin agree within this
	// absolute tolerance are treated as lying on a common sphere, and the
	// new midpoint is snapped onto it.
	radialSnapTolerance = 0.3
)

// edgeKey is an unordered vertex index pair in canonical ascending order.
type edgeKey struct {
	a, b uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Subdivide refines m around the given symmetry points so that no nearby
// edge stays longer than maxEdge. Marking an edge when its midpoint is near
// any symmetry point keeps all mirror copies of a region subdivided
// together. Child triangles inherit their parent's winding.
//
// When no edge qualifies, the input mesh is returned unchanged; callers
// detect the no-op by comparing references. A refined result carries no
// rendering groups, and its normals and bounds are left stale for the
// orchestrator to rebuild.
func Subdivide(m *mesh.Mesh, points []mgl64.Vec3, radius, maxEdge float64) *mesh.Mesh {
	m.EnsureIndexed()

	minLen := maxEdge * edgeSplitFactor
	markDist := radius * markRadiusFactor

	marked := make(map[edgeKey]bool)
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		for _, e := range [3][2]uint32{{i0, i1}, {i1, i2}, {i2, i0}} {
			k := makeEdgeKey(e[0], e[1])
			if marked[k] {
				continue
			}
			p, q := m.Positions[e[0]], m.Positions[e[1]]
			if p.Sub(q).Len() <= minLen {
				continue
			}
			mid := p.Add(q).Mul(0.5)
			for _, sp := range points {
				if mid.Sub(sp).Len() < markDist {
					marked[k] = true
					break
				}
			}
		}
	}
	if len(marked) == 0 {
		return m
	}

	// Quality propagation: a triangle with exactly two marked edges would
	// split into a thin sliver, so mark the third edge too. Bounded scan,
	// stopping early once a pass marks nothing.
	for pass := 0; pass < maxPropagationPasses; pass++ {
		added := false
		for t := 0; t < m.TriangleCount(); t++ {
			i0, i1, i2 := m.Triangle(t)
			keys := [3]edgeKey{
				makeEdgeKey(i0, i1),
				makeEdgeKey(i1, i2),
				makeEdgeKey(i2, i0),
			}
			n := 0
			for _, k := range keys {
				if marked[k] {
					n++
				}
			}
			if n != 2 {
				continue
			}
			for _, k := range keys {
				if !marked[k] {
					marked[k] = true
					added = true
				}
			}
		}
		if !added {
			break
		}
	}

	// Retriangulation shifts every triangle index after the first split,
	// so group ranges cannot be carried over.
	out := &mesh.Mesh{
		Positions: make([]mgl64.Vec3, len(m.Positions), len(m.Positions)+len(marked)),
		Indices:   make([]uint32, 0, len(m.Indices)),
	}
	copy(out.Positions, m.Positions)

	midpoints := make(map[edgeKey]uint32, len(marked))
	for k := range marked {
		p, q := m.Positions[k.a], m.Positions[k.b]
		mid := p.Add(q).Mul(0.5)
		// Preserve curvature on round primitives: when both endpoints sit
		// at nearly the same distance from the origin, the new vertex goes
		// onto the sphere of the averaged radius instead of the chord.
		rp, rq := p.Len(), q.Len()
		if math.Abs(rp-rq) < radialSnapTolerance {
			if l := mid.Len(); l > 1e-12 {
				mid = mid.Mul(((rp + rq) / 2) / l)
			}
		}
		midpoints[k] = uint32(len(out.Positions))
		out.Positions = append(out.Positions, mid)
	}

	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		emitTriangle(out, midpoints, i0, i1, i2)
	}
	return out
}

// emitTriangle appends the subdivision of one parent triangle, choosing the
// split pattern from which of its edges carry a midpoint.
func emitTriangle(out *mesh.Mesh, midpoints map[edgeKey]uint32, v0, v1, v2 uint32) {
	mid := func(a, b uint32) (uint32, bool) {
		idx, ok := midpoints[makeEdgeKey(a, b)]
		return idx, ok
	}

	// Rotate so the pattern becomes canonical: a single midpoint lands on
	// edge v0-v1, a double leaves v2-v0 whole. Rotation preserves winding.
	for rot := 0; rot < 3; rot++ {
		m01, has01 := mid(v0, v1)
		m12, has12 := mid(v1, v2)
		m20, has20 := mid(v2, v0)

		switch {
		case !has01 && !has12 && !has20:
			out.Indices = append(out.Indices, v0, v1, v2)
			return
		case has01 && has12 && has20:
			// Classic 1-to-4 with a center triangle.
			out.Indices = append(out.Indices,
				v0, m01, m20,
				v1, m12, m01,
				v2, m20, m12,
				m01, m12, m20,
			)
			return
		case has01 && !has12 && !has20:
			out.Indices = append(out.Indices,
				v0, m01, v2,
				m01, v1, v2,
			)
			return
		case has01 && has12 && !has20:
			out.Indices = append(out.Indices,
				v0, m01, m12,
				v0, m12, v2,
				m01, v1, m12,
			)
			return
		}
		v0, v1, v2 = v1, v2, v0
	}
}
