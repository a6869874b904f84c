package mesh

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
)

// rtree node fan-out. Values from the rtreego documentation defaults.
const (
	accelMinBranch = 25
	accelMaxBranch = 50
)

// Accelerator is a bounding-volume index over a mesh's triangles, backed by
// a 3-D R-tree. The boolean evaluator requires one to be precomputed on each
// input mesh before hand-off.
type Accelerator struct {
	tree *rtreego.Rtree
	mesh *Mesh
}

// triangleEntry indexes one triangle's AABB in the R-tree.
type triangleEntry struct {
	index int
	rect  rtreego.Rect
}

func (t *triangleEntry) Bounds() rtreego.Rect {
	return t.rect
}

// BuildAccelerator constructs and caches the triangle bounding-volume index.
// The mesh must be structurally valid.
func (m *Mesh) BuildAccelerator() (*Accelerator, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("accelerator: %w", err)
	}

	entries := make([]rtreego.Spatial, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Triangle(t)
		lo := m.Positions[i0]
		hi := m.Positions[i0]
		for _, p := range []mgl64.Vec3{m.Positions[i1], m.Positions[i2]} {
			for a := 0; a < 3; a++ {
				lo[a] = math.Min(lo[a], p[a])
				hi[a] = math.Max(hi[a], p[a])
			}
		}
		rect, err := rtreego.NewRect(
			rtreego.Point{lo.X(), lo.Y(), lo.Z()},
			[]float64{extent(lo.X(), hi.X()), extent(lo.Y(), hi.Y()), extent(lo.Z(), hi.Z())},
		)
		if err != nil {
			return nil, fmt.Errorf("accelerator: triangle %d: %w", t, err)
		}
		entries = append(entries, &triangleEntry{index: t, rect: rect})
	}

	a := &Accelerator{
		tree: rtreego.NewTree(3, accelMinBranch, accelMaxBranch, entries...),
		mesh: m,
	}
	m.accel = a
	return a, nil
}

// Accel returns the cached accelerator, or nil if none has been built since
// the last mutation.
func (m *Mesh) Accel() *Accelerator {
	return m.accel
}

// Size returns the number of indexed triangles.
func (a *Accelerator) Size() int {
	return a.tree.Size()
}

// TrianglesNear returns the indices of all triangles whose bounding boxes
// intersect the axis-aligned box [lo, hi].
func (a *Accelerator) TrianglesNear(lo, hi mgl64.Vec3) []int {
	rect, err := rtreego.NewRect(
		rtreego.Point{lo.X(), lo.Y(), lo.Z()},
		[]float64{extent(lo.X(), hi.X()), extent(lo.Y(), hi.Y()), extent(lo.Z(), hi.Z())},
	)
	if err != nil {
		return nil
	}
	hits := a.tree.SearchIntersect(rect)
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*triangleEntry).index)
	}
	return out
}

// extent returns a strictly positive side length; rtreego rejects
// zero-extent rectangles, which flat axis-aligned triangles produce.
func extent(lo, hi float64) float64 {
	d := hi - lo
	if d < Epsilon {
		return Epsilon
	}
	return d
}
