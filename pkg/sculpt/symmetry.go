// Package sculpt implements the mesh-editing core: symmetry resolution,
// adaptive local subdivision, exact symmetry repair, and the brush
// deformation applied by each stroke.
package sculpt

import "github.com/go-gl/mathgl/mgl64"

// Config selects which origin-centered coordinate planes mirror a stroke.
type Config struct {
	X bool `json:"x"`
	Y bool `json:"y"`
	Z bool `json:"z"`
}

// Any reports whether at least one mirror plane is enabled.
func (c Config) Any() bool {
	return c.X || c.Y || c.Z
}

// axes returns the enabled axis indices in X, Y, Z order.
func (c Config) axes() []int {
	var out []int
	if c.X {
		out = append(out, 0)
	}
	if c.Y {
		out = append(out, 1)
	}
	if c.Z {
		out = append(out, 2)
	}
	return out
}

// Points returns the full combinatorial set of mirror images of p under the
// enabled planes: 2^k points for k enabled axes. The original point is
// always first; downstream code infers each mirror's flip configuration
// from that ordering. The order depends only on which axes are enabled.
func (c Config) Points(p mgl64.Vec3) []mgl64.Vec3 {
	axes := c.axes()
	out := make([]mgl64.Vec3, 0, 1<<len(axes))
	out = append(out, p)
	for mask := 1; mask < 1<<len(axes); mask++ {
		q := p
		for bit, axis := range axes {
			if mask&(1<<bit) != 0 {
				q[axis] = -q[axis]
			}
		}
		out = append(out, q)
	}
	return out
}

// Mirror holds the per-axis sign-flip flags relating a symmetry point to
// the original brush point.
type Mirror struct {
	X, Y, Z bool
}

// MirrorOf derives the flip configuration of symmetry point sp relative to
// the original click point. The original maps to the zero Mirror; a point
// on a mirror plane is its own image and never flips on that axis.
func MirrorOf(sp, original mgl64.Vec3) Mirror {
	return Mirror{
		X: sp.X() != original.X(),
		Y: sp.Y() != original.Y(),
		Z: sp.Z() != original.Z(),
	}
}

// Apply flips the signs of v's components per the mirror configuration.
func (f Mirror) Apply(v mgl64.Vec3) mgl64.Vec3 {
	if f.X {
		v[0] = -v[0]
	}
	if f.Y {
		v[1] = -v[1]
	}
	if f.Z {
		v[2] = -v[2]
	}
	return v
}
