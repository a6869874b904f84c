package sculpt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/mesh"
)

// Tool selects the displacement rule applied by a stroke.
type Tool int

const (
	ToolAdd      Tool = iota // displace along the surface normal
	ToolSubtract             // displace against the surface normal
	ToolPush                 // displace along the drag direction
)

func (t Tool) String() string {
	switch t {
	case ToolAdd:
		return "add"
	case ToolSubtract:
		return "subtract"
	case ToolPush:
		return "push"
	default:
		return "unknown"
	}
}

const (
	// Fraction of the brush radius sampled around the click point when
	// averaging the surface normal.
	normalSampleFactor = 0.5
	// Global displacement scale; quadratic falloff concentrates the
	// remaining effect near the brush center.
	baseDisplacement = 0.02
	// Push displacement grows with drag speed up to a hard cap.
	pushRateScale = 250.0
	pushRateCap   = 50.0
	// Drags shorter than this contribute nothing; a Push stroke with no
	// prior point is a guaranteed no-op.
	minDragDistance = 0.001
)

// Deform applies the per-vertex displacement of one stroke to m's positions
// in place, once per symmetry point, and reports whether any vertex moved.
// points must come from Config.Points: the original click point first, with
// mirror configurations inferred against it.
//
// Absent normals, an empty brush hit-set and degenerate drag vectors all
// degrade to "no displacement" rather than failing.
func Deform(m *mesh.Mesh, points []mgl64.Vec3, tool Tool, brushSize, brushStrength float64, clickPoint mgl64.Vec3, previous *mgl64.Vec3, invert bool) bool {
	if len(points) == 0 || brushSize <= 0 {
		return false
	}

	avgNormal := averageNormal(m, clickPoint, brushSize*normalSampleFactor)

	var moveDist float64
	var rawDir mgl64.Vec3
	if tool == ToolPush {
		if previous == nil {
			return false
		}
		rawDir = clickPoint.Sub(*previous)
		moveDist = rawDir.Len()
		if moveDist < minDragDistance {
			return false
		}
	}

	modified := false
	for _, sp := range points {
		flip := MirrorOf(sp, clickPoint)

		var dir mgl64.Vec3
		switch tool {
		case ToolPush:
			dir = flip.Apply(rawDir)
		default:
			dir = flip.Apply(avgNormal)
		}
		l := dir.Len()
		if l < 1e-12 {
			continue
		}
		dir = dir.Mul(1 / l)

		for i, p := range m.Positions {
			d := p.Sub(sp).Len()
			if d >= brushSize {
				continue
			}
			falloff := 1 - d/brushSize
			strength := brushStrength * falloff * falloff * baseDisplacement

			var multiplier float64
			switch tool {
			case ToolPush:
				multiplier = strength * math.Min(moveDist*pushRateScale, pushRateCap)
			case ToolAdd:
				multiplier = strength
			case ToolSubtract:
				multiplier = -strength
			}
			if invert {
				multiplier = -multiplier
			}

			m.Positions[i] = p.Add(dir.Mul(multiplier))
			modified = true
		}
	}
	if modified {
		m.Invalidate()
	}
	return modified
}

// averageNormal averages the existing vertex normals within radius of the
// original click point. With no normals, or no vertices in range, the up
// vector stands in.
func averageNormal(m *mesh.Mesh, at mgl64.Vec3, radius float64) mgl64.Vec3 {
	up := mgl64.Vec3{0, 1, 0}
	if m.Normals == nil {
		return up
	}
	var sum mgl64.Vec3
	found := false
	for i, p := range m.Positions {
		if p.Sub(at).Len() < radius {
			sum = sum.Add(m.Normals[i])
			found = true
		}
	}
	if !found {
		return up
	}
	if l := sum.Len(); l > 1e-12 {
		return sum.Mul(1 / l)
	}
	return up
}
