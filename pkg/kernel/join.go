package kernel

import (
	"fmt"

	"github.com/imacul/sculpt/pkg/mesh"
)

// Evaluator performs boolean operations directly on triangle meshes. It is
// an external collaborator: the engine only guarantees its inputs are
// prepared and treats the result as an opaque new mesh.
type Evaluator interface {
	// Union merges two prepared meshes into one.
	Union(a, b *mesh.Mesh) (*mesh.Mesh, error)
}

// Join merges two sculptable objects through the boolean evaluator. It
// returns nil when either input mesh is missing. Before hand-off both
// meshes are guaranteed to carry UV coordinates (spherical projection when
// absent) and a precomputed bounding-volume accelerator. The merged result
// comes back with rendering groups cleared.
func Join(ev Evaluator, a, b *mesh.Mesh) (*mesh.Mesh, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	for _, m := range []*mesh.Mesh{a, b} {
		m.EnsureUVs()
		if m.Accel() == nil {
			if _, err := m.BuildAccelerator(); err != nil {
				return nil, fmt.Errorf("join: %w", err)
			}
		}
	}

	out, err := ev.Union(a, b)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	if out != nil {
		out.Groups = nil
	}
	return out, nil
}
