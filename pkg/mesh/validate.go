package mesh

import "fmt"

// Severity classifies a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // contract violation, blocks the operation
	SeverityWarning                 // advisory, operation may proceed
)

// Issue is a single structural problem found in a mesh.
type Issue struct {
	Message  string
	Severity Severity
}

func (i Issue) String() string {
	return i.Message
}

// Validate runs the structural checks that upstream collaborators are
// required to satisfy: a position buffer must exist, triangle indices must
// be in range, and optional parallel buffers must match the vertex count.
// It returns an error describing the first blocking issue, or nil.
//
// Expected sculpting edge cases (empty brush hits, absent normals, and so
// on) are not errors and are not checked here.
func (m *Mesh) Validate() error {
	issues := m.ValidateAll()
	for _, is := range issues {
		if is.Severity == SeverityError {
			return fmt.Errorf("mesh: %s", is.Message)
		}
	}
	return nil
}

// ValidateAll returns every issue found, blocking and advisory.
func (m *Mesh) ValidateAll() []Issue {
	var issues []Issue

	if m.Positions == nil {
		issues = append(issues, Issue{
			Message:  "missing position buffer",
			Severity: SeverityError,
		})
		return issues
	}

	n := uint32(len(m.Positions))
	if m.Indices != nil {
		if len(m.Indices)%3 != 0 {
			issues = append(issues, Issue{
				Message:  fmt.Sprintf("index count %d is not a multiple of 3", len(m.Indices)),
				Severity: SeverityError,
			})
		}
		for i, idx := range m.Indices {
			if idx >= n {
				issues = append(issues, Issue{
					Message:  fmt.Sprintf("triangle index %d out of range at position %d (vertex count %d)", idx, i, n),
					Severity: SeverityError,
				})
				break
			}
		}
	} else if len(m.Positions)%3 != 0 {
		issues = append(issues, Issue{
			Message:  fmt.Sprintf("implicit mesh has %d positions, not a multiple of 3", len(m.Positions)),
			Severity: SeverityError,
		})
	}

	if m.Normals != nil && len(m.Normals) != len(m.Positions) {
		issues = append(issues, Issue{
			Message:  fmt.Sprintf("normal count %d does not match vertex count %d", len(m.Normals), len(m.Positions)),
			Severity: SeverityError,
		})
	}
	if m.UVs != nil && len(m.UVs) != len(m.Positions) {
		issues = append(issues, Issue{
			Message:  fmt.Sprintf("uv count %d does not match vertex count %d", len(m.UVs), len(m.Positions)),
			Severity: SeverityWarning,
		})
	}

	return issues
}
