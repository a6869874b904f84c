package engine

import (
	"strings"
	"testing"

	"github.com/imacul/sculpt/pkg/mesh"
)

// concatEvaluator appends b's geometry onto a's, standing in for a real
// boolean backend.
type concatEvaluator struct{}

func (concatEvaluator) Union(a, b *mesh.Mesh) (*mesh.Mesh, error) {
	out := a.Clone()
	out.EnsureIndexed()
	base := uint32(out.VertexCount())
	out.Positions = append(out.Positions, b.Positions...)
	for t := 0; t < b.TriangleCount(); t++ {
		i0, i1, i2 := b.Triangle(t)
		out.Indices = append(out.Indices, base+i0, base+i1, base+i2)
	}
	out.Normals = nil
	out.UVs = nil
	return out, nil
}

func TestEvaluateEmptySource(t *testing.T) {
	e := NewEngine()
	reg, evalErrs, err := e.Evaluate("   \n\t  ")
	if err != nil {
		t.Fatal(err)
	}
	if evalErrs != nil {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if reg == nil || reg.Len() != 0 {
		t.Fatal("expected an empty scene")
	}
}

func TestEvaluateSphereScript(t *testing.T) {
	e := NewEngine()
	reg, evalErrs, err := e.Evaluate(`(sphere :radius 2 :detail 2 :name "ball")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	obj := reg.Get("ball")
	if obj == nil {
		t.Fatal("ball not in scene")
	}
	if obj.Version != 1 {
		t.Fatalf("version = %d, want 1", obj.Version)
	}
	b := obj.Mesh.BoundingVolume()
	if b.Radius < 2 || b.Radius > 2.1 {
		t.Fatalf("bounding radius %f, want about 2", b.Radius)
	}
}

func TestEvaluateAnonymousNames(t *testing.T) {
	e := NewEngine()
	reg, evalErrs, err := e.Evaluate("(sphere :detail 1)\n(sphere :detail 1)")
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] == names[1] {
		t.Fatalf("names = %v, want two distinct spheres", names)
	}
}

func TestEvaluateStrokeScript(t *testing.T) {
	e := NewEngine()
	src := `
(sphere :radius 1 :detail 2 :name "ball")
(stroke "ball" :tool :add :at (vec3 0 1 0) :radius 0.5 :strength 1)
`
	reg, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	obj := reg.Get("ball")
	if obj == nil {
		t.Fatal("ball not in scene")
	}
	if obj.Version != 2 {
		t.Fatalf("version after stroke = %d, want 2", obj.Version)
	}
	top := 0.0
	for _, p := range obj.Mesh.Positions {
		if p.Y() > top {
			top = p.Y()
		}
	}
	if top <= 1 {
		t.Fatalf("stroke did not raise the surface: top y = %f", top)
	}
}

func TestEvaluateSymmetricStrokeScript(t *testing.T) {
	e := NewEngine()
	src := `
(sphere :radius 1 :detail 2 :name "ball")
(symmetry :x true)
(stroke "ball" :tool :add :at (vec3 0.5 0.5 0.5) :radius 0.4)
`
	reg, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	pos, neg := 0, 0
	for _, p := range reg.Get("ball").Mesh.Positions {
		if p.Len() > 1.001 {
			if p.X() > 0 {
				pos++
			} else if p.X() < 0 {
				neg++
			}
		}
	}
	if pos == 0 || neg == 0 {
		t.Fatalf("mirrored stroke raised only one side: +x=%d -x=%d", pos, neg)
	}
}

func TestEvaluateParseError(t *testing.T) {
	e := NewEngine()
	reg, evalErrs, err := e.Evaluate(`(sphere :radius`)
	if err != nil {
		t.Fatal(err)
	}
	if reg != nil {
		t.Fatal("expected no scene on a parse error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
}

func TestEvaluateRuntimeError(t *testing.T) {
	e := NewEngine()
	reg, evalErrs, err := e.Evaluate(`(stroke "ghost" :at (vec3 0 0 0))`)
	if err != nil {
		t.Fatal(err)
	}
	if reg != nil {
		t.Fatal("expected no scene on a runtime error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	joined := ""
	for _, e := range evalErrs {
		joined += e.Error()
	}
	if !strings.Contains(joined, "ghost") {
		t.Fatalf("error does not name the missing object: %q", joined)
	}
}

func TestEvaluateJoinWithoutEvaluator(t *testing.T) {
	e := NewEngine()
	src := `
(sphere :detail 1 :name "a")
(sphere :detail 1 :name "b")
(join "a" "b")
`
	reg, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	if reg != nil || len(evalErrs) == 0 {
		t.Fatal("expected join to fail without a boolean evaluator")
	}
}

func TestEvaluateJoinScript(t *testing.T) {
	e := NewEngine()
	e.SetEvaluator(concatEvaluator{})
	src := `
(sphere :detail 1 :name "a")
(sphere :detail 1 :name "b")
(join "a" "b" :name "merged")
`
	reg, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	merged := reg.Get("merged")
	if merged == nil {
		t.Fatal("merged object not in scene")
	}
	a, b := reg.Get("a"), reg.Get("b")
	if merged.Mesh.VertexCount() != a.Mesh.VertexCount()+b.Mesh.VertexCount() {
		t.Fatalf("merged vertex count %d, want %d",
			merged.Mesh.VertexCount(), a.Mesh.VertexCount()+b.Mesh.VertexCount())
	}
}

func TestEvaluateWeldScript(t *testing.T) {
	e := NewEngine()
	reg, evalErrs, err := e.Evaluate(`(weld (sphere :detail 1 :name "ball"))`)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	// The icosphere is already welded, so the object must be untouched.
	if obj := reg.Get("ball"); obj == nil || obj.Version != 1 {
		t.Fatal("welding an already-welded mesh must not bump the version")
	}
}

func TestEvaluateCommentsAndKebab(t *testing.T) {
	e := NewEngine()
	src := `
;; build a sphere and push it a little
(sphere :radius 1 :detail 2 :name "ball")
(stroke "ball" :tool :push :at (vec3 0 1 0) :from (vec3 0.1 1 0) :exact-repair false)
`
	reg, evalErrs, err := e.Evaluate(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if reg.Get("ball") == nil {
		t.Fatal("ball not in scene")
	}
}

func TestEvaluateExactRepairKeyword(t *testing.T) {
	// An unmirrored bump, then a mirrored stroke elsewhere. With
	// :exact-repair enabled the second stroke must synthesize mirror
	// vertices for the bump; disabled, the scripts run identically up to
	// that point, so the counts differ exactly when the flag gets through.
	script := func(repair string) string {
		return `
(sphere :radius 1 :detail 2 :name "ball")
(stroke "ball" :tool :add :at (vec3 0.5 0.5 0.5) :radius 0.3)
(symmetry :x true)
(stroke "ball" :tool :add :at (vec3 0 1 0) :radius 0.3 :exact-repair ` + repair + `)
`
	}

	e := NewEngine()
	count := func(repair string) int {
		reg, evalErrs, err := e.Evaluate(script(repair))
		if err != nil {
			t.Fatal(err)
		}
		if len(evalErrs) != 0 {
			t.Fatalf("eval errors: %v", evalErrs)
		}
		return reg.Get("ball").Mesh.VertexCount()
	}

	without := count("false")
	with := count("true")
	if with <= without {
		t.Fatalf("exact repair never ran: %d vertices with the flag, %d without", with, without)
	}
}

func TestEvaluateIsolatedSessions(t *testing.T) {
	e := NewEngine()
	if _, _, err := e.Evaluate(`(sphere :detail 1 :name "ball")`); err != nil {
		t.Fatal(err)
	}
	reg, evalErrs, err := e.Evaluate(`(sphere :detail 1 :name "ball")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("second evaluation saw state from the first: %v", evalErrs)
	}
	if reg.Len() != 1 {
		t.Fatalf("scene has %d objects, want 1", reg.Len())
	}
}
