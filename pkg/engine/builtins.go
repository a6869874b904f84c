package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/imacul/sculpt/pkg/kernel"
	"github.com/imacul/sculpt/pkg/mesh"
	"github.com/imacul/sculpt/pkg/scene"
	"github.com/imacul/sculpt/pkg/sculpt"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms sculpt script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//     Hyphens in keyword names become underscores (:exact-repair ->
//     "__kw_exact_repair") so builtins look keys up in one spelling.
//
//  2. Kebab-case to underscore: exact-repair -> exact_repair
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				// Keyword names are normalized here: the kebab-case pass
				// below never sees inside the emitted string literal.
				kwName := strings.ReplaceAll(string(b[i+1:j]), "-", "_")
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when a hyphen sits between identifier characters (not a
		// minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an mgl64.Vec3 for use as a script value.
type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.3f %.3f %.3f)", v.vec.X(), v.vec.Y(), v.vec.Z())
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpObject references a scene object by name so builtins can chain.
type sexpObject struct {
	name string
}

func (o *sexpObject) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(object %q)", o.name)
}
func (o *sexpObject) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string. Returns the
// keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value — treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_add) and plain strings ("add").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toTool converts a keyword or string to a sculpt.Tool.
func toTool(s zygo.Sexp) (sculpt.Tool, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected tool keyword (:add, :subtract, :push): %w", err)
	}
	switch name {
	case "add":
		return sculpt.ToolAdd, nil
	case "subtract":
		return sculpt.ToolSubtract, nil
	case "push":
		return sculpt.ToolPush, nil
	}
	return 0, fmt.Errorf("invalid tool %q, expected add, subtract, or push", name)
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toObjectName extracts a scene object name from a sexpObject or string.
func toObjectName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpObject:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected object reference or name, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Session state
// ---------------------------------------------------------------------------

// session is the mutable state one script evaluation operates on.
type session struct {
	registry  *scene.Registry
	kernel    kernel.Kernel
	evaluator kernel.Evaluator
	symmetry  sculpt.Config
	counter   uint64
}

// nextName generates a unique object name for anonymous primitives.
func (s *session) nextName(prefix string) string {
	for {
		s.counter++
		name := fmt.Sprintf("%s_%d", prefix, s.counter)
		if s.registry.Get(name) == nil {
			return name
		}
	}
}

// addObject registers a mesh, optionally under a caller-chosen name.
func (s *session) addObject(kind string, pa kwArgs, m *mesh.Mesh) (zygo.Sexp, error) {
	name := ""
	if v, ok := pa.kw["name"]; ok {
		n, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: name: %w", kind, err)
		}
		name = n
	}
	if name == "" {
		name = s.nextName(kind)
	}
	if _, err := s.registry.Add(name, m); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", kind, err)
	}
	return &sexpObject{name: name}, nil
}

// object resolves the first positional argument to a scene object.
func (s *session) object(kind string, pa kwArgs) (*scene.Object, error) {
	if len(pa.positional) < 1 {
		return nil, fmt.Errorf("%s: missing object argument", kind)
	}
	name, err := toObjectName(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	obj := s.registry.Get(name)
	if obj == nil {
		return nil, fmt.Errorf("%s: no object named %q", kind, name)
	}
	return obj, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the sculpt DSL builtins into a zygomys
// environment. The builtins operate on the provided session, populating its
// scene registry during evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable string
// literals.
func registerBuiltins(env *zygo.Zlisp, sess *session) {

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3: expected 3 arguments, got %d", len(args))
		}
		var v mgl64.Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 1 :detail 3 :name "ball")
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		radius := 1.0
		detail := 3
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
			}
			radius = f
		}
		if v, ok := pa.kw["detail"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: detail: %w", err)
			}
			detail = n
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius %.4f must be positive", radius)
		}
		return sess.addObject("sphere", pa, mesh.Icosphere(radius, detail))
	})

	// -----------------------------------------------------------------------
	// (box :x 1 :y 1 :z 1 :cells 64 :name "slab")
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		dims := mgl64.Vec3{1, 1, 1}
		cells := 0
		for i, axis := range []string{"x", "y", "z"} {
			if v, ok := pa.kw[axis]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: %s: %w", axis, err)
				}
				if f <= 0 {
					return zygo.SexpNull, fmt.Errorf("box: dimension %s is %.4f, must be positive", axis, f)
				}
				dims[i] = f
			}
		}
		if v, ok := pa.kw["cells"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: cells: %w", err)
			}
			cells = n
		}
		m, err := sess.kernel.ToMesh(sess.kernel.Box(dims.X(), dims.Y(), dims.Z()), cells)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return sess.addObject("box", pa, m)
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 2 :radius 0.5 :cells 64 :name "peg")
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		height, radius := 1.0, 0.5
		cells := 0
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			height = f
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
			radius = f
		}
		if v, ok := pa.kw["cells"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: cells: %w", err)
			}
			cells = n
		}
		if height <= 0 || radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: height %.4f and radius %.4f must be positive", height, radius)
		}
		m, err := sess.kernel.ToMesh(sess.kernel.Cylinder(height, radius), cells)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return sess.addObject("cylinder", pa, m)
	})

	// -----------------------------------------------------------------------
	// (symmetry :x true :y false :z false)
	// -----------------------------------------------------------------------
	env.AddFunction("symmetry", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		for axis, dst := range map[string]*bool{
			"x": &sess.symmetry.X,
			"y": &sess.symmetry.Y,
			"z": &sess.symmetry.Z,
		} {
			if v, ok := pa.kw[axis]; ok {
				b, err := toBool(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("symmetry: %s: %w", axis, err)
				}
				*dst = b
			}
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (stroke obj :tool :add :at (vec3 0 1 0) :radius 0.5 :strength 1
	//             :from (vec3 0 0.9 0) :invert false :exact-repair false)
	// -----------------------------------------------------------------------
	env.AddFunction("stroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		obj, err := sess.object("stroke", pa)
		if err != nil {
			return zygo.SexpNull, err
		}

		st := sculpt.Stroke{
			Tool:     sculpt.ToolAdd,
			Radius:   0.5,
			Strength: 1,
			Symmetry: sess.symmetry,
		}
		if v, ok := pa.kw["tool"]; ok {
			t, err := toTool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: tool: %w", err)
			}
			st.Tool = t
		}
		at, ok := pa.kw["at"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("stroke: missing :at point")
		}
		st.Point, err = toVec3(at)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: at: %w", err)
		}
		if v, ok := pa.kw["from"]; ok {
			prev, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: from: %w", err)
			}
			st.Previous = &prev
		}
		if v, ok := pa.kw["radius"]; ok {
			if st.Radius, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: radius: %w", err)
			}
		}
		if v, ok := pa.kw["strength"]; ok {
			if st.Strength, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: strength: %w", err)
			}
		}
		if v, ok := pa.kw["invert"]; ok {
			if st.Invert, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: invert: %w", err)
			}
		}
		if v, ok := pa.kw["exact_repair"]; ok {
			if st.ExactRepair, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: exact-repair: %w", err)
			}
		}

		version := obj.Version
		out, modified, err := sculpt.Apply(obj.Mesh, st)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
		}
		if _, err := sess.registry.Swap(obj.Name, out, version); err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
		}
		return &zygo.SexpBool{Val: modified}, nil
	})

	// -----------------------------------------------------------------------
	// (weld obj)
	// -----------------------------------------------------------------------
	env.AddFunction("weld", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		obj, err := sess.object("weld", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		version := obj.Version
		welded := mesh.Weld(obj.Mesh, mesh.Epsilon)
		if welded == obj.Mesh {
			return &sexpObject{name: obj.Name}, nil
		}
		welded.RecomputeNormals()
		welded.RecomputeBounds()
		if _, err := sess.registry.Swap(obj.Name, welded, version); err != nil {
			return zygo.SexpNull, fmt.Errorf("weld: %w", err)
		}
		return &sexpObject{name: obj.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (repair obj :x true :tolerance 0.001)
	// -----------------------------------------------------------------------
	env.AddFunction("repair", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		obj, err := sess.object("repair", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		tol := mesh.Epsilon
		if v, ok := pa.kw["tolerance"]; ok {
			if tol, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("repair: tolerance: %w", err)
			}
		}
		cfg := sess.symmetry
		for axis, dst := range map[string]*bool{"x": &cfg.X, "y": &cfg.Y, "z": &cfg.Z} {
			if v, ok := pa.kw[axis]; ok {
				b, err := toBool(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("repair: %s: %w", axis, err)
				}
				*dst = b
			}
		}
		version := obj.Version
		repaired := sculpt.Repair(obj.Mesh, cfg, tol)
		if repaired == obj.Mesh {
			return &sexpObject{name: obj.Name}, nil
		}
		repaired.RecomputeNormals()
		repaired.RecomputeBounds()
		if _, err := sess.registry.Swap(obj.Name, repaired, version); err != nil {
			return zygo.SexpNull, fmt.Errorf("repair: %w", err)
		}
		return &sexpObject{name: obj.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (join a b :name "merged")
	// -----------------------------------------------------------------------
	env.AddFunction("join", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if sess.evaluator == nil {
			return zygo.SexpNull, fmt.Errorf("join: no boolean evaluator available")
		}
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("join: expected 2 objects, got %d", len(pa.positional))
		}
		var meshes [2]*mesh.Mesh
		for i, arg := range pa.positional {
			n, err := toObjectName(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("join: %w", err)
			}
			if obj := sess.registry.Get(n); obj != nil {
				meshes[i] = obj.Mesh
			}
		}
		merged, err := kernel.Join(sess.evaluator, meshes[0], meshes[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("join: %w", err)
		}
		if merged == nil {
			return zygo.SexpNull, nil
		}
		return sess.addObject("join", pa, merged)
	})
}
