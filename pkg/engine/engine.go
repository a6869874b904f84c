// Package engine provides the scripting surface of the sculpting engine.
// It wraps zygomys in a sandboxed environment and evaluates sculpt scripts
// — primitive construction, symmetry configuration, strokes, welding,
// repair and boolean joins — into a scene registry. Scripts give the core
// a reproducible, UI-free driver.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/imacul/sculpt/pkg/kernel"
	"github.com/imacul/sculpt/pkg/kernel/sdfx"
	"github.com/imacul/sculpt/pkg/scene"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for sculpt scripts. It is safe for
// concurrent use; each call to Evaluate creates a fresh sandboxed
// environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel    kernel.Kernel
	evaluator kernel.Evaluator
}

// NewEngine creates an Engine backed by the sdfx geometry kernel and no
// boolean evaluator; (join ...) reports an error until one is set.
func NewEngine() *Engine {
	return &Engine{kernel: sdfx.New()}
}

// SetEvaluator installs the boolean evaluator used by (join ...).
func (e *Engine) SetEvaluator(ev kernel.Evaluator) {
	e.mu.Lock()
	e.evaluator = ev
	e.mu.Unlock()
}

// Evaluate runs a sculpt script and produces the resulting scene.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Registry, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		reg, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: reg, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*scene.Registry, []EvalError, error) {
	// An empty script is a valid session that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return scene.NewRegistry(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or
	// syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sess := &session{
		registry:  scene.NewRegistry(),
		kernel:    e.kernel,
		evaluator: e.evaluator,
	}
	registerBuiltins(env, sess)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return sess.registry, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values, extracting line numbers from the message where possible.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
