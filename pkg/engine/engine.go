// Package engine provides the Lisp evaluation engine for nmgkit.
// It wraps zygomys in a sandboxed environment and produces faces built by the
// loop builder and edited primitives from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/nmgkit/pkg/builder"
	"github.com/chazu/nmgkit/pkg/edit"
	zygo "github.com/glycerine/zygomys/zygo"
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

// Face is a face built by a (face ...) form.
type Face struct {
	Name string
	*builder.Result
}

// NamedSolid is a primitive registered with (defsolid ...).
type NamedSolid struct {
	Name  string
	Solid edit.Solid
}

// Result is everything a script produced, in definition order.
type Result struct {
	Faces  []Face
	Solids []NamedSolid
	// Log holds the messages of every edit session the script ran.
	Log []string
}

// Face returns the face named name, or nil.
func (r *Result) Face(name string) *Face {
	for i := range r.Faces {
		if r.Faces[i].Name == name {
			return &r.Faces[i]
		}
	}
	return nil
}

// Solid returns the primitive registered as name, or nil.
func (r *Result) Solid(name string) edit.Solid {
	for _, s := range r.Solids {
		if s.Name == name {
			return s.Solid
		}
	}
	return nil
}

func (r *Result) hasName(name string) bool {
	return r.Face(name) != nil || r.Solid(name) != nil
}

// Engine wraps the zygomys interpreter for nmgkit scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	opts       builder.Options
}

// NewEngine creates a new Engine building faces with the default options.
func NewEngine() *Engine {
	return &Engine{opts: builder.DefaultOptions()}
}

// SetOptions sets the tolerances and fusing used by later evaluations.
func (e *Engine) SetOptions(opts builder.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
}

// Evaluate runs Lisp source code and returns what it built.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	opts := e.opts
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := evaluate(source, opts)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(source string, opts builder.Options) (*Result, []EvalError, error) {
	res := &Result{}
	// Empty source is a valid program that produces an empty result.
	if strings.TrimSpace(source) == "" {
		return res, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, res, opts)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
