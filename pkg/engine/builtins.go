package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/nmgkit/pkg/builder"
	"github.com/chazu/nmgkit/pkg/edit"
	"github.com/chazu/nmgkit/pkg/nmg"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms nmgkit Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: set-mode -> set_mode
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
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
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
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
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
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

// sexpVertex is one (v ...) entry of a face: a slot definition when define is
// set, otherwise a reuse of the slot.
type sexpVertex struct {
	idx    uint32
	p      v3.Vec
	define bool
}

func (v *sexpVertex) SexpString(ps *zygo.PrintState) string {
	if !v.define {
		return fmt.Sprintf("(v %d)", v.idx)
	}
	return fmt.Sprintf("(v %d %g %g %g)", v.idx, v.p.X, v.p.Y, v.p.Z)
}
func (v *sexpVertex) Type() *zygo.RegisteredType { return nil }

// sexpLoopEnd closes the pending loop of a face.
type sexpLoopEnd struct {
	hole bool // the next loop is a hole
}

func (l *sexpLoopEnd) SexpString(ps *zygo.PrintState) string {
	if l.hole {
		return "(l :hole)"
	}
	return "(l)"
}
func (l *sexpLoopEnd) Type() *zygo.RegisteredType { return nil }

// sexpExtrusion carries the extrusion vector of a face.
type sexpExtrusion struct {
	dir v3.Vec
}

func (e *sexpExtrusion) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(e %g %g %g)", e.dir.X, e.dir.Y, e.dir.Z)
}
func (e *sexpExtrusion) Type() *zygo.RegisteredType { return nil }

// sexpFaceRef names a face built by (face ...).
type sexpFaceRef struct {
	name string
}

func (f *sexpFaceRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(faceref %q)", f.name)
}
func (f *sexpFaceRef) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps an editable primitive. name is empty until the solid is
// registered with defsolid.
type sexpSolid struct {
	solid edit.Solid
	name  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	if s.name != "" {
		return fmt.Sprintf("(solid %q)", s.name)
	}
	return fmt.Sprintf("(%s)", s.solid.Type())
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpBall is one metaball control point.
type sexpBall struct {
	pt edit.MetaballPoint
}

func (b *sexpBall) SexpString(ps *zygo.PrintState) string {
	c := b.pt.Coord
	return fmt.Sprintf("(ball (vec3 %g %g %g) :strength %g)", c.X, c.Y, c.Z, b.pt.FieldStrength)
}
func (b *sexpBall) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
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
// Keywords are identified by the __kw_ prefix added during preprocessing.
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
				// Keyword at end with no value: a bare flag.
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

// toUint32 extracts a non-negative integer from a SexpInt.
func toUint32(s zygo.Sexp) (uint32, error) {
	v, ok := s.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
	}
	if v.Val < 0 || v.Val > int64(^uint32(0)) {
		return 0, fmt.Errorf("integer %d out of range", v.Val)
	}
	return uint32(v.Val), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
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

// toFlag reads a keyword flag. A bare keyword with no value, as in
// (l :hole), is set; otherwise only false turns the flag off.
func toFlag(s zygo.Sexp) bool {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val
	}
	return true
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts the primitive of a sexpSolid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flatten expands nested lists and arrays so generated loops can be passed
// to face as one argument.
func flatten(args []zygo.Sexp) ([]zygo.Sexp, error) {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, err
			}
			inner, err := flatten(items)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		default:
			if a == zygo.SexpNull {
				continue
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// floats reads a list of numeric arguments.
func floats(args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// triple reads either one vec3 or three numbers.
func triple(args []zygo.Sexp) (v3.Vec, error) {
	switch len(args) {
	case 1:
		return toVec3(args[0])
	case 3:
		f, err := floats(args)
		if err != nil {
			return v3.Vec{}, err
		}
		return v3.Vec{X: f[0], Y: f[1], Z: f[2]}, nil
	}
	return v3.Vec{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all nmgkit builtins into a zygomys environment.
// Faces and registered solids are recorded in res; faces are finished with
// opts.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, res *Result, opts builder.Options) {
	anon := 0
	nextName := func(kind string) string {
		anon++
		return fmt.Sprintf("%s_anon_%d", kind, anon)
	}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := triple(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (v 0 1 2 3) defines slot 0 at (1, 2, 3); (v 0) reuses slot 0.
	// -----------------------------------------------------------------------
	env.AddFunction("v", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 && len(args) != 2 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("v requires a slot and optionally a position, got %d arguments", len(args))
		}
		idx, err := toUint32(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("v: slot: %w", err)
		}
		if idx >= builder.MaxVertices {
			return zygo.SexpNull, fmt.Errorf("v: %w: v%d", builder.ErrIndexRange, idx)
		}
		if len(args) == 1 {
			return &sexpVertex{idx: idx}, nil
		}
		p, err := triple(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("v: position: %w", err)
		}
		return &sexpVertex{idx: idx, p: p, define: true}, nil
	})

	// -----------------------------------------------------------------------
	// (l) or (l :hole)
	// -----------------------------------------------------------------------
	env.AddFunction("l", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("l takes only the :hole flag")
		}
		v, ok := pa.kw["hole"]
		return &sexpLoopEnd{hole: ok && toFlag(v)}, nil
	})

	// -----------------------------------------------------------------------
	// (e 0 0 5) or (e (vec3 0 0 5))
	// -----------------------------------------------------------------------
	env.AddFunction("e", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		d, err := triple(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("e: %w", err)
		}
		return &sexpExtrusion{dir: d}, nil
	})

	// -----------------------------------------------------------------------
	// (face "plate" (v 0 0 0 0) (v 1 4 0 0) (v 2 4 4 0) (l) (e 0 0 1) :fuse true)
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		items := pa.positional
		faceName := ""
		if len(items) > 0 {
			if s, ok := items[0].(*zygo.SexpStr); ok {
				faceName = s.S
				items = items[1:]
			}
		}
		if faceName == "" {
			faceName = nextName("face")
		}
		if res.hasName(faceName) {
			return zygo.SexpNull, fmt.Errorf("face: name %q already defined", faceName)
		}
		o := opts
		if v, ok := pa.kw["fuse"]; ok {
			o.Fuse = toFlag(v)
		}
		items, err := flatten(items)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face %q: %w", faceName, err)
		}

		r, err := buildFace(items, o)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face %q: %w", faceName, err)
		}
		res.Faces = append(res.Faces, Face{Name: faceName, Result: r})
		return &sexpFaceRef{name: faceName}, nil
	})

	// -----------------------------------------------------------------------
	// (tor :r1 10 :r2 2 :at (vec3 0 0 0) :normal (vec3 0 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("tor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		t := edit.NewTor(0, 0)
		for kw, dst := range map[string]*float64{"r1": &t.R1, "r2": &t.R2} {
			v, ok := pa.kw[kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("tor: missing :%s", kw)
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tor: %s: %w", kw, err)
			}
			*dst = f
		}
		if v, ok := pa.kw["at"]; ok {
			p, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tor: at: %w", err)
			}
			t.V = p
		}
		if v, ok := pa.kw["normal"]; ok {
			h, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tor: normal: %w", err)
			}
			if h.Length() == 0 {
				return zygo.SexpNull, fmt.Errorf("tor: normal: zero vector")
			}
			t.H = h.Normalize()
		}
		return newSolid(t)
	})

	// -----------------------------------------------------------------------
	// (ball (vec3 0 0 0) :strength 2 :sweat 1)
	// -----------------------------------------------------------------------
	env.AddFunction("ball", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("ball requires a position")
		}
		p, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ball: position: %w", err)
		}
		pt := edit.MetaballPoint{Coord: p, FieldStrength: 1}
		if v, ok := pa.kw["strength"]; ok {
			if pt.FieldStrength, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("ball: strength: %w", err)
			}
		}
		if v, ok := pa.kw["sweat"]; ok {
			if pt.Sweat, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("ball: sweat: %w", err)
			}
		}
		return &sexpBall{pt: pt}, nil
	})

	// -----------------------------------------------------------------------
	// (metaball :threshold 1 :method 0 (ball ...) (ball ...))
	// -----------------------------------------------------------------------
	env.AddFunction("metaball", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		mb := edit.NewMetaball(edit.MethodMetaball, 1)
		if v, ok := pa.kw["threshold"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("metaball: threshold: %w", err)
			}
			mb.Threshold = f
		}
		if v, ok := pa.kw["method"]; ok {
			m, err := toUint32(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("metaball: method: %w", err)
			}
			mb.Method = int(m)
		}
		items, err := flatten(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("metaball: %w", err)
		}
		for i, it := range items {
			b, ok := it.(*sexpBall)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("metaball: point %d: expected ball, got %T", i, it)
			}
			mb.Points = append(mb.Points, b.pt)
		}
		return newSolid(mb)
	})

	// -----------------------------------------------------------------------
	// (ebm "heights.bin" :xdim 16 :ydim 16 :height 5)
	// -----------------------------------------------------------------------
	env.AddFunction("ebm", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		file, err := dataFile(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ebm: %w", err)
		}
		e := edit.NewEBM(file, 0, 0, 1)
		if err := setUints(pa, map[string]*uint32{"xdim": &e.XDim, "ydim": &e.YDim}); err != nil {
			return zygo.SexpNull, fmt.Errorf("ebm: %w", err)
		}
		if v, ok := pa.kw["height"]; ok {
			if e.Tallness, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("ebm: height: %w", err)
			}
		}
		return newSolid(e)
	})

	// -----------------------------------------------------------------------
	// (vol "ct.bin" :xdim 8 :ydim 8 :zdim 8 :lo 10 :hi 255 :cell (vec3 1 1 2))
	// -----------------------------------------------------------------------
	env.AddFunction("vol", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		file, err := dataFile(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vol: %w", err)
		}
		vl := edit.NewVol(file, 0, 0, 0, 0, edit.MaxThreshold)
		err = setUints(pa, map[string]*uint32{
			"xdim": &vl.XDim, "ydim": &vl.YDim, "zdim": &vl.ZDim,
			"lo": &vl.Lo, "hi": &vl.Hi,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vol: %w", err)
		}
		if v, ok := pa.kw["cell"]; ok {
			if vl.CellSize, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("vol: cell: %w", err)
			}
		}
		return newSolid(vl)
	})

	// -----------------------------------------------------------------------
	// (defsolid "ring" (tor ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a solid expression")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		s, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %w", err)
		}
		if s.name != "" {
			return zygo.SexpNull, fmt.Errorf("defsolid: solid already registered as %q", s.name)
		}
		if res.hasName(solidName) {
			return zygo.SexpNull, fmt.Errorf("defsolid: name %q already defined", solidName)
		}
		s.name = solidName
		res.Solids = append(res.Solids, NamedSolid{Name: solidName, Solid: s.solid})
		return s, nil
	})

	// -----------------------------------------------------------------------
	// (solid "ring")
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}
		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}
		s := res.Solid(solidName)
		if s == nil {
			return zygo.SexpNull, fmt.Errorf("solid: no solid named %q", solidName)
		}
		return &sexpSolid{solid: s, name: solidName}, nil
	})

	// -----------------------------------------------------------------------
	// (edit ring :mode :tor-r1 15)
	// (edit ring :mode :translate :xy (vec3 0.5 0.25 0) :units "cm")
	// (edit blob :mode :ebm-file-name :file "other.bin")
	// -----------------------------------------------------------------------
	env.AddFunction("edit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("edit requires a solid as first argument")
		}
		target, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edit: %w", err)
		}
		params, err := floats(pa.positional[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edit: params: %w", err)
		}
		if err := runEdit(target.solid, pa, params, res); err != nil {
			return zygo.SexpNull, fmt.Errorf("edit: %w", err)
		}
		return target, nil
	})
}

// newSolid checks s and wraps it for the interpreter.
func newSolid(s edit.Solid) (zygo.Sexp, error) {
	if err := s.Check(); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{solid: s}, nil
}

// dataFile returns the file name given as first positional argument.
func dataFile(pa kwArgs) (string, error) {
	if len(pa.positional) != 1 {
		return "", fmt.Errorf("requires a data file name")
	}
	return toString(pa.positional[0])
}

// setUints reads the integer keywords present in pa into their targets.
func setUints(pa kwArgs, dst map[string]*uint32) error {
	for kw, p := range dst {
		v, ok := pa.kw[kw]
		if !ok {
			continue
		}
		n, err := toUint32(v)
		if err != nil {
			return fmt.Errorf("%s: %w", kw, err)
		}
		*p = n
	}
	return nil
}

// buildFace feeds face items to a loop builder on a new model and finishes
// the face.
func buildFace(items []zygo.Sexp, opts builder.Options) (*builder.Result, error) {
	m := nmg.NewModel()
	reg, s := m.MakeRegionShell()
	b := builder.NewBuilder(m, s)
	res := &builder.Result{Model: m, Region: reg, Shell: s}

	for i, it := range items {
		var err error
		switch x := it.(type) {
		case *sexpVertex:
			if x.define {
				err = b.AddVertex(x.idx, x.p)
			} else {
				err = b.AddReuse(x.idx)
			}
		case *sexpLoopEnd:
			err = b.EndLoop(x.hole)
		case *sexpExtrusion:
			b.SetExtrusion(x.dir)
		default:
			err = fmt.Errorf("item %d: expected v, l or e, got %s", i, it.SexpString(nil))
		}
		if err != nil {
			return nil, err
		}
	}
	if err := b.Flush(); err != nil {
		return nil, err
	}
	res.FaceUse, res.Extrusion = b.FaceUse(), b.Extrusion()
	if res.FaceUse == 0 {
		return nil, builder.ErrNoLoops
	}
	if err := builder.Finish(res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// runEdit applies one edit to solid through a fresh session and accepts it.
// Session messages are appended to res.Log.
func runEdit(solid edit.Solid, pa kwArgs, params []float64, res *Result) error {
	v, ok := pa.kw["mode"]
	if !ok {
		return errors.New("missing :mode")
	}
	modeName, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	mode, err := edit.ParseMode(modeName)
	if err != nil {
		return err
	}

	var file string
	if v, ok := pa.kw["file"]; ok {
		if file, err = toString(v); err != nil {
			return fmt.Errorf("file: %w", err)
		}
	}
	sess, err := edit.NewSession(solid, edit.Callbacks{
		GetFilename: func() string { return file },
		Log:         func(msg string) { res.Log = append(res.Log, msg) },
	})
	if err != nil {
		return err
	}
	if v, ok := pa.kw["units"]; ok {
		u, err := toKeywordString(v)
		if err != nil {
			return fmt.Errorf("units: %w", err)
		}
		if err := sess.SetUnits(u); err != nil {
			return err
		}
	}

	if v, ok := pa.kw["select"]; ok {
		n, err := toUint32(v)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		mb, isMB := solid.(*edit.Metaball)
		if !isMB || int(n) >= len(mb.Points) {
			return fmt.Errorf("select: no control point %d", n)
		}
		sess.Selected = int(n)
	}

	// Immediate modes run inside SetEditMode; typed parameters must be in
	// place before it.
	sess.SetParams(params...)
	if err := sess.SetEditMode(mode); err != nil {
		return err
	}
	if v, ok := pa.kw["xy"]; ok {
		mouse, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("xy: %w", err)
		}
		if err := sess.EditXY(mouse); err != nil {
			return err
		}
	} else if sess.Params.Inpara > 0 {
		if err := sess.Edit(); err != nil {
			return err
		}
	}
	return sess.Accept()
}
