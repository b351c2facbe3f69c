package rewrite

import (
	"github.com/borzunov/plusplus/pkg/bytecode"
)

// lookahead bounds the match window: load + two sign operations + up to
// two elided store/load artifact pairs.
const lookahead = 7

// Patch is the result of matching a candidate window: how many input
// instructions it consumes and the ordered replacement to emit. Patches
// never overlap; the scan is a single left-to-right pass.
type Patch struct {
	NRemoved int
	Added    []bytecode.Instr
}

type options struct {
	capturePrefix string
}

// Option configures a rewrite pass.
type Option func(*options)

// WithCapturePrefix sets the synthetic temporary-name prefix recognized by
// the instrumentation-artifact pre-filter.
func WithCapturePrefix(prefix string) Option {
	return func(o *options) { o.capturePrefix = prefix }
}

// WithoutCaptureFilter disables the instrumentation-artifact pre-filter
// entirely.
func WithoutCaptureFilter() Option {
	return func(o *options) { o.capturePrefix = "" }
}

// Rewrite returns a new unit in which every doubled unary-sign marker has
// been replaced by an equivalent in-place increment or decrement, leaving
// the post-mutation value on the stack as the expression result. Nested
// units embedded as literal constants are rewritten recursively.
//
// Instructions that are not part of a recognized marker (or an elided
// instrumentation artifact) are copied unchanged, so a unit containing no
// markers comes back behaviorally identical. A marker attached to a load
// that is not one of the four supported addressing forms fails with a
// *Error; the input is never partially consumed.
func Rewrite(u *bytecode.Unit, opts ...Option) (*bytecode.Unit, error) {
	o := &options{capturePrefix: DefaultCapturePrefix}
	for _, opt := range opts {
		opt(o)
	}
	return rewriteUnit(u, o)
}

func rewriteUnit(u *bytecode.Unit, o *options) (*bytecode.Unit, error) {
	out := make([]bytecode.Instr, 0, len(u.Code))

	for index := 0; index < len(u.Code); {
		end := index + lookahead
		if end > len(u.Code) {
			end = len(u.Code)
		}

		patch, err := matchIncrement(u, u.Code[index:end], o)
		if err != nil {
			return nil, err
		}
		if patch == nil {
			patch, err = matchNestedUnit(u.Code[index], o)
			if err != nil {
				return nil, err
			}
		}
		if patch == nil {
			patch = &Patch{NRemoved: 1, Added: []bytecode.Instr{u.Code[index]}}
		}

		index += patch.NRemoved
		out = append(out, patch.Added...)
	}

	rewritten := &bytecode.Unit{
		Name:     u.Name,
		File:     u.File,
		Params:   u.Params,
		Captured: u.Captured,
		Code:     out,
	}
	return rewritten, nil
}

// matchIncrement recognizes the increment/decrement marker at the start of
// the window: a value-load followed by the same unary-sign operation
// twice, possibly interleaved with instrumentation store/load pairs.
func matchIncrement(u *bytecode.Unit, window []bytecode.Instr, o *options) (*Patch, error) {
	region := append([]bytecode.Instr(nil), window...)
	nRemoved := 3

	// Elide capturing of the load result
	if isIntermediateCapture(region, 1, o.capturePrefix) {
		region = elideCapture(region, 1)
		nRemoved += 2
	}
	// Elide capturing of the first unary-sign result
	if isIntermediateCapture(region, 2, o.capturePrefix) {
		region = elideCapture(region, 2)
		nRemoved += 2
	}

	if len(region) < 3 ||
		region[0].Op.IsPseudo() ||
		!region[1].Op.IsUnarySign() ||
		region[1].Op != region[2].Op {
		return nil, nil
	}
	load, sign := region[0], region[1]

	form, ok := formOf(load.Op)
	if !ok {
		return nil, &Error{
			File: u.File,
			Line: load.Line,
			Unit: u.Name,
			Msg:  "increment/decrement may be applied only to a variable, a subscriptable item, or an attribute",
		}
	}

	inplace := bytecode.OpInplaceAdd
	if sign.Op == bytecode.OpUnaryNeg {
		inplace = bytecode.OpInplaceSub
	}

	added := []bytecode.Instr{{Op: bytecode.OpSetLine, Line: load.Line}}
	added = append(added, form.preLoadShape()...)
	added = append(added,
		load, // reused, keeping operand metadata intact
		bytecode.Instr{Op: bytecode.OpLoadConst, Const: bytecode.IntValue(1), Line: load.Line},
		bytecode.Instr{Op: inplace, Line: load.Line},
		bytecode.Instr{Op: bytecode.OpDup, Line: load.Line}, // one to store, one to return
	)
	added = append(added, form.preStoreShape()...)
	added = append(added, bytecode.Instr{
		Op:   form.storeOp(load.Op),
		Name: load.Name,
		Line: load.Line,
	})

	return &Patch{NRemoved: nRemoved, Added: added}, nil
}

// matchNestedUnit recognizes a load of a literal that is itself an
// executable unit and rewrites that unit recursively, re-embedding the
// result as the literal payload of the replacement instruction.
func matchNestedUnit(in bytecode.Instr, o *options) (*Patch, error) {
	if in.Op != bytecode.OpLoadConst || in.Const.Type != bytecode.TypeUnit {
		return nil, nil
	}

	nested, err := rewriteUnit(in.Const.UnitVal, o)
	if err != nil {
		return nil, err
	}

	repl := in
	repl.Const = bytecode.UnitValue(nested)
	return &Patch{NRemoved: 1, Added: []bytecode.Instr{repl}}, nil
}
