// Package plusplus turns doubled unary sign markers in bytecode units
// into real in-place increments and decrements.
//
// A unit compiled from source containing ++x or --x arrives with the
// marker encoded as two stacked unary sign operations. Enable rewrites
// such units so the marker mutates the variable, attribute or element
// in place and leaves the updated value on the stack.
package plusplus

import (
	"fmt"

	"github.com/borzunov/plusplus/manifest"
	"github.com/borzunov/plusplus/pkg/bytecode"
	"github.com/borzunov/plusplus/pkg/loader"
	"github.com/borzunov/plusplus/pkg/rewrite"
)

// Enable activates the increment rewrite for a target. The target may be:
//
//   - a string: a dotted namespace prefix, registered with the process
//     loader so every unit loaded under it gets rewritten;
//   - a *bytecode.Unit: rewritten immediately, the rewritten unit is
//     returned;
//   - a *bytecode.Closure: its unit is rewritten, a new closure sharing
//     the original capture cells is returned.
//
// Anything else is rejected.
func Enable(target any, opts ...rewrite.Option) (any, error) {
	switch t := target.(type) {
	case string:
		if !manifest.ValidNamespace(t) {
			return nil, fmt.Errorf("invalid namespace %q", t)
		}
		loader.Register(t)
		return t, nil
	case *bytecode.Unit:
		return rewrite.Rewrite(t, opts...)
	case *bytecode.Closure:
		u, err := rewrite.Rewrite(t.Unit, opts...)
		if err != nil {
			return nil, err
		}
		return &bytecode.Closure{Unit: u, Cells: t.Cells}, nil
	default:
		return nil, fmt.Errorf(
			"cannot enable increments for %T: wrap the definition inside a unit, or enable the whole namespace instead", target)
	}
}

// MustEnable is Enable, panicking on error. It is meant for init-time
// activation where a bad target is a programming mistake.
func MustEnable(target any, opts ...rewrite.Option) any {
	v, err := Enable(target, opts...)
	if err != nil {
		panic(err)
	}
	return v
}
