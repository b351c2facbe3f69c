package bytecode

import (
	"fmt"
)

// MaxCallDepth bounds nested closure calls.
const MaxCallDepth = 128

// VM executes units. Module-level bindings live in Globals and persist
// across Exec calls, so several units can share one namespace.
type VM struct {
	Globals map[string]Value

	depth int
}

// frame holds the mutable state of one unit activation. Locals are stored
// in cells so closures created in this frame share them by reference.
type frame struct {
	unit   *Unit
	locals map[string]*Cell
	cells  map[string]*Cell // captured cells from the enclosing scope
	labels map[string]int
	stack  []Value
	line   int
}

// NewVM creates a new VM with an empty global namespace.
func NewVM() *VM {
	return &VM{Globals: make(map[string]Value)}
}

// Exec runs a unit with the given arguments bound to its parameters and
// returns the result value.
func (vm *VM) Exec(u *Unit, args ...Value) (Value, error) {
	return vm.exec(u, args, nil)
}

// ExecClosure runs a closure, wiring its captured cells into the frame.
func (vm *VM) ExecClosure(c *Closure, args ...Value) (Value, error) {
	return vm.exec(c.Unit, args, c.Cells)
}

func (vm *VM) exec(u *Unit, args []Value, cells map[string]*Cell) (Value, error) {
	if vm.depth >= MaxCallDepth {
		return NilValue(), fmt.Errorf("call depth limit (%d) exceeded in %s", MaxCallDepth, u.Name)
	}
	if len(args) != len(u.Params) {
		return NilValue(), fmt.Errorf("%s takes %d arguments, got %d", u.Name, len(u.Params), len(args))
	}

	f := &frame{
		unit:   u,
		locals: make(map[string]*Cell),
		cells:  cells,
		labels: u.Labels(),
		stack:  make([]Value, 0, 16),
	}
	for i, name := range u.Params {
		f.locals[name] = &Cell{Value: args[i]}
	}

	vm.depth++
	defer func() { vm.depth-- }()

	for ip := 0; ip < len(u.Code); ip++ {
		in := u.Code[ip]

		switch in.Op {
		case OpNop:
			// Do nothing

		case OpSetLine:
			f.line = in.Line

		case OpLabel:
			// Jump target marker only

		case OpPop:
			if _, err := f.pop(); err != nil {
				return NilValue(), f.fail(err)
			}

		case OpDup:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(v)
			f.push(v)

		case OpDup2:
			b, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(a)
			f.push(b)
			f.push(a)
			f.push(b)

		case OpSwap:
			b, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(b)
			f.push(a)

		case OpRot3:
			c, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			b, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(c)
			f.push(a)
			f.push(b)

		case OpLoadConst:
			f.push(in.Const)

		case OpLoadLocal:
			cell, ok := f.locals[in.Name]
			if !ok {
				return NilValue(), f.fail(fmt.Errorf("local %q is not defined", in.Name))
			}
			f.push(cell.Get())

		case OpStoreLocal:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			cell, ok := f.locals[in.Name]
			if !ok {
				cell = &Cell{}
				f.locals[in.Name] = cell
			}
			cell.Set(v)

		case OpLoadGlobal:
			v, ok := vm.Globals[in.Name]
			if !ok {
				return NilValue(), f.fail(fmt.Errorf("global %q is not defined", in.Name))
			}
			f.push(v)

		case OpStoreGlobal:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			vm.Globals[in.Name] = v

		case OpLoadFree:
			cell, ok := f.cells[in.Name]
			if !ok {
				return NilValue(), f.fail(fmt.Errorf("free variable %q is not captured", in.Name))
			}
			f.push(cell.Get())

		case OpStoreFree:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			cell, ok := f.cells[in.Name]
			if !ok {
				return NilValue(), f.fail(fmt.Errorf("free variable %q is not captured", in.Name))
			}
			cell.Set(v)

		case OpLoadAttr:
			obj, err := f.popObject()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			v, ok := obj.Attrs[in.Name]
			if !ok {
				return NilValue(), f.fail(fmt.Errorf("object has no attribute %q", in.Name))
			}
			f.push(v)

		case OpStoreAttr:
			obj, err := f.popObject()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			obj.Attrs[in.Name] = v

		case OpLoadIndex:
			idx, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			cont, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			v, err := loadIndex(cont, idx)
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(v)

		case OpStoreIndex:
			idx, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			cont, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if err := storeIndex(cont, idx, v); err != nil {
				return NilValue(), f.fail(err)
			}

		case OpBuildPair:
			b, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(PairValue(a, b))

		case OpUnpackPair:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if v.Type != TypePair {
				return NilValue(), f.fail(fmt.Errorf("cannot unpack %s as a pair", v.Type))
			}
			f.push(v.PairVal.Second)
			f.push(v.PairVal.First)

		case OpUnaryPos:
			n, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(IntValue(n))

		case OpUnaryNeg:
			n, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(IntValue(-n))

		case OpInplaceAdd, OpAdd:
			b, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(IntValue(a + b))

		case OpInplaceSub, OpSub:
			b, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(IntValue(a - b))

		case OpMul:
			b, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(IntValue(a * b))

		case OpDiv:
			b, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if b == 0 {
				return NilValue(), f.fail(fmt.Errorf("division by zero"))
			}
			f.push(IntValue(a / b))

		case OpMod:
			b, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if b == 0 {
				return NilValue(), f.fail(fmt.Errorf("division by zero"))
			}
			f.push(IntValue(a % b))

		case OpEq, OpNe:
			b, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			eq := a.Equals(b)
			if in.Op == OpNe {
				eq = !eq
			}
			f.push(BoolValue(eq))

		case OpLt, OpLe, OpGt, OpGe:
			b, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			a, err := f.popInt()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			var result bool
			switch in.Op {
			case OpLt:
				result = a < b
			case OpLe:
				result = a <= b
			case OpGt:
				result = a > b
			case OpGe:
				result = a >= b
			}
			f.push(BoolValue(result))

		case OpJump:
			target, ok := f.labels[in.Name]
			if !ok {
				return NilValue(), f.fail(fmt.Errorf("unknown label %q", in.Name))
			}
			ip = target

		case OpJumpFalse:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if !v.IsTruthy() {
				target, ok := f.labels[in.Name]
				if !ok {
					return NilValue(), f.fail(fmt.Errorf("unknown label %q", in.Name))
				}
				ip = target
			}

		case OpMakeClosure:
			v, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if v.Type != TypeUnit {
				return NilValue(), f.fail(fmt.Errorf("cannot make a closure over %s", v.Type))
			}
			closure, err := f.makeClosure(v.UnitVal)
			if err != nil {
				return NilValue(), f.fail(err)
			}
			f.push(ClosureValue(closure))

		case OpCall:
			args := make([]Value, in.Argc)
			for i := in.Argc - 1; i >= 0; i-- {
				v, err := f.pop()
				if err != nil {
					return NilValue(), f.fail(err)
				}
				args[i] = v
			}
			callee, err := f.pop()
			if err != nil {
				return NilValue(), f.fail(err)
			}
			if callee.Type != TypeClosure {
				return NilValue(), f.fail(fmt.Errorf("cannot call %s", callee.Type))
			}
			result, err := vm.ExecClosure(callee.ClosureVal, args...)
			if err != nil {
				return NilValue(), err
			}
			f.push(result)

		case OpReturn:
			return f.pop()

		default:
			return NilValue(), f.fail(fmt.Errorf("unknown opcode 0x%02X", byte(in.Op)))
		}
	}

	// Implicit return of stack top or nil
	if len(f.stack) > 0 {
		return f.stack[len(f.stack)-1], nil
	}
	return NilValue(), nil
}

// makeClosure collects capture cells for a nested unit's free names.
// Locals referenced by the nested unit are promoted to cells in this frame
// so mutation is visible in both directions.
func (f *frame) makeClosure(u *Unit) (*Closure, error) {
	cells := make(map[string]*Cell, len(u.Captured))
	for _, name := range u.Captured {
		if cell, ok := f.locals[name]; ok {
			cells[name] = cell
			continue
		}
		if cell, ok := f.cells[name]; ok {
			cells[name] = cell
			continue
		}
		// Forward reference: create the cell now, shared with the frame.
		cell := &Cell{}
		f.locals[name] = cell
		cells[name] = cell
	}
	return &Closure{Unit: u, Cells: cells}, nil
}

// Stack helpers

func (f *frame) push(v Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (Value, error) {
	if len(f.stack) == 0 {
		return NilValue(), fmt.Errorf("stack underflow")
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) popInt() (int64, error) {
	v, err := f.pop()
	if err != nil {
		return 0, err
	}
	if v.Type != TypeInt {
		return 0, fmt.Errorf("expected int, got %s", v.Type)
	}
	return v.IntVal, nil
}

func (f *frame) popObject() (*Object, error) {
	v, err := f.pop()
	if err != nil {
		return nil, err
	}
	if v.Type != TypeObject {
		return nil, fmt.Errorf("expected object, got %s", v.Type)
	}
	return v.ObjectVal, nil
}

func (f *frame) fail(err error) error {
	if f.line > 0 {
		return fmt.Errorf("%s, line %d: %w", f.unit.Name, f.line, err)
	}
	return fmt.Errorf("%s: %w", f.unit.Name, err)
}

// Indexing helpers

func loadIndex(cont, idx Value) (Value, error) {
	switch cont.Type {
	case TypeArray:
		if idx.Type != TypeInt {
			return NilValue(), fmt.Errorf("array index must be int, got %s", idx.Type)
		}
		elems := cont.ArrayVal.Elems
		i := idx.IntVal
		if i < 0 || i >= int64(len(elems)) {
			return NilValue(), fmt.Errorf("array index %d out of range [0, %d)", i, len(elems))
		}
		return elems[i], nil
	case TypeMap:
		if idx.Type != TypeString {
			return NilValue(), fmt.Errorf("map key must be string, got %s", idx.Type)
		}
		v, ok := cont.MapVal.Entries[idx.StrVal]
		if !ok {
			return NilValue(), fmt.Errorf("map has no key %q", idx.StrVal)
		}
		return v, nil
	default:
		return NilValue(), fmt.Errorf("%s is not subscriptable", cont.Type)
	}
}

func storeIndex(cont, idx, v Value) error {
	switch cont.Type {
	case TypeArray:
		if idx.Type != TypeInt {
			return fmt.Errorf("array index must be int, got %s", idx.Type)
		}
		elems := cont.ArrayVal.Elems
		i := idx.IntVal
		if i < 0 || i >= int64(len(elems)) {
			return fmt.Errorf("array index %d out of range [0, %d)", i, len(elems))
		}
		elems[i] = v
		return nil
	case TypeMap:
		if idx.Type != TypeString {
			return fmt.Errorf("map key must be string, got %s", idx.Type)
		}
		cont.MapVal.Entries[idx.StrVal] = v
		return nil
	default:
		return fmt.Errorf("%s does not support item assignment", cont.Type)
	}
}
