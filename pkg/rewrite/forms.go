package rewrite

import "github.com/borzunov/plusplus/pkg/bytecode"

// addressingForm is the closed set of syntactic targets an increment or
// decrement can apply to. Each variant knows how to shape the stack around
// the reused load instruction and which store opcode writes the result
// back.
type addressingForm int

const (
	formLocal addressingForm = iota
	formGlobalOrFree
	formAttribute
	formSubscript
)

// formOf classifies a load opcode into an addressing form. The second
// result is false for anything that is not one of the four supported
// forms.
func formOf(op bytecode.Opcode) (addressingForm, bool) {
	switch op {
	case bytecode.OpLoadLocal:
		return formLocal, true
	case bytecode.OpLoadGlobal, bytecode.OpLoadFree:
		return formGlobalOrFree, true
	case bytecode.OpLoadAttr:
		return formAttribute, true
	case bytecode.OpLoadIndex:
		return formSubscript, true
	}
	return 0, false
}

// preLoadShape returns the instructions emitted before the reused load so
// that the store inputs survive on the stack. Container and index
// expressions may have side effects, so they are duplicated rather than
// re-evaluated.
func (f addressingForm) preLoadShape() []bytecode.Instr {
	switch f {
	case formAttribute:
		// Stack: [..., obj] -> [..., obj, obj]
		return []bytecode.Instr{
			{Op: bytecode.OpDup},
		}
	case formSubscript:
		// Stack: [..., cont, idx] -> [..., (cont, idx), cont, idx]
		return []bytecode.Instr{
			{Op: bytecode.OpDup2},
			{Op: bytecode.OpBuildPair},
			{Op: bytecode.OpRot3},
		}
	}
	return nil
}

// storeOp returns the store opcode matching the given load opcode.
func (f addressingForm) storeOp(loadOp bytecode.Opcode) bytecode.Opcode {
	switch loadOp {
	case bytecode.OpLoadLocal:
		return bytecode.OpStoreLocal
	case bytecode.OpLoadGlobal:
		return bytecode.OpStoreGlobal
	case bytecode.OpLoadFree:
		return bytecode.OpStoreFree
	case bytecode.OpLoadAttr:
		return bytecode.OpStoreAttr
	case bytecode.OpLoadIndex:
		return bytecode.OpStoreIndex
	}
	return bytecode.OpNop
}

// preStoreShape returns the instructions that permute the stack so the
// duplicated result ends up directly beneath the store opcode's inputs.
func (f addressingForm) preStoreShape() []bytecode.Instr {
	switch f {
	case formAttribute:
		// Stack: [..., obj, value, value] -> [..., value, value, obj]
		return []bytecode.Instr{
			{Op: bytecode.OpRot3},
			{Op: bytecode.OpRot3},
		}
	case formSubscript:
		// Stack: [..., (cont, idx), value, value] -> [..., value, value, cont, idx]
		return []bytecode.Instr{
			{Op: bytecode.OpRot3},
			{Op: bytecode.OpRot3},
			{Op: bytecode.OpUnpackPair},
			{Op: bytecode.OpSwap},
		}
	}
	return nil
}
