package bytecode

import (
	"fmt"
	"strings"
)

// Instr is one decoded VM instruction: an opcode, an optional operand
// (binding/attribute/label name, literal constant, or call argument count),
// and source-line metadata. Instructions are values: they are read and
// replaced wholesale, never mutated in place.
type Instr struct {
	Op    Opcode `cbor:"op"`
	Name  string `cbor:"name,omitempty"`  // binding, attribute, or label name
	Const Value  `cbor:"const,omitempty"` // literal payload for OpLoadConst
	Argc  int    `cbor:"argc,omitempty"`  // argument count for OpCall
	Line  int    `cbor:"line,omitempty"`  // 1-based source line, 0 if unknown
}

// StackEffect returns how many values the instruction pops and pushes.
// Resolves the variable effect of OpCall from the instruction's Argc.
func (in Instr) StackEffect() (pops, pushes int) {
	info := GetOpcodeInfo(in.Op)
	if in.Op == OpCall {
		return in.Argc + 1, info.StackPush
	}
	return info.StackPop, info.StackPush
}

// String returns the instruction in disassembly form, without offsets.
func (in Instr) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	if in.Op.HasName() {
		sb.WriteString(" ")
		sb.WriteString(in.Name)
	}
	switch in.Op {
	case OpLoadConst:
		sb.WriteString(" ")
		sb.WriteString(in.Const.String())
	case OpCall:
		fmt.Fprintf(&sb, " argc=%d", in.Argc)
	case OpSetLine:
		fmt.Fprintf(&sb, " %d", in.Line)
	}
	return sb.String()
}
