package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack shaping (0x00-0x0F)
	// ========================================================================

	OpNop  Opcode = 0x00 // No operation
	OpPop  Opcode = 0x01 // Pop top of stack
	OpDup  Opcode = 0x02 // Duplicate top of stack
	OpDup2 Opcode = 0x03 // Duplicate top two: a b -> a b a b
	OpSwap Opcode = 0x04 // Swap top two stack elements
	OpRot3 Opcode = 0x05 // Sink top below the next two: a b c -> c a b

	// ========================================================================
	// Constants and markers (0x10-0x1F)
	// ========================================================================

	OpLoadConst Opcode = 0x10 // Push literal payload (may be a nested unit)
	OpSetLine   Opcode = 0x11 // Source-line marker, no stack effect
	OpLabel     Opcode = 0x12 // Jump target marker, no stack effect

	// ========================================================================
	// Name access (0x20-0x2F)
	// ========================================================================

	OpLoadLocal   Opcode = 0x20 // Push local binding by name
	OpStoreLocal  Opcode = 0x21 // Pop and store to local binding
	OpLoadGlobal  Opcode = 0x22 // Push module-level binding by name
	OpStoreGlobal Opcode = 0x23 // Pop and store to module-level binding
	OpLoadFree    Opcode = 0x24 // Push enclosing-scope binding through its cell
	OpStoreFree   Opcode = 0x25 // Pop and store through an enclosing-scope cell

	// ========================================================================
	// Compound access (0x40-0x4F)
	// ========================================================================

	OpLoadAttr   Opcode = 0x40 // obj -> obj.name
	OpStoreAttr  Opcode = 0x41 // value obj -> (empty); obj.name = value
	OpLoadIndex  Opcode = 0x42 // container index -> container[index]
	OpStoreIndex Opcode = 0x43 // value container index -> (empty); container[index] = value

	// ========================================================================
	// Pair shaping (0x48-0x4F)
	// ========================================================================

	OpBuildPair  Opcode = 0x48 // a b -> (a, b)
	OpUnpackPair Opcode = 0x49 // (a, b) -> b a (first component ends on top)

	// ========================================================================
	// Unary and in-place arithmetic (0x50-0x5F)
	// ========================================================================

	OpUnaryPos   Opcode = 0x50 // Unary plus
	OpUnaryNeg   Opcode = 0x51 // Unary minus
	OpInplaceAdd Opcode = 0x52 // Pop two, push sum (in-place variant)
	OpInplaceSub Opcode = 0x53 // Pop two, push difference (in-place variant)

	// ========================================================================
	// Binary arithmetic (0x60-0x6F)
	// ========================================================================

	OpAdd Opcode = 0x60 // Pop two, push sum
	OpSub Opcode = 0x61 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x62 // Pop two, push product
	OpDiv Opcode = 0x63 // Pop two, push quotient
	OpMod Opcode = 0x64 // Pop two, push remainder

	// ========================================================================
	// Comparison (0x70-0x7F)
	// ========================================================================

	OpEq Opcode = 0x70 // Pop two, push true if equal
	OpNe Opcode = 0x71 // Pop two, push true if not equal
	OpLt Opcode = 0x72 // Pop two, push true if a < b
	OpLe Opcode = 0x73 // Pop two, push true if a <= b
	OpGt Opcode = 0x74 // Pop two, push true if a > b
	OpGe Opcode = 0x75 // Pop two, push true if a >= b

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump      Opcode = 0x80 // Unconditional jump to the named label
	OpJumpFalse Opcode = 0x81 // Pop, jump to the named label if falsy

	// ========================================================================
	// Closures and calls (0x90-0x9F)
	// ========================================================================

	OpMakeClosure Opcode = 0x90 // Pop a unit literal, push a closure over it
	OpCall        Opcode = 0x91 // closure a1..aN -> result (argc operand)

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Return top of stack
)

// OpcodeInfo provides metadata about each opcode for validation and
// stack-effect accounting.
type OpcodeInfo struct {
	Name      string // Human-readable name
	StackPop  int    // How many values popped from stack (-1 = variable)
	StackPush int    // How many values pushed to stack
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack shaping
	OpNop:  {"NOP", 0, 0},
	OpPop:  {"POP", 1, 0},
	OpDup:  {"DUP", 1, 2},
	OpDup2: {"DUP2", 2, 4},
	OpSwap: {"SWAP", 2, 2},
	OpRot3: {"ROT3", 3, 3},

	// Constants and markers
	OpLoadConst: {"LOAD_CONST", 0, 1},
	OpSetLine:   {"SET_LINE", 0, 0},
	OpLabel:     {"LABEL", 0, 0},

	// Name access
	OpLoadLocal:   {"LOAD_LOCAL", 0, 1},
	OpStoreLocal:  {"STORE_LOCAL", 1, 0},
	OpLoadGlobal:  {"LOAD_GLOBAL", 0, 1},
	OpStoreGlobal: {"STORE_GLOBAL", 1, 0},
	OpLoadFree:    {"LOAD_FREE", 0, 1},
	OpStoreFree:   {"STORE_FREE", 1, 0},

	// Compound access
	OpLoadAttr:   {"LOAD_ATTR", 1, 1},
	OpStoreAttr:  {"STORE_ATTR", 2, 0},
	OpLoadIndex:  {"LOAD_INDEX", 2, 1},
	OpStoreIndex: {"STORE_INDEX", 3, 0},

	// Pair shaping
	OpBuildPair:  {"BUILD_PAIR", 2, 1},
	OpUnpackPair: {"UNPACK_PAIR", 1, 2},

	// Unary and in-place
	OpUnaryPos:   {"UNARY_POS", 1, 1},
	OpUnaryNeg:   {"UNARY_NEG", 1, 1},
	OpInplaceAdd: {"INPLACE_ADD", 2, 1},
	OpInplaceSub: {"INPLACE_SUB", 2, 1},

	// Binary arithmetic
	OpAdd: {"ADD", 2, 1},
	OpSub: {"SUB", 2, 1},
	OpMul: {"MUL", 2, 1},
	OpDiv: {"DIV", 2, 1},
	OpMod: {"MOD", 2, 1},

	// Comparison
	OpEq: {"EQ", 2, 1},
	OpNe: {"NE", 2, 1},
	OpLt: {"LT", 2, 1},
	OpLe: {"LE", 2, 1},
	OpGt: {"GT", 2, 1},
	OpGe: {"GE", 2, 1},

	// Control flow
	OpJump:      {"JUMP", 0, 0},
	OpJumpFalse: {"JUMP_FALSE", 1, 0},

	// Closures and calls
	OpMakeClosure: {"MAKE_CLOSURE", 1, 1},
	OpCall:        {"CALL", -1, 1}, // Pops closure + argc args

	// Return
	OpReturn: {"RETURN", 1, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// IsPseudo returns true for marker opcodes that carry metadata but do not
// execute (line markers and jump labels).
func (op Opcode) IsPseudo() bool {
	return op == OpSetLine || op == OpLabel
}

// IsLoad returns true if this opcode pushes a named or compound binding.
func (op Opcode) IsLoad() bool {
	switch op {
	case OpLoadLocal, OpLoadGlobal, OpLoadFree, OpLoadAttr, OpLoadIndex:
		return true
	}
	return false
}

// IsStore returns true if this opcode writes a named or compound binding.
func (op Opcode) IsStore() bool {
	switch op {
	case OpStoreLocal, OpStoreGlobal, OpStoreFree, OpStoreAttr, OpStoreIndex:
		return true
	}
	return false
}

// IsUnarySign returns true for the unary sign opcodes the front end doubles
// to encode increment/decrement.
func (op Opcode) IsUnarySign() bool {
	return op == OpUnaryPos || op == OpUnaryNeg
}

// IsJump returns true if this opcode transfers control to a label.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpFalse
}

// HasName returns true if this opcode carries a name operand (binding,
// attribute, or label name).
func (op Opcode) HasName() bool {
	switch op {
	case OpLoadLocal, OpStoreLocal, OpLoadGlobal, OpStoreGlobal,
		OpLoadFree, OpStoreFree, OpLoadAttr, OpStoreAttr,
		OpJump, OpJumpFalse, OpLabel:
		return true
	}
	return false
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
