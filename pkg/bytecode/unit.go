package bytecode

// Unit represents one compiled executable unit: a function, closure,
// lambda, comprehension, or generator body, as an ordered instruction
// sequence plus metadata. Nested units appear as OpLoadConst payloads in
// the enclosing unit's code.
type Unit struct {
	Name     string   `cbor:"name"`               // unit name for diagnostics
	File     string   `cbor:"file,omitempty"`     // source file for diagnostics
	Params   []string `cbor:"params,omitempty"`   // parameter names, bound as locals on call
	Captured []string `cbor:"captured,omitempty"` // free names resolved through capture cells
	Code     []Instr  `cbor:"code"`               // instruction sequence

	line int // current source line during emission
}

// NewUnit creates a new empty unit with the given name.
func NewUnit(name string) *Unit {
	return &Unit{
		Name: name,
		Code: make([]Instr, 0, 16),
	}
}

// WithFile sets the source-file metadata and returns the unit.
func (u *Unit) WithFile(file string) *Unit {
	u.File = file
	return u
}

// WithParams sets the parameter names and returns the unit.
func (u *Unit) WithParams(names ...string) *Unit {
	u.Params = names
	return u
}

// WithCaptured sets the captured free-variable names and returns the unit.
func (u *Unit) WithCaptured(names ...string) *Unit {
	u.Captured = names
	return u
}

// Len returns the number of instructions in the unit's body.
func (u *Unit) Len() int {
	return len(u.Code)
}

// Append adds a fully formed instruction and returns its index.
func (u *Unit) Append(in Instr) int {
	idx := len(u.Code)
	u.Code = append(u.Code, in)
	return idx
}

// Emit appends an operand-less instruction at the current source line.
func (u *Unit) Emit(op Opcode) int {
	return u.Append(Instr{Op: op, Line: u.line})
}

// EmitName appends an instruction carrying a binding or attribute name.
func (u *Unit) EmitName(op Opcode, name string) int {
	return u.Append(Instr{Op: op, Name: name, Line: u.line})
}

// EmitConst appends an OpLoadConst pushing the given literal.
func (u *Unit) EmitConst(v Value) int {
	return u.Append(Instr{Op: OpLoadConst, Const: v, Line: u.line})
}

// EmitUnit appends an OpLoadConst whose literal payload is a nested unit.
func (u *Unit) EmitUnit(nested *Unit) int {
	return u.EmitConst(UnitValue(nested))
}

// EmitCall appends an OpCall with the given argument count.
func (u *Unit) EmitCall(argc int) int {
	return u.Append(Instr{Op: OpCall, Argc: argc, Line: u.line})
}

// EmitJump appends a jump to the named label.
func (u *Unit) EmitJump(op Opcode, label string) int {
	return u.Append(Instr{Op: op, Name: label, Line: u.line})
}

// EmitLabel appends a jump-target marker.
func (u *Unit) EmitLabel(name string) int {
	return u.Append(Instr{Op: OpLabel, Name: name, Line: u.line})
}

// EmitLine appends a line marker and makes the line current for
// subsequently emitted instructions.
func (u *Unit) EmitLine(line int) int {
	u.line = line
	return u.Append(Instr{Op: OpSetLine, Line: line})
}

// Labels returns a map from label name to instruction index.
func (u *Unit) Labels() map[string]int {
	labels := make(map[string]int)
	for i, in := range u.Code {
		if in.Op == OpLabel {
			labels[in.Name] = i
		}
	}
	return labels
}

// NestedUnits returns the nested units embedded as literal constants in
// this unit's body, in instruction order. It does not recurse.
func (u *Unit) NestedUnits() []*Unit {
	var nested []*Unit
	for _, in := range u.Code {
		if in.Op == OpLoadConst && in.Const.Type == TypeUnit {
			nested = append(nested, in.Const.UnitVal)
		}
	}
	return nested
}
