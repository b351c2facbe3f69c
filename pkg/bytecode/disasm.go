package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the unit's instruction
// sequence. Nested units embedded as literal constants are listed after the
// enclosing unit, indented one level per nesting depth.
func (u *Unit) Disassemble() string {
	var sb strings.Builder
	u.disassemble(&sb, 0)
	return sb.String()
}

func (u *Unit) disassemble(sb *strings.Builder, depth int) {
	indent := strings.Repeat("    ", depth)

	fmt.Fprintf(sb, "%s; === %s ===\n", indent, u.Name)
	if u.File != "" {
		fmt.Fprintf(sb, "%s; File: %s\n", indent, u.File)
	}
	if len(u.Params) > 0 {
		fmt.Fprintf(sb, "%s; Parameters (%d): %s\n", indent, len(u.Params), strings.Join(u.Params, ", "))
	}
	if len(u.Captured) > 0 {
		fmt.Fprintf(sb, "%s; Captured: %s\n", indent, strings.Join(u.Captured, ", "))
	}

	line := 0
	for i, in := range u.Code {
		if in.Op == OpSetLine {
			line = in.Line
		}
		if in.Line > 0 && in.Line != line && in.Op != OpSetLine {
			fmt.Fprintf(sb, "%s%04d  %-32s ; line %d\n", indent, i, in.String(), in.Line)
			continue
		}
		fmt.Fprintf(sb, "%s%04d  %s\n", indent, i, in.String())
	}

	for _, nested := range u.NestedUnits() {
		sb.WriteString("\n")
		nested.disassemble(sb, depth+1)
	}
}

// DisassembleToLines returns the top-level listing as a slice of lines,
// without nested units.
func (u *Unit) DisassembleToLines() []string {
	lines := make([]string, 0, len(u.Code))
	for i, in := range u.Code {
		lines = append(lines, fmt.Sprintf("%04d  %s", i, in.String()))
	}
	return lines
}
