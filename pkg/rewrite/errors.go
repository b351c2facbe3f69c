package rewrite

import "fmt"

// Error is a structural-rewrite failure: a doubled unary-sign marker was
// found attached to a load whose addressing form is not supported. It is
// never recovered internally; it aborts the enclosing activation or load.
type Error struct {
	File string // source file of the enclosing unit, may be empty
	Line int    // offending source line, 0 if unknown
	Unit string // enclosing unit name
	Msg  string
}

func (e *Error) Error() string {
	file := e.File
	if file == "" {
		file = "<unknown>"
	}
	return fmt.Sprintf("file %q, line %d, in %s: %s", file, e.Line, e.Unit, e.Msg)
}
