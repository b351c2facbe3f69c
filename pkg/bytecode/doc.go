// Package bytecode defines the stack-machine instruction set that the
// plusplus rewriter operates on, along with the runtime pieces needed to
// work with it end to end.
//
// Unlike a packed byte encoding, instructions here stay decoded: an Instr
// is an opcode plus its operand (a binding/attribute/label name, a literal
// Value, or a call argument count) and source-line metadata. The rewriter
// matches patterns over sliding windows of whole instructions and splices
// replacement sequences in, which a decoded stream makes cheap and safe:
// jump targets are symbolic labels, so inserted instructions never shift
// an encoded offset.
//
// The main types:
//
//   - Opcode: the instruction set, organized in hex ranges by category,
//     with an OpcodeInfo table carrying name and stack effect. Stack
//     effects drive the rewriter's structural-correctness checks.
//
//   - Unit: one executable unit (function, closure, lambda, comprehension
//     or generator body) as an ordered []Instr plus metadata. A constant
//     operand can itself be a *Unit, which is how closures and lambdas are
//     embedded in their enclosing unit.
//
//   - Value: the runtime value taxonomy (ints, strings, bools, mutable
//     arrays/maps/objects, pairs, units, closures). Capture cells give
//     closures reference semantics: a store through a cell is visible in
//     the enclosing frame.
//
//   - VM: a straightforward interpreter for the instruction set, used by
//     the rewrite tests to check that transformed units behave correctly
//     and by the ppc CLI's -run mode.
//
// Units serialize to CBOR (canonical mode) via MarshalUnit/UnmarshalUnit,
// nested units included, so they can be stored in a unit store or passed
// between processes.
package bytecode
