// Package rewrite implements the increment/decrement rewriting pass.
//
// The host instruction set has no compound mutate-and-read operator. The
// front end instead leaves a syntactic marker in compiled units: applying
// the same unary sign twice to one loaded value (two UNARY_POS for "++",
// two UNARY_NEG for "--"). This package finds those markers in a single
// forward scan and replaces each with a sequence that adds or subtracts 1
// in place, duplicates the result, and stores it back through the correct
// addressing form, leaving exactly one residual value on the stack as the
// expression result.
//
// Four addressing forms are supported: local bindings, global/free
// bindings, attributes, and subscripts. Attribute and subscript targets
// need stack shaping so the object (or container and index) used for the
// store is the very value already evaluated for the load, since container
// and index expressions may have side effects and must execute exactly
// once.
// Anything else under a marker is a structural error (*Error), which
// aborts the enclosing activation or load.
//
// The scan also recurses into nested units embedded as literal constants
// (closures, lambdas, comprehension and generator bodies), so enabling an
// outer unit covers everything defined inside it. An optional pre-filter
// elides the store/load pairs that assertion-introspection tools insert
// between consecutive operations; see WithCapturePrefix and
// WithoutCaptureFilter.
//
// The pass is a pure function: it allocates a fresh unit and never touches
// its input, so concurrent rewriting of independent units needs no
// coordination.
package rewrite
