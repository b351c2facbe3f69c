package rewrite

import (
	"strings"

	"github.com/borzunov/plusplus/pkg/bytecode"
)

// DefaultCapturePrefix is the synthetic temporary-naming convention used
// by assertion-introspection instrumentation. Such tools split consecutive
// operations with a store/load pair to capture each intermediate result,
// which would otherwise break the doubled-sign structural check.
const DefaultCapturePrefix = "@assert"

// isIntermediateCapture reports whether the two instructions at position
// `at` in the region are an instrumentation artifact: a store immediately
// reloaded under the same synthetic temporary name.
func isIntermediateCapture(region []bytecode.Instr, at int, prefix string) bool {
	if prefix == "" || at+1 >= len(region) {
		return false
	}
	store, load := region[at], region[at+1]
	return store.Op == bytecode.OpStoreLocal &&
		load.Op == bytecode.OpLoadLocal &&
		store.Name == load.Name &&
		strings.HasPrefix(store.Name, prefix)
}

// elideCapture removes the artifact pair at position `at` and returns the
// shortened region. The input slice is never modified.
func elideCapture(region []bytecode.Instr, at int) []bytecode.Instr {
	out := make([]bytecode.Instr, 0, len(region)-2)
	out = append(out, region[:at]...)
	out = append(out, region[at+2:]...)
	return out
}
