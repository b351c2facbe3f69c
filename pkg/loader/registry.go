package loader

import (
	"strings"
	"sync"
)

// Registry is the set of namespace prefixes opted into rewriting. It is
// created empty, grows only via Register, and is consulted read-only on
// every load attempt, which may happen from multiple goroutines.
type Registry struct {
	mu       sync.RWMutex
	prefixes map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{prefixes: make(map[string]struct{})}
}

// Register adds a dotted namespace prefix to the registry.
func (r *Registry) Register(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = struct{}{}
}

// Matches reports whether the dotted path is registered, either exactly or
// through an ancestor: registering "pkg" covers "pkg", "pkg.sub", and
// "pkg.sub.mod", but not "pkgother".
func (r *Registry) Matches(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.prefixes) == 0 {
		return false
	}
	segments := strings.Split(path, ".")
	for i := 1; i <= len(segments); i++ {
		candidate := strings.Join(segments[:i], ".")
		if _, ok := r.prefixes[candidate]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of registered prefixes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prefixes)
}

// Prefixes returns a snapshot of the registered prefixes.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.prefixes))
	for p := range r.prefixes {
		out = append(out, p)
	}
	return out
}
