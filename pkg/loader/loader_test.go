package loader

import (
	"errors"
	"testing"

	"github.com/borzunov/plusplus/pkg/bytecode"
)

// mapLoader is an in-memory Loader for tests.
type mapLoader struct {
	units   map[string]*bytecode.Unit
	sources map[string]string
}

func (m *mapLoader) LoadUnit(path string) (*bytecode.Unit, error) {
	u, ok := m.units[path]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mapLoader) LoadSource(path string) (string, error) {
	src, ok := m.sources[path]
	if !ok {
		return "", ErrNotFound
	}
	return src, nil
}

// markerUnit builds a unit holding one increment marker on a local.
func markerUnit(name string) *bytecode.Unit {
	u := bytecode.NewUnit(name)
	u.EmitConst(bytecode.IntValue(42))
	u.EmitName(bytecode.OpStoreLocal, "x")
	u.EmitName(bytecode.OpLoadLocal, "x")
	u.Emit(bytecode.OpUnaryPos)
	u.Emit(bytecode.OpUnaryPos)
	return u
}

func hasOp(u *bytecode.Unit, op bytecode.Opcode) bool {
	for _, in := range u.Code {
		if in.Op == op {
			return true
		}
	}
	return false
}

func TestRegistryMatches(t *testing.T) {
	reg := NewRegistry()
	reg.Register("app")
	reg.Register("lib.math")

	tests := []struct {
		path string
		want bool
	}{
		{"app", true},
		{"app.main", true},
		{"app.sub.deep", true},
		{"application", false}, // not a dotted ancestor
		{"lib", false},
		{"lib.math", true},
		{"lib.math.trig", true},
		{"lib.strings", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := reg.Matches(tt.path); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestEmptyRegistryMatchesNothing(t *testing.T) {
	reg := NewRegistry()
	if reg.Matches("app") {
		t.Error("empty registry matched a path")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestInterceptorRewritesOnlyRegistered(t *testing.T) {
	base := &mapLoader{
		units: map[string]*bytecode.Unit{
			"app.main": markerUnit("app.main"),
			"lib.util": markerUnit("lib.util"),
		},
		sources: map[string]string{"app.main": "x = 42\n++x\n"},
	}
	reg := NewRegistry()
	reg.Register("app")
	li := Intercept(base, reg)

	rewritten, err := li.LoadUnit("app.main")
	if err != nil {
		t.Fatalf("LoadUnit(app.main) failed: %v", err)
	}
	if hasOp(rewritten, bytecode.OpUnaryPos) {
		t.Error("registered unit still has sign markers")
	}
	if !hasOp(rewritten, bytecode.OpInplaceAdd) {
		t.Error("registered unit was not rewritten")
	}

	plain, err := li.LoadUnit("lib.util")
	if err != nil {
		t.Fatalf("LoadUnit(lib.util) failed: %v", err)
	}
	if hasOp(plain, bytecode.OpInplaceAdd) {
		t.Error("unregistered unit was rewritten")
	}

	// Source retrieval is always a passthrough.
	src, err := li.LoadSource("app.main")
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src != "x = 42\n++x\n" {
		t.Errorf("LoadSource returned %q", src)
	}
}

func TestInterceptorPropagatesRewriteError(t *testing.T) {
	bad := bytecode.NewUnit("app.bad")
	bad.EmitConst(bytecode.IntValue(5))
	bad.Emit(bytecode.OpUnaryPos)
	bad.Emit(bytecode.OpUnaryPos)

	base := &mapLoader{units: map[string]*bytecode.Unit{"app.bad": bad}}
	reg := NewRegistry()
	reg.Register("app")

	if _, err := Intercept(base, reg).LoadUnit("app.bad"); err == nil {
		t.Error("expected rewrite error for a marker on a constant")
	}
}

func TestInterceptorMissingUnit(t *testing.T) {
	li := Intercept(&mapLoader{}, NewRegistry())
	if _, err := li.LoadUnit("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	u := markerUnit("app.counters")
	if err := store.SaveUnit("app.counters", u, "++x\n"); err != nil {
		t.Fatalf("SaveUnit failed: %v", err)
	}

	loaded, err := store.LoadUnit("app.counters")
	if err != nil {
		t.Fatalf("LoadUnit failed: %v", err)
	}
	if got, want := loaded.Disassemble(), u.Disassemble(); got != want {
		t.Errorf("round trip changed the unit:\ngot:\n%s\nwant:\n%s", got, want)
	}

	src, err := store.LoadSource("app.counters")
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src != "++x\n" {
		t.Errorf("LoadSource = %q, want %q", src, "++x\n")
	}

	if _, err := store.LoadUnit("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	if err := store.SaveUnit("app.main", markerUnit("v1"), ""); err != nil {
		t.Fatalf("SaveUnit failed: %v", err)
	}
	if err := store.SaveUnit("app.main", markerUnit("v2"), ""); err != nil {
		t.Fatalf("SaveUnit (replace) failed: %v", err)
	}

	u, err := store.LoadUnit("app.main")
	if err != nil {
		t.Fatalf("LoadUnit failed: %v", err)
	}
	if u.Name != "v2" {
		t.Errorf("loaded unit %q, want v2", u.Name)
	}
}

func TestStoreList(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	for _, path := range []string{"app.a", "app.b", "appx.c", "lib.z"} {
		if err := store.SaveUnit(path, markerUnit(path), ""); err != nil {
			t.Fatalf("SaveUnit(%s) failed: %v", path, err)
		}
	}

	got, err := store.List("app")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0] != "app.a" || got[1] != "app.b" {
		t.Errorf("List(app) = %v, want [app.a app.b]", got)
	}

	all, err := store.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List(\"\") returned %d paths, want 4", len(all))
	}
}

func TestStoreAsInterceptorBase(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	if err := store.SaveUnit("app.main", markerUnit("app.main"), ""); err != nil {
		t.Fatalf("SaveUnit failed: %v", err)
	}

	reg := NewRegistry()
	reg.Register("app")

	u, err := Intercept(store, reg).LoadUnit("app.main")
	if err != nil {
		t.Fatalf("LoadUnit failed: %v", err)
	}
	if !hasOp(u, bytecode.OpInplaceAdd) {
		t.Error("stored unit was not rewritten on load")
	}
}

func TestProcessLoaderLifecycle(t *testing.T) {
	// Process-wide state persists across calls, so exercise the whole
	// lifecycle in one test.
	if _, err := Load("app.main"); !errors.Is(err, ErrNoLoader) {
		t.Errorf("Load before Install = %v, want ErrNoLoader", err)
	}

	Install(&mapLoader{units: map[string]*bytecode.Unit{
		"app.main": markerUnit("app.main"),
	}})
	Register("app")

	if !Registered("app.main") {
		t.Error("app.main not registered after Register(app)")
	}
	if Registered("lib.util") {
		t.Error("lib.util unexpectedly registered")
	}

	u, err := Load("app.main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !hasOp(u, bytecode.OpInplaceAdd) {
		t.Error("process loader did not rewrite a registered unit")
	}
}
