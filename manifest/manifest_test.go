package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "plusplus.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "counters"

[rewrite]
namespaces = ["app", "lib.math"]
capture-prefix = "@tmp"
disable-capture-filter = false

[store]
path = "build/units.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Project.Name != "counters" {
		t.Errorf("project name = %q, want counters", m.Project.Name)
	}
	if len(m.Rewrite.Namespaces) != 2 || m.Rewrite.Namespaces[0] != "app" {
		t.Errorf("namespaces = %v", m.Rewrite.Namespaces)
	}
	if m.Rewrite.CapturePrefix != "@tmp" {
		t.Errorf("capture prefix = %q, want @tmp", m.Rewrite.CapturePrefix)
	}
	if got, want := m.StorePath(), filepath.Join(m.Dir, "build/units.db"); got != want {
		t.Errorf("store path = %q, want %q", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "bare"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Store.Path != "units.db" {
		t.Errorf("default store path = %q, want units.db", m.Store.Path)
	}
	if len(m.Rewrite.Namespaces) != 0 {
		t.Errorf("default namespaces = %v, want none", m.Rewrite.Namespaces)
	}
}

func TestLoadRejectsBadNamespace(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[rewrite]
namespaces = ["app", "2fa.codes"]
`)

	if _, err := Load(dir); err == nil {
		t.Error("expected error for invalid namespace")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing plusplus.toml")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[project]
name = "walk"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil || m.Project.Name != "walk" {
		t.Errorf("FindAndLoad returned %+v, want project walk", m)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Errorf("FindAndLoad returned %+v, want nil", m)
	}
}

func TestValidNamespace(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"app", true},
		{"app.handlers", true},
		{"_vendor.lib2", true},
		{"A.B.C", true},
		{"", false},
		{".app", false},
		{"app.", false},
		{"app..x", false},
		{"2fa.codes", false},
		{"app.with-dash", false},
		{"app.with space", false},
	}

	for _, tt := range tests {
		if got := ValidNamespace(tt.name); got != tt.want {
			t.Errorf("ValidNamespace(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
