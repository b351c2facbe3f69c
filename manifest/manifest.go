// Package manifest handles plusplus.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a plusplus.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Rewrite Rewrite `toml:"rewrite"`
	Store   Store   `toml:"store"`

	// Dir is the directory containing the plusplus.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Rewrite configures which namespaces get the increment rewrite and how.
type Rewrite struct {
	Namespaces           []string `toml:"namespaces"`
	CapturePrefix        string   `toml:"capture-prefix"`
	DisableCaptureFilter bool     `toml:"disable-capture-filter"`
}

// Store configures the unit store location.
type Store struct {
	Path string `toml:"path"`
}

// Load parses a plusplus.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "plusplus.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	for _, ns := range m.Rewrite.Namespaces {
		if !ValidNamespace(ns) {
			return nil, fmt.Errorf("invalid namespace %q in %s", ns, path)
		}
	}

	// Defaults
	if m.Store.Path == "" {
		m.Store.Path = "units.db"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a plusplus.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "plusplus.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// StorePath returns the absolute path to the configured unit store.
func (m *Manifest) StorePath() string {
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}
