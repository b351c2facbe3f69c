package loader

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/borzunov/plusplus/pkg/bytecode"
)

// Store is a sqlite-backed unit store: compiled units (CBOR-encoded, with
// their nested units) and optional source text, keyed by dotted module
// path. It implements Loader, so it can serve as the base of an
// Interceptor.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS units (
	path   TEXT PRIMARY KEY,
	unit   BLOB NOT NULL,
	source TEXT NOT NULL DEFAULT ''
);
`

// OpenStore opens (creating if necessary) a unit store at the given file
// path. Use ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening unit store %s: %w", path, err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing unit store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveUnit stores a unit (and its source text) under the given path,
// replacing any previous entry.
func (s *Store) SaveUnit(path string, u *bytecode.Unit, source string) error {
	data, err := bytecode.MarshalUnit(u)
	if err != nil {
		return fmt.Errorf("encoding unit %s: %w", path, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO units (path, unit, source) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET unit = excluded.unit, source = excluded.source`,
		path, data, source)
	if err != nil {
		return fmt.Errorf("storing unit %s: %w", path, err)
	}
	return nil
}

// LoadUnit retrieves and decodes the unit stored under path.
func (s *Store) LoadUnit(path string) (*bytecode.Unit, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT unit FROM units WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading unit %s: %w", path, err)
	}
	return bytecode.UnmarshalUnit(data)
}

// LoadSource retrieves the source text stored under path.
func (s *Store) LoadSource(path string) (string, error) {
	var source string
	err := s.db.QueryRow(`SELECT source FROM units WHERE path = ?`, path).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading source %s: %w", path, err)
	}
	return source, nil
}

// List returns the stored paths under the given dotted prefix, or all
// paths if prefix is empty.
func (s *Store) List(prefix string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if prefix == "" {
		rows, err = s.db.Query(`SELECT path FROM units ORDER BY path`)
	} else {
		rows, err = s.db.Query(
			`SELECT path FROM units WHERE path = ? OR path LIKE ? ORDER BY path`,
			prefix, prefix+".%")
	}
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
