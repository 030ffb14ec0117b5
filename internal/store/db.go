// Package store persists per-application usage records in an embedded
// SQLite database and answers windowed aggregation queries over them.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrReadOnly is returned by write operations on a store opened read-only.
// An unprivileged process reading a root collector's database must fail
// loudly on writes, never drop them.
var ErrReadOnly = errors.New("store is open read-only")

// Store provides SQLite database operations for apptraffic. Writes are
// serialized in-process by the single-connection pool; cross-process
// writers are serialized by SQLite's own file locking.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// Open opens (creating if needed) the database at dbPath in read-write
// mode and ensures the schema exists. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	// SQLite only allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// WAL lets concurrent CLI readers proceed while the collector writes.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode on %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout on %s: %w", dbPath, err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing database without write access. This is
// how an unprivileged status/query command reads a store written by a
// privileged collector: it can never take a write lock or corrupt the
// file.
func OpenReadOnly(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database %s read-only: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Verify the file is actually there and readable now, not at first
	// query, so the caller gets the resolved path in the failure.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %s read-only: %w", dbPath, err)
	}
	return &Store{db: db, path: dbPath, readOnly: true}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the resolved database file path, for error and status
// reporting.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened without write access.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) createSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema in %s: %w", s.path, err)
	}
	return nil
}
