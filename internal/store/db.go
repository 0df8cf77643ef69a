package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// connPragmas apply to every pooled connection, not just the first one.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

// DB is the run history database.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the history database at path, creating its parent
// directory, and migrates it to the current schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dsn(path, append(connPragmas, "journal_mode(WAL)")))
	if err != nil {
		return nil, err
	}
	return newDB(conn)
}

// OpenInMemory opens an empty in-memory database, for tests.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(":memory:", connPragmas))
	if err != nil {
		return nil, err
	}
	// Each connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)
	return newDB(conn)
}

func dsn(base string, pragmas []string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return base + "?" + q.Encode()
}

func newDB(conn *sql.DB) (*DB, error) {
	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}
