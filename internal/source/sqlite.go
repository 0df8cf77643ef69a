package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// promptsKey is the ItemTable key under which Cursor stores issued prompts.
const promptsKey = "aiService.prompts"

// stateDB wraps a read-only connection to a workspace's state.vscdb.
type stateDB struct {
	conn *sql.DB
}

// openStateDB opens an existing state database. It never creates one: a
// missing file is reported as an error.
func openStateDB(path string) (*stateDB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// query_only is per connection.
	conn.SetMaxOpenConns(1)

	// The editor may be running; never write to its store.
	if _, err := conn.Exec("PRAGMA query_only=ON"); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &stateDB{conn: conn}, nil
}

// Close closes the database connection.
func (db *stateDB) Close() error {
	return db.conn.Close()
}

// item returns the raw value stored under key in ItemTable. A missing key
// yields nil and no error.
func (db *stateDB) item(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM ItemTable WHERE [key] = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}
