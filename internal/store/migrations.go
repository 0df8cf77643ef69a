package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// migrations[i] brings the schema from version i to version i+1.
var migrations = []func(tx *sql.Tx) error{
	migrateV1,
}

// Migrate applies every migration newer than the recorded schema version.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		if err := db.apply(v+1, migrations[v]); err != nil {
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
	}
	return nil
}

func (db *DB) apply(version int, migrate func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrate(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateV1 creates the runs and workspace_runs tables.
func migrateV1(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at       TEXT NOT NULL,
			source         TEXT NOT NULL,
			version        TEXT NOT NULL,
			fingerprint    TEXT NOT NULL,
			workspaces     INTEGER NOT NULL,
			prompts        INTEGER NOT NULL,
			words          INTEGER NOT NULL,
			avg_words      REAL NOT NULL,
			avg_complexity REAL NOT NULL,
			rejected       INTEGER NOT NULL
		)`,
		`CREATE TABLE workspace_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			rank           INTEGER NOT NULL,
			workspace      TEXT NOT NULL,
			workspace_id   TEXT,
			prompts        INTEGER NOT NULL,
			words          INTEGER NOT NULL,
			avg_complexity REAL NOT NULL
		)`,
		`CREATE INDEX idx_runs_fingerprint ON runs(fingerprint)`,
		`CREATE INDEX idx_workspace_runs_run ON workspace_runs(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:30], err)
		}
	}
	return nil
}
