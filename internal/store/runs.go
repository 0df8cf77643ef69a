package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/blackwell-systems/promptlens/internal/engine"
)

const runColumns = `id, taken_at, source, version, fingerprint, workspaces, prompts,
	words, avg_words, avg_complexity, rejected`

// RunFromResult flattens an analysis result into history rows.
func RunFromResult(res *engine.Result, source, version string, at time.Time) (Run, []WorkspaceRun) {
	c := res.Corpus
	run := Run{
		TakenAt:       at.UTC(),
		Source:        source,
		Version:       version,
		Fingerprint:   res.Fingerprint.String(),
		Workspaces:    c.TotalWorkspaces,
		Prompts:       c.TotalPrompts,
		Words:         c.TotalWords,
		AvgWords:      c.AvgWords,
		AvgComplexity: c.Complexity.Avg,
		Rejected:      c.Rejected,
	}
	rows := make([]WorkspaceRun, 0, len(res.Ranking))
	for _, r := range res.Ranking {
		rows = append(rows, WorkspaceRun{
			Rank:          r.Rank,
			Workspace:     r.Name,
			WorkspaceID:   r.ID,
			Prompts:       r.PromptCount,
			Words:         r.TotalWords,
			AvgComplexity: r.AvgComplexity,
		})
	}
	return run, rows
}

// RecordRun stores a run with its workspace rows and returns the run ID.
// A run whose fingerprint matches the latest recorded run is not stored
// again; the latest run's ID is returned with recorded set to false.
func (db *DB) RecordRun(ctx context.Context, run Run, workspaces []WorkspaceRun) (id int64, recorded bool, err error) {
	latest, err := db.LatestRun(ctx)
	if err != nil {
		return 0, false, err
	}
	if latest != nil && latest.Fingerprint == run.Fingerprint {
		return latest.ID, false, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs
		(taken_at, source, version, fingerprint, workspaces, prompts, words,
		 avg_words, avg_complexity, rejected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.TakenAt.UTC().Format(time.RFC3339), run.Source, run.Version, run.Fingerprint,
		run.Workspaces, run.Prompts, run.Words, run.AvgWords, run.AvgComplexity, run.Rejected,
	)
	if err != nil {
		return 0, false, err
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, false, err
	}

	for _, w := range workspaces {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workspace_runs
			(run_id, rank, workspace, workspace_id, prompts, words, avg_complexity)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, w.Rank, w.Workspace, w.WorkspaceID, w.Prompts, w.Words, w.AvgComplexity,
		); err != nil {
			return 0, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// LatestRun returns the most recent run, or nil if none exist.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT 1")
	return scanRun(row)
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// PreviousRun returns the run recorded before id, or nil if there is none.
func (db *DB) PreviousRun(ctx context.Context, id int64) (*Run, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id < ? ORDER BY id DESC LIMIT 1", id)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetWorkspaceRuns returns a run's workspace rows in rank order.
func (db *DB) GetWorkspaceRuns(ctx context.Context, runID int64) ([]WorkspaceRun, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, run_id, rank, workspace, workspace_id, prompts, words, avg_complexity
		 FROM workspace_runs WHERE run_id = ? ORDER BY rank`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []WorkspaceRun
	for rows.Next() {
		var w WorkspaceRun
		var wsID sql.NullString
		if err := rows.Scan(&w.ID, &w.RunID, &w.Rank, &w.Workspace, &wsID,
			&w.Prompts, &w.Words, &w.AvgComplexity); err != nil {
			return nil, err
		}
		w.WorkspaceID = wsID.String
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteRun removes a run. Its workspace rows cascade.
func (db *DB) DeleteRun(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var takenAt string
	err := row.Scan(&r.ID, &takenAt, &r.Source, &r.Version, &r.Fingerprint,
		&r.Workspaces, &r.Prompts, &r.Words, &r.AvgWords, &r.AvgComplexity, &r.Rejected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &r, nil
}

// Compare returns the metric deltas from prev to cur.
func Compare(prev, cur *Run) RunDiff {
	diff := RunDiff{Previous: prev, Current: cur}
	if prev == nil || cur == nil {
		return diff
	}
	metrics := []struct {
		name string
		prev float64
		cur  float64
	}{
		{"workspaces", float64(prev.Workspaces), float64(cur.Workspaces)},
		{"prompts", float64(prev.Prompts), float64(cur.Prompts)},
		{"words", float64(prev.Words), float64(cur.Words)},
		{"avg_words", prev.AvgWords, cur.AvgWords},
		{"avg_complexity", prev.AvgComplexity, cur.AvgComplexity},
		{"rejected", float64(prev.Rejected), float64(cur.Rejected)},
	}
	for _, m := range metrics {
		d := RunDelta{Name: m.name, Previous: m.prev, Current: m.cur, Delta: m.cur - m.prev}
		switch {
		case d.Delta > 0:
			d.Direction = "up"
		case d.Delta < 0:
			d.Direction = "down"
		default:
			d.Direction = "unchanged"
		}
		diff.Deltas = append(diff.Deltas, d)
	}
	return diff
}
