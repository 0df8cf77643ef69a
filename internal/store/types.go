// Package store provides SQLite access to the promptlens run history.
package store

import "time"

// Run is one recorded analysis run.
type Run struct {
	ID            int64     `json:"id"`
	TakenAt       time.Time `json:"taken_at"`
	Source        string    `json:"source"`
	Version       string    `json:"version"`
	Fingerprint   string    `json:"fingerprint"`
	Workspaces    int       `json:"workspaces"`
	Prompts       int       `json:"prompts"`
	Words         int       `json:"words"`
	AvgWords      float64   `json:"avg_words"`
	AvgComplexity float64   `json:"avg_complexity"`
	Rejected      int       `json:"rejected"`
}

// WorkspaceRun is one workspace's row within a run.
type WorkspaceRun struct {
	ID            int64   `json:"id"`
	RunID         int64   `json:"run_id"`
	Rank          int     `json:"rank"`
	Workspace     string  `json:"workspace"`
	WorkspaceID   string  `json:"workspace_id,omitempty"`
	Prompts       int     `json:"prompts"`
	Words         int     `json:"words"`
	AvgComplexity float64 `json:"avg_complexity"`
}

// RunDiff compares two runs.
type RunDiff struct {
	Previous *Run       `json:"previous"`
	Current  *Run       `json:"current"`
	Deltas   []RunDelta `json:"deltas"`
}

// RunDelta is the change in a single metric between runs.
type RunDelta struct {
	Name      string  `json:"name"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // "up", "down", "unchanged"
}
