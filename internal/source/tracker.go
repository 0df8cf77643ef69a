package source

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// trackerProject is one project entry of the manual tracker's store. The
// stored aggregates are ignored; they are recomputed from the prompts.
type trackerProject struct {
	Prompts  []trackerPrompt  `json:"prompts"`
	Sessions []trackerSession `json:"sessions"`
}

// trackerSession is a timed working period. An open session has no end time
// or duration.
type trackerSession struct {
	StartTime       flexTime `json:"start_time"`
	EndTime         flexTime `json:"end_time"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

func (s trackerSession) session() prompt.Session {
	out := prompt.Session{Start: s.StartTime.Time, End: s.EndTime.Time}
	if s.DurationSeconds != nil {
		out.Duration = time.Duration(*s.DurationSeconds * float64(time.Second))
	}
	return out
}

type trackerPrompt struct {
	Text      *string  `json:"text"`
	Timestamp flexTime `json:"timestamp"`
}

// Tracker reads the manual tracker's projects.json, a map from project name
// to its recorded prompts.
type Tracker struct {
	path string
}

// NewTracker returns a reader for the store at path.
func NewTracker(path string) *Tracker {
	return &Tracker{path: path}
}

// Load returns one workspace per project, ordered by project name. A
// missing store yields no workspaces.
func (t *Tracker) Load(ctx context.Context) ([]prompt.WorkspaceInput, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var projects map[string]trackerProject
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t.path, err)
	}

	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make([]prompt.WorkspaceInput, 0, len(names))
	for _, name := range names {
		p := projects[name]
		records := make([]prompt.RawRecord, 0, len(p.Prompts))
		for i, tp := range p.Prompts {
			records = append(records, prompt.RawRecord{
				Text:        tp.Text,
				Timestamp:   tp.Timestamp.Time,
				WorkspaceID: name,
				Origin:      fmt.Sprintf("%s:%s#%d", t.path, name, i),
			})
		}
		var sessions []prompt.Session
		for _, ts := range p.Sessions {
			sessions = append(sessions, ts.session())
		}
		inputs = append(inputs, prompt.WorkspaceInput{Name: name, ID: name, Records: records, Sessions: sessions})
	}
	return inputs, nil
}
