// Package prompt defines the record model shared by every stage of the
// analysis pipeline: raw records as sources yield them, validated records,
// and classified records carrying categories and a complexity score.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMalformedRecord is returned by Validate for records that cannot enter
// the pipeline, i.e. records without a text field.
var ErrMalformedRecord = errors.New("malformed record")

// Record is a single validated prompt.
type Record struct {
	// Text is the raw prompt text. It may be empty.
	Text string `json:"text"`

	// Timestamp is when the prompt was issued. The zero value means unknown.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// WorkspaceID identifies the owning workspace.
	WorkspaceID string `json:"workspace_id,omitempty"`

	// ResponseLength is the length in characters of the assistant's reply.
	// Zero means unknown.
	ResponseLength int `json:"response_length,omitempty"`
}

// HasTimestamp reports whether the record carries a known timestamp.
func (r Record) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// RawRecord is a record as a source produced it, before validation.
type RawRecord struct {
	// Text is nil when the source entry had no text field at all.
	Text           *string
	Timestamp      time.Time
	WorkspaceID    string
	ResponseLength int

	// Origin locates the entry for diagnostics (file, key, line number).
	Origin string
}

// WorkspaceInput is the ingestion unit: every raw record of one workspace,
// tagged with a display name.
type WorkspaceInput struct {
	Name    string
	ID      string
	Records []RawRecord

	// Sessions are tracked working periods, for sources that record them.
	Sessions []Session

	// Detached inputs hold records that could not be attributed to any
	// workspace, such as unreadable import lines. Every record in them is
	// rejected and they never form a workspace.
	Detached bool
}

// Session is a tracked working period on a workspace.
type Session struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Length returns Duration, or End-Start when no duration was recorded.
// Unknown or negative lengths are zero.
func (s Session) Length() time.Duration {
	d := s.Duration
	if d == 0 && !s.Start.IsZero() && !s.End.IsZero() {
		d = s.End.Sub(s.Start)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Source is anything that can yield workspace inputs. The engine never
// assumes where the records came from.
type Source interface {
	Load(ctx context.Context) ([]WorkspaceInput, error)
}

// Classified is a record after classification and scoring.
type Classified struct {
	Record

	// Categories holds the explicitly matched categories in configured order.
	// An empty slice means no category matched; reports show it as "general".
	Categories []string `json:"categories"`

	// Complexity is the composite score in [0, 100].
	Complexity float64 `json:"complexity"`

	Words  int `json:"words"`
	Chars  int `json:"chars"`
	Tokens int `json:"tokens,omitempty"`
}

// Validate turns a raw record into a Record. Negative response lengths are
// treated as unknown. The only rejection is a missing text field.
func Validate(raw RawRecord) (Record, error) {
	if raw.Text == nil {
		origin := raw.Origin
		if origin == "" {
			origin = "unknown origin"
		}
		return Record{}, fmt.Errorf("%w: missing text (%s)", ErrMalformedRecord, origin)
	}
	rec := Record{
		Text:           *raw.Text,
		Timestamp:      raw.Timestamp,
		WorkspaceID:    raw.WorkspaceID,
		ResponseLength: raw.ResponseLength,
	}
	if rec.ResponseLength < 0 {
		rec.ResponseLength = 0
	}
	return rec, nil
}

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CharCount returns the number of runes in text.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// Text returns a pointer to s, for building raw records.
func Text(s string) *string {
	return &s
}
