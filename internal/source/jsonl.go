package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// jsonlEntry is one line of an import file.
type jsonlEntry struct {
	Workspace      string   `json:"workspace"`
	Text           *string  `json:"text"`
	Timestamp      flexTime `json:"timestamp"`
	ResponseLength int      `json:"response_length"`
}

// JSONL reads an import file holding one JSON object per line.
type JSONL struct {
	path string
}

// NewJSONL returns a reader for the file at path.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Load groups lines by their workspace field, in order of first appearance.
// Lines that are not valid JSON, or longer than maxLineBytes, cannot be
// attributed to a workspace. They are returned as records without text in a
// trailing detached input, so the engine rejects and counts them.
func (j *JSONL) Load(ctx context.Context) ([]prompt.WorkspaceInput, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var inputs []prompt.WorkspaceInput
	var unreadable []prompt.RawRecord
	index := make(map[string]int)

	r := bufio.NewReaderSize(f, 64*1024)
	lineNo := 0
	for {
		line, tooLong, err := readLine(r)
		if err == io.EOF && line == nil && !tooLong {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", j.path, err)
		}
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		origin := fmt.Sprintf("%s:%d", j.path, lineNo)

		var entry jsonlEntry
		switch {
		case tooLong:
			unreadable = append(unreadable, prompt.RawRecord{Origin: origin + " (line too long)"})
		case len(bytes.TrimSpace(line)) == 0:
		case json.Unmarshal(line, &entry) != nil:
			unreadable = append(unreadable, prompt.RawRecord{Origin: origin})
		default:
			i, ok := index[entry.Workspace]
			if !ok {
				i = len(inputs)
				index[entry.Workspace] = i
				inputs = append(inputs, prompt.WorkspaceInput{Name: entry.Workspace, ID: entry.Workspace})
			}
			inputs[i].Records = append(inputs[i].Records, prompt.RawRecord{
				Text:           entry.Text,
				Timestamp:      entry.Timestamp.Time,
				WorkspaceID:    entry.Workspace,
				ResponseLength: entry.ResponseLength,
				Origin:         origin,
			})
		}
		if err == io.EOF {
			break
		}
	}
	if len(unreadable) > 0 {
		inputs = append(inputs, prompt.WorkspaceInput{Records: unreadable, Detached: true})
	}
	return inputs, nil
}

// maxLineBytes caps a single import line. Longer lines are discarded whole.
const maxLineBytes = 1 << 20

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is drained and reported as too long, without content.
// io.EOF is returned with the final line when it is unterminated.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes+2 {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && buf == nil && !tooLong && len(chunk) == 0:
			return nil, false, io.EOF
		case err != nil && err != io.EOF:
			return nil, false, err
		}
		if tooLong {
			return nil, true, err
		}
		buf = bytes.TrimRight(buf, "\r\n")
		if buf == nil {
			buf = []byte{}
		}
		if len(buf) > maxLineBytes {
			return nil, true, err
		}
		return buf, false, err
	}
}

// ctxCheckInterval is how many lines are read between context checks.
const ctxCheckInterval = 1024
