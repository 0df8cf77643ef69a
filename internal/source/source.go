// Package source reads prompt history from the places it is recorded: the
// editor's per-workspace state databases, the manual tracker's project store,
// and JSONL export files. Every reader implements prompt.Source.
package source

import (
	"bytes"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// flexTime decodes timestamps written either as epoch numbers or as
// strings. Null, empty and unparseable values decode to the zero time.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Time = prompt.ParseTimestamp(s)
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		f.Time = time.Time{}
		return nil
	}
	f.Time = prompt.FromEpoch(n)
	return nil
}
