package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONL_Load(t *testing.T) {
	content := `{"workspace":"api","text":"fix the bug","timestamp":"2024-06-01T10:00:00Z","response_length":1200}
{"workspace":"web","text":"add a button","timestamp":1717322400000}

{"workspace":"api","text":"explain the cache"}
this line is not json
{"workspace":"web","timestamp":null}
`
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	inputs, err := NewJSONL(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 3)

	api := inputs[0]
	assert.Equal(t, "api", api.Name)
	require.Len(t, api.Records, 2)
	assert.Equal(t, "fix the bug", *api.Records[0].Text)
	assert.Equal(t, 1200, api.Records[0].ResponseLength)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), api.Records[0].Timestamp)
	assert.Equal(t, path+":1", api.Records[0].Origin)
	assert.True(t, api.Records[1].Timestamp.IsZero())

	web := inputs[1]
	require.Len(t, web.Records, 2)
	assert.Equal(t, time.UnixMilli(1717322400000).UTC(), web.Records[0].Timestamp)
	assert.Nil(t, web.Records[1].Text)

	unreadable := inputs[2]
	assert.True(t, unreadable.Detached)
	assert.Equal(t, "", unreadable.Name)
	require.Len(t, unreadable.Records, 1)
	assert.Nil(t, unreadable.Records[0].Text)
	assert.Equal(t, path+":5", unreadable.Records[0].Origin)

	for _, in := range inputs[:2] {
		assert.False(t, in.Detached, in.Name)
	}
}

func TestJSONL_OverlongLineIsSkipped(t *testing.T) {
	long := `{"workspace":"api","text":"` + strings.Repeat("x", maxLineBytes+10) + `"}`
	content := `{"workspace":"api","text":"first"}` + "\n" + long + "\n" + `{"workspace":"api","text":"last"}`
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	inputs, err := NewJSONL(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	api := inputs[0]
	require.Len(t, api.Records, 2)
	assert.Equal(t, "first", *api.Records[0].Text)
	assert.Equal(t, "last", *api.Records[1].Text)
	assert.Equal(t, path+":3", api.Records[1].Origin)

	require.True(t, inputs[1].Detached)
	require.Len(t, inputs[1].Records, 1)
	assert.Nil(t, inputs[1].Records[0].Text)
	assert.Contains(t, inputs[1].Records[0].Origin, path+":2")
}

func TestJSONL_LongLineWithinLimit(t *testing.T) {
	text := strings.Repeat("y", 200*1024)
	content := "{\"workspace\":\"api\",\"text\":\"" + text + "\"}\r\n"
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	inputs, err := NewJSONL(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.Len(t, inputs[0].Records, 1)
	assert.Equal(t, text, *inputs[0].Records[0].Text)
}

func TestJSONL_OnlyUnreadableLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("nope\n{broken\n"), 0o644))

	inputs, err := NewJSONL(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.True(t, inputs[0].Detached)
	assert.Len(t, inputs[0].Records, 2)
}

func TestJSONL_MissingFile(t *testing.T) {
	_, err := NewJSONL(filepath.Join(t.TempDir(), "none.jsonl")).Load(context.Background())
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestFlexTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`null`, time.Time{}},
		{`""`, time.Time{}},
		{`"2024-06-01T10:00:00Z"`, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{`1717236000`, time.Unix(1717236000, 0).UTC()},
		{`1717236000000`, time.UnixMilli(1717236000000).UTC()},
		{`"1717236000000"`, time.UnixMilli(1717236000000).UTC()},
		{`-5`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f flexTime
			require.NoError(t, f.UnmarshalJSON([]byte(tt.in)))
			assert.True(t, tt.want.Equal(f.Time), "got %v", f.Time)
		})
	}
}
