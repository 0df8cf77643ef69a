package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/promptlens/internal/config"
)

// resetFlags restores every package-level flag variable to its default.
// Cobra only writes flags that appear on the command line, so values would
// otherwise leak between runs.
func resetFlags() {
	flagNoColor, flagJSON, flagVerbose, flagConfig = false, false, false, ""

	analyzeFlagSource = sourceCursor
	analyzeFlagFile = ""
	analyzeFlagStorage = ""
	analyzeFlagWorkspaces = nil
	analyzeFlagAll = false
	analyzeFlagOutputDir = ""
	analyzeFlagFormat = formatTerminal
	analyzeFlagCharts = false
	analyzeFlagTokens = false
	analyzeFlagNoWrite = false
	analyzeFlagRecord = false

	classifyFlagTokens = false
	classifyFlagResponse = 0
	workspacesFlagStorage = ""
	historyFlagLimit = 10
}

// testEnv points every configurable path into a temp dir and returns the
// config file path.
func testEnv(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROMPTLENS_CURSOR_STORAGE", filepath.Join(dir, "workspaceStorage"))
	t.Setenv("PROMPTLENS_TRACKER_FILE", filepath.Join(dir, "projects.json"))
	t.Setenv("PROMPTLENS_OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("PROMPTLENS_HISTORY_DB", filepath.Join(dir, "history.db"))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  width: 100\n"), 0o644))
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeJSONL(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "prompts.jsonl")
	lines := []string{
		`{"workspace":"api","text":"fix the null pointer bug in the handler","timestamp":"2024-06-01T10:00:00Z"}`,
		`{"workspace":"web","text":"explain how the router works?","timestamp":1717322400}`,
		`{"workspace":"api","text":"refactor the cache module"}`,
		`{"workspace":"web"}`,
		`not json`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "workspaces", "classify", "config", "doctor", "history"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestClassify_JSON(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "classify", "--config", cfgPath, "--json", "fix", "the", "bug", "in", "the", "parser")
	require.NoError(t, err)

	var res classifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res.Categories, "code")
	assert.Equal(t, 6, res.Words)
	assert.Equal(t, len("fix the bug in the parser"), res.Chars)
	assert.Zero(t, res.Tokens)
	assert.Greater(t, res.Breakdown.Score, 0.0)
}

func TestClassify_EmptyInput(t *testing.T) {
	_, cfgPath := testEnv(t)

	_, err := execute(t, "classify", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no prompt text")
}

func TestAnalyze_JSONLToStdout(t *testing.T) {
	dir, cfgPath := testEnv(t)
	input := writeJSONL(t, dir)

	out, err := execute(t, "analyze", "--config", cfgPath,
		"--source", "jsonl", "--file", input, "--format", "json", "--no-write")
	require.NoError(t, err)

	var res struct {
		Corpus struct {
			TotalWorkspaces int `json:"total_workspaces"`
			TotalPrompts    int `json:"total_prompts"`
			Rejected        int `json:"rejected"`
		} `json:"corpus"`
		Ranking []struct {
			Rank int    `json:"rank"`
			Name string `json:"name"`
		} `json:"ranking"`
		Fingerprint string `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Corpus.TotalWorkspaces, "the invalid line does not form a workspace")
	assert.Equal(t, 3, res.Corpus.TotalPrompts)
	assert.Equal(t, 2, res.Corpus.Rejected)
	require.Len(t, res.Ranking, 2)
	assert.Equal(t, "api", res.Ranking[0].Name)
	assert.NotEmpty(t, res.Fingerprint)

	assert.NoDirExists(t, filepath.Join(dir, "out"), "--no-write must not create the output dir")
	assert.NoFileExists(t, filepath.Join(dir, "history.db"))
}

func TestAnalyze_WritesReportAndRecordsRun(t *testing.T) {
	dir, cfgPath := testEnv(t)
	input := writeJSONL(t, dir)
	outDir := filepath.Join(dir, "reports")

	out, err := execute(t, "analyze", "--config", cfgPath, "--record",
		"--source", "jsonl", "--file", input, "--output-dir", outDir, "--format", "markdown")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# "), "markdown output starts with the title")

	reports, err := filepath.Glob(filepath.Join(outDir, "prompt_analysis_report_*.md"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.FileExists(t, filepath.Join(outDir, "series", "prompts_per_workspace.csv"))

	// Same prompts again: the run is not recorded twice.
	_, err = execute(t, "analyze", "--config", cfgPath, "--record",
		"--source", "jsonl", "--file", input, "--output-dir", outDir, "--format", "json")
	require.NoError(t, err)

	out, err = execute(t, "history", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var runs []struct {
		ID      int64 `json:"id"`
		Prompts int   `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Prompts)

	out, err = execute(t, "history", "show", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var detail struct {
		Workspaces []struct {
			Workspace string `json:"workspace"`
		} `json:"workspaces"`
		Diff *struct{} `json:"diff"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.NotEmpty(t, detail.Workspaces)
	assert.Nil(t, detail.Diff, "first run has nothing to compare against")
}

func TestAnalyze_RecordIsOptIn(t *testing.T) {
	dir, cfgPath := testEnv(t)
	input := writeJSONL(t, dir)

	_, err := execute(t, "analyze", "--config", cfgPath,
		"--source", "jsonl", "--file", input, "--format", "json")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "history.db"))
	assert.DirExists(t, filepath.Join(dir, "out"))
}

func TestAnalyze_Errors(t *testing.T) {
	dir, cfgPath := testEnv(t)
	input := writeJSONL(t, dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"jsonl without file", []string{"--source", "jsonl"}, "--file is required"},
		{"unknown source", []string{"--source", "csv"}, "unknown source"},
		{"unknown format", []string{"--source", "jsonl", "--file", input, "--format", "html"}, "unknown format"},
		{"cursor without selection", []string{"--source", "cursor"}, "--workspace"},
		{"missing file", []string{"--source", "jsonl", "--file", filepath.Join(dir, "nope.jsonl")}, "loading prompts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"analyze", "--config", cfgPath, "--no-write"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAnalyze_TrackerMissingStoreIsEmpty(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "analyze", "--config", cfgPath, "--source", "tracker", "--format", "markdown", "--no-write")
	require.NoError(t, err)
	assert.Contains(t, out, "No data")
}

func TestWorkspaces_EmptyStorage(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "workspaces", "--config", cfgPath, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = execute(t, "workspaces", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No workspaces found")
}

func TestConfigShowAndValidate(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "history_db:")
	assert.Contains(t, out, "width: 100")

	out, err = execute(t, "config", "show", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "categories")

	out, err = execute(t, "config", "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")
}

func TestConfigValidate_Invalid(t *testing.T) {
	dir, _ := testEnv(t)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("analysis:\n  histogram_bins: 0\n"), 0o644))

	_, err := execute(t, "config", "validate", "--config", bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestDoctor_JSON(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "doctor", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var res doctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Checks)
	assert.Equal(t, len(res.Checks), res.TotalCount)

	byName := make(map[string]doctorCheck)
	for _, c := range res.Checks {
		byName[c.Name] = c
	}
	assert.True(t, byName["Configuration"].Passed)
	assert.False(t, byName["Workspace storage"].Passed, "temp storage dir does not exist")
	assert.True(t, byName["Output directory"].Passed)
	assert.True(t, byName["History database"].Passed)
}
