package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScoreBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		score  float64
		filled int
		label  string
	}{
		{0, 0, "0/100"},
		{50, 5, "50/100"},
		{100, 10, "100/100"},
		{140, 10, "140/100"},
		{-5, 0, "-5/100"},
	}
	for _, tc := range tests {
		got := ScoreBar(tc.score, 10)
		if n := strings.Count(got, "█"); n != tc.filled {
			t.Errorf("ScoreBar(%v) filled = %d, want %d", tc.score, n, tc.filled)
		}
		if n := strings.Count(got, "░"); n != 10-tc.filled {
			t.Errorf("ScoreBar(%v) empty = %d, want %d", tc.score, n, 10-tc.filled)
		}
		if !strings.HasSuffix(got, tc.label) {
			t.Errorf("ScoreBar(%v) = %q, want suffix %q", tc.score, got, tc.label)
		}
	}
}

func TestBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := Bar(5, 10, 10); strings.Count(got, "█") != 5 || visualLen(got) != 10 {
		t.Errorf("Bar(5, 10, 10) = %q", got)
	}
	if got := Bar(3, 0, 10); strings.Count(got, "█") != 0 || visualLen(got) != 10 {
		t.Errorf("Bar with zero peak = %q", got)
	}
	if got := Bar(20, 10, 4); strings.Count(got, "█") != 4 {
		t.Errorf("Bar over peak = %q", got)
	}
}

func TestBarChart(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	got := BarChart([]string{"api", "frontend"}, []float64{2, 4, 99}, 8)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if strings.Count(lines[0], "█") != 4 || strings.Count(lines[1], "█") != 8 {
		t.Errorf("bars not scaled to the largest value: %q", got)
	}
	if !strings.HasSuffix(lines[0], " 2") || !strings.HasSuffix(lines[1], " 4") {
		t.Errorf("values missing: %q", got)
	}
	if strings.Index(lines[0], "█") != strings.Index(lines[1], "█") {
		t.Errorf("bars not aligned: %q", got)
	}

	if BarChart(nil, nil, 8) != "" {
		t.Error("expected empty chart for no data")
	}
}

func TestFormatValue(t *testing.T) {
	if got := formatValue(3); got != "3" {
		t.Errorf("formatValue(3) = %q", got)
	}
	if got := formatValue(2.25); got != "2.2" && got != "2.3" {
		t.Errorf("formatValue(2.25) = %q", got)
	}
}

func TestConfigureColor(t *testing.T) {
	defer SetNoColor(false)

	ConfigureColor(os.Stdout, true)
	if !IsNoColor() {
		t.Error("explicit disable must win")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	ConfigureColor(f, false)
	if !IsNoColor() {
		t.Error("expected no color when writing to a regular file")
	}
}

func TestDeltaArrow(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	for delta, want := range map[float64]string{2: "↑", -0.5: "↓", 0: "→"} {
		if got := DeltaArrow(delta); got != want {
			t.Errorf("DeltaArrow(%v) = %q, want %q", delta, got, want)
		}
	}
}
