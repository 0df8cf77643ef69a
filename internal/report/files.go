package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blackwell-systems/promptlens/internal/aggregate"
)

// SeriesDir is the subdirectory of the output directory holding chart CSVs.
const SeriesDir = "series"

// Series CSV file names.
const (
	FilePromptsPerDay          = "prompts_per_day.csv"
	FilePromptsPerWorkspace    = "prompts_per_workspace.csv"
	FileComplexityPerWorkspace = "complexity_per_workspace.csv"
	FileCategories             = "categories.csv"
	FileComplexityHistogram    = "complexity_histogram.csv"
)

// Filename returns the report file name for a run started at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("prompt_analysis_report_%s.md", t.Format("20060102_150405"))
}

// WriteMarkdownFile writes r into dir, creating it if needed, and returns
// the file path.
func WriteMarkdownFile(dir string, r Report, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, Filename(t))
	if err := os.WriteFile(path, []byte(Markdown(r)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// WriteSeriesCSV writes one CSV file per chart series into dir, creating it
// if needed, and returns the written paths. Empty series produce files with
// only a header row.
func WriteSeriesCSV(dir string, s aggregate.Series) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{FilePromptsPerDay, []string{"date", "prompts", "words"}, dayRows(s.PromptsPerDay)},
		{FilePromptsPerWorkspace, []string{"workspace", "prompts"}, pointRows(s.PromptsPerWorkspace)},
		{FileComplexityPerWorkspace, []string{"workspace", "avg_complexity"}, pointRows(s.ComplexityPerWorkspace)},
		{FileCategories, []string{"category", "prompts"}, pointRows(s.Categories)},
		{FileComplexityHistogram, []string{"low", "high", "prompts"}, binRows(s.ComplexityHistogram)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeCSV(path, f.header, f.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func dayRows(days []aggregate.DayCount) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Date, strconv.Itoa(d.Count), strconv.Itoa(d.Words)})
	}
	return rows
}

func pointRows(points []aggregate.Point) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{p.Label, formatFloat(p.Value)})
	}
	return rows
}

func binRows(bins []aggregate.Bin) [][]string {
	rows := make([][]string, 0, len(bins))
	for _, b := range bins {
		rows = append(rows, []string{formatFloat(b.Low), formatFloat(b.High), strconv.Itoa(b.Count)})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
