// Package report turns an analysis result into ordered, titled sections and
// renders them as Markdown, styled terminal text, JSON or YAML. It formats
// what the engine computed and computes nothing new.
package report

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/promptlens/internal/aggregate"
	"github.com/blackwell-systems/promptlens/internal/engine"
)

// Section titles, in report order.
const (
	TitleOverview   = "Overview"
	TitleOverall    = "Overall Statistics"
	TitleWorkspaces = "Statistics by Workspace"
	TitleCategories = "Prompt Categories"
	TitleComplexity = "Complexity Analysis"
	TitleTime       = "Time Analysis"
	TitleRejected   = "Rejected Records"
)

// NoData is the body of a section with nothing to report.
const NoData = "No data"

const timeLayout = "2006-01-02 15:04:05"

// Meta describes the run a report belongs to.
type Meta struct {
	Title       string
	GeneratedAt time.Time
	// Source names where the prompts came from, e.g. a storage directory.
	Source string
}

// Table is tabular section content.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Chart is a labelled series for terminal bar charts.
type Chart struct {
	Labels []string
	Values []float64
}

// Section is one titled block of a report.
type Section struct {
	Title string
	Lines []string
	Table *Table
	Chart *Chart
	// Empty marks a section whose statistics were replaced by NoData.
	Empty bool
}

// Report is a renderer-agnostic analysis report.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Sections    []Section
}

// Build lays out the report for res. With no workspaces or no prompts the
// statistical sections are replaced by NoData sections. A nil result is
// treated as an empty run.
func Build(res *engine.Result, meta Meta) Report {
	if res == nil {
		res = &engine.Result{}
	}
	if meta.Title == "" {
		meta.Title = "Prompt Analysis Report"
	}
	r := Report{Title: meta.Title, GeneratedAt: meta.GeneratedAt}
	c := res.Corpus

	r.Sections = append(r.Sections, overview(res, meta))
	if c.TotalWorkspaces == 0 || c.TotalPrompts == 0 {
		for _, title := range []string{TitleOverall, TitleWorkspaces, TitleCategories, TitleComplexity, TitleTime} {
			r.Sections = append(r.Sections, Section{Title: title, Lines: []string{NoData}, Empty: true})
		}
	} else {
		r.Sections = append(r.Sections,
			overall(c),
			workspaces(res.Ranking, res.Series),
			categories(c),
			complexity(c, res.Series),
			timeAnalysis(c.Time),
		)
	}
	r.Sections = append(r.Sections, rejected(c.Rejected))
	return r
}

func overview(res *engine.Result, meta Meta) Section {
	s := Section{Title: TitleOverview}
	if !meta.GeneratedAt.IsZero() {
		s.Lines = append(s.Lines, "Generated on: "+meta.GeneratedAt.Format(timeLayout))
	}
	if meta.Source != "" {
		s.Lines = append(s.Lines, "Source: "+meta.Source)
	}
	s.Lines = append(s.Lines,
		fmt.Sprintf("Workspaces analyzed: %d", res.Corpus.TotalWorkspaces),
		fmt.Sprintf("Prompts analyzed: %d", res.Corpus.TotalPrompts),
		"Fingerprint: "+res.Fingerprint.String(),
	)
	return s
}

func overall(c aggregate.CorpusSummary) Section {
	s := Section{Title: TitleOverall, Lines: []string{
		fmt.Sprintf("Total workspaces analyzed: %d", c.TotalWorkspaces),
		fmt.Sprintf("Total prompts: %d", c.TotalPrompts),
		fmt.Sprintf("Total words: %d", c.TotalWords),
		fmt.Sprintf("Average words per prompt: %.1f", c.AvgWords),
		fmt.Sprintf("Longest prompt: %d words", c.MaxWords),
		fmt.Sprintf("Shortest prompt: %d words", c.MinWords),
		fmt.Sprintf("Average characters per prompt: %.1f", c.AvgChars),
	}}
	if c.TotalTokens > 0 {
		s.Lines = append(s.Lines,
			fmt.Sprintf("Total tokens: %d", c.TotalTokens),
			fmt.Sprintf("Average tokens per prompt: %.1f", c.AvgTokens),
		)
	}
	if c.Sessions.Count > 0 {
		s.Lines = append(s.Lines, fmt.Sprintf("Tracked sessions: %d (%.1f hours total, %.1f minutes average)",
			c.Sessions.Count, c.Sessions.TotalSeconds/3600, c.Sessions.AvgSeconds/60))
	}
	return s
}

func workspaces(ranking []aggregate.RankedWorkspace, series aggregate.Series) Section {
	t := &Table{Headers: []string{"#", "Workspace", "Prompts", "Share", "Total Words", "Avg Words", "Max Words", "Avg Complexity"}}
	for _, r := range ranking {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Name,
			fmt.Sprintf("%d", r.PromptCount),
			fmt.Sprintf("%.1f%%", r.Share),
			fmt.Sprintf("%d", r.TotalWords),
			fmt.Sprintf("%.1f", r.AvgWords),
			fmt.Sprintf("%d", r.MaxWords),
			fmt.Sprintf("%.1f", r.AvgComplexity),
		})
	}
	return Section{Title: TitleWorkspaces, Table: t, Chart: pointChart(series.PromptsPerWorkspace)}
}

func categories(c aggregate.CorpusSummary) Section {
	s := Section{Title: TitleCategories, Lines: []string{
		"A prompt may fall into several categories; prompts matching none are counted as general.",
	}}
	t := &Table{Headers: []string{"Category", "Prompts", "Percent"}}
	chart := &Chart{}
	for _, share := range c.CategoryShares {
		t.Rows = append(t.Rows, []string{share.Name, fmt.Sprintf("%d", share.Count), fmt.Sprintf("%.1f%%", share.Percent)})
		chart.Labels = append(chart.Labels, share.Name)
		chart.Values = append(chart.Values, float64(share.Count))
	}
	s.Table = t
	s.Chart = chart
	return s
}

func complexity(c aggregate.CorpusSummary, series aggregate.Series) Section {
	s := Section{Title: TitleComplexity, Lines: []string{
		fmt.Sprintf("Average complexity score: %.1f/100", c.Complexity.Avg),
		fmt.Sprintf("Highest complexity score: %.1f/100", c.Complexity.Max),
		fmt.Sprintf("Lowest complexity score: %.1f/100", c.Complexity.Min),
	}}
	t := &Table{Headers: []string{"Score Range", "Prompts"}}
	chart := &Chart{}
	for _, b := range series.ComplexityHistogram {
		label := fmt.Sprintf("%g-%g", b.Low, b.High)
		t.Rows = append(t.Rows, []string{label, fmt.Sprintf("%d", b.Count)})
		chart.Labels = append(chart.Labels, label)
		chart.Values = append(chart.Values, float64(b.Count))
	}
	s.Table = t
	s.Chart = chart
	return s
}

func timeAnalysis(ts aggregate.TimeStats) Section {
	s := Section{Title: TitleTime}
	if ts.Dated == 0 {
		s.Lines = []string{
			"No prompts carry a timestamp.",
			fmt.Sprintf("Undated prompts: %d", ts.Undated),
		}
		return s
	}
	s.Lines = []string{
		"First prompt: " + ts.First.Format(timeLayout),
		"Last prompt: " + ts.Last.Format(timeLayout),
		fmt.Sprintf("Time span: %d days", ts.SpanDays),
		fmt.Sprintf("Active days: %d", ts.ActiveDays),
		fmt.Sprintf("Average prompts per day: %.1f", ts.PromptsPerDay),
	}
	if ts.Undated > 0 {
		s.Lines = append(s.Lines, fmt.Sprintf("Undated prompts: %d", ts.Undated))
	}
	t := &Table{Headers: []string{"Date", "Prompts", "Words", "Avg Words"}}
	chart := &Chart{}
	for _, d := range ts.Daily {
		t.Rows = append(t.Rows, []string{d.Date, fmt.Sprintf("%d", d.Count), fmt.Sprintf("%d", d.Words), fmt.Sprintf("%.1f", d.AvgWords)})
		chart.Labels = append(chart.Labels, d.Date)
		chart.Values = append(chart.Values, float64(d.Count))
	}
	s.Table = t
	s.Chart = chart
	return s
}

func rejected(n int) Section {
	if n == 0 {
		return Section{Title: TitleRejected, Lines: []string{"No records were rejected."}}
	}
	return Section{Title: TitleRejected, Lines: []string{
		fmt.Sprintf("%d malformed record(s) without text were skipped.", n),
	}}
}

func pointChart(points []aggregate.Point) *Chart {
	c := &Chart{}
	for _, p := range points {
		c.Labels = append(c.Labels, p.Label)
		c.Values = append(c.Values, p.Value)
	}
	return c
}

// Section returns the first section with the given title.
func (r Report) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}
