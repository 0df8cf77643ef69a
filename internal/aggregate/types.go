// Package aggregate folds classified prompts into per-workspace summaries,
// folds those into a corpus summary, ranks workspaces and derives the
// numeric series used for charts.
package aggregate

import (
	"time"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// ComplexityStats describes a distribution of complexity scores. Sum is kept
// so higher levels can recompute the average from totals.
type ComplexityStats struct {
	Count int     `json:"count" yaml:"count"`
	Sum   float64 `json:"sum" yaml:"sum"`
	Avg   float64 `json:"avg" yaml:"avg"`
	Max   float64 `json:"max" yaml:"max"`
	Min   float64 `json:"min" yaml:"min"`
}

// DayCount is the activity of one calendar day.
type DayCount struct {
	Date     string  `json:"date" yaml:"date"` // 2006-01-02
	Count    int     `json:"count" yaml:"count"`
	Words    int     `json:"words" yaml:"words"`
	AvgWords float64 `json:"avg_words" yaml:"avg_words"`
}

// TimeStats covers prompts that carry a timestamp. Undated prompts are only
// counted in Undated.
type TimeStats struct {
	Dated         int        `json:"dated" yaml:"dated"`
	Undated       int        `json:"undated" yaml:"undated"`
	First         time.Time  `json:"first" yaml:"first"`
	Last          time.Time  `json:"last" yaml:"last"`
	SpanDays      int        `json:"span_days" yaml:"span_days"`
	ActiveDays    int        `json:"active_days" yaml:"active_days"`
	PromptsPerDay float64    `json:"prompts_per_day" yaml:"prompts_per_day"`
	Daily         []DayCount `json:"daily" yaml:"daily"`
}

// SessionStats summarizes tracked working sessions.
type SessionStats struct {
	Count        int     `json:"count" yaml:"count"`
	TotalSeconds float64 `json:"total_seconds" yaml:"total_seconds"`
	AvgSeconds   float64 `json:"avg_seconds" yaml:"avg_seconds"`
}

// WorkspaceSummary is the fold of one workspace's classified prompts.
type WorkspaceSummary struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`

	PromptCount int     `json:"prompt_count" yaml:"prompt_count"`
	TotalWords  int     `json:"total_words" yaml:"total_words"`
	AvgWords    float64 `json:"avg_words" yaml:"avg_words"`
	MaxWords    int     `json:"max_words" yaml:"max_words"`
	MinWords    int     `json:"min_words" yaml:"min_words"`
	TotalChars  int     `json:"total_chars" yaml:"total_chars"`
	AvgChars    float64 `json:"avg_chars" yaml:"avg_chars"`
	TotalTokens int     `json:"total_tokens,omitempty" yaml:"total_tokens,omitempty"`

	// CategoryCounts counts explicit categories; a prompt with two categories
	// increments both, so the counts may sum to more than PromptCount.
	CategoryCounts map[string]int `json:"category_counts" yaml:"category_counts"`

	// Uncategorized counts prompts without any explicit category.
	Uncategorized int `json:"uncategorized" yaml:"uncategorized"`

	Complexity ComplexityStats `json:"complexity" yaml:"complexity"`
	Time       TimeStats       `json:"time" yaml:"time"`
	Sessions   SessionStats    `json:"sessions" yaml:"sessions"`

	Prompts []prompt.Classified `json:"-" yaml:"-"`
}

// CategoryShare is a category's count as a percentage of all prompts.
type CategoryShare struct {
	Name    string  `json:"name" yaml:"name"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// CorpusSummary is the fold of every workspace in one run.
type CorpusSummary struct {
	Workspaces []WorkspaceSummary `json:"workspaces" yaml:"workspaces"`

	TotalWorkspaces int     `json:"total_workspaces" yaml:"total_workspaces"`
	TotalPrompts    int     `json:"total_prompts" yaml:"total_prompts"`
	TotalWords      int     `json:"total_words" yaml:"total_words"`
	AvgWords        float64 `json:"avg_words" yaml:"avg_words"`
	MaxWords        int     `json:"max_words" yaml:"max_words"`
	MinWords        int     `json:"min_words" yaml:"min_words"`
	TotalChars      int     `json:"total_chars" yaml:"total_chars"`
	AvgChars        float64 `json:"avg_chars" yaml:"avg_chars"`
	TotalTokens     int     `json:"total_tokens,omitempty" yaml:"total_tokens,omitempty"`
	AvgTokens       float64 `json:"avg_tokens,omitempty" yaml:"avg_tokens,omitempty"`

	CategoryCounts map[string]int  `json:"category_counts" yaml:"category_counts"`
	Uncategorized  int             `json:"uncategorized" yaml:"uncategorized"`
	CategoryShares []CategoryShare `json:"category_shares" yaml:"category_shares"`

	Complexity ComplexityStats `json:"complexity" yaml:"complexity"`
	Time       TimeStats       `json:"time" yaml:"time"`
	Sessions   SessionStats    `json:"sessions" yaml:"sessions"`

	// Rejected counts malformed records skipped during ingestion.
	Rejected int `json:"rejected" yaml:"rejected"`
}

// RankedWorkspace is one row of the workspace comparison table.
type RankedWorkspace struct {
	Rank          int     `json:"rank" yaml:"rank"`
	Name          string  `json:"name" yaml:"name"`
	ID            string  `json:"id,omitempty" yaml:"id,omitempty"`
	PromptCount   int     `json:"prompt_count" yaml:"prompt_count"`
	TotalWords    int     `json:"total_words" yaml:"total_words"`
	AvgWords      float64 `json:"avg_words" yaml:"avg_words"`
	MaxWords      int     `json:"max_words" yaml:"max_words"`
	AvgComplexity float64 `json:"avg_complexity" yaml:"avg_complexity"`
	Share         float64 `json:"share" yaml:"share"`
}

// Point is a labelled value in a chart series.
type Point struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Bin is one complexity histogram bucket, [Low, High).
type Bin struct {
	Low   float64 `json:"low" yaml:"low"`
	High  float64 `json:"high" yaml:"high"`
	Count int     `json:"count" yaml:"count"`
}

// Series holds the chart data derived from a corpus.
type Series struct {
	PromptsPerDay          []DayCount `json:"prompts_per_day" yaml:"prompts_per_day"`
	PromptsPerWorkspace    []Point    `json:"prompts_per_workspace" yaml:"prompts_per_workspace"`
	ComplexityPerWorkspace []Point    `json:"complexity_per_workspace" yaml:"complexity_per_workspace"`
	Categories             []Point    `json:"categories" yaml:"categories"`
	ComplexityHistogram    []Bin      `json:"complexity_histogram" yaml:"complexity_histogram"`
}
