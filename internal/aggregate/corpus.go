package aggregate

import (
	"math"
	"sort"

	"github.com/blackwell-systems/promptlens/internal/config"
)

// SummarizeCorpus folds workspace summaries into corpus totals. Averages are
// recomputed from the summed totals, never averaged across workspaces, and
// extrema only consider workspaces that have prompts. rejected is the number
// of malformed records dropped at ingestion.
func SummarizeCorpus(workspaces []WorkspaceSummary, rejected int) CorpusSummary {
	c := CorpusSummary{
		Workspaces:      workspaces,
		TotalWorkspaces: len(workspaces),
		CategoryCounts:  make(map[string]int),
		Rejected:        rejected,
	}

	days := make(map[string]*DayCount)
	seenPrompts := false
	for _, ws := range workspaces {
		c.TotalPrompts += ws.PromptCount
		c.TotalWords += ws.TotalWords
		c.TotalChars += ws.TotalChars
		c.TotalTokens += ws.TotalTokens
		c.Uncategorized += ws.Uncategorized
		for name, n := range ws.CategoryCounts {
			c.CategoryCounts[name] += n
		}
		c.Complexity.merge(ws.Complexity)
		c.Sessions.merge(ws.Sessions)

		if ws.PromptCount > 0 {
			if !seenPrompts || ws.MaxWords > c.MaxWords {
				c.MaxWords = ws.MaxWords
			}
			if !seenPrompts || ws.MinWords < c.MinWords {
				c.MinWords = ws.MinWords
			}
			seenPrompts = true
		}

		c.Time.Dated += ws.Time.Dated
		c.Time.Undated += ws.Time.Undated
		if ws.Time.Dated > 0 {
			if c.Time.First.IsZero() || ws.Time.First.Before(c.Time.First) {
				c.Time.First = ws.Time.First
			}
			if c.Time.Last.IsZero() || ws.Time.Last.After(c.Time.Last) {
				c.Time.Last = ws.Time.Last
			}
		}
		for _, d := range ws.Time.Daily {
			agg, ok := days[d.Date]
			if !ok {
				agg = &DayCount{Date: d.Date}
				days[d.Date] = agg
			}
			agg.Count += d.Count
			agg.Words += d.Words
		}
	}

	if c.TotalPrompts > 0 {
		c.AvgWords = float64(c.TotalWords) / float64(c.TotalPrompts)
		c.AvgChars = float64(c.TotalChars) / float64(c.TotalPrompts)
		c.AvgTokens = float64(c.TotalTokens) / float64(c.TotalPrompts)
	}
	c.Complexity.finish()
	c.Sessions.finish()

	daily := make([]DayCount, 0, len(days))
	for _, d := range days {
		daily = append(daily, *d)
	}
	c.Time.Daily = sortDays(daily)
	c.Time.finish()

	c.CategoryShares = categoryShares(c.CategoryCounts, c.Uncategorized, c.TotalPrompts)
	return c
}

// categoryShares lists categories with a non-zero count, "general" standing
// in for uncategorized prompts, ordered by count descending then name.
func categoryShares(counts map[string]int, uncategorized, total int) []CategoryShare {
	shares := make([]CategoryShare, 0, len(counts)+1)
	add := func(name string, n int) {
		if n <= 0 {
			return
		}
		share := CategoryShare{Name: name, Count: n}
		if total > 0 {
			share.Percent = float64(n) * 100 / float64(total)
		}
		shares = append(shares, share)
	}
	for name, n := range counts {
		add(name, n)
	}
	add(config.GeneralCategory, uncategorized)

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// Rank orders workspaces for the comparison table: prompt count descending,
// ties broken by name then ID ascending.
func Rank(c CorpusSummary) []RankedWorkspace {
	rows := make([]RankedWorkspace, 0, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		row := RankedWorkspace{
			Name:          ws.Name,
			ID:            ws.ID,
			PromptCount:   ws.PromptCount,
			TotalWords:    ws.TotalWords,
			AvgWords:      ws.AvgWords,
			MaxWords:      ws.MaxWords,
			AvgComplexity: ws.Complexity.Avg,
		}
		if c.TotalPrompts > 0 {
			row.Share = float64(ws.PromptCount) * 100 / float64(c.TotalPrompts)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.PromptCount != b.PromptCount {
			return a.PromptCount > b.PromptCount
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// BuildSeries derives the chart series. bins is the number of equal-width
// complexity buckets over [0, 100]; a score of exactly 100 lands in the last.
// A corpus without prompts has no histogram buckets.
func BuildSeries(c CorpusSummary, ranking []RankedWorkspace, bins int) Series {
	if bins <= 0 {
		bins = 1
	}
	if c.TotalPrompts == 0 {
		bins = 0
	}
	s := Series{
		PromptsPerDay:          append([]DayCount(nil), c.Time.Daily...),
		PromptsPerWorkspace:    make([]Point, 0, len(ranking)),
		ComplexityPerWorkspace: make([]Point, 0, len(ranking)),
		Categories:             make([]Point, 0, len(c.CategoryShares)),
		ComplexityHistogram:    make([]Bin, bins),
	}
	for _, r := range ranking {
		s.PromptsPerWorkspace = append(s.PromptsPerWorkspace, Point{Label: r.Name, Value: float64(r.PromptCount)})
		s.ComplexityPerWorkspace = append(s.ComplexityPerWorkspace, Point{Label: r.Name, Value: r.AvgComplexity})
	}
	for _, share := range c.CategoryShares {
		s.Categories = append(s.Categories, Point{Label: share.Name, Value: float64(share.Count)})
	}

	for i := range s.ComplexityHistogram {
		s.ComplexityHistogram[i].Low = float64(i) * 100 / float64(bins)
		s.ComplexityHistogram[i].High = float64(i+1) * 100 / float64(bins)
	}
	for _, ws := range c.Workspaces {
		for _, p := range ws.Prompts {
			s.ComplexityHistogram[binIndex(p.Complexity, bins)].Count++
		}
	}
	return s
}

func binIndex(score float64, bins int) int {
	idx := int(math.Floor(score * float64(bins) / 100))
	if idx < 0 {
		return 0
	}
	if idx >= bins {
		return bins - 1
	}
	return idx
}
