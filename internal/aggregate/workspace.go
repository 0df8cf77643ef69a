package aggregate

import (
	"sort"
	"time"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// dayLayout keys daily buckets.
const dayLayout = "2006-01-02"

// SummarizeWorkspace folds one workspace's classified prompts in a single
// pass. An empty workspace yields a zero-valued summary. Timestamps are
// bucketed by calendar day in loc (UTC when nil).
func SummarizeWorkspace(name, id string, prompts []prompt.Classified, loc *time.Location) WorkspaceSummary {
	if loc == nil {
		loc = time.UTC
	}
	s := WorkspaceSummary{
		Name:           name,
		ID:             id,
		PromptCount:    len(prompts),
		CategoryCounts: make(map[string]int),
		Prompts:        prompts,
	}
	if len(prompts) == 0 {
		return s
	}

	days := make(map[string]*DayCount)
	scores := make([]float64, 0, len(prompts))
	for i, p := range prompts {
		s.TotalWords += p.Words
		s.TotalChars += p.Chars
		s.TotalTokens += p.Tokens
		if i == 0 || p.Words > s.MaxWords {
			s.MaxWords = p.Words
		}
		if i == 0 || p.Words < s.MinWords {
			s.MinWords = p.Words
		}

		if len(p.Categories) == 0 {
			s.Uncategorized++
		}
		for _, c := range p.Categories {
			s.CategoryCounts[c]++
		}

		scores = append(scores, p.Complexity)

		if !p.HasTimestamp() {
			s.Time.Undated++
			continue
		}
		ts := p.Timestamp.In(loc)
		s.Time.Dated++
		if s.Time.First.IsZero() || ts.Before(s.Time.First) {
			s.Time.First = ts
		}
		if s.Time.Last.IsZero() || ts.After(s.Time.Last) {
			s.Time.Last = ts
		}
		key := ts.Format(dayLayout)
		d, ok := days[key]
		if !ok {
			d = &DayCount{Date: key}
			days[key] = d
		}
		d.Count++
		d.Words += p.Words
	}

	s.AvgWords = float64(s.TotalWords) / float64(s.PromptCount)
	s.AvgChars = float64(s.TotalChars) / float64(s.PromptCount)

	// Summing in sorted order keeps Sum bit-identical for any input order.
	sort.Float64s(scores)
	for _, score := range scores {
		s.Complexity.add(score)
	}
	s.Complexity.finish()

	daily := make([]DayCount, 0, len(days))
	for _, d := range days {
		daily = append(daily, *d)
	}
	s.Time.Daily = sortDays(daily)
	s.Time.finish()
	return s
}

func (c *ComplexityStats) add(score float64) {
	if c.Count == 0 || score > c.Max {
		c.Max = score
	}
	if c.Count == 0 || score < c.Min {
		c.Min = score
	}
	c.Count++
	c.Sum += score
}

// merge folds another distribution in, ignoring empty ones so their zero
// extrema do not leak into the result.
func (c *ComplexityStats) merge(o ComplexityStats) {
	if o.Count == 0 {
		return
	}
	if c.Count == 0 || o.Max > c.Max {
		c.Max = o.Max
	}
	if c.Count == 0 || o.Min < c.Min {
		c.Min = o.Min
	}
	c.Count += o.Count
	c.Sum += o.Sum
}

func (c *ComplexityStats) finish() {
	if c.Count > 0 {
		c.Avg = c.Sum / float64(c.Count)
	} else {
		c.Avg = 0
	}
}

// finish derives span, active days and rate from First, Last and Daily.
func (t *TimeStats) finish() {
	t.ActiveDays = len(t.Daily)
	for i := range t.Daily {
		if t.Daily[i].Count > 0 {
			t.Daily[i].AvgWords = float64(t.Daily[i].Words) / float64(t.Daily[i].Count)
		}
	}
	if t.Dated == 0 {
		t.SpanDays = 0
		t.PromptsPerDay = 0
		return
	}
	t.SpanDays = int(t.Last.Sub(t.First).Hours() / 24)
	if t.SpanDays > 0 {
		t.PromptsPerDay = float64(t.Dated) / float64(t.SpanDays)
	} else {
		t.PromptsPerDay = float64(t.Dated)
	}
}

// sortDays orders buckets by date ascending; dates are unique keys.
func sortDays(days []DayCount) []DayCount {
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}

// SummarizeSessions folds tracked sessions. Sessions of unknown length are
// counted with zero duration.
func SummarizeSessions(sessions []prompt.Session) SessionStats {
	var st SessionStats
	var total time.Duration
	for _, s := range sessions {
		st.Count++
		total += s.Length()
	}
	st.TotalSeconds = total.Seconds()
	st.finish()
	return st
}

func (st *SessionStats) merge(other SessionStats) {
	st.Count += other.Count
	st.TotalSeconds += other.TotalSeconds
}

func (st *SessionStats) finish() {
	st.AvgSeconds = 0
	if st.Count > 0 {
		st.AvgSeconds = st.TotalSeconds / float64(st.Count)
	}
}
