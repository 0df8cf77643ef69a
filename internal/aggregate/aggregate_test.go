package aggregate

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

func classified(text string, score float64, ts time.Time, categories ...string) prompt.Classified {
	return prompt.Classified{
		Record:     prompt.Record{Text: text, Timestamp: ts},
		Categories: categories,
		Complexity: score,
		Words:      prompt.WordCount(text),
		Chars:      prompt.CharCount(text),
	}
}

func day(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// stripPrompts drops the owned prompt lists so summaries built from
// differently ordered inputs can be compared field by field.
func stripPrompts(ws []WorkspaceSummary) []WorkspaceSummary {
	out := make([]WorkspaceSummary, len(ws))
	for i, w := range ws {
		w.Prompts = nil
		out[i] = w
	}
	return out
}

func TestSummarizeWorkspace_Scenario(t *testing.T) {
	prompts := []prompt.Classified{
		classified("fix the null pointer bug", 51.8, time.Time{}, "code", "debugging"),
		classified("add a new button", 20, time.Time{}, "feature"),
	}
	s := SummarizeWorkspace("A", "a", prompts, nil)

	assert.Equal(t, 2, s.PromptCount)
	assert.Equal(t, 9, s.TotalWords)
	assert.Equal(t, 4.5, s.AvgWords)
	assert.Equal(t, 5, s.MaxWords)
	assert.Equal(t, 4, s.MinWords)
	assert.Equal(t, map[string]int{"code": 1, "debugging": 1, "feature": 1}, s.CategoryCounts)
	assert.Equal(t, 0, s.Uncategorized)
	assert.Equal(t, 2, s.Complexity.Count)
	assert.InDelta(t, 35.9, s.Complexity.Avg, 1e-9)
	assert.Equal(t, 51.8, s.Complexity.Max)
	assert.Equal(t, 20.0, s.Complexity.Min)
	assert.Equal(t, 2, s.Time.Undated)
	assert.Equal(t, 0, s.Time.Dated)
	assert.Equal(t, 0.0, s.Time.PromptsPerDay)
}

func TestSummarizeWorkspace_Empty(t *testing.T) {
	s := SummarizeWorkspace("empty", "", nil, nil)

	assert.Equal(t, 0, s.PromptCount)
	assert.Equal(t, 0, s.TotalWords)
	assert.Equal(t, 0.0, s.AvgWords)
	assert.Equal(t, 0, s.MaxWords)
	assert.Equal(t, 0, s.MinWords)
	assert.Equal(t, 0.0, s.AvgChars)
	assert.NotNil(t, s.CategoryCounts)
	assert.Empty(t, s.CategoryCounts)
	assert.Equal(t, ComplexityStats{}, s.Complexity)
	assert.Empty(t, s.Time.Daily)
}

func TestSummarizeWorkspace_EmptyTextPrompt(t *testing.T) {
	s := SummarizeWorkspace("w", "", []prompt.Classified{classified("", 0, time.Time{})}, nil)
	assert.Equal(t, 1, s.PromptCount)
	assert.Equal(t, 0, s.TotalWords)
	assert.Equal(t, 0, s.MinWords)
	assert.Equal(t, 1, s.Uncategorized)
}

func TestSummarizeWorkspace_AverageTimesCountIsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"fix", "the", "bug", "in", "module", "please", "now"}
	for n := 1; n <= 40; n++ {
		prompts := make([]prompt.Classified, n)
		for i := range prompts {
			text := ""
			for k := rng.Intn(30); k > 0; k-- {
				text += words[rng.Intn(len(words))] + " "
			}
			prompts[i] = classified(text, rng.Float64()*100, time.Time{})
		}
		s := SummarizeWorkspace("w", "", prompts, nil)
		assert.InDelta(t, float64(s.TotalWords), s.AvgWords*float64(s.PromptCount), 1e-9)
	}
}

func TestSummarizeWorkspace_TimeBuckets(t *testing.T) {
	prompts := []prompt.Classified{
		classified("a b", 10, day("2024-03-01T09:00:00Z")),
		classified("c", 10, day("2024-03-01T18:00:00Z")),
		classified("d e f", 10, day("2024-03-05T10:00:00Z")),
		classified("undated", 10, time.Time{}),
	}
	s := SummarizeWorkspace("w", "", prompts, time.UTC)

	assert.Equal(t, 4, s.PromptCount)
	assert.Equal(t, 3, s.Time.Dated)
	assert.Equal(t, 1, s.Time.Undated)
	assert.Equal(t, day("2024-03-01T09:00:00Z"), s.Time.First)
	assert.Equal(t, day("2024-03-05T10:00:00Z"), s.Time.Last)
	assert.Equal(t, 4, s.Time.SpanDays)
	assert.Equal(t, 2, s.Time.ActiveDays)
	assert.InDelta(t, 0.75, s.Time.PromptsPerDay, 1e-9)
	assert.Equal(t, []DayCount{
		{Date: "2024-03-01", Count: 2, Words: 3, AvgWords: 1.5},
		{Date: "2024-03-05", Count: 1, Words: 3, AvgWords: 3},
	}, s.Time.Daily)
}

func TestSummarizeWorkspace_DayBucketsUseLocation(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	prompts := []prompt.Classified{classified("late", 1, day("2024-01-01T20:00:00Z"))}

	utc := SummarizeWorkspace("w", "", prompts, time.UTC)
	local := SummarizeWorkspace("w", "", prompts, tokyo)

	assert.Equal(t, "2024-01-01", utc.Time.Daily[0].Date)
	assert.Equal(t, "2024-01-02", local.Time.Daily[0].Date)
	assert.Equal(t, 1.0, local.Time.PromptsPerDay)
}

func TestSummarizeWorkspace_OrderInvariant(t *testing.T) {
	prompts := []prompt.Classified{
		classified("one two", 5, day("2024-03-02T09:00:00Z"), "code"),
		classified("three", 50, time.Time{}),
		classified("four five six", 75, day("2024-03-01T09:00:00Z"), "feature", "code"),
		classified("seven eight", 25, day("2024-03-02T11:00:00Z"), "debugging"),
	}
	want := stripPrompts([]WorkspaceSummary{SummarizeWorkspace("w", "", prompts, nil)})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]prompt.Classified(nil), prompts...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := stripPrompts([]WorkspaceSummary{SummarizeWorkspace("w", "", shuffled, nil)})
		assert.Equal(t, want, got)
	}
}

func TestSummarizeCorpus_WeightedAverage(t *testing.T) {
	var big []prompt.Classified
	for i := 0; i < 10; i++ {
		big = append(big, classified("w w w w w w w w w w", 10, time.Time{}))
	}
	var long string
	for i := 0; i < 50; i++ {
		long += "word "
	}
	small := []prompt.Classified{classified(long, 90, time.Time{})}

	c := SummarizeCorpus([]WorkspaceSummary{
		SummarizeWorkspace("big", "", big, nil),
		SummarizeWorkspace("small", "", small, nil),
	}, 0)

	assert.Equal(t, 11, c.TotalPrompts)
	assert.Equal(t, 150, c.TotalWords)
	assert.InDelta(t, 150.0/11.0, c.AvgWords, 1e-9)
	assert.NotEqual(t, 30.0, c.AvgWords, "must not be the mean of per-workspace averages")
	assert.InDelta(t, 190.0/11.0, c.Complexity.Avg, 1e-9)
	assert.Equal(t, 90.0, c.Complexity.Max)
	assert.Equal(t, 10.0, c.Complexity.Min)
	assert.Equal(t, 50, c.MaxWords)
	assert.Equal(t, 10, c.MinWords)
}

func TestSummarizeCorpus_Empty(t *testing.T) {
	c := SummarizeCorpus(nil, 3)
	assert.Equal(t, 0, c.TotalWorkspaces)
	assert.Equal(t, 0, c.TotalPrompts)
	assert.Equal(t, 0.0, c.AvgWords)
	assert.Equal(t, 3, c.Rejected)
	assert.Empty(t, c.CategoryShares)
	assert.Empty(t, Rank(c))
}

func TestSummarizeCorpus_IgnoresEmptyWorkspaceExtrema(t *testing.T) {
	c := SummarizeCorpus([]WorkspaceSummary{
		SummarizeWorkspace("empty", "", nil, nil),
		SummarizeWorkspace("full", "", []prompt.Classified{
			classified("one two three", 40, time.Time{}),
			classified("one two three four", 60, time.Time{}),
		}, nil),
	}, 0)

	assert.Equal(t, 2, c.TotalWorkspaces)
	assert.Equal(t, 3, c.MinWords)
	assert.Equal(t, 4, c.MaxWords)
	assert.Equal(t, 40.0, c.Complexity.Min)
}

func TestSummarizeCorpus_PartitionInvariant(t *testing.T) {
	all := []prompt.Classified{
		classified("fix the bug", 60, day("2024-05-01T10:00:00Z"), "code", "debugging"),
		classified("add a button", 20, day("2024-05-02T10:00:00Z"), "feature"),
		classified("hello there", 5, time.Time{}),
		classified("explain channels please", 30, day("2024-05-01T12:00:00Z"), "explanation"),
		classified("refactor the parser module", 70, day("2024-05-04T08:00:00Z"), "refactoring"),
	}

	partitions := [][][]prompt.Classified{
		{all},
		{all[:2], all[2:]},
		{all[:1], all[1:3], all[3:], nil},
		{all[4:], all[:4]},
	}
	var want CorpusSummary
	for i, parts := range partitions {
		var summaries []WorkspaceSummary
		for j, p := range parts {
			summaries = append(summaries, SummarizeWorkspace(fmt.Sprintf("w%d", j), "", p, nil))
		}
		got := SummarizeCorpus(summaries, 0)

		var sumPrompts, sumWords int
		for _, ws := range summaries {
			sumPrompts += ws.PromptCount
			sumWords += ws.TotalWords
		}
		assert.Equal(t, sumPrompts, got.TotalPrompts)
		assert.Equal(t, sumWords, got.TotalWords)

		if i == 0 {
			want = got
			continue
		}
		assert.Equal(t, want.TotalPrompts, got.TotalPrompts)
		assert.Equal(t, want.TotalWords, got.TotalWords)
		assert.Equal(t, want.MaxWords, got.MaxWords)
		assert.Equal(t, want.MinWords, got.MinWords)
		assert.Equal(t, want.CategoryCounts, got.CategoryCounts)
		assert.Equal(t, want.CategoryShares, got.CategoryShares)
		assert.Equal(t, want.Complexity.Count, got.Complexity.Count)
		assert.InDelta(t, want.Complexity.Avg, got.Complexity.Avg, 1e-9)
		assert.Equal(t, want.Time, got.Time)
	}
}

func TestCategoryShares(t *testing.T) {
	c := SummarizeCorpus([]WorkspaceSummary{
		SummarizeWorkspace("w", "", []prompt.Classified{
			classified("a", 0, time.Time{}, "code", "debugging"),
			classified("b", 0, time.Time{}, "code"),
			classified("c", 0, time.Time{}),
			classified("d", 0, time.Time{}),
		}, nil),
	}, 0)

	require.Len(t, c.CategoryShares, 3)
	assert.Equal(t, CategoryShare{Name: "code", Count: 2, Percent: 50}, c.CategoryShares[0])
	assert.Equal(t, CategoryShare{Name: "general", Count: 2, Percent: 50}, c.CategoryShares[1])
	assert.Equal(t, CategoryShare{Name: "debugging", Count: 1, Percent: 25}, c.CategoryShares[2])
}

func TestRank_TieBreaksByName(t *testing.T) {
	one := []prompt.Classified{classified("x", 10, time.Time{})}
	two := []prompt.Classified{classified("x", 10, time.Time{}), classified("y", 30, time.Time{})}
	c := SummarizeCorpus([]WorkspaceSummary{
		SummarizeWorkspace("zeta", "", one, nil),
		SummarizeWorkspace("alpha", "", one, nil),
		SummarizeWorkspace("mid", "", two, nil),
		SummarizeWorkspace("alpha", "b", one, nil),
		SummarizeWorkspace("alpha", "a", one, nil),
	}, 0)

	ranked := Rank(c)
	require.Len(t, ranked, 5)
	var order []string
	for _, r := range ranked {
		order = append(order, r.Name+"/"+r.ID)
	}
	assert.Equal(t, []string{"mid/", "alpha/", "alpha/a", "alpha/b", "zeta/"}, order)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 5, ranked[4].Rank)
	assert.InDelta(t, 20.0, ranked[0].AvgComplexity, 1e-9)
	assert.InDelta(t, 100.0/3.0, ranked[0].Share, 1e-9)
}

func TestBuildSeries(t *testing.T) {
	c := SummarizeCorpus([]WorkspaceSummary{
		SummarizeWorkspace("a", "", []prompt.Classified{
			classified("x", 0, day("2024-01-02T00:00:00Z"), "code"),
			classified("x", 4.99, day("2024-01-01T00:00:00Z")),
		}, nil),
		SummarizeWorkspace("b", "", []prompt.Classified{
			classified("x", 5, day("2024-01-02T05:00:00Z"), "code"),
			classified("x", 100, time.Time{}),
			classified("x", 99.9, time.Time{}),
		}, nil),
	}, 0)
	s := BuildSeries(c, Rank(c), 20)

	require.Len(t, s.ComplexityHistogram, 20)
	assert.Equal(t, 2, s.ComplexityHistogram[0].Count)
	assert.Equal(t, 1, s.ComplexityHistogram[1].Count)
	assert.Equal(t, 2, s.ComplexityHistogram[19].Count)
	assert.Equal(t, 95.0, s.ComplexityHistogram[19].Low)
	assert.Equal(t, 100.0, s.ComplexityHistogram[19].High)

	assert.Equal(t, []Point{{Label: "b", Value: 3}, {Label: "a", Value: 2}}, s.PromptsPerWorkspace)
	assert.Equal(t, []Point{{Label: "general", Value: 3}, {Label: "code", Value: 2}}, s.Categories)
	require.Len(t, s.PromptsPerDay, 2)
	assert.Equal(t, "2024-01-01", s.PromptsPerDay[0].Date)
	assert.Equal(t, 2, s.PromptsPerDay[1].Count)
}

func TestBuildSeries_EmptyCorpusHasNoBins(t *testing.T) {
	c := SummarizeCorpus([]WorkspaceSummary{SummarizeWorkspace("empty", "", nil, nil)}, 2)
	s := BuildSeries(c, Rank(c), 20)
	assert.Empty(t, s.ComplexityHistogram)
	assert.Empty(t, s.PromptsPerDay)
	assert.Empty(t, s.Categories)
}

func TestSummarizeCorpus_AvgTokens(t *testing.T) {
	withTokens := func(text string, n int) prompt.Classified {
		p := classified(text, 10, time.Time{})
		p.Tokens = n
		return p
	}
	c := SummarizeCorpus([]WorkspaceSummary{
		SummarizeWorkspace("a", "", []prompt.Classified{withTokens("x", 10), withTokens("y", 20)}, nil),
		SummarizeWorkspace("b", "", []prompt.Classified{withTokens("z", 3)}, nil),
	}, 0)
	assert.Equal(t, 33, c.TotalTokens)
	assert.InDelta(t, 11.0, c.AvgTokens, 1e-9)

	assert.Equal(t, 0.0, SummarizeCorpus(nil, 0).AvgTokens)
}

func TestSummarizeSessions(t *testing.T) {
	start := day("2024-03-01T09:00:00Z")
	st := SummarizeSessions([]prompt.Session{
		{Start: start, End: start.Add(30 * time.Minute)},
		{Duration: 90 * time.Minute},
		{Start: start},
	})
	assert.Equal(t, 3, st.Count)
	assert.InDelta(t, 7200.0, st.TotalSeconds, 1e-9)
	assert.InDelta(t, 2400.0, st.AvgSeconds, 1e-9)

	assert.Equal(t, SessionStats{}, SummarizeSessions(nil))
}

func TestSummarizeCorpus_MergesSessions(t *testing.T) {
	a := SummarizeWorkspace("a", "", nil, nil)
	a.Sessions = SummarizeSessions([]prompt.Session{{Duration: time.Hour}})
	b := SummarizeWorkspace("b", "", nil, nil)
	b.Sessions = SummarizeSessions([]prompt.Session{{Duration: time.Hour}, {Duration: 2 * time.Hour}})

	c := SummarizeCorpus([]WorkspaceSummary{a, b}, 0)
	assert.Equal(t, 3, c.Sessions.Count)
	assert.InDelta(t, 14400.0, c.Sessions.TotalSeconds, 1e-9)
	assert.InDelta(t, 4800.0, c.Sessions.AvgSeconds, 1e-9)
}
