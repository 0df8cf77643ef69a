// Package engine runs the batch analysis: it validates ingested records,
// classifies and scores every prompt, folds per-workspace and corpus
// summaries, ranks workspaces and derives chart series.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/promptlens/internal/aggregate"
	"github.com/blackwell-systems/promptlens/internal/classify"
	"github.com/blackwell-systems/promptlens/internal/complexity"
	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/prompt"
	"github.com/blackwell-systems/promptlens/internal/tokens"
)

// fingerprintSpace namespaces run fingerprints.
var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/blackwell-systems/promptlens/run"))

// ctxCheckInterval is how many records are processed between context checks.
const ctxCheckInterval = 256

// Result is the output of one analysis run.
type Result struct {
	Corpus  aggregate.CorpusSummary     `json:"corpus" yaml:"corpus"`
	Ranking []aggregate.RankedWorkspace `json:"ranking" yaml:"ranking"`
	Series  aggregate.Series            `json:"series" yaml:"series"`

	// Fingerprint identifies the analysed content: identical input yields
	// an identical fingerprint.
	Fingerprint uuid.UUID `json:"fingerprint" yaml:"fingerprint"`
}

// Engine is a configured analysis pipeline. It is safe for concurrent use.
type Engine struct {
	classifier  *classify.Classifier
	scorer      *complexity.Scorer
	tokens      tokens.Counter
	loc         *time.Location
	bins        int
	parallelism int
	logger      zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTokenCounter enables per-prompt token counts.
func WithTokenCounter(c tokens.Counter) Option {
	return func(e *Engine) {
		if c != nil {
			e.tokens = c
		}
	}
}

// WithParallelism bounds how many workspaces are analysed at once.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New validates cfg and builds an engine. Configuration problems are
// reported as errors wrapping config.ErrConfiguration before any record is
// touched.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	classifier, err := classify.New(cfg.Categories)
	if err != nil {
		return nil, err
	}
	scorer, err := complexity.New(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		classifier:  classifier,
		scorer:      scorer,
		tokens:      tokens.Nop{},
		loc:         cfg.Location(),
		bins:        cfg.Analysis.HistogramBins,
		parallelism: cfg.Analysis.Parallelism,
		logger:      logger,
	}
	if e.parallelism <= 0 {
		e.parallelism = 1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Analyze classifies and scores a single record.
func (e *Engine) Analyze(rec prompt.Record) (prompt.Classified, complexity.Breakdown) {
	categories := e.classifier.Classify(rec.Text)
	b := e.scorer.ScoreRecord(rec, categories)
	return prompt.Classified{
		Record:     rec,
		Categories: categories,
		Complexity: b.Score,
		Words:      prompt.WordCount(rec.Text),
		Chars:      prompt.CharCount(rec.Text),
		Tokens:     e.tokens.Count(rec.Text),
	}, b
}

// Run analyses every workspace. Malformed records are logged, counted and
// skipped; they never abort the run. A cancelled context aborts the run and
// no partial result is returned.
func (e *Engine) Run(ctx context.Context, inputs []prompt.WorkspaceInput) (*Result, error) {
	inputs, detached := e.splitDetached(inputs)
	summaries := make([]aggregate.WorkspaceSummary, len(inputs))
	rejected := make([]int, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i := range inputs {
		name := workspaceName(inputs[i].Name, i)
		g.Go(func() error {
			s, n, err := e.analyzeWorkspace(gctx, name, inputs[i])
			if err != nil {
				return err
			}
			summaries[i] = s
			rejected[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	totalRejected := detached
	for _, n := range rejected {
		totalRejected += n
	}

	corpus := aggregate.SummarizeCorpus(summaries, totalRejected)
	ranking := aggregate.Rank(corpus)
	res := &Result{
		Corpus:  corpus,
		Ranking: ranking,
		Series:  aggregate.BuildSeries(corpus, ranking, e.bins),
	}
	fp, err := fingerprint(res)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting result: %w", err)
	}
	res.Fingerprint = fp

	e.logger.Info().
		Int("workspaces", corpus.TotalWorkspaces).
		Int("prompts", corpus.TotalPrompts).
		Int("rejected", corpus.Rejected).
		Str("fingerprint", fp.String()).
		Msg("analysis complete")
	return res, nil
}

func (e *Engine) analyzeWorkspace(ctx context.Context, name string, in prompt.WorkspaceInput) (aggregate.WorkspaceSummary, int, error) {
	classified := make([]prompt.Classified, 0, len(in.Records))
	rejected := 0
	for i, raw := range in.Records {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return aggregate.WorkspaceSummary{}, 0, err
			}
		}
		if raw.WorkspaceID == "" {
			raw.WorkspaceID = in.ID
		}
		rec, err := prompt.Validate(raw)
		if err != nil {
			if !errors.Is(err, prompt.ErrMalformedRecord) {
				return aggregate.WorkspaceSummary{}, 0, err
			}
			rejected++
			e.logger.Warn().Err(err).Str("workspace", name).Int("index", i).Msg("skipping record")
			continue
		}
		c, _ := e.Analyze(rec)
		classified = append(classified, c)
	}

	s := aggregate.SummarizeWorkspace(name, in.ID, classified, e.loc)
	s.Sessions = aggregate.SummarizeSessions(in.Sessions)
	e.logger.Debug().
		Str("workspace", name).
		Int("prompts", s.PromptCount).
		Int("rejected", rejected).
		Msg("workspace analyzed")
	return s, rejected, nil
}

// splitDetached drops detached inputs, logging each of their records as
// rejected. It returns the remaining inputs and the rejected count.
func (e *Engine) splitDetached(inputs []prompt.WorkspaceInput) ([]prompt.WorkspaceInput, int) {
	kept := make([]prompt.WorkspaceInput, 0, len(inputs))
	rejected := 0
	for _, in := range inputs {
		if !in.Detached {
			kept = append(kept, in)
			continue
		}
		for _, raw := range in.Records {
			rejected++
			e.logger.Warn().Str("origin", raw.Origin).Msg("skipping unattributed record")
		}
	}
	return kept, rejected
}

// workspaceName returns the display name, numbering unnamed workspaces by
// their 1-based input position.
func workspaceName(name string, index int) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fmt.Sprintf("Workspace_%d", index+1)
}

// fingerprint hashes the ranking and corpus summary. Map keys are encoded in
// sorted order, so the bytes depend only on content.
func fingerprint(res *Result) (uuid.UUID, error) {
	data, err := json.Marshal(struct {
		Corpus  aggregate.CorpusSummary     `json:"corpus"`
		Ranking []aggregate.RankedWorkspace `json:"ranking"`
	}{res.Corpus, res.Ranking})
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewSHA1(fingerprintSpace, data), nil
}
