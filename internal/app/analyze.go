package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/engine"
	"github.com/blackwell-systems/promptlens/internal/output"
	"github.com/blackwell-systems/promptlens/internal/prompt"
	"github.com/blackwell-systems/promptlens/internal/report"
	"github.com/blackwell-systems/promptlens/internal/source"
	"github.com/blackwell-systems/promptlens/internal/store"
	"github.com/blackwell-systems/promptlens/internal/tokens"
)

// Source kinds accepted by --source.
const (
	sourceCursor  = "cursor"
	sourceTracker = "tracker"
	sourceJSONL   = "jsonl"
)

// Output formats accepted by --format.
const (
	formatTerminal = "terminal"
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

var (
	analyzeFlagSource     string
	analyzeFlagFile       string
	analyzeFlagStorage    string
	analyzeFlagWorkspaces []string
	analyzeFlagAll        bool
	analyzeFlagOutputDir  string
	analyzeFlagFormat     string
	analyzeFlagCharts     bool
	analyzeFlagTokens     bool
	analyzeFlagNoWrite    bool
	analyzeFlagRecord     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze prompts and write a report",
	Long: `Analyze reads prompts from a source, classifies and scores each one,
aggregates them per workspace and across all workspaces, and writes a
Markdown report plus chart series (CSV) to the output directory.

Sources:
  cursor   the editor's workspaceStorage; pick workspaces with --workspace
           (1-based index or name substring, repeatable) or use --all
  tracker  the manual tracker's projects.json (--file overrides the path)
  jsonl    an import file with one JSON object per line (--file required)`,
	Example: `  promptlens analyze --all
  promptlens analyze -w 2 -w api --charts
  promptlens analyze --source jsonl --file prompts.jsonl --format json --no-write`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlagSource, "source", sourceCursor, "Prompt source: cursor, tracker, jsonl")
	analyzeCmd.Flags().StringVar(&analyzeFlagFile, "file", "", "Input file for the tracker or jsonl source")
	analyzeCmd.Flags().StringVar(&analyzeFlagStorage, "storage", "", "Override the editor's workspaceStorage directory")
	analyzeCmd.Flags().StringSliceVarP(&analyzeFlagWorkspaces, "workspace", "w", nil, "Workspace index or name substring (can be repeated)")
	analyzeCmd.Flags().BoolVar(&analyzeFlagAll, "all", false, "Analyze every workspace")
	analyzeCmd.Flags().StringVar(&analyzeFlagOutputDir, "output-dir", "", "Directory for the report and chart series (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeFlagFormat, "format", formatTerminal, "Stdout format: terminal, markdown, json, yaml")
	analyzeCmd.Flags().BoolVar(&analyzeFlagCharts, "charts", false, "Render bar charts in terminal output")
	analyzeCmd.Flags().BoolVar(&analyzeFlagTokens, "tokens", false, "Count model tokens per prompt (cl100k_base)")
	analyzeCmd.Flags().BoolVar(&analyzeFlagNoWrite, "no-write", false, "Do not write report files")
	analyzeCmd.Flags().BoolVar(&analyzeFlagRecord, "record", false, "Record a summary of the run in the history database")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format := analyzeFlagFormat
	if flagJSON {
		format = formatJSON
	}
	switch format {
	case formatTerminal, formatMarkdown, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q (want terminal, markdown, json or yaml)", format)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Output.Color {
		output.SetNoColor(true)
	}

	src, desc, err := newSource(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	inputs, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, source.ErrNoSelection) {
			return fmt.Errorf("%w: pass --workspace <index|name> or --all (see 'promptlens workspaces')", err)
		}
		return fmt.Errorf("loading prompts: %w", err)
	}
	logger.Debug().Str("source", desc).Int("workspaces", len(inputs)).Msg("prompts loaded")

	var opts []engine.Option
	if analyzeFlagTokens || cfg.Analysis.CountTokens {
		counter, err := tokens.NewCL100K()
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithTokenCounter(counter))
	}

	eng, err := engine.New(cfg, logger, opts...)
	if err != nil {
		return err
	}
	res, err := eng.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("analyzing prompts: %w", err)
	}

	now := time.Now()
	rep := report.Build(res, report.Meta{GeneratedAt: now, Source: desc})

	if !analyzeFlagNoWrite {
		dir := cfg.OutputDir
		if analyzeFlagOutputDir != "" {
			dir = analyzeFlagOutputDir
		}
		path, err := report.WriteMarkdownFile(dir, rep, now)
		if err != nil {
			return err
		}
		if _, err := report.WriteSeriesCSV(filepath.Join(dir, report.SeriesDir), res.Series); err != nil {
			return fmt.Errorf("writing chart series: %w", err)
		}
		logger.Info().Str("report", path).Msg("report written")
	}
	if analyzeFlagRecord {
		recordRun(ctx, cfg.HistoryDB, res, desc, now)
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		return report.JSON(out, res)
	case formatYAML:
		return report.YAML(out, res)
	case formatMarkdown:
		_, err = fmt.Fprint(out, report.Markdown(rep))
		return err
	default:
		_, err = fmt.Fprintln(out, report.Terminal(rep, analyzeFlagCharts, chartWidth(cfg.Output.Width)))
		return err
	}
}

// recordRun stores a summary of the run in the history database. Failures
// are logged and do not fail the analysis.
func recordRun(ctx context.Context, dbPath string, res *engine.Result, desc string, at time.Time) {
	db, err := store.Open(dbPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", dbPath).Msg("opening history database")
		return
	}
	defer db.Close()

	run, workspaces := store.RunFromResult(res, desc, appVersion, at)
	id, recorded, err := db.RecordRun(ctx, run, workspaces)
	if err != nil {
		logger.Warn().Err(err).Msg("recording run")
		return
	}
	if !recorded {
		logger.Debug().Int64("run", id).Msg("prompts unchanged since last recorded run")
		return
	}
	logger.Debug().Int64("run", id).Msg("run recorded")
}

// newSource builds the prompt source selected by the analyze flags and a
// short description of it for the report.
func newSource(cfg *config.Config) (prompt.Source, string, error) {
	switch analyzeFlagSource {
	case sourceCursor:
		root := cfg.CursorStorage
		if analyzeFlagStorage != "" {
			root = analyzeFlagStorage
		}
		return source.NewCursor(root, analyzeFlagWorkspaces, analyzeFlagAll, logger), "cursor: " + root, nil
	case sourceTracker:
		path := cfg.TrackerFile
		if analyzeFlagFile != "" {
			path = analyzeFlagFile
		}
		return source.NewTracker(path), "tracker: " + path, nil
	case sourceJSONL:
		if analyzeFlagFile == "" {
			return nil, "", errors.New("--file is required for the jsonl source")
		}
		return source.NewJSONL(analyzeFlagFile), "jsonl: " + analyzeFlagFile, nil
	}
	return nil, "", fmt.Errorf("unknown source %q (want cursor, tracker or jsonl)", analyzeFlagSource)
}

// chartWidth leaves room for labels and values beside the bars.
func chartWidth(termWidth int) int {
	w := termWidth - 40
	if w < 10 {
		return 10
	}
	return w
}
