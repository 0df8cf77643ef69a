package app

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/output"
	"github.com/blackwell-systems/promptlens/internal/report"
	"github.com/blackwell-systems/promptlens/internal/store"
)

var historyFlagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis runs",
	Long: `'promptlens analyze --record' stores a summary of each run in the history
database. A run whose prompts are unchanged since the last recorded run is
not recorded again.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run and compare it with the run before it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlagLimit, "limit", "n", 10, "Number of runs to list (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*store.DB, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := store.Open(cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return db, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), historyFlagLimit)
	if err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		if runs == nil {
			runs = []store.Run{}
		}
		return report.JSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, " No runs recorded. Run 'promptlens analyze --record' to record one.")
		return nil
	}

	fmt.Fprintln(out, output.Section(fmt.Sprintf("History (%d runs)", len(runs))))
	fmt.Fprintln(out)
	tbl := output.NewTable("Run", "Taken", "Source", "Workspaces", "Prompts", "Avg words", "Avg complexity", "Fingerprint")
	for _, r := range runs {
		tbl.AddRow(
			fmt.Sprintf("#%d", r.ID),
			r.TakenAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			strconv.Itoa(r.Workspaces),
			strconv.Itoa(r.Prompts),
			fmt.Sprintf("%.1f", r.AvgWords),
			fmt.Sprintf("%.1f", r.AvgComplexity),
			shortFingerprint(r.Fingerprint),
		)
	}
	return tbl.Fprint(out)
}

// historyDetail is the JSON-serializable result of history show.
type historyDetail struct {
	Run        store.Run            `json:"run"`
	Workspaces []store.WorkspaceRun `json:"workspaces"`
	Diff       *store.RunDiff       `json:"diff,omitempty"`
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	var run *store.Run
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		run, err = db.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run #%d not found", id)
		}
	} else {
		run, err = db.LatestRun(ctx)
		if err != nil {
			return err
		}
		if run == nil {
			return errors.New("no runs recorded")
		}
	}

	workspaces, err := db.GetWorkspaceRuns(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("loading workspaces for run #%d: %w", run.ID, err)
	}
	if workspaces == nil {
		workspaces = []store.WorkspaceRun{}
	}
	prev, err := db.PreviousRun(ctx, run.ID)
	if err != nil {
		return err
	}

	detail := historyDetail{Run: *run, Workspaces: workspaces}
	if prev != nil {
		diff := store.Compare(prev, run)
		detail.Diff = &diff
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return report.JSON(out, detail)
	}
	return renderHistoryDetail(out, detail)
}

func renderHistoryDetail(w io.Writer, d historyDetail) error {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Run #%d", d.Run.ID)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Taken at %s from %s\n", d.Run.TakenAt.Local().Format("2006-01-02 15:04:05"), d.Run.Source)
	fmt.Fprintf(w, " %s\n\n", output.StyleMuted.Render("fingerprint "+d.Run.Fingerprint))

	if len(d.Workspaces) > 0 {
		tbl := output.NewTable("Rank", "Workspace", "Prompts", "Words", "Avg complexity")
		for _, ws := range d.Workspaces {
			tbl.AddRow(
				strconv.Itoa(ws.Rank),
				ws.Workspace,
				strconv.Itoa(ws.Prompts),
				strconv.Itoa(ws.Words),
				fmt.Sprintf("%.1f", ws.AvgComplexity),
			)
		}
		if err := tbl.Fprint(w); err != nil {
			return err
		}
	}

	if d.Diff == nil {
		fmt.Fprintln(w, "\n First recorded run; nothing to compare against.")
		return nil
	}

	fmt.Fprintln(w, output.Section(fmt.Sprintf("Compared with run #%d (%s)",
		d.Diff.Previous.ID, d.Diff.Previous.TakenAt.Local().Format("2006-01-02 15:04"))))
	fmt.Fprintln(w)
	tbl := output.NewTable("Metric", "Previous", "Current", "Delta", "Trend")
	for _, delta := range d.Diff.Deltas {
		tbl.AddRow(
			delta.Name,
			fmt.Sprintf("%.1f", delta.Previous),
			fmt.Sprintf("%.1f", delta.Current),
			fmt.Sprintf("%+.1f", delta.Delta),
			output.DeltaArrow(delta.Delta),
		)
	}
	return tbl.Fprint(w)
}

func shortFingerprint(fp string) string {
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}
