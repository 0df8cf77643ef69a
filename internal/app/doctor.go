package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/output"
	"github.com/blackwell-systems/promptlens/internal/report"
	"github.com/blackwell-systems/promptlens/internal/source"
	"github.com/blackwell-systems/promptlens/internal/store"
	"github.com/blackwell-systems/promptlens/internal/tokens"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that prompt sources are readable",
	Long: `Run a series of health checks against your promptlens configuration and
prompt sources. Prints a pass/fail line for each check and a summary of how
many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []doctorCheck

	cfg, err := config.Load(flagConfig)
	if err != nil {
		// Later checks still run against the defaults.
		checks = append(checks, doctorCheck{Name: "Configuration", Message: err.Error()})
		cfg = config.Default()
	} else {
		checks = append(checks, doctorCheck{Name: "Configuration", Passed: true, Message: "valid"})
	}

	ctx := cmd.Context()
	checks = append(checks, checkStorage(cfg.CursorStorage))
	checks = append(checks, checkWorkspaceDatabases(ctx, cfg.CursorStorage)...)
	checks = append(checks, checkTracker(ctx, cfg.TrackerFile))
	checks = append(checks, checkOutputDir(cfg.OutputDir))
	checks = append(checks, checkHistory(ctx, cfg.HistoryDB))
	if cfg.Analysis.CountTokens {
		checks = append(checks, checkTokenizer())
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return report.JSON(out, doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Fprintln(out, output.Section("Doctor"))
	fmt.Fprintln(out)
	for _, c := range checks {
		renderDoctorCheck(out, c)
	}

	fmt.Fprintln(out)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(out, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(out, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(w io.Writer, c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Fprintf(w, "  %s  %-30s %s\n", indicator, label, detail)
}

// checkStorage verifies that the workspaceStorage directory exists.
func checkStorage(root string) doctorCheck {
	const name = "Workspace storage"
	info, err := os.Stat(root)
	if err != nil {
		return doctorCheck{Name: name, Message: fmt.Sprintf("not found: %s", root)}
	}
	if !info.IsDir() {
		return doctorCheck{Name: name, Message: fmt.Sprintf("path exists but is not a directory: %s", root)}
	}
	return doctorCheck{Name: name, Passed: true, Message: root}
}

// checkWorkspaceDatabases counts workspaces with a state database and the
// prompts they hold.
func checkWorkspaceDatabases(ctx context.Context, root string) []doctorCheck {
	found, err := source.Discover(root)
	if err != nil {
		return []doctorCheck{{Name: "Workspace databases", Message: err.Error()}}
	}
	withDB := 0
	for _, ws := range found {
		if ws.HasDB {
			withDB++
		}
	}
	dbCheck := doctorCheck{
		Name:    "Workspace databases",
		Passed:  withDB > 0,
		Message: fmt.Sprintf("%d of %d workspaces have a state database", withDB, len(found)),
	}
	if withDB == 0 {
		return []doctorCheck{dbCheck}
	}

	inputs, err := source.NewCursor(root, nil, true, logger).Load(ctx)
	if err != nil {
		return []doctorCheck{dbCheck, {Name: "Editor prompts", Message: err.Error()}}
	}
	prompts := 0
	for _, in := range inputs {
		prompts += len(in.Records)
	}
	return []doctorCheck{dbCheck, {
		Name:    "Editor prompts",
		Passed:  prompts > 0,
		Message: fmt.Sprintf("%d prompts in %d readable workspaces", prompts, len(inputs)),
	}}
}

// checkTracker verifies that the manual tracker store exists and parses.
func checkTracker(ctx context.Context, path string) doctorCheck {
	const name = "Tracker store"
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: name, Message: fmt.Sprintf("not found: %s", path)}
	}
	inputs, err := source.NewTracker(path).Load(ctx)
	if err != nil {
		return doctorCheck{Name: name, Message: fmt.Sprintf("parse error: %v", err)}
	}
	return doctorCheck{Name: name, Passed: true, Message: fmt.Sprintf("%d projects", len(inputs))}
}

// checkOutputDir verifies that reports can be written.
func checkOutputDir(dir string) doctorCheck {
	const name = "Output directory"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".promptlens-doctor-*")
	if err != nil {
		return doctorCheck{Name: name, Message: fmt.Sprintf("not writable: %v", err)}
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return doctorCheck{Name: name, Passed: true, Message: dir}
}

// checkHistory verifies that an existing run history database opens.
func checkHistory(ctx context.Context, path string) doctorCheck {
	const name = "History database"
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: name, Passed: true, Message: "no runs recorded"}
	}
	db, err := store.Open(path)
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	defer db.Close()
	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	return doctorCheck{Name: name, Passed: true, Message: fmt.Sprintf("%d recorded runs", len(runs))}
}

// checkTokenizer verifies that the token vocabulary loads.
func checkTokenizer() doctorCheck {
	c, err := tokens.NewCL100K()
	if err != nil {
		return doctorCheck{Name: "Tokenizer", Message: err.Error()}
	}
	return doctorCheck{Name: "Tokenizer", Passed: true, Message: fmt.Sprintf("cl100k_base (%d tokens in sample)", c.Count("hello world"))}
}
