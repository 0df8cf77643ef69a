// Package app contains the Cobra command tree for promptlens.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/promptlens/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

// logger is configured before any subcommand runs.
var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "promptlens",
	Short: "Batch analysis of AI coding assistant prompts",
	Long: `promptlens reads the prompts you sent to an AI coding assistant, grouped by
workspace, classifies and scores each one, and reports per-workspace and
overall statistics, category shares, complexity and activity over time.

Run 'promptlens workspaces' to list the workspaces found on this machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		output.ConfigureColor(os.Stdout, flagNoColor)
		logger = newLogger(cmd.ErrOrStderr(), flagVerbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "promptlens", appVersion)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Use a subcommand:")
		fmt.Fprintln(out, "  analyze     Analyze prompts and write a report")
		fmt.Fprintln(out, "  workspaces  List discovered editor workspaces")
		fmt.Fprintln(out, "  classify    Classify and score a single prompt")
		fmt.Fprintln(out, "  history     List recorded analysis runs")
		fmt.Fprintln(out, "  config      Show or validate the configuration")
		fmt.Fprintln(out, "  doctor      Check that prompt sources are readable")
		return nil
	},
}

// Execute is the entry point called from main. An interrupt cancels the
// running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/promptlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
