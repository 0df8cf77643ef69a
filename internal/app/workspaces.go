package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/output"
	"github.com/blackwell-systems/promptlens/internal/report"
	"github.com/blackwell-systems/promptlens/internal/source"
)

var workspacesFlagStorage string

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List discovered editor workspaces",
	Long: `List every workspace under the editor's workspaceStorage directory with
the index and name that 'promptlens analyze --workspace' accepts.`,
	RunE: runWorkspaces,
}

func init() {
	workspacesCmd.Flags().StringVar(&workspacesFlagStorage, "storage", "", "Override the editor's workspaceStorage directory")
	rootCmd.AddCommand(workspacesCmd)
}

func runWorkspaces(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	root := cfg.CursorStorage
	if workspacesFlagStorage != "" {
		root = workspacesFlagStorage
	}

	found, err := source.Discover(root)
	if err != nil {
		return fmt.Errorf("discovering workspaces: %w", err)
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		if found == nil {
			found = []source.Workspace{}
		}
		return report.JSON(out, found)
	}

	if len(found) == 0 {
		fmt.Fprintf(out, " No workspaces found in %s\n", root)
		return nil
	}

	fmt.Fprintln(out, output.Section(fmt.Sprintf("Workspaces (%d)", len(found))))
	fmt.Fprintln(out)
	tbl := output.NewTable("#", "Name", "ID", "Database", "Folder")
	withDB := 0
	for _, ws := range found {
		name := ws.Name
		if name == "" {
			name = output.StyleMuted.Render("(unnamed)")
		}
		db := output.StyleWarning.Render("missing")
		if ws.HasDB {
			db = output.StyleSuccess.Render("yes")
			withDB++
		}
		tbl.AddRow(fmt.Sprintf("%d", ws.Index), name, ws.ID, db, ws.Folder)
	}
	if err := tbl.Fprint(out); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n %s\n", output.StyleMuted.Render(fmt.Sprintf("%d of %d workspaces have a state database", withDB, len(found))))
	return nil
}
