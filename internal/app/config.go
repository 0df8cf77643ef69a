package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/output"
	"github.com/blackwell-systems/promptlens/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or validate the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration promptlens would run with: defaults, the config
file and PROMPTLENS_* environment overrides merged. The output is a valid
config file.`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(config.ConfigDir(), config.DefaultConfigFile))
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(flagConfig); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), output.StyleSuccess.Render("configuration is valid"))
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		return report.JSON(out, cfg)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
