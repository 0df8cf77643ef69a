package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/promptlens/internal/classify"
	"github.com/blackwell-systems/promptlens/internal/complexity"
	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/engine"
	"github.com/blackwell-systems/promptlens/internal/output"
	"github.com/blackwell-systems/promptlens/internal/prompt"
	"github.com/blackwell-systems/promptlens/internal/report"
	"github.com/blackwell-systems/promptlens/internal/tokens"
)

var (
	classifyFlagTokens   bool
	classifyFlagResponse int
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify and score a single prompt",
	Long: `Classify prints the categories and complexity breakdown of one prompt,
using the same configuration as 'analyze'. Without arguments the prompt is
read from stdin.`,
	Example: `  promptlens classify "fix the null pointer bug in the parser"
  pbpaste | promptlens classify --json`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyFlagTokens, "tokens", false, "Count model tokens (cl100k_base)")
	classifyCmd.Flags().IntVar(&classifyFlagResponse, "response-length", 0, "Length of the assistant's reply in characters")
	rootCmd.AddCommand(classifyCmd)
}

// classifyResult is the JSON-serializable result of the classify command.
type classifyResult struct {
	Categories []string             `json:"categories"`
	Words      int                  `json:"words"`
	Chars      int                  `json:"chars"`
	Tokens     int                  `json:"tokens,omitempty"`
	Breakdown  complexity.Breakdown `json:"breakdown"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no prompt text given")
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Output.Color {
		output.SetNoColor(true)
	}

	var opts []engine.Option
	if classifyFlagTokens || cfg.Analysis.CountTokens {
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

	c, b := eng.Analyze(prompt.Record{Text: text, ResponseLength: classifyFlagResponse})
	res := classifyResult{
		Categories: classify.Label(c.Categories),
		Words:      c.Words,
		Chars:      c.Chars,
		Tokens:     c.Tokens,
		Breakdown:  b,
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return report.JSON(out, res)
	}
	renderClassify(out, res)
	return nil
}

func renderClassify(w io.Writer, res classifyResult) {
	fmt.Fprintln(w, output.Section("Prompt"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s%s\n", output.StyleLabel.Render("Categories"), output.StyleBold.Render(strings.Join(res.Categories, ", ")))
	fmt.Fprintf(w, " %s%d\n", output.StyleLabel.Render("Words"), res.Words)
	fmt.Fprintf(w, " %s%d\n", output.StyleLabel.Render("Characters"), res.Chars)
	if res.Tokens > 0 {
		fmt.Fprintf(w, " %s%d\n", output.StyleLabel.Render("Tokens"), res.Tokens)
	}

	fmt.Fprintln(w, output.Section("Complexity"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s%s\n", output.StyleLabel.Render("Score"), output.ScoreBar(res.Breakdown.Score, 20))
	for _, f := range []struct {
		name  string
		value float64
	}{
		{config.FactorLength, res.Breakdown.Length},
		{config.FactorTechnical, res.Breakdown.Technical},
		{config.FactorStructure, res.Breakdown.Structure},
		{config.FactorCategory, res.Breakdown.Category},
		{config.FactorResponse, res.Breakdown.Response},
	} {
		fmt.Fprintf(w, " %s%s\n", output.StyleLabel.Render("  "+f.name), output.StyleValue.Render(fmt.Sprintf("%.2f", f.value)))
	}
}
