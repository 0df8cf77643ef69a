package report

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/promptlens/internal/output"
)

// Markdown renders r as a Markdown document. Charts are omitted; their data
// is written alongside as CSV.
func Markdown(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)

	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", s.Title)
		if s.Empty {
			sb.WriteString(NoData + "\n\n")
			continue
		}
		if len(s.Lines) > 0 {
			for _, line := range s.Lines {
				fmt.Fprintf(&sb, "- %s\n", line)
			}
			sb.WriteString("\n")
		}
		if s.Table != nil && len(s.Table.Rows) > 0 {
			writeMarkdownTable(&sb, s.Table)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeMarkdownTable(sb *strings.Builder, t *Table) {
	sb.WriteString("|")
	for _, h := range t.Headers {
		fmt.Fprintf(sb, " %s |", escapeCell(h))
	}
	sb.WriteString("\n|")
	for range t.Headers {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range t.Rows {
		sb.WriteString("|")
		for i := range t.Headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprintf(sb, " %s |", escapeCell(cell))
		}
		sb.WriteString("\n")
	}
}

// escapeCell keeps workspace names from breaking table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Terminal renders r with the output package's styles. When charts is set,
// sections with a chart also get a bar chart of chartWidth cells.
func Terminal(r Report, charts bool, chartWidth int) string {
	var sb strings.Builder
	sb.WriteString(" " + output.StyleHeader.Render(r.Title) + "\n")

	for _, s := range r.Sections {
		sb.WriteString(output.Section(s.Title))
		sb.WriteString("\n\n")
		if s.Empty {
			sb.WriteString(" " + output.StyleMuted.Render(NoData) + "\n")
			continue
		}
		for _, line := range s.Lines {
			label, value, ok := strings.Cut(line, ": ")
			if ok {
				sb.WriteString(" " + output.StyleMuted.Render(label+":") + " " + output.StyleBold.Render(value) + "\n")
			} else {
				sb.WriteString(" " + line + "\n")
			}
		}
		if s.Table != nil && len(s.Table.Rows) > 0 {
			if len(s.Lines) > 0 {
				sb.WriteString("\n")
			}
			tbl := output.NewTable(s.Table.Headers...)
			for _, row := range s.Table.Rows {
				tbl.AddRow(row...)
			}
			for _, line := range strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n") {
				sb.WriteString(" " + line + "\n")
			}
		}
		if charts && s.Chart != nil && len(s.Chart.Labels) > 0 {
			sb.WriteString("\n")
			sb.WriteString(output.BarChart(s.Chart.Labels, s.Chart.Values, chartWidth))
		}
	}
	return sb.String()
}
