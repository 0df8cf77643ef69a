package output

import (
	"fmt"
	"strings"
)

// ScoreBar renders a visual bar for a 0-100 complexity score. Higher scores
// are harder prompts and render warmer.
// Example: "████████░░ 80/100"
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := clampCells(int((score/100.0)*float64(width)), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score >= 70:
		style = func(s string) string { return StyleError.Render(s) }
	case score >= 40:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleSuccess.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// Bar renders value as a bar scaled against peak.
func Bar(value, peak float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if peak > 0 {
		filled = clampCells(int(value/peak*float64(width)+0.5), width)
	}
	return StyleSuccess.Render(strings.Repeat("█", filled)) + strings.Repeat(" ", width-filled)
}

// BarChart renders one labelled horizontal bar per value, scaled to the
// largest value. Labels and values are paired by index.
func BarChart(labels []string, values []float64, width int) string {
	n := len(labels)
	if len(values) < n {
		n = len(values)
	}
	if n == 0 {
		return ""
	}

	labelWidth, peak := 0, 0.0
	for i := 0; i < n; i++ {
		if w := visualLen(labels[i]); w > labelWidth {
			labelWidth = w
		}
		if values[i] > peak {
			peak = values[i]
		}
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(" ")
		sb.WriteString(pad(labels[i], labelWidth))
		sb.WriteString("  ")
		sb.WriteString(Bar(values[i], peak, width))
		sb.WriteString(" ")
		sb.WriteString(StyleMuted.Render(formatValue(values[i])))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func clampCells(n, width int) int {
	if n > width {
		return width
	}
	if n < 0 {
		return 0
	}
	return n
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// DeltaArrow returns a styled arrow for the sign of delta.
func DeltaArrow(delta float64) string {
	switch {
	case delta > 0:
		return StyleSuccess.Render("↑")
	case delta < 0:
		return StyleWarning.Render("↓")
	default:
		return StyleMuted.Render("→")
	}
}
