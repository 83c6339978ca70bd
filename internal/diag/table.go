package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	denyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	askStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	allowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// titleCaser renders table headers as "Action" rather than requiring
	// every caller to capitalize its own header strings.
	titleCaser = cases.Title(language.English)
)

// colorEnabled honors NO_COLOR (https://no-color.org): any non-empty value
// disables lipgloss styling for piped/CI output.
func colorEnabled() bool {
	return os.Getenv("NO_COLOR") == ""
}

// Table renders a simple column-aligned table, coloring the "action"
// column by decision when color is enabled.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table to sb, widening each column to its longest cell.
func (t Table) Render() string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	for i, h := range t.Headers {
		cell := pad(titleCaser.String(h), widths[i])
		if colorEnabled() {
			cell = headerStyle.Render(cell)
		}
		sb.WriteString(cell)
		if i < len(t.Headers)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteByte('\n')

	for _, row := range t.Rows {
		for i, cell := range row {
			padded := pad(cell, widths[i])
			sb.WriteString(styleCell(i, cell, padded))
			if i < len(row)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// styleCell colors the first column ("action"/"decision") by value, and
// renders every other column dim when color is enabled — matching the
// teacher's emphasis-on-the-decision-column intent from its plain-text
// rule listing.
func styleCell(col int, raw, padded string) string {
	if !colorEnabled() {
		return padded
	}
	if col != 0 {
		return padded
	}
	switch raw {
	case "deny":
		return denyStyle.Render(padded)
	case "ask":
		return askStyle.Render(padded)
	case "allow":
		return allowStyle.Render(padded)
	default:
		return dimStyle.Render(padded)
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// PrintTable is a small convenience wrapper for CLI subcommands.
func PrintTable(headers []string, rows [][]string) {
	fmt.Print(Table{Headers: headers, Rows: rows}.Render())
}
