// Package console renders workflow run output: per-project status
// lines, a closing summary table, and styled messages, trimmed from
// the wider console package this module's teacher defines down to what
// a workflow runner needs to print. Trimmed from githubnext-gh-aw's
// pkg/console/console.go (FormatSuccessMessage/FormatErrorMessage/
// RenderTable and friends), swapping its pkg/tty terminal check (not
// present in this module) for the same mattn/go-isatty check
// pkg/logger already uses.
package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/AWeber-Imbi/imbi-automations/pkg/styles"
)

func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// FormatSuccess formats a completed-workflow line.
func FormatSuccess(message string) string {
	return applyStyle(styles.Success, "✓ ") + message
}

// FormatError formats a failed-workflow line.
func FormatError(message string) string {
	return applyStyle(styles.Error, "✗ ") + message
}

// FormatWarning formats a skipped-workflow line.
func FormatWarning(message string) string {
	return applyStyle(styles.Warning, "⚠ ") + message
}

// FormatInfo formats an informational status line.
func FormatInfo(message string) string {
	return applyStyle(styles.Info, "ℹ ") + message
}

// FormatProgress formats an in-flight action description.
func FormatProgress(message string) string {
	return applyStyle(styles.Progress, "→ ") + message
}

// FormatProjectLine formats a per-project run result: project name,
// styled by outcome, followed by a detail message.
func FormatProjectLine(project, outcome, detail string) string {
	name := applyStyle(styles.ProjectName, project)
	var line string
	switch outcome {
	case "success":
		line = FormatSuccess(name)
	case "skipped":
		line = FormatWarning(name)
	case "error":
		line = FormatError(name)
	default:
		line = FormatInfo(name)
	}
	if detail != "" {
		line += ": " + detail
	}
	return line
}

// SummaryRow is one row of a run summary table.
type SummaryRow struct {
	Project string
	Outcome string
	Detail  string
}

// RenderSummary renders a run's per-project outcomes as a table,
// followed by a totals line.
func RenderSummary(rows []SummaryRow) string {
	var out strings.Builder
	out.WriteString(applyStyle(styles.Header, "Run summary"))
	out.WriteString("\n")

	tableRows := make([][]string, len(rows))
	succeeded, failed, skipped := 0, 0, 0
	for i, r := range rows {
		tableRows[i] = []string{r.Project, r.Outcome, r.Detail}
		switch r.Outcome {
		case "success":
			succeeded++
		case "error":
			failed++
		case "skipped":
			skipped++
		}
	}

	styleFunc := func(row, col int) lipgloss.Style {
		if !isTTY() {
			return lipgloss.NewStyle()
		}
		if row == table.HeaderRow {
			return lipgloss.NewStyle().Bold(true)
		}
		return lipgloss.NewStyle()
	}

	t := table.New().
		Headers("Project", "Outcome", "Detail").
		Rows(tableRows...).
		StyleFunc(styleFunc)

	out.WriteString(t.String())
	out.WriteString("\n")
	out.WriteString(fmt.Sprintf("%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped))
	return out.String()
}
