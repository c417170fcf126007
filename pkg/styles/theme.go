// Package styles provides centralized style and color definitions for
// the command-line output, trimmed from the wider style set this
// module's teacher defines down to what the workflow runner actually
// prints: pass/fail/skip lines, project and workflow names, and
// progress messages. Colors adapt to light or dark terminals via
// lipgloss.AdaptiveColor.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	ColorError = lipgloss.AdaptiveColor{
		Light: "#D73737",
		Dark:  "#FF5555",
	}

	ColorWarning = lipgloss.AdaptiveColor{
		Light: "#E67E22",
		Dark:  "#FFB86C",
	}

	ColorSuccess = lipgloss.AdaptiveColor{
		Light: "#27AE60",
		Dark:  "#50FA7B",
	}

	ColorInfo = lipgloss.AdaptiveColor{
		Light: "#2980B9",
		Dark:  "#8BE9FD",
	}

	ColorPurple = lipgloss.AdaptiveColor{
		Light: "#8E44AD",
		Dark:  "#BD93F9",
	}

	ColorComment = lipgloss.AdaptiveColor{
		Light: "#6C7A89",
		Dark:  "#6272A4",
	}
)

// Error styles a workflow or project failure line.
var Error = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

// Warning styles a skipped-workflow or degraded-run line.
var Warning = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)

// Success styles a completed-workflow line.
var Success = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)

// Info styles an informational status line.
var Info = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)

// ProjectName styles a project's name/slug in run output.
var ProjectName = lipgloss.NewStyle().Bold(true).Foreground(ColorPurple)

// Progress styles an in-flight action or step description.
var Progress = lipgloss.NewStyle().Foreground(ColorComment)

// Header styles a summary section heading.
var Header = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess).MarginBottom(1)
