// Package styles provides the colour theme for CLI summaries.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette used by the CLI.
type Theme struct {
	// Primary is the heading colour.
	Primary lipgloss.Color

	// Muted is for paths and secondary details.
	Muted lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Border frames the run summary.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	// Heading starts each report section.
	Heading lipgloss.Style

	// Label marks the left column of key/value lines.
	Label lipgloss.Style

	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Box frames the run summary.
	Box lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Label: lipgloss.NewStyle().
			Bold(true).
			Width(10),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// Plain returns unstyled equivalents, for output that is not a terminal.
func Plain() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Heading: plain,
		Label:   plain.Width(10),
		Muted:   plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Box:     plain,
	}
}

// For picks themed styles on a terminal and plain ones otherwise.
func For(terminal bool) *Styles {
	if terminal {
		return NewStyles(DefaultTheme())
	}
	return Plain()
}
