package tui

import (
	"charm.land/lipgloss/v2"
)

// Color palette (Catppuccin Mocha)
var (
	colorPrimary   = lipgloss.Color("#cba6f7") // Mauve
	colorSecondary = lipgloss.Color("#b4befe") // Lavender
	colorText      = lipgloss.Color("#cdd6f4") // Text
	colorBase      = lipgloss.Color("#1e1e2e") // Base
	colorSubtext0  = lipgloss.Color("#a6adc8") // Subtext0
	colorSubtext1  = lipgloss.Color("#bac2de") // Subtext1
	colorSurface2  = lipgloss.Color("#585b70") // Surface2
	colorGreen     = lipgloss.Color("#a6e3a1") // Green
	colorYellow    = lipgloss.Color("#f9e2af") // Yellow
	colorRed       = lipgloss.Color("#f38ba8") // Red
	colorBorder    = lipgloss.Color("#b4befe") // Lavender for borders
)

// Modal styles
var (
	styleModalContainer = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Background(colorBase).
				Padding(1, 2)

	styleModalTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Align(lipgloss.Center)
)

// List and content styles
var (
	styleSectionHeader = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true)

	styleCursor = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleSelected = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleDim = lipgloss.NewStyle().
			Foreground(colorSubtext0)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// Breadcrumb styles
var (
	styleCrumbCurrent = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleCrumbReachable = lipgloss.NewStyle().
				Foreground(colorSubtext1)

	styleCrumbLocked = lipgloss.NewStyle().
				Foreground(colorSurface2)
)

// Hint bar styles
var (
	styleHintKey = lipgloss.NewStyle().
			Foreground(colorSubtext1).
			Bold(true)

	styleHintDesc = lipgloss.NewStyle().
			Foreground(colorSubtext0)

	styleHintSeparator = lipgloss.NewStyle().
				Foreground(colorSurface2)
)

// renderHintBar renders a hint bar with the given key-description pairs.
// Example: renderHintBar("↑↓", "navigate", "space", "select", "esc", "back")
// Returns: "↑↓ navigate • space select • esc back"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}

	var result string
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i]
		desc := pairs[i+1]

		if i > 0 {
			result += " " + styleHintSeparator.Render("•") + " "
		}

		result += styleHintKey.Render(key) + " " + styleHintDesc.Render(desc)
	}

	return result
}
