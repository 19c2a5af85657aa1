package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // purple
	secondaryColor = lipgloss.Color("#10B981") // green
	mutedColor     = lipgloss.Color("#6B7280") // gray
	dangerColor    = lipgloss.Color("#EF4444") // red
	warnColor      = lipgloss.Color("#F59E0B") // yellow

	// App frame
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	// Chat roles
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	botStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	metaStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Confidence badges
	confidenceHighStyle = lipgloss.NewStyle().
				Foreground(secondaryColor)

	confidenceMidStyle = lipgloss.NewStyle().
				Foreground(warnColor)

	confidenceLowStyle = lipgloss.NewStyle().
				Foreground(dangerColor)

	// Status line
	statusErrorStyle = lipgloss.NewStyle().
				Foreground(dangerColor)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// Input box
	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// Help bar
	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 0, 0, 0)
)

func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.8:
		return confidenceHighStyle
	case confidence >= 0.6:
		return confidenceMidStyle
	default:
		return confidenceLowStyle
	}
}
