package tui

import "github.com/charmbracelet/lipgloss"

// projectColors is cycled by project id; projects have no stored color.
var projectColors = []string{"#E07A5F", "#3D85C6", "#81B29A", "#F2CC8F", "#B56576", "#5FA8D3", "#9C89B8", "#E9C46A"}

// Palette. Each color has a light and a dark terminal variant.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#1D5FA8", Dark: "#5FA8D3"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#2A7F62", Dark: "#81B29A"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#C0492B", Dark: "#E07A5F"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6B6B6B"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#2A7F62", Dark: "#7BD389"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F2CC8F"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#F28B82"}
	colorText      = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#DADFE6"}
	colorSubtle    = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#3A4048"}
	colorFocus     = lipgloss.AdaptiveColor{Light: "#6F42C1", Dark: "#B4A7E5"}
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 2)

	// activePanelStyle marks the panel that currently owns the keyboard.
	activePanelStyle = panelStyle.
				BorderForeground(colorPrimary)

	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Align(lipgloss.Center)

	timerRunningStyle = timerStyle.
				Foreground(colorSuccess)

	promptPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(colorAccent).
				Padding(1, 3)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	accentStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorFocus)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorText)
)
