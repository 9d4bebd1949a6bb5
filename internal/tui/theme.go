package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#A78BFA") // Light purple
	colorSuccess   = lipgloss.Color("#10B981") // Green (granted)
	colorDanger    = lipgloss.Color("#EF4444") // Red (errors)
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorText      = lipgloss.Color("#D1D5DB")
)

// Shared styles used across TUI views.
var (
	// Header bar: "hatch  dat://…"
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	headerPathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F3F4F6")).
			Padding(0, 1)

	headerHintStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Main content area.
	contentStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	// Dialog title: "Install app://news".
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F3F4F6"))

	// Section header within a page (e.g. an API label).
	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorMuted)

	// Selected item in a list.
	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	// Normal (unselected) item in a list.
	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorText)

	// Muted text (descriptions, secondary info).
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Code-like spans such as app:// addresses.
	codeStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	// Granted / success indicator.
	grantedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	// Error text.
	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger)

	// Warning / footnote text.
	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	// Help text at the bottom.
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Info table label column.
	infoLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(14)

	// Spinner style.
	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	// Progress bar segments.
	segmentDoneStyle = lipgloss.NewStyle().
				Foreground(colorPrimary)

	segmentTodoStyle = lipgloss.NewStyle().
				Foreground(colorBorder)

	// Footer buttons.
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Background(colorMuted).
			Padding(0, 2)

	primaryButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(colorPrimary).
				Padding(0, 2).
				Bold(true)

	disabledButtonStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Background(colorBorder).
				Padding(0, 2)

	// Step breadcrumb.
	wizardStepActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorSecondary)

	wizardStepInactiveStyle = lipgloss.NewStyle().
				Foreground(colorMuted)

	wizardStepSeparatorStyle = lipgloss.NewStyle().
					Foreground(colorBorder)

	wizardContentStyle = lipgloss.NewStyle().
				PaddingLeft(1)

	// Section header rule (the ─── line after the label).
	sectionRuleStyle = lipgloss.NewStyle().
				Foreground(colorBorder)
)

// renderSectionHeader renders a section label with short rules on both sides:
// "── Network access ──"
func renderSectionHeader(label string) string {
	rule := sectionRuleStyle.Render("──")
	text := sectionHeaderStyle.Render(" " + label + " ")
	return rule + text + rule
}
