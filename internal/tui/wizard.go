package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/barysiuk/hatch/internal/core"
)

// wizardStep is one entry of the step breadcrumb.
type wizardStep struct {
	name string     // Displayed in the step indicator.
	page core.Page // Page of the install dialog this step shows.
}

// wizardModel frames the active dialog page: title, step breadcrumb, page
// content and the footer with Cancel, the segmented progress bar and
// Next/Finish. It mirrors a core.Wizard and owns no dialog state itself;
// sync copies what it renders after every transition.
type wizardModel struct {
	width, height int

	title     string       // "Install app://news"
	steps     []wizardStep // One per page of the dialog.
	activeIdx int
	ready     bool // Whether Finish is enabled.
}

// newWizardModel creates a frame for w.
func newWizardModel(w *core.Wizard) wizardModel {
	var steps []wizardStep
	for _, p := range w.Pages() {
		steps = append(steps, wizardStep{name: stepName(p), page: p})
	}
	return wizardModel{steps: steps}.sync(w)
}

// sync refreshes the frame from the wizard state.
func (m wizardModel) sync(w *core.Wizard) wizardModel {
	m.title = w.Title()
	m.activeIdx = min(w.PageIndex(), len(m.steps)-1)
	m.ready = w.Ready()
	return m
}

// setSize updates the content area dimensions.
func (m wizardModel) setSize(width, height int) wizardModel {
	m.width = width
	m.height = height
	return m
}

// isLast reports whether the active step is the final one.
func (m wizardModel) isLast() bool {
	return m.activeIdx >= len(m.steps)-1
}

// view renders the frame around the page content.
func (m wizardModel) view(content string) string {
	if len(m.steps) == 0 {
		return ""
	}

	parts := []string{titleStyle.Render(m.title), ""}
	if indicator := m.renderStepIndicator(); indicator != "" {
		parts = append(parts, indicator, "")
	}
	parts = append(parts, content, "", m.renderFooter())

	return wizardContentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderStepIndicator draws the breadcrumb strip:
//
//	Info → Permissions → Location
//	       ───────────
func (m wizardModel) renderStepIndicator() string {
	if len(m.steps) <= 1 {
		return ""
	}

	var parts []string
	var activeLabel string

	for i, step := range m.steps {
		if i == m.activeIdx {
			parts = append(parts, wizardStepActiveStyle.Render(step.name))
			activeLabel = step.name
		} else {
			parts = append(parts, wizardStepInactiveStyle.Render(step.name))
		}
	}

	sep := wizardStepSeparatorStyle.Render(" → ")
	breadcrumb := strings.Join(parts, sep)

	// Offset the underline by the visible width of everything before the
	// active label.
	offset := 0
	sepWidth := lipgloss.Width(sep)
	for i := 0; i < m.activeIdx; i++ {
		offset += lipgloss.Width(m.steps[i].name) + sepWidth
	}
	underline := wizardStepActiveStyle.Render(strings.Repeat("─", lipgloss.Width(activeLabel)))

	return breadcrumb + "\n" + strings.Repeat(" ", offset) + underline
}

// renderFooter draws "[Cancel]  ━━━ ━━━ ───  [Next]".
func (m wizardModel) renderFooter() string {
	cancel := buttonStyle.Render("Cancel")

	var next string
	switch {
	case !m.isLast():
		next = primaryButtonStyle.Render("Next")
	case m.ready:
		next = primaryButtonStyle.Render("Finish")
	default:
		next = disabledButtonStyle.Render("Finish")
	}

	progress := renderProgress(m.activeIdx, len(m.steps))
	return lipgloss.JoinHorizontal(lipgloss.Center, cancel, "  ", progress, "  ", next)
}

// renderProgress draws one segment per page, filled up to and including
// the active one.
func renderProgress(active, total int) string {
	const segment = 4
	segs := make([]string, total)
	for i := range segs {
		if i <= active {
			segs[i] = segmentDoneStyle.Render(strings.Repeat("━", segment))
		} else {
			segs[i] = segmentTodoStyle.Render(strings.Repeat("─", segment))
		}
	}
	return strings.Join(segs, " ")
}

func stepName(p core.Page) string {
	switch p {
	case core.PageAppInfo:
		return "Info"
	case core.PagePermissions:
		return "Permissions"
	case core.PageInstallLocation:
		return "Location"
	default:
		return p.String()
	}
}
