package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/barysiuk/hatch/internal/core"
)

// ---------------------------------------------------------------------------
// App info page
// ---------------------------------------------------------------------------

// renderInfoPage shows the manifest's display fields. Missing values render
// as "-" and long ones are cut to the available width.
func renderInfoPage(target core.TargetAppInfo, width int) string {
	rows := []struct{ label, value string }{
		{"Title:", target.Title},
		{"Description:", target.Description},
		{"Author:", target.Author},
	}

	valueWidth := max(8, width-infoLabelStyle.GetWidth()-2)
	var lines []string
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = mutedStyle.Render("-")
		} else {
			value = normalItemStyle.Render(ansi.Truncate(value, valueWidth, "…"))
		}
		lines = append(lines, infoLabelStyle.Render(r.label)+value)
	}

	lines = append(lines, "", mutedStyle.Render(ansi.Truncate(target.URL, max(8, width-2), "…")))
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Permissions page
// ---------------------------------------------------------------------------

// permsPageModel lists one checkbox per requested permission, grouped by API.
type permsPageModel struct {
	cursor int
}

func newPermsPageModel() permsPageModel {
	return permsPageModel{}
}

// update moves the cursor and toggles the permission under it.
func (m permsPageModel) update(msg tea.Msg, a *App) (permsPageModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	rows := a.wizard.PermissionRows()
	if len(rows) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Toggle):
		m.cursor = min(m.cursor, len(rows)-1)
		row := rows[m.cursor]
		if err := a.wizard.TogglePermission(row.API, row.Perm, !row.Checked); err != nil {
			return m, a.showError(err)
		}
	}
	return m, nil
}

func (m permsPageModel) view(w *core.Wizard) string {
	var b strings.Builder
	b.WriteString("Are these permissions ok?\n")

	lastAPI := ""
	for i, row := range w.PermissionRows() {
		if row.API != lastAPI {
			b.WriteString("\n" + renderSectionHeader(row.Label) + "\n")
			lastAPI = row.API
		}

		check := mutedStyle.Render("[ ]")
		if row.Checked {
			check = grantedStyle.Render("[x]")
		}

		label := normalItemStyle.Render(row.Description)
		prefix := "  "
		if i == m.cursor {
			label = selectedItemStyle.Render(row.Description)
			prefix = selectedItemStyle.Render("> ")
		}
		b.WriteString(prefix + check + " " + label + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ---------------------------------------------------------------------------
// Install location page
// ---------------------------------------------------------------------------

// locationPageModel picks the install name: the manifest default, when
// there is one, or a custom name typed into the input.
type locationPageModel struct {
	input textinput.Model
}

func newLocationPageModel(w *core.Wizard) locationPageModel {
	ti := textinput.New()
	ti.Prompt = "app://"
	ti.Placeholder = "news, my-pics-app, etc."
	ti.CharLimit = 64
	ti.Width = 40
	ti.SetValue(w.CustomName())
	if w.NameOption() == core.NameCustom {
		ti.Focus()
	}
	return locationPageModel{input: ti}
}

// focusCmd starts the cursor blinking when the custom input is active.
func (m locationPageModel) focusCmd() tea.Cmd {
	if m.input.Focused() {
		return m.input.Cursor.BlinkCmd()
	}
	return nil
}

// update switches between name options and forwards typing to the input.
// Every change that affects the resolved name starts a replacement lookup.
func (m locationPageModel) update(msg tea.Msg, a *App) (locationPageModel, tea.Cmd) {
	w := a.wizard

	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, keys.SwitchName) {
		if !w.HasDefaultName() {
			return m, nil
		}
		opt := core.NameCustom
		if w.NameOption() == core.NameCustom {
			opt = core.NameDefault
		}
		id := w.SetNameOption(opt)
		var cmd tea.Cmd
		if opt == core.NameCustom {
			cmd = m.input.Focus()
		} else {
			m.input.Blur()
		}
		return m, tea.Batch(cmd, a.lookupCmd(id))
	}

	if !m.input.Focused() {
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	id := w.SetCustomName(m.input.Value())
	return m, tea.Batch(cmd, a.lookupCmd(id))
}

func (m locationPageModel) view(w *core.Wizard) string {
	var b strings.Builder
	b.WriteString("Where would you like to install?\n\n")

	if w.HasDefaultName() {
		b.WriteString(radio(w.NameOption() == core.NameDefault) + " Install at " +
			codeStyle.Render(core.AppURL(w.Target().Name)) + " " + mutedStyle.Render("(default)") + "\n")
	}
	b.WriteString(radio(w.NameOption() == core.NameCustom) + " Install at custom location\n")

	if w.NameOption() == core.NameCustom {
		b.WriteString("\n    " + m.input.View() + "\n")
		if raw := m.input.Value(); raw != "" && w.CustomName() != raw {
			b.WriteString("    " + mutedStyle.Render("will be installed as ") + codeStyle.Render(core.AppURL(w.CustomName())) + "\n")
		}
	}

	if r := w.Replaced(); r != nil {
		b.WriteString("\n" + renderReplacement(w.ResolvedName(), r) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderReplacement is the footnote warning that name is already taken.
func renderReplacement(name string, r *core.AppSummary) string {
	var who string
	if r.Title != "" {
		who = "called \"" + r.Title + "\""
	} else {
		who = "(" + r.URL + ")"
	}
	return warningStyle.Render("This will replace the current application at ") +
		codeStyle.Render(core.AppURL(name)) + " " + warningStyle.Render(who)
}

func radio(on bool) string {
	if on {
		return selectedItemStyle.Render("(•)")
	}
	return mutedStyle.Render("( )")
}

// ---------------------------------------------------------------------------
// Error page
// ---------------------------------------------------------------------------

// renderErrorPage shows a setup failure. The dialog can only be dismissed.
func renderErrorPage(err error, width int) string {
	msg := lipgloss.NewStyle().Width(max(10, width-2)).Render(err.Error())
	return titleStyle.Render("Error") + "\n\n" + errorStyle.Render(msg)
}
