package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// toastType selects how a notice is drawn and whether it expires.
type toastType int

const (
	toastWarning toastType = iota // Validation hints, e.g. no install name yet.
	toastError                    // Failed toggles or host calls.
	toastLoading                  // A close is in flight; stays until the dialog quits.
)

// toastTTL is how long warnings and errors stay in the help bar.
const toastTTL = 3 * time.Second

// toastModel is the one-line notice that temporarily replaces the help bar.
// Showing a notice replaces the current one.
type toastModel struct {
	active  bool
	message string
	kind    toastType
	id      int // Tags expiry timers so an old timer cannot hide a newer notice.
	nextID  int

	spinner spinner.Model
}

// toastDismissMsg expires notice id.
type toastDismissMsg struct {
	id int
}

func newToastModel() toastModel {
	return toastModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(spinnerStyle),
		),
	}
}

// show replaces the current notice. Warnings and errors get an expiry timer;
// loading notices start their spinner instead.
func (m toastModel) show(message string, kind toastType) (toastModel, tea.Cmd) {
	m.active = true
	m.message = message
	m.kind = kind
	m.id = m.nextID
	m.nextID++

	if kind == toastLoading {
		return m, m.spinner.Tick
	}
	id := m.id
	return m, tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastDismissMsg{id: id}
	})
}

func (m toastModel) dismiss() toastModel {
	m.active = false
	m.message = ""
	return m
}

func (m toastModel) update(msg tea.Msg) (toastModel, tea.Cmd) {
	switch msg := msg.(type) {
	case toastDismissMsg:
		if msg.id == m.id {
			m = m.dismiss()
		}
	case spinner.TickMsg:
		if m.active && m.kind == toastLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// view renders the notice with a one-column indent, or "" when hidden.
func (m toastModel) view() string {
	if !m.active {
		return ""
	}
	switch m.kind {
	case toastLoading:
		return " " + m.spinner.View() + mutedStyle.Render(m.message)
	case toastError:
		return " " + errorStyle.Render(m.message)
	default:
		return " " + warningStyle.Render(m.message)
	}
}
