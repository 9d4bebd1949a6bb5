package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/barysiuk/hatch/internal/core"
	"github.com/barysiuk/hatch/internal/logging"
)

// App is the root Bubbletea model of the install dialog. It owns the
// core.Wizard and changes it only inside Update. Host calls run as tea.Cmds
// that report back through messages.
type App struct {
	// Core dependencies.
	ctx  context.Context
	host core.Host
	url  string

	// Dialog state, nil until setup completes.
	wizard *core.Wizard
	busy   bool // A close is in flight; input is ignored.

	// View state.
	width  int
	height int
	ready  bool

	// Sub-models.
	frame    wizardModel
	perms    permsPageModel
	location locationPageModel

	loadingSpinner spinner.Model

	// Help bar.
	help help.Model

	// Toast notifications (replace the help bar while visible).
	toast toastModel

	// Final result, read by the caller after the program exits.
	outcome core.Outcome
	err     error
}

// NewApp creates the dialog for installing url through host.
func NewApp(ctx context.Context, host core.Host, url string) App {
	h := help.New()
	h.ShortSeparator = "  |  "

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)

	return App{
		ctx:            ctx,
		host:           host,
		url:            url,
		help:           h,
		loadingSpinner: s,
		perms:          newPermsPageModel(),
		toast:          newToastModel(),
	}
}

// Outcome reports how the dialog ended.
func (a App) Outcome() core.Outcome { return a.outcome }

// Err returns the error that ended the dialog, if any.
func (a App) Err() error { return a.err }

// Wizard exposes the dialog state once setup has completed.
func (a App) Wizard() *core.Wizard { return a.wizard }

// --- Messages ---

// setupDoneMsg carries the initialized wizard.
type setupDoneMsg struct {
	wizard *core.Wizard
}

// replacementMsg is the result of a replacement lookup.
type replacementMsg struct {
	id      int
	summary *core.AppSummary
	err     error
}

// finishedMsg carries the host's answer to the install result.
type finishedMsg struct {
	err error
}

// closedMsg is sent once the dialog has closed.
type closedMsg struct {
	outcome core.Outcome
	err     error
}

// --- Init / Update / View ---

func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadingSpinner.Tick, a.setupCmd)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.propagateSize()
		return a, nil

	case setupDoneMsg:
		a.wizard = msg.wizard
		a.frame = newWizardModel(msg.wizard)
		a.location = newLocationPageModel(msg.wizard)
		a.propagateSize()
		return a, nil

	case replacementMsg:
		if a.wizard == nil {
			return a, nil
		}
		if msg.err != nil {
			logging.Warn("Replacement lookup failed", zap.Error(msg.err))
			a.wizard.ApplyReplacement(msg.id, nil)
			return a, nil
		}
		a.wizard.ApplyReplacement(msg.id, msg.summary)
		return a, nil

	case finishedMsg:
		if a.wizard == nil {
			return a, nil
		}
		outcome := a.wizard.EndFinish(msg.err)
		return a.Update(closedMsg{outcome: outcome, err: msg.err})

	case closedMsg:
		a.busy = false
		a.outcome = msg.outcome
		a.err = msg.err
		return a, tea.Quit

	case spinner.TickMsg:
		if a.toast.active && a.toast.kind == toastLoading {
			var cmd tea.Cmd
			a.toast, cmd = a.toast.update(msg)
			return a, cmd
		}
		if a.wizard == nil {
			var cmd tea.Cmd
			a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case toastDismissMsg:
		var cmd tea.Cmd
		a.toast, cmd = a.toast.update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.wizard == nil {
			// Still resolving: only allow bailing out.
			if msg.Type == tea.KeyCtrlC {
				a.outcome = core.OutcomeCancelled
				return a, tea.Quit
			}
			return a, nil
		}
		if a.busy {
			return a, nil
		}

		// Setup failed: any key dismisses.
		if a.wizard.Err() != nil {
			return a, a.cancel()
		}

		switch {
		case key.Matches(msg, keys.Cancel):
			return a, a.cancel()
		case key.Matches(msg, keys.Next):
			return a, a.advance()
		}
	}

	if a.wizard == nil || a.wizard.Err() != nil || a.busy {
		return a, nil
	}

	// Delegate to the active page.
	var cmd tea.Cmd
	switch a.wizard.Page() {
	case core.PagePermissions:
		a.perms, cmd = a.perms.update(msg, &a)
	case core.PageInstallLocation:
		a.location, cmd = a.location.update(msg, &a)
	}
	a.frame = a.frame.sync(a.wizard)
	return a, cmd
}

func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	// Layout: fixed header + flex content box + fixed footer.
	header := a.renderHeader()
	helpBar := a.renderHelpBar()

	// If a toast is active, it replaces the help bar.
	if a.toast.active {
		helpBar = a.toast.view()
	}

	borderH := contentStyle.GetHorizontalBorderSize()
	textW, textH := a.innerContentSize()

	innerW := max(0, a.width-borderH)
	innerH := max(0, textH+contentStyle.GetVerticalPadding())

	content := a.renderContent(textW)

	// Clamp content to the text area so it can't inflate the box.
	content = clampWidth(content, textW)
	content = clampHeight(content, textH)

	styled := contentStyle.
		Width(innerW).
		Height(innerH).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, styled, helpBar)
}

func (a App) renderContent(width int) string {
	if a.wizard == nil {
		return a.loadingSpinner.View() + " Reading " + mutedStyle.Render(a.url) + "..."
	}
	if err := a.wizard.Err(); err != nil {
		return renderErrorPage(err, width)
	}

	var page string
	switch a.wizard.Page() {
	case core.PageAppInfo:
		page = renderInfoPage(a.wizard.Target(), width)
	case core.PagePermissions:
		page = a.perms.view(a.wizard)
	case core.PageInstallLocation:
		page = a.location.view(a.wizard)
	}
	return a.frame.view(page)
}

func (a App) renderHeader() string {
	logo := logoStyle.Render("hatch")
	path := headerPathStyle.Render(a.url)

	var hint string
	switch {
	case a.wizard == nil:
		hint = "Loading"
	case a.wizard.Err() != nil:
		hint = "Error"
	case a.wizard.Target().IsInstalled:
		hint = "Configure"
	default:
		hint = "Install"
	}
	hints := headerHintStyle.Render(hint)

	// Indent 1 char to align with content box's left border.
	left := lipgloss.JoinHorizontal(lipgloss.Top, " ", logo, " ", path)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(hints) - 1
	if gap < 1 {
		gap = 1
	}
	return ansi.Truncate(left+strings.Repeat(" ", gap)+hints, max(a.width, 1), "")
}

func (a App) renderHelpBar() string {
	var km help.KeyMap

	switch {
	case a.wizard == nil:
		return ""
	case a.wizard.Err() != nil:
		km = errorHelpKeyMap{}
	default:
		switch a.wizard.Page() {
		case core.PagePermissions:
			km = permsHelpKeyMap{}
		case core.PageInstallLocation:
			km = locationHelpKeyMap{canSwitch: a.wizard.HasDefaultName()}
		default:
			km = infoHelpKeyMap{last: a.wizard.IsLastPage()}
		}
	}

	return " " + helpStyle.Render(a.help.View(km))
}

// --- Transitions ---

// advance moves to the next page. Leaving the last page closes the wizard
// here and hands the result to the host in the background; the outcome is
// recorded when finishedMsg arrives.
func (a *App) advance() tea.Cmd {
	w := a.wizard
	if !w.IsLastPage() {
		if _, err := w.Step(); err != nil {
			return a.showError(err)
		}
		a.frame = a.frame.sync(w)
		if w.Page() == core.PageInstallLocation {
			return a.location.focusCmd()
		}
		return nil
	}

	if !w.Ready() {
		var cmd tea.Cmd
		a.toast, cmd = a.toast.show("Choose where to install the app first", toastWarning)
		return cmd
	}
	result, err := w.BeginFinish()
	if err != nil {
		return a.showError(err)
	}
	a.busy = true
	var toastCmd tea.Cmd
	a.toast, toastCmd = a.toast.show(fmt.Sprintf("Installing %s...", core.AppURL(result.Name)), toastLoading)
	ctx, host := a.ctx, a.host
	return tea.Batch(toastCmd, func() tea.Msg {
		return finishedMsg{err: core.DeliverResult(ctx, host, result)}
	})
}

// cancel closes the dialog without a result. Only the host call runs in
// the background.
func (a *App) cancel() tea.Cmd {
	if err := a.wizard.MarkCancelled(); err != nil {
		outcome := a.wizard.Outcome()
		return func() tea.Msg { return closedMsg{outcome: outcome} }
	}
	a.busy = true
	ctx, host := a.ctx, a.host
	return func() tea.Msg {
		if err := host.CloseCancel(ctx); err != nil {
			return closedMsg{outcome: core.OutcomeCancelled, err: fmt.Errorf("closing dialog: %w", err)}
		}
		return closedMsg{outcome: core.OutcomeCancelled}
	}
}

// lookupCmd resolves what currently occupies the wizard's resolved name.
// The name and target are captured now; the result is tagged with id so
// that only the latest lookup is applied.
func (a *App) lookupCmd(id int) tea.Cmd {
	ctx, host := a.ctx, a.host
	target := a.wizard.Target()
	name := a.wizard.ResolvedName()
	return func() tea.Msg {
		summary, err := core.CurrentApp(ctx, host, target, name)
		return replacementMsg{id: id, summary: summary, err: err}
	}
}

// showError flashes err in the toast area.
func (a *App) showError(err error) tea.Cmd {
	var cmd tea.Cmd
	a.toast, cmd = a.toast.show(fmt.Sprintf("Error: %v", err), toastError)
	return cmd
}

// --- Commands ---

func (a App) setupCmd() tea.Msg {
	return setupDoneMsg{wizard: core.Setup(a.ctx, a.host, a.url)}
}

// --- Layout ---

func (a *App) propagateSize() {
	w, h := a.innerContentSize()
	a.frame = a.frame.setSize(w, h)
}

// innerContentSize computes the text area inside contentStyle after border
// and padding are removed and the header and help bar are accounted for.
func (a App) innerContentSize() (width, height int) {
	header := a.renderHeader()
	helpBar := a.renderHelpBar()

	// JoinVertical adds \n between blocks. Always 3 blocks
	// (header, styled, helpBar) → 2 separators.
	separators := 2
	chromeH := lipgloss.Height(header) + lipgloss.Height(helpBar) + separators

	frameV := contentStyle.GetVerticalFrameSize()
	frameH := contentStyle.GetHorizontalFrameSize()

	width = max(0, a.width-frameH)
	height = max(0, a.height-chromeH-frameV)
	return width, height
}

// clampHeight truncates content to at most maxLines lines so an oversized
// page cannot push the header off-screen.
func clampHeight(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return content
	}
	return strings.Join(lines[:maxLines], "\n")
}

// clampWidth truncates each line to at most maxWidth visible characters
// (ANSI-escape aware). This prevents lipgloss from wrapping long lines
// inside a Width()-constrained box, which would inflate its rendered height.
func clampWidth(content string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > maxWidth {
			lines[i] = ansi.Truncate(line, maxWidth, "")
		}
	}
	return strings.Join(lines, "\n")
}
