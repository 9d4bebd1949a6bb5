package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keybindings for the install dialog.
type keyMap struct {
	Cancel     key.Binding
	Next       key.Binding
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	SwitchName key.Binding
	Dismiss    key.Binding
}

var keys = keyMap{
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
	Next: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "next"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k/up", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/down", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space/x", "toggle"),
	),
	SwitchName: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "default/custom"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("enter", "esc", "q", "ctrl+c"),
		key.WithHelp("any key", "close"),
	),
}

// ---------------------------------------------------------------------------
// Per-page help keymaps for the help.Model component.
// Each implements help.KeyMap (ShortHelp + FullHelp).
// ---------------------------------------------------------------------------

// infoHelpKeyMap is shown on the app info page.
type infoHelpKeyMap struct {
	last bool
}

func (k infoHelpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{nextBinding(k.last), keys.Cancel}
}

func (k infoHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// permsHelpKeyMap is shown on the permissions page.
type permsHelpKeyMap struct{}

func (k permsHelpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		keys.Up, keys.Down, keys.Toggle, nextBinding(false), keys.Cancel,
	}
}

func (k permsHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// locationHelpKeyMap is shown on the install location page.
type locationHelpKeyMap struct {
	canSwitch bool
}

func (k locationHelpKeyMap) ShortHelp() []key.Binding {
	bindings := []key.Binding{nextBinding(true), keys.Cancel}
	if k.canSwitch {
		bindings = append([]key.Binding{keys.SwitchName}, bindings...)
	}
	return bindings
}

func (k locationHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// errorHelpKeyMap is shown when setup failed.
type errorHelpKeyMap struct{}

func (k errorHelpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Dismiss}
}

func (k errorHelpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// nextBinding relabels enter as "finish" on the last page.
func nextBinding(last bool) key.Binding {
	if last {
		return key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "finish"))
	}
	return keys.Next
}
