package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Cursor movement and filtering belong to the embedded lists; these are the bindings the model handles itself.
type keyMap struct {
	open    key.Binding
	submit  key.Binding
	back    key.Binding
	analyze key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open space")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "analyze")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		analyze: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyze url")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start over")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// help returns the bindings shown under view v.
func (k keyMap) help(v ViewState) []key.Binding {
	switch v {
	case SpaceListView:
		return []key.Binding{k.open, k.analyze, k.quit}
	case BookmarkListView:
		return []key.Binding{k.submit, k.analyze, k.back, k.quit}
	case InputView:
		return []key.Binding{k.submit, k.back}
	case AnalyzeView:
		return []key.Binding{k.quit}
	case ResultView:
		return []key.Binding{k.back, k.restart, k.quit}
	default:
		return []key.Binding{k.back, k.quit}
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.open, k.submit, k.analyze},
		{k.back, k.restart, k.quit},
	}
}
