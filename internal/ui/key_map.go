package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	tab     key.Binding
	search  key.Binding
	preview key.Binding
	add     key.Binding
	remove  key.Binding
	create  key.Binding
	del     key.Binding
	reload  key.Binding
	logout  key.Binding
	quit    key.Binding
	force   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		preview: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		remove:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove track")),
		create:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new playlist")),
		del:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete playlist")),
		reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		force:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.search, k.preview, k.add, k.remove},
		{k.create, k.del, k.reload, k.logout, k.quit},
	}
}
