package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	send   key.Binding
	genre  key.Binding
	back   key.Binding
	clear  key.Binding
	scroll key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		genre:  key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "switch genre")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		clear:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "new session")),
		scroll: key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.send, k.scroll, k.genre},
		{k.back, k.clear, k.quit},
	}
}
