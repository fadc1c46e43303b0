package tuicmder

import "github.com/charmbracelet/bubbles/key"

type tuiKeyMap struct {
	Send    key.Binding
	Focus   key.Binding
	Sidebar key.Binding
	Models  key.Binding
	New     key.Binding
	Delete  key.Binding
	Up      key.Binding
	Down    key.Binding
	Scroll  key.Binding
	Stop    key.Binding
	Quit    key.Binding
}

func (k tuiKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Focus, k.Sidebar, k.Models, k.New, k.Scroll, k.Stop, k.Quit}
}

func (k tuiKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Stop, k.Scroll},
		{k.Focus, k.Up, k.Down, k.Delete},
		{k.Sidebar, k.Models, k.New, k.Quit},
	}
}

func defaultKeyMap() tuiKeyMap {
	return tuiKeyMap{
		Send:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "sessions")),
		Sidebar: key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "sidebar")),
		Models:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "model")),
		New:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new")),
		Delete:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Scroll:  key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		Stop:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}
