package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding
	Back key.Binding

	// Navigation
	Dashboard   key.Binding
	Engagements key.Binding
	Invoices    key.Binding

	// Actions
	Select key.Binding
	Paid   key.Binding
	Sweep  key.Binding

	// Movement
	Up   key.Binding
	Down key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:        key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Dashboard:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
	Engagements: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "engagements")),
	Invoices:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invoices")),
	Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Paid:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "mark paid")),
	Sweep:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sweep overdue")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}
