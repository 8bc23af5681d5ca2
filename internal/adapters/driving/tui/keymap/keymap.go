// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Submit runs the query typed in a single-line input.
	Submit key.Binding

	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// NewQuery refocuses the input after results are shown.
	NewQuery key.Binding

	// Compose sends the job post in the draft editor to the composer.
	Compose key.Binding

	// Reload refreshes a list from the store.
	Reload key.Binding

	// Delete removes the selected document.
	Delete key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		NewQuery: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new query")),
		Compose:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "compose")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	}
}

// ShortHelp returns the hints shown when nothing is selected.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// ResultsHelp returns the hints shown while browsing retrieval hits.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Up, k.Down, k.Back}
}

// DraftHelp returns the hints shown in the draft editor.
func (k *KeyMap) DraftHelp() []key.Binding {
	return []key.Binding{k.Compose, k.Back}
}

// FullHelp returns every binding grouped for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Submit, k.NewQuery, k.Compose},
		{k.Reload, k.Delete, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches reports whether keyStr triggers binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
