// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the review screen.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help toggles the full key list.
	Help key.Binding

	// Up and Down move through the proposal list.
	Up   key.Binding
	Down key.Binding

	// ScrollUp and ScrollDown move through the code preview.
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Approve starts approval of the selected proposal.
	Approve key.Binding

	// Reject starts rejection of the selected proposal.
	Reject key.Binding

	// Reload fetches the proposals again.
	Reload key.Binding

	// Submit confirms the typed input.
	Submit key.Binding

	// Cancel leaves input mode.
	Cancel key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup", "K"),
			key.WithHelp("pgup", "scroll code up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown", "J"),
			key.WithHelp("pgdn", "scroll code down"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reject"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Approve, k.Reject, k.Quit, k.Help}
}

// InputHelp returns the bindings shown while typing.
func (k *KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.ScrollUp, k.ScrollDown},
		{k.Approve, k.Reject, k.Reload},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
