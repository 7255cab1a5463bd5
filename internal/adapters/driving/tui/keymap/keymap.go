// Package keymap defines keybindings for interactive views.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings of the import progress view.
type KeyMap struct {
	// Cancel stops the running pass. The view stays up until the pass
	// reports its outcome.
	Cancel key.Binding

	// Hide closes the view and lets the pass finish with plain output.
	Hide key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "cancel"),
		),
		Hide: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hide"),
		),
	}
}

// ShortHelp returns bindings for the one-line help footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Hide}
}
