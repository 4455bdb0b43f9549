package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/verte-zerg/hangman/internal/i18n"
	"github.com/verte-zerg/hangman/internal/model"
)

// keyMap holds the non-letter bindings. Letters are always guesses.
type keyMap struct {
	Hint     key.Binding
	NewWord  key.Binding
	Restart  key.Binding
	Language key.Binding
	Next     key.Binding
	Quit     key.Binding
}

func newKeyMap(lang model.Language) keyMap {
	return keyMap{
		Hint: key.NewBinding(
			key.WithKeys("ctrl+t", "f1"),
			key.WithHelp("ctrl+t", i18n.T(lang, i18n.Hint)),
		),
		NewWord: key.NewBinding(
			key.WithKeys("ctrl+n", "f2"),
			key.WithHelp("ctrl+n", i18n.T(lang, i18n.NewWord)),
		),
		Restart: key.NewBinding(
			key.WithKeys("ctrl+r", "f3"),
			key.WithHelp("ctrl+r", i18n.T(lang, i18n.Restart)),
		),
		Language: key.NewBinding(
			key.WithKeys("ctrl+l", "f4"),
			key.WithHelp("ctrl+l", i18n.T(lang, i18n.Language)),
		),
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", i18n.T(lang, i18n.NewWord)),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", i18n.T(lang, i18n.Quit)),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hint, k.NewWord, k.Restart, k.Language, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Next}}
}
