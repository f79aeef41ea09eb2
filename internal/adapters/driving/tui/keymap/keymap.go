// Package keymap defines keybindings for the TUI.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Search submits the query.
	Search key.Binding
	// History steps through earlier queries while typing.
	History key.Binding
	// Mode cycles the match mode.
	Mode key.Binding

	Up   key.Binding
	Down key.Binding
	// Open shows every span recognised in the selected photo.
	Open key.Binding
	// Scope toggles between the current directory and all photos.
	Scope     key.Binding
	NewSearch key.Binding

	Select key.Binding
}

// Entry pairs a binding with the longer text shown on the help screen.
type Entry struct {
	Binding key.Binding
	Detail  string
}

// Section is a titled group of entries on the help screen.
type Section struct {
	Title   string
	Entries []Entry
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
		Back: bind("esc", "back", "esc"),

		Search:  bind("enter", "search", "enter"),
		History: bind("↑/↓", "history", "up", "down"),
		Mode:    bind("tab", "mode", "tab"),

		Up:        bind("↑/k", "up", "up", "k"),
		Down:      bind("↓/j", "down", "down", "j"),
		Open:      bind("enter", "open", "enter"),
		Scope:     bind("g", "scope", "g"),
		NewSearch: bind("n", "new search", "n"),

		Select: bind("enter", "select", "enter"),
	}
}

// ShortHelp returns the hints shown when nothing is selected.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ResultsHelp returns the hints shown while browsing results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Open, k.Mode, k.Scope, k.Back}
}

// Sections returns the help screen contents.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{"Menu", []Entry{
			{k.Up, "Previous option"},
			{k.Down, "Next option"},
			{k.Select, "Choose option"},
			{k.Quit, "Quit"},
		}},
		{"Search", []Entry{
			{k.Search, "Run the query"},
			{k.History, "Recall an earlier query"},
			{k.Mode, "Cycle match mode (substring, fulltext, fuzzy)"},
		}},
		{"Results", []Entry{
			{k.Up, "Previous photo"},
			{k.Down, "Next photo"},
			{k.Open, "Show all text in the photo"},
			{k.Scope, "Toggle between this directory and all photos"},
			{k.NewSearch, "Start a new query"},
		}},
		{"Anywhere", []Entry{
			{k.Back, "Go back"},
			{bind("ctrl+c", "quit", "ctrl+c"), "Quit immediately"},
		}},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), keyStr)
}
