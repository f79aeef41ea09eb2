// Package input provides the query field of the search view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

const (
	maxQueryLen   = 256
	minFieldWidth = 20
	maxHistory    = 50
)

// placeholders hint at the syntax each match mode accepts.
var placeholders = map[domain.MatchMode]string{
	domain.MatchSubstring: "Find text in your photos...",
	domain.MatchFullText:  `receipt AND "total due"`,
	domain.MatchFuzzy:     "Approximate text, e.g. prkng lvl",
}

// SearchInput is a single-line query field labelled with the match mode.
// Up and down step through earlier queries while it has focus.
type SearchInput struct {
	field  textinput.Model
	styles *styles.Styles
	mode   domain.MatchMode
	width  int

	history []string
	// cursor indexes history while browsing; len(history) means the live line.
	cursor int
	draft  string
}

// NewSearchInput creates a focused query field in substring mode.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.CharLimit = maxQueryLen
	field.Focus()

	in := &SearchInput{field: field, styles: s}
	in.SetMode(domain.MatchSubstring)
	in.SetWidth(70)
	return in
}

// Init starts the cursor blinking.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key input.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && s.field.Focused() {
		switch k.Type {
		case tea.KeyUp:
			s.browse(-1)
			return s, nil
		case tea.KeyDown:
			s.browse(1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

func (s *SearchInput) browse(step int) {
	next := s.cursor + step
	if next < 0 || next > len(s.history) {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.field.Value()
	}
	s.cursor = next
	if next == len(s.history) {
		s.field.SetValue(s.draft)
	} else {
		s.field.SetValue(s.history[next])
	}
	s.field.CursorEnd()
}

// Remember appends query to the history unless it repeats the last entry.
func (s *SearchInput) Remember(query string) {
	if query != "" && (len(s.history) == 0 || s.history[len(s.history)-1] != query) {
		s.history = append(s.history, query)
		if len(s.history) > maxHistory {
			s.history = s.history[len(s.history)-maxHistory:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
}

// History returns remembered queries, oldest first.
func (s *SearchInput) History() []string {
	return s.history
}

// View renders the label and field side by side.
func (s *SearchInput) View() string {
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.styles.Title.Render(s.Label()+": "),
		s.styles.InputField.Render(s.field.View()),
	)
}

// SetMode relabels the field and swaps its placeholder for mode.
func (s *SearchInput) SetMode(mode domain.MatchMode) {
	s.mode = mode
	s.field.Placeholder = placeholders[mode]
	s.SetWidth(s.width)
}

// Mode returns the match mode the field is labelled with.
func (s *SearchInput) Mode() domain.MatchMode {
	return s.mode
}

// Label returns the text shown before the field.
func (s *SearchInput) Label() string {
	return s.mode.String()
}

// Placeholder returns the hint shown while the field is empty.
func (s *SearchInput) Placeholder() string {
	return s.field.Placeholder
}

// Value returns the current query.
func (s *SearchInput) Value() string {
	return s.field.Value()
}

// SetValue replaces the current query.
func (s *SearchInput) SetValue(value string) {
	s.field.SetValue(value)
}

// Focus gives the field keyboard focus.
func (s *SearchInput) Focus() tea.Cmd {
	return s.field.Focus()
}

// Blur removes keyboard focus.
func (s *SearchInput) Blur() {
	s.field.Blur()
}

// Focused reports whether the field has focus.
func (s *SearchInput) Focused() bool {
	return s.field.Focused()
}

// SetWidth fits the field into width columns beside its label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	frame := s.styles.InputField.GetHorizontalFrameSize()
	fieldWidth := width - lipgloss.Width(s.Label()+": ") - frame - 2
	if fieldWidth < minFieldWidth {
		fieldWidth = minFieldWidth
	}
	s.field.Width = fieldWidth
}

// Width returns the width given to SetWidth.
func (s *SearchInput) Width() int {
	return s.width
}

// FieldWidth returns the columns available for typing.
func (s *SearchInput) FieldWidth() int {
	return s.field.Width
}

// Reset clears the query.
func (s *SearchInput) Reset() {
	s.field.Reset()
	s.cursor = len(s.history)
	s.draft = ""
}
