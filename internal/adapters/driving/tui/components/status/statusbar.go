// Package status provides the status bar shown under search results.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// State is what the search view is doing.
type State int

// Bar states.
const (
	StateReady State = iota
	StateSearching
	StateResults
	StateError
	StateLoading
	StateHelp
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateResults:
		return "results"
	case StateError:
		return "error"
	case StateLoading:
		return "loading"
	case StateHelp:
		return "help"
	default:
		return "ready"
	}
}

// Bar renders three segments on one row: what happened, the active
// match mode and scope, and the keys that apply.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	state   State
	message string
	photos  int

	mode  domain.MatchMode
	scope string

	width int
}

// NewBar creates a status bar. Nil arguments take defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, width: 80}
}

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left := s.outcome()
	if ctx := s.context(); ctx != "" {
		left += s.styles.Muted.Render("  [" + ctx + "]")
	}
	right := s.hints()

	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) outcome() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateLoading:
		return s.styles.Muted.Render("Loading...")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	}

	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	switch {
	case s.photos == 1:
		return s.styles.Normal.Render("1 photo")
	case s.photos > 1:
		return s.styles.Normal.Render(fmt.Sprintf("%d photos", s.photos))
	case s.state == StateResults:
		return s.styles.Muted.Render("No matches")
	}
	return s.styles.Muted.Render("Ready")
}

// context describes the mode and scope, empty until SetContext is called.
func (s *Bar) context() string {
	parts := make([]string, 0, 2)
	if s.mode != "" {
		parts = append(parts, s.mode.String())
	}
	if s.scope != "" {
		parts = append(parts, s.scope)
	}
	return strings.Join(parts, " in ")
}

func (s *Bar) hints() string {
	var bindings []key.Binding
	if s.state == StateResults && s.photos > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) { s.state = state }

// State returns the current state.
func (s *Bar) State() State { return s.state }

// SetMessage overrides the photo count with a one-off message.
func (s *Bar) SetMessage(message string) { s.message = message }

// Message returns the current message.
func (s *Bar) Message() string { return s.message }

// SetResultCount sets the number of matching photos.
func (s *Bar) SetResultCount(count int) { s.photos = count }

// ResultCount returns the number of matching photos.
func (s *Bar) ResultCount() int { return s.photos }

// SetContext records the match mode and scope shown beside the outcome.
func (s *Bar) SetContext(mode domain.MatchMode, scope string) {
	s.mode = mode
	s.scope = scope
}

// SetWidth sets the bar width.
func (s *Bar) SetWidth(width int) { s.width = width }

// Width returns the bar width.
func (s *Bar) Width() int { return s.width }

// Clear drops the outcome but keeps mode and scope.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.photos = 0
}
