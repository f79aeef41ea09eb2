// Package help renders the key reference screen.
package help

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
)

// keyColumn is the width of the key column.
const keyColumn = 10

// View lists every binding grouped by the screen it applies to.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
}

// NewView creates the help screen. Nil arguments take defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keys: km}
}

// Update returns to the menu on back or quit.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	if keymap.Matches(k.String(), v.keys.Back) || keymap.Matches(k.String(), v.keys.Quit) {
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return v, nil
}

// View renders the sections.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Help") + "\n")
	for _, sec := range v.keys.Sections() {
		b.WriteString("\n" + v.styles.Subtitle.Render(sec.Title) + "\n")
		for _, e := range sec.Entries {
			fmt.Fprintf(&b, "  %-*s  %s\n", keyColumn, e.Binding.Help().Key, e.Detail)
		}
	}
	b.WriteString("\n" + v.styles.Help.Render(v.keys.Back.Help().Key+" back to menu"))
	return b.String()
}
