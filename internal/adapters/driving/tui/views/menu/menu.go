// Package menu is the landing screen: a short list of destinations above a
// summary of what the store holds.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

type entry struct {
	label string
	hint  string
	// target is ignored when quit is set.
	target messages.ViewType
	quit   bool
}

var destinations = []entry{
	{label: "Search", hint: "find photos by the text in them", target: messages.ViewSearch},
	{label: "Settings", hint: "match mode, OCR engine and Vision key", target: messages.ViewSettings},
	{label: "Help", hint: "keys for every screen", target: messages.ViewHelp},
	{label: "Quit", quit: true},
}

// View is the landing screen.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap

	items    []entry
	selected int
	stats    *domain.ImageStats

	width, height int
	ready         bool
}

// NewView creates the landing screen. Nil styles use the defaults.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  destinations,
		width:  80,
		height: 24,
	}
}

// Init does nothing; stats are requested by the app.
func (v *View) Init() tea.Cmd { return nil }

// Update moves the cursor and dispatches the chosen destination.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.StatsLoaded:
		// A failed count leaves the previous summary in place.
		if msg.Err == nil {
			v.stats = msg.Stats
		}
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(k string) tea.Cmd {
	switch {
	case keymap.Matches(k, v.keys.Up):
		v.move(-1)
	case keymap.Matches(k, v.keys.Down):
		v.move(1)
	case keymap.Matches(k, v.keys.Select):
		return v.choose()
	case keymap.Matches(k, v.keys.Quit):
		return tea.Quit
	}
	return nil
}

func (v *View) move(step int) {
	next := v.selected + step
	if next >= 0 && next < len(v.items) {
		v.selected = next
	}
}

func (v *View) choose() tea.Cmd {
	chosen := v.items[v.selected]
	if chosen.quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: chosen.target} }
}

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Recall") + "\n\n")
	b.WriteString(v.styles.Subtitle.Render("Search the text in your photos") + "\n")
	if v.stats != nil {
		b.WriteString(v.summary() + "\n")
	}
	b.WriteString("\n")

	for i, it := range v.items {
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(it.label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(it.label))
		}
		if it.hint != "" {
			b.WriteString(v.styles.Muted.Render("  " + it.hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + v.footer())
	return b.String()
}

// summary counts photos and spans, calling out failures and pending work.
// The line turns red while any photo failed.
func (v *View) summary() string {
	line := fmt.Sprintf("%d photos, %d text spans", v.stats.Total, v.stats.Spans)
	if v.stats.Failed > 0 {
		line += fmt.Sprintf(", %d failed", v.stats.Failed)
	}
	if v.stats.Pending > 0 {
		line += fmt.Sprintf(", %d pending", v.stats.Pending)
	}
	if v.stats.Failed > 0 {
		return v.styles.Error.Render(line)
	}
	return v.styles.Muted.Render(line)
}

func (v *View) footer() string {
	hints := make([]string, 0, 3)
	for _, b := range []struct{ key, desc string }{
		{v.keys.Up.Help().Key + " " + v.keys.Down.Help().Key, "move"},
		{v.keys.Select.Help().Key, v.keys.Select.Help().Desc},
		{v.keys.Quit.Help().Key, v.keys.Quit.Help().Desc},
	} {
		hints = append(hints, b.key+" "+b.desc)
	}
	return v.styles.Help.Render(strings.Join(hints, " • "))
}

// Stats returns the last summary received, nil before the first.
func (v *View) Stats() *domain.ImageStats { return v.stats }

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int { return v.selected }
