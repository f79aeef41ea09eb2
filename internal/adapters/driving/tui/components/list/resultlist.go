// Package list renders search results as a scrolling list of photos.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

const (
	// rowHeight is the number of lines one photo takes: name, directory, text.
	rowHeight = 3
	// chrome is the header plus the blank line under it, and two lines of slack
	// for the surrounding view.
	chrome = 4

	indent = "    "
)

// ResultList shows one row per matching photo and keeps the selected row on
// screen.
type ResultList struct {
	styles *styles.Styles
	keys   *keymap.KeyMap

	results  []domain.SearchResult
	selected int
	// top is the first row drawn.
	top int

	width, height int
}

// NewResultList creates an empty list. Nil styles use the defaults.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, keys: keymap.DefaultKeyMap(), width: 80, height: 10}
}

// Init implements the bubbletea component contract.
func (r *ResultList) Init() tea.Cmd { return nil }

// Update moves the selection on up and down keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case keymap.Matches(k.String(), r.keys.Up):
		r.MoveUp()
	case keymap.Matches(k.String(), r.keys.Down):
		r.MoveDown()
	}
	return r, nil
}

// View draws the visible window of rows.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	r.scroll()
	end := min(r.top+r.rows(), len(r.results))

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Photos (%d)", len(r.results))))
	b.WriteString("\n")
	for i := r.top; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(r.row(i))
	}
	return b.String()
}

// rows is how many photos fit in the height.
func (r *ResultList) rows() int {
	return max((r.height-chrome)/rowHeight, 1)
}

// scroll moves the window just far enough to show the selection.
func (r *ResultList) scroll() {
	n := r.rows()
	switch {
	case r.selected < r.top:
		r.top = r.selected
	case r.selected >= r.top+n:
		r.top = r.selected - n + 1
	}
	r.top = max(min(r.top, len(r.results)-n), 0)
}

func (r *ResultList) row(i int) string {
	res := &r.results[i]
	nameWidth := max(r.width-20, 10)
	textWidth := max(r.width-len(indent)-2, 20)

	name := res.Image.Name
	if name == "" {
		name = filepath.Base(res.Image.Path)
	}
	name = fmt.Sprintf("%-*s", nameWidth, truncate(name, nameWidth))
	count := plural(len(res.Spans), "match", "matches")

	var head string
	if i == r.selected {
		head = "> " + r.styles.Selected.Render(name+"  "+count)
	} else {
		head = "  " + r.styles.Normal.Render(name) + "  " + r.styles.Muted.Render(count)
	}

	dir := r.styles.Subtitle.Render(indent + truncate(res.Image.Dir, textWidth))
	return head + "\n" + dir + "\n" + r.preview(res, textWidth)
}

// preview is the first matching span on one line, coloured by how sure the
// engine was of it.
func (r *ResultList) preview(res *domain.SearchResult, width int) string {
	if len(res.Spans) == 0 {
		return r.styles.Muted.Render(indent)
	}
	span := res.Spans[0]
	text := truncate(strings.Join(strings.Fields(span.Text), " "), width)
	return indent + r.styles.Confidence(span.Confidence).Render(text)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// truncate shortens s to limit runes, ending in an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetResults replaces the rows and selects the first.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected, r.top = 0, 0
}

// Results returns the rows.
func (r *ResultList) Results() []domain.SearchResult { return r.results }

// Selected returns the selected row index.
func (r *ResultList) Selected() int { return r.selected }

// SetSelected selects row i; out of range values are ignored.
func (r *ResultList) SetSelected(i int) {
	if i >= 0 && i < len(r.results) {
		r.selected = i
	}
}

// SelectedResult returns the selected row, nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp selects the previous row.
func (r *ResultList) MoveUp() { r.SetSelected(r.selected - 1) }

// MoveDown selects the next row.
func (r *ResultList) MoveDown() { r.SetSelected(r.selected + 1) }

// SetDimensions sets the area the list may draw in.
func (r *ResultList) SetDimensions(width, height int) {
	r.width, r.height = width, height
}

// Count returns the number of rows.
func (r *ResultList) Count() int { return len(r.results) }

// IsEmpty reports whether there are no rows.
func (r *ResultList) IsEmpty() bool { return len(r.results) == 0 }
