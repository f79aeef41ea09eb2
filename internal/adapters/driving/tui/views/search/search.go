// Package search is the query screen: a field labelled with the match mode,
// the matching photos below it and a status bar.
package search

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoSearchService is reported when a query is submitted without a service.
var ErrNoSearchService = errors.New("search service is required")

// modes is the cycle order for the mode key.
var modes = domain.AllMatchModes()

// chromeHeight is the rows taken by the header, query field and status bar.
const chromeHeight = 10

type focus int

const (
	focusQuery focus = iota
	focusResults
)

// View is the query screen.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap

	query   *input.SearchInput
	results *list.ResultList
	bar     *status.Bar

	svc driving.SearchService
	ctx context.Context

	// directory scopes searches unless global is set. Empty means there is
	// nothing to scope to and global stays on.
	directory string
	global    bool
	mode      domain.MatchMode

	focus focus
	// seq numbers searches; a SearchCompleted for an older one is dropped.
	seq int
	err error

	width, height int
	ready         bool
}

// NewView creates the screen scoped to directory.
func NewView(s *styles.Styles, km *keymap.KeyMap, svc driving.SearchService, directory string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	v := &View{
		styles:    s,
		keys:      km,
		query:     input.NewSearchInput(s),
		results:   list.NewResultList(s),
		bar:       status.NewBar(s, km),
		svc:       svc,
		ctx:       context.Background(),
		directory: directory,
		global:    directory == "",
		width:     80,
		height:    24,
	}
	v.SetMode(domain.MatchSubstring)
	return v
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetMode changes the match mode for the next search.
func (v *View) SetMode(mode domain.MatchMode) {
	v.mode = mode
	v.query.SetMode(mode)
	v.bar.SetContext(mode, v.Scope())
}

// Init starts the cursor blinking.
func (v *View) Init() tea.Cmd { return v.query.Init() }

// Update routes keys by focus and applies search outcomes.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		return v, v.onKey(msg)
	case messages.SearchCompleted:
		if msg.Seq == v.seq {
			v.onResults(msg)
		}
		return v, nil
	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	if v.focus != focusQuery {
		return v, nil
	}
	var cmd tea.Cmd
	v.query, cmd = v.query.Update(msg)
	return v, cmd
}

func (v *View) onKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keys.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case keymap.Matches(k, v.keys.Mode):
		v.nextMode()
		return v.rerun()
	}

	if v.focus == focusQuery {
		if keymap.Matches(k, v.keys.Search) {
			return v.submit()
		}
		var cmd tea.Cmd
		v.query, cmd = v.query.Update(msg)
		return cmd
	}

	switch {
	case keymap.Matches(k, v.keys.Open):
		return v.open()
	case keymap.Matches(k, v.keys.Up):
		v.results.MoveUp()
	case keymap.Matches(k, v.keys.Down):
		v.results.MoveDown()
	case keymap.Matches(k, v.keys.NewSearch):
		v.focus = focusQuery
		v.query.SetValue("")
		return v.query.Focus()
	case keymap.Matches(k, v.keys.Scope):
		return v.toggleScope()
	}
	return nil
}

func (v *View) open() tea.Cmd {
	res := v.results.SelectedResult()
	if res == nil {
		return nil
	}
	chosen := *res
	return func() tea.Msg { return messages.ResultSelected{Result: chosen} }
}

func (v *View) nextMode() {
	i := 0
	for j, m := range modes {
		if m == v.mode {
			i = (j + 1) % len(modes)
			break
		}
	}
	v.SetMode(modes[i])
	v.bar.SetMessage("Mode: " + modes[i].Description())
}

// toggleScope flips between the directory and every photo. Without a
// directory there is nothing to toggle.
func (v *View) toggleScope() tea.Cmd {
	if v.directory == "" {
		return nil
	}
	v.global = !v.global
	v.bar.SetContext(v.mode, v.Scope())
	v.bar.SetMessage("Scope: " + v.Scope())
	return v.rerun()
}

// submit searches for the typed query and hands focus to the results.
func (v *View) submit() tea.Cmd {
	q := v.query.Value()
	if q == "" {
		return nil
	}
	v.query.Remember(q)
	v.bar.SetMessage("")
	v.focus = focusResults
	v.query.Blur()
	return v.search(q)
}

// rerun repeats the submitted query after a mode or scope change. Nothing
// runs while the user is still typing.
func (v *View) rerun() tea.Cmd {
	q := v.query.Value()
	if q == "" || v.focus == focusQuery {
		return nil
	}
	return v.search(q)
}

func (v *View) search(q string) tea.Cmd {
	v.seq++
	v.bar.SetState(status.StateSearching)

	seq, ctx, svc := v.seq, v.ctx, v.svc
	opts := domain.SearchOptions{Mode: v.mode, Directory: v.directory, Global: v.global}
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, q, opts)
		return messages.SearchCompleted{Seq: seq, Results: results, Err: err}
	}
}

func (v *View) onResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.err = nil
	v.results.SetResults(msg.Results)
	v.bar.SetState(status.StateResults)
	v.bar.SetResultCount(len(msg.Results))
	v.focus = focusResults
	v.query.Blur()
}

func (v *View) fail(err error) {
	v.err = err
	v.bar.SetState(status.StateError)
	v.bar.SetMessage(err.Error())
}

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Recall") + "  " + v.styles.Muted.Render("in "+v.Scope())
	parts := []string{header, "", v.query.View(), ""}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	parts = append(parts, v.results.View(), "", v.bar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Scope describes where searches look.
func (v *View) Scope() string {
	if v.global || v.directory == "" {
		return "all photos"
	}
	return v.directory
}

// SetDimensions lays the components out for a width by height terminal.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
	v.query.SetWidth(width)
	v.results.SetDimensions(width, height-chromeHeight)
	v.bar.SetWidth(width)
}

// Reset clears the query, results and error and focuses the query field.
func (v *View) Reset() {
	v.focus = focusQuery
	v.query.Focus()
	v.query.SetValue("")
	v.results.SetResults(nil)
	v.err = nil
	v.bar.Clear()
}

// Ready reports whether dimensions have been set.
func (v *View) Ready() bool { return v.ready }

// Query returns the text in the query field.
func (v *View) Query() string { return v.query.Value() }

// SetQuery replaces the text in the query field.
func (v *View) SetQuery(q string) { v.query.SetValue(q) }

// Mode returns the match mode.
func (v *View) Mode() domain.MatchMode { return v.mode }

// Global reports whether searches ignore the directory.
func (v *View) Global() bool { return v.global }

// Results returns the photos from the last search.
func (v *View) Results() []domain.SearchResult { return v.results.Results() }

// SelectedIndex returns the highlighted row.
func (v *View) SelectedIndex() int { return v.results.Selected() }

// SelectedResult returns the highlighted photo, nil without results.
func (v *View) SelectedResult() *domain.SearchResult { return v.results.SelectedResult() }

// Err returns the last error shown.
func (v *View) Err() error { return v.err }

// InputFocused reports whether keys go to the query field.
func (v *View) InputFocused() bool { return v.focus == focusQuery }
