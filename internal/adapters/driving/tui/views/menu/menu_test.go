package menu

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles())

	require.NotNil(t, view)
	assert.Len(t, view.items, 4)
	assert.Equal(t, 0, view.Selected())
	assert.Nil(t, view.Init())
	assert.Nil(t, view.Stats())
}

func TestView_NotReady(t *testing.T) {
	view := NewView(nil)

	assert.Equal(t, "Initialising...", view.View())
}

func TestView_Navigation(t *testing.T) {
	view := NewView(nil)

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, view.Selected())

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 3, view.Selected())

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, view.Selected())
}

func TestView_EnterChangesView(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		want     messages.ViewType
	}{
		{"search", 0, messages.ViewSearch},
		{"settings", 1, messages.ViewSettings},
		{"help", 2, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_Quit(t *testing.T) {
	view := NewView(nil)
	view.selected = 3

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_Stats(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 24)

	assert.NotContains(t, view.View(), "photos,")

	view.Update(messages.StatsLoaded{Stats: &domain.ImageStats{Total: 12, Done: 9, Failed: 2, Pending: 1, Spans: 40}})

	out := view.View()
	assert.Contains(t, out, "Recall")
	assert.Contains(t, out, "12 photos, 40 text spans, 2 failed, 1 pending")
}

func TestView_StatsErrorIgnored(t *testing.T) {
	view := NewView(nil)

	view.Update(messages.StatsLoaded{Err: errors.New("locked")})

	assert.Nil(t, view.Stats())
}

func TestView_Render(t *testing.T) {
	view := NewView(nil)
	view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	out := view.View()

	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "Search")
	assert.Contains(t, out, "Settings")
	assert.Contains(t, out, "Help")
	assert.Contains(t, out, "Quit")
}
