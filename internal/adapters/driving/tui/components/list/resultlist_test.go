package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
)

func testResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Image: domain.ImageRecord{ID: "1", Path: "/photos/receipt.jpg", Dir: "/photos", Name: "receipt.jpg"},
			Spans: []domain.TextSpan{{Text: "TOTAL  12.50"}},
			Score: 1,
		},
		{
			Image: domain.ImageRecord{ID: "2", Path: "/photos/sign.png", Dir: "/photos", Name: "sign.png"},
			Spans: []domain.TextSpan{{Text: "Level 3"}, {Text: "Level 4"}},
			Score: 0.5,
		},
		{
			Image: domain.ImageRecord{ID: "3", Path: "/photos/menu.webp", Dir: "/photos", Name: "menu.webp"},
			Score: 0.1,
		},
	}
}

func TestNewResultList(t *testing.T) {
	r := NewResultList(nil)

	require.NotNil(t, r)
	assert.True(t, r.IsEmpty())
	assert.Nil(t, r.SelectedResult())
	assert.Nil(t, r.Init())
}

func TestResultList_SetResults_ResetsSelection(t *testing.T) {
	r := NewResultList(styles.DefaultStyles())
	r.SetResults(testResults())
	r.SetSelected(2)

	r.SetResults(testResults()[:2])

	assert.Equal(t, 0, r.Selected())
	assert.Equal(t, 2, r.Count())
}

func TestResultList_SetSelected_IgnoresOutOfRange(t *testing.T) {
	r := NewResultList(nil)
	r.SetResults(testResults())

	r.SetSelected(1)
	r.SetSelected(5)
	r.SetSelected(-1)

	assert.Equal(t, 1, r.Selected())
	assert.Equal(t, "/photos/sign.png", r.SelectedResult().Image.Path)
}

func TestResultList_Navigation(t *testing.T) {
	r := NewResultList(nil)
	r.SetResults(testResults())

	r.MoveUp()
	assert.Equal(t, 0, r.Selected())

	r.Update(tea.KeyMsg{Type: tea.KeyDown})
	r.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	r.MoveDown()
	assert.Equal(t, 2, r.Selected())

	r.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	r.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, r.Selected())
}

func TestResultList_View_Empty(t *testing.T) {
	r := NewResultList(nil)

	assert.Contains(t, r.View(), "No results")
}

func TestResultList_View_ShowsPhotos(t *testing.T) {
	r := NewResultList(nil)
	r.SetDimensions(80, 20)
	r.SetResults(testResults())

	view := r.View()

	assert.Contains(t, view, "Photos (3)")
	assert.Contains(t, view, "receipt.jpg")
	assert.Contains(t, view, "TOTAL 12.50")
	assert.Contains(t, view, "2 matches")
	assert.Contains(t, view, "1 match")
	assert.Contains(t, view, "> ")
}

func TestResultList_View_ScrollsToSelection(t *testing.T) {
	r := NewResultList(nil)
	r.SetDimensions(80, 7)
	r.SetResults(testResults())
	r.SetSelected(2)

	view := r.View()

	assert.Contains(t, view, "menu.webp")
	assert.NotContains(t, view, "receipt.jpg")
}

func TestResultList_View_TruncatesLongNames(t *testing.T) {
	r := NewResultList(nil)
	r.SetDimensions(40, 20)
	long := strings.Repeat("a", 100) + ".jpg"
	r.SetResults([]domain.SearchResult{{Image: domain.ImageRecord{Path: "/p/" + long, Dir: "/p", Name: long}}})

	view := r.View()

	assert.Contains(t, view, "...")
	assert.NotContains(t, view, long)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", truncate("héllo wörld!", 10))
}

func TestResultList_View_KeepsWindowWhileMovingBack(t *testing.T) {
	r := NewResultList(nil)
	// room for two rows
	r.SetDimensions(80, 10)
	r.SetResults(testResults())

	r.SetSelected(2)
	assert.NotContains(t, r.View(), "receipt.jpg")

	r.MoveUp()
	view := r.View()
	assert.Contains(t, view, "sign.png")
	assert.Contains(t, view, "menu.webp", "window stays put while the selection is visible")

	r.MoveUp()
	assert.Contains(t, r.View(), "receipt.jpg")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 match", plural(1, "match", "matches"))
	assert.Equal(t, "0 matches", plural(0, "match", "matches"))
	assert.Equal(t, "4 matches", plural(4, "match", "matches"))
}
