package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/services"
)

func newTestPorts() *Ports {
	return &Ports{
		Search: &MockSearchService{},
		Images: &MockImageService{},
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports, Options{Directory: "/photos"})
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

// goToSearchView navigates the app from menu to search view for testing.
func goToSearchView(app *App) {
	app.Update(messages.ViewChanged{View: messages.ViewSearch})
}

func typeAndSubmit(t *testing.T, app *App, query string) {
	t.Helper()
	for _, r := range query {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts(), Options{})

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Images: &MockImageService{}}, Options{})

	assert.ErrorIs(t, err, ErrMissingSearchService)
	assert.Nil(t, app)
}

func TestNewApp_InitialMode(t *testing.T) {
	var got domain.SearchOptions
	ports := &Ports{Search: &MockSearchService{
		SearchFunc: func(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
			got = opts
			return nil, nil
		},
	}}
	app, err := NewApp(ports, Options{Directory: "/photos", Mode: domain.MatchFuzzy})
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	goToSearchView(app)

	typeAndSubmit(t, app, "exit")

	assert.Equal(t, domain.MatchFuzzy, got.Mode)
	assert.Equal(t, "/photos", got.Directory)
}

func TestApp_InitLoadsStats(t *testing.T) {
	ports := newTestPorts()
	ports.Images = &MockImageService{
		StatsFunc: func(context.Context) (*domain.ImageStats, error) {
			return &domain.ImageStats{Total: 3, Spans: 7}, nil
		},
	}
	app := newTestApp(t, ports)

	cmd := app.loadStats()
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "3 photos, 7 text spans")
	assert.NotNil(t, app.Init())
}

func TestApp_NoImagesSkipsStats(t *testing.T) {
	app := newTestApp(t, &Ports{Search: &MockSearchService{}})

	assert.Nil(t, app.loadStats())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(newTestPorts(), Options{})
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Recall")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_MenuToSearch(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "/photos")
}

func TestApp_SearchOpenDetailAndBack(t *testing.T) {
	rec := domain.ImageRecord{ID: "img-1", Path: "/photos/a.jpg", Dir: "/photos", Name: "a.jpg", Status: domain.StatusDone}
	ports := &Ports{
		Search: &MockSearchService{
			SearchFunc: func(context.Context, string, domain.SearchOptions) ([]domain.SearchResult, error) {
				return []domain.SearchResult{{Image: rec, Spans: []domain.TextSpan{{ID: "s1", Text: "EXIT"}}}}, nil
			},
		},
		Images: &MockImageService{
			GetByIDFunc: func(_ context.Context, id string) (*domain.ImageRecord, []domain.TextSpan, error) {
				assert.Equal(t, "img-1", id)
				return &rec, []domain.TextSpan{{ID: "s0", Text: "NO"}, {ID: "s1", Text: "EXIT"}}, nil
			},
		},
	}
	app := newTestApp(t, ports)
	goToSearchView(app)
	typeAndSubmit(t, app, "exit")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	assert.Equal(t, messages.ViewImageDetail, app.CurrentView())
	require.NotNil(t, cmd)
	app.Update(cmd())

	out := app.View()
	assert.Contains(t, out, "a.jpg")
	assert.Contains(t, out, "Text (2 spans)")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "a.jpg", "results survive returning from the detail view")
}

func TestApp_SearchError(t *testing.T) {
	ports := &Ports{Search: &MockSearchService{
		SearchFunc: func(context.Context, string, domain.SearchOptions) ([]domain.SearchResult, error) {
			return nil, domain.ErrSearchUnavailable
		},
	}}
	app := newTestApp(t, ports)
	goToSearchView(app)

	typeAndSubmit(t, app, "exit")

	assert.ErrorIs(t, app.Err(), domain.ErrSearchUnavailable)
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	goToSearchView(app)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Cycle match mode")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_SettingsChangeMatchMode(t *testing.T) {
	svc := services.NewSettingsService(memory.NewConfigStore())
	app := newTestApp(t, newTestPorts().WithSettings(svc))

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSettings})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewSettings, app.CurrentView())
	app.Update(cmd())
	assert.Contains(t, app.View(), "Match mode: "+domain.MatchSubstring.Description())

	// Overview -> match mode section -> fuzzy
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	require.NotNil(t, cmd)
	app.Update(cmd())

	stored, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.MatchFuzzy, stored.Search.Mode)
	assert.Contains(t, app.View(), "Match mode: "+domain.MatchFuzzy.Description())

	// The search screen picks the new default up
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	goToSearchView(app)
	assert.Equal(t, domain.MatchFuzzy, app.searchView.Mode())
}

func TestApp_SettingsWithoutService(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSettings})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "settings service not available")
}

func TestApp_WithContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	var got context.Context
	ports := &Ports{Search: &MockSearchService{
		SearchFunc: func(c context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
			got = c
			return nil, nil
		},
	}}
	app := newTestApp(t, ports)

	assert.Same(t, app, app.WithContext(ctx))
	goToSearchView(app)
	typeAndSubmit(t, app, "x")

	assert.Equal(t, "value", got.Value(key{}))
}
