package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/help"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/imagedetail"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	menuView     *menu.View
	searchView   *search.View
	detailView   *imagedetail.View
	helpView     *help.View
	settingsView *settings.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// Options configures the initial search view.
type Options struct {
	// Directory scopes searches. Empty searches every stored photo.
	Directory string

	// Mode is the initial match mode. Empty uses substring.
	Mode domain.MatchMode

	// Engines are the OCR engines the settings screen offers. Empty offers
	// every engine.
	Engines []domain.EngineType
}

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	searchView := search.NewView(s, km, ports.Search, opts.Directory)
	if opts.Mode.IsValid() {
		searchView.SetMode(opts.Mode)
	}

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		menuView:     menu.NewView(s),
		searchView:   searchView,
		detailView:   imagedetail.NewView(s, ports.Images),
		helpView:     help.NewView(s, km),
		settingsView: settings.NewView(s, ports.Settings, opts.Engines),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context used by searches and lookups.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.detailView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("recall"),
		a.loadStats(),
	)
}

// loadStats fetches store totals for the menu.
func (a *App) loadStats() tea.Cmd {
	if a.ports.Images == nil {
		return nil
	}
	ctx, images := a.ctx, a.ports.Images
	return func() tea.Msg {
		stats, err := images.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update implements tea.Model. Answers go to the view that asked for them;
// everything else goes to the screen on show.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case messages.Quit:
		return a, tea.Quit
	case messages.ViewChanged:
		return a, a.navigate(msg.View)
	case messages.ResultSelected:
		a.currentView = messages.ViewImageDetail
		return a, a.detailView.SetResult(msg.Result)
	case messages.SearchCompleted:
		a.err = msg.Err
		return a, a.dispatch(messages.ViewSearch, msg)
	case messages.ImageLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, a.dispatch(messages.ViewImageDetail, msg)
	case messages.StatsLoaded:
		return a, a.dispatch(messages.ViewMenu, msg)
	case messages.SettingsLoaded:
		return a, a.dispatch(messages.ViewSettings, msg)
	case messages.SettingsSaved:
		if mode := domain.MatchMode(msg.Changes["search.mode"]); msg.Err == nil && mode.IsValid() {
			a.searchView.SetMode(mode)
		}
		return a, a.dispatch(messages.ViewSettings, msg)
	case messages.ErrorOccurred:
		a.err = msg.Err
	}
	return a, a.dispatch(a.currentView, msg)
}

// navigate switches screens. Coming back from a photo keeps the results;
// any other way into search starts afresh.
func (a *App) navigate(to messages.ViewType) tea.Cmd {
	from := a.currentView
	a.currentView = to
	switch {
	case to == messages.ViewMenu:
		return a.loadStats()
	case to == messages.ViewSearch && from != messages.ViewImageDetail:
		a.searchView.Reset()
		return a.searchView.Init()
	case to == messages.ViewSettings:
		a.settingsView.Reset()
		return a.settingsView.Init()
	}
	return nil
}

// dispatch hands msg to the view behind a screen.
func (a *App) dispatch(view messages.ViewType, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch view {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewImageDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewHelp:
		a.helpView, cmd = a.helpView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewImageDetail:
		return a.detailView.View()
	case messages.ViewHelp:
		return a.helpView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	default:
		return a.menuView.View()
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
