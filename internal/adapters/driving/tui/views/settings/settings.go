// Package settings is the configuration screen: the default match mode, the
// OCR engine and the Google Cloud Vision API key.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoSettingsService is reported when the screen has nothing to read from.
var ErrNoSettingsService = errors.New("settings service not available")

// Config keys written by this screen.
//
//nolint:gosec // G101: config key names, not credentials.
const (
	keySearchMode   = "search.mode"
	keyEngine       = "ocr.engine"
	keyVisionAPIKey = "vision.api_key"
)

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionSearchMode
	SectionEngine
	SectionVisionKey
)

// overviewItems are the rows of the overview, in order.
const overviewItems = 3

// View is the settings screen.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	svc      driving.SettingsService
	engines  []domain.EngineType
	settings *domain.AppSettings
	err      error

	section  Section
	selected int
	// pendingEngine is saved together with the key typed in SectionVisionKey.
	pendingEngine domain.EngineType

	apiKeyInput textinput.Model

	width, height int
	ready         bool
}

// NewView creates the settings screen. engines lists what this build can
// run; empty offers every engine.
func NewView(s *styles.Styles, svc driving.SettingsService, engines []domain.EngineType) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if len(engines) == 0 {
		engines = domain.AllEngineTypes()
	}

	apiKeyInput := textinput.New()
	apiKeyInput.Placeholder = "Enter API key"
	apiKeyInput.EchoMode = textinput.EchoPassword
	apiKeyInput.CharLimit = 256

	return &View{
		styles:      s,
		keys:        keymap.DefaultKeyMap(),
		svc:         svc,
		engines:     engines,
		apiKeyInput: apiKeyInput,
		width:       80,
		height:      24,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd { return v.load() }

func (v *View) load() tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles loaded and saved settings and key presses.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.settings, v.err = msg.Settings, nil
		}
	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.backToOverview()
		return v, v.load()
	case tea.KeyMsg:
		return v, v.onKey(msg)
	}
	return v, nil
}

func (v *View) onKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	if keymap.Matches(k, v.keys.Back) {
		if v.section == SectionOverview {
			return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
		v.backToOverview()
		return nil
	}

	switch v.section {
	case SectionOverview:
		return v.onOverviewKey(k)
	case SectionSearchMode:
		modes := domain.AllMatchModes()
		if v.moveOrSelect(k, len(modes)) {
			return v.save(map[string]string{keySearchMode: modes[v.selected].String()})
		}
	case SectionEngine:
		if v.moveOrSelect(k, len(v.engines)) {
			return v.chooseEngine(v.engines[v.selected])
		}
	case SectionVisionKey:
		return v.onKeyInput(msg)
	}
	return nil
}

func (v *View) onOverviewKey(k string) tea.Cmd {
	if !v.moveOrSelect(k, overviewItems) || v.settings == nil {
		return nil
	}
	switch v.selected {
	case 0:
		v.section = SectionSearchMode
		v.selected = indexOf(domain.AllMatchModes(), v.settings.Search.Mode)
	case 1:
		v.section = SectionEngine
		v.selected = indexOf(v.engines, v.settings.OCR.Engine)
	case 2:
		v.pendingEngine = ""
		return v.editAPIKey()
	}
	return nil
}

// moveOrSelect moves the cursor within n rows and reports whether the
// current row was chosen.
func (v *View) moveOrSelect(k string, n int) bool {
	switch {
	case keymap.Matches(k, v.keys.Up):
		v.selected = max(v.selected-1, 0)
	case keymap.Matches(k, v.keys.Down):
		v.selected = min(v.selected+1, n-1)
	case keymap.Matches(k, v.keys.Select):
		return v.selected >= 0 && v.selected < n
	}
	return false
}

// chooseEngine saves engine, asking for an API key first when Vision has no
// credentials yet.
func (v *View) chooseEngine(engine domain.EngineType) tea.Cmd {
	if engine == domain.EngineVision && v.settings != nil && !v.settings.Vision.IsConfigured() {
		v.pendingEngine = engine
		return v.editAPIKey()
	}
	return v.save(map[string]string{keyEngine: engine.String()})
}

func (v *View) editAPIKey() tea.Cmd {
	v.section = SectionVisionKey
	v.apiKeyInput.SetValue("")
	return v.apiKeyInput.Focus()
}

// onKeyInput feeds keys to the API key field; enter saves it.
func (v *View) onKeyInput(msg tea.KeyMsg) tea.Cmd {
	if !keymap.Matches(msg.String(), v.keys.Select) {
		var cmd tea.Cmd
		v.apiKeyInput, cmd = v.apiKeyInput.Update(msg)
		return cmd
	}
	key := strings.TrimSpace(v.apiKeyInput.Value())
	if key == "" {
		v.err = fmt.Errorf("%w: API key is empty", domain.ErrInvalidInput)
		return nil
	}
	changes := map[string]string{keyVisionAPIKey: key}
	if v.pendingEngine != "" {
		changes[keyEngine] = v.pendingEngine.String()
	}
	return v.save(changes)
}

// save writes changes through the settings service. The key goes first so a
// switch to Vision validates against it.
func (v *View) save(changes map[string]string) tea.Cmd {
	svc := v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		for _, key := range []string{keyVisionAPIKey, keySearchMode, keyEngine} {
			value, ok := changes[key]
			if !ok {
				continue
			}
			if err := svc.Set(key, value); err != nil {
				return messages.SettingsSaved{Err: err}
			}
		}
		return messages.SettingsSaved{Changes: changes}
	}
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.pendingEngine = ""
	v.apiKeyInput.SetValue("")
	v.apiKeyInput.Blur()
}

func indexOf[T comparable](items []T, want T) int {
	for i, it := range items {
		if it == want {
			return i
		}
	}
	return 0
}

// View renders the current section.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings") + "\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: "+v.err.Error()) + "\n\n")
	}
	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		v.renderOverview(&b)
	case SectionSearchMode:
		b.WriteString(v.styles.Subtitle.Render("Default match mode") + "\n\n")
		for i, m := range domain.AllMatchModes() {
			v.renderChoice(&b, i, m.Description(), m == v.settings.Search.Mode)
		}
	case SectionEngine:
		b.WriteString(v.styles.Subtitle.Render("OCR engine") + "\n\n")
		for i, e := range v.engines {
			v.renderChoice(&b, i, e.Description(), e == v.settings.OCR.Engine)
		}
	case SectionVisionKey:
		b.WriteString(v.styles.Subtitle.Render("Google Cloud Vision API key") + "\n\n")
		b.WriteString(v.apiKeyInput.View() + "\n")
	}

	b.WriteString("\n" + v.help())
	return b.String()
}

func (v *View) renderOverview(b *strings.Builder) {
	key := v.styles.Warning.Render("[not set]")
	if v.settings.Vision.IsConfigured() {
		key = v.styles.Success.Render("[configured]")
	}
	rows := [overviewItems]string{
		"Match mode: " + v.settings.Search.Mode.Description(),
		"OCR engine: " + v.settings.OCR.Engine.Description(),
		"Vision API key: " + key,
	}
	for i, row := range rows {
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> "+row) + "\n")
		} else {
			b.WriteString(v.styles.Normal.Render("  "+row) + "\n")
		}
	}

	b.WriteString("\n")
	if v.svc == nil {
		return
	}
	if err := v.svc.Validate(v.settings); err != nil {
		b.WriteString(v.styles.Warning.Render("Warning: "+err.Error()) + "\n")
	} else {
		b.WriteString(v.styles.Success.Render("Configuration is valid") + "\n")
	}
}

func (v *View) renderChoice(b *strings.Builder, i int, label string, current bool) {
	line := "  " + label
	if i == v.selected {
		line = "> " + label
	}
	if current {
		line += " (current)"
	}
	if i == v.selected {
		b.WriteString(v.styles.Selected.Render(line) + "\n")
	} else {
		b.WriteString(v.styles.Normal.Render(line) + "\n")
	}
}

func (v *View) help() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[↑/↓] move  [enter] edit  [esc] back")
	case SectionVisionKey:
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	default:
		return v.styles.Help.Render("[↑/↓] move  [enter] select  [esc] cancel")
	}
}

// SetDimensions sets the area the view may draw in.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
}

// Reset returns to the overview and forgets any typed key.
func (v *View) Reset() {
	v.err = nil
	v.backToOverview()
}

// Section returns the section on show.
func (v *View) Section() Section { return v.section }

// Selected returns the cursor position within the section.
func (v *View) Selected() int { return v.selected }

// Settings returns the settings last loaded, nil before the first load.
func (v *View) Settings() *domain.AppSettings { return v.settings }

// Err returns the last error shown.
func (v *View) Err() error { return v.err }
