// Package styles provides the colour palettes and lipgloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a colour palette.
type Theme struct {
	Name string

	Accent  lipgloss.Color // titles, selection
	Info    lipgloss.Color // subtitles, paths
	Text    lipgloss.Color
	Subtle  lipgloss.Color // hints, secondary text
	Surface lipgloss.Color // status bar background
	Border  lipgloss.Color

	Good    lipgloss.Color
	Caution lipgloss.Color
	Bad     lipgloss.Color
}

// DarkTheme is tuned for dark terminals.
func DarkTheme() *Theme {
	return &Theme{
		Name:    "dark",
		Accent:  lipgloss.Color("#7C3AED"),
		Info:    lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Subtle:  lipgloss.Color("#6C7086"),
		Surface: lipgloss.Color("#181825"),
		Border:  lipgloss.Color("#45475A"),
		Good:    lipgloss.Color("#A6E3A1"),
		Caution: lipgloss.Color("#F9E2AF"),
		Bad:     lipgloss.Color("#F38BA8"),
	}
}

// LightTheme is tuned for light terminals.
func LightTheme() *Theme {
	return &Theme{
		Name:    "light",
		Accent:  lipgloss.Color("#6D28D9"),
		Info:    lipgloss.Color("#0E7490"),
		Text:    lipgloss.Color("#1E1E2E"),
		Subtle:  lipgloss.Color("#6B7280"),
		Surface: lipgloss.Color("#E5E7EB"),
		Border:  lipgloss.Color("#D1D5DB"),
		Good:    lipgloss.Color("#15803D"),
		Caution: lipgloss.Color("#B45309"),
		Bad:     lipgloss.Color("#B91C1C"),
	}
}

// DefaultTheme picks the palette matching the terminal background.
func DefaultTheme() *Theme {
	if lipgloss.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// Match marks spans that matched the query.
	Match lipgloss.Style
}

// NewStyles derives styles from theme. Nil uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	boxed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)

	return &Styles{
		theme: theme,

		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Info).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Subtle),
		Selected: fg(theme.Text).Background(theme.Accent).Bold(true),

		Error:   fg(theme.Bad),
		Success: fg(theme.Good),
		Warning: fg(theme.Caution),

		InputField: boxed.Padding(0, 1),
		StatusBar:  fg(theme.Subtle).Background(theme.Surface).Padding(0, 1),
		Help:       fg(theme.Subtle),
		Border:     boxed,

		Match: fg(theme.Caution).Bold(true).Underline(true),
	}
}

// Confidence thresholds for colouring OCR output.
const (
	HighConfidence = 0.8
	LowConfidence  = 0.5
)

// Confidence returns the style for text recognised with confidence c.
func (s *Styles) Confidence(c float64) lipgloss.Style {
	switch {
	case c >= HighConfidence:
		return s.Success
	case c >= LowConfidence:
		return s.Warning
	default:
		return s.Error
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
