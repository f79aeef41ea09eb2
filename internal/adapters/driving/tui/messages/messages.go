// Package messages holds the tea.Msg types passed between the TUI screens.
package messages

import (
	"github.com/custodia-labs/recall/internal/core/domain"
)

// ViewType names a screen.
type ViewType int

// Screens, in the order the app creates them.
const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewHelp
	ViewImageDetail
	ViewSettings
)

var viewNames = [...]string{
	ViewMenu:        "menu",
	ViewSearch:      "search",
	ViewHelp:        "help",
	ViewImageDetail: "image_detail",
	ViewSettings:    "settings",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to switch screens.
type ViewChanged struct {
	View ViewType
}

// Quit asks the app to exit.
type Quit struct{}

// ErrorOccurred reports a failure the current screen should display.
type ErrorOccurred struct {
	Err error
}

// Results of asynchronous service calls. Err is set instead of the payload
// when the call failed.
type (
	// SearchCompleted answers a submitted query.
	SearchCompleted struct {
		// Seq identifies the search this answers.
		Seq     int
		Results []domain.SearchResult
		Err     error
	}

	// StatsLoaded answers the menu's request for store totals.
	StatsLoaded struct {
		Stats *domain.ImageStats
		Err   error
	}

	// ImageLoaded answers the detail screen's request for a full record.
	ImageLoaded struct {
		Image *domain.ImageRecord
		Spans []domain.TextSpan
		Err   error
	}

	// SettingsLoaded answers the settings screen's request for the config.
	SettingsLoaded struct {
		Settings *domain.AppSettings
		Err      error
	}

	// SettingsSaved reports a change made on the settings screen. Changes
	// lists the keys written and their new values.
	SettingsSaved struct {
		Changes map[string]string
		Err     error
	}
)

// ResultSelected opens the detail screen for a search result.
type ResultSelected struct {
	Result domain.SearchResult
}
