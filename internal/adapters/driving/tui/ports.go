// Package tui is the interactive terminal front end: a menu, a search screen
// with live results and a detail screen listing every span in one photo.
package tui

import (
	"errors"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var (
	// ErrMissingSearchService means Ports.Search was nil.
	ErrMissingSearchService = errors.New("tui: search service is required")
	// ErrInvalidPorts means no Ports were supplied at all.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)

// Ports are the services the screens call. Images is optional: without it
// the detail screen falls back to the spans carried by the search result.
// Without Settings the settings screen only reports that it is unavailable.
type Ports struct {
	Search   driving.SearchService
	Images   driving.ImageService
	Settings driving.SettingsService
}

// NewPorts bundles search and images.
func NewPorts(search driving.SearchService, images driving.ImageService) *Ports {
	return &Ports{Search: search, Images: images}
}

// WithSettings adds the settings service behind the settings screen.
func (p *Ports) WithSettings(svc driving.SettingsService) *Ports {
	p.Settings = svc
	return p
}

// Validate reports a nil bundle or a missing search service.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Search == nil:
		return ErrMissingSearchService
	}
	return nil
}
