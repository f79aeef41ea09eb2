package driving

import "github.com/custodia-labs/recall/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses value for a dotted key (e.g. "ocr.engine") and persists it.
	// Returns domain.ErrInvalidInput for unknown keys or invalid values.
	Set(key, value string) error

	// Reset removes a stored key so it reverts to its default.
	Reset(key string) error

	// Validate checks settings for consistency.
	Validate(settings *domain.AppSettings) error

	// Keys lists the settable keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
