package driven

// ConfigStore persists settings as dotted keys ("ocr.engine"). Values keep
// whatever type the backing format decoded them as; callers coerce.
type ConfigStore interface {
	// Lookup returns the raw value stored under key.
	Lookup(key string) (any, bool)

	// Update writes every entry in values in a single commit. A nil value
	// removes its key. Either all entries are persisted or none are.
	Update(values map[string]any) error

	// Path describes where settings are kept.
	Path() string
}
