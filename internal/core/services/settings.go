package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// settingField binds a config key to a field of domain.AppSettings.
type settingField struct {
	key string
	// field is the validator namespace below AppSettings.
	field string
	ptr   func(*domain.AppSettings) any
}

// Config keys for settings storage, in display order.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingFields = []settingField{
	{"ocr.engine", "OCR.Engine", func(s *domain.AppSettings) any { return &s.OCR.Engine }},
	{"ocr.languages", "OCR.Languages", func(s *domain.AppSettings) any { return &s.OCR.Languages }},
	{"ocr.command", "OCR.Command", func(s *domain.AppSettings) any { return &s.OCR.Command }},
	{"ocr.command_args", "OCR.CommandArgs", func(s *domain.AppSettings) any { return &s.OCR.CommandArgs }},
	{"ocr.min_confidence", "OCR.MinConfidence", func(s *domain.AppSettings) any { return &s.OCR.MinConfidence }},
	{"ocr.max_dimension", "OCR.MaxDimension", func(s *domain.AppSettings) any { return &s.OCR.MaxDimension }},
	{"ocr.timeout_seconds", "OCR.TimeoutSeconds", func(s *domain.AppSettings) any { return &s.OCR.TimeoutSeconds }},
	{"ingest.workers", "Ingest.Workers", func(s *domain.AppSettings) any { return &s.Ingest.Workers }},
	{"ingest.recursive", "Ingest.Recursive", func(s *domain.AppSettings) any { return &s.Ingest.Recursive }},
	{"ingest.include_hidden", "Ingest.IncludeHidden", func(s *domain.AppSettings) any { return &s.Ingest.IncludeHidden }},
	{"ingest.extensions", "Ingest.Extensions", func(s *domain.AppSettings) any { return &s.Ingest.Extensions }},
	{"search.mode", "Search.Mode", func(s *domain.AppSettings) any { return &s.Search.Mode }},
	{"search.limit", "Search.Limit", func(s *domain.AppSettings) any { return &s.Search.Limit }},
	{"vision.api_key", "Vision.APIKey", func(s *domain.AppSettings) any { return &s.Vision.APIKey }},
	{"vision.access_token", "Vision.AccessToken", func(s *domain.AppSettings) any { return &s.Vision.AccessToken }},
	{"vision.endpoint", "Vision.Endpoint", func(s *domain.AppSettings) any { return &s.Vision.Endpoint }},
	{"vision.requests_per_second", "Vision.RequestsPerSecond",
		func(s *domain.AppSettings) any { return &s.Vision.RequestsPerSecond }},
	{"watch.rescan", "Watch.Rescan", func(s *domain.AppSettings) any { return &s.Watch.Rescan }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validate    *validator.Validate
	// engine replaces the domain default OCR engine when set.
	engine domain.EngineType
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithDefaultEngine makes engine the OCR engine used when the config names
// none. The build decides which engines exist, so the caller picks it.
func WithDefaultEngine(engine domain.EngineType) SettingsOption {
	return func(s *SettingsService) {
		if engine.IsValid() {
			s.engine = engine
		}
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
// Missing keys take their defaults. Unknown engine or mode values fall back
// to defaults with a warning.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()
	settings := s.GetDefaults()

	for _, f := range settingFields {
		raw, ok := s.configStore.Lookup(f.key)
		if !ok {
			continue
		}
		switch p := f.ptr(&settings).(type) {
		case *string:
			*p = asString(raw)
		case *int:
			*p = asInt(raw)
		case *float64:
			*p = asFloat(raw)
		case *bool:
			*p, _ = raw.(bool)
		case *[]string:
			*p = asStrings(raw)
		case *domain.EngineType:
			if v := domain.EngineType(asString(raw)); v.IsValid() {
				*p = v
			} else {
				logger.Warn("ignoring invalid %s %q, using %s", f.key, v, defaults.OCR.Engine)
			}
		case *domain.MatchMode:
			if v := domain.MatchMode(asString(raw)); v.IsValid() {
				*p = v
			} else {
				logger.Warn("ignoring invalid %s %q, using %s", f.key, v, defaults.Search.Mode)
			}
		}
	}

	return &settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}
	values := make(map[string]any, len(settingFields))
	for _, f := range settingFields {
		values[f.key] = storedValue(f.ptr(settings))
	}
	if err := s.configStore.Update(values); err != nil {
		return fmt.Errorf("%w: save settings: %w", domain.ErrStoreWrite, err)
	}
	return nil
}

// Set parses value for a dotted key and persists it.
// List values are comma separated.
func (s *SettingsService) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := parseInto(f.ptr(settings), value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	if err := s.Validate(settings); err != nil {
		return err
	}

	if err := s.configStore.Update(map[string]any{f.key: storedValue(f.ptr(settings))}); err != nil {
		return fmt.Errorf("%w: save %s: %w", domain.ErrStoreWrite, f.key, err)
	}
	return nil
}

// Reset removes key from the config so it takes its default again.
func (s *SettingsService) Reset(key string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Update(map[string]any{f.key: nil}); err != nil {
		return fmt.Errorf("%w: reset %s: %w", domain.ErrStoreWrite, f.key, err)
	}
	return nil
}

// Validate checks settings for consistency.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if settings.Watch.Rescan != "" {
		if _, err := cron.ParseStandard(settings.Watch.Rescan); err != nil {
			return fmt.Errorf("%w: watch.rescan: %w", domain.ErrInvalidInput, err)
		}
	}

	if settings.OCR.Engine == domain.EngineVision && !settings.Vision.IsConfigured() {
		return fmt.Errorf("%w: vision engine requires vision.api_key or vision.access_token", domain.ErrInvalidInput)
	}

	return nil
}

// Keys lists the settable keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	if s.engine != "" {
		defaults.OCR.Engine = s.engine
	}
	return defaults
}

// SettingValue renders the value of key from settings for display.
func SettingValue(settings *domain.AppSettings, key string) (string, bool) {
	f, ok := lookupField(key)
	if !ok {
		return "", false
	}
	switch v := storedValue(f.ptr(settings)).(type) {
	case []string:
		return strings.Join(v, ","), true
	default:
		return fmt.Sprint(v), true
	}
}

func lookupField(key string) (settingField, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// parseInto assigns value to the field behind ptr.
func parseInto(ptr any, value string) error {
	value = strings.TrimSpace(value)
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *domain.EngineType:
		*p = domain.EngineType(strings.ToLower(value))
	case *domain.MatchMode:
		*p = domain.MatchMode(strings.ToLower(value))
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("expected an integer: %w", err)
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("expected a number: %w", err)
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false: %w", err)
		}
		*p = b
	case *[]string:
		*p = splitList(value)
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

// storedValue dereferences ptr into a TOML-friendly value.
func storedValue(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *domain.EngineType:
		return p.String()
	case *domain.MatchMode:
		return p.String()
	case *int:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *[]string:
		return append([]string{}, (*p)...)
	default:
		return nil
	}
}

// Raw config values arrive as whatever the store decoded: TOML gives int64
// and []any, values set in-process keep their Go type.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// asStrings keeps the string elements of a list; an empty list is nil.
func asStrings(v any) []string {
	var out []string
	switch items := v.(type) {
	case []string:
		out = append(out, items...)
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// describeFieldError names the config key that failed validation.
func describeFieldError(fe validator.FieldError) string {
	ns := strings.TrimPrefix(fe.StructNamespace(), "AppSettings.")
	name := ns
	for _, f := range settingFields {
		if f.field == ns || strings.HasPrefix(ns, f.field+"[") {
			name = f.key
			break
		}
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s fails %s=%s", name, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s fails %s", name, fe.Tag())
}
