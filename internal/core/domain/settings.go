package domain

const unknownDescription = "Unknown"

// EngineType identifies an OCR engine implementation.
type EngineType string

// Available OCR engines.
const (
	// EngineTesseract runs Tesseract in-process.
	EngineTesseract EngineType = "tesseract"

	// EngineCommand runs an external OCR command line tool.
	EngineCommand EngineType = "command"

	// EngineVision calls the Google Cloud Vision API.
	EngineVision EngineType = "vision"
)

// AllEngineTypes returns every engine in display order.
func AllEngineTypes() []EngineType {
	return []EngineType{EngineTesseract, EngineCommand, EngineVision}
}

// IsValid returns true if the engine type is recognised.
func (e EngineType) IsValid() bool {
	switch e {
	case EngineTesseract, EngineCommand, EngineVision:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this engine runs on the local machine.
func (e EngineType) IsLocal() bool {
	return e == EngineTesseract || e == EngineCommand
}

// String returns the string representation.
func (e EngineType) String() string {
	return string(e)
}

// Description returns a human-readable description of the engine.
func (e EngineType) Description() string {
	switch e {
	case EngineTesseract:
		return "Tesseract (local, in-process)"
	case EngineCommand:
		return "External command (local)"
	case EngineVision:
		return "Google Cloud Vision (cloud)"
	default:
		return unknownDescription
	}
}

// OCRSettings holds OCR engine configuration.
type OCRSettings struct {
	// Engine is the OCR engine implementation.
	Engine EngineType `validate:"required,oneof=tesseract command vision"`

	// Languages are engine language codes (e.g. "eng").
	Languages []string

	// Command is the executable used by the command engine.
	Command string `validate:"required_if=Engine command"`

	// CommandArgs are passed to Command before the image path.
	CommandArgs []string

	// MinConfidence drops spans below this confidence.
	MinConfidence float64 `validate:"gte=0,lte=1"`

	// MaxDimension downscales images whose longest side exceeds it. Zero disables.
	MaxDimension int `validate:"gte=0"`

	// TimeoutSeconds bounds a single recognition call.
	TimeoutSeconds int `validate:"gte=0"`
}

// IngestSettings holds ingest behaviour configuration.
type IngestSettings struct {
	// Workers bounds concurrent OCR calls. Zero uses the number of CPUs.
	Workers int `validate:"gte=0"`

	// Recursive descends into subdirectories by default.
	Recursive bool

	// IncludeHidden processes hidden files by default.
	IncludeHidden bool

	// Extensions are the photo file extensions to process.
	Extensions []string `validate:"min=1,dive,required"`
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// Mode is the default match mode.
	Mode MatchMode `validate:"required,oneof=substring fulltext fuzzy"`

	// Limit is the default result count.
	Limit int `validate:"gte=1"`
}

// VisionSettings holds Google Cloud Vision configuration.
type VisionSettings struct {
	// APIKey authenticates with an API key.
	APIKey string

	// AccessToken authenticates with an OAuth2 bearer token.
	AccessToken string

	// Endpoint overrides the API base URL.
	Endpoint string `validate:"omitempty,url"`

	// RequestsPerSecond throttles API calls.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// IsConfigured returns true if Vision credentials are set.
func (v VisionSettings) IsConfigured() bool {
	return v.APIKey != "" || v.AccessToken != ""
}

// WatchSettings holds watch mode configuration.
type WatchSettings struct {
	// Rescan is a cron spec for periodic full rescans. Empty disables.
	Rescan string
}

// AppSettings holds all application settings.
type AppSettings struct {
	OCR    OCRSettings
	Ingest IngestSettings
	Search SearchSettings
	Vision VisionSettings
	Watch  WatchSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		OCR: OCRSettings{
			Engine:         EngineTesseract,
			Languages:      []string{"eng"},
			Command:        "ocrs",
			MinConfidence:  0,
			MaxDimension:   4096,
			TimeoutSeconds: 120,
		},
		Ingest: IngestSettings{
			Workers:    0,
			Recursive:  false,
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Search: SearchSettings{
			Mode:  MatchSubstring,
			Limit: DefaultSearchLimit,
		},
		Vision: VisionSettings{
			RequestsPerSecond: 5,
		},
		Watch: WatchSettings{
			Rescan: "@every 1h",
		},
	}
}
