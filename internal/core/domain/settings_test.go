package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllEngineTypes(t *testing.T) {
	engines := AllEngineTypes()
	assert.Equal(t, []EngineType{EngineTesseract, EngineCommand, EngineVision}, engines)
	for _, e := range engines {
		assert.True(t, e.IsValid(), e)
	}
}

func TestEngineType(t *testing.T) {
	for _, e := range []EngineType{EngineTesseract, EngineCommand, EngineVision} {
		assert.True(t, e.IsValid(), e)
		assert.NotEqual(t, "Unknown", e.Description())
	}
	assert.False(t, EngineType("ocrs-native").IsValid())
	assert.True(t, EngineTesseract.IsLocal())
	assert.True(t, EngineCommand.IsLocal())
	assert.False(t, EngineVision.IsLocal())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, EngineTesseract, s.OCR.Engine)
	assert.Equal(t, []string{"eng"}, s.OCR.Languages)
	assert.Equal(t, MatchSubstring, s.Search.Mode)
	assert.Equal(t, DefaultSearchLimit, s.Search.Limit)
	assert.False(t, s.Ingest.Recursive)
	assert.ElementsMatch(t, DefaultExtensions, s.Ingest.Extensions)
	assert.False(t, s.Vision.IsConfigured())
}

func TestDefaultAppSettings_ExtensionsAreCopied(t *testing.T) {
	s := DefaultAppSettings()
	s.Ingest.Extensions[0] = "heic"

	assert.Equal(t, "jpg", DefaultExtensions[0])
}

func TestVisionSettings_IsConfigured(t *testing.T) {
	assert.True(t, VisionSettings{APIKey: "k"}.IsConfigured())
	assert.True(t, VisionSettings{AccessToken: "t"}.IsConfigured())
	assert.False(t, VisionSettings{Endpoint: "http://localhost"}.IsConfigured())
}
