// Package ocr provides factory functions for creating OCR engine adapters.
package ocr

import (
	"context"
	"fmt"

	"golang.org/x/text/language"

	"github.com/custodia-labs/recall/cgo/tesseract"
	"github.com/custodia-labs/recall/internal/adapters/driven/ocr/command"
	"github.com/custodia-labs/recall/internal/adapters/driven/ocr/vision"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// CreateEngine creates the engine selected by settings.OCR.Engine.
func CreateEngine(ctx context.Context, settings *domain.AppSettings) (driven.OCREngine, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}

	var engine driven.OCREngine
	var err error
	switch settings.OCR.Engine {
	case domain.EngineTesseract:
		engine, err = tesseract.New(settings.OCR.Languages)

	case domain.EngineCommand:
		engine, err = command.New(command.Config{
			Command: settings.OCR.Command,
			Args:    settings.OCR.CommandArgs,
		})

	case domain.EngineVision:
		engine, err = vision.New(ctx, vision.Config{
			APIKey:            settings.Vision.APIKey,
			AccessToken:       settings.Vision.AccessToken,
			Endpoint:          settings.Vision.Endpoint,
			Languages:         languageHints(settings.OCR.Languages),
			RequestsPerSecond: settings.Vision.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("%w: ocr engine %q", domain.ErrUnsupportedType, settings.OCR.Engine)
	}
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// AvailableEngines lists the engines this build can construct.
func AvailableEngines() []domain.EngineType {
	engines := []domain.EngineType{domain.EngineCommand, domain.EngineVision}
	if tesseract.Available {
		engines = append([]domain.EngineType{domain.EngineTesseract}, engines...)
	}
	return engines
}

// DefaultEngine is the engine used when the config names none: Tesseract
// when it is compiled in, otherwise the external command.
func DefaultEngine() domain.EngineType {
	if tesseract.Available {
		return domain.EngineTesseract
	}
	return domain.EngineCommand
}

// languageHints converts Tesseract language codes ("eng", "deu") into the
// BCP 47 tags Vision expects. Unknown codes are dropped.
func languageHints(codes []string) []string {
	var hints []string
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		hints = append(hints, base.String())
	}
	return hints
}
