package vision

import (
	"math"
	"strings"

	"google.golang.org/api/vision/v1"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Break types reported on the last symbol of a word.
const (
	breakSpace        = "SPACE"
	breakSureSpace    = "SURE_SPACE"
	breakEOLSureSpace = "EOL_SURE_SPACE"
	breakHyphen       = "HYPHEN"
	breakLine         = "LINE_BREAK"
)

// lineBuilder accumulates symbols until a line break.
type lineBuilder struct {
	text                   strings.Builder
	minX, minY, maxX, maxY int64
	hasBox                 bool
	confSum                float64
	symbols                int
}

func (b *lineBuilder) add(sym *vision.Symbol) {
	b.text.WriteString(sym.Text)
	b.confSum += sym.Confidence
	b.symbols++
	b.extend(sym.BoundingBox)
}

func (b *lineBuilder) extend(poly *vision.BoundingPoly) {
	if poly == nil {
		return
	}
	for _, v := range poly.Vertices {
		if v == nil {
			continue
		}
		if !b.hasBox {
			b.minX, b.maxX, b.minY, b.maxY = v.X, v.X, v.Y, v.Y
			b.hasBox = true
			continue
		}
		b.minX = min(b.minX, v.X)
		b.minY = min(b.minY, v.Y)
		b.maxX = max(b.maxX, v.X)
		b.maxY = max(b.maxY, v.Y)
	}
}

// flush emits the current line, if any, and resets the builder.
func (b *lineBuilder) flush(spans []domain.TextSpan) []domain.TextSpan {
	text := strings.TrimSpace(b.text.String())
	if text != "" {
		span := domain.TextSpan{Text: text}
		if b.symbols > 0 {
			span.Confidence = math.Round(b.confSum/float64(b.symbols)*1000) / 1000
		}
		if b.hasBox {
			span.Region = domain.Region{
				X:      int(b.minX),
				Y:      int(b.minY),
				Width:  int(b.maxX - b.minX),
				Height: int(b.maxY - b.minY),
			}
		}
		spans = append(spans, span)
	}
	*b = lineBuilder{}
	return spans
}

// linesFromAnnotation splits a full-text annotation into one span per line.
// Paragraph ends also terminate a line.
func linesFromAnnotation(ann *vision.TextAnnotation) []domain.TextSpan {
	if ann == nil {
		return nil
	}
	var spans []domain.TextSpan
	var line lineBuilder
	for _, page := range ann.Pages {
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				for _, word := range para.Words {
					for _, sym := range word.Symbols {
						line.add(sym)
						switch detectedBreak(sym) {
						case breakSpace, breakSureSpace:
							line.text.WriteByte(' ')
						case breakHyphen:
							line.text.WriteByte('-')
							spans = line.flush(spans)
						case breakEOLSureSpace, breakLine:
							spans = line.flush(spans)
						}
					}
				}
				spans = line.flush(spans)
			}
		}
	}
	return spans
}

func detectedBreak(sym *vision.Symbol) string {
	if sym.Property == nil || sym.Property.DetectedBreak == nil {
		return ""
	}
	return sym.Property.DetectedBreak.Type
}
