package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrInvalidQuery", ErrInvalidQuery},
		{"ErrSearchUnavailable", ErrSearchUnavailable},
		{"ErrOCRFailure", ErrOCRFailure},
		{"ErrStoreWrite", ErrStoreWrite},
		{"ErrEngineUnavailable", ErrEngineUnavailable},
		{"ErrIngestInProgress", ErrIngestInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrInvalidQuery(t *testing.T) {
	assert.Equal(t, "invalid query", ErrInvalidQuery.Error())
	assert.False(t, errors.Is(ErrInvalidQuery, ErrInvalidInput))
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("save spans for %s: %w", "/photos/a.jpg", ErrStoreWrite)
	assert.ErrorIs(t, wrapped, ErrStoreWrite)
	assert.NotErrorIs(t, wrapped, ErrOCRFailure)

	joined := fmt.Errorf("%w: %w", ErrOCRFailure, errors.New("tesseract: empty page"))
	assert.ErrorIs(t, joined, ErrOCRFailure)
	assert.Contains(t, joined.Error(), "empty page")
}
