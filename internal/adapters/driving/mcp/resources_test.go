package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestExtractImageID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid image URI", "recall://images/img-456", "img-456"},
		{"invalid prefix", "file://images/img-456", ""},
		{"nested path", "recall://images/img-456/spans", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractImageID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns counts", func(t *testing.T) {
		images := &mockImageService{stats: &domain.ImageStats{Total: 5, Done: 3, Failed: 1, Pending: 1, Spans: 12}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Images: images})
		require.NoError(t, err)

		result, err := server.handleStatsResource(ctx, makeReadResourceRequest("recall://stats"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got map[string]int
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, map[string]int{"total": 5, "pending": 1, "done": 3, "failed": 1, "spans": 12}, got)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		images := &mockImageService{err: errors.New("database locked")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Images: images})
		require.NoError(t, err)

		_, err = server.handleStatsResource(ctx, makeReadResourceRequest("recall://stats"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading stats")
	})
}

func TestServer_handleImageResource(t *testing.T) {
	ctx := context.Background()
	processed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	images := &mockImageService{
		images: map[string]*domain.ImageRecord{
			"img-1": {
				ID: "img-1", Path: "/photos/beach.jpg", Status: domain.StatusDone,
				Engine: "tesseract", Width: 800, Height: 600, ProcessedAt: processed,
			},
		},
		spans: map[string][]domain.TextSpan{
			"img-1": {{Text: "BEACH", Confidence: 0.8}},
		},
	}

	t.Run("returns image with spans", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Images: images})
		require.NoError(t, err)

		result, err := server.handleImageResource(ctx, makeReadResourceRequest("recall://images/img-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)

		var got imageInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "/photos/beach.jpg", got.Path)
		assert.Equal(t, "file:///photos/beach.jpg", got.URI)
		assert.Equal(t, "done", got.Status)
		assert.Equal(t, "2026-03-01T12:00:00Z", got.ProcessedAt)
		require.Len(t, got.Spans, 1)
		assert.Equal(t, "BEACH", got.Spans[0].Text)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Images: images})
		require.NoError(t, err)

		_, err = server.handleImageResource(ctx, makeReadResourceRequest("recall://images/missing"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Images: images})
		require.NoError(t, err)

		_, err = server.handleImageResource(ctx, makeReadResourceRequest("recall://invalid"))
		require.Error(t, err)
	})
}
