package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/connectors/filesystem"
	"github.com/custodia-labs/recall/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for recall resources.
	uriScheme = "recall://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Images == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Counts of stored photos by OCR status",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "images/{id}",
		Name:        "image",
		Description: "A stored photo with all recognised text",
		MIMEType:    "application/json",
	}, s.handleImageResource)
}

// handleStatsResource returns store statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Images.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	return jsonResource(req.Params.URI, map[string]int{
		"total":   stats.Total,
		"pending": stats.Pending,
		"done":    stats.Done,
		"failed":  stats.Failed,
		"spans":   stats.Spans,
	})
}

// imageInfo is the JSON form of a stored photo.
type imageInfo struct {
	ID          string       `json:"id"`
	Path        string       `json:"path"`
	URI         string       `json:"uri"`
	Status      string       `json:"status"`
	Engine      string       `json:"engine,omitempty"`
	Error       string       `json:"error,omitempty"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	ProcessedAt string       `json:"processed_at,omitempty"`
	Spans       []SpanOutput `json:"spans"`
}

// handleImageResource returns a photo and its spans.
func (s *Server) handleImageResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractImageID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, spans, err := s.ports.Images.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}

	info := imageInfo{
		ID:     rec.ID,
		Path:   rec.Path,
		URI:    filesystem.FileURI(rec.Path),
		Status: rec.Status.String(),
		Engine: rec.Engine,
		Error:  rec.Error,
		Width:  rec.Width,
		Height: rec.Height,
		Spans:  spanOutputs(spans),
	}
	if !rec.ProcessedAt.IsZero() {
		info.ProcessedAt = rec.ProcessedAt.Format(time.RFC3339)
	}
	return jsonResource(req.Params.URI, info)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractImageID extracts the image ID from a URI like recall://images/{id}.
func extractImageID(uri string) string {
	const prefix = uriScheme + "images/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
