package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchInput is the input schema for the search_photos tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"text to look for in photos"`
	Mode      string `json:"mode,omitempty" jsonschema:"match mode: substring, fulltext or fuzzy"`
	Directory string `json:"directory,omitempty" jsonschema:"restrict results to photos at or below this absolute directory"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search_photos tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single matching photo.
type SearchResultOutput struct {
	ImageID string       `json:"image_id"`
	Path    string       `json:"path"`
	Score   float64      `json:"score"`
	Spans   []SpanOutput `json:"spans"`
}

// SpanOutput is a matching piece of text within a photo.
type SpanOutput struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// IngestInput is the input schema for the ingest_directory tool.
type IngestInput struct {
	Directory string `json:"directory" jsonschema:"directory containing photos"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"descend into subdirectories"`
	Force     bool   `json:"force,omitempty" jsonschema:"re-process photos that are already done"`
}

// IngestOutput is the output schema for the ingest_directory tool.
type IngestOutput struct {
	Directory  string            `json:"directory"`
	Discovered int               `json:"discovered"`
	Processed  int               `json:"processed"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Spans      int               `json:"spans"`
	Failures   map[string]string `json:"failures,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_photos",
		Description: "Search the text recognised in local photos",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_directory",
			Description: "Run OCR over new or changed photos in a directory",
		}, s.handleIngest)
	}
}

// handleSearch handles the search_photos tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Directory: input.Directory,
		Global:    input.Directory == "",
		Limit:     input.Limit,
	}
	if opts.Limit <= 0 {
		opts.Limit = domain.DefaultSearchLimit
	}
	if input.Mode != "" {
		mode, err := domain.ParseMatchMode(input.Mode)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("%w: unknown mode %q", err, input.Mode)
		}
		opts.Mode = mode
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ImageID: results[i].Image.ID,
			Path:    results[i].Image.Path,
			Score:   results[i].Score,
			Spans:   spanOutputs(results[i].Spans),
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest_directory tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Ingest.Ingest(ctx, domain.IngestOptions{
		Directory: input.Directory,
		Recursive: input.Recursive,
		Force:     input.Force,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Directory:  report.Directory,
		Discovered: report.Discovered,
		Processed:  report.Processed,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Spans:      report.Spans,
		Failures:   report.Failures,
	}, nil
}

func spanOutputs(spans []domain.TextSpan) []SpanOutput {
	out := make([]SpanOutput, len(spans))
	for i, sp := range spans {
		out[i] = SpanOutput{
			Text:       sp.Text,
			Confidence: sp.Confidence,
			X:          sp.Region.X,
			Y:          sp.Region.Y,
			Width:      sp.Region.Width,
			Height:     sp.Region.Height,
		}
	}
	return out
}
