// Package mcp exposes recall to AI assistants over the Model Context Protocol.
// Assistants can search the text recognised in photos, read stored records
// and, when enabled, ingest new directories.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// ErrMissingSearchService is returned by NewServer when Ports.Search is nil.
var ErrMissingSearchService = errors.New("mcp: search service is required")

const (
	serverName     = "recall"
	defaultVersion = "dev"
	shutdownGrace  = 5 * time.Second
)

// Ports are the services the server calls into. Only Search is required;
// resources need Images and the ingest tool needs Ingest.
type Ports struct {
	Search driving.SearchService
	Images driving.ImageService
	Ingest driving.IngestService
}

// Validate reports a missing required service.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

// Option customises a Server.
type Option func(*Server)

// WithVersion sets the version advertised during initialisation.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// Server wraps an MCP server bound to recall's services.
type Server struct {
	ports   *Ports
	version string
	server  *mcp.Server
}

// NewServer registers tools and resources for whichever ports are set.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: defaultVersion}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: s.version},
		&mcp.ServerOptions{Instructions: s.instructions()},
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Version returns the advertised server version.
func (s *Server) Version() string { return s.version }

func (s *Server) instructions() string {
	text := "Use search_photos to find photos by the text recognised in them. " +
		"Results are ordered by relevance and include the matching text spans."
	if s.ports.Images != nil {
		text += " Read recall://images/{id} for every span in one photo and recall://stats for store totals."
	}
	if s.ports.Ingest != nil {
		text += " ingest_directory runs OCR over new photos before they can be searched."
	}
	return text
}

// Run serves over stdin and stdout until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("mcp: listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
