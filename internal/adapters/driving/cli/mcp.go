package cli

import (
	"context"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/mcp"
)

var (
	mcpPort   int
	mcpHost   string
	mcpIngest bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Let AI assistants search your photos",
	Long: `Serve recall's search over the Model Context Protocol.

Assistants get a search_photos tool plus resources for store totals and
individual photos. Pass --ingest to also let them OCR new directories.

Stdio is used unless --port is given, in which case the streamable HTTP
transport listens on --host (localhost by default).

Examples:
  recall mcp serve
  recall mcp serve --port 8080
  recall mcp serve --ingest`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "interface to bind when --port is set")
	mcpServeCmd.Flags().BoolVar(&mcpIngest, "ingest", false, "expose the ingest_directory tool")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := buildMCPServer(cmd.Context(), mcpIngest)
	if err != nil {
		return err
	}
	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}

// buildMCPServer wires the services into an MCP server. Ingest is only
// opened when withIngest is set so a read-only server never loads an engine.
func buildMCPServer(ctx context.Context, withIngest bool) (*mcp.Server, error) {
	search, err := requireSearch()
	if err != nil {
		return nil, err
	}
	images, err := requireImages()
	if err != nil {
		return nil, err
	}

	ports := &mcp.Ports{Search: search, Images: images}
	if withIngest {
		if ports.Ingest, err = requireIngest(ctx, ""); err != nil {
			return nil, err
		}
	}
	return mcp.NewServer(ports, mcp.WithVersion(version))
}
