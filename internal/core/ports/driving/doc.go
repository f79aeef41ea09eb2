// Package driving holds the interfaces the CLI, TUI and MCP server call.
// internal/core/services implements all of them; the adapters only ever see
// these interfaces.
package driving
