package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeatlas-io/codeatlas/internal/config"
	"github.com/codeatlas-io/codeatlas/internal/mcp"
	"github.com/codeatlas-io/codeatlas/internal/pipeline"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for code map queries",
	Long: `Serve starts a Model Context Protocol (MCP) server that lets LLM-powered
coding assistants query the generated code map.

The MCP server:
- Loads the map from .codeatlas/map/
- Provides full-text search via the atlas_search tool
- Provides relationship traversal via the atlas_graph tool
- Reloads automatically when 'codeatlas index' rewrites the map
- Communicates via stdio (standard MCP transport)

Example:
  codeatlas serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	mapDir := pipeline.OutputPath(rootDir, cfg)

	// Startup banner goes to stderr; stdout carries the MCP protocol.
	fmt.Fprintf(os.Stderr, "CodeAtlas MCP Server\n")
	fmt.Fprintf(os.Stderr, "Map Location: %s\n", mapDir)
	fmt.Fprintf(os.Stderr, "\n")

	server, err := mcp.NewServer(ctx, mapDir, Version, mcp.WithLogger(loggerFromContext(ctx)))
	if err != nil {
		return err
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
