package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	version     = "0.3.0"
	serverName  = "searchindex-mcp"
	description = "MCP server for inspecting and searching Sphinx searchindex.js files"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// MCP uses stdout for protocol
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	tools.Configure(cfg)
	log.Printf("Data directory: %s", cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := createMCPServer()

	if err := registerTools(ctx, server); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}
	tools.RegisterResources(server)

	if cfg.Watch {
		startWatcher(ctx, cfg.Source)
	}

	log.Printf("✓ Server ready and waiting for connections")

	defer func() {
		// Stop the watcher before its catalog goes away
		cancel()
		if err := tools.CloseCatalog(); err != nil {
			log.Printf("Error closing catalog: %v", err)
		}
	}()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Printf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Title:   description,
			Version: version,
		},
		nil,
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(ctx context.Context, server *mcp.Server) error {
	toolCount := 0

	// Index inspection tools (5 tools)
	if err := tools.RegisterIndexTools(ctx, server); err != nil {
		return fmt.Errorf("failed to register index tools: %w", err)
	}
	toolCount += 5

	// Catalog search tools (2 tools)
	if err := tools.RegisterCatalogTools(ctx, server); err != nil {
		log.Printf("Warning: Failed to register catalog tools: %v", err)
		log.Printf("Document search will be unavailable")
	} else {
		toolCount += 2
	}

	log.Printf("✓ All tools registered: %d tools (index inspection + catalog search)", toolCount)
	return nil
}

// startWatcher reloads the index when a local source file changes
func startWatcher(ctx context.Context, source string) {
	watcher, err := tools.NewSourceWatcher(source)
	if err != nil {
		log.Printf("Warning: Not watching the search index: %v", err)
		return
	}
	go watcher.Run(ctx)
}
