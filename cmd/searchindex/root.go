// Command searchindex checks, inspects and rewrites searchindex.js files.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "searchindex",
	Short: "Inspect Sphinx searchindex.js files",
	Long: `Reads the Search.setIndex(...) data file written by Sphinx-style
documentation builds. Every command accepts a file path or an http(s) URL.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// readArg returns the raw bytes behind a path or URL.
func readArg(ctx context.Context, arg string) ([]byte, error) {
	if isURL(arg) {
		return searchindex.Download(ctx, nil, arg)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return data, nil
}

// openArg parses the index behind a path or URL.
func openArg(ctx context.Context, arg string) (*searchindex.Index, error) {
	if isURL(arg) {
		return searchindex.Fetch(ctx, nil, arg)
	}
	return searchindex.Load(arg)
}
