package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

var (
	exportOutput string
	fmtOutput    string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Print the index as indented JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Rewrite an index in canonical form",
	Long: `Re-encodes an index as Search.setIndex(...) with quoted keys in sorted
order. The result loads back to the same index.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to this file instead of stdout")
	fmtCmd.Flags().StringVarP(&fmtOutput, "output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(exportCmd, fmtCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	idx, err := openArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	payload, err := idx.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		return fmt.Errorf("failed to indent payload: %w", err)
	}
	out.WriteByte('\n')

	return writeOutput(cmd, exportOutput, out.Bytes())
}

func runFmt(cmd *cobra.Command, args []string) error {
	idx, err := openArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	data, err := searchindex.Marshal(idx)
	if err != nil {
		return err
	}
	return writeOutput(cmd, fmtOutput, data)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
