package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

// validateConcurrency bounds the files checked at once
const validateConcurrency = 4

var (
	validateSchema   bool
	validateWarnings bool
)

// errInvalidFiles is returned when at least one file fails
var errInvalidFiles = errors.New("one or more indexes are invalid")

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check searchindex.js files",
	Long: `Checks that docnames, filenames and titles have the same length and that
every posting points at an existing document. Exits non-zero if any file fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateSchema, "schema", false, "also validate against the JSON schema")
	validateCmd.Flags().BoolVarP(&validateWarnings, "warnings", "w", false, "print warnings as well as errors")
	rootCmd.AddCommand(validateCmd)
}

// fileResult is the outcome for one argument
type fileResult struct {
	report    searchindex.Report
	schemaErr *searchindex.ValidationError
	err       error
}

func (r fileResult) ok() bool {
	return r.err == nil && r.report.Valid && r.schemaErr == nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	results := make([]fileResult, len(args))

	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(validateConcurrency)

	for i, arg := range args {
		eg.Go(func() error {
			results[i] = checkArg(ctx, arg)
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for i, arg := range args {
		r := results[i]
		if !r.ok() {
			failed++
		}
		printResult(cmd, arg, r)
	}

	if failed > 0 {
		cmd.Printf("\n%d of %d file(s) invalid\n", failed, len(args))
		return errInvalidFiles
	}
	return nil
}

func checkArg(ctx context.Context, arg string) fileResult {
	data, err := readArg(ctx, arg)
	if err != nil {
		return fileResult{err: err}
	}

	idx, err := searchindex.Parse(data)
	if err != nil {
		return fileResult{err: fmt.Errorf("parse: %w", err)}
	}

	result := fileResult{report: searchindex.Check(idx)}
	if validateSchema {
		if err := searchindex.SchemaValidate(data); err != nil {
			var verr *searchindex.ValidationError
			if !errors.As(err, &verr) {
				result.err = fmt.Errorf("schema: %w", err)
				return result
			}
			result.schemaErr = verr
		}
	}
	return result
}

func printResult(cmd *cobra.Command, arg string, r fileResult) {
	switch {
	case r.err != nil:
		cmd.Printf("ERROR %s: %v\n", arg, r.err)
		return
	case r.ok():
		cmd.Printf("OK    %s: %s\n", arg, r.report.Summary)
	default:
		cmd.Printf("FAIL  %s: %s\n", arg, r.report.Summary)
	}

	for _, v := range r.report.Errors {
		cmd.Printf("      %s [%s] %s\n", v.Path, v.Code, v.Message)
	}
	if r.schemaErr != nil {
		for _, v := range r.schemaErr.Violations {
			cmd.Printf("      %s [%s] %s\n", v.Path, v.Code, v.Message)
		}
	}
	if validateWarnings {
		for _, v := range r.report.Warnings {
			cmd.Printf("      warning: %s [%s] %s\n", v.Path, v.Code, v.Message)
		}
	}
}
