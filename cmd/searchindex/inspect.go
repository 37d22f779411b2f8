package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

var (
	statsJSON   bool
	docsSection string
	docsBaseURL string
	termTitles  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Summarise an index",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var docsCmd = &cobra.Command{
	Use:   "docs [file]",
	Short: "List the documents of an index",
	Long: `Lists every document with its position, docname, source file and title.
Page links are shown when a base URL is given or configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocs,
}

var termCmd = &cobra.Command{
	Use:   "term [file] [term]",
	Short: "Show the documents a token points at",
	Args:  cobra.ExactArgs(2),
	RunE:  runTerm,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	docsCmd.Flags().StringVarP(&docsSection, "section", "s", "", "only documents under this top-level section")
	docsCmd.Flags().StringVar(&docsBaseURL, "base-url", "", "URL of the rendered docs (defaults to the configured one)")
	termCmd.Flags().BoolVarP(&termTitles, "titles", "t", false, "look only at title tokens")

	rootCmd.AddCommand(statsCmd, docsCmd, termCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	idx, err := openArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	stats := idx.Stats()

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Documents:       %d\n", stats.Documents)
	cmd.Printf("Terms:           %d (%d postings, avg %.2f)\n", stats.Terms, stats.Postings, stats.AvgPostings)
	cmd.Printf("Title terms:     %d (%d postings)\n", stats.TitleTerms, stats.TitlePostings)
	if stats.LargestTerm != "" {
		cmd.Printf("Largest term:    %s (%d documents)\n", stats.LargestTerm, stats.LargestPostings)
	}
	cmd.Printf("Object prefixes: %d\n", stats.ObjectPrefixes)
	cmd.Printf("Object types:    %d\n", stats.ObjectTypes)
	if stats.GeneratorVersion > 0 {
		cmd.Printf("Env version:     %d (%d domains)\n", stats.GeneratorVersion, stats.EnvDomains)
	}

	sections := make(map[string]int)
	for _, name := range idx.DocNames {
		sections[indexing.SectionOf(name)]++
	}
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println("Sections:")
	for _, name := range names {
		cmd.Printf("  %-16s %d\n", name, sections[name])
	}
	return nil
}

func runDocs(cmd *cobra.Command, args []string) error {
	idx, err := openArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	baseURL := docsBaseURL
	if baseURL == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		baseURL = cfg.BaseURL
	}

	shown := 0
	for _, doc := range idx.Documents() {
		if docsSection != "" && indexing.SectionOf(doc.Name) != docsSection {
			continue
		}
		printDocument(cmd, doc, baseURL)
		shown++
	}

	if shown == 0 {
		cmd.Println("No documents found.")
	}
	return nil
}

func printDocument(cmd *cobra.Command, doc searchindex.Document, baseURL string) {
	cmd.Printf("%4d  %-40s %-44s %s\n", doc.Index, doc.Name, doc.FileName, indexing.StripTags(doc.Title))
	if url := indexing.BuildURL(baseURL, doc.Name); url != "" {
		cmd.Printf("      %s\n", url)
	}
}

func runTerm(cmd *cobra.Command, args []string) error {
	idx, err := openArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	term := args[1]

	found := false
	if !termTitles {
		if p, ok := idx.Postings(term); ok {
			found = true
			cmd.Printf("terms[%q]: %v\n", term, []int(p))
			for _, doc := range idx.Lookup(term) {
				printDocument(cmd, doc, "")
			}
		}
	}
	if p, ok := idx.TitlePostings(term); ok {
		found = true
		cmd.Printf("titleterms[%q]: %v\n", term, []int(p))
		for _, doc := range idx.LookupTitle(term) {
			printDocument(cmd, doc, "")
		}
	}

	if !found {
		return fmt.Errorf("term %q: %w", term, searchindex.ErrNotFound)
	}
	return nil
}
