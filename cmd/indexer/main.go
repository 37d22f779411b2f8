package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

func main() {
	baseURL := flag.String("base-url", "", "URL of the rendered docs, used to build page links")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-base-url URL] <searchindex.js> <catalog-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -base-url https://docs.example.com/ _build/html/searchindex.js data/catalog/index\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nThe server reuses the catalog when it is built at <data-dir>/catalog/index\n")
		fmt.Fprintf(os.Stderr, "with the same index and base URL.\n")
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	indexFile := flag.Arg(0)
	catalogDir := flag.Arg(1)

	log.Printf("Search Index Catalog Builder v%d", indexing.IndexSchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Step 1: Load and check the search index
	log.Printf("Loading search index: %s", indexFile)
	raw, err := os.ReadFile(indexFile)
	if err != nil {
		log.Fatalf("Failed to read search index: %v", err)
	}
	idx, err := searchindex.Parse(raw)
	if err != nil {
		log.Fatalf("Failed to parse search index: %v", err)
	}

	report := searchindex.Check(idx)
	if !report.Valid {
		for _, v := range report.Errors {
			log.Printf("  %s: %s (%s)", v.Path, v.Message, v.Code)
		}
		log.Fatalf("Refusing to index: %s", report.Summary)
	}
	for _, w := range report.Warnings {
		log.Printf("Warning: %s: %s", w.Path, w.Message)
	}

	stats := idx.Stats()
	log.Printf("✓ Loaded %d documents (%d terms, %d title terms, avg %.1f postings per term)",
		stats.Documents, stats.Terms, stats.TitleTerms, stats.AvgPostings)

	// Step 2: Build catalog records
	records := indexing.BuildRecords(idx, *baseURL)
	sections := indexing.SectionCounts(records)
	log.Printf("✓ Built %d records across %d sections", len(records), len(sections))

	// Step 3: Replace any existing catalog
	if err := os.RemoveAll(catalogDir); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove old catalog: %v", err)
	}

	log.Printf("Creating catalog: %s", catalogDir)
	if err := indexing.WriteCatalog(catalogDir, records); err != nil {
		log.Fatalf("Failed to write catalog: %v", err)
	}
	log.Printf("✓ Indexed %d records successfully", len(records))

	// Step 4: Verify with a sample search
	if stats.LargestTerm != "" {
		if err := verifyCatalog(catalogDir, stats.LargestTerm); err != nil {
			log.Fatalf("Catalog verification failed: %v", err)
		}
	}

	// Step 5: Stamp the catalog so the server can reopen it
	stamp := indexing.CatalogStamp(indexing.Fingerprint(raw), *baseURL)
	if err := indexing.WriteStamp(catalogDir, stamp); err != nil {
		log.Printf("Warning: Failed to write catalog stamp: %v", err)
	} else {
		log.Printf("✓ Catalog stamp: %s", stamp)
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete!")
	log.Printf("")
	log.Printf("Catalog details:")
	log.Printf("  Location:  %s", catalogDir)
	log.Printf("  Records:   %d", len(records))
	for section, count := range sections {
		log.Printf("  %-10s %d", section+":", count)
	}
	log.Printf("  Schema:    v%d", indexing.IndexSchemaVersion)
	log.Printf("  Stamp:     %s", stamp)
}

// verifyCatalog reopens the catalog and checks that term finds something
func verifyCatalog(catalogDir, term string) error {
	index, err := bleve.Open(catalogDir)
	if err != nil {
		return fmt.Errorf("failed to reopen catalog: %w", err)
	}
	defer index.Close()

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(term))
	req.Size = 3
	req.Fields = []string{"docname"}
	result, err := index.Search(req)
	if err != nil {
		return fmt.Errorf("sample search failed: %w", err)
	}
	if result.Total == 0 {
		return fmt.Errorf("sample search for %q returned no records", term)
	}

	log.Printf("✓ Sample search %q: %d hits", term, result.Total)
	for _, hit := range result.Hits {
		log.Printf("    %s (%.3f)", hit.ID, hit.Score)
	}
	return nil
}
