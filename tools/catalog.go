package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	catalogDir = "catalog/index"
	titleBoost = 3.0
)

// catalogFields are the stored fields returned with every hit
var catalogFields = []string{"docname", "filename", "title", "section", "breadcrumb", "url", "keywords", "index"}

// SearchResult represents a catalog hit with score
type SearchResult struct {
	Record indexing.DocRecord `json:"record"`
	Score  float64            `json:"score"`
}

// SearchDocumentsInput defines input for search_documents tool
type SearchDocumentsInput struct {
	Query      string `json:"query" jsonschema:"Words to look for in document titles, names and indexed terms"`
	Section    string `json:"section,omitempty" jsonschema:"Restrict results to one top-level section, e.g. providers (optional)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, max 20)"`
}

// SearchDocumentsOutput defines output for search_documents tool
type SearchDocumentsOutput struct {
	Results   []SearchResult `json:"results"`
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	Source    string         `json:"source"`
}

// ReloadIndexInput defines input for reload_index tool
type ReloadIndexInput struct {
	Source string `json:"source,omitempty" jsonschema:"searchindex.js path or URL (optional, defaults to the configured source)"`
	Force  bool   `json:"force,omitempty" jsonschema:"Reload even if the current index is still fresh (optional, defaults to false)"`
}

// ReloadIndexOutput defines output for reload_index tool
type ReloadIndexOutput struct {
	Updated        bool      `json:"updated"`
	Source         string    `json:"source"`
	LastUpdate     time.Time `json:"last_update"`
	Documents      int       `json:"documents"`
	RecordsIndexed int       `json:"records_indexed"`
	Warnings       int       `json:"warnings"`
	Message        string    `json:"message"`
}

// catalogHolder manages concurrent access to the bleve catalog
type catalogHolder struct {
	// current holds the active catalog (atomic access for lock-free reads)
	current atomic.Pointer[Index]

	// rebuildMu prevents concurrent rebuilds; searches never take it
	rebuildMu sync.Mutex

	// wg tracks in-flight searches so a replaced catalog closes only when idle
	wg sync.WaitGroup
}

var catalogMgr = &catalogHolder{}

func catalogStamp(loaded *loadedIndex) string {
	return indexing.CatalogStamp(loaded.Fingerprint, settings.BaseURL)
}

func readCatalogStamp() string {
	return indexing.ReadStamp(filepath.Join(dataDir, catalogDir))
}

func writeCatalogStamp(stamp string) error {
	return indexing.WriteStamp(filepath.Join(dataDir, catalogDir), stamp)
}

// InitializeCatalog opens the on-disk catalog when it matches the active
// index, and rebuilds it otherwise
func InitializeCatalog(ctx context.Context) error {
	startTime := time.Now()
	log.Printf("Initializing document catalog...")

	loaded, err := currentIndex(ctx)
	if err != nil {
		return err
	}

	log.Printf("Acquiring catalog lock...")
	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire catalog lock: %w", err)
	}

	stamp := catalogStamp(loaded)

	// bbolt locks the catalog files, so never open them twice
	if catalogMgr.current.Load() != nil && readCatalogStamp() == stamp {
		log.Printf("✓ Document catalog already open")
		return nil
	}

	catalogPath := filepath.Join(dataDir, catalogDir)
	if _, err := os.Stat(catalogPath); err == nil {
		if readCatalogStamp() == stamp {
			index, err := bleve.Open(catalogPath)
			if err == nil {
				wrapped := wrapCatalog(index)
				swapCatalog(wrapped)
				count, _ := wrapped.DocCount()
				log.Printf("✓ Document catalog opened (%d records) in %v",
					count, time.Since(startTime).Round(time.Millisecond))
				return nil
			}
			log.Printf("Warning: Local catalog corrupted (%v), rebuilding...", err)
		} else {
			log.Printf("Catalog was built from a different index, rebuilding...")
		}
	}

	if err := rebuildCatalog(loaded); err != nil {
		return err
	}
	log.Printf("✓ Document catalog initialized in %v", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// rebuildCatalog builds a fresh catalog for loaded and swaps it in
func rebuildCatalog(loaded *loadedIndex) error {
	catalogMgr.rebuildMu.Lock()
	defer catalogMgr.rebuildMu.Unlock()

	records := indexing.BuildRecords(loaded.Index, settings.BaseURL)
	if err := indexRecords(records); err != nil {
		return err
	}

	if err := writeCatalogStamp(catalogStamp(loaded)); err != nil {
		log.Printf("Warning: Failed to write catalog stamp: %v", err)
	}
	return nil
}

// indexRecords writes records into a temp catalog, renames it into place
// and swaps the live pointer
func indexRecords(records []indexing.DocRecord) error {
	startTime := time.Now()
	catalogPath := filepath.Join(dataDir, catalogDir)
	tempPath := catalogPath + ".tmp"

	// Leftover from a crashed rebuild
	os.RemoveAll(tempPath)

	if err := indexing.WriteCatalog(tempPath, records); err != nil {
		os.RemoveAll(tempPath)
		return err
	}

	// Release the old catalog's files before replacing them on disk
	swapCatalog(nil)

	if err := os.RemoveAll(catalogPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempPath)
		return fmt.Errorf("failed to remove old catalog: %w", err)
	}
	if err := os.Rename(tempPath, catalogPath); err != nil {
		os.RemoveAll(tempPath)
		return fmt.Errorf("failed to rename temp catalog: %w", err)
	}

	finalIndex, err := bleve.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to open new catalog: %w", err)
	}
	swapCatalog(wrapCatalog(finalIndex))

	log.Printf("✓ Catalog rebuilt with %d records in %v", len(records), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// swapCatalog installs next (which may be nil) and closes the previous
// catalog once in-flight searches have finished
func swapCatalog(next Index) {
	var nextPtr *Index
	if next != nil {
		nextPtr = &next
	}
	oldPtr := catalogMgr.current.Swap(nextPtr)
	if oldPtr == nil {
		return
	}

	catalogMgr.wg.Wait()
	if err := (*oldPtr).Close(); err != nil {
		log.Printf("Warning: Error closing old catalog: %v", err)
	}
}

// buildSearchQuery matches the words anywhere in a record, weighting
// titles, optionally restricted to a section
func buildSearchQuery(text, section string) query.Query {
	titleQuery := bleve.NewMatchQuery(text)
	titleQuery.SetField("title")
	titleQuery.SetBoost(titleBoost)

	anyQuery := bleve.NewMatchQuery(text)

	var q query.Query = bleve.NewDisjunctionQuery(titleQuery, anyQuery)
	if section != "" {
		sectionQuery := bleve.NewTermQuery(section)
		sectionQuery.SetField("section")
		q = bleve.NewConjunctionQuery(q, sectionQuery)
	}
	return q
}

// hitToRecord copies the stored fields of a hit back into a record
func hitToRecord(id string, fields map[string]interface{}) indexing.DocRecord {
	record := indexing.DocRecord{ID: id}

	if v, ok := fields["docname"].(string); ok {
		record.DocName = v
	}
	if v, ok := fields["filename"].(string); ok {
		record.FileName = v
	}
	if v, ok := fields["title"].(string); ok {
		record.Title = v
	}
	if v, ok := fields["section"].(string); ok {
		record.Section = v
	}
	if v, ok := fields["breadcrumb"].(string); ok {
		record.Breadcrumb = v
	}
	if v, ok := fields["url"].(string); ok {
		record.URL = v
	}
	if v, ok := fields["index"].(float64); ok {
		record.Index = int(v)
	}
	switch v := fields["keywords"].(type) {
	case string:
		record.Keywords = []string{v}
	case []interface{}:
		record.Keywords = make([]string, 0, len(v))
		for _, kw := range v {
			if s, ok := kw.(string); ok {
				record.Keywords = append(record.Keywords, s)
			}
		}
	}
	return record
}

// SearchDocuments searches the document catalog
func SearchDocuments(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentsInput) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchDocumentsOutput{}, fmt.Errorf("query is required")
	}

	// Track in-flight searches (MUST be before Load)
	catalogMgr.wg.Add(1)
	defer catalogMgr.wg.Done()

	indexPtr := catalogMgr.current.Load()
	if indexPtr == nil {
		catalogMgr.wg.Done()
		log.Printf("Catalog not initialized, initializing now...")
		err := InitializeCatalog(ctx)
		catalogMgr.wg.Add(1)
		if err != nil {
			return nil, SearchDocumentsOutput{}, fmt.Errorf("failed to initialize catalog: %w", err)
		}
		indexPtr = catalogMgr.current.Load()
		if indexPtr == nil {
			return nil, SearchDocumentsOutput{}, fmt.Errorf("catalog still nil after initialization")
		}
	}
	index := *indexPtr

	search := bleve.NewSearchRequest(buildSearchQuery(input.Query, input.Section))
	search.Size = settings.ClampResults(input.MaxResults)
	search.Fields = catalogFields

	searchResults, err := index.Search(search)
	if err != nil {
		return nil, SearchDocumentsOutput{}, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		results = append(results, SearchResult{
			Record: hitToRecord(hit.ID, hit.Fields),
			Score:  hit.Score,
		})
	}

	output := SearchDocumentsOutput{
		Results:   results,
		Query:     input.Query,
		TotalHits: int(searchResults.Total),
	}
	if loaded := sourceMgr.current.Load(); loaded != nil {
		output.Source = loaded.Source
	}
	return nil, output, nil
}

// ReloadIndex re-reads the search index and rebuilds the catalog
func ReloadIndex(ctx context.Context, req *mcp.CallToolRequest, input ReloadIndexInput) (*mcp.CallToolResult, ReloadIndexOutput, error) {
	startTime := time.Now()

	loaded, updated, err := reloadIndex(ctx, input.Source, input.Force)
	if err != nil {
		return nil, ReloadIndexOutput{}, fmt.Errorf("reload failed: %w", err)
	}

	output := ReloadIndexOutput{
		Updated:    updated,
		Source:     loaded.Source,
		LastUpdate: loaded.LoadedAt,
		Documents:  loaded.Index.Len(),
		Warnings:   len(loaded.Report.Warnings),
	}

	if !updated {
		output.Message = fmt.Sprintf("Index is fresh (loaded %s from %s)", loaded.LoadedAt.Format(time.RFC3339), loaded.Source)
		return nil, output, nil
	}

	// The catalog lock may belong to another process; searches keep the
	// old catalog in that case
	if err := acquireLock(); err != nil {
		return nil, output, fmt.Errorf("failed to acquire lock for rebuild: %w", err)
	}
	if err := rebuildCatalog(loaded); err != nil {
		return nil, output, fmt.Errorf("catalog rebuild failed: %w", err)
	}

	if indexPtr := catalogMgr.current.Load(); indexPtr != nil {
		count, _ := (*indexPtr).DocCount()
		output.RecordsIndexed = int(count)
	}

	output.Message = fmt.Sprintf("Index reloaded from %s in %v, %d records indexed",
		loaded.Source, time.Since(startTime).Round(time.Millisecond), output.RecordsIndexed)
	return nil, output, nil
}

// RegisterCatalogTools registers the catalog search tools
func RegisterCatalogTools(ctx context.Context, server *mcp.Server) error {
	if err := InitializeCatalog(ctx); err != nil {
		log.Printf("Warning: Document catalog initialization failed: %v", err)
		log.Printf("Catalog search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documents",
			Description: "Full-text search over the documents of the loaded search index (titles, names and indexed terms). Returns ranked documents with links.",
		},
		SearchDocuments,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "reload_index",
			Description: "Re-read the searchindex.js source (or a new one), re-validate it and rebuild the document catalog",
		},
		ReloadIndex,
	)

	return nil
}

// CloseCatalog closes the catalog and releases the lock
func CloseCatalog() error {
	var closeErr error

	if indexPtr := catalogMgr.current.Swap(nil); indexPtr != nil {
		log.Printf("Waiting for in-flight searches to complete before closing...")
		catalogMgr.wg.Wait()

		closeErr = (*indexPtr).Close()
		if closeErr != nil {
			log.Printf("Error closing catalog: %v", closeErr)
		} else {
			log.Printf("✓ Catalog closed successfully")
		}
	}

	// Always attempt to release the lock, even if close failed
	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
