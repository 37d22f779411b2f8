package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
)

// useTempWorkspace points the package at a fresh data directory with the
// embedded index and no catalog
func useTempWorkspace(t *testing.T) {
	t.Helper()

	oldDataDir, oldSettings := dataDir, settings
	dataDir = t.TempDir()
	settings = config.Default()
	settings.DataDir = dataDir
	sourceMgr.current.Store(nil)
	catalogMgr.current.Store(nil)

	t.Cleanup(func() {
		CloseCatalog()
		sourceMgr.current.Store(nil)
		dataDir, settings = oldDataDir, oldSettings
	})
}

// --- Catalog holder tests ---
// These use mocks, so they touch neither bleve nor the filesystem

func TestCatalogHolderConcurrentReads(t *testing.T) {
	mockIdx := newMockIndex(1)
	idx := Index(mockIdx)

	holder := &catalogHolder{}
	holder.current.Store(&idx)

	const numReaders = 50
	errChan := make(chan error, numReaders)
	doneChan := make(chan bool, numReaders)

	for i := 0; i < numReaders; i++ {
		go func(id int) {
			defer func() { doneChan <- true }()

			holder.wg.Add(1)
			defer holder.wg.Done()

			indexPtr := holder.current.Load()
			if indexPtr == nil {
				errChan <- fmt.Errorf("goroutine %d: got nil catalog", id)
				return
			}

			count, err := (*indexPtr).DocCount()
			if err != nil {
				errChan <- fmt.Errorf("goroutine %d: DocCount failed: %v", id, err)
				return
			}
			if count != 100 {
				errChan <- fmt.Errorf("goroutine %d: expected 100, got %d", id, count)
			}
		}(i)
	}

	for i := 0; i < numReaders; i++ {
		<-doneChan
	}
	close(errChan)

	for err := range errChan {
		t.Error(err)
	}
	holder.wg.Wait()
}

func TestSwapCatalogClosesPrevious(t *testing.T) {
	defer catalogMgr.current.Store(nil)

	first := newMockIndex(1)
	second := newMockIndex(2)

	swapCatalog(first)
	if first.IsClosed() {
		t.Fatal("Installed catalog must not be closed")
	}

	swapCatalog(second)
	if !first.IsClosed() {
		t.Error("Replaced catalog should be closed")
	}
	if second.IsClosed() {
		t.Error("Active catalog should stay open")
	}

	ptr := catalogMgr.current.Load()
	if ptr == nil || *ptr != Index(second) {
		t.Error("Expected the second catalog to be active")
	}

	swapCatalog(nil)
	if !second.IsClosed() {
		t.Error("Clearing the catalog should close it")
	}
	if catalogMgr.current.Load() != nil {
		t.Error("Expected no active catalog")
	}
}

func TestSwapCatalogCloseError(t *testing.T) {
	defer catalogMgr.current.Store(nil)

	failing := newMockIndex(1)
	failing.closeError = fmt.Errorf("disk gone")

	swapCatalog(failing)
	// A failed close is logged, never fatal
	swapCatalog(newMockIndex(2))

	if !failing.IsClosed() {
		t.Error("Close should have been attempted")
	}
}

func TestSearchDocuments_MockCatalogError(t *testing.T) {
	defer catalogMgr.current.Store(nil)

	mock := newMockIndex(1)
	mock.searchError = fmt.Errorf("boom")
	idx := Index(mock)
	catalogMgr.current.Store(&idx)

	_, _, err := SearchDocuments(context.Background(), nil, SearchDocumentsInput{Query: "hooks"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected search error to surface, got %v", err)
	}
}

func TestSearchDocuments_RequiresQuery(t *testing.T) {
	_, _, err := SearchDocuments(context.Background(), nil, SearchDocumentsInput{Query: "   "})
	if err == nil {
		t.Error("Expected error for blank query")
	}
}

// --- Catalog integration tests ---
// These build a real bleve catalog from the embedded index in a temp dir

func TestInitializeCatalog_BuildAndSearch(t *testing.T) {
	useTempWorkspace(t)
	ctx := context.Background()

	if err := InitializeCatalog(ctx); err != nil {
		t.Fatalf("InitializeCatalog failed: %v", err)
	}

	indexPtr := catalogMgr.current.Load()
	if indexPtr == nil {
		t.Fatal("Expected an active catalog")
	}
	count, err := (*indexPtr).DocCount()
	if err != nil {
		t.Fatalf("DocCount failed: %v", err)
	}
	if count != 113 {
		t.Errorf("Expected 113 records, got %d", count)
	}

	if got := readCatalogStamp(); !strings.HasPrefix(got, fmt.Sprintf("v%d:", indexing.IndexSchemaVersion)) {
		t.Errorf("Unexpected catalog stamp %q", got)
	}

	tests := []struct {
		name      string
		input     SearchDocumentsInput
		wantTop   string
		maxHits   int
		inSection string
	}{
		{
			name:    "title match ranks first",
			input:   SearchDocumentsInput{Query: "toml"},
			wantTop: "providers/toml/",
		},
		{
			name:      "section filter",
			input:     SearchDocumentsInput{Query: "print", Section: "providers"},
			wantTop:   "providers/system/print",
			inSection: "providers",
		},
		{
			name:    "result limit",
			input:   SearchDocumentsInput{Query: "hook", MaxResults: 3},
			maxHits: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := SearchDocuments(ctx, nil, tt.input)
			if err != nil {
				t.Fatalf("SearchDocuments failed: %v", err)
			}
			if len(out.Results) == 0 {
				t.Fatal("Expected results")
			}
			if out.Source != embeddedSource {
				t.Errorf("Expected embedded source, got %q", out.Source)
			}
			if tt.wantTop != "" && !strings.HasPrefix(out.Results[0].Record.DocName, tt.wantTop) {
				t.Errorf("Expected top hit under %q, got %q", tt.wantTop, out.Results[0].Record.DocName)
			}
			if tt.maxHits > 0 && len(out.Results) > tt.maxHits {
				t.Errorf("Expected at most %d results, got %d", tt.maxHits, len(out.Results))
			}
			for _, r := range out.Results {
				if tt.inSection != "" && r.Record.Section != tt.inSection {
					t.Errorf("Result %s outside section %s", r.Record.DocName, tt.inSection)
				}
				if r.Record.Title == "" {
					t.Errorf("Result %s has no stored title", r.Record.DocName)
				}
			}
		})
	}
}

func TestInitializeCatalog_ReusesMatchingCatalog(t *testing.T) {
	useTempWorkspace(t)
	ctx := context.Background()

	if err := InitializeCatalog(ctx); err != nil {
		t.Fatalf("First InitializeCatalog failed: %v", err)
	}
	// A rebuild replaces the whole directory, so the marker survives only a reopen
	marker := filepath.Join(dataDir, catalogDir, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	swapCatalog(nil)
	if err := InitializeCatalog(ctx); err != nil {
		t.Fatalf("Second InitializeCatalog failed: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("Matching catalog should be reopened, not rebuilt")
	}

	// A different base URL changes the stored URLs, so the catalog is rebuilt
	swapCatalog(nil)
	settings.BaseURL = "https://docs.example.com/"
	if err := InitializeCatalog(ctx); err != nil {
		t.Fatalf("Third InitializeCatalog failed: %v", err)
	}
	_, out, err := SearchDocuments(ctx, nil, SearchDocumentsInput{Query: "toml"})
	if err != nil {
		t.Fatalf("SearchDocuments failed: %v", err)
	}
	if len(out.Results) == 0 || !strings.HasPrefix(out.Results[0].Record.URL, "https://docs.example.com/providers/toml/") {
		t.Errorf("Expected rebuilt records to carry the new base URL, got %+v", out.Results)
	}
}

func TestInitializeCatalog_ReusesPrebuiltCatalog(t *testing.T) {
	useTempWorkspace(t)
	ctx := context.Background()

	if err := InitializeIndex(ctx); err != nil {
		t.Fatalf("InitializeIndex failed: %v", err)
	}
	raw, err := defaultDataProvider.ReadFile(embeddedIndexFile)
	if err != nil {
		t.Fatalf("Failed to read embedded index: %v", err)
	}

	// Built the way cmd/indexer builds it
	path := filepath.Join(dataDir, catalogDir)
	records := indexing.BuildRecords(sourceMgr.current.Load().Index, settings.BaseURL)
	if err := indexing.WriteCatalog(path, records); err != nil {
		t.Fatalf("WriteCatalog failed: %v", err)
	}
	if err := indexing.WriteStamp(path, indexing.CatalogStamp(indexing.Fingerprint(raw), settings.BaseURL)); err != nil {
		t.Fatalf("WriteStamp failed: %v", err)
	}
	marker := filepath.Join(path, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	if err := InitializeCatalog(ctx); err != nil {
		t.Fatalf("InitializeCatalog failed: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("Prebuilt catalog with a matching stamp should be reopened, not rebuilt")
	}

	_, out, err := SearchDocuments(ctx, nil, SearchDocumentsInput{Query: "toml"})
	if err != nil {
		t.Fatalf("SearchDocuments failed: %v", err)
	}
	if len(out.Results) == 0 {
		t.Error("Expected hits from the prebuilt catalog")
	}
}

func TestReloadIndex(t *testing.T) {
	useTempWorkspace(t)
	ctx := context.Background()

	if err := InitializeCatalog(ctx); err != nil {
		t.Fatalf("InitializeCatalog failed: %v", err)
	}

	_, out, err := ReloadIndex(ctx, nil, ReloadIndexInput{})
	if err != nil {
		t.Fatalf("ReloadIndex failed: %v", err)
	}
	if out.Updated {
		t.Error("Fresh index should not be reloaded without force")
	}
	if out.Documents != 113 {
		t.Errorf("Expected 113 documents, got %d", out.Documents)
	}

	_, out, err = ReloadIndex(ctx, nil, ReloadIndexInput{Force: true})
	if err != nil {
		t.Fatalf("Forced ReloadIndex failed: %v", err)
	}
	if !out.Updated {
		t.Error("Forced reload should report an update")
	}
	if out.RecordsIndexed != 113 {
		t.Errorf("Expected 113 records indexed, got %d", out.RecordsIndexed)
	}

	_, _, err = ReloadIndex(ctx, nil, ReloadIndexInput{Source: filepath.Join(dataDir, "missing.js")})
	if err == nil {
		t.Error("Expected error for missing source")
	}
	if loaded := sourceMgr.current.Load(); loaded == nil || loaded.Source != embeddedSource {
		t.Error("Failed reload must keep the previous index")
	}
}

func TestCloseCatalog(t *testing.T) {
	useTempWorkspace(t)

	if err := InitializeCatalog(context.Background()); err != nil {
		t.Fatalf("InitializeCatalog failed: %v", err)
	}
	if err := CloseCatalog(); err != nil {
		t.Fatalf("CloseCatalog failed: %v", err)
	}
	if catalogMgr.current.Load() != nil {
		t.Error("Catalog should be cleared after close")
	}
	if _, err := os.Stat(filepath.Join(dataDir, lockFile)); !os.IsNotExist(err) {
		t.Error("Lock file should be released after close")
	}
}

func TestHitToRecord(t *testing.T) {
	fields := map[string]interface{}{
		"docname":  "providers/system/print",
		"title":    "print",
		"section":  "providers",
		"index":    float64(80),
		"keywords": []interface{}{"print", "output"},
	}

	record := hitToRecord("providers/system/print", fields)
	if record.Index != 80 || record.Section != "providers" || record.Title != "print" {
		t.Errorf("Unexpected record %+v", record)
	}
	if len(record.Keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %v", record.Keywords)
	}

	single := hitToRecord("x", map[string]interface{}{"keywords": "solo"})
	if len(single.Keywords) != 1 || single.Keywords[0] != "solo" {
		t.Errorf("Single stored keyword should become a one-element list, got %v", single.Keywords)
	}
}

func TestSearchDocuments_RequestShape(t *testing.T) {
	defer catalogMgr.current.Store(nil)

	mock := newMockIndex(1)
	idx := Index(mock)
	catalogMgr.current.Store(&idx)

	tests := []struct {
		name     string
		input    SearchDocumentsInput
		wantSize int
	}{
		{"default size", SearchDocumentsInput{Query: "hooks"}, 10},
		{"explicit size", SearchDocumentsInput{Query: "hooks", MaxResults: 4}, 4},
		{"size capped", SearchDocumentsInput{Query: "hooks", MaxResults: 500}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := SearchDocuments(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("SearchDocuments failed: %v", err)
			}
			if out.TotalHits != 100 {
				t.Errorf("Expected total hits from the catalog, got %d", out.TotalHits)
			}

			req := mock.LastRequest()
			if req == nil {
				t.Fatal("Catalog was not queried")
			}
			if req.Size != tt.wantSize {
				t.Errorf("Expected size %d, got %d", tt.wantSize, req.Size)
			}
			if len(req.Fields) != len(catalogFields) {
				t.Errorf("Expected stored fields %v, got %v", catalogFields, req.Fields)
			}
		})
	}
}
