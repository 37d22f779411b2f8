package tools

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

// embeddedSource labels the index compiled into the binary
const embeddedSource = "embedded"

var (
	settings = config.Default()
	dataDir  string // Data directory for the catalog and lock file

	httpClient = &http.Client{Timeout: 30 * time.Second}
)

// Configure installs the server settings. It must run before any tool is
// registered.
func Configure(cfg config.Config) {
	settings = cfg
	dataDir = cfg.DataDir
}

// loadedIndex is an immutable snapshot of a parsed search index
type loadedIndex struct {
	Index       *searchindex.Index
	Source      string
	Fingerprint string // sha256 prefix of the raw file
	LoadedAt    time.Time
	Report      searchindex.Report
	raw         []byte
}

// indexSource holds the active search index
type indexSource struct {
	// current is swapped atomically so readers never lock
	current atomic.Pointer[loadedIndex]

	// reloadMu serialises reloads
	reloadMu sync.Mutex
}

var sourceMgr = &indexSource{}

// readSource fetches the raw bytes behind a source: an http(s) URL, a file
// path, or the embedded index when source is empty.
func readSource(ctx context.Context, source string) ([]byte, string, error) {
	switch {
	case source == "" || source == embeddedSource:
		data, err := defaultDataProvider.ReadFile(embeddedIndexFile)
		if err != nil {
			return nil, embeddedSource, fmt.Errorf("failed to read embedded index: %w", err)
		}
		return data, embeddedSource, nil

	case isRemote(source):
		data, err := download(ctx, source)
		return data, source, err

	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, source, fmt.Errorf("failed to read search index: %w", err)
		}
		return data, source, nil
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func download(ctx context.Context, url string) ([]byte, error) {
	log.Printf("Downloading search index from %s", url)
	return searchindex.Download(ctx, httpClient, url)
}

// loadIndex reads, parses and checks a source. Indexes that break the
// docnames/postings contract are rejected.
func loadIndex(ctx context.Context, source string) (*loadedIndex, error) {
	startTime := time.Now()

	data, label, err := readSource(ctx, source)
	if err != nil {
		return nil, err
	}

	idx, err := searchindex.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", label, err)
	}

	report := searchindex.Check(idx)
	if !report.Valid {
		return nil, fmt.Errorf("%s: %w", label, &searchindex.ValidationError{Violations: report.Errors})
	}

	loaded := &loadedIndex{
		Index:       idx,
		Source:      label,
		Fingerprint: indexing.Fingerprint(data),
		LoadedAt:    time.Now(),
		Report:      report,
		raw:         data,
	}

	log.Printf("✓ Search index loaded from %s (%d documents, %d terms, %d warnings) in %v",
		label, idx.Len(), len(idx.Terms), len(report.Warnings), time.Since(startTime).Round(time.Millisecond))
	return loaded, nil
}

// InitializeIndex loads the configured source, falling back to the
// embedded index when it cannot be used.
func InitializeIndex(ctx context.Context) error {
	loaded, err := loadIndex(ctx, settings.Source)
	if err != nil && settings.Source != "" {
		log.Printf("Warning: Could not load %s: %v", settings.Source, err)
		log.Printf("Falling back to the embedded search index")
		loaded, err = loadIndex(ctx, "")
	}
	if err != nil {
		return fmt.Errorf("failed to load search index: %w", err)
	}

	sourceMgr.current.Store(loaded)
	return nil
}

// currentIndex returns the active index, loading it on first use
func currentIndex(ctx context.Context) (*loadedIndex, error) {
	if loaded := sourceMgr.current.Load(); loaded != nil {
		return loaded, nil
	}

	log.Printf("Search index not initialized, initializing now...")
	if err := InitializeIndex(ctx); err != nil {
		return nil, err
	}
	loaded := sourceMgr.current.Load()
	if loaded == nil {
		return nil, fmt.Errorf("index still nil after initialization")
	}
	return loaded, nil
}

// isFresh reports whether the active index came from source within the TTL
func isFresh(loaded *loadedIndex, source string) bool {
	if loaded == nil {
		return false
	}
	if source != "" && source != loaded.Source {
		return false
	}
	return time.Since(loaded.LoadedAt) < settings.CacheTTL
}

// reloadIndex re-reads source (the configured one when empty). It returns
// the active index and whether a new one was loaded.
func reloadIndex(ctx context.Context, source string, force bool) (*loadedIndex, bool, error) {
	if source == "" {
		source = settings.Source
	}

	if !force && isFresh(sourceMgr.current.Load(), source) {
		return sourceMgr.current.Load(), false, nil
	}

	sourceMgr.reloadMu.Lock()
	defer sourceMgr.reloadMu.Unlock()

	// Another caller may have reloaded while we waited
	if !force && isFresh(sourceMgr.current.Load(), source) {
		log.Printf("Search index was reloaded by another goroutine, skipping")
		return sourceMgr.current.Load(), false, nil
	}

	loaded, err := loadIndex(ctx, source)
	if err != nil {
		return sourceMgr.current.Load(), false, err
	}

	sourceMgr.current.Store(loaded)
	return loaded, true, nil
}
