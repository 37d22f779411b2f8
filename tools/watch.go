package tools

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce absorbs the burst of events a single save produces
const watchDebounce = 500 * time.Millisecond

// SourceWatcher reloads the index and rebuilds the catalog when the
// configured searchindex.js file changes on disk
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	source   string // as configured
	path     string // absolute, matched against events
	debounce time.Duration
	reloaded chan struct{} // signalled after every reload attempt, for tests
	done     chan struct{}
}

// NewSourceWatcher watches path. Only local files can be watched.
func NewSourceWatcher(path string) (*SourceWatcher, error) {
	if path == "" || path == embeddedSource || isRemote(path) {
		return nil, fmt.Errorf("source %q is not a local file", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Builds usually replace the file, which drops a watch on the file
	// itself, so watch its directory
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &SourceWatcher{
		watcher:  watcher,
		source:   path,
		path:     abs,
		debounce: watchDebounce,
		reloaded: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Run handles events until ctx is cancelled, then closes the watcher
func (w *SourceWatcher) Run(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	log.Printf("✓ Watching %s for changes", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: Source watcher error: %v", err)

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

// Done is closed once Run has returned
func (w *SourceWatcher) Done() <-chan struct{} {
	return w.done
}

func (w *SourceWatcher) reload(ctx context.Context) {
	defer func() {
		select {
		case w.reloaded <- struct{}{}:
		default:
		}
	}()

	log.Printf("Search index changed on disk, reloading...")
	loaded, updated, err := reloadIndex(ctx, w.source, true)
	if err != nil {
		// A half-written file fails to parse; the next write retries
		log.Printf("Warning: Reload of %s failed, keeping the current index: %v", w.path, err)
		return
	}
	if !updated {
		return
	}

	if catalogMgr.current.Load() == nil {
		// The catalog picks the new index up when it is first initialised
		return
	}
	if err := acquireLock(); err != nil {
		log.Printf("Warning: Catalog not rebuilt: %v", err)
		return
	}
	if err := rebuildCatalog(loaded); err != nil {
		log.Printf("Warning: Catalog rebuild failed: %v", err)
	}
}
