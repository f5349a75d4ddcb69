package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches for file changes and triggers incremental re-indexing
// through the Indexer.
type Watcher struct {
	indexer *Indexer
	watcher *fsnotify.Watcher

	// Debouncing
	pendingMu    sync.Mutex
	pendingFiles map[string]time.Time
	debounceTime time.Duration

	// Watch new directories as they appear.
	exclude []string
}

// WatcherConfig contains watcher configuration.
type WatcherConfig struct {
	Indexer      *Indexer
	DebounceTime time.Duration // Default: 500ms
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceTime := cfg.DebounceTime
	if debounceTime == 0 {
		debounceTime = 500 * time.Millisecond
	}

	return &Watcher{
		indexer:      cfg.Indexer,
		watcher:      watcher,
		pendingFiles: make(map[string]time.Time),
		debounceTime: debounceTime,
		exclude:      cfg.Indexer.config.Index.Exclude,
	}, nil
}

// Watch starts watching for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.addWatchDirs(w.indexer.projectDir); err != nil {
		return err
	}

	slog.Info("watching for file changes", "dir", w.indexer.projectDir)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// addWatchDirs recursively adds directories under root to the watch set.
func (w *Watcher) addWatchDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			relPath, _ := filepath.Rel(w.indexer.projectDir, path)
			for _, pattern := range w.exclude {
				if matchGlob(pattern, relPath+"/") {
					return filepath.SkipDir
				}
			}

			// Skip hidden directories (the .codechunk index dir included)
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			if err := w.watcher.Add(path); err != nil {
				slog.Warn("failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
}

// handleEvent processes a file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
		return
	}

	path := event.Name

	// New directories need to join the watch set for events below them.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchDirs(path); err != nil {
				slog.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if !w.indexer.ShouldIndex(path) {
		return
	}

	w.pendingMu.Lock()
	w.pendingFiles[path] = time.Now()
	w.pendingMu.Unlock()

	slog.Debug("file changed", "path", path, "op", event.Op.String())
}

// processDebounced processes pending files after the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPendingFiles(ctx)
		}
	}
}

// processPendingFiles processes files that have been stable for the
// debounce period.
func (w *Watcher) processPendingFiles(ctx context.Context) {
	w.pendingMu.Lock()
	now := time.Now()
	var toProcess []string
	for path, changedAt := range w.pendingFiles {
		if now.Sub(changedAt) >= w.debounceTime {
			toProcess = append(toProcess, path)
			delete(w.pendingFiles, path)
		}
	}
	w.pendingMu.Unlock()

	if len(toProcess) == 0 {
		return
	}

	slog.Info("re-indexing changed files", "count", len(toProcess))

	for _, path := range toProcess {
		if ctx.Err() != nil {
			return
		}

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			if err := w.indexer.RemoveFile(path); err != nil {
				slog.Warn("failed to remove file from index", "file", path, "error", err)
			} else {
				slog.Info("removed deleted file from index", "file", path)
			}
			continue
		}
		if err != nil {
			slog.Warn("failed to stat file", "file", path, "error", err)
			continue
		}
		if info.IsDir() {
			continue
		}

		if err := w.indexer.IndexFile(ctx, path); err != nil {
			slog.Warn("failed to index file", "file", path, "error", err)
		} else {
			slog.Info("indexed file", "file", path)
		}
	}
}

// Close closes the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
