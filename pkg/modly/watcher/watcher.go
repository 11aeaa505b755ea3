// Package watcher reports mod files as they arrive in a mods root. A file
// is reported once it has been quiet for the settle delay, so downloads
// still being written are not picked up half-finished.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/N1nj4lxl/Modly/pkg/modly/ignore"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/scanner"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("watcher")

// DefaultSettle is how long a file must be quiet before it is reported.
const DefaultSettle = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	// Ignore filters files and folders. May be nil.
	Ignore *ignore.Matcher

	// SkipDirs are folder names never watched, such as the holding folder.
	SkipDirs []string

	// SkipFiles are file names never reported, such as the journal.
	SkipFiles []string

	// Settle overrides DefaultSettle.
	Settle time.Duration
}

// Watcher watches a mods root recursively.
type Watcher struct {
	root    string
	opts    Options
	watcher *fsnotify.Watcher

	skipDirs  map[string]bool
	skipFiles map[string]bool

	mu      sync.Mutex
	paths   map[string]bool
	pending map[string]*time.Timer
	closed  bool
}

// New creates a Watcher for root.
func New(root string, opts Options) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:      absRoot,
		opts:      opts,
		watcher:   fsw,
		skipDirs:  lowerSet(opts.SkipDirs),
		skipFiles: lowerSet(opts.SkipFiles),
		paths:     make(map[string]bool),
		pending:   make(map[string]*time.Timer),
	}
	if err := w.watchTree(absRoot); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

// watchTree adds watches for dir and every folder below it. Symlinks are
// not followed.
func (w *Watcher) watchTree(dir string) error {
	info, err := os.Lstat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // unreadable folders are skipped
		}
		if !d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if path != w.root && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) skipDir(path string) bool {
	if w.skipDirs[strings.ToLower(filepath.Base(path))] {
		return true
	}
	return w.opts.Ignore.MatchDir(path)
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

// Watched returns the number of folders being watched.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

// Run delivers settled arrivals to onArrival until ctx is done. onArrival
// is called from timer goroutines, one file at a time.
func (w *Watcher) Run(ctx context.Context, onArrival func(types.FileRecord)) error {
	var deliver sync.Mutex
	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, func(rec types.FileRecord) {
				deliver.Lock()
				defer deliver.Unlock()
				if ctx.Err() == nil {
					onArrival(rec)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, onArrival func(types.FileRecord)) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Lstat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if !w.skipDir(event.Name) {
				_ = w.watchTree(event.Name)
			}
			return
		}
		if info.Mode().IsRegular() {
			w.schedule(event.Name, onArrival)
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string, onArrival func(types.FileRecord)) {
	if w.skipFiles[strings.ToLower(filepath.Base(path))] {
		return
	}
	if ignored, reason := w.opts.Ignore.MatchFile(path); ignored {
		logger.Debug("ignoring arrival", "path", path, "reason", reason)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		rec, err := scanner.Stat(w.root, path)
		if err != nil {
			logger.Debug("arrival vanished", "path", path, "err", err)
			return
		}
		logger.Info("file arrived", "path", path, "size", rec.Size)
		onArrival(rec)
	})
}

// forget drops pending timers and watches for a removed path.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.watcher.Remove(p)
			delete(w.paths, p)
		}
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.stopPending()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
