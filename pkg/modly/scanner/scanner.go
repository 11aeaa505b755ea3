package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("scanner")

// Scanner walks one mods folder.
type Scanner struct {
	opts Options

	// Atomic counters for thread-safe progress reporting.
	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	kept         atomic.Int64
	ignored      atomic.Int64

	// currentPath is the path currently being scanned (for progress).
	currentPath atomic.Value

	// errors collects scan errors without stopping the scan.
	errors   []types.ScanError
	errorsMu sync.Mutex

	records   []types.FileRecord
	recordsMu sync.Mutex

	// lastProgress tracks when we last reported progress to avoid excessive callbacks.
	lastProgress atomic.Int64

	root      string
	skipDirs  map[string]bool
	skipFiles map[string]bool
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	s := &Scanner{
		opts:      opts,
		errors:    make([]types.ScanError, 0),
		records:   make([]types.FileRecord, 0),
		skipDirs:  make(map[string]bool),
		skipFiles: make(map[string]bool),
	}
	s.currentPath.Store("")
	return s
}

// Scan walks the root and returns the kept records sorted by path.
// It blocks until complete or ctx is cancelled, in which case ctx.Err()
// is returned.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	startTime := time.Now()

	root, err := validateRoot(s.opts.Root)
	if err != nil {
		return nil, err
	}
	s.root = root
	for _, d := range s.opts.SkipDirs {
		if d = strings.TrimSpace(d); d != "" {
			s.skipDirs[strings.ToLower(filepath.Join(root, d))] = true
		}
	}
	for _, f := range s.opts.SkipFiles {
		if f != "" {
			s.skipFiles[strings.ToLower(f)] = true
		}
	}

	logger.Info("scan started", "root", root, "recurse", s.opts.Recurse)
	s.currentPath.Store(root)
	s.reportProgressForce(false)

	if err := s.executeWalk(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("scan cancelled", "root", root, "files", s.filesScanned.Load())
		return nil, err
	}

	slices.SortFunc(s.records, func(a, b types.FileRecord) int {
		return strings.Compare(a.Path, b.Path)
	})

	s.reportProgressForce(true)

	result := &types.ScanResult{
		Root:         root,
		Records:      s.records,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		Ignored:      s.ignored.Load(),
		Elapsed:      time.Since(startTime),
		Errors:       s.errors,
	}
	logger.Info("scan finished",
		"root", root,
		"kept", len(result.Records),
		"ignored", result.Ignored,
		"errors", len(result.Errors),
		"elapsed", result.Elapsed)
	return result, nil
}

// executeWalk runs fastwalk over the root.
func (s *Scanner) executeWalk(ctx context.Context) error {
	conf := fastwalk.Config{
		Follow:     false, // Don't follow symlinks.
		NumWorkers: s.opts.Workers,
	}

	err := fastwalk.Walk(&conf, s.root, s.walkCallback(ctx.Done()))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return fmt.Errorf("walking %s: %w", s.root, err)
	}
	return nil
}

// validateRoot resolves the root path to absolute and verifies it is a directory.
func validateRoot(path string) (string, error) {
	if path == "" {
		return "", errors.New("scan root is empty")
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", root, os.ErrInvalid)
	}

	return root, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		// Unreadable entries are recorded and skipped.
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if d.IsDir() {
			return s.handleDirectory(path)
		}

		if d.Type().IsRegular() {
			s.processFile(path, d)
		}
		return nil
	}
}

// handleDirectory decides whether the walk descends into path.
func (s *Scanner) handleDirectory(path string) error {
	if path == s.root {
		s.dirsScanned.Add(1)
		return nil
	}
	if !s.opts.Recurse || s.skipDirs[strings.ToLower(path)] {
		return fastwalk.SkipDir
	}
	if s.opts.Ignore != nil && s.opts.Ignore.MatchDir(path) {
		logger.Debug("directory ignored", "path", path)
		return fastwalk.SkipDir
	}

	s.dirsScanned.Add(1)
	s.currentPath.Store(path)
	s.reportProgress()
	return nil
}

// processFile stats a regular file and records it unless it is ignored.
func (s *Scanner) processFile(path string, d fs.DirEntry) {
	s.filesScanned.Add(1)

	if filepath.Dir(path) == s.root && s.skipFiles[strings.ToLower(d.Name())] {
		return
	}

	if s.opts.Ignore != nil {
		if skip, reason := s.opts.Ignore.MatchFile(path); skip {
			s.ignored.Add(1)
			logger.Debug("file ignored", "path", path, "reason", reason)
			return
		}
	}

	info, err := d.Info()
	if err != nil {
		s.addError(path, err)
		return
	}

	rec := RecordFromInfo(s.root, path, info)

	s.recordsMu.Lock()
	s.records = append(s.records, rec)
	s.recordsMu.Unlock()
	s.kept.Add(1)

	s.reportProgress()
}

// RecordFromInfo builds a record from a stat result, filling in the
// creation time when the platform exposes it.
func RecordFromInfo(root, path string, info fs.FileInfo) types.FileRecord {
	rec := types.NewFileRecord(root, path, info.Size(), info.ModTime())
	if created, ok := createTime(path, info); ok {
		rec.Created = created
		rec.HasCreated = true
	}
	return rec
}

// Stat builds a record for a single file under root.
func Stat(root, path string) (types.FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.FileRecord{}, err
	}
	if !info.Mode().IsRegular() {
		return types.FileRecord{}, fmt.Errorf("%s: not a regular file", path)
	}
	return RecordFromInfo(root, path, info), nil
}

// addError adds an error to the error list thread-safely.
func (s *Scanner) addError(path string, err error) {
	logger.Warn("unreadable path skipped", "path", path, "err", err)
	s.errorsMu.Lock()
	s.errors = append(s.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
	s.errorsMu.Unlock()
}

// reportProgress calls the progress callback if configured.
// Throttles calls to avoid excessive overhead.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	// Throttle progress updates to every 10ms.
	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return // Another goroutine updated it.
	}

	s.sendProgress(false)
}

// reportProgressForce calls the progress callback immediately, bypassing throttle.
func (s *Scanner) reportProgressForce(done bool) {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixMilli())
	s.sendProgress(done)
}

func (s *Scanner) sendProgress(done bool) {
	currentPath, _ := s.currentPath.Load().(string)

	s.opts.OnProgress(types.ScanProgress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		Kept:         s.kept.Load(),
		CurrentPath:  currentPath,
		Done:         done,
	})
}
