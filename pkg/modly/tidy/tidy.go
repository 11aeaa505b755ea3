// Package tidy removes folders left empty after a sort.
package tidy

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/N1nj4lxl/Modly/pkg/modly/fsops"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

var logger = logging.Get("tidy")

// Options configures PurgeEmptyDirs.
type Options struct {
	// Keep lists folders, relative to the root, that are never removed.
	Keep []string

	// DryRun reports what would be removed without removing it.
	DryRun bool
}

// PurgeEmptyDirs removes every empty folder below root, deepest first, so
// a folder holding only empty folders goes too. The root itself is kept.
// It returns the removed folders.
func PurgeEmptyDirs(ctx context.Context, fs afero.Fs, root string, opts Options) ([]string, error) {
	root = filepath.Clean(root)
	keep := make(map[string]bool, len(opts.Keep))
	for _, k := range opts.Keep {
		keep[strings.ToLower(filepath.Join(root, k))] = true
	}

	var dirs []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable path", "path", path, "err", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	// Deepest first.
	slices.SortFunc(dirs, func(a, b string) int {
		if da, db := depth(a), depth(b); da != db {
			return db - da
		}
		return strings.Compare(a, b)
	})

	ops := fsops.New(fs)
	removed := make(map[string]bool)
	var out []string
	for _, dir := range dirs {
		if keep[strings.ToLower(dir)] {
			continue
		}
		if opts.DryRun {
			if emptyAfter(fs, dir, removed) {
				removed[dir] = true
				out = append(out, dir)
			}
			continue
		}
		ok, err := ops.RemoveDirIfEmpty(dir)
		if err != nil {
			logger.Warn("could not remove folder", "path", dir, "err", err)
			continue
		}
		if ok {
			out = append(out, dir)
		}
	}

	slices.Sort(out)
	logger.Info("purged empty folders", "root", root, "count", len(out), "dry_run", opts.DryRun)
	return out, nil
}

// emptyAfter reports whether dir would be empty once the folders in
// removed are gone.
func emptyAfter(fs afero.Fs, dir string, removed map[string]bool) bool {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return false
	}
	for _, info := range infos {
		if !removed[filepath.Join(dir, info.Name())] {
			return false
		}
	}
	return true
}

func depth(path string) int {
	return strings.Count(path, string(filepath.Separator))
}
