// Package scanner walks a mods folder and snapshots every file it keeps as a
// types.FileRecord. Traversal runs on fastwalk's worker pool; unreadable
// entries are recorded as scan errors and the walk continues.
package scanner

import (
	"github.com/N1nj4lxl/Modly/pkg/modly/ignore"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// Options configures the scanner behavior.
type Options struct {
	// Root is the mods folder to scan.
	Root string

	// Recurse descends into subfolders. When false only files directly in
	// Root are scanned.
	Recurse bool

	// Ignore drops files and folders before they become records.
	// If nil, nothing is ignored.
	Ignore *ignore.Matcher

	// SkipDirs are folder paths relative to Root that are never entered,
	// such as the holding folder.
	SkipDirs []string

	// SkipFiles are file names at Root that belong to modly itself, such as
	// the journal and lock file.
	SkipFiles []string

	// Workers is the number of fastwalk workers. Zero uses fastwalk's default.
	Workers int

	// OnProgress is called periodically with scan progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(types.ScanProgress)
}

// DefaultOptions returns options for a recursive scan of root.
func DefaultOptions(root string) Options {
	return Options{
		Root:    root,
		Recurse: true,
	}
}
