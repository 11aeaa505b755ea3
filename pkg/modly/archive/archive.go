// Package archive lists the members of mod archives so their internal
// timestamps can date the archive itself. Listings come from a Provider;
// ZipProvider reads zip central directories and CachedProvider memoises any
// provider in a badger store keyed by path, size and modification time.
package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotAnArchive is returned for files no provider can list.
var ErrNotAnArchive = errors.New("not an archive")

// ReadError wraps a failure to read an archive that was recognised.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading archive %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Entry is one member of an archive.
type Entry struct {
	Name     string
	Modified time.Time
	Size     int64
	IsDir    bool
}

// Provider lists archive members.
type Provider interface {
	List(path string) ([]Entry, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(path string) ([]Entry, error)

// List calls f(path).
func (f ProviderFunc) List(path string) ([]Entry, error) { return f(path) }

// zipExtensions are containers in zip format: plain archives and script
// bundles.
var zipExtensions = map[string]bool{
	".zip":       true,
	".ts4script": true,
}

// IsContainer reports whether ext (lowercase, with dot) names a container
// whose member dates are worth consulting.
func IsContainer(ext string) bool {
	switch strings.ToLower(ext) {
	case ".zip", ".ts4script", ".rar", ".7z":
		return true
	}
	return false
}

// Newest returns the most recently modified file entry. Directory entries
// and entries without a timestamp are ignored. Among entries sharing the
// newest timestamp the lexicographically smallest name wins.
func Newest(entries []Entry) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range entries {
		if e.IsDir || e.Modified.IsZero() {
			continue
		}
		switch {
		case !found, e.Modified.After(best.Modified):
			best, found = e, true
		case e.Modified.Equal(best.Modified) && e.Name < best.Name:
			best = e
		}
	}
	return best, found
}
