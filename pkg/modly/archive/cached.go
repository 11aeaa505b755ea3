package archive

import (
	"errors"
	"os"

	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

var logger = logging.Get("archive")

// CachedProvider serves listings from a Store while the archive's size and
// modification time are unchanged, and asks the inner provider otherwise.
// Failures are never cached.
type CachedProvider struct {
	inner Provider
	store *Store
}

// NewCachedProvider wraps inner with store.
func NewCachedProvider(inner Provider, store *Store) *CachedProvider {
	return &CachedProvider{inner: inner, store: store}
}

// List returns the listing for path.
func (p *CachedProvider) List(path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	cached, err := p.store.Get(path)
	switch {
	case err == nil && cached.Version == storeVersion &&
		cached.Size == info.Size() && cached.Mtime == info.ModTime().UnixNano():
		logger.Debug("listing cache hit", "path", path)
		return cached.Entries, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		logger.Warn("listing cache read failed", "path", path, "err", err)
	}

	entries, err := p.inner.List(path)
	if err != nil {
		return nil, err
	}

	l := &Listing{
		Version: storeVersion,
		Size:    info.Size(),
		Mtime:   info.ModTime().UnixNano(),
		Entries: entries,
	}
	if err := p.store.Put(path, l); err != nil {
		logger.Warn("listing cache write failed", "path", path, "err", err)
	}
	return entries, nil
}

var _ Provider = (*CachedProvider)(nil)
