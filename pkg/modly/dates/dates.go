// Package dates resolves the best-known date of a mod file. Sources are
// tried in priority order: a date embedded in the file name, the newest
// member of an archive, the filesystem modification time and finally the
// filesystem creation time. A file with no usable source has an unknown
// date; callers must handle that explicitly.
package dates

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/archive"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("dates")

// Source tags where a date came from.
type Source string

// Date sources in priority order. SourceNone marks an unknown date.
const (
	SourceNone     Source = ""
	SourceFilename Source = "filename-pattern"
	SourceArchive  Source = "archive-internal-newest"
	SourceModified Source = "fs-modified"
	SourceCreated  Source = "fs-created"
)

// Info is the resolved date of one file.
type Info struct {
	// Path identifies the record the date was computed for.
	Path string `json:"path"`

	// Date is zero when no source produced a date.
	Date time.Time `json:"date,omitempty"`

	Source Source `json:"source,omitempty"`

	// Detail describes the evidence: the matched name fragment or the
	// archive member used.
	Detail string `json:"detail,omitempty"`
}

// Known reports whether a date was found.
func (i Info) Known() bool {
	return !i.Date.IsZero()
}

// String formats the date and its source for display.
func (i Info) String() string {
	if !i.Known() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", i.Date.Format("2006-01-02"), i.Source)
}

// Resolver resolves and caches dates per path. It is safe for concurrent
// use. Call Reset between scans.
type Resolver struct {
	provider archive.Provider
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]Info
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used for the upper bound on name dates.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver. provider may be nil, in which case
// archive members are never consulted.
func NewResolver(provider archive.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		now:      time.Now,
		cache:    make(map[string]Info),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the date for rec, computing it on first use.
func (r *Resolver) Resolve(rec types.FileRecord) Info {
	r.mu.Lock()
	if info, ok := r.cache[rec.Path]; ok {
		r.mu.Unlock()
		return info
	}
	r.mu.Unlock()

	info := r.resolve(rec)

	r.mu.Lock()
	r.cache[rec.Path] = info
	r.mu.Unlock()
	return info
}

// Reset drops every cached date.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cache = make(map[string]Info)
	r.mu.Unlock()
}

func (r *Resolver) resolve(rec types.FileRecord) Info {
	info := Info{Path: rec.Path}

	if d, match, ok := FromName(rec.Stem(), r.now()); ok {
		info.Date, info.Source, info.Detail = d, SourceFilename, match
		return info
	}

	if r.provider != nil && archive.IsContainer(rec.Ext) {
		entries, err := r.provider.List(rec.Path)
		switch {
		case err == nil:
			if e, ok := archive.Newest(entries); ok {
				info.Date, info.Source, info.Detail = e.Modified, SourceArchive, e.Name
				return info
			}
			logger.Debug("archive has no dated members", "path", rec.Path)
		case errors.Is(err, archive.ErrNotAnArchive):
			logger.Debug("archive not listable", "path", rec.Path, "err", err)
		default:
			logger.Warn("archive listing failed", "path", rec.Path, "err", err)
		}
	}

	if !rec.ModTime.IsZero() {
		info.Date, info.Source = rec.ModTime, SourceModified
		return info
	}

	if rec.HasCreated && !rec.Created.IsZero() {
		info.Date, info.Source = rec.Created, SourceCreated
		return info
	}

	logger.Debug("no date source", "path", rec.Path)
	return info
}
