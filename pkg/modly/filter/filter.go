// Package filter selects, sorts and limits rows of a classification table,
// and applies the user's pattern-based overrides before planning.
package filter

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// Filter defines criteria for selecting classification rows.
type Filter struct {
	// Include contains glob patterns. If non-empty, rows must match at least one.
	Include []string

	// Exclude contains glob patterns. Matching rows are dropped.
	Exclude []string

	// Types keeps only rows of these types. Empty keeps every type.
	Types []types.Type

	// MinConfidence drops rows classified with lower confidence.
	MinConfidence types.Confidence

	// MaxConfidence drops rows classified with higher confidence. Zero means
	// no upper bound.
	MaxConfidence types.Confidence

	// NewerThan keeps only files modified within this duration.
	NewerThan time.Duration

	// SortBy specifies the field to sort rows by.
	SortBy SortField

	// SortDescending specifies whether to sort in descending order.
	SortDescending bool

	// Limit is the maximum number of rows to return. 0 means unlimited.
	Limit int

	include []glob.Glob
	exclude []glob.Glob
	now     func() time.Time
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// New creates a new Filter. Rows are sorted by path, ascending, with no
// limit unless options say otherwise. It fails on an invalid pattern.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{
		SortBy: SortPath,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	var err error
	if f.include, err = compileAll(f.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compileAll(f.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

// WithInclude sets the include glob patterns.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Include = patterns
	}
}

// WithExclude sets the exclude glob patterns.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Exclude = patterns
	}
}

// WithTypes keeps only rows of the given types.
func WithTypes(ts ...types.Type) Option {
	return func(f *Filter) {
		f.Types = ts
	}
}

// WithConfidence bounds the row confidence. max of ConfidenceNone means no
// upper bound.
func WithConfidence(min, max types.Confidence) Option {
	return func(f *Filter) {
		f.MinConfidence = min
		f.MaxConfidence = max
	}
}

// WithNewerThan keeps only files modified within d.
func WithNewerThan(d time.Duration) Option {
	return func(f *Filter) {
		f.NewerThan = d
	}
}

// WithSortBy sets the field to sort rows by.
func WithSortBy(field SortField) Option {
	return func(f *Filter) {
		f.SortBy = field
	}
}

// WithSortDescending sets whether to sort in descending order.
func WithSortDescending(desc bool) Option {
	return func(f *Filter) {
		f.SortDescending = desc
	}
}

// WithLimit sets the maximum number of rows to return.
// If limit <= 0, it is set to 0 (unlimited).
func WithLimit(limit int) Option {
	return func(f *Filter) {
		if limit < 0 {
			limit = 0
		}
		f.Limit = limit
	}
}

// WithClock sets the clock used by NewerThan.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		f.now = now
	}
}

// Match reports whether res meets every criterion.
func (f *Filter) Match(res classify.Result) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, res.Type) {
		return false
	}
	if res.Confidence < f.MinConfidence {
		return false
	}
	if f.MaxConfidence > types.ConfidenceNone && res.Confidence > f.MaxConfidence {
		return false
	}
	if f.NewerThan > 0 && res.Record.ModTime.Before(f.now().Add(-f.NewerThan)) {
		return false
	}
	if matchesAny(f.exclude, res.Record) {
		return false
	}
	if len(f.include) > 0 && !matchesAny(f.include, res.Record) {
		return false
	}
	return true
}

// Apply returns a new table holding the matching rows, sorted and limited.
func (f *Filter) Apply(t *classify.Table) *classify.Table {
	var rows []classify.Result
	for _, res := range t.All() {
		if f.Match(res) {
			rows = append(rows, res)
		}
	}

	slices.SortStableFunc(rows, func(a, b classify.Result) int {
		var result int
		switch f.SortBy {
		case SortSize:
			result = cmp.Compare(a.Record.Size, b.Record.Size)
		case SortAge:
			// Older files have the higher age.
			result = -a.Record.ModTime.Compare(b.Record.ModTime)
		case SortType:
			result = cmp.Compare(a.Type, b.Type)
		case SortConfidence:
			result = cmp.Compare(a.Confidence, b.Confidence)
		}
		if result == 0 {
			result = cmp.Compare(a.Record.Path, b.Record.Path)
		}
		if f.SortDescending {
			return -result
		}
		return result
	})

	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return classify.NewTable(rows)
}

// compileAll compiles case-insensitive path globs.
func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func compile(pattern string) (glob.Glob, error) {
	p := strings.ToLower(filepath.ToSlash(strings.TrimSpace(pattern)))
	if p == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	g, err := glob.Compile(p, '/')
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return g, nil
}

// matchesAny tests the lowercase slash-separated relative path and the
// bare file name, so "*.ts4script" matches in any folder.
func matchesAny(globs []glob.Glob, rec types.FileRecord) bool {
	for _, g := range globs {
		if matches(g, rec) {
			return true
		}
	}
	return false
}

func matches(g glob.Glob, rec types.FileRecord) bool {
	return g.Match(strings.ToLower(filepath.ToSlash(rec.RelPath))) || g.Match(rec.Name)
}
