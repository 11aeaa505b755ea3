package ignore

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Patterns is a compiled set of glob patterns matched against slash
// separated paths relative to the mods root. A pattern without a slash is
// matched against the base name only, so "*.ts4script" matches at any depth.
type Patterns struct {
	raw   []string
	paths []glob.Glob
	names []glob.Glob
}

// Compile compiles patterns. Matching is case-insensitive.
func Compile(patterns ...string) (*Patterns, error) {
	p := &Patterns{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		lower := strings.ToLower(filepath.ToSlash(pattern))
		g, err := glob.Compile(lower, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if strings.Contains(lower, "/") {
			p.paths = append(p.paths, g)
		} else {
			p.names = append(p.names, g)
		}
		p.raw = append(p.raw, pattern)
	}
	return p, nil
}

// Len returns the number of compiled patterns.
func (p *Patterns) Len() int {
	if p == nil {
		return 0
	}
	return len(p.raw)
}

// Match reports whether rel matches any pattern.
func (p *Patterns) Match(rel string) bool {
	if p == nil {
		return false
	}
	rel = strings.ToLower(filepath.ToSlash(rel))
	base := path.Base(rel)
	for _, g := range p.names {
		if g.Match(base) {
			return true
		}
	}
	for _, g := range p.paths {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// String returns the patterns joined by commas.
func (p *Patterns) String() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.raw, ",")
}

var listSplit = regexp.MustCompile(`[,\s]+`)

// SplitList splits comma or whitespace separated values. Each input element
// may itself hold several values, so both ["txt md"] and ["txt", "md"] work.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, tok := range listSplit.Split(v, -1) {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	}
	return out
}

// NormalizeExtensions lowercases extensions and adds a leading dot.
// Duplicates are removed; order is preserved.
func NormalizeExtensions(values ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range SplitList(values...) {
		ext := strings.ToLower(tok)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out
}

// NormalizeWords lowercases and deduplicates name fragments.
func NormalizeWords(values ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range SplitList(values...) {
		w := strings.ToLower(tok)
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
