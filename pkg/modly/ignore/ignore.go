// Package ignore decides which files a scan drops before classification.
//
// A file is ignored when its extension is listed, its lowercase name
// contains a listed fragment, it matches a configured glob, or it is
// excluded by a gitignore-style file at the mods root.
package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Settings lists the ignore rules.
type Settings struct {
	// Extensions are matched against the lowercase extension.
	Extensions []string

	// NameContains are substrings of the lowercase file name.
	NameContains []string

	// Patterns are globs relative to the mods root.
	Patterns []string

	// File is a gitignore-style file name, resolved against the root.
	// Missing files are not an error.
	File string
}

// Reason explains why a path was ignored.
type Reason string

// Ignore reasons. ReasonNone means the path is kept.
const (
	ReasonNone      Reason = ""
	ReasonExtension Reason = "extension"
	ReasonName      Reason = "name"
	ReasonPattern   Reason = "pattern"
	ReasonIgnorer   Reason = "ignore-file"
)

// Matcher applies a set of ignore rules under one root.
type Matcher struct {
	root         string
	extensions   map[string]bool
	nameContains []string
	patterns     *Patterns
	file         gitignore.IgnoreMatcher
}

// New builds a Matcher for root.
func New(root string, s Settings) (*Matcher, error) {
	m := &Matcher{
		root:         root,
		extensions:   make(map[string]bool),
		nameContains: NormalizeWords(s.NameContains...),
	}

	for _, ext := range NormalizeExtensions(s.Extensions...) {
		m.extensions[ext] = true
	}

	patterns, err := Compile(s.Patterns...)
	if err != nil {
		return nil, err
	}
	m.patterns = patterns

	if s.File != "" {
		path := s.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, err := os.Stat(path); err == nil {
			matcher, err := gitignore.NewGitIgnore(path, root)
			if err != nil {
				return nil, fmt.Errorf("parsing ignore file %s: %w", path, err)
			}
			m.file = matcher
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking ignore file: %w", err)
		}
	}

	return m, nil
}

// MatchFile reports whether the file at path should be skipped.
func (m *Matcher) MatchFile(path string) (bool, Reason) {
	if m == nil {
		return false, ReasonNone
	}
	name := strings.ToLower(filepath.Base(path))

	if m.extensions[strings.ToLower(filepath.Ext(name))] {
		return true, ReasonExtension
	}
	for _, frag := range m.nameContains {
		if strings.Contains(name, frag) {
			return true, ReasonName
		}
	}
	if m.patterns.Len() > 0 && m.patterns.Match(m.rel(path)) {
		return true, ReasonPattern
	}
	if m.file != nil && m.file.Match(path, false) {
		return true, ReasonIgnorer
	}
	return false, ReasonNone
}

// MatchDir reports whether the walk should skip the directory at path.
// Only globs and the ignore file apply to directories.
func (m *Matcher) MatchDir(path string) bool {
	if m == nil || path == m.root {
		return false
	}
	if m.patterns.Len() > 0 && m.patterns.Match(m.rel(path)) {
		return true
	}
	return m.file != nil && m.file.Match(path, true)
}

func (m *Matcher) rel(path string) string {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}
