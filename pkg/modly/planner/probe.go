package planner

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// Probe answers read-only questions about the destination tree.
type Probe interface {
	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// List returns the regular files directly inside dir, sorted by path.
	// A missing directory yields no files.
	List(dir string) ([]types.FileRecord, error)
}

// FSProbe is a Probe over a read-only view of an afero filesystem.
type FSProbe struct {
	fs   afero.Fs
	root string
}

// NewFSProbe returns a probe for the tree under root. A nil fs uses the OS
// filesystem.
func NewFSProbe(fs afero.Fs, root string) *FSProbe {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSProbe{fs: afero.NewReadOnlyFs(fs), root: root}
}

// Exists implements Probe.
func (p *FSProbe) Exists(path string) (bool, error) {
	_, err := p.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// List implements Probe.
func (p *FSProbe) List(dir string) ([]types.FileRecord, error) {
	infos, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []types.FileRecord
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		path := filepath.Join(dir, info.Name())
		out = append(out, types.NewFileRecord(p.root, path, info.Size(), info.ModTime()))
	}
	slices.SortFunc(out, func(a, b types.FileRecord) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}

// CaseSensitive reports whether names under dir are told apart by case.
// It stats the nearest path component containing a letter under its
// case-swapped name; nothing is written. When no component has a letter
// the platform default is assumed.
func CaseSensitive(fs afero.Fs, dir string) bool {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	for p := filepath.Clean(dir); ; p = filepath.Dir(p) {
		base := filepath.Base(p)
		swapped := swapCase(base)
		if swapped != base {
			orig, err := fs.Stat(p)
			if err != nil {
				break
			}
			other, err := fs.Stat(filepath.Join(filepath.Dir(p), swapped))
			if err != nil {
				return true
			}
			return !os.SameFile(orig, other)
		}
		if filepath.Dir(p) == p {
			break
		}
	}
	return runtime.GOOS != "windows" && runtime.GOOS != "darwin"
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, s)
}
