package filter

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("filter")

// Overrides are the user's corrections to a classification table, each
// keyed by a glob matched against the relative path or file name. Later
// rules win over earlier ones of the same kind.
type Overrides struct {
	// SetType holds "pattern=Type" assignments.
	SetType []string

	// SetFolder holds "pattern=Folder" assignments, folders relative to the
	// mods root.
	SetFolder []string

	// Protect marks matching files Protected.
	Protect []string

	// Skip marks matching files Excluded.
	Skip []string
}

// Empty reports whether no override is set.
func (o Overrides) Empty() bool {
	return len(o.SetType) == 0 && len(o.SetFolder) == 0 && len(o.Protect) == 0 && len(o.Skip) == 0
}

type typeRule struct {
	g glob.Glob
	t types.Type
}

type folderRule struct {
	g      glob.Glob
	folder string
}

// Applier applies compiled Overrides.
type Applier struct {
	types   []typeRule
	folders []folderRule
	protect []glob.Glob
	skip    []glob.Glob
}

// Compile validates every pattern, type name and folder.
func (o Overrides) Compile() (*Applier, error) {
	a := &Applier{}
	for _, s := range o.SetType {
		pattern, value, err := ParseAssignment(s)
		if err != nil {
			return nil, err
		}
		t, err := types.ParseType(value)
		if err != nil {
			return nil, fmt.Errorf("set-type %q: %w", s, err)
		}
		g, err := compile(pattern)
		if err != nil {
			return nil, err
		}
		a.types = append(a.types, typeRule{g: g, t: t})
	}
	for _, s := range o.SetFolder {
		pattern, value, err := ParseAssignment(s)
		if err != nil {
			return nil, err
		}
		g, err := compile(pattern)
		if err != nil {
			return nil, err
		}
		a.folders = append(a.folders, folderRule{g: g, folder: value})
	}

	var err error
	if a.protect, err = compileAll(o.Protect); err != nil {
		return nil, err
	}
	if a.skip, err = compileAll(o.Skip); err != nil {
		return nil, err
	}
	return a, nil
}

// Apply returns a new table with the overrides applied through c. Type
// overrides run before folder overrides so an explicit folder survives the
// type change.
func (a *Applier) Apply(c *classify.Classifier, t *classify.Table) *classify.Table {
	return t.Map(func(res classify.Result) classify.Result {
		for _, r := range a.types {
			if matches(r.g, res.Record) {
				res = c.Override(res, r.t)
			}
		}
		for _, r := range a.folders {
			if matches(r.g, res.Record) {
				res = c.WithTarget(res, r.folder)
			}
		}
		if matchesAny(a.protect, res.Record) {
			res.Protected = true
		}
		if matchesAny(a.skip, res.Record) {
			res.Excluded = true
		}
		if res.TypeOverridden || res.FolderOverride != "" || res.Protected || res.Excluded {
			logger.Debug("override applied", "path", res.Record.RelPath,
				"type", res.Type, "target", res.Target, "protected", res.Protected, "excluded", res.Excluded)
		}
		return res
	})
}
