package planner

import (
	"path/filepath"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/collision"
)

// Kind is the kind of a planned operation.
type Kind string

// Operation kinds.
const (
	KindMkdir    Kind = "mkdir"
	KindMove     Kind = "move"
	KindRelocate Kind = "relocate"
	KindDelete   Kind = "delete"
)

// Operation is one planned filesystem step. Paths are absolute.
type Operation struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Source is the file moved, relocated or deleted. Empty for mkdir.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Dest is the destination of a move or relocation, or the directory
	// created by mkdir.
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`

	// Result is the classification that produced the operation.
	Result *classify.Result `json:"-" yaml:"-"`

	// Decision is the collision that produced the operation, if any.
	Decision *collision.Decision `json:"-" yaml:"-"`
}

// Plan is an ordered list of operations. Order matters: folders are
// created before the first operation that needs them.
type Plan struct {
	Root string      `json:"root" yaml:"root"`
	Ops  []Operation `json:"ops" yaml:"ops"`

	// Decisions are the collisions resolved while planning.
	Decisions []collision.Decision `json:"collisions,omitempty" yaml:"collisions,omitempty"`

	// Excluded counts rows the user skipped.
	Excluded int `json:"excluded" yaml:"excluded"`

	// InPlace counts rows already at their destination.
	InPlace int `json:"in_place" yaml:"in_place"`
}

// Len returns the number of operations.
func (p *Plan) Len() int {
	return len(p.Ops)
}

// Empty reports whether the plan does nothing.
func (p *Plan) Empty() bool {
	return len(p.Ops) == 0
}

// HasDeletions reports whether executing the plan removes any file. Such
// plans need explicit confirmation because deletions cannot be undone.
func (p *Plan) HasDeletions() bool {
	return len(p.Deletions()) > 0
}

// Deletions returns the delete operations.
func (p *Plan) Deletions() []Operation {
	var out []Operation
	for _, op := range p.Ops {
		if op.Kind == KindDelete {
			out = append(out, op)
		}
	}
	return out
}

// NeedsConfirmation returns the ambiguous collisions.
func (p *Plan) NeedsConfirmation() []collision.Decision {
	var out []collision.Decision
	for _, d := range p.Decisions {
		if d.RequiresConfirmation {
			out = append(out, d)
		}
	}
	return out
}

// Counts returns the number of operations per kind.
func (p *Plan) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, op := range p.Ops {
		counts[op.Kind]++
	}
	return counts
}

// Rel returns path relative to the plan root for display.
func (p *Plan) Rel(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return path
	}
	return rel
}
