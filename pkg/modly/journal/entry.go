// Package journal is the append-only record of executed operations. One
// JSON Lines file per mods root holds every batch; undo consumes the last
// batch and truncates it off the end of the file.
package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FormatVersion is written into every entry. Readers accept entries from
// any version and ignore fields they do not know.
const FormatVersion = 1

// Kind is the operation an entry records.
type Kind string

// Entry kinds.
const (
	KindMkdir    Kind = "mkdir"
	KindMove     Kind = "move"
	KindRelocate Kind = "relocate"
	KindDelete   Kind = "delete"
)

// Reversible reports whether undo can restore the entry.
func (k Kind) Reversible() bool {
	switch k {
	case KindMkdir, KindMove, KindRelocate:
		return true
	default:
		return false
	}
}

// Known reports whether k is a kind this version understands.
func (k Kind) Known() bool {
	return k.Reversible() || k == KindDelete
}

// Entry is one executed operation.
type Entry struct {
	Version int    `json:"v"`
	ID      string `json:"id"`
	Batch   int64  `json:"batch"`
	Seq     int    `json:"seq"`
	Kind    Kind   `json:"kind"`

	// Original is where the file was before the operation; for mkdir it is
	// the created directory.
	Original string `json:"original"`

	// Final is where the file ended up. Empty for deletes and mkdir.
	Final string `json:"final,omitempty"`

	Time time.Time `json:"time"`

	// Detail carries optional context such as the delete mode.
	Detail string `json:"detail,omitempty"`

	// Offset is the byte offset of the entry's line in the journal file.
	Offset int64 `json:"-"`

	// Line is the 1-based line number of the entry.
	Line int `json:"-"`
}

// String describes the entry on one line.
func (e Entry) String() string {
	switch e.Kind {
	case KindDelete, KindMkdir:
		return fmt.Sprintf("%d/%d %s %s", e.Batch, e.Seq, e.Kind, e.Original)
	default:
		return fmt.Sprintf("%d/%d %s %s -> %s", e.Batch, e.Seq, e.Kind, e.Original, e.Final)
	}
}

var (
	// ErrCorrupt matches every CorruptionError.
	ErrCorrupt = errors.New("journal corrupt")

	// ErrEmpty is returned when the journal holds no batches.
	ErrEmpty = errors.New("journal empty")

	// ErrLocked is returned when another process holds the root lock.
	ErrLocked = errors.New("mods root is locked by another process")
)

// Suspect is a journal line that could not be trusted.
type Suspect struct {
	Line   int    `json:"line"`
	Offset int64  `json:"offset"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// CorruptionError lists the suspect lines that stopped an undo.
type CorruptionError struct {
	Batch    int64
	Suspects []Suspect
}

func (e *CorruptionError) Error() string {
	lines := make([]string, len(e.Suspects))
	for i, s := range e.Suspects {
		lines[i] = fmt.Sprintf("line %d: %s", s.Line, s.Reason)
	}
	return fmt.Sprintf("journal corrupt in batch %d: %s", e.Batch, strings.Join(lines, "; "))
}

// Is makes errors.Is(err, ErrCorrupt) match.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupt
}
