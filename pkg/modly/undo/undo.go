// Package undo reverses the most recent batch in the journal. Entries are
// reversed newest first; once every reversal has succeeded the batch is
// truncated off the journal. A failed reversal leaves the unreversed
// entries in place so the undo can be retried.
package undo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/N1nj4lxl/Modly/pkg/modly/fsops"
	"github.com/N1nj4lxl/Modly/pkg/modly/journal"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

var logger = logging.Get("undo")

// ErrNothingToUndo is returned when the journal holds no batch.
var ErrNothingToUndo = errors.New("nothing to undo")

// Outcome is what happened to one journal entry.
type Outcome string

// Outcomes.
const (
	OutcomeRestored     Outcome = "restored"
	OutcomeDirRemoved   Outcome = "dir-removed"
	OutcomeDirKept      Outcome = "dir-kept"
	OutcomeIrreversible Outcome = "irreversible"
	OutcomeFailed       Outcome = "failed"
)

// Reversal is the result for one entry.
type Reversal struct {
	Entry   journal.Entry `json:"entry" yaml:"entry"`
	Outcome Outcome       `json:"outcome" yaml:"outcome"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report describes an undo.
type Report struct {
	Batch     int64      `json:"batch" yaml:"batch"`
	Reversals []Reversal `json:"reversals" yaml:"reversals"`

	// Complete is set when every entry was reversed and the batch was
	// removed from the journal.
	Complete bool `json:"complete" yaml:"complete"`

	// Remaining is the number of entries still journaled for the batch.
	Remaining int `json:"remaining" yaml:"remaining"`
}

// Count returns the number of reversals with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, rev := range r.Reversals {
		if rev.Outcome == o {
			n++
		}
	}
	return n
}

// ReversalError reports the entry whose reversal failed.
type ReversalError struct {
	Entry journal.Entry
	Err   error
}

func (e *ReversalError) Error() string {
	return fmt.Sprintf("undoing %s: %v", e.Entry, e.Err)
}

func (e *ReversalError) Unwrap() error {
	return e.Err
}

// Engine undoes batches.
type Engine struct {
	fs      *fsops.FS
	journal *journal.Journal
}

// New creates an Engine.
func New(fs afero.Fs, j *journal.Journal) *Engine {
	return &Engine{fs: fsops.New(fs), journal: j}
}

// Preview returns the last batch without changing anything.
func (e *Engine) Preview() (*journal.Batch, error) {
	log, err := e.journal.Read()
	if err != nil {
		return nil, err
	}
	b, err := log.LastBatch()
	if errors.Is(err, journal.ErrEmpty) {
		return nil, ErrNothingToUndo
	}
	return b, err
}

// UndoLastBatch reverses the highest-numbered batch. A corrupt journal
// aborts before anything is touched.
func (e *Engine) UndoLastBatch(ctx context.Context) (*Report, error) {
	b, err := e.Preview()
	if err != nil {
		return nil, err
	}

	report := &Report{Batch: b.ID, Remaining: len(b.Entries)}
	logger.Info("undoing batch", "batch", b.ID, "entries", len(b.Entries))

	for i := len(b.Entries) - 1; i >= 0; i-- {
		entry := b.Entries[i]
		if err := ctx.Err(); err != nil {
			return report, e.keep(b, i+1, report, err)
		}

		outcome, err := e.reverse(entry)
		if err != nil {
			report.Reversals = append(report.Reversals, Reversal{Entry: entry, Outcome: OutcomeFailed, Error: err.Error()})
			logger.Error("reversal failed", "entry", entry.String(), "err", err)
			return report, e.keep(b, i+1, report, &ReversalError{Entry: entry, Err: err})
		}
		report.Reversals = append(report.Reversals, Reversal{Entry: entry, Outcome: outcome})
	}

	if err := e.journal.Truncate(b.Offset); err != nil {
		return report, fmt.Errorf("removing batch %d from journal: %w", b.ID, err)
	}
	report.Complete = true
	report.Remaining = 0
	logger.Info("batch undone", "batch", b.ID, "irreversible", report.Count(OutcomeIrreversible))
	return report, nil
}

// keep truncates the reversed entries b.Entries[from:] and returns cause.
func (e *Engine) keep(b *journal.Batch, from int, report *Report, cause error) error {
	report.Remaining = from
	if from >= len(b.Entries) {
		return cause
	}
	if err := e.journal.Truncate(b.Entries[from].Offset); err != nil {
		return errors.Join(cause, fmt.Errorf("trimming reversed entries: %w", err))
	}
	return cause
}

func (e *Engine) reverse(entry journal.Entry) (Outcome, error) {
	switch entry.Kind {
	case journal.KindMove, journal.KindRelocate:
		if err := e.fs.Fs().MkdirAll(filepath.Dir(entry.Original), 0o755); err != nil {
			return "", err
		}
		if err := e.fs.Move(entry.Final, entry.Original); err != nil {
			return "", err
		}
		return OutcomeRestored, nil
	case journal.KindMkdir:
		removed, err := e.fs.RemoveDirIfEmpty(entry.Original)
		if err != nil {
			return "", err
		}
		if !removed {
			return OutcomeDirKept, nil
		}
		return OutcomeDirRemoved, nil
	case journal.KindDelete:
		return OutcomeIrreversible, nil
	default:
		return "", fmt.Errorf("unsupported entry kind %q", entry.Kind)
	}
}
