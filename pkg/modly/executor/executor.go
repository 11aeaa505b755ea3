// Package executor runs a plan against the filesystem. Each operation is
// journaled only after its effect succeeded, and the next operation starts
// only after that entry is on disk. The first failure halts the batch;
// completed operations stay applied and journaled for undo.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/fsops"
	"github.com/N1nj4lxl/Modly/pkg/modly/journal"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/planner"
)

var logger = logging.Get("executor")

// ExecutionError reports the operation that halted a batch.
type ExecutionError struct {
	// Index is the position of the failed operation in the plan.
	Index int
	Op    planner.Operation

	// Journaled is false when the filesystem effect failed, true when the
	// effect succeeded but the journal write did not.
	Journaled bool

	Err error
}

func (e *ExecutionError) Error() string {
	what := "operation"
	if e.Journaled {
		what = "journal write after operation"
	}
	return fmt.Sprintf("%s %d (%s %s) failed: %v", what, e.Index, e.Op.Kind, opPath(e.Op), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func opPath(op planner.Operation) string {
	if op.Kind == planner.KindMkdir {
		return op.Dest
	}
	return op.Source
}

// Progress is reported after each completed operation.
type Progress struct {
	Done    int
	Total   int
	Current planner.Operation
}

// TrashFunc moves a file to the system trash and reports how it was
// removed.
type TrashFunc func(path string) (method string, err error)

// Options configures an Executor.
type Options struct {
	// DeleteMode is config.DeleteModePermanent or config.DeleteModeTrash.
	DeleteMode string

	// Trash is used for deletions in trash mode.
	Trash TrashFunc

	// OnProgress is called after each operation.
	OnProgress func(Progress)
}

// Result is one completed operation.
type Result struct {
	Op    planner.Operation `json:"op" yaml:"op"`
	Entry journal.Entry     `json:"entry" yaml:"entry"`
}

// Report describes an execution. On failure it holds the completed
// prefix.
type Report struct {
	Batch    int64         `json:"batch" yaml:"batch"`
	Total    int           `json:"total" yaml:"total"`
	Results  []Result      `json:"results" yaml:"results"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
	Deleted  int           `json:"deleted" yaml:"deleted"`
	Halted   bool          `json:"halted,omitempty" yaml:"halted,omitempty"`
	Canceled bool          `json:"canceled,omitempty" yaml:"canceled,omitempty"`
}

// Completed returns the number of operations applied.
func (r *Report) Completed() int {
	return len(r.Results)
}

// Executor applies plans.
type Executor struct {
	fs      *fsops.FS
	journal *journal.Journal
	opts    Options
}

// New creates an Executor writing to j.
func New(fs afero.Fs, j *journal.Journal, opts Options) *Executor {
	if opts.DeleteMode == "" {
		opts.DeleteMode = config.DeleteModePermanent
	}
	return &Executor{fs: fsops.New(fs), journal: j, opts: opts}
}

// Execute runs the plan in order. Cancellation is checked between
// operations; a journaled operation is never un-journaled.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan) (*Report, error) {
	start := time.Now()
	report := &Report{Total: plan.Len()}
	defer func() { report.Elapsed = time.Since(start) }()

	if plan.Empty() {
		return report, nil
	}
	if e.opts.DeleteMode == config.DeleteModeTrash && e.opts.Trash == nil {
		return report, errors.New("trash delete mode needs a trash function")
	}

	w, err := e.journal.Begin()
	if err != nil {
		return report, fmt.Errorf("starting batch: %w", err)
	}
	defer w.Close()
	report.Batch = w.Batch()
	logger.Info("executing batch", "batch", report.Batch, "ops", plan.Len())

	for i, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			report.Canceled = true
			logger.Warn("batch canceled", "batch", report.Batch, "completed", i)
			return report, err
		}

		kind, original, final, detail, err := e.apply(op)
		if err != nil {
			report.Halted = true
			logger.Error("operation failed", "batch", report.Batch, "index", i, "kind", op.Kind, "path", opPath(op), "err", err)
			return report, &ExecutionError{Index: i, Op: op, Err: err}
		}

		entry, err := w.Append(kind, original, final, detail)
		if err != nil {
			report.Halted = true
			logger.Error("journal write failed", "batch", report.Batch, "index", i, "err", err)
			return report, &ExecutionError{Index: i, Op: op, Journaled: true, Err: err}
		}

		report.Results = append(report.Results, Result{Op: op, Entry: entry})
		if op.Kind == planner.KindDelete {
			report.Deleted++
		}
		if e.opts.OnProgress != nil {
			e.opts.OnProgress(Progress{Done: i + 1, Total: plan.Len(), Current: op})
		}
	}

	logger.Info("batch complete", "batch", report.Batch, "ops", report.Completed())
	return report, nil
}

// apply performs one operation and returns its journal fields.
func (e *Executor) apply(op planner.Operation) (kind journal.Kind, original, final, detail string, err error) {
	switch op.Kind {
	case planner.KindMkdir:
		return journal.KindMkdir, op.Dest, "", "", e.fs.Mkdir(op.Dest)
	case planner.KindMove:
		return journal.KindMove, op.Source, op.Dest, "", e.fs.Move(op.Source, op.Dest)
	case planner.KindRelocate:
		return journal.KindRelocate, op.Source, op.Dest, "", e.fs.Move(op.Source, op.Dest)
	case planner.KindDelete:
		if e.opts.DeleteMode == config.DeleteModeTrash {
			method, err := e.opts.Trash(op.Source)
			return journal.KindDelete, op.Source, "", method, err
		}
		return journal.KindDelete, op.Source, "", config.DeleteModePermanent, e.fs.Remove(op.Source)
	default:
		return "", "", "", "", fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
