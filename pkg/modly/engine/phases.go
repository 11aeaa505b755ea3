package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/collision"
	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/executor"
	"github.com/N1nj4lxl/Modly/pkg/modly/filter"
	"github.com/N1nj4lxl/Modly/pkg/modly/journal"
	"github.com/N1nj4lxl/Modly/pkg/modly/planner"
	"github.com/N1nj4lxl/Modly/pkg/modly/scanner"
	"github.com/N1nj4lxl/Modly/pkg/modly/tidy"
	"github.com/N1nj4lxl/Modly/pkg/modly/tuner"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
	"github.com/N1nj4lxl/Modly/pkg/modly/undo"
	"github.com/N1nj4lxl/Modly/pkg/modly/watcher"
)

// Snapshot is the outcome of Scan: the files found and their
// classification.
type Snapshot struct {
	Scan  *types.ScanResult
	Table *classify.Table
}

// modlyFiles are the names modly itself keeps in the mods root.
func modlyFiles(cfg *config.Config) []string {
	mark := journal.MarkPath(cfg.Journal.Name)
	return []string{cfg.Journal.Name, mark, mark + ".tmp", journal.LockName}
}

// Scan walks the mods root and classifies every kept file.
func (e *Engine) Scan(ctx context.Context, onProgress func(Progress)) (*Snapshot, error) {
	s, done, err := e.run(PhaseScan)
	if err != nil {
		return nil, err
	}
	defer done()

	// Files may have changed since the last scan.
	s.dates.Reset()

	opts := scanner.Options{
		Root:      s.root,
		Recurse:   s.cfg.Scan.Recurse,
		Ignore:    s.ignore,
		SkipFiles: modlyFiles(s.cfg),
		Workers:   tuner.Workers(s.cfg.Scan.Workers),
		OnProgress: func(p types.ScanProgress) {
			e.report(Progress{Phase: PhaseScan, Done: int(p.Kept), Current: p.CurrentPath}, onProgress)
		},
	}
	if s.cfg.Scan.SkipHolding {
		opts.SkipDirs = []string{s.cfg.HoldingFolder}
	}

	result, err := scanner.New(opts).Scan(ctx)
	if err != nil {
		return nil, err
	}

	e.setPhase(PhaseClassify)
	table, err := s.classify.ClassifyAll(ctx, result.Records, func(n, total int) {
		e.report(Progress{Phase: PhaseClassify, Done: n, Total: total}, onProgress)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("scan complete", "root", s.root, "files", len(result.Records),
		"rows", table.Len(), "errors", len(result.Errors), "elapsed", result.Elapsed)
	return &Snapshot{Scan: result, Table: table}, nil
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = p
	e.progress = Progress{Phase: p}
}

// ApplyOverrides applies the user's corrections to table.
func (e *Engine) ApplyOverrides(table *classify.Table, o filter.Overrides) (*classify.Table, error) {
	if o.Empty() {
		return table, nil
	}
	a, err := o.Compile()
	if err != nil {
		return nil, err
	}
	return a.Apply(e.Classifier(), table), nil
}

// Plan turns a classification table into an ordered plan. Nothing on disk
// changes.
func (e *Engine) Plan(table *classify.Table) (*planner.Plan, error) {
	s, done, err := e.run(PhasePlan)
	if err != nil {
		return nil, err
	}
	defer done()

	resolver := collision.New(s.dates, collision.WithAllowDelete(s.cfg.Collisions.AllowDelete))
	p := planner.New(s.root, resolver, planner.NewFSProbe(e.fs, s.root),
		planner.WithHoldingFolder(s.cfg.HoldingFolder),
		planner.WithMatchDatedNames(s.cfg.Collisions.MatchDatedNames),
		planner.WithCaseSensitive(planner.CaseSensitive(e.fs, s.root)),
	)

	plan, err := p.Plan(table)
	if err != nil {
		return nil, err
	}
	logger.Info("plan ready", "ops", plan.Len(), "collisions", len(plan.Decisions),
		"deletions", len(plan.Deletions()), "needs_confirmation", len(plan.NeedsConfirmation()))
	return plan, nil
}

// ExecuteOptions configures Execute.
type ExecuteOptions struct {
	// ConfirmDeletes must be set to run a plan that deletes files.
	ConfirmDeletes bool

	// Tidy removes folders left empty after a complete run. The
	// tidy.purge_empty_dirs setting turns it on too.
	Tidy bool

	OnProgress func(Progress)
}

// SortReport is the outcome of Execute.
type SortReport struct {
	*executor.Report

	// Purged are the empty folders removed afterwards.
	Purged []string
}

// Execute runs plan under the root lock, journaling every operation. On
// failure the returned report holds what completed before the error.
func (e *Engine) Execute(ctx context.Context, plan *planner.Plan, opts ExecuteOptions) (*SortReport, error) {
	if plan.HasDeletions() && !opts.ConfirmDeletes {
		return nil, fmt.Errorf("%w: %d deletions", ErrUnconfirmedDeletes, len(plan.Deletions()))
	}

	s, done, err := e.run(PhaseExecute)
	if err != nil {
		return nil, err
	}
	defer done()

	if filepath.Clean(plan.Root) != s.root {
		return nil, fmt.Errorf("plan is for %s, engine root is %s", plan.Root, s.root)
	}

	lock, err := journal.Lock(s.root)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("releasing root lock", "error", err)
		}
	}()

	j, err := journal.Open(e.fs, s.cfg.JournalPath(s.root))
	if err != nil {
		return nil, err
	}

	ex := executor.New(e.fs, j, executor.Options{
		DeleteMode: s.cfg.Collisions.DeleteMode,
		Trash:      e.trash,
		OnProgress: func(p executor.Progress) {
			e.report(Progress{
				Phase:   PhaseExecute,
				Done:    p.Done,
				Total:   p.Total,
				Current: string(p.Current.Kind) + " " + opPath(p.Current),
			}, opts.OnProgress)
		},
	})

	report, err := ex.Execute(ctx, plan)
	out := &SortReport{Report: report}
	if err != nil {
		return out, err
	}

	if opts.Tidy || s.cfg.Tidy.PurgeEmptyDirs {
		keep := []string{s.cfg.HoldingFolder, s.cfg.Adult.Root}
		purged, terr := tidy.PurgeEmptyDirs(ctx, e.fs, s.root, tidy.Options{Keep: keep})
		if terr != nil {
			// The sort itself succeeded and is journaled.
			logger.Warn("tidy failed", "error", terr)
		}
		out.Purged = purged
	}
	return out, nil
}

func opPath(op planner.Operation) string {
	if op.Kind == planner.KindMkdir {
		return op.Dest
	}
	return op.Source
}

// PreviewUndo returns the batch Undo would reverse.
func (e *Engine) PreviewUndo() (*journal.Batch, error) {
	cfg, root := e.Config(), e.Root()
	j, err := journal.Open(e.fs, cfg.JournalPath(root))
	if err != nil {
		return nil, err
	}
	return undo.New(e.fs, j).Preview()
}

// Undo reverses the most recent batch under the root lock.
func (e *Engine) Undo(ctx context.Context) (*undo.Report, error) {
	s, done, err := e.run(PhaseUndo)
	if err != nil {
		return nil, err
	}
	defer done()

	lock, err := journal.Lock(s.root)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("releasing root lock", "error", err)
		}
	}()

	j, err := journal.Open(e.fs, s.cfg.JournalPath(s.root))
	if err != nil {
		return nil, err
	}
	return undo.New(e.fs, j).UndoLastBatch(ctx)
}

// History lists the journaled batches, oldest first. A missing journal
// means no history.
func (e *Engine) History() ([]journal.Summary, error) {
	cfg, root := e.Config(), e.Root()
	j, err := journal.Open(e.fs, cfg.JournalPath(root))
	if err != nil {
		return nil, err
	}
	return j.Batches()
}

// Arrival is a classified file that appeared while watching.
type Arrival struct {
	Result classify.Result
	At     time.Time
}

// Watch classifies files as they arrive in the mods root until ctx is
// done. Nothing is moved.
func (e *Engine) Watch(ctx context.Context, settle time.Duration, onArrival func(Arrival)) error {
	s, done, err := e.run(PhaseWatch)
	if err != nil {
		return err
	}
	defer done()

	opts := watcher.Options{
		Ignore:    s.ignore,
		SkipFiles: modlyFiles(s.cfg),
		Settle:    settle,
	}
	if s.cfg.Scan.SkipHolding {
		opts.SkipDirs = []string{filepath.Base(s.cfg.HoldingFolder)}
	}

	w, err := watcher.New(s.root, opts)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("watching", "root", s.root, "folders", w.Watched())
	err = w.Run(ctx, func(rec types.FileRecord) {
		res := s.classify.Classify(rec)
		e.report(Progress{Phase: PhaseWatch, Current: rec.RelPath}, nil)
		onArrival(Arrival{Result: res, At: time.Now()})
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
