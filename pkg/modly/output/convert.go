package output

import (
	"fmt"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/executor"
	"github.com/N1nj4lxl/Modly/pkg/modly/journal"
	"github.com/N1nj4lxl/Modly/pkg/modly/planner"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
	"github.com/N1nj4lxl/Modly/pkg/modly/undo"
)

// FromScan builds the classification view. scan may be nil when the table
// did not come from a fresh scan.
func FromScan(root string, scan *types.ScanResult, table *classify.Table) *Result {
	r := &Result{
		View:   ViewClassification,
		Source: root,
		Counts: make(map[string]int),
	}
	if scan != nil {
		r.Stats = Stats{
			DirsScanned:  scan.DirsScanned,
			FilesScanned: scan.FilesScanned,
			Ignored:      scan.Ignored,
			Duration:     scan.Elapsed,
		}
		for _, e := range scan.Errors {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", e.Path, e.Error))
		}
	}

	for _, res := range table.All() {
		r.Rows = append(r.Rows, rowFrom(res))
		r.Counts[string(res.Type)]++
	}
	return r
}

func rowFrom(res classify.Result) Row {
	rec := res.Record
	return Row{
		Path:       rec.Path,
		RelPath:    rec.RelPath,
		Name:       rec.BaseName(),
		Size:       rec.Size,
		SizeHuman:  rec.HumanSize(),
		ModTime:    rec.ModTime,
		Type:       string(res.Type),
		Confidence: res.Confidence.String(),
		Target:     res.Target,
		Notes:      res.Notes,
		Adult:      res.Adult,
		Overridden: res.TypeOverridden || res.FolderOverride != "",
		Protected:  res.Protected,
		Excluded:   res.Excluded,
	}
}

// FromPlan builds the plan preview.
func FromPlan(plan *planner.Plan) *Result {
	r := &Result{
		View:   ViewPlan,
		Source: plan.Root,
		DryRun: true,
		Counts: make(map[string]int),
	}
	for _, op := range plan.Ops {
		r.Ops = append(r.Ops, opFrom(op))
	}
	for kind, n := range plan.Counts() {
		r.Counts[string(kind)] = n
	}
	if plan.Excluded > 0 {
		r.Counts["excluded"] = plan.Excluded
	}
	if plan.InPlace > 0 {
		r.Counts["in-place"] = plan.InPlace
	}
	for _, d := range plan.NeedsConfirmation() {
		r.Warnings = append(r.Warnings, "needs confirmation: "+d.String())
	}
	return r
}

func opFrom(op planner.Operation) Op {
	out := Op{
		Kind:   string(op.Kind),
		Source: op.Source,
		Dest:   op.Dest,
	}
	if op.Result != nil {
		out.Type = string(op.Result.Type)
	}
	if op.Decision != nil {
		out.Reason = op.Decision.Reason
		out.Confirm = op.Decision.RequiresConfirmation
	}
	return out
}

// FromExecution builds the execution report. runErr is the error Execute
// returned, if any.
func FromExecution(root string, rep *executor.Report, runErr error) *Result {
	r := &Result{
		View:   ViewExecution,
		Source: root,
		Counts: make(map[string]int),
	}
	if rep == nil {
		if runErr != nil {
			r.Warnings = append(r.Warnings, runErr.Error())
			r.Interrupted = true
		}
		return r
	}

	r.Batch = rep.Batch
	r.Stats.Duration = rep.Elapsed
	r.Interrupted = rep.Halted || rep.Canceled
	for _, res := range rep.Results {
		op := opFrom(res.Op)
		op.Detail = res.Entry.Detail
		r.Ops = append(r.Ops, op)
		r.Counts[op.Kind]++
	}
	if rep.Completed() < rep.Total {
		r.Counts["not run"] = rep.Total - rep.Completed()
	}
	if runErr != nil {
		r.Warnings = append(r.Warnings, runErr.Error())
	}
	return r
}

// FromUndo builds the undo report.
func FromUndo(root string, rep *undo.Report) *Result {
	r := &Result{
		View:        ViewUndo,
		Source:      root,
		Batch:       rep.Batch,
		Counts:      make(map[string]int),
		Interrupted: !rep.Complete,
	}
	for _, rv := range rep.Reversals {
		r.Reversals = append(r.Reversals, Reversal{
			Kind:     string(rv.Entry.Kind),
			Original: rv.Entry.Original,
			Final:    rv.Entry.Final,
			Outcome:  string(rv.Outcome),
			Error:    rv.Error,
		})
		r.Counts[string(rv.Outcome)]++
	}
	if !rep.Complete {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("batch %d still has %d journaled operations; run undo again to retry", rep.Batch, rep.Remaining))
	}
	return r
}

// FromHistory builds the batch history, newest first.
func FromHistory(root string, sums []journal.Summary) *Result {
	r := &Result{
		View:   ViewHistory,
		Source: root,
		Counts: make(map[string]int),
	}
	for i := len(sums) - 1; i >= 0; i-- {
		s := sums[i]
		counts := make(map[string]int, len(s.Counts))
		for kind, n := range s.Counts {
			counts[string(kind)] = n
			r.Counts[string(kind)] += n
		}
		r.Batches = append(r.Batches, Batch{
			ID:       s.ID,
			Started:  s.Started,
			Finished: s.Finished,
			Ops:      s.Ops,
			Counts:   counts,
		})
	}
	return r
}
