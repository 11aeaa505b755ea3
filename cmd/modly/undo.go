package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/engine"
	"github.com/N1nj4lxl/Modly/pkg/modly/output"
	"github.com/N1nj4lxl/Modly/pkg/modly/undo"
)

var (
	undoDryRun bool

	undoCmd = &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent sort",
		Long: `Reverse every journaled operation of the most recent sort, newest first.

Moved files go back to where they were and folders the sort created are
removed when empty. Deleted files cannot be restored and are reported as
irreversible. If a reversal fails, the operations not yet reversed stay in
the journal so 'modly undo' can be run again.`,
		Args: cobra.NoArgs,
		RunE: runUndo,
	}
)

func init() {
	undoCmd.Flags().BoolVarP(&undoDryRun, "dry-run", "d", false, "show what would be reversed")
	rootCmd.AddCommand(undoCmd)
}

// runUndo is the undo command handler.
func runUndo(cmd *cobra.Command, _ []string) error {
	ctx, stop, _ := signalContext()
	defer stop()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if undoDryRun {
		batch, err := e.PreviewUndo()
		if errors.Is(err, undo.ErrNothingToUndo) {
			printInfo("Nothing to undo.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read journal: %w", err)
		}
		printInfo("Batch %d: %d operation(s) would be reversed, newest first:", batch.ID, len(batch.Entries))
		for i := len(batch.Entries) - 1; i >= 0; i-- {
			entry := batch.Entries[i]
			if entry.Final != "" {
				printInfo("  %-8s %s -> %s", entry.Kind, rel(e.Root(), entry.Final), rel(e.Root(), entry.Original))
			} else {
				printInfo("  %-8s %s", entry.Kind, rel(e.Root(), entry.Original))
			}
		}
		return nil
	}

	var rep *undo.Report
	runErr := withProgress(ctx, "modly undo", e.Root(), func(ctx context.Context, report func(engine.Progress)) error {
		report(engine.Progress{Phase: engine.PhaseUndo})
		var err error
		rep, err = e.Undo(ctx)
		return err
	})
	if errors.Is(runErr, undo.ErrNothingToUndo) {
		printInfo("Nothing to undo.")
		return nil
	}
	if rep == nil {
		return fmt.Errorf("undo failed: %w", runErr)
	}

	if err := render(out(cmd), output.FromUndo(e.Root(), rep)); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("undo stopped: %w", runErr)
	}
	return nil
}

// rel returns path relative to root for display.
func rel(root, path string) string {
	r := output.Result{Source: root}
	return r.Rel(path)
}
