package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/engine"
	"github.com/N1nj4lxl/Modly/pkg/modly/executor"
	"github.com/N1nj4lxl/Modly/pkg/modly/output"
	"github.com/N1nj4lxl/Modly/pkg/modly/planner"
)

var (
	sortOverrides overrideFlags
	sortYes       bool
	sortDryRun    bool
	sortTidy      bool

	sortCmd = &cobra.Command{
		Use:     "sort",
		Aliases: []string{"complete"},
		Short:   "Sort the Mods folder",
		Long: `Scan, classify and plan, then move every mod into its category folder.

Each operation is journaled before the next one starts; the first failure
halts the run and everything completed so far stays undoable with
'modly undo'.

When the plan deletes older duplicates you are asked to confirm. Pass --yes
to confirm up front (required when not running in a terminal), or set
collisions.allow_delete: false to relocate losers instead.`,
		Args: cobra.NoArgs,
		RunE: runSort,
	}
)

func init() {
	sortOverrides.register(sortCmd.Flags())
	sortCmd.Flags().BoolVarP(&sortYes, "yes", "y", false, "confirm deletions without asking")
	sortCmd.Flags().BoolVarP(&sortDryRun, "dry-run", "d", false, "show the plan without executing it")
	sortCmd.Flags().BoolVar(&sortTidy, "tidy", false, "remove folders left empty after sorting")
	rootCmd.AddCommand(sortCmd)
}

// runSort is the sort command handler.
func runSort(cmd *cobra.Command, _ []string) error {
	ctx, stop, interrupted := signalContext()
	defer stop()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	_, table, err := scanTable(ctx, e, sortOverrides.overrides(), "modly sort")
	if err != nil {
		if interrupted() || errors.Is(err, context.Canceled) {
			printInfo("Scan cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	plan, err := e.Plan(table)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	if sortDryRun || plan.Empty() {
		return render(out(cmd), output.FromPlan(plan))
	}

	confirmed, err := confirmDeletions(plan)
	if err != nil {
		return err
	}

	var rep *engine.SortReport
	runErr := withProgress(ctx, "modly sort", e.Root(), func(ctx context.Context, report func(engine.Progress)) error {
		var err error
		rep, err = e.Execute(ctx, plan, engine.ExecuteOptions{
			ConfirmDeletes: confirmed,
			Tidy:           sortTidy,
			OnProgress:     report,
		})
		return err
	})

	var execReport *executor.Report
	if rep != nil {
		execReport = rep.Report
		for _, dir := range rep.Purged {
			printVerbose("removed empty folder %s", plan.Rel(dir))
		}
	}
	if execReport == nil && runErr != nil {
		return fmt.Errorf("sort failed: %w", runErr)
	}

	if err := render(out(cmd), output.FromExecution(e.Root(), execReport, runErr)); err != nil {
		return err
	}
	if runErr != nil && !interrupted() {
		return fmt.Errorf("sort halted: %w", runErr)
	}
	return nil
}

// confirmDeletions asks before a plan that deletes files. It reports
// whether deletions were confirmed, and fails when they were declined.
func confirmDeletions(plan *planner.Plan) (bool, error) {
	deletions := plan.Deletions()
	if len(deletions) == 0 || sortYes {
		return sortYes, nil
	}

	lines := make([]string, len(deletions))
	for i, op := range deletions {
		lines[i] = plan.Rel(op.Source)
	}
	ok, err := confirm(fmt.Sprintf("Delete %d older duplicate(s)?", len(deletions)), lines, "Delete")
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %d file(s); rerun with --yes, or set collisions.allow_delete: false",
			engine.ErrUnconfirmedDeletes, len(deletions))
	}
	return true, nil
}
