package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/output"
)

var (
	planOverrides overrideFlags

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Preview the moves a sort would make",
		Long: `Scan the Mods folder and print the ordered list of folder creations, moves,
relocations and deletions a sort would perform. Nothing on disk changes.

Collisions whose winner could not be decided are relocated to the holding
folder and marked for confirmation.`,
		Args: cobra.NoArgs,
		RunE: runPlan,
	}
)

func init() {
	planOverrides.register(planCmd.Flags())
	rootCmd.AddCommand(planCmd)
}

// runPlan is the plan command handler.
func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, stop, interrupted := signalContext()
	defer stop()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	_, table, err := scanTable(ctx, e, planOverrides.overrides(), "modly plan")
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
	return render(out(cmd), output.FromPlan(plan))
}
