package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/engine"
	"github.com/N1nj4lxl/Modly/pkg/modly/filter"
	"github.com/N1nj4lxl/Modly/pkg/modly/output"
)

var (
	scanFilters   filterFlags
	scanOverrides overrideFlags

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Classify every mod without moving anything",
		Long: `Scan the Mods folder and show the type, confidence and target folder of
every mod file. Nothing on disk changes.

Examples:
  modly scan                            # Classify everything
  modly scan -t 'CAS Hair' --sort size  # Largest hair mods first
  modly scan --min-confidence high      # Only confident classifications
  modly scan -o csv > mods.csv          # Export the table`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
)

func init() {
	scanFilters.register(scanCmd.Flags())
	scanOverrides.register(scanCmd.Flags())
	rootCmd.AddCommand(scanCmd)
}

// openEngine creates an engine over the loaded configuration.
func openEngine() (*engine.Engine, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return engine.New(cfg)
}

// scanTable scans and classifies the mods root, then applies overrides.
func scanTable(ctx context.Context, e *engine.Engine, o filter.Overrides, title string) (*engine.Snapshot, *classify.Table, error) {
	var snap *engine.Snapshot
	err := withProgress(ctx, title, e.Root(), func(ctx context.Context, report func(engine.Progress)) error {
		var err error
		snap, err = e.Scan(ctx, report)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	table, err := e.ApplyOverrides(snap.Table, o)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid override: %w", err)
	}
	return snap, table, nil
}

// runScan is the scan command handler.
func runScan(cmd *cobra.Command, _ []string) error {
	f, err := scanFilters.build()
	if err != nil {
		return fmt.Errorf("failed to build filter: %w", err)
	}

	ctx, stop, interrupted := signalContext()
	defer stop()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	snap, table, err := scanTable(ctx, e, scanOverrides.overrides(), "modly scan")
	if err != nil {
		if interrupted() || errors.Is(err, context.Canceled) {
			printInfo("Scan cancelled")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	return render(out(cmd), output.FromScan(e.Root(), snap.Scan, f.Apply(table)))
}
