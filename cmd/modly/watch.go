package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/engine"
	"github.com/N1nj4lxl/Modly/pkg/modly/output"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
	"github.com/N1nj4lxl/Modly/pkg/modly/watcher"
)

var (
	watchSettle time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Classify new mods as they arrive",
		Long: `Watch the Mods folder and classify each file that appears, once it has
stopped changing for the settle time. Nothing is moved; run 'modly sort'
to file the new arrivals.

With -o other than pretty, each arrival is written in that format.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle, "how long a file must stay unchanged before it is classified")
	rootCmd.AddCommand(watchCmd)
}

// runWatch is the watch command handler.
func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop, _ := signalContext()
	defer stop()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	printInfo("Watching %s (Ctrl+C to stop)", e.Root())

	w := out(cmd)
	pretty := settings().GetString("output") == "pretty"
	err = e.Watch(ctx, watchSettle, func(a engine.Arrival) {
		if pretty {
			writeArrival(w, a)
			return
		}
		table := classify.NewTable([]classify.Result{a.Result})
		res := output.FromScan(e.Root(), &types.ScanResult{Root: e.Root()}, table)
		if err := render(w, res); err != nil {
			logger.Warn("formatting arrival", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	printInfo("Stopped watching")
	return nil
}

// writeArrival prints one classified arrival.
func writeArrival(w io.Writer, a engine.Arrival) {
	res := a.Result
	line := fmt.Sprintf("%s  %-16s %-6s %s -> %s",
		a.At.Format("15:04:05"), res.Type, res.Confidence, res.Record.RelPath, res.Target)
	if notes := res.NotesString(); notes != "" {
		line += "  (" + notes + ")"
	}
	fmt.Fprintln(w, line)
}
