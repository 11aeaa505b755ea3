package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/output"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List journaled sorts",
		Long: `List the sort batches recorded in the Mods folder's journal, newest first.
'modly undo' reverses the newest one.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of batches to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

// runHistory is the history command handler.
func runHistory(cmd *cobra.Command, _ []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	sums, err := e.History()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	res := output.FromHistory(e.Root(), sums)
	if historyLimit > 0 && len(res.Batches) > historyLimit {
		res.Batches = res.Batches[:historyLimit]
	}
	return render(out(cmd), res)
}
