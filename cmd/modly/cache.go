package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the archive listing cache",
	Long: `Commands for managing the archive listing cache.

The cache stores the entry listings of .zip and .ts4script files so repeat
sorts don't reopen unchanged archives when resolving dates. Cache data is
stored in the XDG cache directory (typically ~/.cache/modly/archives).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached listings",
	Long:  `Removes all cached archive listings. The next sort re-reads every archive.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, the number of cached archives and the size on disk.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !cfg.Cache.Enabled {
			fmt.Fprintln(w, "Cache: disabled (cache.enabled is false)")
			return nil
		}

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.CacheStats()
		if err != nil {
			return fmt.Errorf("failed to read cache: %w", err)
		}
		size, files, err := dirSize(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		fmt.Fprintf(w, "Cache location: %s\n", cfg.Cache.Path)
		fmt.Fprintf(w, "Cached archives: %s\n", humanize.Comma(int64(entries)))
		fmt.Fprintf(w, "Cache size: %s (%d files)\n", humanize.IBytes(uint64(size)), files)
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// dirSize totals the regular files under dir. A missing dir is empty.
func dirSize(dir string) (int64, int, error) {
	var size int64
	var files int
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files, err
}
