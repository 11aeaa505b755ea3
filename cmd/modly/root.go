package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

var (
	cfgFile string

	// v holds the merged file, environment and flag settings.
	v *viper.Viper

	rootCmd = &cobra.Command{
		Use:   "modly",
		Short: "Sort a Sims 4 Mods folder into category folders",
		Long: `Modly classifies the files in a Sims 4 Mods folder and moves them into
category folders, resolving duplicates by date. Every sort is journaled and
can be undone.

Examples:
  modly scan                     # Show how each mod would be classified
  modly plan                     # Preview the moves without touching anything
  modly sort                     # Sort the Mods folder
  modly sort --protect '*mccc*'  # Never delete MCCC files on collision
  modly undo                     # Reverse the last sort
  modly history                  # List journaled sorts
  modly watch                    # Classify new downloads as they arrive`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.Close()
		},
	}
)

func init() {
	// Set here rather than in the literal to break the rootCmd ->
	// initializeLogging -> newViper -> rootCmd initialization cycle.
	rootCmd.PersistentPreRunE = initializeLogging
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/modly/config.yaml)")
	rootCmd.PersistentFlags().StringP("mods", "m", "", "Mods folder to sort (default: the Sims 4 Mods folder)")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "output format: "+formatList())
	rootCmd.PersistentFlags().String("template", "", "Go template for -o template")
	rootCmd.PersistentFlags().Bool("no-progress", false, "disable the progress view")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("%v", err)
	}
	return err
}

// newViper builds the settings for this run and binds the global flags.
func newViper() *viper.Viper {
	nv := config.NewViper(cfgFile)
	flags := rootCmd.PersistentFlags()
	_ = nv.BindPFlag("mods_path", flags.Lookup("mods"))
	_ = nv.BindPFlag("output", flags.Lookup("output"))
	_ = nv.BindPFlag("template", flags.Lookup("template"))
	_ = nv.BindPFlag("no_progress", flags.Lookup("no-progress"))
	_ = nv.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = nv.BindPFlag("verbose", flags.Lookup("verbose"))
	return nv
}

// settings returns the run's viper instance, creating it on first use.
func settings() *viper.Viper {
	if v == nil {
		v = newViper()
	}
	return v
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return settings().GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return settings().GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
