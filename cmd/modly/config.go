package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage modly configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/modly/config.yaml (if set)
  2. ~/.config/modly/config.yaml

Environment variables can override config file settings using the MODLY_ prefix:
  MODLY_MODS_PATH=/path/to/Mods
  MODLY_HOLDING_FOLDER="Colliding Mods"
  MODLY_COLLISIONS_ALLOW_DELETE=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := requireConfig()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = config.Default()
	}

	w := cmd.OutOrStdout()
	if configFile := settings().ConfigFileUsed(); configFile != "" {
		if _, statErr := os.Stat(configFile); statErr == nil {
			fmt.Fprintf(w, "Config file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
		}
	} else {
		fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
	}

	writeConfig(w, cfg)

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	if overrides := envOverrides(os.Environ()); len(overrides) > 0 {
		for _, kv := range overrides {
			fmt.Fprintln(w, kv)
		}
	} else {
		fmt.Fprintln(w, "(none)")
	}
	return nil
}

// writeConfig prints the settings that shape a sort.
func writeConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "mods_path:                    %s\n", cfg.ModsPath)
	fmt.Fprintf(w, "detectors:                    %s\n", strings.Join(cfg.Detectors, ", "))
	fmt.Fprintf(w, "holding_folder:               %s\n", cfg.HoldingFolder)
	fmt.Fprintf(w, "adult.root:                   %s\n", cfg.Adult.Root)
	fmt.Fprintf(w, "adult.keywords:               %d\n", len(cfg.Adult.Keywords))
	fmt.Fprintf(w, "keywords_file:                %s\n", orNone(cfg.KeywordsFile))
	fmt.Fprintf(w, "ignore.extensions:            %s\n", strings.Join(cfg.Ignore.Extensions, " "))
	fmt.Fprintf(w, "ignore.name_contains:         %s\n", strings.Join(cfg.Ignore.NameContains, " "))
	fmt.Fprintf(w, "ignore.patterns:              %s\n", orNone(strings.Join(cfg.Ignore.Patterns, " ")))
	fmt.Fprintf(w, "ignore.file:                  %s\n", cfg.Ignore.File)
	fmt.Fprintf(w, "scan.recurse:                 %t\n", cfg.Scan.Recurse)
	fmt.Fprintf(w, "scan.list_unclassified:       %t\n", cfg.Scan.ListUnclassified)
	fmt.Fprintf(w, "scan.skip_holding:            %t\n", cfg.Scan.SkipHolding)
	fmt.Fprintf(w, "scan.workers:                 %d\n", cfg.Scan.Workers)
	fmt.Fprintf(w, "collisions.allow_delete:      %t\n", cfg.Collisions.AllowDelete)
	fmt.Fprintf(w, "collisions.delete_mode:       %s\n", cfg.Collisions.DeleteMode)
	fmt.Fprintf(w, "collisions.match_dated_names: %t\n", cfg.Collisions.MatchDatedNames)
	fmt.Fprintf(w, "journal.name:                 %s\n", cfg.Journal.Name)
	fmt.Fprintf(w, "cache.enabled:                %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(w, "cache.path:                   %s\n", cfg.Cache.Path)
	fmt.Fprintf(w, "tidy.purge_empty_dirs:        %t\n", cfg.Tidy.PurgeEmptyDirs)
	fmt.Fprintf(w, "logging.level:                %s\n", cfg.Logging.Level)

	if len(cfg.Folders) > 0 {
		fmt.Fprintln(w, "\nFolders:")
		keys := make([]string, 0, len(cfg.Folders))
		for k := range cfg.Folders {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-20s %s\n", k, cfg.Folders[k])
		}
	}
}

// envOverrides returns the MODLY_ variables in env, sorted.
func envOverrides(env []string) []string {
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(kv, "MODLY_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'modly config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
