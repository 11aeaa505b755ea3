package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// defaultRotationSize is used when logging.rotation.max_size is empty or
// unparseable.
const defaultRotationSize = 10 * 1024 * 1024

var (
	// appConfig is the configuration loaded for this run. It is nil when
	// loading failed; loadErr then says why.
	appConfig *config.Config
	loadErr   error

	// logConfig is kept so the progress view can silence the console.
	logConfig logging.Config
)

var logger = logging.Get("cli")

// initializeLogging is the root PersistentPreRunE hook. It creates modly's
// directories, loads the configuration and starts logging. A configuration
// error is reported by the commands that need one, so `config` subcommands
// still work with a broken file.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := ensureDirectories(); err != nil {
		return err
	}

	v = newViper()
	appConfig, loadErr = config.Decode(v)

	logCfg := config.Default().Logging
	if appConfig != nil {
		logCfg = appConfig.Logging
	}

	logConfig = logging.Config{
		Level:        logCfg.Level,
		Path:         logCfg.Path,
		Rotation:     parseRotationConfig(logCfg.Rotation),
		Components:   logCfg.Components,
		ConsoleLevel: "warn",
		Quiet:        getQuiet(),
	}
	if getVerbose() {
		logConfig.Level = "debug"
		logConfig.ConsoleLevel = "debug"
	}

	if err := logging.Init(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if loadErr != nil {
		logger.Warn("configuration not loaded", "error", loadErr)
	} else {
		logger.Debug("configuration loaded", "file", v.ConfigFileUsed(), "mods", appConfig.ModsPath)
	}
	return nil
}

// initTUILogging stops console logging while the progress view owns the
// terminal. The log file keeps receiving entries.
func initTUILogging() error {
	cfg := logConfig
	cfg.Quiet = true
	return logging.Init(cfg)
}

// restoreLogging re-enables console logging after the progress view.
func restoreLogging() error {
	return logging.Init(logConfig)
}

// ensureDirectories creates the config, state and cache directories.
func ensureDirectories() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	for _, dir := range []string{configDir, config.StateDir(), config.CacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// parseRotationConfig converts the configured rotation settings. An empty
// or invalid max_size falls back to 10MB.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	size := int64(defaultRotationSize)
	if rc.MaxSize != "" {
		parsed, err := types.ParseSize(rc.MaxSize)
		if err == nil && parsed > 0 {
			size = parsed
		}
	}
	return logging.RotationConfig{
		MaxSize:    size,
		MaxBackups: rc.MaxBackups,
	}
}

// requireConfig returns the loaded configuration or the load error.
func requireConfig() (*config.Config, error) {
	if loadErr != nil {
		return nil, loadErr
	}
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return appConfig, nil
}
