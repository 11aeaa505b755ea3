package main

import (
	"os"
	"testing"

	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name:     "default values",
			input:    config.RotationConfig{MaxSize: "10MB", MaxBackups: 5},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 5},
		},
		{
			name:     "custom size in gigabytes",
			input:    config.RotationConfig{MaxSize: "1G", MaxBackups: 3},
			expected: logging.RotationConfig{MaxSize: 1024 * 1024 * 1024, MaxBackups: 3},
		},
		{
			name:     "empty max_size uses default",
			input:    config.RotationConfig{MaxSize: "", MaxBackups: 2},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 2},
		},
		{
			name:     "invalid max_size uses default",
			input:    config.RotationConfig{MaxSize: "invalid", MaxBackups: 4},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseRotationConfig(tt.input)

			if result.MaxSize != tt.expected.MaxSize {
				t.Errorf("MaxSize = %d, want %d", result.MaxSize, tt.expected.MaxSize)
			}
			if result.MaxBackups != tt.expected.MaxBackups {
				t.Errorf("MaxBackups = %d, want %d", result.MaxBackups, tt.expected.MaxBackups)
			}
		})
	}
}

func TestInitializeLoggingEnsuresDirectories(t *testing.T) {
	// XDG state and cache paths are resolved at package init, so only the
	// config directory can be redirected here.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MODLY_MODS_PATH", t.TempDir())

	if err := initializeLogging(nil, nil); err != nil {
		t.Fatalf("initializeLogging() returned error: %v", err)
	}
	defer func() { _ = logging.Close() }()

	configDir, err := config.ConfigDir()
	if err != nil {
		t.Fatalf("failed to get config dir: %v", err)
	}
	for _, dir := range []string{configDir, config.StateDir(), config.CacheDir()} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("directory was not created: %s", dir)
		}
	}

	if loadErr != nil {
		t.Errorf("loadErr = %v, want nil", loadErr)
	}
	if appConfig == nil || appConfig.ModsPath != os.Getenv("MODLY_MODS_PATH") {
		t.Errorf("appConfig.ModsPath not taken from the environment: %+v", appConfig)
	}
}

func TestInitializeLoggingKeepsBadConfigForLater(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MODLY_COLLISIONS_DELETE_MODE", "shred")

	if err := initializeLogging(nil, nil); err != nil {
		t.Fatalf("initializeLogging() returned error: %v", err)
	}
	defer func() { _ = logging.Close() }()

	if _, err := requireConfig(); err == nil {
		t.Error("requireConfig() error = nil, want the load error")
	}
}
