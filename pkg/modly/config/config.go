package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// IgnoreConfig lists files the scanner drops before classification.
type IgnoreConfig struct {
	Extensions   []string `mapstructure:"extensions"`
	NameContains []string `mapstructure:"name_contains"`
	Patterns     []string `mapstructure:"patterns"`
	File         string   `mapstructure:"file"`
}

// AdultConfig configures adult-content routing.
type AdultConfig struct {
	Keywords []string `mapstructure:"keywords"`
	Root     string   `mapstructure:"root"`
}

// ScanConfig configures the scan phase.
type ScanConfig struct {
	Recurse          bool `mapstructure:"recurse"`
	ListUnclassified bool `mapstructure:"list_unclassified"`
	SkipHolding      bool `mapstructure:"skip_holding"`

	// Workers is the walker pool size. Zero sizes it from the machine.
	Workers int `mapstructure:"workers"`
}

// CollisionConfig configures collision handling.
type CollisionConfig struct {
	AllowDelete     bool   `mapstructure:"allow_delete"`
	DeleteMode      string `mapstructure:"delete_mode"`
	MatchDatedNames bool   `mapstructure:"match_dated_names"`
}

// Config represents the application configuration. It is loaded once per
// run and treated as read-only afterwards.
type Config struct {
	ModsPath      string            `mapstructure:"mods_path"`
	Detectors     []string          `mapstructure:"detectors"`
	Ignore        IgnoreConfig      `mapstructure:"ignore"`
	Adult         AdultConfig       `mapstructure:"adult"`
	Folders       map[string]string `mapstructure:"folders"`
	KeywordsFile  string            `mapstructure:"keywords_file"`
	HoldingFolder string            `mapstructure:"holding_folder"`
	Scan          ScanConfig        `mapstructure:"scan"`
	Collisions    CollisionConfig   `mapstructure:"collisions"`
	Journal       struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"journal"`
	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Tidy struct {
		PurgeEmptyDirs bool `mapstructure:"purge_empty_dirs"`
	} `mapstructure:"tidy"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Folder returns the folder configured for t. Keys are matched
// case-insensitively; unknown types fall back to the defaults and then to
// the type name itself.
func (c *Config) Folder(t types.Type) string {
	key := strings.ToLower(string(t))
	for k, v := range c.Folders {
		if strings.ToLower(k) == key && strings.TrimSpace(v) != "" {
			return v
		}
	}
	if v, ok := DefaultFolders[t]; ok {
		return v
	}
	return string(t)
}

// JournalPath returns the journal location for a mods root.
func (c *Config) JournalPath(root string) string {
	return filepath.Join(root, c.Journal.Name)
}

// Validate checks values that cannot be expressed through defaults.
func (c *Config) Validate() error {
	if len(c.Detectors) == 0 {
		return fmt.Errorf("%w: detectors must not be empty", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Detectors))
	for _, d := range c.Detectors {
		if !slices.Contains(DefaultDetectors, d) {
			return fmt.Errorf("%w: unknown detector %q", ErrInvalid, d)
		}
		if seen[d] {
			return fmt.Errorf("%w: detector %q listed twice", ErrInvalid, d)
		}
		seen[d] = true
	}

	switch c.Collisions.DeleteMode {
	case DeleteModePermanent, DeleteModeTrash:
	default:
		return fmt.Errorf("%w: collisions.delete_mode must be %q or %q, got %q",
			ErrInvalid, DeleteModePermanent, DeleteModeTrash, c.Collisions.DeleteMode)
	}

	for name, dir := range map[string]string{
		"holding_folder": c.HoldingFolder,
		"adult.root":     c.Adult.Root,
	} {
		if err := checkRelative(dir); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
	}

	if c.Journal.Name == "" || strings.ContainsAny(c.Journal.Name, `/\`) {
		return fmt.Errorf("%w: journal.name must be a plain file name", ErrInvalid)
	}

	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: scan.workers must not be negative", ErrInvalid)
	}

	return nil
}

func checkRelative(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("must not be empty")
	}
	if filepath.IsAbs(dir) {
		return errors.New("must be relative to the mods root")
	}
	for _, part := range strings.FieldsFunc(dir, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return errors.New("must stay inside the mods root")
		}
	}
	return nil
}

// NewViper returns a viper instance with modly's search paths, environment
// binding and defaults. If cfgFile is non-empty it is used instead of the
// search paths. Callers may bind flags to it before calling Decode.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "modly"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "modly"))
		}
	}

	// Environment variables are prefixed with MODLY_ (e.g. MODLY_MODS_PATH).
	v.SetEnvPrefix("MODLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mods_path", DefaultModsPath())
	v.SetDefault("detectors", DefaultDetectors)

	v.SetDefault("ignore.extensions", DefaultIgnoreExtensions)
	v.SetDefault("ignore.name_contains", DefaultIgnoreNameContains)
	v.SetDefault("ignore.patterns", []string{})
	v.SetDefault("ignore.file", DefaultIgnoreFile)

	v.SetDefault("adult.keywords", DefaultAdultKeywords)
	v.SetDefault("adult.root", DefaultAdultRoot)

	// Viper lowercases keys read from files, so defaults use lowercase too.
	folders := make(map[string]any, len(DefaultFolders))
	for t, dir := range DefaultFolders {
		folders[strings.ToLower(string(t))] = dir
	}
	v.SetDefault("folders", folders)
	v.SetDefault("keywords_file", "")
	v.SetDefault("holding_folder", DefaultHoldingFolder)

	v.SetDefault("scan.recurse", true)
	v.SetDefault("scan.list_unclassified", true)
	v.SetDefault("scan.skip_holding", true)
	v.SetDefault("scan.workers", 0)

	v.SetDefault("collisions.allow_delete", true)
	v.SetDefault("collisions.delete_mode", DeleteModePermanent)
	v.SetDefault("collisions.match_dated_names", true)

	v.SetDefault("journal.name", DefaultJournalName)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("tidy.purge_empty_dirs", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", map[string]string{
		"scanner":  "info",
		"classify": "info",
		"dates":    "info",
		"executor": "info",
		"watcher":  "warn",
	})
}

// Decode reads the config file registered on v, if any, and unmarshals the
// merged settings. A missing config file is not an error.
func Decode(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ModsPath != "" {
		expanded, err := ExpandPath(cfg.ModsPath)
		if err != nil {
			return nil, err
		}
		cfg.ModsPath = expanded
	}
	if cfg.KeywordsFile != "" {
		expanded, err := ExpandPath(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		cfg.KeywordsFile = expanded
	}
	for i, d := range cfg.Detectors {
		cfg.Detectors[i] = strings.ToLower(strings.TrimSpace(d))
	}
	cfg.Collisions.DeleteMode = strings.ToLower(cfg.Collisions.DeleteMode)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/modly/config.yaml
//   - $HOME/.config/modly/config.yaml
func Load() (*Config, error) {
	return Decode(NewViper(""))
}

// Default returns the configuration with every default applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "modly"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "modly"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# modly configuration

# Sims 4 Mods folder to sort
mods_path: %q

# Detector order. Later detectors only win with strictly higher confidence.
detectors: [name, binary, extension]

# Files skipped during scans
ignore:
  extensions: [%s]
  name_contains: [%s]
  # Glob patterns matched against paths relative to the mods folder
  patterns: []
  # gitignore-style file read from the mods folder
  file: %s

# Adult-content routing
adult:
  keywords: [%s]
  root: %s

# Type -> folder overrides (keys are case-insensitive)
folders:
  Script Mod: Script Mods
  Build/Buy: Build Buy
  Unknown: Unsorted

# Optional TOML keyword table replacing the built-in one
keywords_file: ""

# Folder receiving files displaced by collisions
holding_folder: %s

scan:
  recurse: true
  # List files no detector could classify (type Other)
  list_unclassified: true
  skip_holding: true
  # Directory walker count; 0 picks one from the CPU and memory
  workers: 0

collisions:
  # false turns every delete into a move to the holding folder
  allow_delete: true
  # permanent or trash
  delete_mode: permanent
  # ModA_2023-01-01.package and ModA.package compete for the same slot
  match_dated_names: true

journal:
  name: %s

# Cache of archive listings
cache:
  enabled: true
  path: %q

tidy:
  # Remove empty folders after a sort
  purge_empty_dirs: false

logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/modly/modly.log)
  path: ""
  rotation:
    max_size: 10MB
    max_backups: 5
  components:
    scanner: info
    classify: info
    dates: info
    executor: info
    watcher: warn
`,
		DefaultModsPath(),
		strings.Join(DefaultIgnoreExtensions, ", "),
		strings.Join(DefaultIgnoreNameContains, ", "),
		DefaultIgnoreFile,
		strings.Join(DefaultAdultKeywords, ", "),
		DefaultAdultRoot,
		DefaultHoldingFolder,
		DefaultJournalName,
		DefaultCachePath(),
	)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DefaultModsPath returns <Documents>/Electronic Arts/The Sims 4/Mods.
func DefaultModsPath() string {
	docs := xdg.UserDirs.Documents
	if docs == "" {
		docs = filepath.Join(xdg.Home, "Documents")
	}
	return filepath.Join(docs, "Electronic Arts", "The Sims 4", "Mods")
}

// StateDir returns $XDG_STATE_HOME/modly/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "modly")
}

// CacheDir returns $XDG_CACHE_HOME/modly/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "modly")
}

// DefaultCachePath returns the default archive listing cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "archives")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "modly.log")
}
