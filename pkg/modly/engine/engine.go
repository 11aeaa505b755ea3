// Package engine runs modly's phases against one mods root: scan and
// classify, plan, execute, undo and watch. Each phase is a blocking call;
// only one runs at a time, and settings can only be swapped between
// phases.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/N1nj4lxl/Modly/pkg/modly/archive"
	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/dates"
	"github.com/N1nj4lxl/Modly/pkg/modly/executor"
	"github.com/N1nj4lxl/Modly/pkg/modly/ignore"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/trash"
)

var logger = logging.Get("engine")

// Errors returned by the engine.
var (
	// ErrBusy is returned when a phase or a reload is requested while
	// another phase is running.
	ErrBusy = errors.New("engine busy")

	// ErrUnconfirmedDeletes is returned by Execute when the plan deletes
	// files and the caller did not confirm it.
	ErrUnconfirmedDeletes = errors.New("plan deletes files and was not confirmed")
)

// Phase names the work the engine is doing.
type Phase string

// Phases. PhaseIdle means nothing is running.
const (
	PhaseIdle     Phase = ""
	PhaseScan     Phase = "scan"
	PhaseClassify Phase = "classify"
	PhasePlan     Phase = "plan"
	PhaseExecute  Phase = "execute"
	PhaseUndo     Phase = "undo"
	PhaseWatch    Phase = "watch"
)

// Progress reports how far the running phase has got. Total is zero when
// it is not known in advance.
type Progress struct {
	Phase   Phase
	Done    int
	Total   int
	Current string
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem used by planning, execution, undo and tidy.
// Scanning always reads the real filesystem.
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithTrash replaces the system trash used in trash delete mode.
func WithTrash(fn executor.TrashFunc) Option {
	return func(e *Engine) {
		e.trash = fn
	}
}

// WithDateOptions passes options to the date resolver.
func WithDateOptions(opts ...dates.Option) Option {
	return func(e *Engine) {
		e.dateOpts = opts
	}
}

// Engine owns the components built from one configuration.
type Engine struct {
	fs       afero.Fs
	trash    executor.TrashFunc
	dateOpts []dates.Option

	mu       sync.Mutex
	cfg      *config.Config
	root     string
	store    *archive.Store
	dates    *dates.Resolver
	classify *classify.Classifier
	ignore   *ignore.Matcher
	phase    Phase
	progress Progress
}

// New builds an engine for cfg.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		fs:    afero.NewOsFs(),
		trash: trash.MoveToTrash,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.load(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// load builds every component for cfg and swaps them in. The caller holds
// mu or owns e exclusively.
func (e *Engine) load(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.ModsPath == "" {
		return fmt.Errorf("%w: mods_path is not set", config.ErrInvalid)
	}
	root, err := filepath.Abs(cfg.ModsPath)
	if err != nil {
		return fmt.Errorf("resolving mods path: %w", err)
	}

	settings, err := classify.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}
	classifier, err := classify.New(settings)
	if err != nil {
		return err
	}

	matcher, err := ignore.New(root, ignore.Settings{
		Extensions:   cfg.Ignore.Extensions,
		NameContains: cfg.Ignore.NameContains,
		Patterns:     cfg.Ignore.Patterns,
		File:         cfg.Ignore.File,
	})
	if err != nil {
		return err
	}

	var provider archive.Provider = archive.NewZipProvider()
	var store *archive.Store
	switch {
	case !cfg.Cache.Enabled || cfg.Cache.Path == "":
	case e.store != nil && e.cfg.Cache.Path == cfg.Cache.Path:
		// Badger holds a directory lock, so an open store is reused.
		store = e.store
	default:
		store, err = archive.OpenStore(cfg.Cache.Path)
		if err != nil {
			// The cache only saves re-reading archives.
			logger.Warn("archive cache unavailable", "path", cfg.Cache.Path, "error", err)
			store = nil
		}
	}
	if store != nil {
		provider = archive.NewCachedProvider(provider, store)
	}

	old := e.store
	e.cfg = cfg
	e.root = root
	e.store = store
	e.dates = dates.NewResolver(provider, e.dateOpts...)
	e.classify = classifier
	e.ignore = matcher

	if old != nil && old != store {
		if err := old.Close(); err != nil {
			logger.Warn("closing archive cache", "error", err)
		}
	}
	logger.Info("engine configured", "root", root, "detectors", cfg.Detectors, "cache", store != nil)
	return nil
}

// Reload swaps in a new configuration. It fails with ErrBusy while a phase
// runs, and leaves the old configuration in place on any error.
func (e *Engine) Reload(cfg *config.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return fmt.Errorf("%w: %s in progress", ErrBusy, e.phase)
	}
	return e.load(cfg)
}

// Close releases the archive cache.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// Config returns the active configuration. It must not be modified.
func (e *Engine) Config() *config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Root returns the absolute mods root.
func (e *Engine) Root() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Classifier returns the active classifier.
func (e *Engine) Classifier() *classify.Classifier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classify
}

// Status returns the running phase and its last progress.
func (e *Engine) Status() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseIdle {
		return Progress{}
	}
	p := e.progress
	p.Phase = e.phase
	return p
}

// run marks phase as running. The returned snapshot stays valid for the
// whole phase because Reload is refused until done is called.
func (e *Engine) run(phase Phase) (*snapshot, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return nil, nil, fmt.Errorf("%w: %s in progress", ErrBusy, e.phase)
	}
	e.phase = phase
	e.progress = Progress{Phase: phase}
	logger.Debug("phase started", "phase", phase)

	s := &snapshot{
		cfg:      e.cfg,
		root:     e.root,
		dates:    e.dates,
		classify: e.classify,
		ignore:   e.ignore,
	}
	done := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		logger.Debug("phase finished", "phase", e.phase)
		e.phase = PhaseIdle
		e.progress = Progress{}
	}
	return s, done, nil
}

// report records progress and forwards it.
func (e *Engine) report(p Progress, fn func(Progress)) {
	e.mu.Lock()
	e.progress = p
	e.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// snapshot is the configuration a phase runs with.
type snapshot struct {
	cfg      *config.Config
	root     string
	dates    *dates.Resolver
	classify *classify.Classifier
	ignore   *ignore.Matcher
}

// CacheStats returns the number of cached archive listings.
func (e *Engine) CacheStats() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return 0, nil
	}
	return e.store.Count()
}

// ClearCache drops every cached archive listing.
func (e *Engine) ClearCache() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return fmt.Errorf("%w: %s in progress", ErrBusy, e.phase)
	}
	if e.store == nil {
		return nil
	}
	return e.store.Clear()
}
