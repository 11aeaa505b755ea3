// Package output provides formatters for displaying modly results in
// various output formats (pretty, plain, json, yaml, csv, etc.).
//
// Every command builds a Result for one View (the classification table,
// a plan preview, an execution or undo report, or the batch history) and
// hands it to a formatter chosen by name:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromPlan(plan)); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

// logger is the package-level logger for output operations.
var logger = logging.Get("output")

// View names the kind of data a Result carries.
type View string

// Views, one per command surface.
const (
	ViewClassification View = "classification"
	ViewPlan           View = "plan"
	ViewExecution      View = "execution"
	ViewUndo           View = "undo"
	ViewHistory        View = "history"
)

// Row is one classified file.
type Row struct {
	Path       string    `json:"path" yaml:"path"`
	RelPath    string    `json:"rel_path" yaml:"rel_path"`
	Name       string    `json:"name" yaml:"name"`
	Size       int64     `json:"size" yaml:"size"`
	SizeHuman  string    `json:"size_human" yaml:"size_human"`
	ModTime    time.Time `json:"mod_time" yaml:"mod_time"`
	Type       string    `json:"type" yaml:"type"`
	Confidence string    `json:"confidence" yaml:"confidence"`
	Target     string    `json:"target" yaml:"target"`
	Notes      []string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	Adult      bool      `json:"adult,omitempty" yaml:"adult,omitempty"`
	Overridden bool      `json:"overridden,omitempty" yaml:"overridden,omitempty"`
	Protected  bool      `json:"protected,omitempty" yaml:"protected,omitempty"`
	Excluded   bool      `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Op is one planned or executed filesystem operation.
type Op struct {
	Kind   string `json:"kind" yaml:"kind"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Dest   string `json:"dest,omitempty" yaml:"dest,omitempty"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`

	// Reason explains collision operations.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Confirm marks operations from an ambiguous collision.
	Confirm bool `json:"confirm,omitempty" yaml:"confirm,omitempty"`

	// Detail is the journal detail of an executed operation.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Reversal is one undone journal entry.
type Reversal struct {
	Kind     string `json:"kind" yaml:"kind"`
	Original string `json:"original" yaml:"original"`
	Final    string `json:"final,omitempty" yaml:"final,omitempty"`
	Outcome  string `json:"outcome" yaml:"outcome"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Batch summarizes one journaled batch.
type Batch struct {
	ID       int64          `json:"id" yaml:"id"`
	Started  time.Time      `json:"started" yaml:"started"`
	Finished time.Time      `json:"finished" yaml:"finished"`
	Ops      int            `json:"ops" yaml:"ops"`
	Counts   map[string]int `json:"counts" yaml:"counts"`
}

// Stats contains statistics about the phase that produced the Result.
type Stats struct {
	DirsScanned  int64         `json:"dirs_scanned,omitempty" yaml:"dirs_scanned,omitempty"`
	FilesScanned int64         `json:"files_scanned,omitempty" yaml:"files_scanned,omitempty"`
	Ignored      int64         `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Duration     time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Result contains the complete output data for formatting. Only the
// section matching View is populated.
type Result struct {
	View   View   `json:"view" yaml:"view"`
	Source string `json:"source" yaml:"source"`

	// Batch is the journal batch of an execution or undo.
	Batch int64 `json:"batch,omitempty" yaml:"batch,omitempty"`

	Rows      []Row      `json:"rows,omitempty" yaml:"rows,omitempty"`
	Ops       []Op       `json:"ops,omitempty" yaml:"ops,omitempty"`
	Reversals []Reversal `json:"reversals,omitempty" yaml:"reversals,omitempty"`
	Batches   []Batch    `json:"batches,omitempty" yaml:"batches,omitempty"`

	// Counts tallies the section by kind, type or outcome.
	Counts map[string]int `json:"counts,omitempty" yaml:"counts,omitempty"`

	Stats    Stats    `json:"stats" yaml:"stats"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// DryRun marks a plan that was previewed but not executed.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	// Interrupted indicates the phase was canceled or halted.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Len returns the number of items in the populated section.
func (r *Result) Len() int {
	switch r.View {
	case ViewClassification:
		return len(r.Rows)
	case ViewPlan, ViewExecution:
		return len(r.Ops)
	case ViewUndo:
		return len(r.Reversals)
	case ViewHistory:
		return len(r.Batches)
	default:
		return 0
	}
}

// TotalSize returns the sum of all row sizes in the result.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, row := range r.Rows {
		total += row.Size
	}
	return total
}

// Rel returns path relative to Source when it lies beneath it.
func (r *Result) Rel(path string) string {
	if r.Source == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(r.Source, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// SortedCounts returns Counts as "key: n" pairs in key order.
func (r *Result) SortedCounts() []string {
	keys := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, r.Counts[k]))
	}
	return parts
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		logger.Debug("unknown formatter requested", "name", name)
		return nil, fmt.Errorf("unknown formatter: %s (available: %s)",
			name, strings.Join(r.available(), ", "))
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available()
}

func (r *Registry) available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
