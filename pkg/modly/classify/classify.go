// Package classify assigns a type, confidence and target folder to each
// scanned file. Detectors run in a configured order; a later detector only
// replaces the running verdict when it is strictly more confident, and
// every detector's note is kept so the result explains itself.
package classify

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("classify")

// Result is the classification of one file. Results are values: every
// change produces a freshly computed Result.
type Result struct {
	Record     types.FileRecord `json:"record" yaml:"record"`
	Type       types.Type       `json:"type" yaml:"type"`
	Confidence types.Confidence `json:"confidence" yaml:"confidence"`
	Notes      []string         `json:"notes" yaml:"notes"`

	// Target is the destination folder relative to the mods root.
	Target string `json:"target" yaml:"target"`

	// Adult is set when adult routing moved the target under the adult root.
	Adult bool `json:"adult,omitempty" yaml:"adult,omitempty"`

	// TypeOverridden is set when the user chose the type.
	TypeOverridden bool `json:"type_overridden,omitempty" yaml:"type_overridden,omitempty"`

	// FolderOverride is a user-chosen target that replaces the folder map.
	FolderOverride string `json:"folder_override,omitempty" yaml:"folder_override,omitempty"`

	// Protected files are relocated instead of deleted when they lose a
	// collision.
	Protected bool `json:"protected,omitempty" yaml:"protected,omitempty"`

	// Excluded rows are listed but never planned.
	Excluded bool `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// NotesString joins the notes for single-line display.
func (r Result) NotesString() string {
	return strings.Join(r.Notes, "; ")
}

// Settings is the classification configuration.
type Settings struct {
	// Detectors is the detector order.
	Detectors []Kind

	// Keywords is the name detector table. Nil uses DefaultKeywords.
	Keywords *Keywords

	// Folders maps types to folders; missing types use their own name.
	Folders map[types.Type]string

	// AdultKeywords route a result under AdultRoot when found in its type
	// or notes.
	AdultKeywords []string
	AdultRoot     string

	// ListUnclassified keeps rows of type Other in ClassifyAll.
	ListUnclassified bool
}

// SettingsFromConfig builds Settings from the loaded configuration,
// reading the user keyword table if one is configured.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	s := Settings{
		Folders:          make(map[types.Type]string),
		AdultKeywords:    cfg.Adult.Keywords,
		AdultRoot:        cfg.Adult.Root,
		ListUnclassified: cfg.Scan.ListUnclassified,
	}
	for _, d := range cfg.Detectors {
		s.Detectors = append(s.Detectors, Kind(d))
	}
	for _, t := range types.AllTypes() {
		s.Folders[t] = cfg.Folder(t)
	}
	if cfg.KeywordsFile != "" {
		kw, err := LoadKeywordsFile(cfg.KeywordsFile)
		if err != nil {
			return Settings{}, err
		}
		s.Keywords = kw
	}
	return s, nil
}

// Classifier runs the configured detectors.
type Classifier struct {
	settings  Settings
	detectors []Detector
	adult     []string
	overrides map[Kind]Detector
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithDetector replaces the implementation used for kind.
func WithDetector(kind Kind, d Detector) Option {
	return func(c *Classifier) {
		c.overrides[kind] = d
	}
}

// New creates a Classifier.
func New(s Settings, opts ...Option) (*Classifier, error) {
	if len(s.Detectors) == 0 {
		return nil, fmt.Errorf("no detectors configured")
	}
	if s.Keywords == nil {
		s.Keywords = DefaultKeywords()
	}

	c := &Classifier{settings: s, overrides: make(map[Kind]Detector)}
	for _, opt := range opts {
		opt(c)
	}

	for _, kind := range s.Detectors {
		if d, ok := c.overrides[kind]; ok {
			c.detectors = append(c.detectors, d)
			continue
		}
		switch kind {
		case KindName:
			c.detectors = append(c.detectors, NewNameDetector(s.Keywords))
		case KindBinary:
			c.detectors = append(c.detectors, NewBinaryDetector())
		case KindExtension:
			c.detectors = append(c.detectors, ExtensionDetector{})
		default:
			return nil, fmt.Errorf("unknown detector %q", kind)
		}
	}

	for _, kw := range s.AdultKeywords {
		if kw = fold(strings.TrimSpace(kw)); kw != "" {
			c.adult = append(c.adult, kw)
		}
	}
	return c, nil
}

// Classify runs every detector over rec and merges their verdicts.
func (c *Classifier) Classify(rec types.FileRecord) Result {
	best := Verdict{}
	notes := make([]string, 0, len(c.detectors))
	for _, d := range c.detectors {
		v := d.Detect(rec)
		if v.Note != "" {
			notes = append(notes, v.Note)
		}
		if !v.None() && v.Confidence > best.Confidence {
			best = v
		}
	}
	if best.None() {
		best = Verdict{Type: types.TypeOther, Confidence: types.ConfidenceLow}
	}
	return c.build(rec, best.Type, best.Confidence, notes, "")
}

// ClassifyAll classifies records in order. Rows of type Other are dropped
// unless ListUnclassified is set. onProgress, if non-nil, is called after
// each record.
func (c *Classifier) ClassifyAll(ctx context.Context, recs []types.FileRecord, onProgress func(done, total int)) (*Table, error) {
	rows := make([]Result, 0, len(recs))
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := c.Classify(rec)
		if res.Type == types.TypeOther && !c.settings.ListUnclassified {
			logger.Debug("unclassified file dropped", "path", rec.Path)
		} else {
			rows = append(rows, res)
		}
		if onProgress != nil {
			onProgress(i+1, len(recs))
		}
	}
	logger.Info("classified", "files", len(recs), "rows", len(rows))
	return NewTable(rows), nil
}

// Override returns res recomputed with the user-chosen type. Detector
// notes are replaced by a note recording the override; user flags carry
// over.
func (c *Classifier) Override(res Result, t types.Type) Result {
	note := fmt.Sprintf("override: type set to %s", t)
	out := c.build(res.Record, t, types.ConfidenceHigh, []string{note}, res.FolderOverride)
	out.TypeOverridden = true
	out.Protected, out.Excluded = res.Protected, res.Excluded
	return out
}

// WithTarget returns res with a user-chosen target folder. An empty folder
// clears the override.
func (c *Classifier) WithTarget(res Result, folder string) Result {
	out := c.build(res.Record, res.Type, res.Confidence, slices.Clone(res.Notes), folder)
	out.TypeOverridden = res.TypeOverridden
	out.Protected, out.Excluded = res.Protected, res.Excluded
	return out
}

// RecalculateTargets recomputes every target from the current type and
// folder map, discarding folder overrides. Types, notes and user flags are
// kept.
func (c *Classifier) RecalculateTargets(t *Table) *Table {
	rows := make([]Result, 0, t.Len())
	for _, res := range t.All() {
		out := c.build(res.Record, res.Type, res.Confidence, slices.Clone(res.Notes), "")
		out.TypeOverridden = res.TypeOverridden
		out.Protected, out.Excluded = res.Protected, res.Excluded
		rows = append(rows, out)
	}
	return NewTable(rows)
}

// Folder returns the folder configured for t.
func (c *Classifier) Folder(t types.Type) string {
	if f, ok := c.settings.Folders[t]; ok && f != "" {
		return f
	}
	return string(t)
}

// build derives the target for a verdict and assembles a Result.
func (c *Classifier) build(rec types.FileRecord, t types.Type, conf types.Confidence, notes []string, folderOverride string) Result {
	res := Result{
		Record:         rec,
		Type:           t,
		Confidence:     conf,
		Notes:          notes,
		FolderOverride: folderOverride,
	}

	if folderOverride != "" {
		res.Target = filepath.Clean(filepath.FromSlash(folderOverride))
		return res
	}

	folder := c.Folder(t)
	if c.isAdult(t, notes) {
		res.Adult = true
		folder = filepath.Join(c.settings.AdultRoot, folder)
	}
	res.Target = filepath.Clean(filepath.FromSlash(folder))
	return res
}

// isAdult applies the adult routing rule: adult types always route, and
// any adult keyword found in the type or a note routes too.
func (c *Classifier) isAdult(t types.Type, notes []string) bool {
	if t.IsAdult() {
		return true
	}
	haystacks := append([]string{fold(string(t))}, notes...)
	for _, h := range haystacks {
		h = fold(h)
		for _, kw := range c.adult {
			if strings.Contains(h, kw) {
				return true
			}
		}
	}
	return false
}
