package classify

import (
	"fmt"
	"strings"

	"github.com/N1nj4lxl/Modly/pkg/modly/archive"
	"github.com/N1nj4lxl/Modly/pkg/modly/dbpf"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// Verdict is one detector's opinion. An empty Type means the detector has
// no opinion; Note may still explain why.
type Verdict struct {
	Type       types.Type
	Confidence types.Confidence
	Note       string
}

// None reports whether the verdict carries no type.
func (v Verdict) None() bool {
	return v.Type == ""
}

// Detector inspects a record and returns a verdict. Detectors must not
// fail: any error becomes a typeless verdict with an explanatory note.
type Detector interface {
	Detect(rec types.FileRecord) Verdict
}

// Kind names a detector slot in the configured order.
type Kind string

// Detector kinds.
const (
	KindName      Kind = "name"
	KindBinary    Kind = "binary"
	KindExtension Kind = "extension"
)

// NameDetector matches file names against a keyword table.
type NameDetector struct {
	keywords *Keywords
}

// NewNameDetector returns a NameDetector using keywords.
func NewNameDetector(keywords *Keywords) *NameDetector {
	return &NameDetector{keywords: keywords}
}

// Detect implements Detector.
func (d *NameDetector) Detect(rec types.FileRecord) Verdict {
	kw, ok := d.keywords.Match(rec.Name)
	if !ok {
		return Verdict{Note: "name: no keyword match"}
	}
	note := fmt.Sprintf("name: keyword %q -> %s", kw.Text, kw.Type)
	if !strings.EqualFold(kw.Label, string(kw.Type)) {
		note = fmt.Sprintf("name: keyword %q (%s) -> %s", kw.Text, kw.Label, kw.Type)
	}
	return Verdict{Type: kw.Type, Confidence: types.ConfidenceMedium, Note: note}
}

// dominantShare is the share of known resources one group needs before
// the binary verdict is reported with high confidence.
const dominantShare = 0.75

// ProbeFunc summarises a package file.
type ProbeFunc func(path string) (dbpf.Summary, error)

// BinaryDetector reads the DBPF index of .package files.
type BinaryDetector struct {
	probe ProbeFunc
}

// NewBinaryDetector returns a BinaryDetector using dbpf.Probe.
func NewBinaryDetector() *BinaryDetector {
	return &BinaryDetector{probe: dbpf.Probe}
}

// Detect implements Detector.
func (d *BinaryDetector) Detect(rec types.FileRecord) Verdict {
	if rec.Ext != ".package" {
		return Verdict{}
	}

	s, err := d.probe(rec.Path)
	if err != nil {
		logger.Debug("binary probe failed", "path", rec.Path, "err", err)
		return Verdict{Note: fmt.Sprintf("binary: probe failed: %v", err)}
	}

	g, share, ok := s.Dominant()
	if !ok {
		return Verdict{Note: fmt.Sprintf("binary: %d resources, none recognised", s.Total)}
	}

	var t types.Type
	conf := types.ConfidenceMedium
	switch g {
	case dbpf.GroupCAS:
		// CAS parts don't say whether they are clothing, hair or
		// accessories; the name detector refines that.
		t = types.TypeCASClothing
	case dbpf.GroupBuildBuy:
		t = types.TypeBuildBuy
	case dbpf.GroupTuning:
		t = types.TypeTuning
	case dbpf.GroupAnimation:
		t = types.TypeAnimation
	}
	if g != dbpf.GroupCAS && share >= dominantShare {
		conf = types.ConfidenceHigh
	}

	return Verdict{
		Type:       t,
		Confidence: conf,
		Note:       fmt.Sprintf("binary: %d resources, %s %.0f%% -> %s", s.Total, g, share*100, t),
	}
}

// ExtensionDetector maps well-known extensions to types.
type ExtensionDetector struct{}

// Detect implements Detector.
func (ExtensionDetector) Detect(rec types.FileRecord) Verdict {
	var v Verdict
	switch {
	case rec.Ext == ".ts4script":
		v = Verdict{Type: types.TypeScript, Confidence: types.ConfidenceHigh}
	case rec.Ext == ".package":
		v = Verdict{Type: types.TypeUnknown, Confidence: types.ConfidenceLow}
	case archive.IsContainer(rec.Ext):
		v = Verdict{Type: types.TypeArchive, Confidence: types.ConfidenceHigh}
	default:
		return Verdict{Note: fmt.Sprintf("extension: no rule for %q", rec.Ext)}
	}
	v.Note = fmt.Sprintf("extension: %s -> %s", rec.Ext, v.Type)
	return v
}

var (
	_ Detector = (*NameDetector)(nil)
	_ Detector = (*BinaryDetector)(nil)
	_ Detector = ExtensionDetector{}
)
