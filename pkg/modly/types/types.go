// Package types provides the core data types shared by the modly packages:
// the immutable file snapshot taken at scan time, the content categories a
// mod can be sorted into, and the confidence attached to a classification.
package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// FileRecord is a snapshot of one file taken at scan time.
// It is never refreshed; if the file changes before it is moved the
// failure surfaces when the operation runs.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// RelPath is Path relative to the scanned root.
	RelPath string `json:"rel_path" yaml:"rel_path"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// ModTime is the filesystem modification time.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`

	// Created is the filesystem creation time. It is only meaningful
	// when HasCreated is true; not every platform exposes it.
	Created    time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	HasCreated bool      `json:"has_created" yaml:"has_created"`

	// Name is the lowercase base name.
	Name string `json:"name" yaml:"name"`

	// Ext is the lowercase extension including the dot.
	Ext string `json:"ext" yaml:"ext"`
}

// NewFileRecord builds a record for path under root.
func NewFileRecord(root, path string, size int64, modTime time.Time) FileRecord {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	base := filepath.Base(path)
	return FileRecord{
		Path:    path,
		RelPath: rel,
		Size:    size,
		ModTime: modTime,
		Name:    strings.ToLower(base),
		Ext:     strings.ToLower(filepath.Ext(base)),
	}
}

// BaseName returns the file name with its original casing.
func (r FileRecord) BaseName() string {
	return filepath.Base(r.Path)
}

// Stem returns the original-case base name without its extension.
func (r FileRecord) Stem() string {
	base := r.BaseName()
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dir returns the directory that holds the file.
func (r FileRecord) Dir() string {
	return filepath.Dir(r.Path)
}

// HumanSize returns the file size formatted with IEC units.
func (r FileRecord) HumanSize() string {
	return FormatSize(r.Size)
}

// Type is the content category assigned to a mod file.
type Type string

// Known categories, in display order.
const (
	TypeScript        Type = "Script Mod"
	TypeTuning        Type = "Gameplay Tuning"
	TypeUtilities     Type = "Utilities"
	TypeOverrides     Type = "Overrides"
	TypeCASClothing   Type = "CAS Clothing"
	TypeCASHair       Type = "CAS Hair"
	TypeCASAccessory  Type = "CAS Accessories"
	TypeBuildBuy      Type = "Build/Buy"
	TypeAnimation     Type = "Animations"
	TypePose          Type = "Pose"
	TypePreset        Type = "Preset"
	TypeSlider        Type = "Slider"
	TypeWorld         Type = "World"
	TypeArchive       Type = "Archive"
	TypeOther         Type = "Other"
	TypeUnknown       Type = "Unknown"
	TypeAdultGameplay Type = "Adult - Gameplay"
	TypeAdultCAS      Type = "Adult - CAS"
)

var allTypes = []Type{
	TypeScript, TypeTuning, TypeUtilities, TypeOverrides,
	TypeCASClothing, TypeCASHair, TypeCASAccessory, TypeBuildBuy,
	TypeAnimation, TypePose, TypePreset, TypeSlider, TypeWorld,
	TypeArchive, TypeOther, TypeUnknown, TypeAdultGameplay, TypeAdultCAS,
}

// AllTypes returns every known category in display order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// ErrUnknownType is returned when a category name is not recognised.
var ErrUnknownType = errors.New("unknown type")

// ParseType resolves a category name case-insensitively.
func ParseType(s string) (Type, error) {
	want := strings.TrimSpace(s)
	for _, t := range allTypes {
		if strings.EqualFold(string(t), want) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// IsAdult reports whether the category is one of the adult categories.
func (t Type) IsAdult() bool {
	return t == TypeAdultGameplay || t == TypeAdultCAS
}

// Confidence ranks how sure a detector is of its verdict.
type Confidence int

// Confidence levels. ConfidenceNone means the detector produced no type.
const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the lowercase level name.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ScanResult holds everything a scan produced.
type ScanResult struct {
	// Root is the absolute scanned directory.
	Root string `json:"root"`

	// Records are the kept files, sorted by path.
	Records []FileRecord `json:"records"`

	// DirsScanned is the number of directories visited.
	DirsScanned int64 `json:"dirs_scanned"`

	// FilesScanned is the number of regular files seen, ignored ones included.
	FilesScanned int64 `json:"files_scanned"`

	// Ignored is the number of files dropped by the ignore lists.
	Ignored int64 `json:"ignored"`

	// Elapsed is the wall time of the scan.
	Elapsed time.Duration `json:"elapsed"`

	// Errors are the paths that could not be read.
	Errors []ScanError `json:"errors,omitempty"`
}

// TotalSize returns the summed size of all records.
func (r *ScanResult) TotalSize() int64 {
	var total int64
	for _, rec := range r.Records {
		total += rec.Size
	}
	return total
}

// ScanError records an unreadable path. Scans skip it and continue.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanProgress is a snapshot of scan progress.
type ScanProgress struct {
	DirsScanned  int64  `json:"dirs_scanned"`
	FilesScanned int64  `json:"files_scanned"`
	Kept         int64  `json:"kept"`
	CurrentPath  string `json:"current_path"`
	Done         bool   `json:"done,omitempty"`
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB".
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMG]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ParseSize parses a human-readable size such as "10MB" into bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable IEC string.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
