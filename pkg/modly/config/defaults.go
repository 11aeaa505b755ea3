// Package config provides configuration management for modly.
package config

import "github.com/N1nj4lxl/Modly/pkg/modly/types"

// Default configuration values for modly.
const (
	// DefaultHoldingFolder receives files displaced by a collision.
	DefaultHoldingFolder = "Colliding Mods"

	// DefaultAdultRoot is the folder adult-routed targets are nested under.
	DefaultAdultRoot = "Adult"

	// DefaultJournalName is the journal file kept at the mods root.
	DefaultJournalName = ".modly_journal.jsonl"

	// DefaultIgnoreFile is the gitignore-style file read from the mods root.
	DefaultIgnoreFile = ".modlyignore"

	// DeleteModePermanent removes older collision files outright.
	DeleteModePermanent = "permanent"

	// DeleteModeTrash moves older collision files to the system trash.
	DeleteModeTrash = "trash"
)

// Detector names accepted in the detectors list.
const (
	DetectorName      = "name"
	DetectorBinary    = "binary"
	DetectorExtension = "extension"
)

// DefaultDetectors is the default detector order.
var DefaultDetectors = []string{DetectorName, DetectorBinary, DetectorExtension}

// DefaultIgnoreExtensions are skipped during scans.
var DefaultIgnoreExtensions = []string{".txt", ".md", ".psd", ".png", ".jpg", ".jpeg"}

// DefaultIgnoreNameContains are filename substrings skipped during scans.
var DefaultIgnoreNameContains = []string{"readme", "license", "changelog"}

// DefaultAdultKeywords route a file under the adult root when they appear in
// its type or classification notes.
var DefaultAdultKeywords = []string{
	"adult", "nsfw", "wickedwhims", "wicked whims", "basemental", "turbodriver",
}

// DefaultFolders maps each type to its folder under the mods root.
var DefaultFolders = map[types.Type]string{
	types.TypeScript:        "Script Mods",
	types.TypeTuning:        "Gameplay Mods",
	types.TypeUtilities:     "Utilities",
	types.TypeOverrides:     "Overrides",
	types.TypeCASClothing:   "CAS Clothing",
	types.TypeCASHair:       "CAS Hair",
	types.TypeCASAccessory:  "CAS Accessories",
	types.TypeBuildBuy:      "Build Buy",
	types.TypeAnimation:     "Animations",
	types.TypePose:          "Poses",
	types.TypePreset:        "Presets",
	types.TypeSlider:        "Sliders",
	types.TypeWorld:         "World",
	types.TypeArchive:       "Archives",
	types.TypeOther:         "Other",
	types.TypeUnknown:       "Unsorted",
	types.TypeAdultGameplay: "Gameplay",
	types.TypeAdultCAS:      "CAS",
}
