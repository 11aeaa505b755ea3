package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SortField specifies the field to sort rows by.
type SortField int

const (
	// SortPath sorts rows by path alphabetically.
	SortPath SortField = iota
	// SortSize sorts rows by size in bytes.
	SortSize
	// SortAge sorts rows by modification time.
	SortAge
	// SortType sorts rows by type name.
	SortType
	// SortConfidence sorts rows by confidence.
	SortConfidence
)

var sortFieldNames = map[SortField]string{
	SortPath:       "path",
	SortSize:       "size",
	SortAge:        "age",
	SortType:       "type",
	SortConfidence: "confidence",
}

// String returns the string representation of the sort field.
func (s SortField) String() string {
	if name, ok := sortFieldNames[s]; ok {
		return name
	}
	return "path"
}

// Errors returned by the parsers.
var (
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidDuration  = errors.New("invalid duration format")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrNegativeValue    = errors.New("value cannot be negative")
)

// ParseSortField parses a string into a SortField, case-insensitively.
func ParseSortField(s string) (SortField, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for field, name := range sortFieldNames {
		if name == want {
			return field, nil
		}
	}
	return SortPath, fmt.Errorf("%w: %q (valid: path, size, age, type, confidence)", ErrInvalidSortField, s)
}

// Duration constants.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day  // Approximate
	Year  = 365 * Day // Approximate
)

// durationPattern matches duration strings like "30d", "2w", "1mo", "1y".
var durationPattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*(d|w|mo|y)\s*$`)

// ParseDuration parses a human-readable duration string: days ("30d"),
// weeks ("2w"), months ("1mo"), years ("1y"), or a standard Go duration
// ("36h").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeValue
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return d, nil
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	var multiplier time.Duration
	switch strings.ToLower(matches[2]) {
	case "d":
		multiplier = Day
	case "w":
		multiplier = Week
	case "mo":
		multiplier = Month
	default:
		multiplier = Year
	}
	return time.Duration(value * float64(multiplier)), nil
}

// ParseAssignment splits "pattern=value". Exactly one '=' is allowed.
func ParseAssignment(s string) (pattern, value string, err error) {
	if strings.Count(s, "=") != 1 {
		return "", "", fmt.Errorf("%w: %q: want pattern=value", ErrInvalidPattern, s)
	}
	pattern, value, _ = strings.Cut(s, "=")
	pattern = strings.TrimSpace(pattern)
	value = strings.TrimSpace(value)
	if pattern == "" || value == "" {
		return "", "", fmt.Errorf("%w: %q: want pattern=value", ErrInvalidPattern, s)
	}
	return pattern, value, nil
}
