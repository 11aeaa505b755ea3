package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Earliest is the oldest date accepted from a file name.
var Earliest = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

type pattern struct {
	name string
	re   *regexp.Regexp
	// ymd maps submatches to year, month and day.
	ymd func(m []string) (int, time.Month, int, bool)
}

// Patterns are tried in order; within a pattern every match is tried left
// to right. A candidate must not touch another digit on either side.
var patterns = []pattern{
	{
		name: "iso",
		re:   regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		ymd: func(m []string) (int, time.Month, int, bool) {
			return atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), true
		},
	},
	{
		name: "day-month-year",
		re:   regexp.MustCompile(`(?i)(\d{1,2})[ _-]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[ _-]?(\d{4})`),
		ymd: func(m []string) (int, time.Month, int, bool) {
			mon, ok := months[strings.ToLower(m[2])]
			return atoi(m[3]), mon, atoi(m[1]), ok
		},
	},
	{
		name: "compact",
		re:   regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
		ymd: func(m []string) (int, time.Month, int, bool) {
			return atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), true
		},
	},
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// bounded reports whether s[start:end] is not adjacent to a digit.
func bounded(s string, start, end int) bool {
	return (start == 0 || !isDigit(s[start-1])) && (end == len(s) || !isDigit(s[end]))
}

// FromName extracts the first plausible date embedded in name. Dates that
// do not exist on the calendar or fall outside [Earliest, now] are skipped
// and the search continues. The matched text is returned alongside.
func FromName(name string, now time.Time) (time.Time, string, bool) {
	for _, p := range patterns {
		if t, loc := p.first(name, now); loc != nil {
			return t, name[loc[0]:loc[1]], true
		}
	}
	return time.Time{}, "", false
}

// first returns the leftmost bounded match of p in s that is a valid date,
// with its location.
func (p pattern) first(s string, now time.Time) (time.Time, []int) {
	for _, idx := range p.re.FindAllStringSubmatchIndex(s, -1) {
		if !bounded(s, idx[0], idx[1]) {
			continue
		}
		m := make([]string, len(idx)/2)
		for i := range m {
			if idx[2*i] >= 0 {
				m[i] = s[idx[2*i]:idx[2*i+1]]
			}
		}
		y, mon, d, ok := p.ymd(m)
		if !ok {
			continue
		}
		if t, ok := validDate(y, mon, d, now); ok {
			return t, idx[:2]
		}
	}
	return time.Time{}, nil
}

// validDate builds the date and rejects normalised overflow such as
// February 30 as well as anything outside [Earliest, now].
func validDate(y int, mon time.Month, d int, now time.Time) (time.Time, bool) {
	t := time.Date(y, mon, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != mon || t.Day() != d {
		return time.Time{}, false
	}
	if t.Before(Earliest) || t.After(now) {
		return time.Time{}, false
	}
	return t, true
}

const separators = " _-."

// StripDates removes every date embedded in stem together with the
// separator that joined it to the rest of the name. It is used to match
// "ModA_2023-01-01" with "ModA". Only tokens FromName would accept count
// as dates, so numeric ids such as "Hair_12345678" are kept.
func StripDates(stem string, now time.Time) string {
	out := stem
	for _, p := range patterns {
		for {
			_, loc := p.first(out, now)
			if loc == nil {
				break
			}
			start, end := loc[0], loc[1]
			if start > 0 {
				for start > 0 && strings.IndexByte(separators, out[start-1]) >= 0 {
					start--
				}
			} else {
				for end < len(out) && strings.IndexByte(separators, out[end]) >= 0 {
					end++
				}
			}
			out = out[:start] + out[end:]
		}
	}
	if strings.Trim(out, separators) == "" {
		return stem
	}
	return out
}
