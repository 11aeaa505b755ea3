package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips combining marks, so "Maternità" and
// "maternita" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

var separatorReplacer = strings.NewReplacer("_", " ", "-", " ", ".", " ", "+", " ")

// spaceSeparators turns name separators into single spaces.
func spaceSeparators(s string) string {
	return strings.Join(strings.Fields(separatorReplacer.Replace(s)), " ")
}
