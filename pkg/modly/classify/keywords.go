package classify

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

//go:embed keywords.toml
var defaultKeywordsTOML []byte

// keywordFile is the TOML layout of a keyword table.
type keywordFile struct {
	Canon    map[string]string   `toml:"canon"`
	Keywords map[string][]string `toml:"keywords"`
}

// Keyword is one entry of a keyword table.
type Keyword struct {
	// Text is the folded, lowercase keyword.
	Text string

	// Label is the category label the keyword was listed under.
	Label string

	// Type is the label resolved through the canon map.
	Type types.Type
}

// Keywords is an immutable keyword table ordered for matching: longest
// keyword first, equal lengths alphabetically.
type Keywords struct {
	entries []Keyword
}

// ParseKeywords decodes a TOML keyword table.
func ParseKeywords(data []byte) (*Keywords, error) {
	var f keywordFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("decoding keyword table: %w", err)
	}

	canon := make(map[string]types.Type, len(f.Canon))
	for label, name := range f.Canon {
		t, err := types.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("canon %q: %w", label, err)
		}
		canon[strings.ToLower(strings.TrimSpace(label))] = t
	}

	// A keyword listed under several labels keeps the alphabetically first.
	byText := make(map[string]Keyword)
	for rawLabel, words := range f.Keywords {
		label := strings.ToLower(strings.TrimSpace(rawLabel))
		t, ok := canon[label]
		if !ok {
			parsed, err := types.ParseType(label)
			if err != nil {
				return nil, fmt.Errorf("keyword label %q: %w", rawLabel, err)
			}
			t = parsed
		}
		for _, w := range words {
			text := fold(strings.TrimSpace(w))
			if text == "" {
				continue
			}
			if prev, dup := byText[text]; dup && prev.Label <= label {
				continue
			}
			byText[text] = Keyword{Text: text, Label: label, Type: t}
		}
	}

	entries := make([]Keyword, 0, len(byText))
	for _, kw := range byText {
		entries = append(entries, kw)
	}
	slices.SortFunc(entries, func(a, b Keyword) int {
		if la, lb := len(a.Text), len(b.Text); la != lb {
			return lb - la
		}
		return strings.Compare(a.Text, b.Text)
	})

	return &Keywords{entries: entries}, nil
}

// LoadKeywordsFile reads a TOML keyword table from path.
func LoadKeywordsFile(path string) (*Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword table: %w", err)
	}
	return ParseKeywords(data)
}

var defaultKeywords = sync.OnceValues(func() (*Keywords, error) {
	return ParseKeywords(defaultKeywordsTOML)
})

// DefaultKeywords returns the built-in keyword table.
func DefaultKeywords() *Keywords {
	k, err := defaultKeywords()
	if err != nil {
		panic("classify: built-in keyword table: " + err.Error())
	}
	return k
}

// Len returns the number of keywords.
func (k *Keywords) Len() int {
	return len(k.entries)
}

// Match returns the winning keyword for a file name. The name is folded
// and also tried with separators turned into spaces, so "ui_cheats"
// matches "ui cheats".
func (k *Keywords) Match(name string) (Keyword, bool) {
	folded := fold(name)
	spaced := spaceSeparators(folded)
	for _, kw := range k.entries {
		if strings.Contains(folded, kw.Text) || strings.Contains(spaced, kw.Text) {
			return kw, true
		}
	}
	return Keyword{}, false
}
