package ignore

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNormalizeExtensions(t *testing.T) {
	t.Parallel()

	got := NormalizeExtensions(".txt md, PSD", "png,.txt")
	want := []string{".txt", ".md", ".psd", ".png"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeExtensions() = %v, want %v", got, want)
	}
}

func TestNormalizeWords(t *testing.T) {
	t.Parallel()

	got := NormalizeWords("ReadMe license", " changelog,readme ")
	want := []string{"readme", "license", "changelog"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeWords() = %v, want %v", got, want)
	}
}

func TestPatterns(t *testing.T) {
	t.Parallel()

	p, err := Compile("*.ts4script", "Old/**", "  ")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"mccc.ts4script", true},
		{"Scripts/Deep/MCCC.TS4SCRIPT", true},
		{"old/thing.package", true},
		{"Old/nested/thing.package", true},
		{"cas/old.package", false},
		{"hair.package", false},
	}
	for _, tt := range tests {
		if got := p.Match(tt.rel); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestPatternsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := Compile("[unclosed"); err == nil {
		t.Error("Compile() error = nil, want error")
	}
}

func TestPatternsNil(t *testing.T) {
	t.Parallel()

	var p *Patterns
	if p.Match("anything") || p.Len() != 0 {
		t.Error("nil Patterns should match nothing")
	}
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".modlyignore"), []byte("wip/\n*.bak\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New(root, Settings{
		Extensions:   []string{"txt md"},
		NameContains: []string{"readme"},
		Patterns:     []string{"Tray/*"},
		File:         ".modlyignore",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		rel    string
		want   bool
		reason Reason
	}{
		{"notes.TXT", true, ReasonExtension},
		{"CAS/README_first.package", true, ReasonName},
		{"Tray/house.package", true, ReasonPattern},
		{"CAS/old.bak", true, ReasonIgnorer},
		{"CAS/hair.package", false, ReasonNone},
	}
	for _, tt := range tests {
		got, reason := m.MatchFile(filepath.Join(root, tt.rel))
		if got != tt.want || reason != tt.reason {
			t.Errorf("MatchFile(%q) = (%v, %q), want (%v, %q)", tt.rel, got, reason, tt.want, tt.reason)
		}
	}

	if !m.MatchDir(filepath.Join(root, "wip")) {
		t.Error("MatchDir(wip) = false, want true")
	}
	if m.MatchDir(root) {
		t.Error("MatchDir(root) = true, want false")
	}
	if m.MatchDir(filepath.Join(root, "CAS")) {
		t.Error("MatchDir(CAS) = true, want false")
	}
}

func TestMatcherMissingIgnoreFile(t *testing.T) {
	t.Parallel()

	if _, err := New(t.TempDir(), Settings{File: ".modlyignore"}); err != nil {
		t.Fatalf("New() error = %v, want nil for missing ignore file", err)
	}
}
