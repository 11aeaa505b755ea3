package types

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "kilobytes", input: "100K", want: 100 * 1024},
		{name: "megabytes with B", input: "10MB", want: 10 * 1024 * 1024},
		{name: "gigabytes with iB", input: "2GiB", want: 2 * 1024 * 1024 * 1024},
		{name: "decimal truncated", input: "1.5K", want: 1536},
		{name: "whitespace", input: "  5M ", want: 5 * 1024 * 1024},
		{name: "empty", input: "", wantErr: true},
		{name: "bad suffix", input: "10X", wantErr: true},
		{name: "negative", input: "-1M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSize) {
				t.Errorf("ParseSize(%q) error = %v, want ErrInvalidSize", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1024, "1.0 KiB"},
		{1536 * 1024, "1.5 MiB"},
		{-5, "0 B"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.input); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewFileRecord(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "mods")
	path := filepath.Join(root, "CAS", "Cool_Hair.PACKAGE")
	mod := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	rec := NewFileRecord(root, path, 42, mod)

	if rec.Name != "cool_hair.package" {
		t.Errorf("Name = %q, want lowercase base name", rec.Name)
	}
	if rec.Ext != ".package" {
		t.Errorf("Ext = %q, want .package", rec.Ext)
	}
	if rec.RelPath != filepath.Join("CAS", "Cool_Hair.PACKAGE") {
		t.Errorf("RelPath = %q", rec.RelPath)
	}
	if rec.BaseName() != "Cool_Hair.PACKAGE" {
		t.Errorf("BaseName() = %q, want original casing", rec.BaseName())
	}
	if rec.Stem() != "Cool_Hair" {
		t.Errorf("Stem() = %q, want Cool_Hair", rec.Stem())
	}
	if rec.HasCreated {
		t.Error("HasCreated = true, want false for a fresh record")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{"Script Mod", TypeScript, false},
		{"cas hair", TypeCASHair, false},
		{"  build/buy ", TypeBuildBuy, false},
		{"adult - cas", TypeAdultCAS, false},
		{"furniture", "", true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConfidenceOrdering(t *testing.T) {
	if !(ConfidenceNone < ConfidenceLow && ConfidenceLow < ConfidenceMedium && ConfidenceMedium < ConfidenceHigh) {
		t.Fatal("confidence levels are not strictly ordered")
	}
	if ConfidenceMedium.String() != "medium" {
		t.Errorf("String() = %q, want medium", ConfidenceMedium.String())
	}
}

func TestAllTypesIsCopy(t *testing.T) {
	got := AllTypes()
	got[0] = "mutated"
	if AllTypes()[0] != TypeScript {
		t.Error("AllTypes() exposes internal slice")
	}
}
