package main

import (
	"reflect"
	"testing"

	"github.com/N1nj4lxl/Modly/pkg/modly/filter"
	"github.com/N1nj4lxl/Modly/pkg/modly/output"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

func TestFilterFlagsBuild(t *testing.T) {
	tests := []struct {
		name    string
		flags   filterFlags
		wantErr bool
		check   func(t *testing.T, f *filter.Filter)
	}{
		{
			name:  "defaults sort by path ascending",
			flags: filterFlags{sortBy: "path"},
			check: func(t *testing.T, f *filter.Filter) {
				if f.SortBy != filter.SortPath || f.SortDescending {
					t.Errorf("SortBy = %v, descending = %v", f.SortBy, f.SortDescending)
				}
			},
		},
		{
			name:  "size sorts largest first",
			flags: filterFlags{sortBy: "size"},
			check: func(t *testing.T, f *filter.Filter) {
				if !f.SortDescending {
					t.Error("expected descending size sort")
				}
			},
		},
		{
			name:  "reverse flips size",
			flags: filterFlags{sortBy: "size", reverse: true},
			check: func(t *testing.T, f *filter.Filter) {
				if f.SortDescending {
					t.Error("expected ascending size sort")
				}
			},
		},
		{
			name:  "types and confidence",
			flags: filterFlags{sortBy: "path", types: "cas hair, Script Mod", minConfidence: "medium", limit: 5},
			check: func(t *testing.T, f *filter.Filter) {
				want := []types.Type{types.TypeCASHair, types.TypeScript}
				if !reflect.DeepEqual(f.Types, want) {
					t.Errorf("Types = %v, want %v", f.Types, want)
				}
				if f.MinConfidence != types.ConfidenceMedium {
					t.Errorf("MinConfidence = %v", f.MinConfidence)
				}
				if f.Limit != 5 {
					t.Errorf("Limit = %d, want 5", f.Limit)
				}
			},
		},
		{name: "unknown type", flags: filterFlags{sortBy: "path", types: "Furniture"}, wantErr: true},
		{name: "bad confidence", flags: filterFlags{sortBy: "path", minConfidence: "sure"}, wantErr: true},
		{name: "bad duration", flags: filterFlags{sortBy: "path", newerThan: "soon"}, wantErr: true},
		{name: "bad sort", flags: filterFlags{sortBy: "colour"}, wantErr: true},
		{name: "bad glob", flags: filterFlags{sortBy: "path", include: []string{"[unclosed"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.flags.build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}

func TestOverrideFlags(t *testing.T) {
	o := overrideFlags{
		setType: []string{"*hair*=CAS Hair"},
		protect: []string{"*mccc*"},
		skip:    []string{"wip/*"},
	}
	got := o.overrides()
	if got.Empty() {
		t.Fatal("expected overrides")
	}
	if !reflect.DeepEqual(got.Protect, o.protect) || !reflect.DeepEqual(got.Skip, o.skip) {
		t.Errorf("overrides() = %+v", got)
	}
	if !(&overrideFlags{}).overrides().Empty() {
		t.Error("expected empty overrides")
	}
}

func TestParseConfidence(t *testing.T) {
	for in, want := range map[string]types.Confidence{
		"low":    types.ConfidenceLow,
		"Medium": types.ConfidenceMedium,
		" high ": types.ConfidenceHigh,
	} {
		got, err := parseConfidence(in)
		if err != nil || got != want {
			t.Errorf("parseConfidence(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseConfidence("none"); err == nil {
		t.Error("parseConfidence(none) error = nil")
	}
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b ,,c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := parseCommaSeparated(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommaSeparated(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGetFormatter(t *testing.T) {
	s := settings()
	defer s.Set("output", "pretty")

	s.Set("output", "json")
	f, err := getFormatter()
	if err != nil {
		t.Fatalf("getFormatter() error = %v", err)
	}
	if _, ok := f.(*output.JSONFormatter); !ok {
		t.Errorf("getFormatter() = %T, want *output.JSONFormatter", f)
	}

	s.Set("output", "template")
	s.Set("template", "{{range .Rows}}{{.Name}}{{end}}")
	defer s.Set("template", "")
	if _, err := getFormatter(); err != nil {
		t.Errorf("getFormatter(template) error = %v", err)
	}

	s.Set("output", "xml")
	if _, err := getFormatter(); err == nil {
		t.Error("getFormatter(xml) error = nil")
	}
}
