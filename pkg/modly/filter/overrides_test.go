package filter

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

func newClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.New(classify.Settings{
		Detectors: []classify.Kind{classify.KindName, classify.KindExtension},
		Folders: map[types.Type]string{
			types.TypeCASHair:  "CAS Hair",
			types.TypeScript:   "Script Mods",
			types.TypeBuildBuy: "Build Buy",
		},
		AdultRoot: "Adult",
	})
	if err != nil {
		t.Fatalf("classify.New() error = %v", err)
	}
	return c
}

func TestOverridesEmpty(t *testing.T) {
	if !(Overrides{}).Empty() {
		t.Error("zero Overrides should be empty")
	}
	if (Overrides{Skip: []string{"x"}}).Empty() {
		t.Error("Overrides with a skip rule should not be empty")
	}
}

func TestOverridesCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		o    Overrides
		want error
	}{
		{"missing value", Overrides{SetType: []string{"*.package"}}, ErrInvalidPattern},
		{"two equals", Overrides{SetFolder: []string{"a=b=c"}}, ErrInvalidPattern},
		{"unknown type", Overrides{SetType: []string{"*.package=Furniture"}}, types.ErrUnknownType},
		{"bad glob", Overrides{Protect: []string{"[a-"}}, ErrInvalidPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.o.Compile()
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	c := newClassifier(t)
	table := classify.NewTable([]classify.Result{
		c.Classify(types.NewFileRecord("/mods", "/mods/hair_bob.package", 1, now)),
		c.Classify(types.NewFileRecord("/mods", "/mods/mccc.ts4script", 1, now)),
		c.Classify(types.NewFileRecord("/mods", "/mods/Downloads/mystery.package", 1, now)),
	})

	a, err := Overrides{
		SetType:   []string{"downloads/*=build/buy"},
		SetFolder: []string{"hair_*=CAS/Favourites"},
		Protect:   []string{"*.ts4script"},
		Skip:      []string{"MYSTERY*"},
	}.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	got := a.Apply(c, table)
	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}

	hair := got.At(0)
	if hair.Target != filepath.Join("CAS", "Favourites") || hair.FolderOverride == "" {
		t.Errorf("hair target = %q (override %q), want CAS/Favourites", hair.Target, hair.FolderOverride)
	}
	if hair.Type != types.TypeCASHair {
		t.Errorf("hair type = %s, want unchanged", hair.Type)
	}

	script := got.At(1)
	if !script.Protected || script.Excluded {
		t.Errorf("script Protected=%v Excluded=%v, want true/false", script.Protected, script.Excluded)
	}

	mystery := got.At(2)
	if mystery.Type != types.TypeBuildBuy || !mystery.TypeOverridden {
		t.Errorf("mystery type = %s overridden=%v, want Build/Buy overridden", mystery.Type, mystery.TypeOverridden)
	}
	if mystery.Confidence != types.ConfidenceHigh {
		t.Errorf("mystery confidence = %s, want high", mystery.Confidence)
	}
	if mystery.Target != "Build Buy" {
		t.Errorf("mystery target = %q, want Build Buy", mystery.Target)
	}
	if !mystery.Excluded {
		t.Error("mystery should be excluded")
	}

	if table.At(2).Excluded {
		t.Error("Apply() modified its input table")
	}
}

func TestOverridesLaterRuleWins(t *testing.T) {
	c := newClassifier(t)
	table := classify.NewTable([]classify.Result{
		c.Classify(types.NewFileRecord("/mods", "/mods/thing.package", 1, now)),
	})

	a, err := Overrides{SetType: []string{"*=CAS Hair", "thing.*=Script Mod"}}.Compile()
	if err != nil {
		t.Fatal(err)
	}
	got := a.Apply(c, table).At(0)
	if got.Type != types.TypeScript {
		t.Errorf("Type = %s, want Script Mod", got.Type)
	}
	if got.Target != "Script Mods" {
		t.Errorf("Target = %q, want Script Mods", got.Target)
	}
}

func TestParseAssignment(t *testing.T) {
	p, v, err := ParseAssignment(" *.package = CAS Hair ")
	if err != nil || p != "*.package" || v != "CAS Hair" {
		t.Errorf("ParseAssignment() = %q, %q, %v", p, v, err)
	}
	for _, bad := range []string{"", "=x", "x=", "novalue", "a=b=c"} {
		if _, _, err := ParseAssignment(bad); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("ParseAssignment(%q) error = %v, want ErrInvalidPattern", bad, err)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr error
	}{
		{"30d", 30 * Day, nil},
		{"2w", 2 * Week, nil},
		{"1mo", Month, nil},
		{"1Y", Year, nil},
		{"1.5d", 36 * time.Hour, nil},
		{"90m", 90 * time.Minute, nil},
		{"", 0, ErrInvalidDuration},
		{"soon", 0, ErrInvalidDuration},
		{"-1d", 0, ErrNegativeValue},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseDuration(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestParseSortField(t *testing.T) {
	for field, name := range sortFieldNames {
		got, err := ParseSortField(" " + name + " ")
		if err != nil || got != field {
			t.Errorf("ParseSortField(%q) = %v, %v", name, got, err)
		}
		if field.String() != name {
			t.Errorf("String() = %q, want %q", field.String(), name)
		}
	}
	if _, err := ParseSortField("colour"); !errors.Is(err, ErrInvalidSortField) {
		t.Errorf("ParseSortField(colour) error = %v", err)
	}
}
