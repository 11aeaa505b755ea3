package collision

import (
	"strings"
	"testing"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/dates"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

type fixedDates map[string]dates.Info

func (f fixedDates) Resolve(rec types.FileRecord) dates.Info {
	return f[rec.Path]
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func subject(name string, protected bool) Subject {
	return Subject{
		Record:    types.NewFileRecord("/mods", "/mods/"+name, 10, time.Time{}),
		Protected: protected,
	}
}

func known(name, date string) dates.Info {
	return dates.Info{Path: "/mods/" + name, Date: day(date), Source: dates.SourceModified}
}

func TestResolve(t *testing.T) {
	src := fixedDates{
		"/mods/old.package":     known("old.package", "2023-01-01"),
		"/mods/new.package":     known("new.package", "2024-06-01"),
		"/mods/same.package":    known("same.package", "2023-01-01"),
		"/mods/undated.package": {Path: "/mods/undated.package"},
	}

	tests := []struct {
		name        string
		incoming    Subject
		existing    Subject
		allowDelete bool
		wantDisp    Disposition
		wantLoser   Side
		wantConfirm bool
	}{
		{"incoming older", subject("old.package", false), subject("new.package", false), true, DeleteOlder, SideIncoming, false},
		{"existing older", subject("new.package", false), subject("old.package", false), true, DeleteOlder, SideExisting, false},
		{"older protected", subject("new.package", false), subject("old.package", true), true, ProtectAndRelocate, SideExisting, false},
		{"newer protected does not matter", subject("new.package", true), subject("old.package", false), true, DeleteOlder, SideExisting, false},
		{"delete disabled", subject("old.package", false), subject("new.package", false), false, ProtectAndRelocate, SideIncoming, false},
		{"equal dates", subject("same.package", false), subject("old.package", false), true, ProtectAndRelocate, SideIncoming, true},
		{"incoming undated", subject("undated.package", false), subject("old.package", false), true, ProtectAndRelocate, SideIncoming, true},
		{"existing undated", subject("old.package", false), subject("undated.package", false), true, ProtectAndRelocate, SideIncoming, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(src, WithAllowDelete(tt.allowDelete))
			d := r.Resolve(tt.incoming, tt.existing)

			if d.Disposition != tt.wantDisp {
				t.Errorf("Disposition = %q, want %q", d.Disposition, tt.wantDisp)
			}
			if d.Loser != tt.wantLoser {
				t.Errorf("Loser = %q, want %q", d.Loser, tt.wantLoser)
			}
			if d.RequiresConfirmation != tt.wantConfirm {
				t.Errorf("RequiresConfirmation = %v, want %v", d.RequiresConfirmation, tt.wantConfirm)
			}
			if d.RequiresConfirmation && d.Deletes() {
				t.Error("ambiguous decision deletes a file")
			}
		})
	}
}

func TestResolveDatedNames(t *testing.T) {
	now := day("2025-01-01")
	r := New(dates.NewResolver(nil, dates.WithClock(func() time.Time { return now })))

	older := Subject{Record: types.NewFileRecord("/mods", "/mods/ModA_2023-01-01.package", 10, now)}
	newer := Subject{Record: types.NewFileRecord("/mods", "/mods/ModA_2024-06-01.package", 10, now)}

	d := r.Resolve(newer, older)
	if d.Loser != SideExisting || d.Disposition != DeleteOlder {
		t.Fatalf("Resolve() = %s, want existing deleted", d)
	}
	if got := d.LoserSubject().Record.BaseName(); got != "ModA_2023-01-01.package" {
		t.Errorf("loser = %q", got)
	}
	if d.ExistingDate.Source != dates.SourceFilename {
		t.Errorf("ExistingDate.Source = %q, want %q", d.ExistingDate.Source, dates.SourceFilename)
	}

	older.Protected = true
	d = r.Resolve(newer, older)
	if d.Disposition != ProtectAndRelocate || d.Loser != SideExisting {
		t.Fatalf("Resolve() = %s, want existing relocated", d)
	}
	if got := d.WinnerSubject().Record.BaseName(); got != "ModA_2024-06-01.package" {
		t.Errorf("winner = %q", got)
	}
}

func TestDecisionString(t *testing.T) {
	src := fixedDates{
		"/mods/a.package": known("a.package", "2023-01-01"),
		"/mods/b.package": known("b.package", "2023-01-01"),
	}
	d := New(src).Resolve(subject("a.package", false), subject("b.package", false))
	s := d.String()
	for _, want := range []string{"relocate a.package", "keep b.package", "dates equal", "needs confirmation"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
