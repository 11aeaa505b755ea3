package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/ignore"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// writeTree creates files (relative path -> content) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func relPaths(recs []types.FileRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = filepath.ToSlash(r.RelPath)
	}
	return out
}

func TestScanRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.package":              "bb",
		"a.ts4script":            "a",
		"CAS/Hair/long.package":  "hair",
		"Colliding Mods/x.zip":   "held",
		".modly_journal.jsonl":   "{}",
		"CAS/.modly_journal.txt": "not ours",
	})

	opts := DefaultOptions(root)
	opts.SkipDirs = []string{"Colliding Mods"}
	opts.SkipFiles = []string{".modly_journal.jsonl"}

	result, err := New(opts).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := relPaths(result.Records)
	want := []string{"CAS/.modly_journal.txt", "CAS/Hair/long.package", "a.ts4script", "b.package"}
	if len(got) != len(want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("records[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	hair := result.Records[1]
	if hair.Ext != ".package" || hair.Name != "long.package" || hair.Size != 4 {
		t.Errorf("record = %+v", hair)
	}
	if hair.ModTime.IsZero() {
		t.Error("ModTime is zero")
	}
	if result.Root != root {
		t.Errorf("Root = %q, want %q", result.Root, root)
	}
}

func TestScanNoRecurse(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"top.package":        "x",
		"Sub/nested.package": "y",
	})

	opts := DefaultOptions(root)
	opts.Recurse = false

	result, err := New(opts).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := relPaths(result.Records); len(got) != 1 || got[0] != "top.package" {
		t.Errorf("records = %v, want [top.package]", got)
	}
}

func TestScanIgnore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"mod.package":        "x",
		"readme.package":     "x",
		"preview.png":        "x",
		"WIP/draft.package":  "x",
		"CAS/outfit.package": "x",
	})

	m, err := ignore.New(root, ignore.Settings{
		Extensions:   []string{"png"},
		NameContains: []string{"readme"},
		Patterns:     []string{"wip"},
	})
	if err != nil {
		t.Fatalf("ignore.New() error = %v", err)
	}

	opts := DefaultOptions(root)
	opts.Ignore = m

	result, err := New(opts).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := relPaths(result.Records)
	if len(got) != 2 || got[0] != "CAS/outfit.package" || got[1] != "mod.package" {
		t.Errorf("records = %v", got)
	}
	if result.Ignored != 2 {
		t.Errorf("Ignored = %d, want 2", result.Ignored)
	}
}

func TestScanInvalidRoot(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file.package")
	writeTree(t, filepath.Dir(file), map[string]string{"file.package": "x"})

	tests := []struct {
		name string
		root string
	}{
		{"empty", ""},
		{"missing", filepath.Join(t.TempDir(), "nope")},
		{"file", file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(DefaultOptions(tt.root)).Scan(context.Background()); err == nil {
				t.Error("Scan() error = nil, want error")
			}
		})
	}
}

func TestScanCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.package": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions(root)).Scan(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestScanProgress(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.package": "x", "b.package": "y"})

	var calls atomic.Int64
	var sawDone atomic.Bool
	opts := DefaultOptions(root)
	opts.OnProgress = func(p types.ScanProgress) {
		calls.Add(1)
		if p.Done {
			sawDone.Store(true)
			if p.Kept != 2 {
				t.Errorf("final Kept = %d, want 2", p.Kept)
			}
		}
	}

	if _, err := New(opts).Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if calls.Load() < 2 {
		t.Errorf("OnProgress called %d times, want at least 2", calls.Load())
	}
	if !sawDone.Load() {
		t.Error("no final progress update with Done=true")
	}
}

func TestStat(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"Sub/Mod.Package": "hello"})
	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(root, "Sub", "Mod.Package")
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}

	rec, err := Stat(root, path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if rec.Name != "mod.package" || rec.Ext != ".package" || rec.BaseName() != "Mod.Package" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.ModTime.Equal(when) {
		t.Errorf("ModTime = %v, want %v", rec.ModTime, when)
	}

	if _, err := Stat(root, filepath.Join(root, "Sub")); err == nil {
		t.Error("Stat(dir) error = nil, want error")
	}
}
