package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

// writeZip creates a zip at path whose members carry the given times.
func writeZip(t *testing.T, path string, members map[string]time.Time) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, mod := range members {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: mod})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("data")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewest(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entries  []Entry
		wantName string
		wantOK   bool
	}{
		{"empty", nil, "", false},
		{"only dirs and zero times", []Entry{{Name: "dir/", Modified: d2, IsDir: true}, {Name: "x"}}, "", false},
		{"single newest", []Entry{{Name: "a", Modified: d1}, {Name: "b", Modified: d2}}, "b", true},
		{"tie picks smallest name", []Entry{{Name: "zeta", Modified: d2}, {Name: "alpha", Modified: d2}, {Name: "old", Modified: d1}}, "alpha", true},
		{"dir newer than files", []Entry{{Name: "new/", Modified: d2, IsDir: true}, {Name: "f", Modified: d1}}, "f", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Newest(tt.entries)
			if ok != tt.wantOK || got.Name != tt.wantName {
				t.Errorf("Newest() = (%q, %v), want (%q, %v)", got.Name, ok, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestIsContainer(t *testing.T) {
	t.Parallel()

	for ext, want := range map[string]bool{
		".zip": true, ".TS4SCRIPT": true, ".rar": true, ".7z": true, ".package": false, "": false,
	} {
		if got := IsContainer(ext); got != want {
			t.Errorf("IsContainer(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestZipProvider(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mod.ts4script")
	newest := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	writeZip(t, path, map[string]time.Time{
		"mod/__init__.pyc": time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		"mod/main.pyc":     newest,
	})

	entries, err := NewZipProvider().List(path)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	e, ok := Newest(entries)
	if !ok || e.Name != "mod/main.pyc" || !e.Modified.Equal(newest) {
		t.Errorf("Newest() = %+v, want mod/main.pyc at %v", e, newest)
	}
}

func TestZipProviderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pkg := filepath.Join(dir, "mod.package")
	bad := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(bad, []byte("definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewZipProvider()

	if _, err := p.List(pkg); !errors.Is(err, ErrNotAnArchive) {
		t.Errorf("List(.package) error = %v, want ErrNotAnArchive", err)
	}
	if _, err := p.List(filepath.Join(dir, "other.rar")); !errors.Is(err, ErrNotAnArchive) {
		t.Errorf("List(.rar) error = %v, want ErrNotAnArchive", err)
	}

	_, err := p.List(bad)
	var readErr *ReadError
	if !errors.As(err, &readErr) || readErr.Path != bad {
		t.Fatalf("List(broken) error = %v, want *ReadError", err)
	}

	_, err = p.List(filepath.Join(dir, "missing.zip"))
	if !errors.As(err, &readErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("List(missing) error = %v, want ReadError wrapping not-exist", err)
	}
}

func TestCachedProvider(t *testing.T) {
	t.Parallel()

	store, err := OpenMemoryStore()
	if err != nil {
		t.Fatalf("OpenMemoryStore() error = %v", err)
	}
	defer store.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "pack.zip")
	writeZip(t, path, map[string]time.Time{"a.package": time.Date(2023, 5, 5, 0, 0, 0, 0, time.UTC)})

	calls := 0
	inner := ProviderFunc(func(p string) ([]Entry, error) {
		calls++
		return NewZipProvider().List(p)
	})
	cp := NewCachedProvider(inner, store)

	for i := 0; i < 3; i++ {
		entries, err := cp.List(path)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "a.package" {
			t.Fatalf("entries = %+v", entries)
		}
	}
	if calls != 1 {
		t.Errorf("inner calls = %d, want 1", calls)
	}

	// A changed archive is listed again.
	writeZip(t, path, map[string]time.Time{
		"a.package": time.Date(2023, 5, 5, 0, 0, 0, 0, time.UTC),
		"b.package": time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
	})
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	entries, err := cp.List(path)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 || calls != 2 {
		t.Errorf("after change: entries = %d, calls = %d; want 2, 2", len(entries), calls)
	}

	n, err := store.Count()
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", n)
	}
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	store, err := OpenMemoryStore()
	if err != nil {
		t.Fatalf("OpenMemoryStore() error = %v", err)
	}
	defer store.Close()

	path := filepath.Join(t.TempDir(), "x.zip")
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	cp := NewCachedProvider(NewZipProvider(), store)
	for i := 0; i < 2; i++ {
		if _, err := cp.List(path); err == nil {
			t.Fatal("List() error = nil, want error")
		}
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}
