package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/ignore"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

const testSettle = 50 * time.Millisecond

// arrivals collects reported records.
type arrivals struct {
	mu   sync.Mutex
	recs []types.FileRecord
}

func (a *arrivals) add(rec types.FileRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
}

func (a *arrivals) names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.recs))
	for _, r := range a.recs {
		names = append(names, r.Name)
	}
	return names
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func startWatcher(t *testing.T, root string, opts Options) (*Watcher, *arrivals) {
	t.Helper()
	if opts.Settle == 0 {
		opts.Settle = testSettle
	}
	w, err := New(root, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := &arrivals{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, got.add)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})

	// Give the watcher time to start.
	time.Sleep(100 * time.Millisecond)
	return w, got
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestNewWatchesTree(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"CAS", "CAS/Hair", "Colliding Mods", "Colliding Mods/deep"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(filepath.Join(root, "CAS"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w, err := New(root, Options{SkipDirs: []string{"colliding mods"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	// root, CAS, CAS/Hair
	if got := w.Watched(); got != 3 {
		t.Errorf("Watched() = %d, want 3", got)
	}
	if w.paths[filepath.Join(root, "Colliding Mods")] {
		t.Error("holding folder should not be watched")
	}
	if w.paths[filepath.Join(root, "link")] {
		t.Error("symlinks should not be followed")
	}
}

func TestNewInvalidRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("New() on a missing root should fail")
	}
}

func TestArrivalReported(t *testing.T) {
	root := t.TempDir()
	_, got := startWatcher(t, root, Options{})

	writeFile(t, filepath.Join(root, "hair_bob.package"), "DBPF")

	if !waitFor(t, func() bool { return len(got.names()) == 1 }) {
		t.Fatalf("arrival not reported, got %v", got.names())
	}
	if names := got.names(); names[0] != "hair_bob.package" {
		t.Errorf("arrival = %q, want hair_bob.package", names[0])
	}
}

func TestArrivalDebounced(t *testing.T) {
	root := t.TempDir()
	_, got := startWatcher(t, root, Options{Settle: 200 * time.Millisecond})

	path := filepath.Join(root, "big.package")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		if _, err := f.WriteString("chunk"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(40 * time.Millisecond)
	}
	f.Close()

	if !waitFor(t, func() bool { return len(got.names()) > 0 }) {
		t.Fatal("arrival not reported")
	}
	time.Sleep(300 * time.Millisecond)
	if n := len(got.names()); n != 1 {
		t.Errorf("reported %d times, want 1", n)
	}
	got.mu.Lock()
	size := got.recs[0].Size
	got.mu.Unlock()
	if size != int64(len("chunk")*5) {
		t.Errorf("Size = %d, want %d", size, len("chunk")*5)
	}
}

func TestArrivalInNewFolder(t *testing.T) {
	root := t.TempDir()
	w, got := startWatcher(t, root, Options{})

	dir := filepath.Join(root, "Downloads")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return w.Watched() == 2 }) {
		t.Fatalf("new folder not watched, Watched() = %d", w.Watched())
	}

	writeFile(t, filepath.Join(dir, "sofa.package"), "DBPF")
	if !waitFor(t, func() bool { return len(got.names()) == 1 }) {
		t.Fatalf("arrival in new folder not reported, got %v", got.names())
	}
}

func TestSkippedArrivals(t *testing.T) {
	root := t.TempDir()
	holding := filepath.Join(root, "Colliding Mods")
	if err := os.Mkdir(holding, 0o755); err != nil {
		t.Fatal(err)
	}
	matcher, err := ignore.New(root, ignore.Settings{Extensions: []string{".txt"}})
	if err != nil {
		t.Fatal(err)
	}

	_, got := startWatcher(t, root, Options{
		Ignore:    matcher,
		SkipDirs:  []string{"Colliding Mods"},
		SkipFiles: []string{".modly_journal.jsonl"},
	})

	writeFile(t, filepath.Join(root, "readme.txt"), "hi")
	writeFile(t, filepath.Join(root, ".modly_journal.jsonl"), "{}\n")
	writeFile(t, filepath.Join(holding, "held.package"), "DBPF")
	writeFile(t, filepath.Join(root, "kept.package"), "DBPF")

	if !waitFor(t, func() bool { return len(got.names()) > 0 }) {
		t.Fatal("kept.package not reported")
	}
	time.Sleep(4 * testSettle)
	names := got.names()
	if len(names) != 1 || names[0] != "kept.package" {
		t.Errorf("arrivals = %v, want [kept.package]", names)
	}
}

func TestRemovedBeforeSettle(t *testing.T) {
	root := t.TempDir()
	_, got := startWatcher(t, root, Options{Settle: 300 * time.Millisecond})

	path := filepath.Join(root, "temp.package")
	writeFile(t, path, "DBPF")
	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	if names := got.names(); len(names) != 0 {
		t.Errorf("removed file reported: %v", names)
	}
}

func TestCloseTwice(t *testing.T) {
	w, err := New(t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestIsSubPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path   string
		parent string
		want   bool
	}{
		{sep + "mods" + sep + "CAS", sep + "mods", true},
		{sep + "mods", sep + "mods", false},
		{sep + "modsX", sep + "mods", false},
		{sep + "other", sep + "mods", false},
	}
	for _, tt := range tests {
		if got := isSubPath(tt.path, tt.parent); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.path, tt.parent, got, tt.want)
		}
	}
}
