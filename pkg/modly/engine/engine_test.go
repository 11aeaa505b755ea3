package engine

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/filter"
	"github.com/N1nj4lxl/Modly/pkg/modly/journal"
	"github.com/N1nj4lxl/Modly/pkg/modly/planner"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
	"github.com/N1nj4lxl/Modly/pkg/modly/undo"
)

// testConfig returns defaults rooted at a fresh mods folder, with the
// archive cache in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ModsPath = t.TempDir()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "archives")
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, rel := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+rel), 0o644))
	}
}

func rowFor(t *testing.T, table *classify.Table, name string) classify.Result {
	t.Helper()
	for _, res := range table.All() {
		if res.Record.Name == name {
			return res
		}
	}
	t.Fatalf("no row for %s", name)
	return classify.Result{}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	e := newEngine(t, cfg)

	abs, err := filepath.Abs(cfg.ModsPath)
	require.NoError(t, err)
	assert.Equal(t, abs, e.Root())
	assert.Same(t, cfg, e.Config())
	assert.NotNil(t, e.Classifier())
	assert.Equal(t, Progress{}, e.Status())

	n, err := e.CacheStats()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew_Invalid(t *testing.T) {
	noRoot := testConfig(t)
	noRoot.ModsPath = ""
	_, err := New(noRoot)
	assert.ErrorIs(t, err, config.ErrInvalid)

	badDetector := testConfig(t)
	badDetector.Detectors = []string{"name", "psychic"}
	_, err = New(badDetector)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestScan(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.ModsPath
	writeFiles(t, root,
		"hair.package",
		"Downloads/mccc_ui-cheats.ts4script",
		"readme.txt",
		"Colliding Mods/held.package",
		cfg.Journal.Name,
		journal.MarkPath(cfg.Journal.Name),
	)
	e := newEngine(t, cfg)

	var mu sync.Mutex
	var phases []Phase
	snap, err := e.Scan(context.Background(), func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Table.Len())
	assert.Equal(t, types.TypeCASHair, rowFor(t, snap.Table, "hair.package").Type)
	script := rowFor(t, snap.Table, "mccc_ui-cheats.ts4script")
	assert.Equal(t, types.TypeScript, script.Type)
	assert.Equal(t, "Script Mods", script.Target)
	assert.Equal(t, int64(1), snap.Scan.Ignored, "readme.txt is ignored")
	assert.Contains(t, phases, PhaseClassify)
	assert.Equal(t, Progress{}, e.Status(), "idle after the scan")
}

func TestScan_IncludesHoldingWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.SkipHolding = false
	writeFiles(t, cfg.ModsPath, "Colliding Mods/held.package")
	e := newEngine(t, cfg)

	snap, err := e.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Table.Len())
}

func TestSortAndUndoRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.ModsPath
	writeFiles(t, root, "hair.package", "Downloads/mccc_ui-cheats.ts4script")
	e := newEngine(t, cfg)
	ctx := context.Background()

	snap, err := e.Scan(ctx, nil)
	require.NoError(t, err)
	plan, err := e.Plan(snap.Table)
	require.NoError(t, err)
	require.False(t, plan.HasDeletions())

	var progress []Progress
	rep, err := e.Execute(ctx, plan, ExecuteOptions{
		Tidy:       true,
		OnProgress: func(p Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, plan.Len(), rep.Completed())
	assert.Len(t, progress, plan.Len())
	assert.Equal(t, []string{filepath.Join(root, "Downloads")}, rep.Purged)

	assert.FileExists(t, filepath.Join(root, "CAS Hair", "hair.package"))
	assert.FileExists(t, filepath.Join(root, "Script Mods", "mccc_ui-cheats.ts4script"))
	assert.NoFileExists(t, filepath.Join(root, "hair.package"))
	assert.NoFileExists(t, filepath.Join(root, journal.LockName), "lock released")

	hist, err := e.History()
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rep.Batch, hist[0].ID)

	preview, err := e.PreviewUndo()
	require.NoError(t, err)
	assert.Equal(t, rep.Batch, preview.ID)

	urep, err := e.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, urep.Complete)
	assert.Equal(t, 2, urep.Count(undo.OutcomeRestored))

	assert.FileExists(t, filepath.Join(root, "hair.package"))
	// Downloads was purged by tidy and is recreated for the restore.
	assert.FileExists(t, filepath.Join(root, "Downloads", "mccc_ui-cheats.ts4script"))
	assert.NoDirExists(t, filepath.Join(root, "CAS Hair"))
	assert.NoDirExists(t, filepath.Join(root, "Script Mods"))

	hist, err = e.History()
	require.NoError(t, err)
	assert.Empty(t, hist)

	_, err = e.Undo(ctx)
	assert.ErrorIs(t, err, undo.ErrNothingToUndo)

	// Sorting again starts a fresh batch id.
	snap, err = e.Scan(ctx, nil)
	require.NoError(t, err)
	plan, err = e.Plan(snap.Table)
	require.NoError(t, err)
	again, err := e.Execute(ctx, plan, ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, rep.Batch+1, again.Batch)
}

// kinds lists the plan as "kind rel" strings.
func kinds(p *planner.Plan) []string {
	out := make([]string, len(p.Ops))
	for i, op := range p.Ops {
		path := op.Source
		if op.Kind == planner.KindMkdir {
			path = op.Dest
		}
		out[i] = string(op.Kind) + " " + p.Rel(path)
	}
	return out
}

func TestDatedCollision(t *testing.T) {
	older, newer := "mystery_2023-01-01.package", "mystery_2024-06-01.package"

	t.Run("older unprotected file is deleted", func(t *testing.T) {
		cfg := testConfig(t)
		root := cfg.ModsPath
		writeFiles(t, root, older, newer)
		e := newEngine(t, cfg)
		ctx := context.Background()

		snap, err := e.Scan(ctx, nil)
		require.NoError(t, err)
		target := rowFor(t, snap.Table, older).Target
		require.Equal(t, target, rowFor(t, snap.Table, newer).Target)

		plan, err := e.Plan(snap.Table)
		require.NoError(t, err)
		assert.Equal(t, []string{"mkdir " + target, "delete " + older, "move " + newer}, kinds(plan))

		_, err = e.Execute(ctx, plan, ExecuteOptions{})
		require.ErrorIs(t, err, ErrUnconfirmedDeletes)
		assert.FileExists(t, filepath.Join(root, older), "nothing runs without confirmation")

		rep, err := e.Execute(ctx, plan, ExecuteOptions{ConfirmDeletes: true})
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Deleted)
		assert.NoFileExists(t, filepath.Join(root, older))
		assert.FileExists(t, filepath.Join(root, target, newer))

		urep, err := e.Undo(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, urep.Count(undo.OutcomeIrreversible))
		assert.FileExists(t, filepath.Join(root, newer))
		assert.NoFileExists(t, filepath.Join(root, older), "deletes stay deleted")
	})

	t.Run("protected older file is relocated", func(t *testing.T) {
		cfg := testConfig(t)
		root := cfg.ModsPath
		writeFiles(t, root, older, newer)
		e := newEngine(t, cfg)
		ctx := context.Background()

		snap, err := e.Scan(ctx, nil)
		require.NoError(t, err)
		table, err := e.ApplyOverrides(snap.Table, filter.Overrides{Protect: []string{"*2023*"}})
		require.NoError(t, err)
		target := rowFor(t, table, newer).Target

		plan, err := e.Plan(table)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"mkdir Colliding Mods", "mkdir " + target, "relocate " + older, "move " + newer,
		}, kinds(plan))

		_, err = e.Execute(ctx, plan, ExecuteOptions{})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(root, "Colliding Mods", older))
		assert.FileExists(t, filepath.Join(root, target, newer))
	})

	t.Run("allow_delete off relocates", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Collisions.AllowDelete = false
		writeFiles(t, cfg.ModsPath, older, newer)
		e := newEngine(t, cfg)

		snap, err := e.Scan(context.Background(), nil)
		require.NoError(t, err)
		plan, err := e.Plan(snap.Table)
		require.NoError(t, err)
		assert.False(t, plan.HasDeletions())
		assert.Contains(t, kinds(plan), "relocate "+older)
	})
}

func TestExecute_TrashMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collisions.DeleteMode = config.DeleteModeTrash
	root := cfg.ModsPath
	writeFiles(t, root, "mystery_2023-01-01.package", "mystery_2024-06-01.package")

	var trashed []string
	e := newEngine(t, cfg, WithTrash(func(path string) (string, error) {
		trashed = append(trashed, path)
		return "test-trash", os.Remove(path)
	}))
	ctx := context.Background()

	snap, err := e.Scan(ctx, nil)
	require.NoError(t, err)
	plan, err := e.Plan(snap.Table)
	require.NoError(t, err)

	rep, err := e.Execute(ctx, plan, ExecuteOptions{ConfirmDeletes: true})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "mystery_2023-01-01.package")}, trashed)

	var details []string
	for _, r := range rep.Results {
		if r.Entry.Kind == journal.KindDelete {
			details = append(details, r.Entry.Detail)
		}
	}
	assert.Equal(t, []string{"test-trash"}, details)
}

func TestExecute_Locked(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.ModsPath
	writeFiles(t, root, "hair.package")
	// The test process is running, so its PID holds the lock.
	require.NoError(t, os.WriteFile(filepath.Join(root, journal.LockName), []byte(strconv.Itoa(os.Getpid())), 0o644))
	e := newEngine(t, cfg)

	snap, err := e.Scan(context.Background(), nil)
	require.NoError(t, err)
	plan, err := e.Plan(snap.Table)
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), plan, ExecuteOptions{})
	require.ErrorIs(t, err, journal.ErrLocked)
	assert.FileExists(t, filepath.Join(root, "hair.package"))

	_, err = e.Undo(context.Background())
	assert.ErrorIs(t, err, journal.ErrLocked)
}

func TestExecute_WrongRoot(t *testing.T) {
	e := newEngine(t, testConfig(t))
	_, err := e.Execute(context.Background(), &planner.Plan{Root: t.TempDir()}, ExecuteOptions{})
	assert.Error(t, err)
}

func TestWatchAndReload(t *testing.T) {
	cfg := testConfig(t)
	root := cfg.ModsPath
	e := newEngine(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	arrivals := make(chan Arrival, 4)
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, 50*time.Millisecond, func(a Arrival) { arrivals <- a })
	}()

	require.Eventually(t, func() bool { return e.Status().Phase == PhaseWatch },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.ErrorIs(t, e.Reload(cfg), ErrBusy)
	_, err := e.Scan(context.Background(), nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, e.ClearCache(), ErrBusy)

	writeFiles(t, root, "hair.package")
	select {
	case a := <-arrivals:
		assert.Equal(t, types.TypeCASHair, a.Result.Type)
		assert.Equal(t, "hair.package", a.Result.Record.Name)
	case <-time.After(3 * time.Second):
		t.Fatal("arrival not reported")
	}

	cancel()
	require.NoError(t, <-done)

	next := testConfig(t)
	next.ModsPath = root
	next.Cache.Path = cfg.Cache.Path
	next.HoldingFolder = "Dupes"
	require.NoError(t, e.Reload(next))
	assert.Equal(t, "Dupes", e.Config().HoldingFolder)
	require.NoError(t, e.ClearCache())
}

func TestReload_KeepsOldConfigOnError(t *testing.T) {
	cfg := testConfig(t)
	e := newEngine(t, cfg)

	bad := testConfig(t)
	bad.Collisions.DeleteMode = "shred"
	require.ErrorIs(t, e.Reload(bad), config.ErrInvalid)
	assert.Same(t, cfg, e.Config())
}
