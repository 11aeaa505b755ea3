package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func() Formatter { return &PlainFormatter{} })
	r.Register("a", func() Formatter { return &PathsFormatter{} })

	assert.Equal(t, []string{"a", "b"}, r.Available())

	f, err := r.Get("a")
	require.NoError(t, err)
	assert.IsType(t, &PathsFormatter{}, f)

	_, err = r.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown formatter: nope")
	assert.Contains(t, err.Error(), "a, b")
}

func TestDefaultRegistry(t *testing.T) {
	for _, name := range []string{
		"pretty", "plain", "json", "jsonl", "yaml", "paths",
		"null", "tsv", "csv", "markdown", "template",
	} {
		f, err := Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f, name)
	}
	assert.Contains(t, Available(), "csv")
}

func TestResultLen(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want int
	}{
		{"rows", Result{View: ViewClassification, Rows: make([]Row, 3)}, 3},
		{"plan", Result{View: ViewPlan, Ops: make([]Op, 2)}, 2},
		{"execution", Result{View: ViewExecution, Ops: make([]Op, 1)}, 1},
		{"undo", Result{View: ViewUndo, Reversals: make([]Reversal, 4)}, 4},
		{"history", Result{View: ViewHistory, Batches: make([]Batch, 5)}, 5},
		{"wrong section", Result{View: ViewUndo, Ops: make([]Op, 2)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Len())
		})
	}
}

func TestResultRel(t *testing.T) {
	r := &Result{Source: "/mods"}
	assert.Equal(t, "CAS Hair/bob.package", r.Rel("/mods/CAS Hair/bob.package"))
	assert.Equal(t, "/elsewhere/x.package", r.Rel("/elsewhere/x.package"))
	assert.Equal(t, "", r.Rel(""))

	assert.Equal(t, "/mods/a", (&Result{}).Rel("/mods/a"))
}

func TestSortedCounts(t *testing.T) {
	r := &Result{Counts: map[string]int{"move": 3, "delete": 1, "mkdir": 2}}
	assert.Equal(t, []string{"delete: 1", "mkdir: 2", "move: 3"}, r.SortedCounts())
}

func TestTotalSize(t *testing.T) {
	r := &Result{Rows: []Row{{Size: 10}, {Size: 32}}}
	assert.Equal(t, int64(42), r.TotalSize())
}

func format(t *testing.T, name string, r *Result) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}
