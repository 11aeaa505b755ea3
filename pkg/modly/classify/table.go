package classify

import (
	"iter"
	"slices"
)

// Table is a read-only sequence of classification results in scan order.
type Table struct {
	rows []Result
}

// NewTable wraps rows. The slice is copied.
func NewTable(rows []Result) *Table {
	return &Table{rows: slices.Clone(rows)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// At returns row i.
func (t *Table) At(i int) Result {
	return t.rows[i]
}

// All iterates over the rows in order.
func (t *Table) All() iter.Seq2[int, Result] {
	return func(yield func(int, Result) bool) {
		if t == nil {
			return
		}
		for i, r := range t.rows {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Rows returns a copy of the rows.
func (t *Table) Rows() []Result {
	if t == nil {
		return nil
	}
	return slices.Clone(t.rows)
}

// Map returns a new table with fn applied to every row. The receiver is
// unchanged.
func (t *Table) Map(fn func(Result) Result) *Table {
	rows := make([]Result, 0, t.Len())
	for _, r := range t.All() {
		rows = append(rows, fn(r))
	}
	return &Table{rows: rows}
}
