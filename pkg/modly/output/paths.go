package output

import (
	"bytes"

	"github.com/N1nj4lxl/Modly/pkg/modly/undo"
)

// PathsFormatter formats output as one file path per line.
// It produces a simple list of paths suitable for piping to other tools.
// Only the affected files are listed: classified files, the sources of
// planned operations, and the restored paths of an undo. Folder creation
// and history produce no paths.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, p := range paths(r) {
		w.WriteString(p)
		w.WriteByte('\n')
	}
	return nil
}

func paths(r *Result) []string {
	var out []string
	switch r.View {
	case ViewClassification:
		for _, row := range r.Rows {
			out = append(out, row.Path)
		}
	case ViewPlan, ViewExecution:
		for _, op := range r.Ops {
			if op.Source != "" {
				out = append(out, op.Source)
			}
		}
	case ViewUndo:
		for _, rv := range r.Reversals {
			if rv.Outcome == string(undo.OutcomeRestored) {
				out = append(out, rv.Original)
			}
		}
	}
	return out
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)

// NullFormatter formats output as null-delimited paths.
// It produces paths separated by null bytes (0x00), suitable for use with
// xargs -0 or other tools that support null-delimited input.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, p := range paths(r) {
		w.WriteString(p)
		w.WriteByte(0)
	}
	return nil
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

// Ensure NullFormatter implements Formatter.
var _ Formatter = (*NullFormatter)(nil)
