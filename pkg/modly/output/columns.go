package output

import (
	"strconv"
	"strings"
	"time"
)

// columns returns the header for the populated section.
func columns(v View) []string {
	switch v {
	case ViewClassification:
		return []string{"TYPE", "CONFIDENCE", "SIZE", "TARGET", "PATH", "NOTES"}
	case ViewPlan:
		return []string{"OP", "SOURCE", "DEST", "REASON"}
	case ViewExecution:
		return []string{"OP", "SOURCE", "DEST", "DETAIL"}
	case ViewUndo:
		return []string{"OUTCOME", "OP", "FROM", "TO", "ERROR"}
	case ViewHistory:
		return []string{"BATCH", "STARTED", "FINISHED", "OPS", "KINDS"}
	default:
		return nil
	}
}

// records returns the section as rows of unstyled cells, paths relative
// to the source.
func records(r *Result) [][]string {
	var out [][]string
	switch r.View {
	case ViewClassification:
		for _, row := range r.Rows {
			out = append(out, []string{
				row.Type + flags(row),
				row.Confidence,
				row.SizeHuman,
				row.Target,
				row.RelPath,
				strings.Join(row.Notes, "; "),
			})
		}
	case ViewPlan, ViewExecution:
		for _, op := range r.Ops {
			last := op.Reason
			if r.View == ViewExecution {
				last = op.Detail
			}
			if op.Confirm {
				last = strings.TrimSpace(last + " [confirm]")
			}
			out = append(out, []string{op.Kind, r.Rel(op.Source), r.Rel(op.Dest), last})
		}
	case ViewUndo:
		for _, rv := range r.Reversals {
			// Undo runs final back to original.
			out = append(out, []string{rv.Outcome, rv.Kind, r.Rel(rv.Final), r.Rel(rv.Original), rv.Error})
		}
	case ViewHistory:
		for _, b := range r.Batches {
			out = append(out, []string{
				strconv.FormatInt(b.ID, 10),
				b.Started.Format(time.DateTime),
				b.Finished.Format(time.DateTime),
				strconv.Itoa(b.Ops),
				kindSummary(b.Counts),
			})
		}
	}
	return out
}

// flags marks user decisions on a classification row.
func flags(row Row) string {
	var marks []string
	if row.Overridden {
		marks = append(marks, "override")
	}
	if row.Protected {
		marks = append(marks, "protected")
	}
	if row.Excluded {
		marks = append(marks, "skip")
	}
	if len(marks) == 0 {
		return ""
	}
	return " (" + strings.Join(marks, ",") + ")"
}

// kindSummary renders per-kind counts in a fixed order.
func kindSummary(counts map[string]int) string {
	var parts []string
	for _, k := range []string{"move", "relocate", "delete", "mkdir"} {
		if n := counts[k]; n > 0 {
			parts = append(parts, k+" "+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, ", ")
}
