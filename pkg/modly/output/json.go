package output

import (
	"bytes"
	"encoding/json"
)

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per line).
// Each row, operation, reversal or batch is written as a compact JSON object
// on its own line, suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, item := range items(r) {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

// items returns the populated section as individual values.
func items(r *Result) []any {
	var out []any
	switch r.View {
	case ViewClassification:
		for _, row := range r.Rows {
			out = append(out, row)
		}
	case ViewPlan, ViewExecution:
		for _, op := range r.Ops {
			out = append(out, op)
		}
	case ViewUndo:
		for _, rv := range r.Reversals {
			out = append(out, rv)
		}
	case ViewHistory:
		for _, b := range r.Batches {
			out = append(out, b)
		}
	}
	return out
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
