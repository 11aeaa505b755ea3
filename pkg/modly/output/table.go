package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// tsvEscaper keeps a cell on one line and in one column.
var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ")

// TSVFormatter formats output as tab-separated values.
// It produces a simple table with a header row followed by data rows.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(strings.Join(columns(r.View), "\t"))
	w.WriteByte('\n')
	for _, rec := range records(r) {
		for i, cell := range rec {
			rec[i] = tsvEscaper.Replace(cell)
		}
		w.WriteString(strings.Join(rec, "\t"))
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats output as comma-separated values with proper quoting.
// It uses encoding/csv for RFC 4180 compliant output and is the export
// format for the classification table.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns(r.View)); err != nil {
		return err
	}
	for _, rec := range records(r) {
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats output as a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	cols := columns(r.View)
	w.WriteString("| " + strings.Join(cols, " | ") + " |\n")

	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	w.WriteString("| " + strings.Join(seps, " | ") + " |\n")

	for _, rec := range records(r) {
		for i, cell := range rec {
			rec[i] = escapeMarkdownPipe(cell)
		}
		w.WriteString("| " + strings.Join(rec, " | ") + " |\n")
	}
	return nil
}

// escapeMarkdownPipe escapes pipe characters in a string for Markdown tables.
func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
