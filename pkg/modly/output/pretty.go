package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

var titles = map[View]string{
	ViewClassification: "Classification",
	ViewPlan:           "Plan preview",
	ViewExecution:      "Sorted",
	ViewUndo:           "Undo",
	ViewHistory:        "History",
}

// formatHeader builds the header box with phase metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	title := titles[r.View]
	if r.Batch > 0 {
		title += fmt.Sprintf(" (batch %d)", r.Batch)
	}
	lines = append(lines, TitleStyle.Render(title))
	lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Mods:"), ValueStyle.Render(r.Source)))

	if r.Stats.FilesScanned > 0 || r.Stats.Duration > 0 {
		var info []string
		if r.Stats.FilesScanned > 0 {
			info = append(info, fmt.Sprintf("%s %s", LabelStyle.Render("Scanned:"),
				ValueStyle.Render(fmt.Sprintf("%s files in %s dirs",
					humanize.Comma(r.Stats.FilesScanned), humanize.Comma(r.Stats.DirsScanned)))))
		}
		if r.Stats.Ignored > 0 {
			info = append(info, fmt.Sprintf("%s %s", LabelStyle.Render("Ignored:"),
				MutedStyle.Render(humanize.Comma(r.Stats.Ignored))))
		}
		if r.Stats.Duration > 0 {
			info = append(info, fmt.Sprintf("%s %s", LabelStyle.Render("Took:"),
				ValueStyle.Render(formatDuration(r.Stats.Duration))))
		}
		lines = append(lines, strings.Join(info, "  "))
	}

	if r.DryRun {
		lines = append(lines, MutedStyle.Render("Nothing has been changed yet"))
	}
	if r.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Stopped before finishing"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTable builds the aligned, styled table for the populated section.
func (f *PrettyFormatter) formatTable(r *Result) string {
	recs := records(r)
	if len(recs) == 0 {
		return MutedStyle.Render("  "+emptyMessage(r.View)) + "\n"
	}
	if r.View == ViewHistory {
		for i, b := range r.Batches {
			recs[i][1] = humanize.Time(b.Started)
			recs[i][2] = formatDuration(b.Finished.Sub(b.Started))
		}
	}

	cols := columns(r.View)
	if r.View == ViewHistory {
		cols = []string{"BATCH", "WHEN", "TOOK", "OPS", "KINDS"}
	}

	// The last column is left ragged.
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, rec := range recs {
		for i := 0; i < len(rec)-1; i++ {
			if n := lipgloss.Width(rec[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = TableHeaderStyle.Render(padRight(c, widths[i]))
	}
	sb.WriteString("  " + strings.TrimRight(strings.Join(header, "  "), " ") + "\n")

	for _, rec := range recs {
		cells := make([]string, len(rec))
		for i, cell := range rec {
			padded := cell
			if i < len(rec)-1 {
				padded = padRight(cell, widths[i])
			}
			cells[i] = cellStyle(r.View, i, rec).Render(padded)
		}
		sb.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return sb.String()
}

func emptyMessage(v View) string {
	switch v {
	case ViewClassification:
		return "No mod files found"
	case ViewPlan:
		return "Everything is already sorted"
	case ViewExecution:
		return "Nothing was changed"
	case ViewUndo:
		return "Nothing to undo"
	default:
		return "No sort batches recorded"
	}
}

// cellStyle picks the style for column i of a record.
func cellStyle(v View, i int, rec []string) lipgloss.Style {
	switch v {
	case ViewClassification:
		switch i {
		case 0:
			return confidenceStyle(rec[1])
		case 1, 5:
			return MutedStyle
		case 2:
			return SizeStyle
		case 3:
			return ValueStyle.Bold(true)
		}
		return PathStyle
	case ViewPlan, ViewExecution:
		switch i {
		case 0:
			return kindStyle(rec[0])
		case 3:
			if strings.Contains(rec[3], "[confirm]") {
				return WarningStyle
			}
			return MutedStyle
		}
		return PathStyle
	case ViewUndo:
		switch i {
		case 0:
			return outcomeStyle(rec[0])
		case 4:
			return ErrorStyle
		case 1:
			return MutedStyle
		}
		return PathStyle
	default:
		if i == 0 {
			return SizeStyle
		}
		return ValueStyle
	}
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	label := "Items:"
	switch r.View {
	case ViewClassification:
		label = "Files:"
	case ViewPlan, ViewExecution:
		label = "Operations:"
	case ViewUndo:
		label = "Reversed:"
	case ViewHistory:
		label = "Batches:"
	}
	parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render(label), ValueStyle.Render(fmt.Sprintf("%d", r.Len()))))

	if r.View == ViewClassification {
		parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render("Total:"),
			SizeStyle.Render(humanize.IBytes(uint64(r.TotalSize())))))
	}
	if counts := r.SortedCounts(); len(counts) > 0 {
		parts = append(parts, MutedStyle.Render(strings.Join(counts, ", ")))
	}
	if r.View == ViewPlan {
		parts = append(parts, MutedStyle.Render("Run `modly sort` to apply"))
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

// padRight pads s with spaces to the display width.
func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
