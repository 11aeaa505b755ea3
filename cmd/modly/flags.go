package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/N1nj4lxl/Modly/pkg/modly/filter"
	"github.com/N1nj4lxl/Modly/pkg/modly/output"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

// filterFlags select and order rows of the classification table.
type filterFlags struct {
	include       []string
	exclude       []string
	types         string
	minConfidence string
	newerThan     string
	sortBy        string
	reverse       bool
	limit         int
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.include, "include", nil, "only show files matching these globs")
	fs.StringSliceVarP(&f.exclude, "exclude", "e", nil, "hide files matching these globs")
	fs.StringVarP(&f.types, "type", "t", "", "only show these types (comma separated, e.g. 'CAS Hair,Script Mod')")
	fs.StringVar(&f.minConfidence, "min-confidence", "", "only show rows at or above this confidence (low, medium, high)")
	fs.StringVar(&f.newerThan, "newer-than", "", "only show files modified within this duration (e.g. 7d, 2w)")
	fs.StringVar(&f.sortBy, "sort", "path", "sort by: path, size, age, type, confidence")
	fs.BoolVarP(&f.reverse, "reverse", "r", false, "reverse the sort order")
	fs.IntVarP(&f.limit, "limit", "l", 0, "show at most this many rows (0 = all)")
}

// build creates a filter.Filter from the flags.
func (f *filterFlags) build() (*filter.Filter, error) {
	opts := []filter.Option{filter.WithLimit(f.limit)}

	if len(f.include) > 0 {
		opts = append(opts, filter.WithInclude(f.include...))
	}
	if len(f.exclude) > 0 {
		opts = append(opts, filter.WithExclude(f.exclude...))
	}

	if f.types != "" {
		var ts []types.Type
		for _, name := range parseCommaSeparated(f.types) {
			t, err := types.ParseType(name)
			if err != nil {
				return nil, fmt.Errorf("invalid type: %w", err)
			}
			ts = append(ts, t)
		}
		opts = append(opts, filter.WithTypes(ts...))
	}

	if f.minConfidence != "" {
		c, err := parseConfidence(f.minConfidence)
		if err != nil {
			return nil, err
		}
		opts = append(opts, filter.WithConfidence(c, 0))
	}

	if f.newerThan != "" {
		d, err := filter.ParseDuration(f.newerThan)
		if err != nil {
			return nil, fmt.Errorf("invalid newer-than %q: %w", f.newerThan, err)
		}
		opts = append(opts, filter.WithNewerThan(d))
	}

	sortField, err := filter.ParseSortField(f.sortBy)
	if err != nil {
		return nil, fmt.Errorf("invalid sort field %q: %w", f.sortBy, err)
	}
	opts = append(opts, filter.WithSortBy(sortField))

	// Size and confidence read best largest first; path, age and type
	// read best ascending. --reverse flips the natural order.
	descending := f.reverse
	if sortField == filter.SortSize || sortField == filter.SortConfidence {
		descending = !f.reverse
	}
	opts = append(opts, filter.WithSortDescending(descending))

	return filter.New(opts...)
}

// overrideFlags are the user's corrections applied before planning.
type overrideFlags struct {
	setType   []string
	setFolder []string
	protect   []string
	skip      []string
}

func (o *overrideFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVar(&o.setType, "set-type", nil, "force a type: 'glob=Type' (repeatable)")
	fs.StringArrayVar(&o.setFolder, "set-folder", nil, "force a target folder: 'glob=Folder' (repeatable)")
	fs.StringArrayVar(&o.protect, "protect", nil, "never delete matching files on collision (repeatable)")
	fs.StringArrayVar(&o.skip, "skip", nil, "leave matching files where they are (repeatable)")
}

func (o *overrideFlags) overrides() filter.Overrides {
	return filter.Overrides{
		SetType:   o.setType,
		SetFolder: o.setFolder,
		Protect:   o.protect,
		Skip:      o.skip,
	}
}

// parseConfidence resolves a confidence level name.
func parseConfidence(s string) (types.Confidence, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, c := range []types.Confidence{types.ConfidenceLow, types.ConfidenceMedium, types.ConfidenceHigh} {
		if c.String() == want {
			return c, nil
		}
	}
	return types.ConfidenceNone, fmt.Errorf("invalid confidence %q: want low, medium or high", s)
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// formatList lists the registered output formats for flag help.
func formatList() string {
	return strings.Join(output.Available(), ", ")
}

// getFormatter returns the formatter selected by -o.
func getFormatter() (output.Formatter, error) {
	name := settings().GetString("output")
	if name == "" {
		name = "pretty"
	}
	if name == "template" {
		tmpl := settings().GetString("template")
		if tmpl == "" {
			return output.Get(name)
		}
		return output.NewTemplateFormatter(tmpl), nil
	}
	f, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", name, output.Available())
	}
	return f, nil
}

// render formats r with the selected formatter and writes it to w.
func render(w io.Writer, r *output.Result) error {
	formatter, err := getFormatter()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// out returns the command's standard output.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
