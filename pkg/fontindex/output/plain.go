package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// PlainFormatter formats output as an aligned table without styling,
// suitable for scripting and piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if r.Stores != nil {
		fmt.Fprintln(tw, "STORE\tENTRIES\tLAST SCAN\tPATH")
		for _, s := range r.Stores {
			age := types.FormatAge(s.LastScan)
			if s.Error != "" {
				age = "error"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Name, s.Entries, age, s.Path)
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "FAMILY\tSTYLE\tSIZE\tPATH")
	for _, font := range r.Fonts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", font.Family, font.Style, font.SizeHuman, font.Path)
	}
	return tw.Flush()
}

// TSVFormatter writes tab-separated values with no header, one font or
// store per line.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Stores != nil {
		for _, s := range r.Stores {
			var last int64
			if !s.LastScan.IsZero() {
				last = s.LastScan.Unix()
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Name, s.Entries, last, s.Path)
		}
		return nil
	}
	for _, font := range r.Fonts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", font.Family, font.Style, font.FullName, font.Size, font.Path)
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure formatters implement Formatter.
var (
	_ Formatter = (*PlainFormatter)(nil)
	_ Formatter = (*TSVFormatter)(nil)
)
