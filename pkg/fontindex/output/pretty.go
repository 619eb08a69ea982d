package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Stores != nil {
		w.WriteString(f.formatStores(r))
	} else {
		w.WriteString(f.formatHeader(r))
		w.WriteString("\n")
		w.WriteString(f.formatFonts(r))
	}

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

// formatHeader builds the header box with the query.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	parts := []string{labelStyle.Render("Query:") + " " + valueStyle.Render(r.Query)}
	if r.Style != "" {
		parts = append(parts, labelStyle.Render("Style:")+" "+valueStyle.Render(r.Style))
	}
	parts = append(parts, labelStyle.Render("Matches:")+" "+valueStyle.Render(fmt.Sprintf("%d", len(r.Fonts))))
	return queryBox.Render(strings.Join(parts, "  "))
}

// formatFonts builds the font table.
func (f *PrettyFormatter) formatFonts(r *Result) string {
	if len(r.Fonts) == 0 {
		return noMatchStyle.Render("  No fonts found matching query") + "\n"
	}

	familyWidth, styleWidth := len("FAMILY"), len("STYLE")
	for _, font := range r.Fonts {
		familyWidth = max(familyWidth, lipgloss.Width(font.Family))
		styleWidth = max(styleWidth, lipgloss.Width(font.Style))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		columnStyle.Render(padRight("FAMILY", familyWidth)),
		columnStyle.Render(padRight("STYLE", styleWidth)),
		columnStyle.Render("PATH")))

	for _, font := range r.Fonts {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			familyStyle.Render(padRight(font.Family, familyWidth)),
			subfamilyStyle.Render(padRight(font.Style, styleWidth)),
			pathStyle.Render(font.Path)))
	}
	return sb.String()
}

// formatStores builds one box per store.
func (f *PrettyFormatter) formatStores(r *Result) string {
	var boxes []string
	for _, s := range r.Stores {
		lines := []string{
			storeNameStyle.Render(s.Name),
			labelStyle.Render("Index:") + " " + pathStyle.Render(s.Path),
			labelStyle.Render("Fonts:") + " " + valueStyle.Render(fmt.Sprintf("%d", s.Entries)) +
				"  " + labelStyle.Render("Scanned:") + " " + f.formatAge(s),
		}
		if st := s.Stats; st.FilesScanned() > 0 {
			lines = append(lines, labelStyle.Render("Last build:")+" "+valueStyle.Render(fmt.Sprintf(
				"%d hits, %d misses, %d unrecognized, %d invalid in %s",
				st.CacheHits, st.CacheMisses, st.Errors, st.ValidationFailures, st.Elapsed.Round(time.Millisecond))))
		}
		box := storeBox
		if s.Error != "" {
			lines = append(lines, errorStyle.Render("Error: "+s.Error))
			box = brokenStoreBox
		}
		boxes = append(boxes, box.Render(strings.Join(lines, "\n")))
	}
	return strings.Join(boxes, "\n") + "\n"
}

func (f *PrettyFormatter) formatAge(s StoreInfo) string {
	if s.LastScan.IsZero() {
		return warningStyle.Render("never")
	}
	return freshStyle.Render(types.FormatAge(s.LastScan))
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := warningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(warningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padRight pads s with spaces to width display columns.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
