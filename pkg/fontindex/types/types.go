// Package types provides the core data types shared by the font index packages.
// It includes the persisted index entry, its validation rules, and small
// formatting helpers used by the CLI.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrIndexCorrupt indicates that a persisted index cannot be trusted.
// It is fatal: the backing file must be deleted and rebuilt.
var ErrIndexCorrupt = errors.New("font index is corrupt")

// IndexEntry is one indexed font file.
// Path is the unique key within a store.
type IndexEntry struct {
	// Path is the absolute path to the font file.
	Path string `json:"path" yaml:"path"`

	// FullName is the font's full name (name ID 4).
	FullName string `json:"full_name" yaml:"full_name"`

	// FamilyName is the font family, e.g. "Arial" (name ID 1).
	FamilyName string `json:"family_name" yaml:"family_name"`

	// Subfamily is the style within the family, e.g. "Bold" (name ID 2).
	Subfamily string `json:"type" yaml:"type"`

	// PreferredFamilyName is the typographic family (name ID 16), if present.
	PreferredFamilyName string `json:"preferred_family_name,omitempty" yaml:"preferred_family_name,omitempty"`

	// PreferredSubfamilyName is the typographic subfamily (name ID 17), if present.
	PreferredSubfamilyName string `json:"preferred_subfamily_name,omitempty" yaml:"preferred_subfamily_name,omitempty"`

	// FileSize is the file size in bytes when the entry was built.
	FileSize int64 `json:"file_size" yaml:"file_size"`

	// FileMtime is the file modification time in Unix seconds when the entry was built.
	FileMtime int64 `json:"file_mtime" yaml:"file_mtime"`
}

// Validate reports whether the entry carries every field required for lookup.
// A failing entry loaded from disk is corruption, not absence.
func (e *IndexEntry) Validate() error {
	var missing []string
	if e.Path == "" {
		missing = append(missing, "path")
	}
	if e.FullName == "" {
		missing = append(missing, "full_name")
	}
	if e.FamilyName == "" {
		missing = append(missing, "family_name")
	}
	if e.Subfamily == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("entry %q missing %s", e.Path, strings.Join(missing, ", "))
	}
	return nil
}

// Matches reports whether the entry belongs to family name and, when style is
// non-empty, to that subfamily. Comparison is case-insensitive.
func (e *IndexEntry) Matches(name, style string) bool {
	if !strings.EqualFold(e.FamilyName, name) {
		return false
	}
	return style == "" || strings.EqualFold(e.Subfamily, style)
}

// ModTime returns FileMtime as a time.Time.
func (e *IndexEntry) ModTime() time.Time {
	return time.Unix(e.FileMtime, 0)
}

// HumanSize returns the file size formatted with binary (IEC) units.
func (e *IndexEntry) HumanSize() string {
	return FormatSize(e.FileSize)
}

// FormatSize converts a size in bytes to a human-readable string.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// FormatAge renders how long ago t was, e.g. "3 minutes ago".
// The zero time renders as "never".
func FormatAge(t time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return "never"
	}
	return humanize.Time(t)
}
