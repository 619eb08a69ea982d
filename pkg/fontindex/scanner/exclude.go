package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Exclusions matches file names that must never be indexed.
// Patterns are globs over the base name and match case-insensitively.
type Exclusions struct {
	patterns []glob.Glob
}

// NewExclusions compiles patterns. A nil *Exclusions excludes nothing.
func NewExclusions(patterns []string) (*Exclusions, error) {
	e := &Exclusions{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
		e.patterns = append(e.patterns, g)
	}
	return e, nil
}

// Match reports whether the base name of path is excluded.
func (e *Exclusions) Match(path string) bool {
	if e == nil {
		return false
	}
	name := strings.ToLower(filepath.Base(path))
	for _, g := range e.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Filter returns the paths that are not excluded.
func (e *Exclusions) Filter(paths []string) []string {
	if e == nil || len(e.patterns) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !e.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
