// Package paths enumerates candidate font files for an index store.
//
// A Walker is configured with roots, each either a plain directory (walked
// recursively) or a glob pattern such as "/opt/fonts/**/*.ttf". Matching is
// done with gobwas/glob against absolute paths; traversal uses fastwalk.
package paths

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"

	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
)

var logger = logging.Get("paths")

// Enumerator supplies the files and base directories an index covers.
type Enumerator interface {
	// ListPaths returns absolute paths of candidate font files.
	ListPaths(ctx context.Context) ([]string, error)

	// BaseDirectories returns the directories whose mtimes gate cheap
	// staleness checks.
	BaseDirectories() []string
}

// DefaultExtensions are the font file extensions collected by default.
var DefaultExtensions = []string{"ttf", "otf", "ttc", "otc"}

// DefaultSystemRoots returns the platform font directories reported by xdg.
func DefaultSystemRoots() []string {
	return dedupe(xdg.FontDirs)
}

// DefaultUserRoot returns the application-managed font directory.
func DefaultUserRoot() string {
	return filepath.Join(xdg.DataHome, "fontindex", "fonts")
}

type root struct {
	base    string
	pattern glob.Glob // nil for plain directories
}

// Walker enumerates font files under a set of roots.
type Walker struct {
	roots      []root
	extensions glob.Glob
}

// NewWalker compiles roots and extensions. Extensions are matched
// case-insensitively; an empty list uses DefaultExtensions.
func NewWalker(roots []string, extensions []string) (*Walker, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		exts[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	extGlob, err := glob.Compile("*.{" + strings.Join(exts, ",") + "}")
	if err != nil {
		return nil, err
	}

	w := &Walker{extensions: extGlob}
	for _, r := range dedupe(roots) {
		compiled, err := compileRoot(r)
		if err != nil {
			return nil, err
		}
		w.roots = append(w.roots, compiled)
	}
	return w, nil
}

func compileRoot(r string) (root, error) {
	r = filepath.Clean(r)
	if !hasMeta(r) {
		return root{base: r}, nil
	}

	g, err := glob.Compile(filepath.ToSlash(r), '/')
	if err != nil {
		return root{}, err
	}
	return root{base: staticPrefix(r), pattern: g}, nil
}

// BaseDirectories returns the walk root of every configured root.
func (w *Walker) BaseDirectories() []string {
	dirs := make([]string, 0, len(w.roots))
	for _, r := range w.roots {
		dirs = append(dirs, r.base)
	}
	return dedupe(dirs)
}

// ListPaths walks every root and returns matching files, sorted and
// deduplicated. Missing or unreadable directories contribute no files.
func (w *Walker) ListPaths(ctx context.Context) ([]string, error) {
	var (
		mu    sync.Mutex
		found = make(map[string]struct{})
	)

	for _, r := range w.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(r.base)
		if err != nil || !info.IsDir() {
			logger.Debug("skipping missing root", "root", r.base)
			continue
		}

		conf := fastwalk.Config{Follow: false}
		walkErr := fastwalk.Walk(&conf, r.base, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				// Permission problems: this subtree yields no files.
				logger.Debug("walk error", "path", path, "err", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !w.accept(r, path, d) {
				return nil
			}

			mu.Lock()
			found[path] = struct{}{}
			mu.Unlock()
			return nil
		})
		if walkErr != nil {
			if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
				return nil, walkErr
			}
			logger.Warn("walk failed", "root", r.base, "err", walkErr)
		}
	}

	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (w *Walker) accept(r root, path string, d fs.DirEntry) bool {
	if !w.extensions.Match(strings.ToLower(d.Name())) {
		return false
	}
	if r.pattern != nil && !r.pattern.Match(filepath.ToSlash(path)) {
		return false
	}
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return false
}

// hasMeta reports whether s contains glob metacharacters.
func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// staticPrefix returns the longest leading directory of pattern without
// glob metacharacters.
func staticPrefix(pattern string) string {
	parts := strings.Split(pattern, string(filepath.Separator))
	var static []string
	for _, p := range parts {
		if hasMeta(p) {
			break
		}
		static = append(static, p)
	}
	prefix := strings.Join(static, string(filepath.Separator))
	if prefix == "" {
		return string(filepath.Separator)
	}
	return prefix
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		s = filepath.Clean(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
