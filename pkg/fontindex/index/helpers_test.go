package index

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fontindex/pkg/fontindex/extract"
)

// dirEnumerator lists the regular files directly inside dir.
type dirEnumerator struct {
	dir       string
	listCalls atomic.Int64
}

func (d *dirEnumerator) ListPaths(context.Context) ([]string, error) {
	d.listCalls.Add(1)
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, filepath.Join(d.dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (d *dirEnumerator) BaseDirectories() []string {
	return []string{d.dir}
}

// bodyExtractor reads "family|subfamily" from the file body and counts
// calls per path.
type bodyExtractor struct {
	mu    sync.Mutex
	calls map[string]int
	total atomic.Int64
}

func newBodyExtractor() *bodyExtractor {
	return &bodyExtractor{calls: make(map[string]int)}
}

func (b *bodyExtractor) Extract(path string) (extract.Metadata, error) {
	b.total.Add(1)
	b.mu.Lock()
	b.calls[path]++
	b.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Metadata{}, err
	}
	body := strings.TrimSpace(string(data))
	switch body {
	case "invalid":
		return extract.Metadata{}, &extract.ValidationError{Path: path, Message: "bad font"}
	case "unknown":
		return extract.Metadata{}, &extract.UnrecognizedError{Path: path, Message: "not a font"}
	}
	family, sub, _ := strings.Cut(body, "|")
	return extract.Metadata{
		FullName:   strings.TrimSpace(family + " " + sub),
		FamilyName: family,
		Subfamily:  sub,
	}, nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Unix(1_700_000_000, 0)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	fontDir   string
	indexPath string
	enum      *dirEnumerator
	extractor *bodyExtractor
	clock     *clock
	bumps     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fontDir := t.TempDir()
	return &fixture{
		fontDir:   fontDir,
		indexPath: filepath.Join(t.TempDir(), "system.yaml"),
		enum:      &dirEnumerator{dir: fontDir},
		extractor: newBodyExtractor(),
		clock:     newClock(),
	}
}

func (f *fixture) write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(f.fontDir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// bumpDir moves the font directory mtime forward. Adding a file within the
// same timestamp tick as the previous write would otherwise leave it unchanged.
func (f *fixture) bumpDir(t *testing.T) {
	t.Helper()
	f.bumps++
	future := time.Now().Add(time.Duration(f.bumps) * time.Hour)
	require.NoError(t, os.Chtimes(f.fontDir, future, future))
}

func (f *fixture) options() Options {
	return Options{
		Path:       f.indexPath,
		Enumerator: f.enum,
		Extractor:  f.extractor,
		Now:        f.clock.Now,
	}
}

func (f *fixture) store(t *testing.T, mutate ...func(*Options)) *Store {
	t.Helper()
	opts := f.options()
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}
