// Package index implements the font index store: a persisted list of font
// entries plus the staleness policy that decides when to rescan.
//
// A Store is parameterized by its backing file and a path enumerator, so
// system, user and test stores are the same type pointed at different
// directories. Rebuilds are serialized across processes by a RebuildLock
// next to the backing file; a process that waited on the lock adopts a
// sufficiently recent result instead of rescanning.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/fontindex/pkg/fontindex/extract"
	"github.com/jamesainslie/fontindex/pkg/fontindex/lock"
	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
	"github.com/jamesainslie/fontindex/pkg/fontindex/paths"
	"github.com/jamesainslie/fontindex/pkg/fontindex/scanner"
	"github.com/jamesainslie/fontindex/pkg/fontindex/snapshot"
	"github.com/jamesainslie/fontindex/pkg/fontindex/stats"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

var logger = logging.Get("index")

// ErrNotIndexable is returned by AddEntry for a file that yields no entry.
var ErrNotIndexable = errors.New("file is not indexable")

const (
	// DefaultRebuildThreshold is how long a scan is trusted without
	// touching the filesystem.
	DefaultRebuildThreshold = 30 * time.Minute

	// DefaultDebounceWindow is how recent another process's rebuild must be
	// for a waiting process to adopt it.
	DefaultDebounceWindow = 60 * time.Second
)

// Options configures a Store.
type Options struct {
	// Name labels the store in logs and metrics. Defaults to the backing
	// file's base name without extension.
	Name string

	// Path is the backing file.
	Path string

	// Enumerator lists candidate font files.
	Enumerator paths.Enumerator

	// Extractor reads font names. Defaults to the sfnt extractor.
	Extractor extract.Extractor

	// Exclude lists base-name globs that are never indexed.
	Exclude []string

	RebuildThreshold time.Duration
	DebounceWindow   time.Duration

	// SnapshotDir holds per-directory snapshots used to skip unchanged
	// files that were previously found unindexable. Empty disables it.
	SnapshotDir string

	// SignatureMode selects the snapshot file signature.
	SignatureMode snapshot.SignatureMode

	// Scan configures the batch scanner.
	Scan scanner.Options

	// ReadOnly trusts loaded entries for the whole session.
	ReadOnly bool

	// Now overrides the clock.
	Now func() time.Time
}

// Validate checks required fields and fills in defaults.
func (o *Options) Validate() error {
	if o.Path == "" {
		return errors.New("index path is required")
	}
	if o.Enumerator == nil {
		return errors.New("path enumerator is required")
	}
	if o.Extractor == nil {
		o.Extractor = extract.NewSFNT()
	}
	if o.Name == "" {
		base := filepath.Base(o.Path)
		o.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if o.RebuildThreshold <= 0 {
		o.RebuildThreshold = DefaultRebuildThreshold
	}
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = DefaultDebounceWindow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o.Scan.Validate()
}

// Report describes one rebuild.
type Report struct {
	ID      string           `json:"id" yaml:"id"`
	Store   string           `json:"store" yaml:"store"`
	Forced  bool             `json:"forced" yaml:"forced"`
	Adopted bool             `json:"adopted" yaml:"adopted"`
	Entries int              `json:"entries" yaml:"entries"`
	Changes snapshot.Summary `json:"changes" yaml:"changes"`
	Stats   stats.Snapshot   `json:"stats" yaml:"stats"`
}

// Store is one font index. It is safe for concurrent use; operations on one
// Store are serialized.
type Store struct {
	opts    Options
	exclude *scanner.Exclusions
	stats   *stats.IndexStats
	entry   *scanner.EntryScanner
	batch   *scanner.BatchScanner
	lock    *lock.RebuildLock

	mu       sync.Mutex
	loaded   bool
	state    *State // nil until a backing file exists
	readOnly bool
	last     Report
}

// New returns a store. The backing file is read lazily on first use.
func New(opts Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	exclude, err := scanner.NewExclusions(opts.Exclude)
	if err != nil {
		return nil, err
	}

	st := stats.New()
	entry := scanner.NewEntryScanner(opts.Extractor, exclude, st)
	batch, err := scanner.NewBatchScanner(entry, opts.Scan)
	if err != nil {
		return nil, err
	}
	return &Store{
		opts:     opts,
		exclude:  exclude,
		stats:    st,
		entry:    entry,
		batch:    batch,
		lock:     lock.New(opts.Path),
		readOnly: opts.ReadOnly,
	}, nil
}

// Name returns the store label.
func (s *Store) Name() string { return s.opts.Name }

// Path returns the backing file path.
func (s *Store) Path() string { return s.opts.Path }

// LockPath returns the rebuild lock file path.
func (s *Store) LockPath() string { return s.lock.Path() }

// SetReadOnly toggles session-wide trust of loaded entries.
func (s *Store) SetReadOnly(readOnly bool) {
	s.mu.Lock()
	s.readOnly = readOnly
	s.mu.Unlock()
}

// Find returns entries whose family matches name and, when style is
// non-empty, whose subfamily matches style. Matching is case-insensitive.
// The staleness policy runs first.
func (s *Store) Find(ctx context.Context, name, style string) ([]types.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	var out []types.IndexEntry
	for i := range s.state.Entries {
		if s.state.Entries[i].Matches(name, style) {
			out = append(out, s.state.Entries[i])
		}
	}
	return out, nil
}

// EnsureFresh runs the staleness policy, rebuilding when required.
func (s *Store) EnsureFresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureFresh(ctx)
}

// Rebuild rescans under the rebuild lock. A non-forced rebuild adopts a
// concurrent process's result from within the debounce window and reuses
// cached entries. A forced rebuild extracts every file again and replaces a
// corrupt backing file.
func (s *Store) Rebuild(ctx context.Context, forced bool) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		if !forced {
			return Report{}, err
		}
		logger.Warn("replacing unreadable index", "store", s.opts.Name, "err", err)
		s.state, s.loaded = nil, true
	}
	return s.rebuild(ctx, forced, nil)
}

// AddEntry indexes a single file without a full rebuild.
func (s *Store) AddEntry(ctx context.Context, path string) (types.IndexEntry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.IndexEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureBuilt(ctx); err != nil {
		return types.IndexEntry{}, err
	}

	var added types.IndexEntry
	err = s.update(ctx, func(next *State) error {
		var cached *types.IndexEntry
		i := sort.Search(len(next.Entries), func(i int) bool { return next.Entries[i].Path >= abs })
		found := i < len(next.Entries) && next.Entries[i].Path == abs
		if found {
			cached = &next.Entries[i]
		}

		e := s.entry.ScanEntry(abs, cached)
		if e == nil {
			return fmt.Errorf("%w: %s", ErrNotIndexable, abs)
		}
		added = *e
		s.forgetSnapshot(filepath.Dir(abs))

		if found {
			next.Entries[i] = *e
		} else {
			next.Entries = append(next.Entries, types.IndexEntry{})
			copy(next.Entries[i+1:], next.Entries[i:])
			next.Entries[i] = *e
		}
		return nil
	})
	if err != nil {
		return types.IndexEntry{}, err
	}

	logger.Info("entry added", "store", s.opts.Name, "path", abs, "family", added.FamilyName, "style", added.Subfamily)
	return added, nil
}

// RemoveEntry drops the entry for path. It reports whether an entry existed.
func (s *Store) RemoveEntry(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return false, err
	}
	if s.state == nil {
		return false, nil
	}

	removed := false
	err = s.update(ctx, func(next *State) error {
		kept := next.Entries[:0]
		for _, e := range next.Entries {
			if e.Path == abs {
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		next.Entries = kept
		if !removed {
			return errNoChange
		}
		s.forgetSnapshot(filepath.Dir(abs))
		return nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.Info("entry removed", "store", s.opts.Name, "path", abs)
	return true, nil
}

// Entries returns a copy of the loaded entries without a staleness check.
func (s *Store) Entries() ([]types.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	if s.state == nil {
		return nil, nil
	}
	return append([]types.IndexEntry(nil), s.state.Entries...), nil
}

// LastScan returns the time of the last scan, zero if never built.
func (s *Store) LastScan() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil || s.state == nil {
		return time.Time{}
	}
	return time.Unix(s.state.LastScanTime, 0)
}

// Stats returns the counters of the most recent build.
func (s *Store) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// LastReport returns the report of the most recent rebuild in this process.
func (s *Store) LastReport() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// MetricsReport summarizes the store for the metrics collector.
func (s *Store) MetricsReport() stats.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := stats.Report{Stats: s.stats.Snapshot()}
	if s.state != nil {
		r.Entries = len(s.state.Entries)
		r.LastScan = time.Unix(s.state.LastScanTime, 0)
	}
	return r
}

// Clear deletes the backing file and snapshots under the rebuild lock.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lock.With(ctx, func() error {
		if err := os.Remove(s.opts.Path); err != nil && !isNotExist(err) {
			return err
		}
		if s.opts.SnapshotDir != "" {
			if err := os.RemoveAll(s.opts.SnapshotDir); err != nil {
				return err
			}
		}
		s.state, s.loaded = nil, true
		s.stats.Reset()
		logger.Info("index cleared", "store", s.opts.Name, "path", s.opts.Path)
		return nil
	})
}

// load reads the backing file once per process. Corruption is returned on
// every call until the file is replaced.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	state, err := readState(s.opts.Path)
	switch {
	case err == nil:
		s.state = state
		logger.Debug("index loaded", "store", s.opts.Name, "entries", len(state.Entries))
	case isNotExist(err):
		s.state = nil
	default:
		return err
	}
	s.loaded = true
	return nil
}

func (s *Store) ensureBuilt(ctx context.Context) error {
	if err := s.load(); err != nil {
		return err
	}
	if s.state != nil {
		return nil
	}
	_, err := s.rebuild(ctx, false, nil)
	return err
}

// ensureFresh is the staleness state machine.
func (s *Store) ensureFresh(ctx context.Context) error {
	if err := s.load(); err != nil {
		return err
	}

	if s.readOnly && s.state != nil {
		return nil
	}

	if s.state == nil {
		logger.Info("no index yet, building", "store", s.opts.Name)
		_, err := s.rebuild(ctx, false, nil)
		return err
	}

	now := s.opts.Now()
	age := now.Sub(time.Unix(s.state.LastScanTime, 0))
	if age >= 0 && age < s.opts.RebuildThreshold {
		return nil
	}

	if s.directoriesUnchanged() {
		logger.Debug("directories unchanged, extending trust", "store", s.opts.Name)
		s.touch(now, nil)
		return nil
	}

	live, err := s.listPaths(ctx)
	if err != nil {
		return err
	}
	if equalPaths(live, s.state.paths()) {
		logger.Debug("path set unchanged, extending trust", "store", s.opts.Name)
		s.touch(now, live)
		return nil
	}

	logger.Info("index stale, rebuilding", "store", s.opts.Name, "age", age.Round(time.Second))
	_, err = s.rebuild(ctx, false, live)
	return err
}

// rebuild must be called with s.mu held. live may carry an enumeration the
// caller already performed.
func (s *Store) rebuild(ctx context.Context, forced bool, live []string) (Report, error) {
	report := Report{ID: uuid.NewString(), Store: s.opts.Name, Forced: forced}
	log := logger.With("store", s.opts.Name, "rebuild", report.ID)

	if err := s.lock.Acquire(ctx); err != nil {
		return report, fmt.Errorf("acquire rebuild lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Warn("release rebuild lock", "err", err)
		}
	}()

	// base is the newest known state. Another process may have written the
	// backing file since it was loaded; its entries must seed the cache and
	// the skip decision, or files it indexed would look unindexable.
	base := s.state
	if !forced {
		disk, err := readState(s.opts.Path)
		switch {
		case err == nil:
			if s.shouldAdopt(disk) {
				s.state, s.loaded = disk, true
				report.Adopted = true
				report.Entries = len(disk.Entries)
				s.last = report
				log.Info("adopted concurrent rebuild", "entries", report.Entries)
				return report, nil
			}
			base = disk
		case isNotExist(err):
		default:
			return report, err
		}
	}

	now := s.opts.Now()
	s.stats.Reset()
	s.stats.Start(now)

	if live == nil {
		var err error
		if live, err = s.listPaths(ctx); err != nil {
			return report, err
		}
	}

	var existing map[string]types.IndexEntry
	if base != nil && !forced {
		existing = scanner.EntriesByPath(base.Entries)
	}

	p := s.plan(live, existing)
	defer p.close()

	entries, err := s.batch.ScanAll(ctx, p.scan, existing)
	if err != nil {
		return report, err
	}

	next := &State{
		Entries:         entries,
		LastScanTime:    now.Unix(),
		DirectoryMtimes: s.directoryMtimes(live),
	}
	if err := writeState(s.opts.Path, next); err != nil {
		return report, fmt.Errorf("write index: %w", err)
	}
	p.commit()

	s.stats.Finish(s.opts.Now())
	s.state, s.loaded = next, true

	report.Entries = len(entries)
	report.Changes = p.summary
	report.Stats = s.stats.Snapshot()
	s.last = report

	log.Info("rebuild complete",
		"entries", report.Entries,
		"added", p.summary.Added,
		"modified", p.summary.Modified,
		"removed", p.summary.Removed,
		"cache_hits", report.Stats.CacheHits,
		"cache_misses", report.Stats.CacheMisses,
		"errors", report.Stats.Errors,
		"validation_failures", report.Stats.ValidationFailures,
		"elapsed", report.Stats.Elapsed,
	)
	return report, nil
}

// shouldAdopt reports whether an on-disk state written by another process
// is recent enough to use instead of rescanning.
func (s *Store) shouldAdopt(disk *State) bool {
	age := s.opts.Now().Sub(time.Unix(disk.LastScanTime, 0))
	if age < 0 || age > s.opts.DebounceWindow {
		return false
	}
	return s.state == nil || disk.LastScanTime > s.state.LastScanTime
}

var errNoChange = errors.New("no change")

// update applies fn to a copy of the freshest state under the rebuild lock
// and writes the result. The on-disk state is re-read first so concurrent
// writers are not overwritten with stale data.
func (s *Store) update(ctx context.Context, fn func(next *State) error) error {
	return s.lock.With(ctx, func() error {
		base := s.state
		disk, err := readState(s.opts.Path)
		switch {
		case err == nil:
			base = disk
		case isNotExist(err):
		default:
			return err
		}
		if base == nil {
			base = &State{DirectoryMtimes: map[string]int64{}}
		}

		next := base.clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := writeState(s.opts.Path, next); err != nil {
			return fmt.Errorf("write index: %w", err)
		}
		s.state, s.loaded = next, true
		return nil
	})
}

// touch extends the trust window. The new timestamp is persisted only if the
// lock is free; a concurrent rebuild will write its own. The backing file is
// re-read under the lock so entries written by another process survive.
func (s *Store) touch(now time.Time, live []string) {
	mtimes := s.state.DirectoryMtimes
	if live != nil {
		mtimes = s.directoryMtimes(live)
	}

	if err := s.lock.TryAcquire(); err != nil {
		logger.Debug("skipping timestamp write", "store", s.opts.Name, "err", err)
		s.state.LastScanTime = now.Unix()
		s.state.DirectoryMtimes = mtimes
		return
	}
	defer func() { _ = s.lock.Release() }()

	base := s.state
	disk, err := readState(s.opts.Path)
	switch {
	case err == nil:
		if disk.LastScanTime > s.state.LastScanTime {
			logger.Debug("adopting newer index", "store", s.opts.Name)
			s.state = disk
			return
		}
		base = disk
	case isNotExist(err):
	default:
		logger.Warn("read index before timestamp write", "store", s.opts.Name, "err", err)
		s.state.LastScanTime = now.Unix()
		s.state.DirectoryMtimes = mtimes
		return
	}

	next := base.clone()
	next.LastScanTime = now.Unix()
	if live != nil {
		next.DirectoryMtimes = mtimes
	}
	if err := writeState(s.opts.Path, next); err != nil {
		logger.Warn("write index timestamp", "store", s.opts.Name, "err", err)
	}
	s.state = next
}

func (s *Store) listPaths(ctx context.Context) ([]string, error) {
	live, err := s.opts.Enumerator.ListPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list font paths: %w", err)
	}
	live = s.exclude.Filter(live)
	sort.Strings(live)
	return live, nil
}

// watchedDirectories returns the base directories plus every directory
// holding a live path.
func (s *Store) watchedDirectories(live []string) []string {
	set := make(map[string]struct{})
	for _, d := range s.opts.Enumerator.BaseDirectories() {
		set[filepath.Clean(d)] = struct{}{}
	}
	for _, p := range live {
		set[filepath.Dir(p)] = struct{}{}
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func (s *Store) directoryMtimes(live []string) map[string]int64 {
	out := make(map[string]int64)
	for _, d := range s.watchedDirectories(live) {
		info, err := os.Stat(d)
		if err != nil {
			continue
		}
		out[d] = info.ModTime().UnixNano()
	}
	return out
}

// directoriesUnchanged reports whether every recorded directory and every
// base directory still has the recorded mtime.
func (s *Store) directoriesUnchanged() bool {
	recorded := s.state.DirectoryMtimes
	dirs := make(map[string]struct{}, len(recorded))
	for d := range recorded {
		dirs[d] = struct{}{}
	}
	for _, d := range s.opts.Enumerator.BaseDirectories() {
		dirs[filepath.Clean(d)] = struct{}{}
	}

	for d := range dirs {
		want, ok := recorded[d]
		info, err := os.Stat(d)
		if err != nil {
			if ok {
				return false
			}
			continue
		}
		if !ok || info.ModTime().UnixNano() != want {
			return false
		}
	}
	return true
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
