package index

import (
	"errors"
	"path/filepath"
	"sort"

	"github.com/jamesainslie/fontindex/pkg/fontindex/snapshot"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// scanPlan is the work list for one rebuild together with the directory
// snapshots to persist once the backing file is written.
type scanPlan struct {
	scan    []string
	summary snapshot.Summary

	store *snapshot.Store
	snaps []*snapshot.DirectorySnapshot
	stale []string
}

// plan diffs each directory holding live paths against its stored snapshot.
// Files unchanged since the last rebuild that still have no entry were found
// unindexable then and are not handed to the extractor again. Must be
// called with the rebuild lock held: the snapshot store is single-writer.
func (s *Store) plan(live []string, existing map[string]types.IndexEntry) *scanPlan {
	p := &scanPlan{scan: live}
	if s.opts.SnapshotDir == "" {
		return p
	}

	store, err := snapshot.OpenStore(s.opts.SnapshotDir)
	if err != nil {
		logger.Warn("snapshot store unavailable", "store", s.opts.Name, "err", err)
		return p
	}
	p.store = store

	liveSet := make(map[string]struct{}, len(live))
	byDir := make(map[string]struct{})
	for _, path := range live {
		liveSet[path] = struct{}{}
		byDir[filepath.Dir(path)] = struct{}{}
	}
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	include := func(path string) bool {
		_, ok := liveSet[path]
		return ok
	}

	skip := make(map[string]struct{})
	for _, dir := range dirs {
		curr := snapshot.Create(dir, snapshot.Options{
			Mode:    s.opts.SignatureMode,
			Include: include,
			Now:     s.opts.Now,
		})
		prev, err := store.Get(dir)
		if err != nil && !errors.Is(err, snapshot.ErrNotFound) {
			logger.Debug("snapshot unreadable", "dir", dir, "err", err)
		}

		changes := snapshot.Diff(prev, curr)
		p.summary.Add(changes)
		p.snaps = append(p.snaps, curr)

		if existing == nil {
			continue
		}
		for _, ch := range changes {
			if ch.Kind != snapshot.Unchanged {
				continue
			}
			if _, ok := existing[ch.New.Path]; !ok {
				skip[ch.New.Path] = struct{}{}
			}
		}
	}

	known, err := store.Dirs()
	if err != nil {
		logger.Debug("listing snapshots failed", "err", err)
	}
	for _, dir := range known {
		if _, ok := byDir[dir]; ok {
			continue
		}
		prev, err := store.Get(dir)
		if err == nil {
			p.summary.Add(snapshot.Diff(prev, nil))
		}
		p.stale = append(p.stale, dir)
	}

	if len(skip) > 0 {
		scan := make([]string, 0, len(live)-len(skip))
		for _, path := range live {
			if _, ok := skip[path]; ok {
				s.stats.RecordSkipped()
				continue
			}
			scan = append(scan, path)
		}
		p.scan = scan
	}
	return p
}

// commit persists the new snapshots. Failures only cost the skip cache.
func (p *scanPlan) commit() {
	if p.store == nil {
		return
	}
	if err := p.store.PutBatch(p.snaps); err != nil {
		logger.Warn("saving snapshots failed", "err", err)
	}
	for _, dir := range p.stale {
		if err := p.store.Delete(dir); err != nil {
			logger.Debug("deleting snapshot failed", "dir", dir, "err", err)
		}
	}
}

func (p *scanPlan) close() {
	if p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		logger.Warn("closing snapshot store", "err", err)
	}
}

// forgetSnapshot drops the stored snapshot of dir so its files are
// reconsidered on the next rebuild. Must be called with the rebuild lock held.
func (s *Store) forgetSnapshot(dir string) {
	if s.opts.SnapshotDir == "" {
		return
	}
	store, err := snapshot.OpenStore(s.opts.SnapshotDir)
	if err != nil {
		logger.Debug("snapshot store unavailable", "err", err)
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Delete(dir); err != nil {
		logger.Debug("deleting snapshot failed", "dir", dir, "err", err)
	}
}
