package scanner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// BatchScanner scans many paths, in parallel for large batches.
type BatchScanner struct {
	entry *EntryScanner
	opts  Options

	done atomic.Int64
}

// NewBatchScanner returns a batch scanner over entry.
func NewBatchScanner(entry *EntryScanner, opts Options) (*BatchScanner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &BatchScanner{entry: entry, opts: opts}, nil
}

// ScanAll scans paths, reusing entries from existing where size and mtime
// still match. Skipped files are dropped. The result is sorted by path.
// Only context cancellation is returned as an error; in that case no
// partial result is returned.
func (b *BatchScanner) ScanAll(ctx context.Context, paths []string, existing map[string]types.IndexEntry) ([]types.IndexEntry, error) {
	b.done.Store(0)

	var (
		entries []types.IndexEntry
		err     error
	)
	if len(paths) > b.opts.ParallelThreshold && b.opts.Workers > 1 {
		entries, err = b.scanParallel(ctx, paths, existing)
	} else {
		entries, err = b.scanSequential(ctx, paths, existing)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (b *BatchScanner) scanSequential(ctx context.Context, paths []string, existing map[string]types.IndexEntry) ([]types.IndexEntry, error) {
	entries := make([]types.IndexEntry, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e := b.scanOne(p, existing, len(paths)); e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (b *BatchScanner) scanParallel(ctx context.Context, paths []string, existing map[string]types.IndexEntry) ([]types.IndexEntry, error) {
	workers := min(b.opts.Workers, len(paths))
	logger.Debug("parallel scan", "paths", len(paths), "workers", workers)

	work := make(chan string, workers*2)
	results := make([][]types.IndexEntry, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var local []types.IndexEntry
			for p := range work {
				if e := b.scanOne(p, existing, len(paths)); e != nil {
					local = append(local, *e)
				}
			}
			results[w] = local
		}(w)
	}

	var cancelled error
feed:
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case work <- p:
		}
	}
	close(work)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	var merged []types.IndexEntry
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

func (b *BatchScanner) scanOne(path string, existing map[string]types.IndexEntry, total int) *types.IndexEntry {
	var cached *types.IndexEntry
	if e, ok := existing[path]; ok {
		cached = &e
	}
	entry := b.entry.ScanEntry(path, cached)

	done := b.done.Add(1)
	if b.opts.OnProgress != nil {
		b.opts.OnProgress(Progress{Done: done, Total: int64(total), Path: path})
	}
	return entry
}
