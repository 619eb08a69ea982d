// Package scanner turns candidate font paths into index entries.
//
// EntryScanner handles one file: exclusion check, cache reuse by
// (size, mtime), then metadata extraction. BatchScanner fans a path list out
// across a small worker pool and merges the per-worker results.
package scanner

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

const (
	// MaxWorkers caps the pool to bound I/O contention on font directories.
	MaxWorkers = 8

	// DefaultParallelThreshold is the path count above which scanning
	// runs in parallel.
	DefaultParallelThreshold = 100
)

// ErrInvalidOptions is returned by Validate for out-of-range options.
var ErrInvalidOptions = errors.New("invalid scan options")

// Progress reports batch progress.
type Progress struct {
	Done  int64
	Total int64
	Path  string
}

// Options configures a BatchScanner.
type Options struct {
	// Workers is the pool size. Zero selects DefaultWorkers. Values above
	// MaxWorkers are capped.
	Workers int

	// ParallelThreshold is the path count above which the pool is used.
	// Smaller batches are scanned sequentially. Zero selects
	// DefaultParallelThreshold.
	ParallelThreshold int

	// OnProgress is called after each path. It must be safe to call from
	// multiple goroutines.
	OnProgress func(Progress)
}

// DefaultWorkers returns the lesser of the CPU count and MaxWorkers.
func DefaultWorkers() int {
	return min(runtime.NumCPU(), MaxWorkers)
}

// DefaultOptions returns options suitable for most systems.
func DefaultOptions() Options {
	return Options{
		Workers:           DefaultWorkers(),
		ParallelThreshold: DefaultParallelThreshold,
	}
}

// Validate rejects negative values and fills in defaults for unset ones.
func (o *Options) Validate() error {
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidOptions, o.Workers)
	}
	if o.ParallelThreshold < 0 {
		return fmt.Errorf("%w: parallel threshold %d", ErrInvalidOptions, o.ParallelThreshold)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers()
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.ParallelThreshold == 0 {
		o.ParallelThreshold = DefaultParallelThreshold
	}
	return nil
}

// EntriesByPath indexes entries by path for use as a ScanAll cache.
func EntriesByPath(entries []types.IndexEntry) map[string]types.IndexEntry {
	m := make(map[string]types.IndexEntry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m
}
