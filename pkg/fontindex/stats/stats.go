// Package stats accumulates per-build counters for an index store.
//
// IndexStats is the only object mutated by scanner workers during a
// parallel batch; every update goes through a single mutex.
package stats

import (
	"sync"
	"time"
)

// IndexStats counts cache hits, misses and failures for one build.
type IndexStats struct {
	mu sync.Mutex

	cacheHits          int64
	cacheMisses        int64
	errors             int64
	validationFailures int64
	skipped            int64

	started time.Time
	elapsed time.Duration
}

// New returns zeroed stats.
func New() *IndexStats {
	return &IndexStats{}
}

// RecordCacheHit counts an entry reused because size and mtime matched.
func (s *IndexStats) RecordCacheHit() {
	s.mu.Lock()
	s.cacheHits++
	s.mu.Unlock()
}

// RecordCacheMiss counts an extractor invocation.
func (s *IndexStats) RecordCacheMiss() {
	s.mu.Lock()
	s.cacheMisses++
	s.mu.Unlock()
}

// RecordError counts a file the extractor could not recognize.
func (s *IndexStats) RecordError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

// RecordValidationFailure counts a recognized but structurally broken font.
func (s *IndexStats) RecordValidationFailure() {
	s.mu.Lock()
	s.validationFailures++
	s.mu.Unlock()
}

// RecordSkipped counts a file skipped without extraction because it was
// previously found unindexable and has not changed since.
func (s *IndexStats) RecordSkipped() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

// Start marks the beginning of a build.
func (s *IndexStats) Start(now time.Time) {
	s.mu.Lock()
	s.started = now
	s.elapsed = 0
	s.mu.Unlock()
}

// Finish records the elapsed time since Start.
func (s *IndexStats) Finish(now time.Time) {
	s.mu.Lock()
	if !s.started.IsZero() {
		s.elapsed = now.Sub(s.started)
	}
	s.mu.Unlock()
}

// Reset zeroes every counter.
func (s *IndexStats) Reset() {
	s.mu.Lock()
	s.cacheHits, s.cacheMisses, s.errors, s.validationFailures, s.skipped = 0, 0, 0, 0, 0
	s.started = time.Time{}
	s.elapsed = 0
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of the counters.
func (s *IndexStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CacheHits:          s.cacheHits,
		CacheMisses:        s.cacheMisses,
		Errors:             s.errors,
		ValidationFailures: s.validationFailures,
		Skipped:            s.skipped,
		Elapsed:            s.elapsed,
	}
}

// Snapshot is a point-in-time copy of IndexStats.
type Snapshot struct {
	CacheHits          int64         `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses        int64         `json:"cache_misses" yaml:"cache_misses"`
	Errors             int64         `json:"errors" yaml:"errors"`
	ValidationFailures int64         `json:"validation_failures" yaml:"validation_failures"`
	Skipped            int64         `json:"skipped" yaml:"skipped"`
	Elapsed            time.Duration `json:"elapsed" yaml:"elapsed"`
}

// FilesScanned is the number of files that reached the cache check.
func (s Snapshot) FilesScanned() int64 {
	return s.CacheHits + s.CacheMisses
}

// HitRate is the fraction of scanned files served from cache, 0 when none.
func (s Snapshot) HitRate() float64 {
	total := s.FilesScanned()
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}
