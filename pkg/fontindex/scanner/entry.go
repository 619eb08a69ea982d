package scanner

import (
	"errors"
	"os"

	"github.com/jamesainslie/fontindex/pkg/fontindex/extract"
	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
	"github.com/jamesainslie/fontindex/pkg/fontindex/stats"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

var logger = logging.Get("scanner")

// EntryScanner builds the index entry for a single file.
type EntryScanner struct {
	extractor extract.Extractor
	exclude   *Exclusions
	stats     *stats.IndexStats
}

// NewEntryScanner returns a scanner recording into st. exclude may be nil.
func NewEntryScanner(extractor extract.Extractor, exclude *Exclusions, st *stats.IndexStats) *EntryScanner {
	if st == nil {
		st = stats.New()
	}
	return &EntryScanner{extractor: extractor, exclude: exclude, stats: st}
}

// Stats returns the accumulator the scanner records into.
func (s *EntryScanner) Stats() *stats.IndexStats {
	return s.stats
}

// ScanEntry returns the entry for path, or nil when the file is skipped.
// A cached entry whose size and mtime match the live file is returned
// unchanged without invoking the extractor.
func (s *EntryScanner) ScanEntry(path string, cached *types.IndexEntry) *types.IndexEntry {
	if s.exclude.Match(path) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Debug("stat failed", "path", path, "err", err)
		s.stats.RecordError()
		return nil
	}
	size, mtime := info.Size(), info.ModTime().Unix()

	if cached != nil && cached.FileSize == size && cached.FileMtime == mtime {
		s.stats.RecordCacheHit()
		entry := *cached
		return &entry
	}

	s.stats.RecordCacheMiss()
	meta, err := s.extractor.Extract(path)
	switch {
	case errors.Is(err, extract.ErrValidation):
		logger.Warn("invalid font", "path", path, "err", err)
		s.stats.RecordValidationFailure()
		return nil
	case err != nil:
		logger.Debug("unrecognized file", "path", path, "err", err)
		s.stats.RecordError()
		return nil
	}

	if !meta.Complete() {
		logger.Debug("incomplete metadata", "path", path)
		return nil
	}

	return &types.IndexEntry{
		Path:                   path,
		FullName:               meta.FullName,
		FamilyName:             meta.FamilyName,
		Subfamily:              meta.Subfamily,
		PreferredFamilyName:    meta.PreferredFamilyName,
		PreferredSubfamilyName: meta.PreferredSubfamilyName,
		FileSize:               size,
		FileMtime:              mtime,
	}
}
