// Package snapshot records point-in-time listings of font directories and
// computes what changed between two listings.
//
// A DirectorySnapshot is immutable once created; rescanning a directory always
// produces a new snapshot. Diff is a pure function over two snapshots.
// Snapshots can be persisted per directory in a badger-backed Store so the next
// rebuild can diff against them.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
)

var logger = logging.Get("snapshot")

// FileInfo is the per-file record held by a snapshot.
type FileInfo struct {
	Name      string // base name within the snapshot directory
	Path      string // absolute path
	Size      int64  // bytes
	ModTime   int64  // UnixNano
	Signature string
}

// sameAs reports whether two records describe an unchanged file.
func (f FileInfo) sameAs(o FileInfo) bool {
	return f.Size == o.Size && f.ModTime == o.ModTime && f.Signature == o.Signature
}

// DirectorySnapshot is an immutable listing of one directory's files.
type DirectorySnapshot struct {
	Dir       string
	Files     map[string]FileInfo // keyed by Name
	ScannedAt time.Time
}

// Options configures Create.
type Options struct {
	// Mode selects the signature algorithm.
	Mode SignatureMode

	// Include filters candidate files by absolute path. Nil includes every
	// regular file.
	Include func(path string) bool

	// Now overrides the snapshot timestamp source.
	Now func() time.Time
}

// Create lists dir (non-recursively) and returns a snapshot of its files.
// A directory that cannot be listed yields an empty snapshot rather than an
// error, so one unreadable directory never aborts a scan.
func Create(dir string, opts Options) *DirectorySnapshot {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	snap := &DirectorySnapshot{
		Dir:       dir,
		Files:     make(map[string]FileInfo),
		ScannedAt: now(),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("listing directory failed, treating as empty", "dir", dir, "err", err)
		return snap
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if opts.Include != nil && !opts.Include(path) {
			continue
		}

		// Stat follows symlinks so linked font files are recorded by target.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		sig, err := Signature(path, info, opts.Mode)
		if err != nil {
			logger.Debug("signature failed", "path", path, "err", err)
			continue
		}

		snap.Files[entry.Name()] = FileInfo{
			Name:      entry.Name(),
			Path:      path,
			Size:      info.Size(),
			ModTime:   info.ModTime().UnixNano(),
			Signature: sig,
		}
	}

	return snap
}

// Len returns the number of files in the snapshot.
func (s *DirectorySnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Files)
}

// Get returns the record for name.
func (s *DirectorySnapshot) Get(name string) (FileInfo, bool) {
	if s == nil {
		return FileInfo{}, false
	}
	f, ok := s.Files[name]
	return f, ok
}

// Names returns the snapshot's filenames in sorted order.
func (s *DirectorySnapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode serializes the snapshot using gob.
func (s *DirectorySnapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes gob bytes into the snapshot.
func (s *DirectorySnapshot) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(s)
}
