package index

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// CorruptionError reports a backing file that cannot be trusted.
// It matches types.ErrIndexCorrupt under errors.Is.
type CorruptionError struct {
	Path   string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("font index %s is corrupt (%s); delete it and rebuild", e.Path, e.Reason)
}

func (e *CorruptionError) Unwrap() error { return types.ErrIndexCorrupt }

// State is the persisted content of one store.
type State struct {
	Entries []types.IndexEntry

	// LastScanTime is Unix seconds.
	LastScanTime int64

	// DirectoryMtimes maps each watched directory to its mtime in UnixNano.
	DirectoryMtimes map[string]int64
}

// document is the on-disk layout.
type document struct {
	LastScanTime    int64              `yaml:"last_scan_time"`
	DirectoryMtimes []string           `yaml:"directory_mtimes"`
	Fonts           []types.IndexEntry `yaml:"fonts"`
}

// paths returns the entry paths in order.
func (s *State) paths() []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Path
	}
	return out
}

// clone returns a deep copy.
func (s *State) clone() *State {
	c := &State{
		Entries:         append([]types.IndexEntry(nil), s.Entries...),
		LastScanTime:    s.LastScanTime,
		DirectoryMtimes: make(map[string]int64, len(s.DirectoryMtimes)),
	}
	for k, v := range s.DirectoryMtimes {
		c.DirectoryMtimes[k] = v
	}
	return c
}

// Encode renders the state deterministically: entries sorted by path and
// directory mtimes sorted by directory.
func (s *State) Encode() ([]byte, error) {
	entries := append([]types.IndexEntry(nil), s.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	dirs := make([]string, 0, len(s.DirectoryMtimes))
	for d := range s.DirectoryMtimes {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	mtimes := make([]string, len(dirs))
	for i, d := range dirs {
		mtimes[i] = d + ":" + strconv.FormatInt(s.DirectoryMtimes[d], 10)
	}

	doc := document{
		LastScanTime:    s.LastScanTime,
		DirectoryMtimes: mtimes,
		Fonts:           entries,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeState parses and validates a backing file. path is used only in
// error messages. Every failure is a *CorruptionError.
func DecodeState(path string, data []byte) (*State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CorruptionError{Path: path, Reason: "empty file"}
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptionError{Path: path, Reason: err.Error()}
	}

	state := &State{
		Entries:         doc.Fonts,
		LastScanTime:    doc.LastScanTime,
		DirectoryMtimes: make(map[string]int64, len(doc.DirectoryMtimes)),
	}

	for _, pair := range doc.DirectoryMtimes {
		i := strings.LastIndex(pair, ":")
		if i <= 0 {
			return nil, &CorruptionError{Path: path, Reason: fmt.Sprintf("malformed directory mtime %q", pair)}
		}
		mtime, err := strconv.ParseInt(pair[i+1:], 10, 64)
		if err != nil {
			return nil, &CorruptionError{Path: path, Reason: fmt.Sprintf("malformed directory mtime %q", pair)}
		}
		state.DirectoryMtimes[pair[:i]] = mtime
	}

	seen := make(map[string]struct{}, len(state.Entries))
	for i := range state.Entries {
		e := &state.Entries[i]
		if err := e.Validate(); err != nil {
			return nil, &CorruptionError{Path: path, Reason: err.Error()}
		}
		if _, dup := seen[e.Path]; dup {
			return nil, &CorruptionError{Path: path, Reason: fmt.Sprintf("duplicate entry %q", e.Path)}
		}
		seen[e.Path] = struct{}{}
	}
	sort.Slice(state.Entries, func(i, j int) bool { return state.Entries[i].Path < state.Entries[j].Path })

	return state, nil
}

// readState loads the backing file. A missing file returns an error
// matching os.ErrNotExist.
func readState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeState(path, data)
}

// writeState replaces the backing file atomically: the new content is
// written to a sibling temp file and renamed over the old one.
func writeState(path string, s *State) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// isNotExist reports whether err means the backing file has never been written.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
