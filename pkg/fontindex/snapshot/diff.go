package snapshot

import "sort"

// ChangeKind tags a DirectoryChange.
type ChangeKind int

// Change kinds. Exactly one applies per filename seen in either snapshot.
const (
	Unchanged ChangeKind = iota
	Added
	Modified
	Removed
)

// String returns the lowercase kind name.
func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// DirectoryChange describes what happened to one filename between snapshots.
// Old is nil for Added; New is nil for Removed.
type DirectoryChange struct {
	Kind ChangeKind
	Name string
	Old  *FileInfo
	New  *FileInfo
}

// Diff compares two snapshots and returns one change per filename present in
// either, sorted by filename. A nil snapshot is treated as empty.
func Diff(prev, curr *DirectorySnapshot) []DirectoryChange {
	seen := make(map[string]struct{}, prev.Len()+curr.Len())
	for _, name := range prev.Names() {
		seen[name] = struct{}{}
	}
	for _, name := range curr.Names() {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	changes := make([]DirectoryChange, 0, len(names))
	for _, name := range names {
		oldInfo, inOld := prev.Get(name)
		newInfo, inNew := curr.Get(name)

		switch {
		case inOld && inNew:
			kind := Unchanged
			if !oldInfo.sameAs(newInfo) {
				kind = Modified
			}
			changes = append(changes, DirectoryChange{Kind: kind, Name: name, Old: &oldInfo, New: &newInfo})
		case inNew:
			changes = append(changes, DirectoryChange{Kind: Added, Name: name, New: &newInfo})
		default:
			changes = append(changes, DirectoryChange{Kind: Removed, Name: name, Old: &oldInfo})
		}
	}

	return changes
}

// Summary counts changes by kind.
type Summary struct {
	Added     int `json:"added" yaml:"added"`
	Modified  int `json:"modified" yaml:"modified"`
	Removed   int `json:"removed" yaml:"removed"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// Add accumulates the given changes into the summary.
func (s *Summary) Add(changes []DirectoryChange) {
	for _, c := range changes {
		switch c.Kind {
		case Added:
			s.Added++
		case Modified:
			s.Modified++
		case Removed:
			s.Removed++
		case Unchanged:
			s.Unchanged++
		}
	}
}

// Changed reports whether any file was added, modified, or removed.
func (s Summary) Changed() bool {
	return s.Added+s.Modified+s.Removed > 0
}
