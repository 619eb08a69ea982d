package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name string, size, mtime int64) FileInfo {
	return FileInfo{
		Name:      name,
		Path:      "/fonts/" + name,
		Size:      size,
		ModTime:   mtime,
		Signature: "sig",
	}
}

func snapOf(files ...FileInfo) *DirectorySnapshot {
	s := &DirectorySnapshot{Dir: "/fonts", Files: make(map[string]FileInfo), ScannedAt: time.Now()}
	for _, f := range files {
		s.Files[f.Name] = f
	}
	return s
}

func TestDiff_AddedModifiedRemoved(t *testing.T) {
	d1 := snapOf(record("A.ttf", 1, 1), record("B.ttf", 2, 2), record("C.ttf", 3, 3))
	d2 := snapOf(record("B.ttf", 20, 2), record("D.ttf", 4, 4), record("E.ttf", 5, 5))

	changes := Diff(d1, d2)
	require.Len(t, changes, 5)

	got := make(map[string]ChangeKind)
	for _, c := range changes {
		got[c.Name] = c.Kind
	}
	assert.Equal(t, map[string]ChangeKind{
		"A.ttf": Removed,
		"B.ttf": Modified,
		"C.ttf": Removed,
		"D.ttf": Added,
		"E.ttf": Added,
	}, got)
}

func TestDiff_CarriesRecords(t *testing.T) {
	d1 := snapOf(record("A.ttf", 1, 1), record("B.ttf", 2, 2))
	d2 := snapOf(record("B.ttf", 2, 2), record("C.ttf", 3, 3))

	for _, c := range Diff(d1, d2) {
		switch c.Kind {
		case Removed:
			assert.NotNil(t, c.Old)
			assert.Nil(t, c.New)
		case Added:
			assert.Nil(t, c.Old)
			assert.NotNil(t, c.New)
		case Unchanged, Modified:
			assert.NotNil(t, c.Old)
			assert.NotNil(t, c.New)
		}
	}
}

func TestDiff_SignatureOnlyChangeIsModified(t *testing.T) {
	a := record("A.ttf", 1, 1)
	b := a
	b.Signature = "other"

	changes := Diff(snapOf(a), snapOf(b))
	require.Len(t, changes, 1)
	assert.Equal(t, Modified, changes[0].Kind)
}

func TestDiff_Deterministic(t *testing.T) {
	d1 := snapOf(record("A.ttf", 1, 1), record("B.ttf", 2, 2), record("C.ttf", 3, 3))
	d2 := snapOf(record("B.ttf", 2, 2), record("Z.ttf", 4, 4))

	first := Diff(d1, d2)
	for range 10 {
		assert.Equal(t, first, Diff(d1, d2))
	}
}

func TestDiff_NilSnapshots(t *testing.T) {
	assert.Empty(t, Diff(nil, nil))

	changes := Diff(nil, snapOf(record("A.ttf", 1, 1)))
	require.Len(t, changes, 1)
	assert.Equal(t, Added, changes[0].Kind)

	changes = Diff(snapOf(record("A.ttf", 1, 1)), nil)
	require.Len(t, changes, 1)
	assert.Equal(t, Removed, changes[0].Kind)
}

func TestSummary(t *testing.T) {
	d1 := snapOf(record("A.ttf", 1, 1), record("B.ttf", 2, 2), record("C.ttf", 3, 3))
	d2 := snapOf(record("B.ttf", 20, 2), record("C.ttf", 3, 3), record("D.ttf", 4, 4))

	var s Summary
	s.Add(Diff(d1, d2))
	assert.Equal(t, Summary{Added: 1, Modified: 1, Removed: 1, Unchanged: 1}, s)
	assert.True(t, s.Changed())

	var none Summary
	none.Add(Diff(d2, d2))
	assert.False(t, none.Changed())
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.ttf"), []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Create(dir, Options{
		Include: func(path string) bool { return filepath.Ext(path) == ".ttf" },
		Now:     func() time.Time { return fixed },
	})

	assert.Equal(t, dir, snap.Dir)
	assert.Equal(t, fixed, snap.ScannedAt)
	assert.Equal(t, []string{"A.ttf"}, snap.Names())

	f, ok := snap.Get("A.ttf")
	require.True(t, ok)
	assert.Equal(t, int64(4), f.Size)
	assert.Equal(t, filepath.Join(dir, "A.ttf"), f.Path)
	assert.NotEmpty(t, f.Signature)
}

func TestCreate_MissingDirectoryIsEmpty(t *testing.T) {
	snap := Create(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Equal(t, 0, snap.Len())
}

func TestCreate_UnreadableDirectoryIsEmpty(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.ttf"), []byte("aaaa"), 0o644))
	require.NoError(t, os.Chmod(dir, 0o000))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	snap := Create(dir, Options{})
	assert.Equal(t, dir, snap.Dir)
	assert.Equal(t, 0, snap.Len())
}

func TestCreate_NewSnapshotEachTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.ttf")
	require.NoError(t, os.WriteFile(path, []byte("aaaa"), 0o644))

	first := Create(dir, Options{})
	require.NoError(t, os.WriteFile(path, []byte("aaaaaaaa"), 0o644))
	second := Create(dir, Options{})

	f1, _ := first.Get("A.ttf")
	f2, _ := second.Get("A.ttf")
	assert.Equal(t, int64(4), f1.Size, "earlier snapshot must not change")
	assert.Equal(t, int64(8), f2.Size)
}

func TestSignature_ContentMode(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ttf")
	b := filepath.Join(dir, "b.ttf")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("diff"), 0o644))
	mtime := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(a, mtime, mtime))
	require.NoError(t, os.Chtimes(b, mtime, mtime))

	ia, err := os.Stat(a)
	require.NoError(t, err)
	ib, err := os.Stat(b)
	require.NoError(t, err)

	statA, err := Signature(a, ia, SignatureStat)
	require.NoError(t, err)
	statB, err := Signature(b, ib, SignatureStat)
	require.NoError(t, err)
	assert.Equal(t, statA, statB, "stat signatures ignore content")

	contentA, err := Signature(a, ia, SignatureContent)
	require.NoError(t, err)
	contentB, err := Signature(b, ib, SignatureContent)
	require.NoError(t, err)
	assert.NotEqual(t, contentA, contentB)
}
