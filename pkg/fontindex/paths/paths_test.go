package paths

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("font"), 0o644))
}

func TestWalker_ListPaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Arial.ttf"))
	touch(t, filepath.Join(root, "sub", "Helvetica.OTF"))
	touch(t, filepath.Join(root, "sub", "deep", "Collection.ttc"))
	touch(t, filepath.Join(root, "readme.txt"))

	w, err := NewWalker([]string{root}, nil)
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Arial.ttf"),
		filepath.Join(root, "sub", "Helvetica.OTF"),
		filepath.Join(root, "sub", "deep", "Collection.ttc"),
	}, got)
	assert.Equal(t, []string{root}, w.BaseDirectories())
}

func TestWalker_UnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	touch(t, filepath.Join(root, "Arial.ttf"))
	touch(t, filepath.Join(root, "locked", "Hidden.ttf"))
	touch(t, filepath.Join(root, "open", "Verdana.ttf"))

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	w, err := NewWalker([]string{root}, nil)
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Arial.ttf"),
		filepath.Join(root, "open", "Verdana.ttf"),
	}, got)
}

func TestWalker_UnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	touch(t, filepath.Join(root, "Arial.ttf"))
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	w, err := NewWalker([]string{root}, nil)
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalker_GlobRoot(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "One.ttf"))
	touch(t, filepath.Join(root, "b", "Two.ttf"))

	w, err := NewWalker([]string{filepath.Join(root, "a", "*.ttf")}, nil)
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a", "One.ttf")}, got)
	assert.Equal(t, []string{filepath.Join(root, "a")}, w.BaseDirectories())
}

func TestWalker_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "A.ttf"))
	touch(t, filepath.Join(root, "B.woff"))

	w, err := NewWalker([]string{root}, []string{".woff"})
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "B.woff")}, got)
}

func TestWalker_MissingRootAndDedupe(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "A.ttf"))

	w, err := NewWalker([]string{root, root + "/", filepath.Join(root, "missing")}, nil)
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, w.BaseDirectories(), 2)
}

func TestWalker_Symlink(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "Real.ttf")
	touch(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "Linked.ttf")))

	w, err := NewWalker([]string{root}, nil)
	require.NoError(t, err)

	got, err := w.ListPaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Linked.ttf")}, got)
}

func TestWalker_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "A.ttf"))

	w, err := NewWalker([]string{root}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.ListPaths(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticPrefix(t *testing.T) {
	assert.Equal(t, "/usr/share/fonts", staticPrefix("/usr/share/fonts/**/*.ttf"))
	assert.Equal(t, "/", staticPrefix("/*"))
}
