package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSFNT_GoRegular(t *testing.T) {
	path := writeFile(t, "Go-Regular.ttf", goregular.TTF)

	md, err := NewSFNT().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Go", md.FamilyName)
	assert.Equal(t, "Regular", md.Subfamily)
	assert.NotEmpty(t, md.FullName)
	assert.True(t, md.Complete())
}

func TestSFNT_Unrecognized(t *testing.T) {
	path := writeFile(t, "readme.ttf", []byte("this is not a font at all"))

	_, err := NewSFNT().Extract(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecognized))
	assert.False(t, errors.Is(err, ErrValidation))

	var unrec *UnrecognizedError
	require.ErrorAs(t, err, &unrec)
	assert.Equal(t, path, unrec.Path)
}

func TestSFNT_TooShort(t *testing.T) {
	path := writeFile(t, "tiny.ttf", []byte{0x00})

	_, err := NewSFNT().Extract(path)
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestSFNT_Corrupt(t *testing.T) {
	// A valid TrueType tag followed by garbage tables.
	data := append([]byte{0x00, 0x01, 0x00, 0x00}, []byte("\x00\x09garbage-table-directory")...)
	path := writeFile(t, "broken.ttf", data)

	_, err := NewSFNT().Extract(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrUnrecognized))
}

func TestSFNT_MissingFile(t *testing.T) {
	_, err := NewSFNT().Extract(filepath.Join(t.TempDir(), "gone.ttf"))
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestFunc(t *testing.T) {
	var called string
	f := Func(func(path string) (Metadata, error) {
		called = path
		return Metadata{FullName: "X", FamilyName: "X", Subfamily: "Regular"}, nil
	})

	md, err := f.Extract("/x.ttf")
	require.NoError(t, err)
	assert.Equal(t, "/x.ttf", called)
	assert.True(t, md.Complete())
}

func TestMetadataComplete(t *testing.T) {
	assert.False(t, Metadata{FamilyName: "Arial", Subfamily: "Bold"}.Complete())
	assert.False(t, Metadata{FullName: "Arial", Subfamily: "Bold"}.Complete())
	assert.False(t, Metadata{FullName: "Arial", FamilyName: "Arial"}.Complete())
}
