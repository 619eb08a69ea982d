package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fontindex/pkg/fontindex/extract"
	"github.com/jamesainslie/fontindex/pkg/fontindex/stats"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

// fakeExtractor reads "family|subfamily" from the file body.
// Bodies "invalid" and "unknown" produce the classified errors.
type fakeExtractor struct {
	calls atomic.Int64
}

func (f *fakeExtractor) Extract(path string) (extract.Metadata, error) {
	f.calls.Add(1)
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Metadata{}, err
	}
	body := strings.TrimSpace(string(data))
	switch body {
	case "invalid":
		return extract.Metadata{}, &extract.ValidationError{Path: path, Message: "bad table directory"}
	case "unknown":
		return extract.Metadata{}, &extract.UnrecognizedError{Path: path, Message: "not a font"}
	}
	family, sub, _ := strings.Cut(body, "|")
	return extract.Metadata{
		FullName:   strings.TrimSpace(family + " " + sub),
		FamilyName: family,
		Subfamily:  sub,
	}, nil
}

func writeFont(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestScanEntry_Extracts(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "Arial-Bold.ttf", "Arial|Bold")

	fx := &fakeExtractor{}
	st := stats.New()
	s := NewEntryScanner(fx, nil, st)

	e := s.ScanEntry(path, nil)
	require.NotNil(t, e)
	assert.Equal(t, "Arial", e.FamilyName)
	assert.Equal(t, "Bold", e.Subfamily)
	assert.Equal(t, "Arial Bold", e.FullName)
	assert.Equal(t, int64(len("Arial|Bold")), e.FileSize)
	assert.Equal(t, int64(1), st.Snapshot().CacheMisses)
}

func TestScanEntry_CacheHit(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "Arial.ttf", "Arial|Regular")
	info, err := os.Stat(path)
	require.NoError(t, err)

	cached := &types.IndexEntry{
		Path: path, FullName: "Cached", FamilyName: "Cached", Subfamily: "Regular",
		FileSize: info.Size(), FileMtime: info.ModTime().Unix(),
	}

	fx := &fakeExtractor{}
	st := stats.New()
	e := NewEntryScanner(fx, nil, st).ScanEntry(path, cached)

	require.NotNil(t, e)
	assert.Equal(t, "Cached", e.FamilyName)
	assert.Zero(t, fx.calls.Load())
	assert.Equal(t, int64(1), st.Snapshot().CacheHits)
	assert.Zero(t, st.Snapshot().CacheMisses)
}

func TestScanEntry_StaleCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "Arial.ttf", "Arial|Regular")
	info, err := os.Stat(path)
	require.NoError(t, err)

	cached := &types.IndexEntry{
		Path: path, FullName: "Old", FamilyName: "Old", Subfamily: "Regular",
		FileSize: info.Size() + 1, FileMtime: info.ModTime().Unix(),
	}

	fx := &fakeExtractor{}
	e := NewEntryScanner(fx, nil, nil).ScanEntry(path, cached)
	require.NotNil(t, e)
	assert.Equal(t, "Arial", e.FamilyName)
	assert.Equal(t, int64(1), fx.calls.Load())
}

func TestScanEntry_Failures(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantErrors     int64
		wantValidation int64
	}{
		{name: "validation failure", body: "invalid", wantValidation: 1},
		{name: "unrecognized", body: "unknown", wantErrors: 1},
		{name: "incomplete metadata", body: "OnlyFamily"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFont(t, t.TempDir(), "f.ttf", tt.body)
			st := stats.New()
			e := NewEntryScanner(&fakeExtractor{}, nil, st).ScanEntry(path, nil)

			assert.Nil(t, e)
			snap := st.Snapshot()
			assert.Equal(t, tt.wantErrors, snap.Errors)
			assert.Equal(t, tt.wantValidation, snap.ValidationFailures)
			assert.Equal(t, int64(1), snap.CacheMisses)
		})
	}
}

func TestScanEntry_Excluded(t *testing.T) {
	path := writeFont(t, t.TempDir(), "LastResort.otf", "LastResort|Regular")
	excl, err := NewExclusions([]string{"lastresort.*"})
	require.NoError(t, err)

	fx := &fakeExtractor{}
	st := stats.New()
	assert.Nil(t, NewEntryScanner(fx, excl, st).ScanEntry(path, nil))
	assert.Zero(t, fx.calls.Load())
	assert.Equal(t, stats.Snapshot{}, st.Snapshot())
}

func TestScanEntry_Missing(t *testing.T) {
	st := stats.New()
	e := NewEntryScanner(&fakeExtractor{}, nil, st).ScanEntry("/nonexistent/font.ttf", nil)
	assert.Nil(t, e)
	assert.Equal(t, int64(1), st.Snapshot().Errors)
}

func TestExclusions(t *testing.T) {
	excl, err := NewExclusions([]string{"*.afm", "Emoji*"})
	require.NoError(t, err)

	assert.True(t, excl.Match("/fonts/metrics.AFM"))
	assert.True(t, excl.Match("/fonts/emojione.ttf"))
	assert.False(t, excl.Match("/fonts/Arial.ttf"))
	assert.False(t, (*Exclusions)(nil).Match("/x.afm"))
	assert.Equal(t, []string{"/a/Arial.ttf"}, excl.Filter([]string{"/a/Arial.ttf", "/a/x.afm"}))

	_, err = NewExclusions([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options",
			opts: Options{},
			want: Options{Workers: DefaultWorkers(), ParallelThreshold: DefaultParallelThreshold},
		},
		{
			name: "workers capped",
			opts: Options{Workers: 64, ParallelThreshold: 10},
			want: Options{Workers: MaxWorkers, ParallelThreshold: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.opts.Validate())
			assert.Equal(t, tt.want.Workers, tt.opts.Workers)
			assert.Equal(t, tt.want.ParallelThreshold, tt.opts.ParallelThreshold)
		})
	}
	assert.LessOrEqual(t, DefaultWorkers(), MaxWorkers)

	for _, bad := range []Options{{Workers: -1}, {ParallelThreshold: -5}} {
		assert.ErrorIs(t, bad.Validate(), ErrInvalidOptions)
		_, err := NewBatchScanner(NewEntryScanner(&fakeExtractor{}, nil, nil), bad)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	}
}

func newBatch(t *testing.T, entry *EntryScanner, opts Options) *BatchScanner {
	t.Helper()
	b, err := NewBatchScanner(entry, opts)
	require.NoError(t, err)
	return b
}

func makeBatch(t *testing.T, n int) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		body := fmt.Sprintf("Family%03d|Regular", i)
		switch {
		case i%10 == 3:
			body = "invalid"
		case i%10 == 7:
			body = "unknown"
		}
		paths = append(paths, writeFont(t, dir, fmt.Sprintf("font%03d.ttf", i), body))
	}
	return dir, paths
}

func TestScanAll_SequentialAndParallelAgree(t *testing.T) {
	_, paths := makeBatch(t, 250)

	seqStats := stats.New()
	seq, err := newBatch(t,
		NewEntryScanner(&fakeExtractor{}, nil, seqStats),
		Options{Workers: 1, ParallelThreshold: 1000},
	).ScanAll(context.Background(), paths, nil)
	require.NoError(t, err)

	parStats := stats.New()
	var progress atomic.Int64
	par, err := newBatch(t,
		NewEntryScanner(&fakeExtractor{}, nil, parStats),
		Options{Workers: 4, ParallelThreshold: 100, OnProgress: func(Progress) { progress.Add(1) }},
	).ScanAll(context.Background(), paths, nil)
	require.NoError(t, err)

	assert.Len(t, seq, 200)
	assert.Equal(t, seq, par)
	assert.Equal(t, int64(250), progress.Load())
	assert.Equal(t, seqStats.Snapshot(), parStats.Snapshot())
	assert.Equal(t, int64(25), parStats.Snapshot().ValidationFailures)
	assert.Equal(t, int64(25), parStats.Snapshot().Errors)
}

func TestScanAll_ReusesExisting(t *testing.T) {
	_, paths := makeBatch(t, 150)

	first, err := newBatch(t, NewEntryScanner(&fakeExtractor{}, nil, nil), DefaultOptions()).
		ScanAll(context.Background(), paths, nil)
	require.NoError(t, err)

	fx := &fakeExtractor{}
	st := stats.New()
	second, err := newBatch(t, NewEntryScanner(fx, nil, st), DefaultOptions()).
		ScanAll(context.Background(), paths, EntriesByPath(first))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(len(first)), st.Snapshot().CacheHits)
	// Only the files that never produced an entry reach the extractor.
	assert.Equal(t, int64(len(paths)-len(first)), fx.calls.Load())
}

func TestScanAll_Cancelled(t *testing.T) {
	_, paths := makeBatch(t, 150)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, opts := range []Options{{Workers: 1}, {Workers: 4, ParallelThreshold: 10}} {
		got, err := newBatch(t, NewEntryScanner(&fakeExtractor{}, nil, nil), opts).
			ScanAll(ctx, paths, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
	}
}

func TestScanAll_Empty(t *testing.T) {
	got, err := newBatch(t, NewEntryScanner(&fakeExtractor{}, nil, nil), DefaultOptions()).
		ScanAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
