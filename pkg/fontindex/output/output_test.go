package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/fontindex/pkg/fontindex/stats"
	"github.com/jamesainslie/fontindex/pkg/fontindex/types"
)

func findResult() *Result {
	entries := []types.IndexEntry{
		{Path: "/fonts/Arial.ttf", FullName: "Arial", FamilyName: "Arial", Subfamily: "Regular", FileSize: 2048, FileMtime: 1700000000},
		{Path: "/fonts/Arial-Bold.ttf", FullName: "Arial Bold", FamilyName: "Arial", Subfamily: "Bold", FileSize: 4096, FileMtime: 1700000000},
	}
	return &Result{Query: "arial", Fonts: FontsFromEntries("system", entries)}
}

func statusResult() *Result {
	return &Result{Stores: []StoreInfo{
		{Name: "system", Path: "/cache/system.yaml", Entries: 2, LastScan: time.Now().Add(-time.Hour),
			Stats: stats.Snapshot{CacheHits: 1, CacheMisses: 1}},
		{Name: "user", Path: "/cache/user.yaml"},
	}}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "tsv", "yaml"}, Available())

	_, err := Get("xml")
	assert.Error(t, err)

	r := NewRegistry()
	r.Register("plain", func() Formatter { return &PlainFormatter{} })
	f, err := r.Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)
}

func TestFontsFromEntries(t *testing.T) {
	fonts := findResult().Fonts
	require.Len(t, fonts, 2)
	assert.Equal(t, "system", fonts[0].Store)
	assert.Equal(t, "Regular", fonts[0].Style)
	assert.Equal(t, "2.0 KiB", fonts[0].SizeHuman)
	assert.Equal(t, int64(1700000000), fonts[1].ModTime.Unix())
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, findResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "FAMILY"))
	assert.Contains(t, lines[2], "Bold")
	assert.Contains(t, lines[2], "/fonts/Arial-Bold.ttf")

	buf.Reset()
	require.NoError(t, (&PlainFormatter{}).Format(&buf, statusResult()))
	out := buf.String()
	assert.Contains(t, out, "STORE")
	assert.Contains(t, out, "never")
}

func TestTSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TSVFormatter{}).Format(&buf, findResult()))
	assert.Equal(t,
		"Arial\tRegular\tArial\t2048\t/fonts/Arial.ttf\nArial\tBold\tArial Bold\t4096\t/fonts/Arial-Bold.ttf\n",
		buf.String())

	buf.Reset()
	require.NoError(t, (&TSVFormatter{}).Format(&buf, statusResult()))
	assert.Contains(t, buf.String(), "user\t0\t0\t/cache/user.yaml\n")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, findResult()))

	var decoded Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "arial", decoded.Query)
	assert.Len(t, decoded.Fonts, 2)

	buf.Reset()
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Result{Query: "none"}))
	assert.Contains(t, buf.String(), `"fonts": []`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, statusResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded["stores"], 2)
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, findResult()))
	out := buf.String()
	assert.Contains(t, out, "arial")
	assert.Contains(t, out, "Arial-Bold.ttf")

	buf.Reset()
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, &Result{Query: "nothing", Warnings: []string{"user index missing"}}))
	assert.Contains(t, buf.String(), "No fonts found")
	assert.Contains(t, buf.String(), "user index missing")

	buf.Reset()
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, statusResult()))
	assert.Contains(t, buf.String(), "system")
	assert.Contains(t, buf.String(), "never")
}

func TestStoreErrorRendering(t *testing.T) {
	result := &Result{Stores: []StoreInfo{
		{Name: "user", Path: "/cache/user.yaml", Error: "index file /cache/user.yaml is corrupt"},
	}}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, result))
	assert.Contains(t, buf.String(), "Error: index file /cache/user.yaml is corrupt")

	buf.Reset()
	require.NoError(t, (&PlainFormatter{}).Format(&buf, result))
	assert.Contains(t, buf.String(), "error")

	buf.Reset()
	require.NoError(t, (&JSONFormatter{}).Format(&buf, result))
	var decoded struct {
		Stores []StoreInfo `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Stores, 1)
	assert.Contains(t, decoded.Stores[0].Error, "corrupt")
}
