package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() IndexEntry {
	return IndexEntry{
		Path:       "/fonts/Arial.ttf",
		FullName:   "Arial",
		FamilyName: "Arial",
		Subfamily:  "Regular",
		FileSize:   1024,
		FileMtime:  1700000000,
	}
}

func TestValidate(t *testing.T) {
	e := validEntry()
	require.NoError(t, e.Validate())

	tests := []struct {
		name   string
		mutate func(*IndexEntry)
		want   string
	}{
		{"missing path", func(e *IndexEntry) { e.Path = "" }, "path"},
		{"missing full name", func(e *IndexEntry) { e.FullName = "" }, "full_name"},
		{"missing family", func(e *IndexEntry) { e.FamilyName = "" }, "family_name"},
		{"missing subfamily", func(e *IndexEntry) { e.Subfamily = "" }, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)
			err := e.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_PreferredNamesOptional(t *testing.T) {
	e := validEntry()
	e.PreferredFamilyName = ""
	e.PreferredSubfamilyName = ""
	assert.NoError(t, e.Validate())
}

func TestMatches(t *testing.T) {
	e := validEntry()
	e.Subfamily = "Bold"

	assert.True(t, e.Matches("arial", ""))
	assert.True(t, e.Matches("ARIAL", ""))
	assert.True(t, e.Matches("Arial", "bold"))
	assert.False(t, e.Matches("Arial", "Regular"))
	assert.False(t, e.Matches("Helvetica", ""))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "never", FormatAge(time.Time{}))
	assert.Equal(t, "never", FormatAge(time.Unix(0, 0)))
	assert.NotEqual(t, "never", FormatAge(time.Now().Add(-time.Hour)))
}

func TestHumanSize(t *testing.T) {
	e := validEntry()
	assert.Equal(t, "1.0 KiB", e.HumanSize())
}
