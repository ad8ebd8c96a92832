package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime_SortsLexically(t *testing.T) {
	a := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	b := a.Add(time.Nanosecond * 10)
	c := time.Date(2024, 1, 2, 5, 4, 5, 0, time.FixedZone("CET", 3600))

	fa, fb, fc := FormatTime(a), FormatTime(b), FormatTime(c)
	assert.Less(t, fa, fb)
	assert.Less(t, fb, fc)
	assert.Len(t, fa, len(fc))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)

	got, err := ParseTime(FormatTime(want))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = ParseTime("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTime("2024-01-02T03:04:05+01:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 2, got.Hour())

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
