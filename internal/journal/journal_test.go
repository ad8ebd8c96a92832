package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

func TestJournal_ObserveAndRecent(t *testing.T) {
	j, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	j.Observe(context.Background(), pricing.Resolution{
		Asset: "BTC", Quote: "USD", Kind: pricing.KindQuote,
		Provider: "binance", Attempts: []string{"coinmarketcap", "binance"}, At: at,
	})
	j.Observe(context.Background(), pricing.Resolution{
		Asset: "ETH", Quote: "USD", Kind: pricing.KindOHLCV,
		Attempts: []string{"binance"}, Err: errors.New("all providers failed"), At: at.Add(time.Minute),
	})

	assert.Equal(t, uint64(2), j.CurrentIndex())

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "ETH", entries[0].Asset)
	assert.Equal(t, "all providers failed", entries[0].Error)
	assert.Equal(t, uint64(2), entries[0].Index)

	assert.Equal(t, "BTC", entries[1].Asset)
	assert.Equal(t, "binance", entries[1].Provider)
	assert.Equal(t, []string{"coinmarketcap", "binance"}, entries[1].Attempts)
	assert.NotEmpty(t, entries[1].ID)
	assert.Equal(t, at, entries[1].At)
}

func TestJournal_RecentLimit(t *testing.T) {
	j, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()

	for _, asset := range []string{"A", "B", "C"} {
		require.NoError(t, j.Append(Entry{Asset: asset, Quote: "USD"}))
	}

	entries, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "C", entries[0].Asset)
	assert.Equal(t, "B", entries[1].Asset)

	entries, err = j.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_Reopen(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, j.Append(Entry{Asset: "SOL", Quote: "EUR"}))
	require.NoError(t, j.Close())

	j, err = Open(dir, nil)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SOL", entries[0].Asset)
}

func TestJournal_Validation(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)

	j, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()
	assert.Error(t, j.Append(Entry{}))
}
