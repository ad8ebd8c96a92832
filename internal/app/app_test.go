package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/app"
	"github.com/ndewijer/wealth-tracker/internal/config"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, map[string]string{
		"WEALTH_DB_PATH":     filepath.Join(dir, "wealth.db"),
		"WEALTH_JOURNAL_DIR": filepath.Join(dir, "journal"),
	})

	a, err := app.New(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, a.System.CheckHealth(context.Background()))
	assert.NotNil(t, a.Journal)
	assert.Equal(t, []string{"binance", "bybit", "coindesk", "yahoo"}, a.Prices.Providers())

	entries, err := a.Prices.Journal(10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NotNil(t, a.Services().Valuation)
	require.NoError(t, a.Close())
}

func TestRegisterProviders(t *testing.T) {
	cfg := testConfig(t, map[string]string{"COINMARKETCAP_API_KEY": "k"})
	reg := pricing.NewRegistry()

	require.NoError(t, app.RegisterProviders(reg, cfg))
	assert.Equal(t, []string{"binance", "bybit", "coindesk", "coinmarketcap", "yahoo"}, reg.IDs())

	assert.Error(t, app.RegisterProviders(reg, cfg), "registering twice fails")
}

func TestDefaultOrder(t *testing.T) {
	reg := pricing.NewRegistry()
	cfg := testConfig(t, nil)
	require.NoError(t, app.RegisterProviders(reg, cfg))

	order := app.DefaultOrder(reg, []string{"coinmarketcap", "yahoo", "binance"}, zap.NewNop())
	assert.Equal(t, []string{"yahoo", "binance"}, order)

	order = app.DefaultOrder(reg, []string{"nope"}, zap.NewNop())
	assert.Equal(t, reg.IDs(), order)
}
