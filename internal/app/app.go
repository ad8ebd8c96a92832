// Package app wires configuration, storage, price providers and services
// into one application shared by the HTTP server and the CLI.
package app

import (
	"database/sql"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/api"
	"github.com/ndewijer/wealth-tracker/internal/config"
	"github.com/ndewijer/wealth-tracker/internal/database"
	"github.com/ndewijer/wealth-tracker/internal/journal"
	"github.com/ndewijer/wealth-tracker/internal/pricing"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/binance"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/bybit"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/coindesk"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/coinmarketcap"
	"github.com/ndewijer/wealth-tracker/internal/pricing/providers/yahoo"
	"github.com/ndewijer/wealth-tracker/internal/repository"
	"github.com/ndewijer/wealth-tracker/internal/service"
)

// App holds the opened database and every service built on it.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sql.DB
	Journal  *journal.Journal
	Resolver *pricing.Resolver

	Accounts     *service.AccountService
	Transactions *service.TransactionService
	Valuation    *service.ValuationService
	Prices       *service.PriceService
	System       *service.SystemService
}

// New opens the database, applies migrations and wires the services.
// The caller must Close the returned App.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	var j *journal.Journal
	if cfg.Journal.Dir != "" {
		j, err = journal.Open(cfg.Journal.Dir, logger.Named("journal"))
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	reg := pricing.NewRegistry()
	if err := RegisterProviders(reg, cfg); err != nil {
		return nil, multierr.Append(err, closeAll(j, db))
	}
	order := DefaultOrder(reg, cfg.Price.ProviderOrder, logger)

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	cache := pricing.NewTieredCache(pricing.NewMemoryCache(cfg.Price.CacheTTL), priceRepo)
	opts := []pricing.ResolverOption{
		pricing.WithDefaultOrder(order),
		pricing.WithHistoryStore(priceRepo),
		pricing.WithLogger(logger.Named("resolver")),
	}
	if j != nil {
		opts = append(opts, pricing.WithObserver(j))
	}
	resolver := pricing.NewResolver(reg, cache, prefRepo, opts...)

	valuationService := service.NewValuationService(db, transactionRepo, priceRepo, cfg.Portfolio.BaseCurrency, cfg.Portfolio.TransferPolicy)
	priceService := service.NewPriceService(resolver, cache, valuationService, j, cfg.Price.SyncPacing, logger.Named("prices"))

	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Journal:      j,
		Resolver:     resolver,
		Accounts:     service.NewAccountService(accountRepo),
		Transactions: service.NewTransactionService(transactionRepo, accountRepo, priceService, cfg.Portfolio.BaseCurrency, logger.Named("transactions")),
		Valuation:    valuationService,
		Prices:       priceService,
		System:       service.NewSystemService(db, accountRepo, transactionRepo, priceRepo),
	}, nil
}

// Services returns the services consumed by the HTTP router.
func (a *App) Services() api.Services {
	return api.Services{
		System:       a.System,
		Accounts:     a.Accounts,
		Transactions: a.Transactions,
		Valuation:    a.Valuation,
		Prices:       a.Prices,
	}
}

// Close flushes the journal and closes the database.
func (a *App) Close() error {
	return closeAll(a.Journal, a.DB)
}

func closeAll(j *journal.Journal, db *sql.DB) error {
	var err error
	if j != nil {
		err = multierr.Append(err, j.Close())
	}
	return multierr.Append(err, db.Close())
}

// RegisterProviders registers every built-in provider. CoinMarketCap is only
// registered when an API key is configured.
func RegisterProviders(reg *pricing.Registry, cfg *config.Config) error {
	p := cfg.Providers
	timeout := cfg.Price.HTTPTimeout

	if p.CoinMarketCap.APIKey != "" {
		err := coinmarketcap.Register(reg, coinmarketcap.Config{
			APIKey:     p.CoinMarketCap.APIKey,
			BaseURL:    p.CoinMarketCap.BaseURL,
			UseSandbox: p.CoinMarketCap.UseSandbox,
			Timeout:    timeout,
		})
		if err != nil {
			return err
		}
	}

	return multierr.Combine(
		coindesk.Register(reg, coindesk.Config{APIKey: p.CoinDesk.APIKey, BaseURL: p.CoinDesk.BaseURL, Timeout: timeout}),
		binance.Register(reg, binance.Config{BaseURL: p.Binance.BaseURL}),
		bybit.Register(reg, bybit.Config{BaseURL: p.Bybit.BaseURL}),
		yahoo.Register(reg, yahoo.Config{BaseURL: p.Yahoo.BaseURL, Timeout: timeout}),
	)
}

// DefaultOrder keeps the configured ids that are registered, in order.
// When none remain the registry order is used.
func DefaultOrder(reg *pricing.Registry, configured []string, logger *zap.Logger) []string {
	order := make([]string, 0, len(configured))
	for _, id := range configured {
		if !reg.Has(id) {
			logger.Warn("skipping unavailable price provider", zap.String("provider", id))
			continue
		}
		order = append(order, id)
	}
	if len(order) == 0 {
		return reg.IDs()
	}
	return order
}
