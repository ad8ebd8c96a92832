package service

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/wealth-tracker/internal/database"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/repository"
	"github.com/ndewijer/wealth-tracker/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db              *sql.DB
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	priceRepo       *repository.PriceRepository
}

// NewSystemService creates a new SystemService
func NewSystemService(
	db *sql.DB,
	accountRepo *repository.AccountRepository,
	transactionRepo *repository.TransactionRepository,
	priceRepo *repository.PriceRepository,
) *SystemService {
	return &SystemService{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		priceRepo:       priceRepo,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion returns the application version and the applied schema version.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	dbVersion, err := database.SchemaVersion(s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}
	return model.VersionInfo{AppVersion: version.Version, DbVersion: dbVersion}, nil
}

// GetStats counts stored records. With accountID set, accounts, transactions
// and assets are scoped to that account; price points are shared by every
// account and always counted in full. The counts are queried concurrently.
func (s *SystemService) GetStats(ctx context.Context, accountID *int64) (*model.Stats, error) {
	stats := model.Stats{AccountID: accountID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Accounts, err = s.accountRepo.CountAccounts(ctx, accountID)
		return err
	})
	g.Go(func() (err error) {
		stats.Transactions, err = s.transactionRepo.CountTransactions(ctx, accountID)
		return err
	})
	g.Go(func() (err error) {
		stats.Assets, err = s.transactionRepo.CountAssets(ctx, accountID)
		return err
	})
	g.Go(func() (err error) {
		stats.PricePoints, err = s.priceRepo.CountPricePoints(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
