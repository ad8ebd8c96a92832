package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/ndewijer/wealth-tracker/internal/pricing"
	"github.com/ndewijer/wealth-tracker/internal/repository"
	"github.com/ndewijer/wealth-tracker/internal/service"
	"github.com/ndewijer/wealth-tracker/internal/valuation"
)

// TestBaseCurrency is the base currency used by the test services.
const TestBaseCurrency = "USD"

// Services bundles the services wired against one test database.
type Services struct {
	Accounts     *service.AccountService
	Transactions *service.TransactionService
	Valuation    *service.ValuationService
	Prices       *service.PriceService
	System       *service.SystemService
	Resolver     *pricing.Resolver
}

// NewTestServices wires every service against db. reg may be nil, in which
// case no price providers are available.
func NewTestServices(t *testing.T, db *sql.DB, reg *pricing.Registry) *Services {
	t.Helper()
	return NewTestServicesWithPolicy(t, db, reg, valuation.TransferAsAcquisition)
}

// NewTestServicesWithPolicy is NewTestServices with a transfer policy.
func NewTestServicesWithPolicy(t *testing.T, db *sql.DB, reg *pricing.Registry, policy valuation.TransferPolicy) *Services {
	t.Helper()

	if reg == nil {
		reg = pricing.NewRegistry()
	}

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	resolver := pricing.NewResolver(reg, priceRepo, prefRepo,
		pricing.WithDefaultOrder(reg.IDs()),
		pricing.WithHistoryStore(priceRepo),
	)

	valuationService := service.NewValuationService(db, transactionRepo, priceRepo, TestBaseCurrency, policy)
	priceService := service.NewPriceService(resolver, priceRepo, valuationService, nil, 0, nil)

	return &Services{
		Accounts:     service.NewAccountService(accountRepo),
		Transactions: service.NewTransactionService(transactionRepo, accountRepo, priceService, TestBaseCurrency, nil),
		Valuation:    valuationService,
		Prices:       priceService,
		System:       service.NewSystemService(db, accountRepo, transactionRepo, priceRepo),
		Resolver:     resolver,
	}
}

// MakeAccountName generates a unique account name for testing.
//
// Example usage:
//
//	name := testutil.MakeAccountName("Kraken")
//	// Returns: "Kraken ABC123"
func MakeAccountName(base string) string {
	if base == "" {
		base = "Account"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeSymbol generates a random asset symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("TKN")
//	// Returns: "TKN1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// Now returns the current time truncated to seconds in UTC.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
