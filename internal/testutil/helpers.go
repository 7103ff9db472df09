package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
	"github.com/rvanbeek/portfolio-tracker/internal/service"
)

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	portfolioRepo := repository.NewPortfolioRepository(db)
	pfRepo := repository.NewPortfolioFundRepository(db)

	return service.NewPortfolioService(portfolioRepo, pfRepo)
}

func NewTestInvalidationService(t *testing.T, db *sql.DB) *service.InvalidationService {
	t.Helper()

	materializedRepo := repository.NewMaterializedRepository(db)
	pfRepo := repository.NewPortfolioFundRepository(db)

	return service.NewInvalidationService(materializedRepo, pfRepo)
}

func NewTestMaterializerService(t *testing.T, db *sql.DB) *service.MaterializerService {
	t.Helper()

	return service.NewMaterializerService(
		repository.NewMaterializedRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewPortfolioFundRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewDividendRepository(db),
		repository.NewFundRepository(db),
	)
}

func NewTestHistoryService(t *testing.T, db *sql.DB) *service.HistoryService {
	t.Helper()

	return service.NewHistoryService(
		repository.NewPortfolioRepository(db),
		repository.NewPortfolioFundRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewMaterializedRepository(db),
		NewTestMaterializerService(t, db),
	)
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		db,
		repository.NewTransactionRepository(db),
		repository.NewPortfolioFundRepository(db),
		repository.NewRealizedGainLossRepository(db),
		NewTestInvalidationService(t, db),
	)
}

func NewTestDividendService(t *testing.T, db *sql.DB) *service.DividendService {
	t.Helper()

	return service.NewDividendService(
		db,
		repository.NewDividendRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewPortfolioFundRepository(db),
		NewTestInvalidationService(t, db),
	)
}

func NewTestFundService(t *testing.T, db *sql.DB) *service.FundService {
	t.Helper()

	return service.NewFundService(
		repository.NewFundRepository(db),
		NewTestInvalidationService(t, db),
	)
}

func NewTestIbkrService(t *testing.T, db *sql.DB) *service.IbkrService {
	t.Helper()

	return service.NewIbkrService(
		db,
		repository.NewIbkrRepository(db),
		repository.NewPortfolioFundRepository(db),
		repository.NewTransactionRepository(db),
		NewTestInvalidationService(t, db),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeISIN generates a realistic ISIN code for testing.
//
// Example usage:
//
//	isin := testutil.MakeISIN("US")
//	// Returns: "US1A2B3C4D5E"
func MakeISIN(prefix string) string {
	if prefix == "" {
		prefix = "US"
	}
	return prefix + randomAlphanumeric(10)
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakeFundName generates a unique fund name for testing.
//
// Example usage:
//
//	name := testutil.MakeFundName("Tech Fund")
//	// Returns: "Tech Fund XYZ789"
func MakeFundName(base string) string {
	if base == "" {
		base = "Fund"
	}
	return base + " " + randomAlphanumeric(6)
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

// Common test constants

var (
	// CommonCurrencies contains frequently used currency codes
	CommonCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "CHF", "AUD"}

	// CommonExchanges contains frequently used stock exchanges
	CommonExchanges = []string{"NASDAQ", "NYSE", "LSE", "TSE", "XETRA", "EURONEXT"}

	// CommonCountryPrefixes contains common ISIN country prefixes
	CommonCountryPrefixes = []string{"US", "GB", "DE", "FR", "JP", "CA", "CH", "AU"}
)

// RandomCurrency returns a random currency from CommonCurrencies.
func RandomCurrency() string {
	//nolint:gosec // G404: Using math/rand for test data generation is acceptable
	return CommonCurrencies[rand.Intn(len(CommonCurrencies))]
}

// RandomExchange returns a random exchange from CommonExchanges.
func RandomExchange() string {
	//nolint:gosec // G404: Using math/rand for test data generation is acceptable
	return CommonExchanges[rand.Intn(len(CommonExchanges))]
}

// RandomCountryPrefix returns a random country prefix from CommonCountryPrefixes.
func RandomCountryPrefix() string {
	//nolint:gosec // G404: Using math/rand for test data generation is acceptable
	return CommonCountryPrefixes[rand.Intn(len(CommonCountryPrefixes))]
}
