package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// materializeConcurrency bounds how many holdings are rebuilt in parallel
// during a full rebuild. SQLite serializes writes anyway; this mostly bounds
// memory from concurrent history replays.
const materializeConcurrency = 4

// MaterializerService rebuilds the fund_history_materialized table from the ledger.
//
// Each row is one holding (portfolio_fund) on one calendar day, carrying the running
// position state as of that day: shares held, carried-forward price, market value,
// average-cost basis, realized and unrealized gains, cumulative dividends and fees.
// Rows are derived data; the ledger (transactions, dividends, fund prices) is the
// only source of truth, and any row can be deleted and rebuilt at any time.
type MaterializerService struct {
	materializedRepo *repository.MaterializedRepository
	portfolioRepo    *repository.PortfolioRepository
	pfRepo           *repository.PortfolioFundRepository
	transactionRepo  *repository.TransactionRepository
	dividendRepo     *repository.DividendRepository
	fundRepo         *repository.FundRepository
}

// NewMaterializerService creates a new MaterializerService with the provided repositories.
func NewMaterializerService(
	materializedRepo *repository.MaterializedRepository,
	portfolioRepo *repository.PortfolioRepository,
	pfRepo *repository.PortfolioFundRepository,
	transactionRepo *repository.TransactionRepository,
	dividendRepo *repository.DividendRepository,
	fundRepo *repository.FundRepository,
) *MaterializerService {
	return &MaterializerService{
		materializedRepo: materializedRepo,
		portfolioRepo:    portfolioRepo,
		pfRepo:           pfRepo,
		transactionRepo:  transactionRepo,
		dividendRepo:     dividendRepo,
		fundRepo:         fundRepo,
	}
}

// Materialize rebuilds materialized history rows for a single holding.
//
// The replay always starts from the holding's first transaction, because per-day
// state (shares, cost basis, realized gains) is cumulative. Only rows inside
// [startDate, endDate] are written; a zero startDate defaults to the first
// transaction date and a zero endDate defaults to today.
//
// Unless force is set, the requested range is first checked against existing
// coverage: the call returns early when every expected day already has a row,
// and a partially covered range only gets its missing days written. Writes go
// through an upsert keyed on (portfolio_fund_id, date), so repeated
// materialization of the same range is idempotent.
//
// Returns the number of rows written. A holding with no transactions yields
// (0, nil): there is no history to materialize.
func (s *MaterializerService) Materialize(pfID string, startDate, endDate time.Time, force bool) (int, error) {
	pf, err := s.pfRepo.GetPortfolioFund(pfID)
	if err != nil {
		return 0, err
	}

	transactions, err := s.transactionRepo.GetAllTransactionsForPF(pfID)
	if err != nil {
		return 0, err
	}
	if len(transactions) == 0 {
		return 0, nil
	}

	firstDate := normalizeDay(transactions[0].Date)
	today := normalizeDay(time.Now().UTC())

	if startDate.IsZero() {
		startDate = firstDate
	}
	if endDate.IsZero() {
		endDate = today
	}
	startDate = normalizeDay(startDate)
	endDate = normalizeDay(endDate)

	// Days before the first transaction have no position and get no rows.
	if startDate.Before(firstDate) {
		startDate = firstDate
	}
	if startDate.After(endDate) {
		return 0, nil
	}

	// Without force, only the uncovered parts of the range are written: the
	// replay still runs from the first transaction (state is cumulative), but
	// rows that already exist are left alone. A coverage-check failure falls
	// through to a full write of the range.
	var missing []model.DateRange
	if !force {
		coverage, err := s.CheckCoverage([]string{pfID}, startDate, endDate)
		if err == nil {
			if coverage.IsComplete {
				return 0, nil
			}
			missing = coverage.MissingRanges
		}
	}

	dividends, err := s.dividendRepo.GetAllDividendsForPF(pfID)
	if err != nil {
		return 0, err
	}

	prices, err := s.fundRepo.GetAllFundPricesForFund(pf.FundID)
	if err != nil {
		return 0, err
	}

	rows, err := s.replayHistory(pf, transactions, dividends, prices, firstDate, startDate, endDate)
	if err != nil {
		return 0, err
	}

	if len(missing) > 0 {
		rows = filterToRanges(rows, missing)
	}

	if err := s.materializedRepo.UpsertRows(rows); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// filterToRanges keeps only rows whose date falls inside one of the given
// inclusive ranges.
func filterToRanges(rows []model.FundHistoryMaterialized, ranges []model.DateRange) []model.FundHistoryMaterialized {
	kept := rows[:0]
	for _, row := range rows {
		for _, r := range ranges {
			if !row.Date.Before(r.Start) && !row.Date.After(r.End) {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}

// replayHistory folds the ledger day by day from the first transaction through
// endDate, emitting one row per day inside [startDate, endDate].
//
// Running state is carried in decimals so that repeated buys and proportional
// sell adjustments don't accumulate binary float drift across long histories.
func (s *MaterializerService) replayHistory(
	pf model.PortfolioFund,
	transactions []model.Transaction,
	dividends []model.Dividend,
	prices []model.FundPrice,
	firstDate, startDate, endDate time.Time,
) ([]model.FundHistoryMaterialized, error) {

	shares := decimal.Zero
	cost := decimal.Zero
	realized := decimal.Zero
	cumDividends := decimal.Zero
	fees := decimal.Zero
	price := decimal.Zero

	var txIdx, divIdx, priceIdx int
	calculatedAt := time.Now().UTC()

	rows := make([]model.FundHistoryMaterialized, 0, int(endDate.Sub(startDate).Hours()/24)+1)

	for day := firstDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {

		for txIdx < len(transactions) && !normalizeDay(transactions[txIdx].Date).After(day) {
			tx := transactions[txIdx]
			txShares := decimal.NewFromFloat(tx.Shares)
			costPerShare := decimal.NewFromFloat(tx.CostPerShare)

			switch tx.Type {
			case "buy", "dividend":
				// Dividend-type transactions are reinvestment buys: the cash
				// amount is tracked via the dividend table, the shares land here.
				shares = shares.Add(txShares)
				cost = cost.Add(txShares.Mul(costPerShare))
			case "sell":
				proceeds := txShares.Mul(costPerShare)
				if shares.IsPositive() {
					costOfSold := cost.Mul(txShares).Div(shares)
					realized = realized.Add(proceeds.Sub(costOfSold))
					shares = shares.Sub(txShares)
					if shares.IsPositive() {
						cost = cost.Sub(costOfSold)
					} else {
						shares = decimal.Zero
						cost = decimal.Zero
					}
				} else {
					realized = realized.Add(proceeds)
				}
			case "fee":
				cost = cost.Add(costPerShare)
				fees = fees.Add(costPerShare)
			default:
				return nil, fmt.Errorf("unknown transaction type %q on transaction %s", tx.Type, tx.ID)
			}
			txIdx++
		}

		for divIdx < len(dividends) && !normalizeDay(dividends[divIdx].ExDividendDate).After(day) {
			cumDividends = cumDividends.Add(decimal.NewFromFloat(dividends[divIdx].TotalAmount))
			divIdx++
		}

		// Carry the most recent price on or before this day forward. Before the
		// first recorded price, price and value stay zero.
		for priceIdx < len(prices) && !normalizeDay(prices[priceIdx].Date).After(day) {
			price = decimal.NewFromFloat(prices[priceIdx].Price)
			priceIdx++
		}

		if day.Before(startDate) {
			continue
		}

		value := shares.Mul(price)
		unrealized := value.Sub(cost)

		rows = append(rows, model.FundHistoryMaterialized{
			ID:              uuid.New().String(),
			PortfolioFundID: pf.ID,
			FundID:          pf.FundID,
			Date:            day,
			Shares:          shares.InexactFloat64(),
			Price:           price.InexactFloat64(),
			Value:           value.InexactFloat64(),
			Cost:            cost.InexactFloat64(),
			RealizedGain:    realized.InexactFloat64(),
			UnrealizedGain:  unrealized.InexactFloat64(),
			TotalGainLoss:   unrealized.Add(realized).Add(cumDividends).InexactFloat64(),
			Dividends:       cumDividends.InexactFloat64(),
			Fees:            fees.InexactFloat64(),
			CalculatedAt:    calculatedAt,
		})
	}

	return rows, nil
}

// MaterializeAllPortfolios rebuilds the full history of every holding across all
// portfolios, including archived ones. Holdings are processed concurrently with
// bounded parallelism; the first error cancels the run.
//
// Returns rows written per portfolio ID.
func (s *MaterializerService) MaterializeAllPortfolios(force bool) (map[string]int, error) {
	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{
		IncludeArchived: true,
		IncludeExcluded: true,
	})
	if err != nil {
		return nil, err
	}

	_, pfToPortfolio, _, pfIDs, _, err := s.pfRepo.GetPortfolioFundsOnPortfolioID(portfolios)
	if err != nil {
		return nil, err
	}

	rowsPerPortfolio := make(map[string]int, len(portfolios))
	for _, p := range portfolios {
		rowsPerPortfolio[p.ID] = 0
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(materializeConcurrency)

	for _, pfID := range pfIDs {
		pfID := pfID
		g.Go(func() error {
			written, err := s.Materialize(pfID, time.Time{}, time.Time{}, force)
			if err != nil {
				return fmt.Errorf("materialize holding %s: %w", pfID, err)
			}

			mu.Lock()
			rowsPerPortfolio[pfToPortfolio[pfID]] += written
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rowsPerPortfolio, nil
}

// GetStats returns summary statistics over the materialized table.
func (s *MaterializerService) GetStats() (model.MaterializedStats, error) {
	return s.materializedRepo.GetStats()
}
