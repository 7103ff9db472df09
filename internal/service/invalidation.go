package service

import (
	"log"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// InvalidationService deletes materialized history rows made stale by ledger writes.
//
// Invalidation is delete-only: rows from the anchor date forward are removed and
// the next read (or the nightly sweep) rebuilds them. Rows before the anchor stay
// valid because per-day state only depends on ledger entries up to that day.
//
// Every hook is best-effort. The ledger write has already committed by the time a
// hook runs, and a stale cache is recoverable while a rolled-back ledger write is
// not, so failures are logged and swallowed rather than propagated. Hooks return
// the number of rows deleted (zero on failure).
type InvalidationService struct {
	materializedRepo *repository.MaterializedRepository
	pfRepo           *repository.PortfolioFundRepository
}

// NewInvalidationService creates a new InvalidationService with the provided repositories.
func NewInvalidationService(
	materializedRepo *repository.MaterializedRepository,
	pfRepo *repository.PortfolioFundRepository,
) *InvalidationService {
	return &InvalidationService{
		materializedRepo: materializedRepo,
		pfRepo:           pfRepo,
	}
}

// invalidate deletes rows for the given holdings from the anchor date forward.
func (s *InvalidationService) invalidate(pfIDs []string, anchor time.Time) int64 {
	if len(pfIDs) == 0 {
		return 0
	}

	deleted, err := s.materializedRepo.DeleteFromDate(pfIDs, normalizeDay(anchor))
	if err != nil {
		log.Printf("WARN: failed to invalidate materialized history for holdings %v from %s: %v",
			pfIDs, anchor.Format("2006-01-02"), err)
		return 0
	}

	return deleted
}

// InvalidateFromTransaction invalidates a holding's history from a new transaction's date.
func (s *InvalidationService) InvalidateFromTransaction(tx model.Transaction) int64 {
	return s.invalidate([]string{tx.PortfolioFundID}, tx.Date)
}

// InvalidateFromTransactionUpdate invalidates from the earlier of the old and new
// transaction dates; both dates' histories changed. If the transaction moved to a
// different holding, both holdings are invalidated.
func (s *InvalidationService) InvalidateFromTransactionUpdate(oldTx, newTx model.Transaction) int64 {
	anchor := oldTx.Date
	if newTx.Date.Before(anchor) {
		anchor = newTx.Date
	}

	pfIDs := []string{oldTx.PortfolioFundID}
	if newTx.PortfolioFundID != oldTx.PortfolioFundID {
		pfIDs = append(pfIDs, newTx.PortfolioFundID)
	}

	return s.invalidate(pfIDs, anchor)
}

// InvalidateFromTransactionDelete invalidates a holding's history from the deleted
// transaction's date.
func (s *InvalidationService) InvalidateFromTransactionDelete(tx model.Transaction) int64 {
	return s.invalidate([]string{tx.PortfolioFundID}, tx.Date)
}

// InvalidateFromDividend invalidates a holding's history from a dividend's
// ex-dividend date, the day its amount lands in cumulative dividends.
func (s *InvalidationService) InvalidateFromDividend(dividend model.Dividend) int64 {
	return s.invalidate([]string{dividend.PortfolioFundID}, dividend.ExDividendDate)
}

// InvalidateFromDividendUpdate invalidates from the earlier of the old and new
// ex-dividend dates.
func (s *InvalidationService) InvalidateFromDividendUpdate(oldExDividendDate time.Time, dividend model.Dividend) int64 {
	anchor := oldExDividendDate
	if dividend.ExDividendDate.Before(anchor) {
		anchor = dividend.ExDividendDate
	}
	return s.invalidate([]string{dividend.PortfolioFundID}, anchor)
}

// InvalidateFromDividendDelete invalidates a holding's history from the deleted
// dividend's ex-dividend date.
func (s *InvalidationService) InvalidateFromDividendDelete(dividend model.Dividend) int64 {
	return s.invalidate([]string{dividend.PortfolioFundID}, dividend.ExDividendDate)
}

// InvalidateFromPriceUpsert invalidates every holding of the fund, across all
// portfolios, from the price's date. A new price changes valuations everywhere
// the fund is held; carry-forward means later days are affected too.
func (s *InvalidationService) InvalidateFromPriceUpsert(fundID string, date time.Time) int64 {
	pfs, err := s.pfRepo.GetPortfolioFundsbyFundID(fundID)
	if err != nil {
		log.Printf("WARN: failed to resolve holdings for fund %s during price invalidation: %v", fundID, err)
		return 0
	}

	pfIDs := make([]string, len(pfs))
	for i, pf := range pfs {
		pfIDs[i] = pf.ID
	}

	return s.invalidate(pfIDs, date)
}

// InvalidateFromAllocationChange invalidates the union of the holdings an imported
// transaction was allocated to before and after the change.
func (s *InvalidationService) InvalidateFromAllocationChange(oldPortfolioFundIDs, newPortfolioFundIDs []string, date time.Time) int64 {
	seen := make(map[string]bool, len(oldPortfolioFundIDs)+len(newPortfolioFundIDs))
	pfIDs := make([]string, 0, len(oldPortfolioFundIDs)+len(newPortfolioFundIDs))

	for _, id := range append(append([]string{}, oldPortfolioFundIDs...), newPortfolioFundIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		pfIDs = append(pfIDs, id)
	}

	return s.invalidate(pfIDs, date)
}
