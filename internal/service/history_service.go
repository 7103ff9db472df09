package service

import (
	"log"
	"sort"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// HistoryService serves valuation history and summaries from the materialized cache.
//
// Reads are self-healing: before answering, the service materializes any missing
// rows for the holdings involved. When materialization fails the cache is simply
// behind, so reads degrade to empty results instead of failing; the ledger data
// is intact and a later read or sweep repairs the cache.
type HistoryService struct {
	portfolioRepo    *repository.PortfolioRepository
	pfRepo           *repository.PortfolioFundRepository
	transactionRepo  *repository.TransactionRepository
	materializedRepo *repository.MaterializedRepository
	materializer     *MaterializerService
}

// NewHistoryService creates a new HistoryService with the provided repositories and materializer.
func NewHistoryService(
	portfolioRepo *repository.PortfolioRepository,
	pfRepo *repository.PortfolioFundRepository,
	transactionRepo *repository.TransactionRepository,
	materializedRepo *repository.MaterializedRepository,
	materializer *MaterializerService,
) *HistoryService {
	return &HistoryService{
		portfolioRepo:    portfolioRepo,
		pfRepo:           pfRepo,
		transactionRepo:  transactionRepo,
		materializedRepo: materializedRepo,
		materializer:     materializer,
	}
}

// ensureMaterialized fills cache gaps for the given holdings before a read.
// Zero start/end fall back to each holding's full history.
func (s *HistoryService) ensureMaterialized(pfIDs []string, startDate, endDate time.Time) error {
	for _, pfID := range pfIDs {
		if _, err := s.materializer.Materialize(pfID, startDate, endDate, false); err != nil {
			return err
		}
	}
	return nil
}

// resolveRange fills in missing range bounds: a zero start becomes the oldest
// transaction date across the holdings, a zero end becomes today. Returns false
// when there are no transactions to anchor the range on.
func (s *HistoryService) resolveRange(pfIDs []string, startDate, endDate time.Time) (time.Time, time.Time, bool) {
	if startDate.IsZero() {
		startDate = s.transactionRepo.GetOldestTransaction(pfIDs)
		if startDate.IsZero() {
			return time.Time{}, time.Time{}, false
		}
	}
	if endDate.IsZero() {
		endDate = time.Now().UTC()
	}
	return normalizeDay(startDate), normalizeDay(endDate), true
}

// GetFundHistory returns per-holding valuation rows for one portfolio, grouped by
// date. Returns ErrPortfolioNotFound for an unknown portfolio; an empty slice when
// the portfolio has no history or the cache could not be rebuilt.
func (s *HistoryService) GetFundHistory(portfolioID string, startDate, endDate time.Time) ([]model.FundHistoryResponse, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return nil, err
	}

	_, _, _, pfIDs, _, err := s.pfRepo.GetPortfolioFundsOnPortfolioID([]model.Portfolio{portfolio})
	if err != nil {
		return nil, err
	}
	if len(pfIDs) == 0 {
		return []model.FundHistoryResponse{}, nil
	}

	startDate, endDate, ok := s.resolveRange(pfIDs, startDate, endDate)
	if !ok {
		return []model.FundHistoryResponse{}, nil
	}

	if err := s.ensureMaterialized(pfIDs, startDate, endDate); err != nil {
		log.Printf("WARN: failed to materialize history for portfolio %s, returning empty result: %v", portfolioID, err)
		return []model.FundHistoryResponse{}, nil
	}

	entriesByDate := make(map[time.Time][]model.FundHistoryEntry)
	err = s.materializedRepo.GetFundHistory(portfolioID, startDate, endDate, func(entry model.FundHistoryEntry) error {
		entry.Shares = round(entry.Shares)
		entry.Price = round(entry.Price)
		entry.Value = round(entry.Value)
		entry.Cost = round(entry.Cost)
		entry.RealizedGain = round(entry.RealizedGain)
		entry.UnrealizedGain = round(entry.UnrealizedGain)
		entry.TotalGainLoss = round(entry.TotalGainLoss)
		entry.Dividends = round(entry.Dividends)
		entry.Fees = round(entry.Fees)

		entriesByDate[entry.Date] = append(entriesByDate[entry.Date], entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(entriesByDate))
	for date := range entriesByDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	history := make([]model.FundHistoryResponse, 0, len(dates))
	for _, date := range dates {
		history = append(history, model.FundHistoryResponse{
			Date:  date,
			Funds: entriesByDate[date],
		})
	}

	return history, nil
}

// GetPortfolioHistory returns day-by-day portfolio-level totals, aggregated in
// SQL from the materialized rows. An empty portfolioID covers all active
// portfolios; a non-empty one narrows the result to that portfolio and returns
// ErrPortfolioNotFound when it does not exist. Every date carries an entry for
// every selected portfolio; portfolios without holdings yet on a date report zeros.
func (s *HistoryService) GetPortfolioHistory(portfolioID string, startDate, endDate time.Time) ([]model.PortfolioHistory, error) {
	var portfolios []model.Portfolio
	var err error

	if portfolioID != "" {
		portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
		if err != nil {
			return nil, err
		}
		portfolios = []model.Portfolio{portfolio}
	} else {
		portfolios, err = s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
		if err != nil {
			return nil, err
		}
	}
	if len(portfolios) == 0 {
		return []model.PortfolioHistory{}, nil
	}

	_, _, _, pfIDs, _, err := s.pfRepo.GetPortfolioFundsOnPortfolioID(portfolios)
	if err != nil {
		return nil, err
	}

	startDate, endDate, ok := s.resolveRange(pfIDs, startDate, endDate)
	if !ok {
		return []model.PortfolioHistory{}, nil
	}

	if err := s.ensureMaterialized(pfIDs, startDate, endDate); err != nil {
		log.Printf("WARN: failed to materialize portfolio history, returning empty result: %v", err)
		return []model.PortfolioHistory{}, nil
	}

	portfolioIDs := make([]string, len(portfolios))
	for i, p := range portfolios {
		portfolioIDs[i] = p.ID
	}

	totalsByDate := make(map[time.Time]map[string]repository.PortfolioDayTotal)
	err = s.materializedRepo.GetPortfolioDailyTotals(portfolioIDs, startDate, endDate, func(total repository.PortfolioDayTotal) error {
		if totalsByDate[total.Date] == nil {
			totalsByDate[total.Date] = make(map[string]repository.PortfolioDayTotal)
		}
		totalsByDate[total.Date][total.PortfolioID] = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(totalsByDate))
	for date := range totalsByDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	history := make([]model.PortfolioHistory, 0, len(dates))
	for _, date := range dates {
		summaries := make([]model.PortfolioSummary, 0, len(portfolios))
		for _, p := range portfolios {
			summaries = append(summaries, summaryFromTotal(p, totalsByDate[date][p.ID]))
		}
		history = append(history, model.PortfolioHistory{
			Date:       date.Format("2006-01-02"),
			Portfolios: summaries,
		})
	}

	return history, nil
}

// GetPortfolioSummary returns each active portfolio's totals on its most recent
// materialized date.
func (s *HistoryService) GetPortfolioSummary() ([]model.PortfolioSummary, error) {
	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
	if err != nil {
		return nil, err
	}
	if len(portfolios) == 0 {
		return []model.PortfolioSummary{}, nil
	}

	_, _, _, pfIDs, _, err := s.pfRepo.GetPortfolioFundsOnPortfolioID(portfolios)
	if err != nil {
		return nil, err
	}

	if err := s.ensureMaterialized(pfIDs, time.Time{}, time.Time{}); err != nil {
		log.Printf("WARN: failed to materialize portfolio summaries, returning empty result: %v", err)
		return []model.PortfolioSummary{}, nil
	}

	portfolioIDs := make([]string, len(portfolios))
	for i, p := range portfolios {
		portfolioIDs[i] = p.ID
	}

	latest, err := s.materializedRepo.GetLatestPortfolioTotals(portfolioIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.PortfolioSummary, 0, len(portfolios))
	for _, p := range portfolios {
		summaries = append(summaries, summaryFromTotal(p, latest[p.ID]))
	}

	return summaries, nil
}

// summaryFromTotal maps a summed day total onto a portfolio summary with rounded
// monetary values. A zero-valued total (portfolio not materialized on that date)
// yields a zeroed summary.
func summaryFromTotal(p model.Portfolio, total repository.PortfolioDayTotal) model.PortfolioSummary {
	return model.PortfolioSummary{
		ID:                      p.ID,
		Name:                    p.Name,
		Description:             p.Description,
		TotalValue:              round(total.Value),
		TotalCost:               round(total.Cost),
		TotalDividends:          round(total.Dividends),
		TotalUnrealizedGainLoss: round(total.UnrealizedGain),
		TotalRealizedGainLoss:   round(total.RealizedGain),
		TotalGainLoss:           round(total.TotalGainLoss),
		TotalFees:               round(total.Fees),
		IsArchived:              p.IsArchived,
	}
}
