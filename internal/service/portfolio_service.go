package service

import (
	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// PortfolioService handles portfolio metadata reads. Valuation history and
// summaries live on HistoryService, which serves them from the materialized cache.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	pfRepo        *repository.PortfolioFundRepository
}

// NewPortfolioService creates a new PortfolioService with the provided repositories.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	pfRepo *repository.PortfolioFundRepository,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		pfRepo:        pfRepo,
	}
}

// GetPortfolios retrieves portfolios matching the filter criteria.
func (s *PortfolioService) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(filter)
}

// GetPortfolio retrieves a single portfolio by its ID.
// Returns ErrPortfolioNotFound if no portfolio with the given ID exists.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// GetPortfolioFunds retrieves the funds held in a portfolio.
func (s *PortfolioService) GetPortfolioFunds(portfolioID string) ([]model.Fund, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return nil, err
	}

	fundsByPortfolio, _, _, _, _, err := s.pfRepo.GetPortfolioFundsOnPortfolioID([]model.Portfolio{portfolio})
	if err != nil {
		return nil, err
	}

	funds := fundsByPortfolio[portfolioID]
	if funds == nil {
		funds = []model.Fund{}
	}
	return funds, nil
}
