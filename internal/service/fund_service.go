package service

import (
	"context"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// FundService handles fund metadata and fund price operations.
//
// Price upserts invalidate the materialized history of every holding of the
// fund from the price's date forward, across all portfolios; prices carry
// forward, so later days change too.
type FundService struct {
	fundRepo     *repository.FundRepository
	invalidation *InvalidationService
}

// NewFundService creates a new FundService with the provided dependencies.
func NewFundService(
	fundRepo *repository.FundRepository,
	invalidation *InvalidationService,
) *FundService {
	return &FundService{
		fundRepo:     fundRepo,
		invalidation: invalidation,
	}
}

// GetFund retrieves a single fund's metadata by its ID.
func (s *FundService) GetFund(fundID string) (model.Fund, error) {
	return s.fundRepo.GetFund(fundID)
}

// GetFundPrices retrieves a fund's full price history, oldest first.
func (s *FundService) GetFundPrices(fundID string) ([]model.FundPrice, error) {
	if _, err := s.fundRepo.GetFund(fundID); err != nil {
		return nil, err
	}
	return s.fundRepo.GetAllFundPricesForFund(fundID)
}

// UpsertFundPrice creates or overwrites the price for a (fund, date) pair and
// invalidates affected materialized history after the write.
func (s *FundService) UpsertFundPrice(ctx context.Context, fundID, dateStr string, price float64) (model.FundPrice, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return model.FundPrice{}, err
	}

	if _, err := s.fundRepo.GetFund(fundID); err != nil {
		return model.FundPrice{}, err
	}

	fp, err := s.fundRepo.UpsertFundPrice(ctx, fundID, date, price)
	if err != nil {
		return model.FundPrice{}, err
	}

	s.invalidation.InvalidateFromPriceUpsert(fundID, date)

	return fp, nil
}
