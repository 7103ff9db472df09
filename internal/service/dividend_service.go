package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// Dividend reinvestment statuses.
const (
	ReinvestmentStatusCash      = "cash"
	ReinvestmentStatusCompleted = "completed"
)

// DividendService handles dividend record writes and reads.
//
// A dividend's total amount is derived from the shares held on the ex-dividend
// date. Reinvested dividends additionally create a "dividend"-type ledger
// transaction for the reinvestment shares; the dividend row links to it via
// ReinvestmentTransactionID. Cache invalidation runs after commit, best-effort.
type DividendService struct {
	db              *sql.DB
	dividendRepo    *repository.DividendRepository
	transactionRepo *repository.TransactionRepository
	pfRepo          *repository.PortfolioFundRepository
	invalidation    *InvalidationService
}

// NewDividendService creates a new DividendService with the provided dependencies.
func NewDividendService(
	db *sql.DB,
	dividendRepo *repository.DividendRepository,
	transactionRepo *repository.TransactionRepository,
	pfRepo *repository.PortfolioFundRepository,
	invalidation *InvalidationService,
) *DividendService {
	return &DividendService{
		db:              db,
		dividendRepo:    dividendRepo,
		transactionRepo: transactionRepo,
		pfRepo:          pfRepo,
		invalidation:    invalidation,
	}
}

// GetDividend retrieves a single dividend record by its ID.
func (s *DividendService) GetDividend(dividendID string) (model.Dividend, error) {
	return s.dividendRepo.GetDividend(dividendID)
}

// GetDividendsForPortfolioFund retrieves all dividends for a holding, oldest first.
func (s *DividendService) GetDividendsForPortfolioFund(pfID string) ([]model.Dividend, error) {
	return s.dividendRepo.GetAllDividendsForPF(pfID)
}

// CreateDividend records a dividend payment for a holding.
//
// SharesOwned is computed from the ledger as of the ex-dividend date and the
// total amount is sharesOwned * dividendPerShare. When reinvestment shares are
// provided, a reinvestment transaction is created in the same database
// transaction and linked to the dividend.
func (s *DividendService) CreateDividend(ctx context.Context, req request.CreateDividendRequest) (*model.Dividend, error) {
	recordDate, err := time.Parse("2006-01-02", req.RecordDate)
	if err != nil {
		return nil, err
	}
	exDividendDate, err := time.Parse("2006-01-02", req.ExDividendDate)
	if err != nil {
		return nil, err
	}

	pf, err := s.pfRepo.GetPortfolioFund(req.PortfolioFundID)
	if err != nil {
		return nil, err
	}

	sharesOwned, err := s.sharesOwnedOnDate(req.PortfolioFundID, exDividendDate)
	if err != nil {
		return nil, err
	}

	dividend := &model.Dividend{
		ID:                 uuid.New().String(),
		FundID:             pf.FundID,
		PortfolioFundID:    pf.ID,
		RecordDate:         recordDate,
		ExDividendDate:     exDividendDate,
		SharesOwned:        sharesOwned,
		DividendPerShare:   req.DividendPerShare,
		TotalAmount:        round(sharesOwned * req.DividendPerShare),
		ReinvestmentStatus: ReinvestmentStatusCash,
		CreatedAt:          time.Now(),
	}

	var reinvestment *model.Transaction
	if req.ReinvestmentShares > 0 {
		buyOrderDate := exDividendDate
		if req.BuyOrderDate != "" {
			buyOrderDate, err = time.Parse("2006-01-02", req.BuyOrderDate)
			if err != nil {
				return nil, err
			}
		}

		reinvestment = &model.Transaction{
			ID:              uuid.New().String(),
			PortfolioFundID: pf.ID,
			Date:            buyOrderDate,
			Type:            "dividend",
			Shares:          req.ReinvestmentShares,
			CostPerShare:    req.ReinvestmentPrice,
			CreatedAt:       time.Now(),
		}

		dividend.BuyOrderDate = buyOrderDate
		dividend.ReinvestmentTransactionID = reinvestment.ID
		dividend.ReinvestmentStatus = ReinvestmentStatusCompleted
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if reinvestment != nil {
		if err := s.transactionRepo.WithTx(sqlTx).InsertTransaction(ctx, reinvestment); err != nil {
			return nil, err
		}
	}

	if err := s.dividendRepo.WithTx(sqlTx).InsertDividend(ctx, dividend); err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromDividend(*dividend)
	if reinvestment != nil {
		s.invalidation.InvalidateFromTransaction(*reinvestment)
	}

	return dividend, nil
}

// UpdateDividend applies a partial update to an existing dividend. SharesOwned
// and the total amount are recomputed from the ledger as of the (possibly new)
// ex-dividend date. A linked reinvestment transaction is updated in step.
func (s *DividendService) UpdateDividend(ctx context.Context, dividendID string, req request.UpdateDividendRequest) (*model.Dividend, error) {
	oldDividend, err := s.dividendRepo.GetDividend(dividendID)
	if err != nil {
		return nil, err
	}

	updated := oldDividend
	if req.RecordDate != nil {
		updated.RecordDate, err = time.Parse("2006-01-02", *req.RecordDate)
		if err != nil {
			return nil, err
		}
	}
	if req.ExDividendDate != nil {
		updated.ExDividendDate, err = time.Parse("2006-01-02", *req.ExDividendDate)
		if err != nil {
			return nil, err
		}
	}
	if req.DividendPerShare != nil {
		updated.DividendPerShare = *req.DividendPerShare
	}
	if req.BuyOrderDate != nil {
		updated.BuyOrderDate, err = time.Parse("2006-01-02", *req.BuyOrderDate)
		if err != nil {
			return nil, err
		}
	}

	updated.SharesOwned, err = s.sharesOwnedOnDate(updated.PortfolioFundID, updated.ExDividendDate)
	if err != nil {
		return nil, err
	}
	updated.TotalAmount = round(updated.SharesOwned * updated.DividendPerShare)

	var reinvestment *model.Transaction
	var oldReinvestment model.Transaction
	if updated.ReinvestmentTransactionID != "" && (req.ReinvestmentShares != nil || req.ReinvestmentPrice != nil || req.BuyOrderDate != nil) {
		existing, err := s.transactionRepo.GetTransaction(updated.ReinvestmentTransactionID)
		if err != nil {
			return nil, err
		}
		oldReinvestment = existing
		if req.ReinvestmentShares != nil {
			existing.Shares = *req.ReinvestmentShares
		}
		if req.ReinvestmentPrice != nil {
			existing.CostPerShare = *req.ReinvestmentPrice
		}
		if req.BuyOrderDate != nil {
			existing.Date = updated.BuyOrderDate
		}
		reinvestment = &existing
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if reinvestment != nil {
		if err := s.transactionRepo.WithTx(sqlTx).UpdateTransaction(ctx, reinvestment); err != nil {
			return nil, err
		}
	}

	if err := s.dividendRepo.WithTx(sqlTx).UpdateDividend(ctx, &updated); err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromDividendUpdate(oldDividend.ExDividendDate, updated)
	if reinvestment != nil {
		// A moved buy order invalidates from the earlier of its old and new
		// dates; anchoring at the new date alone leaves stale rows behind when
		// the order moves forward past days it used to affect.
		s.invalidation.InvalidateFromTransactionUpdate(oldReinvestment, *reinvestment)
	}

	return &updated, nil
}

// DeleteDividend removes a dividend record along with its linked reinvestment
// transaction, if any.
func (s *DividendService) DeleteDividend(ctx context.Context, dividendID string) error {
	dividend, err := s.dividendRepo.GetDividend(dividendID)
	if err != nil {
		return err
	}

	var reinvestment model.Transaction
	if dividend.ReinvestmentTransactionID != "" {
		reinvestment, err = s.transactionRepo.GetTransaction(dividend.ReinvestmentTransactionID)
		if err != nil {
			return err
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.dividendRepo.WithTx(sqlTx).DeleteDividend(ctx, dividendID); err != nil {
		return err
	}

	if dividend.ReinvestmentTransactionID != "" {
		if err := s.transactionRepo.WithTx(sqlTx).DeleteTransaction(ctx, dividend.ReinvestmentTransactionID); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromDividendDelete(dividend)
	if dividend.ReinvestmentTransactionID != "" {
		s.invalidation.InvalidateFromTransactionDelete(reinvestment)
	}

	return nil
}

// sharesOwnedOnDate replays the holding's ledger to find the share count as of
// the given date.
func (s *DividendService) sharesOwnedOnDate(pfID string, date time.Time) (float64, error) {
	transactions, err := s.transactionRepo.GetAllTransactionsForPF(pfID)
	if err != nil {
		return 0, err
	}

	day := normalizeDay(date)
	shares := decimal.Zero

	for _, tx := range transactions {
		if normalizeDay(tx.Date).After(day) {
			break
		}
		switch tx.Type {
		case "buy", "dividend":
			shares = shares.Add(decimal.NewFromFloat(tx.Shares))
		case "sell":
			shares = shares.Sub(decimal.NewFromFloat(tx.Shares))
			if shares.IsNegative() {
				shares = decimal.Zero
			}
		}
	}

	return shares.InexactFloat64(), nil
}
