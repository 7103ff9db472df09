package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
)

// TransactionService handles ledger transaction writes and reads.
//
// Writes commit the ledger change (and, for sells, the realized gain/loss row)
// in one database transaction, then invalidate the materialized cache after the
// commit. Cache invalidation is best-effort and never fails the ledger write.
type TransactionService struct {
	db              *sql.DB
	transactionRepo *repository.TransactionRepository
	pfRepo          *repository.PortfolioFundRepository
	realizedRepo    *repository.RealizedGainLossRepository
	invalidation    *InvalidationService
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	db *sql.DB,
	transactionRepo *repository.TransactionRepository,
	pfRepo *repository.PortfolioFundRepository,
	realizedRepo *repository.RealizedGainLossRepository,
	invalidation *InvalidationService,
) *TransactionService {
	return &TransactionService{
		db:              db,
		transactionRepo: transactionRepo,
		pfRepo:          pfRepo,
		realizedRepo:    realizedRepo,
		invalidation:    invalidation,
	}
}

// GetTransactionsperPortfolio retrieves all transactions for a specific portfolio or all transactions if portfolioID is empty.
// Returns enriched transaction data including fund names and IBKR linkage status.
func (s *TransactionService) GetTransactionsperPortfolio(portfolioID string) ([]model.TransactionResponse, error) {
	return s.transactionRepo.GetTransactionsPerPortfolio(portfolioID)
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(transactionID string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(transactionID)
}

// CreateTransaction records a new ledger transaction. Sell transactions also
// write a realized gain/loss row, computed with the average-cost method from the
// position held immediately before the sale; both rows commit atomically.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (*model.Transaction, error) {
	transactionDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}

	pf, err := s.pfRepo.GetPortfolioFund(req.PortfolioFundID)
	if err != nil {
		return nil, err
	}

	transaction := &model.Transaction{
		ID:              uuid.New().String(),
		PortfolioFundID: req.PortfolioFundID,
		Date:            transactionDate,
		Type:            req.Type,
		Shares:          req.Shares,
		CostPerShare:    req.CostPerShare,
		CreatedAt:       time.Now(),
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// The transaction row goes in first: the realized_gain_loss row references
	// it by ID and foreign keys are enforced. The sell excludes itself from the
	// position replay so it doesn't count toward its own cost basis.
	if err := s.transactionRepo.WithTx(sqlTx).InsertTransaction(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if transaction.Type == "sell" {
		realized, err := s.computeRealizedGainLoss(sqlTx, pf, transaction, transaction.ID)
		if err != nil {
			return nil, err
		}
		if err := s.realizedRepo.WithTx(sqlTx).InsertRealizedGainLoss(ctx, realized); err != nil {
			return nil, err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromTransaction(*transaction)

	return transaction, nil
}

// UpdateTransaction applies a partial update to an existing ledger transaction.
// The realized gain/loss row tied to the transaction is recomputed: the old row
// is dropped and, if the updated transaction is still a sell, a fresh row is
// written from the updated position.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.UpdateTransactionRequest) (*model.Transaction, error) {
	oldTransaction, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		return nil, err
	}

	updated := oldTransaction
	if req.PortfolioFundID != nil {
		updated.PortfolioFundID = *req.PortfolioFundID
	}
	if req.Date != nil {
		updated.Date, err = time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, err
		}
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Shares != nil {
		updated.Shares = *req.Shares
	}
	if req.CostPerShare != nil {
		updated.CostPerShare = *req.CostPerShare
	}

	pf, err := s.pfRepo.GetPortfolioFund(updated.PortfolioFundID)
	if err != nil {
		return nil, err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.realizedRepo.WithTx(sqlTx).DeleteByTransactionID(ctx, transactionID); err != nil {
		return nil, err
	}

	if updated.Type == "sell" {
		realized, err := s.computeRealizedGainLoss(sqlTx, pf, &updated, transactionID)
		if err != nil {
			return nil, err
		}
		if err := s.realizedRepo.WithTx(sqlTx).InsertRealizedGainLoss(ctx, realized); err != nil {
			return nil, err
		}
	}

	if err := s.transactionRepo.WithTx(sqlTx).UpdateTransaction(ctx, &updated); err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromTransactionUpdate(oldTransaction, updated)

	return &updated, nil
}

// DeleteTransaction removes a ledger transaction along with any realized
// gain/loss row it produced.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	transaction, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.realizedRepo.WithTx(sqlTx).DeleteByTransactionID(ctx, transactionID); err != nil {
		return err
	}

	if err := s.transactionRepo.WithTx(sqlTx).DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromTransactionDelete(transaction)

	return nil
}

// computeRealizedGainLoss replays the holding's ledger up to the sell date to
// find the average-cost position immediately before the sale, then prices the
// sold shares against it. excludeID skips the transaction being updated so it
// doesn't count toward its own prior position.
//
// Returns ErrInsufficientShares when the position holds fewer shares than the
// sale disposes of.
func (s *TransactionService) computeRealizedGainLoss(sqlTx *sql.Tx, pf model.PortfolioFund, sell *model.Transaction, excludeID string) (*model.RealizedGainLoss, error) {
	transactions, err := s.transactionRepo.WithTx(sqlTx).GetAllTransactionsForPF(sell.PortfolioFundID)
	if err != nil {
		return nil, err
	}

	shares := decimal.Zero
	cost := decimal.Zero
	sellDay := normalizeDay(sell.Date)

	for _, tx := range transactions {
		if tx.ID == excludeID || normalizeDay(tx.Date).After(sellDay) {
			continue
		}

		txShares := decimal.NewFromFloat(tx.Shares)
		costPerShare := decimal.NewFromFloat(tx.CostPerShare)

		switch tx.Type {
		case "buy", "dividend":
			shares = shares.Add(txShares)
			cost = cost.Add(txShares.Mul(costPerShare))
		case "sell":
			if shares.IsPositive() {
				costOfSold := cost.Mul(txShares).Div(shares)
				shares = shares.Sub(txShares)
				if shares.IsPositive() {
					cost = cost.Sub(costOfSold)
				} else {
					shares = decimal.Zero
					cost = decimal.Zero
				}
			}
		case "fee":
			cost = cost.Add(costPerShare)
		}
	}

	sold := decimal.NewFromFloat(sell.Shares)
	if !shares.IsPositive() || shares.LessThan(sold) {
		return nil, apperrors.ErrInsufficientShares
	}

	costBasis := cost.Mul(sold).Div(shares)
	proceeds := sold.Mul(decimal.NewFromFloat(sell.CostPerShare))

	return &model.RealizedGainLoss{
		ID:               uuid.New().String(),
		PortfolioID:      pf.PortfolioID,
		FundID:           pf.FundID,
		TransactionID:    sell.ID,
		TransactionDate:  sell.Date,
		SharesSold:       sell.Shares,
		CostBasis:        costBasis.InexactFloat64(),
		SaleProceeds:     proceeds.InexactFloat64(),
		RealizedGainLoss: proceeds.Sub(costBasis).InexactFloat64(),
		CreatedAt:        time.Now(),
	}, nil
}
