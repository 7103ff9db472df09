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

// IBKR inbox statuses.
const (
	IBKRStatusPending   = "pending"
	IBKRStatusAllocated = "allocated"
)

// IbkrService handles the IBKR (Interactive Brokers) import inbox.
//
// Imported transactions are allocated to holdings by percentage; each allocation
// produces a ledger transaction in that holding. Re-allocating replaces the old
// allocations and their ledger transactions, after which the materialized
// history of every holding touched before or after the change is invalidated.
type IbkrService struct {
	db              *sql.DB
	ibkrRepo        *repository.IbkrRepository
	pfRepo          *repository.PortfolioFundRepository
	transactionRepo *repository.TransactionRepository
	invalidation    *InvalidationService
}

// NewIbkrService creates a new IbkrService with the provided dependencies.
func NewIbkrService(
	db *sql.DB,
	ibkrRepo *repository.IbkrRepository,
	pfRepo *repository.PortfolioFundRepository,
	transactionRepo *repository.TransactionRepository,
	invalidation *InvalidationService,
) *IbkrService {
	return &IbkrService{
		db:              db,
		ibkrRepo:        ibkrRepo,
		pfRepo:          pfRepo,
		transactionRepo: transactionRepo,
		invalidation:    invalidation,
	}
}

// GetInbox retrieves imported transactions awaiting allocation, oldest first.
func (s *IbkrService) GetInbox() ([]model.IBKRTransaction, error) {
	return s.ibkrRepo.GetPendingTransactions()
}

// GetAllocations retrieves the recorded allocations for an imported transaction.
func (s *IbkrService) GetAllocations(ibkrTransactionID string) ([]model.IBKRTransactionAllocation, error) {
	return s.ibkrRepo.GetAllocations(ibkrTransactionID)
}

// AllocateTransaction assigns an imported transaction to holdings by percentage.
//
// Any previous allocation is replaced: the old allocation rows and the ledger
// transactions they produced are deleted, and new ones are written, all in one
// database transaction. Afterwards the union of old and new holdings is
// invalidated from the imported transaction's date.
func (s *IbkrService) AllocateTransaction(ctx context.Context, ibkrTransactionID string, req request.AllocateTransactionRequest) error {
	ibkrTx, err := s.ibkrRepo.GetIBKRTransaction(ibkrTransactionID)
	if err != nil {
		return err
	}

	oldAllocations, err := s.ibkrRepo.GetAllocations(ibkrTransactionID)
	if err != nil {
		return err
	}

	oldPFIDs := make([]string, 0, len(oldAllocations))
	for _, alloc := range oldAllocations {
		ledgerTx, err := s.transactionRepo.GetTransaction(alloc.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to resolve ledger transaction for allocation %s: %w", alloc.ID, err)
		}
		oldPFIDs = append(oldPFIDs, ledgerTx.PortfolioFundID)
	}

	ledgerType := "buy"
	if ibkrTx.TransactionType == "sell" {
		ledgerType = "sell"
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	txRepo := s.transactionRepo.WithTx(sqlTx)
	ibkrRepo := s.ibkrRepo.WithTx(sqlTx)

	for _, alloc := range oldAllocations {
		if err := txRepo.DeleteTransaction(ctx, alloc.TransactionID); err != nil {
			return err
		}
	}
	if err := ibkrRepo.DeleteAllocations(ctx, ibkrTransactionID); err != nil {
		return err
	}

	newPFIDs := make([]string, 0, len(req.Allocations))
	quantity := decimal.NewFromFloat(ibkrTx.Quantity)
	totalAmount := decimal.NewFromFloat(ibkrTx.TotalAmount)
	hundred := decimal.NewFromInt(100)

	for _, alloc := range req.Allocations {
		pf, err := s.pfRepo.GetPortfolioFund(alloc.PortfolioFundID)
		if err != nil {
			return err
		}

		fraction := decimal.NewFromFloat(alloc.Percentage).Div(hundred)
		allocatedShares := quantity.Mul(fraction)
		allocatedAmount := totalAmount.Mul(fraction)

		ledgerTx := &model.Transaction{
			ID:              uuid.New().String(),
			PortfolioFundID: pf.ID,
			Date:            ibkrTx.TransactionDate,
			Type:            ledgerType,
			Shares:          allocatedShares.InexactFloat64(),
			CostPerShare:    ibkrTx.Price,
			CreatedAt:       time.Now(),
		}
		if err := txRepo.InsertTransaction(ctx, ledgerTx); err != nil {
			return err
		}

		allocation := &model.IBKRTransactionAllocation{
			ID:                   uuid.New().String(),
			IBKRTransactionID:    ibkrTransactionID,
			PortfolioID:          pf.PortfolioID,
			AllocationPercentage: alloc.Percentage,
			AllocatedAmount:      allocatedAmount.InexactFloat64(),
			AllocatedShares:      allocatedShares.InexactFloat64(),
			TransactionID:        ledgerTx.ID,
			CreatedAt:            time.Now(),
		}
		if err := ibkrRepo.InsertAllocation(ctx, allocation); err != nil {
			return err
		}

		newPFIDs = append(newPFIDs, pf.ID)
	}

	status := IBKRStatusAllocated
	if len(req.Allocations) == 0 {
		status = IBKRStatusPending
	}
	if err := ibkrRepo.UpdateIBKRTransactionStatus(ctx, ibkrTransactionID, status); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidation.InvalidateFromAllocationChange(oldPFIDs, newPFIDs, ibkrTx.TransactionDate)

	return nil
}
