package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// IbkrRepository provides data access methods for the ibkr_transaction and
// ibkr_transaction_allocation tables. Imported broker transactions sit in an
// inbox until they are allocated to one or more portfolios; each allocation
// records the ledger transaction it produced.
type IbkrRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewIbkrRepository creates a new IbkrRepository with the provided database connection.
func NewIbkrRepository(db *sql.DB) *IbkrRepository {
	return &IbkrRepository{db: db}
}

// WithTx returns a new IbkrRepository scoped to the provided transaction.
func (r *IbkrRepository) WithTx(tx *sql.Tx) *IbkrRepository {
	return &IbkrRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *IbkrRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetIBKRTransaction retrieves a single imported broker transaction by its ID.
// Returns ErrIBKRTransactionNotFound if no row with the given ID exists.
func (r *IbkrRepository) GetIBKRTransaction(id string) (model.IBKRTransaction, error) {
	query := `
		SELECT id, ibkr_transaction_id, transaction_date, symbol, isin, description,
		       transaction_type, quantity, price, total_amount, currency, fees, status, imported_at
		FROM ibkr_transaction
		WHERE id = ?
	`

	rows, err := r.getQuerier().Query(query, id)
	if err != nil {
		return model.IBKRTransaction{}, fmt.Errorf("failed to query ibkr_transaction table: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.IBKRTransaction{}, fmt.Errorf("error iterating ibkr_transaction table: %w", err)
		}
		return model.IBKRTransaction{}, apperrors.ErrIBKRTransactionNotFound
	}

	return scanIBKRTransaction(rows)
}

// GetPendingTransactions retrieves all imported transactions awaiting allocation,
// oldest first.
func (r *IbkrRepository) GetPendingTransactions() ([]model.IBKRTransaction, error) {
	query := `
		SELECT id, ibkr_transaction_id, transaction_date, symbol, isin, description,
		       transaction_type, quantity, price, total_amount, currency, fees, status, imported_at
		FROM ibkr_transaction
		WHERE status = 'pending'
		ORDER BY transaction_date ASC, imported_at ASC
	`

	rows, err := r.getQuerier().Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ibkr_transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.IBKRTransaction{}

	for rows.Next() {
		t, err := scanIBKRTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ibkr_transaction table: %w", err)
	}

	return transactions, nil
}

// InsertIBKRTransaction inserts a newly imported broker transaction into the inbox.
func (r *IbkrRepository) InsertIBKRTransaction(ctx context.Context, t *model.IBKRTransaction) error {
	query := `
		INSERT INTO ibkr_transaction (id, ibkr_transaction_id, transaction_date, symbol, isin,
		                              description, transaction_type, quantity, price, total_amount,
		                              currency, fees, status, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.IBKRTransactionID,
		t.TransactionDate.Format("2006-01-02"),
		t.Symbol,
		t.ISIN,
		t.Description,
		t.TransactionType,
		t.Quantity,
		t.Price,
		t.TotalAmount,
		t.Currency,
		t.Fees,
		t.Status,
		t.ImportedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ibkr_transaction: %w", err)
	}

	return nil
}

// UpdateIBKRTransactionStatus updates the inbox status of an imported transaction.
// Returns ErrIBKRTransactionNotFound if no row with the given ID exists.
func (r *IbkrRepository) UpdateIBKRTransactionStatus(ctx context.Context, id, status string) error {
	query := `UPDATE ibkr_transaction SET status = ? WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update ibkr_transaction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrIBKRTransactionNotFound
	}

	return nil
}

// GetAllocations retrieves the portfolio allocations recorded for an imported transaction.
func (r *IbkrRepository) GetAllocations(ibkrTransactionID string) ([]model.IBKRTransactionAllocation, error) {
	query := `
		SELECT id, ibkr_transaction_id, portfolio_id, allocation_percentage,
		       allocated_amount, allocated_shares, transaction_id, created_at
		FROM ibkr_transaction_allocation
		WHERE ibkr_transaction_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.getQuerier().Query(query, ibkrTransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ibkr_transaction_allocation table: %w", err)
	}
	defer rows.Close()

	allocations := []model.IBKRTransactionAllocation{}

	for rows.Next() {
		var createdAtStr string
		var a model.IBKRTransactionAllocation

		err := rows.Scan(
			&a.ID,
			&a.IBKRTransactionID,
			&a.PortfolioID,
			&a.AllocationPercentage,
			&a.AllocatedAmount,
			&a.AllocatedShares,
			&a.TransactionID,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ibkr_transaction_allocation results: %w", err)
		}

		a.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil || a.CreatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		allocations = append(allocations, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ibkr_transaction_allocation table: %w", err)
	}

	return allocations, nil
}

// InsertAllocation records how (part of) an imported transaction was allocated to a portfolio.
func (r *IbkrRepository) InsertAllocation(ctx context.Context, a *model.IBKRTransactionAllocation) error {
	query := `
		INSERT INTO ibkr_transaction_allocation (id, ibkr_transaction_id, portfolio_id,
		                                         allocation_percentage, allocated_amount,
		                                         allocated_shares, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		a.ID,
		a.IBKRTransactionID,
		a.PortfolioID,
		a.AllocationPercentage,
		a.AllocatedAmount,
		a.AllocatedShares,
		a.TransactionID,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ibkr_transaction_allocation: %w", err)
	}

	return nil
}

// DeleteAllocations removes all allocation rows for an imported transaction.
// Used when an allocation is redone; deleting zero rows is not an error.
func (r *IbkrRepository) DeleteAllocations(ctx context.Context, ibkrTransactionID string) error {
	query := `DELETE FROM ibkr_transaction_allocation WHERE ibkr_transaction_id = ?`

	_, err := r.getQuerier().ExecContext(ctx, query, ibkrTransactionID)
	if err != nil {
		return fmt.Errorf("failed to delete ibkr_transaction_allocation rows: %w", err)
	}

	return nil
}

func scanIBKRTransaction(rows *sql.Rows) (model.IBKRTransaction, error) {
	var transactionDateStr, importedAtStr string
	var t model.IBKRTransaction

	err := rows.Scan(
		&t.ID,
		&t.IBKRTransactionID,
		&transactionDateStr,
		&t.Symbol,
		&t.ISIN,
		&t.Description,
		&t.TransactionType,
		&t.Quantity,
		&t.Price,
		&t.TotalAmount,
		&t.Currency,
		&t.Fees,
		&t.Status,
		&importedAtStr,
	)
	if err != nil {
		return model.IBKRTransaction{}, fmt.Errorf("failed to scan ibkr_transaction results: %w", err)
	}

	t.TransactionDate, err = ParseTime(transactionDateStr)
	if err != nil || t.TransactionDate.IsZero() {
		return model.IBKRTransaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	t.ImportedAt, err = ParseTime(importedAtStr)
	if err != nil || t.ImportedAt.IsZero() {
		return model.IBKRTransaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return t, nil
}
