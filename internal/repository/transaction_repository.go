package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// It handles retrieving and mutating ledger transactions for holdings.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (s *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: s.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (s *TransactionRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// GetTransactions retrieves all transactions for the given portfolio_fund IDs within the specified date range.
// Transactions are sorted by date in ascending order and grouped by portfolio_fund ID.
//
// Returns a map of portfolioFundID -> []Transaction. If pfIDs is empty, returns an empty map.
// This grouping allows callers to decide how to aggregate (by portfolio, by fund, etc.) after retrieval.
func (s *TransactionRepository) GetTransactions(pfIDs []string, startDate, endDate time.Time) (map[string][]model.Transaction, error) {
	if len(pfIDs) == 0 {
		return make(map[string][]model.Transaction), nil
	}

	transactionPlaceholders := make([]string, len(pfIDs))
	for i := range transactionPlaceholders {
		transactionPlaceholders[i] = "?"
	}

	transactionQuery := `
		SELECT id, portfolio_fund_id, date, type, shares, cost_per_share, created_at
		FROM "transaction"
		WHERE portfolio_fund_id IN (` + strings.Join(transactionPlaceholders, ",") + `)
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC, created_at ASC
	`

	transactionArgs := make([]any, 0, len(pfIDs)+2)
	for _, id := range pfIDs {
		transactionArgs = append(transactionArgs, id)
	}
	transactionArgs = append(transactionArgs, startDate.Format("2006-01-02"))
	transactionArgs = append(transactionArgs, endDate.Format("2006-01-02"))

	rows, err := s.getQuerier().Query(transactionQuery, transactionArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactionsByPortfolioFund := make(map[string][]model.Transaction)

	for rows.Next() {

		var dateStr, createdAtStr string
		var t model.Transaction

		err := rows.Scan(
			&t.ID,
			&t.PortfolioFundID,
			&dateStr,
			&t.Type,
			&t.Shares,
			&t.CostPerShare,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		t.Date, err = ParseTime(dateStr)
		if err != nil || t.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		t.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil || t.CreatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		transactionsByPortfolioFund[t.PortfolioFundID] = append(transactionsByPortfolioFund[t.PortfolioFundID], t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactionsByPortfolioFund, nil
}

// GetAllTransactionsForPF retrieves the complete transaction history for a single holding,
// sorted ascending by date. The materializer replays this to carry running state.
func (s *TransactionRepository) GetAllTransactionsForPF(pfID string) ([]model.Transaction, error) {
	byPF, err := s.GetTransactions([]string{pfID}, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	return byPF[pfID], nil
}

// GetOldestTransaction finds and returns the date of the earliest transaction across the given portfolio_fund IDs.
// This is used to determine the starting point for historical portfolio calculations.
//
// Returns time.Time{} (zero value) if:
//   - pfIDs is empty
//   - no transactions are found
//   - database query fails
//   - date parsing fails
func (s *TransactionRepository) GetOldestTransaction(pfIDs []string) time.Time {
	if len(pfIDs) == 0 {
		return time.Time{}
	}
	var oldestDateStr sql.NullString

	oldestTransactionPlaceholders := make([]string, len(pfIDs))
	for i := range oldestTransactionPlaceholders {
		oldestTransactionPlaceholders[i] = "?"
	}

	oldestTransactionQuery := `
		SELECT MIN(date)
		FROM "transaction"
		WHERE portfolio_fund_id IN (` + strings.Join(oldestTransactionPlaceholders, ",") + `)
		`

	oldestTransactionArgs := make([]any, len(pfIDs))
	for i, id := range pfIDs {
		oldestTransactionArgs[i] = id
	}

	err := s.getQuerier().QueryRow(oldestTransactionQuery, oldestTransactionArgs...).Scan(&oldestDateStr)
	if err != nil || !oldestDateStr.Valid {
		return time.Time{}
	}
	oldestDate, err := time.Parse("2006-01-02", oldestDateStr.String)
	if err != nil {
		return time.Time{}
	}

	return oldestDate
}

// GetTransactionsPerPortfolio retrieves all transactions for a specific portfolio,
// or all transactions if portfolioID is empty. Results include fund names and IBKR linkage.
func (s *TransactionRepository) GetTransactionsPerPortfolio(portfolioID string) ([]model.TransactionResponse, error) {

	transactionQuery := `
		SELECT
			t.id,
			t.portfolio_fund_id,
			f.name,
			t.date,
			t.type,
			t.shares,
			t.cost_per_share,
			ita.ibkr_transaction_id,
			CASE
				WHEN ita.ibkr_transaction_id IS NOT NULL THEN 1
				ELSE 0
			END AS ibkr_linked
		FROM "transaction" t
		JOIN portfolio_fund pf ON t.portfolio_fund_id = pf.id
		JOIN portfolio p ON pf.portfolio_id = p.id
		JOIN fund f ON pf.fund_id = f.id
		LEFT JOIN ibkr_transaction_allocation ita ON t.id = ita.transaction_id
	`

	var args []any

	if portfolioID == "" {
		transactionQuery += `
		ORDER BY t.date ASC
		`
	} else {
		transactionQuery += `
		WHERE pf.portfolio_id = ?
		ORDER BY t.date ASC
		`
		args = append(args, portfolioID)
	}

	rows, err := s.getQuerier().Query(transactionQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactionResponse := []model.TransactionResponse{}

	for rows.Next() {

		var dateStr string
		var ibkrTransactionID sql.NullString
		var t model.TransactionResponse

		err := rows.Scan(
			&t.ID,
			&t.PortfolioFundID,
			&t.FundName,
			&dateStr,
			&t.Type,
			&t.Shares,
			&t.CostPerShare,
			&ibkrTransactionID,
			&t.IbkrLinked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		t.Date, err = ParseTime(dateStr)
		if err != nil || t.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		// IbkrTransactionID is nullable
		if ibkrTransactionID.Valid {
			t.IbkrTransactionID = ibkrTransactionID.String
		}

		transactionResponse = append(transactionResponse, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactionResponse, nil
}

// GetTransaction retrieves a single transaction by its ID as a raw ledger record.
// Returns ErrTransactionNotFound if no row with the given ID exists.
func (s *TransactionRepository) GetTransaction(transactionID string) (model.Transaction, error) {
	query := `
		SELECT id, portfolio_fund_id, date, type, shares, cost_per_share, created_at
		FROM "transaction"
		WHERE id = ?
	`

	var t model.Transaction
	var dateStr, createdAtStr string

	err := s.getQuerier().QueryRow(query, transactionID).Scan(
		&t.ID,
		&t.PortfolioFundID,
		&dateStr,
		&t.Type,
		&t.Shares,
		&t.CostPerShare,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.Date, err = ParseTime(dateStr)
	if err != nil || t.Date.IsZero() {
		return model.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}
	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil || t.CreatedAt.IsZero() {
		return model.Transaction{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return t, nil
}

// InsertTransaction inserts a new transaction row.
func (s *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO "transaction" (id, portfolio_fund_id, date, type, shares, cost_per_share, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.PortfolioFundID,
		t.Date.Format("2006-01-02"),
		t.Type,
		t.Shares,
		t.CostPerShare,
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// UpdateTransaction updates an existing transaction row.
// Returns ErrTransactionNotFound if no row with the given ID exists.
func (s *TransactionRepository) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		UPDATE "transaction"
		SET portfolio_fund_id = ?, date = ?, type = ?, shares = ?, cost_per_share = ?
		WHERE id = ?
	`

	result, err := s.getQuerier().ExecContext(ctx, query,
		t.PortfolioFundID,
		t.Date.Format("2006-01-02"),
		t.Type,
		t.Shares,
		t.CostPerShare,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// DeleteTransaction removes a transaction row by its ID.
// Returns ErrTransactionNotFound if no row with the given ID exists.
func (s *TransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	query := `DELETE FROM "transaction" WHERE id = ?`

	result, err := s.getQuerier().ExecContext(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}
