package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// RealizedGainLossRepository provides data access methods for the realized_gain_loss table.
// Rows are written when a sell transaction is recorded and removed when the transaction
// that produced them is deleted.
type RealizedGainLossRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewRealizedGainLossRepository creates a new RealizedGainLossRepository with the provided database connection.
func NewRealizedGainLossRepository(db *sql.DB) *RealizedGainLossRepository {
	return &RealizedGainLossRepository{db: db}
}

// WithTx returns a new RealizedGainLossRepository scoped to the provided transaction.
func (s *RealizedGainLossRepository) WithTx(tx *sql.Tx) *RealizedGainLossRepository {
	return &RealizedGainLossRepository{
		db: s.db,
		tx: tx,
	}
}

func (s *RealizedGainLossRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// GetRealizedGainLossByPortfolio retrieves realized gain/loss rows for the given portfolios
// within the specified transaction-date range, grouped by portfolio ID.
func (s *RealizedGainLossRepository) GetRealizedGainLossByPortfolio(portfolios []model.Portfolio, startDate, endDate time.Time) (map[string][]model.RealizedGainLoss, error) {
	if len(portfolios) == 0 {
		return make(map[string][]model.RealizedGainLoss), nil
	}

	realizedGainLossPlaceholders := make([]string, len(portfolios))
	for i := range realizedGainLossPlaceholders {
		realizedGainLossPlaceholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	realizedGainLossQuery := `
		SELECT id, portfolio_id, fund_id, transaction_id, transaction_date, shares_sold, cost_basis,
		sale_proceeds, realized_gain_loss, created_at
		FROM realized_gain_loss
		WHERE portfolio_id IN (` + strings.Join(realizedGainLossPlaceholders, ",") + `)
		AND transaction_date >= ?
		AND transaction_date <= ?
		ORDER BY created_at ASC
	`

	realizedGainLossArgs := make([]any, 0, len(portfolios)+2)
	for _, p := range portfolios {
		realizedGainLossArgs = append(realizedGainLossArgs, p.ID)
	}
	realizedGainLossArgs = append(realizedGainLossArgs, startDate.Format("2006-01-02"))
	realizedGainLossArgs = append(realizedGainLossArgs, endDate.Format("2006-01-02"))

	rows, err := s.getQuerier().Query(realizedGainLossQuery, realizedGainLossArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query realized_gain_loss table: %w", err)
	}
	defer rows.Close()

	realizedGainLossByPortfolio := make(map[string][]model.RealizedGainLoss)

	for rows.Next() {
		var transactionDateStr, createdAtStr string
		var r model.RealizedGainLoss

		err := rows.Scan(
			&r.ID,
			&r.PortfolioID,
			&r.FundID,
			&r.TransactionID,
			&transactionDateStr,
			&r.SharesSold,
			&r.CostBasis,
			&r.SaleProceeds,
			&r.RealizedGainLoss,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan realized_gain_loss table results: %w", err)
		}

		r.TransactionDate, err = ParseTime(transactionDateStr)
		if err != nil || r.TransactionDate.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		r.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil || r.CreatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		realizedGainLossByPortfolio[r.PortfolioID] = append(realizedGainLossByPortfolio[r.PortfolioID], r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realized_gain_loss table: %w", err)
	}

	return realizedGainLossByPortfolio, nil
}

// InsertRealizedGainLoss inserts a new realized gain/loss row.
func (s *RealizedGainLossRepository) InsertRealizedGainLoss(ctx context.Context, r *model.RealizedGainLoss) error {
	query := `
		INSERT INTO realized_gain_loss (id, portfolio_id, fund_id, transaction_id, transaction_date,
		                                shares_sold, cost_basis, sale_proceeds, realized_gain_loss, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.getQuerier().ExecContext(ctx, query,
		r.ID,
		r.PortfolioID,
		r.FundID,
		r.TransactionID,
		r.TransactionDate.Format("2006-01-02"),
		r.SharesSold,
		r.CostBasis,
		r.SaleProceeds,
		r.RealizedGainLoss,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert realized_gain_loss: %w", err)
	}

	return nil
}

// DeleteByTransactionID removes realized gain/loss rows produced by a specific transaction.
// Deleting zero rows is not an error; most transactions are buys with no realized row.
func (s *RealizedGainLossRepository) DeleteByTransactionID(ctx context.Context, transactionID string) error {
	query := `DELETE FROM realized_gain_loss WHERE transaction_id = ?`

	_, err := s.getQuerier().ExecContext(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete realized_gain_loss: %w", err)
	}

	return nil
}
