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

// DividendRepository provides data access methods for the dividend table.
type DividendRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewDividendRepository creates a new DividendRepository with the provided database connection.
func NewDividendRepository(db *sql.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

// WithTx returns a new DividendRepository scoped to the provided transaction.
func (s *DividendRepository) WithTx(tx *sql.Tx) *DividendRepository {
	return &DividendRepository{
		db: s.db,
		tx: tx,
	}
}

func (s *DividendRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// GetDividendPerPF retrieves dividends for the given portfolio_fund IDs within the
// specified ex-dividend date range, sorted ascending and grouped by portfolio_fund ID.
func (s *DividendRepository) GetDividendPerPF(pfIDs []string, startDate, endDate time.Time) (map[string][]model.Dividend, error) {
	if len(pfIDs) == 0 {
		return make(map[string][]model.Dividend), nil
	}

	dividendPlaceholders := make([]string, len(pfIDs))
	for i := range dividendPlaceholders {
		dividendPlaceholders[i] = "?"
	}

	dividendQuery := `
		SELECT id, fund_id, portfolio_fund_id, record_date, ex_dividend_date, shares_owned,
		dividend_per_share, total_amount, reinvestment_status, buy_order_date, reinvestment_transaction_id, created_at
		FROM dividend
		WHERE portfolio_fund_id IN (` + strings.Join(dividendPlaceholders, ",") + `)
		AND ex_dividend_date >= ?
		AND ex_dividend_date <= ?
		ORDER BY ex_dividend_date ASC
	`

	dividendArgs := make([]any, 0, len(pfIDs)+2)
	for _, id := range pfIDs {
		dividendArgs = append(dividendArgs, id)
	}
	dividendArgs = append(dividendArgs, startDate.Format("2006-01-02"))
	dividendArgs = append(dividendArgs, endDate.Format("2006-01-02"))

	rows, err := s.getQuerier().Query(dividendQuery, dividendArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	dividendsByPF := make(map[string][]model.Dividend)

	for rows.Next() {
		d, err := scanDividend(rows)
		if err != nil {
			return nil, err
		}
		dividendsByPF[d.PortfolioFundID] = append(dividendsByPF[d.PortfolioFundID], d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend table: %w", err)
	}

	return dividendsByPF, nil
}

// GetAllDividendsForPF retrieves the complete dividend history for a single holding,
// sorted ascending by ex-dividend date.
func (s *DividendRepository) GetAllDividendsForPF(pfID string) ([]model.Dividend, error) {
	byPF, err := s.GetDividendPerPF([]string{pfID}, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	return byPF[pfID], nil
}

// GetDividend retrieves a single dividend record by its ID.
// Returns ErrDividendNotFound if no row with the given ID exists.
func (s *DividendRepository) GetDividend(dividendID string) (model.Dividend, error) {
	query := `
		SELECT id, fund_id, portfolio_fund_id, record_date, ex_dividend_date, shares_owned,
		dividend_per_share, total_amount, reinvestment_status, buy_order_date, reinvestment_transaction_id, created_at
		FROM dividend
		WHERE id = ?
	`

	rows, err := s.getQuerier().Query(query, dividendID)
	if err != nil {
		return model.Dividend{}, fmt.Errorf("failed to query dividend table: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Dividend{}, fmt.Errorf("error iterating dividend table: %w", err)
		}
		return model.Dividend{}, apperrors.ErrDividendNotFound
	}

	return scanDividend(rows)
}

// InsertDividend inserts a new dividend row.
func (s *DividendRepository) InsertDividend(ctx context.Context, d *model.Dividend) error {
	query := `
		INSERT INTO dividend (id, fund_id, portfolio_fund_id, record_date, ex_dividend_date,
		                      shares_owned, dividend_per_share, total_amount, reinvestment_status,
		                      buy_order_date, reinvestment_transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.getQuerier().ExecContext(ctx, query,
		d.ID,
		d.FundID,
		d.PortfolioFundID,
		d.RecordDate.Format("2006-01-02"),
		d.ExDividendDate.Format("2006-01-02"),
		d.SharesOwned,
		d.DividendPerShare,
		d.TotalAmount,
		d.ReinvestmentStatus,
		nullableDate(d.BuyOrderDate),
		nullableString(d.ReinvestmentTransactionID),
		d.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dividend: %w", err)
	}

	return nil
}

// UpdateDividend updates an existing dividend row.
// Returns ErrDividendNotFound if no row with the given ID exists.
func (s *DividendRepository) UpdateDividend(ctx context.Context, d *model.Dividend) error {
	query := `
		UPDATE dividend
		SET record_date = ?, ex_dividend_date = ?, shares_owned = ?, dividend_per_share = ?,
		    total_amount = ?, reinvestment_status = ?, buy_order_date = ?, reinvestment_transaction_id = ?
		WHERE id = ?
	`

	result, err := s.getQuerier().ExecContext(ctx, query,
		d.RecordDate.Format("2006-01-02"),
		d.ExDividendDate.Format("2006-01-02"),
		d.SharesOwned,
		d.DividendPerShare,
		d.TotalAmount,
		d.ReinvestmentStatus,
		nullableDate(d.BuyOrderDate),
		nullableString(d.ReinvestmentTransactionID),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dividend: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrDividendNotFound
	}

	return nil
}

// DeleteDividend removes a dividend row by its ID.
// Returns ErrDividendNotFound if no row with the given ID exists.
func (s *DividendRepository) DeleteDividend(ctx context.Context, dividendID string) error {
	query := `DELETE FROM dividend WHERE id = ?`

	result, err := s.getQuerier().ExecContext(ctx, query, dividendID)
	if err != nil {
		return fmt.Errorf("failed to delete dividend: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrDividendNotFound
	}

	return nil
}

func scanDividend(rows *sql.Rows) (model.Dividend, error) {
	var recordDateStr, exDividendStr, createdAtStr string
	var buyOrderStr, reinvestmentTxID sql.NullString
	var d model.Dividend

	err := rows.Scan(
		&d.ID,
		&d.FundID,
		&d.PortfolioFundID,
		&recordDateStr,
		&exDividendStr,
		&d.SharesOwned,
		&d.DividendPerShare,
		&d.TotalAmount,
		&d.ReinvestmentStatus,
		&buyOrderStr,
		&reinvestmentTxID,
		&createdAtStr,
	)
	if err != nil {
		return model.Dividend{}, fmt.Errorf("failed to scan dividend table results: %w", err)
	}

	d.RecordDate, err = ParseTime(recordDateStr)
	if err != nil || d.RecordDate.IsZero() {
		return model.Dividend{}, fmt.Errorf("failed to parse date: %w", err)
	}

	d.ExDividendDate, err = ParseTime(exDividendStr)
	if err != nil || d.ExDividendDate.IsZero() {
		return model.Dividend{}, fmt.Errorf("failed to parse date: %w", err)
	}

	// BuyOrderDate is nullable
	if buyOrderStr.Valid {
		d.BuyOrderDate, err = ParseTime(buyOrderStr.String)
		if err != nil || d.BuyOrderDate.IsZero() {
			return model.Dividend{}, fmt.Errorf("failed to parse buy_order_date: %w", err)
		}
	}

	// ReinvestmentTransactionID is nullable
	if reinvestmentTxID.Valid {
		d.ReinvestmentTransactionID = reinvestmentTxID.String
	}

	d.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil || d.CreatedAt.IsZero() {
		return model.Dividend{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return d, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
