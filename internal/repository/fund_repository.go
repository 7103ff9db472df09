package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// FundRepository provides data access methods for fund and fund_price tables.
// It handles retrieving fund metadata and historical price data.
type FundRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewFundRepository creates a new FundRepository with the provided database connection.
func NewFundRepository(db *sql.DB) *FundRepository {
	return &FundRepository{db: db}
}

// WithTx returns a new FundRepository scoped to the provided transaction.
func (r *FundRepository) WithTx(tx *sql.Tx) *FundRepository {
	return &FundRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *FundRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetFund retrieves a single fund's metadata by its ID.
// Returns ErrFundNotFound if no fund with the given ID exists.
func (r *FundRepository) GetFund(fundID string) (model.Fund, error) {
	query := `
		SELECT id, name, isin, symbol, currency, exchange, investment_type, dividend_type
		FROM fund
		WHERE id = ?
	`

	var f model.Fund
	err := r.getQuerier().QueryRow(query, fundID).Scan(
		&f.ID,
		&f.Name,
		&f.Isin,
		&f.Symbol,
		&f.Currency,
		&f.Exchange,
		&f.InvestmentType,
		&f.DividendType,
	)
	if err == sql.ErrNoRows {
		return model.Fund{}, apperrors.ErrFundNotFound
	}
	if err != nil {
		return model.Fund{}, fmt.Errorf("failed to query fund table: %w", err)
	}

	return f, nil
}

// GetFunds retrieves fund records for the given fund IDs.
// Returns a slice of Fund objects containing metadata like name, ISIN, symbol, currency, etc.
func (r *FundRepository) GetFunds(fundIDs []string) ([]model.Fund, error) {
	if len(fundIDs) == 0 {
		return []model.Fund{}, nil
	}

	fundPlaceholders := make([]string, len(fundIDs))
	for i := range fundPlaceholders {
		fundPlaceholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	fundQuery := `
		SELECT id, name, isin, symbol, currency, exchange, investment_type, dividend_type
		FROM fund
		WHERE id IN (` + strings.Join(fundPlaceholders, ",") + `)
	`

	fundArgs := make([]any, len(fundIDs))
	for i, id := range fundIDs {
		fundArgs[i] = id
	}

	rows, err := r.getQuerier().Query(fundQuery, fundArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund table: %w", err)
	}
	defer rows.Close()

	funds := []model.Fund{}

	for rows.Next() {
		var f model.Fund

		err := rows.Scan(
			&f.ID,
			&f.Name,
			&f.Isin,
			&f.Symbol,
			&f.Currency,
			&f.Exchange,
			&f.InvestmentType,
			&f.DividendType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund table results: %w", err)
		}
		funds = append(funds, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund table: %w", err)
	}

	return funds, nil
}

// GetFundPrice retrieves historical price data for the given fund IDs within the specified date range.
//
// Parameters:
//   - fundIDs: slice of fund IDs to query
//   - startDate: inclusive start date for the query
//   - endDate: inclusive end date for the query
//   - ascending: if true, sort by date ASC (oldest first); if false, DESC (newest first)
//
// Returns a map of fundID -> []FundPrice, grouped by fund and sorted by date.
func (r *FundRepository) GetFundPrice(fundIDs []string, startDate, endDate time.Time, ascending bool) (map[string][]model.FundPrice, error) {

	if startDate.After(endDate) {
		return nil, fmt.Errorf("startDate (%s) must be before or equal to endDate (%s)",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}
	if len(fundIDs) == 0 {
		return make(map[string][]model.FundPrice), nil
	}

	fundPricePlaceholders := make([]string, len(fundIDs))
	for i := range fundPricePlaceholders {
		fundPricePlaceholders[i] = "?"
	}

	var sortOrder string
	if ascending {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	fundPriceQuery := `
		SELECT id, fund_id, date, price
		FROM fund_price
		WHERE fund_id IN (` + strings.Join(fundPricePlaceholders, ",") + `)
		AND date >= ?
		AND date <= ?
		ORDER BY fund_id ASC, date ` + sortOrder + `
	`

	fundPriceArgs := make([]any, 0, len(fundIDs)+2)
	for _, id := range fundIDs {
		fundPriceArgs = append(fundPriceArgs, id)
	}
	fundPriceArgs = append(fundPriceArgs, startDate.Format("2006-01-02"))
	fundPriceArgs = append(fundPriceArgs, endDate.Format("2006-01-02"))

	rows, err := r.getQuerier().Query(fundPriceQuery, fundPriceArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund_price table: %w", err)
	}
	defer rows.Close()

	fundPriceByFund := make(map[string][]model.FundPrice)

	for rows.Next() {
		var dateStr string
		var fp model.FundPrice

		err := rows.Scan(
			&fp.ID,
			&fp.FundID,
			&dateStr,
			&fp.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund_price table results: %w", err)
		}

		fp.Date, err = ParseTime(dateStr)
		if err != nil || fp.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		fundPriceByFund[fp.FundID] = append(fundPriceByFund[fp.FundID], fp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund_price table: %w", err)
	}

	return fundPriceByFund, nil
}

// GetAllFundPricesForFund retrieves the complete price history for a single fund,
// sorted ascending by date. Used by the materializer's carry-forward price lookup.
func (r *FundRepository) GetAllFundPricesForFund(fundID string) ([]model.FundPrice, error) {
	byFund, err := r.GetFundPrice([]string{fundID}, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), true)
	if err != nil {
		return nil, err
	}
	return byFund[fundID], nil
}

// UpsertFundPrice inserts or replaces the price for a (fund, date) pair.
// The fund_price table carries UNIQUE(fund_id, date); a second write for the
// same day overwrites the earlier price rather than duplicating the row.
func (r *FundRepository) UpsertFundPrice(ctx context.Context, fundID string, date time.Time, price float64) (model.FundPrice, error) {
	query := `
		INSERT INTO fund_price (id, fund_id, date, price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_id, date) DO UPDATE SET price = excluded.price
	`

	fp := model.FundPrice{
		ID:     uuid.New().String(),
		FundID: fundID,
		Date:   date,
		Price:  price,
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		fp.ID,
		fp.FundID,
		fp.Date.Format("2006-01-02"),
		fp.Price,
	)
	if err != nil {
		return model.FundPrice{}, fmt.Errorf("failed to upsert fund_price: %w", err)
	}

	return fp, nil
}
