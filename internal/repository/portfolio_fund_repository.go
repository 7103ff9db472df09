package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// PortfolioFundRepository provides data access methods for the portfolio_fund join table.
type PortfolioFundRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPortfolioFundRepository creates a new PortfolioFundRepository with the provided database connection.
func NewPortfolioFundRepository(db *sql.DB) *PortfolioFundRepository {
	return &PortfolioFundRepository{db: db}
}

// WithTx returns a new PortfolioFundRepository scoped to the provided transaction.
func (r *PortfolioFundRepository) WithTx(tx *sql.Tx) *PortfolioFundRepository {
	return &PortfolioFundRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *PortfolioFundRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPortfolioFund retrieves a single portfolio_fund record by its ID.
// Returns ErrPortfolioFundNotFound if no record with the given ID exists.
func (r *PortfolioFundRepository) GetPortfolioFund(pfID string) (model.PortfolioFund, error) {
	if pfID == "" {
		return model.PortfolioFund{}, apperrors.ErrEmptyID
	}

	query := `
		SELECT id, portfolio_id, fund_id
		FROM portfolio_fund
		WHERE id = ?
	`

	var pf model.PortfolioFund
	err := r.getQuerier().QueryRow(query, pfID).Scan(
		&pf.ID,
		&pf.PortfolioID,
		&pf.FundID,
	)
	if err == sql.ErrNoRows {
		return model.PortfolioFund{}, apperrors.ErrPortfolioFundNotFound
	}
	if err != nil {
		return model.PortfolioFund{}, fmt.Errorf("failed to query portfolio_fund: %w", err)
	}

	return pf, nil
}

// GetPortfolioFundsbyFundID retrieves all portfolio_fund records for a given fund ID,
// across every portfolio that holds the fund. Returns an empty slice if the fund is
// not assigned to any portfolio (not an error); a price change for an unheld fund
// simply has no holdings to touch.
func (r *PortfolioFundRepository) GetPortfolioFundsbyFundID(fundID string) ([]model.PortfolioFund, error) {
	if fundID == "" {
		return nil, apperrors.ErrInvalidFundID
	}

	query := `
		SELECT id, portfolio_id, fund_id
		FROM portfolio_fund
		WHERE fund_id = ?
	`

	rows, err := r.getQuerier().Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_fund table: %w", err)
	}
	defer rows.Close()

	pfs := []model.PortfolioFund{}

	for rows.Next() {
		var pf model.PortfolioFund
		err := rows.Scan(
			&pf.ID,
			&pf.PortfolioID,
			&pf.FundID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_fund results: %w", err)
		}
		pfs = append(pfs, pf)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_fund table: %w", err)
	}

	return pfs, nil
}

// GetPortfolioFundsOnPortfolioID retrieves funds for a set of portfolios, returning several
// lookup structures needed for calculation pipelines.
//
// Returns:
//   - fundsByPortfolio: map[portfolioID][]Fund - funds grouped by portfolio
//   - portfolioFundToPortfolio: map[portfolioFundID]portfolioID - lookup table
//   - portfolioFundToFund: map[portfolioFundID]fundID - lookup table
//   - pfIDs: slice of all portfolio_fund IDs
//   - fundIDs: slice of all fund IDs (may contain duplicates)
//   - error: any error encountered during the query
//
// Returns nil for all values if portfolios is empty.
func (r *PortfolioFundRepository) GetPortfolioFundsOnPortfolioID(portfolios []model.Portfolio) (map[string][]model.Fund, map[string]string, map[string]string, []string, []string, error) {
	if len(portfolios) == 0 {
		return nil, nil, nil, nil, nil, nil
	}

	portfolioPlaceholders := make([]string, len(portfolios))
	for i := range portfolioPlaceholders {
		portfolioPlaceholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	fundQuery := `
		SELECT
		portfolio_fund.id, portfolio_fund.portfolio_id,
		fund.id, fund.name, fund.isin, fund.symbol, fund.currency, fund.exchange, fund.investment_type, fund.dividend_type
		FROM portfolio_fund
		JOIN fund ON fund.id = portfolio_fund.fund_id
		WHERE portfolio_fund.portfolio_id IN (` + strings.Join(portfolioPlaceholders, ",") + `)
	`

	fundArgs := make([]any, len(portfolios))
	for i, p := range portfolios {
		fundArgs[i] = p.ID
	}

	rows, err := r.getQuerier().Query(fundQuery, fundArgs...)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to query portfolio_fund or funds table: %w", err)
	}
	defer rows.Close()

	fundsByPortfolio := make(map[string][]model.Fund)
	portfolioFundToPortfolio := make(map[string]string)
	portfolioFundToFund := make(map[string]string)
	var fundIDs, pfIDs []string

	for rows.Next() {
		var pfID string
		var portfolioID string
		var f model.Fund

		err := rows.Scan(
			&pfID,
			&portfolioID,
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
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to scan funds table results: %w", err)
		}

		fundsByPortfolio[portfolioID] = append(fundsByPortfolio[portfolioID], f)
		portfolioFundToPortfolio[pfID] = portfolioID
		portfolioFundToFund[pfID] = f.ID
		pfIDs = append(pfIDs, pfID)
		fundIDs = append(fundIDs, f.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("error iterating funds table: %w", err)
	}

	return fundsByPortfolio, portfolioFundToPortfolio, portfolioFundToFund, pfIDs, fundIDs, nil
}

// InsertPortfolioFund creates a new portfolio_fund relationship between a portfolio and a fund.
// Returns the generated portfolio_fund ID.
func (r *PortfolioFundRepository) InsertPortfolioFund(ctx context.Context, portfolioID, fundID string) (string, error) {
	query := `
        INSERT INTO portfolio_fund (id, portfolio_id, fund_id)
        VALUES (?, ?, ?)
    `

	pfID := uuid.New().String()

	_, err := r.getQuerier().ExecContext(ctx, query,
		pfID,
		portfolioID,
		fundID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert portfolio_fund: %w", err)
	}

	return pfID, nil
}

// DeletePortfolioFund removes a portfolio_fund relationship by its ID.
// Returns ErrPortfolioFundNotFound if no record with the given ID exists.
func (r *PortfolioFundRepository) DeletePortfolioFund(ctx context.Context, portfolioFundID string) error {
	query := `DELETE FROM portfolio_fund WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, portfolioFundID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio_fund: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrPortfolioFundNotFound
	}

	return nil
}
