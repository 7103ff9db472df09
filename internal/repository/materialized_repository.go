package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// MaterializedRepository provides data access methods for the fund_history_materialized table.
// Each row is one holding (portfolio_fund) on one calendar day; the table carries a
// UNIQUE(portfolio_fund_id, date) constraint so concurrent writers converge via upsert.
type MaterializedRepository struct {
	db *sql.DB
}

// NewMaterializedRepository creates a new repository instance.
func NewMaterializedRepository(db *sql.DB) *MaterializedRepository {
	return &MaterializedRepository{db: db}
}

// upsertBatchSize keeps each multi-row INSERT well under SQLite's bind
// variable limit (14 columns per row).
const upsertBatchSize = 50

// UpsertRows writes materialized rows in batches using
// INSERT ... ON CONFLICT(portfolio_fund_id, date) DO UPDATE.
//
// The conflict target makes re-materialization idempotent: replaying the same
// range overwrites rows with identical values, and two concurrent writers
// racing on the same holding both land on a consistent final state.
func (r *MaterializedRepository) UpsertRows(rows []model.FundHistoryMaterialized) error {
	if len(rows) == 0 {
		return nil
	}

	for offset := 0; offset < len(rows); offset += upsertBatchSize {
		end := offset + upsertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := r.upsertBatch(rows[offset:end]); err != nil {
			return err
		}
	}

	return nil
}

func (r *MaterializedRepository) upsertBatch(rows []model.FundHistoryMaterialized) error {
	valuePlaceholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*14)

	for i, row := range rows {
		valuePlaceholders[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args,
			row.ID,
			row.PortfolioFundID,
			row.FundID,
			row.Date.Format("2006-01-02"),
			row.Shares,
			row.Price,
			row.Value,
			row.Cost,
			row.RealizedGain,
			row.UnrealizedGain,
			row.TotalGainLoss,
			row.Dividends,
			row.Fees,
			row.CalculatedAt.UTC().Format(time.RFC3339),
		)
	}

	query := `
		INSERT INTO fund_history_materialized (
			id, portfolio_fund_id, fund_id, date, shares, price, value, cost,
			realized_gain, unrealized_gain, total_gain_loss, dividends, fees, calculated_at
		)
		VALUES ` + strings.Join(valuePlaceholders, ",") + `
		ON CONFLICT(portfolio_fund_id, date) DO UPDATE SET
			fund_id = excluded.fund_id,
			shares = excluded.shares,
			price = excluded.price,
			value = excluded.value,
			cost = excluded.cost,
			realized_gain = excluded.realized_gain,
			unrealized_gain = excluded.unrealized_gain,
			total_gain_loss = excluded.total_gain_loss,
			dividends = excluded.dividends,
			fees = excluded.fees,
			calculated_at = excluded.calculated_at
	`

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to upsert fund_history_materialized rows: %w", err)
	}

	return nil
}

// GetFundHistory retrieves materialized rows for all holdings of a portfolio within the
// date range, enriched with fund names. Results stream through the callback one row at
// a time to keep memory flat on large ranges.
func (r *MaterializedRepository) GetFundHistory(
	portfolioID string,
	startDate, endDate time.Time,
	callback func(entry model.FundHistoryEntry) error,
) error {
	query := `
		SELECT fhm.portfolio_fund_id, fhm.fund_id, f.name, fhm.date, fhm.shares, fhm.price,
		       fhm.value, fhm.cost, fhm.realized_gain, fhm.unrealized_gain,
		       fhm.total_gain_loss, fhm.dividends, fhm.fees
		FROM fund_history_materialized fhm
		JOIN portfolio_fund pf ON pf.id = fhm.portfolio_fund_id
		JOIN fund f ON f.id = fhm.fund_id
		WHERE pf.portfolio_id = ?
		AND fhm.date >= ?
		AND fhm.date <= ?
		ORDER BY fhm.date ASC
	`

	rows, err := r.db.Query(query, portfolioID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to query fund_history_materialized: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry model.FundHistoryEntry
		var dateStr string

		err := rows.Scan(
			&entry.PortfolioFundID,
			&entry.FundID,
			&entry.FundName,
			&dateStr,
			&entry.Shares,
			&entry.Price,
			&entry.Value,
			&entry.Cost,
			&entry.RealizedGain,
			&entry.UnrealizedGain,
			&entry.TotalGainLoss,
			&entry.Dividends,
			&entry.Fees,
		)
		if err != nil {
			return fmt.Errorf("failed to scan fund_history_materialized row: %w", err)
		}

		entry.Date, err = ParseTime(dateStr)
		if err != nil {
			return fmt.Errorf("failed to parse date: %w", err)
		}

		if err := callback(entry); err != nil {
			return err
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating fund_history_materialized: %w", err)
	}

	return nil
}

// PortfolioDayTotal is one portfolio's summed materialized state for one date.
type PortfolioDayTotal struct {
	PortfolioID    string
	Date           time.Time
	Value          float64
	Cost           float64
	RealizedGain   float64
	UnrealizedGain float64
	TotalGainLoss  float64
	Dividends      float64
	Fees           float64
}

// GetPortfolioDailyTotals aggregates fund-level materialized rows to portfolio level
// inside SQL, grouped by (portfolio_id, date). One query regardless of range length.
func (r *MaterializedRepository) GetPortfolioDailyTotals(
	portfolioIDs []string,
	startDate, endDate time.Time,
	callback func(total PortfolioDayTotal) error,
) error {
	if len(portfolioIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(portfolioIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT pf.portfolio_id, fhm.date,
		       SUM(fhm.value), SUM(fhm.cost), SUM(fhm.realized_gain),
		       SUM(fhm.unrealized_gain), SUM(fhm.total_gain_loss),
		       SUM(fhm.dividends), SUM(fhm.fees)
		FROM fund_history_materialized fhm
		JOIN portfolio_fund pf ON pf.id = fhm.portfolio_fund_id
		WHERE pf.portfolio_id IN (` + strings.Join(placeholders, ",") + `)
		AND fhm.date >= ?
		AND fhm.date <= ?
		GROUP BY pf.portfolio_id, fhm.date
		ORDER BY fhm.date ASC
	`

	args := make([]any, 0, len(portfolioIDs)+2)
	for _, id := range portfolioIDs {
		args = append(args, id)
	}
	args = append(args, startDate.Format("2006-01-02"))
	args = append(args, endDate.Format("2006-01-02"))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query portfolio daily totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var total PortfolioDayTotal
		var dateStr string

		err := rows.Scan(
			&total.PortfolioID,
			&dateStr,
			&total.Value,
			&total.Cost,
			&total.RealizedGain,
			&total.UnrealizedGain,
			&total.TotalGainLoss,
			&total.Dividends,
			&total.Fees,
		)
		if err != nil {
			return fmt.Errorf("failed to scan portfolio daily total: %w", err)
		}

		total.Date, err = ParseTime(dateStr)
		if err != nil {
			return fmt.Errorf("failed to parse date: %w", err)
		}

		if err := callback(total); err != nil {
			return err
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating portfolio daily totals: %w", err)
	}

	return nil
}

// GetLatestPortfolioTotals returns each portfolio's summed state on its most recent
// materialized date. Portfolios with no materialized rows are absent from the map.
func (r *MaterializedRepository) GetLatestPortfolioTotals(portfolioIDs []string) (map[string]PortfolioDayTotal, error) {
	totals := make(map[string]PortfolioDayTotal)
	if len(portfolioIDs) == 0 {
		return totals, nil
	}

	placeholders := make([]string, len(portfolioIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT pf.portfolio_id, fhm.date,
		       SUM(fhm.value), SUM(fhm.cost), SUM(fhm.realized_gain),
		       SUM(fhm.unrealized_gain), SUM(fhm.total_gain_loss),
		       SUM(fhm.dividends), SUM(fhm.fees)
		FROM fund_history_materialized fhm
		JOIN portfolio_fund pf ON pf.id = fhm.portfolio_fund_id
		WHERE pf.portfolio_id IN (` + strings.Join(placeholders, ",") + `)
		AND fhm.date = (
			SELECT MAX(fhm2.date)
			FROM fund_history_materialized fhm2
			JOIN portfolio_fund pf2 ON pf2.id = fhm2.portfolio_fund_id
			WHERE pf2.portfolio_id = pf.portfolio_id
		)
		GROUP BY pf.portfolio_id, fhm.date
	`

	args := make([]any, len(portfolioIDs))
	for i, id := range portfolioIDs {
		args[i] = id
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest portfolio totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var total PortfolioDayTotal
		var dateStr string

		err := rows.Scan(
			&total.PortfolioID,
			&dateStr,
			&total.Value,
			&total.Cost,
			&total.RealizedGain,
			&total.UnrealizedGain,
			&total.TotalGainLoss,
			&total.Dividends,
			&total.Fees,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest portfolio total: %w", err)
		}

		total.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		totals[total.PortfolioID] = total
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest portfolio totals: %w", err)
	}

	return totals, nil
}

// GetCoveredDates returns, per holding, the set of dates (YYYY-MM-DD) that have a
// materialized row inside the range. Used by the coverage checker to compute gaps.
func (r *MaterializedRepository) GetCoveredDates(pfIDs []string, startDate, endDate time.Time) (map[string]map[string]bool, error) {
	covered := make(map[string]map[string]bool)
	if len(pfIDs) == 0 {
		return covered, nil
	}

	placeholders := make([]string, len(pfIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT portfolio_fund_id, date
		FROM fund_history_materialized
		WHERE portfolio_fund_id IN (` + strings.Join(placeholders, ",") + `)
		AND date >= ?
		AND date <= ?
	`

	args := make([]any, 0, len(pfIDs)+2)
	for _, id := range pfIDs {
		args = append(args, id)
	}
	args = append(args, startDate.Format("2006-01-02"))
	args = append(args, endDate.Format("2006-01-02"))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query covered dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pfID, dateStr string
		if err := rows.Scan(&pfID, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan covered date: %w", err)
		}
		if covered[pfID] == nil {
			covered[pfID] = make(map[string]bool)
		}
		covered[pfID][dateStr] = true
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating covered dates: %w", err)
	}

	return covered, nil
}

// DeleteFromDate deletes all materialized rows for the given holdings with a date on
// or after the anchor. Rows before the anchor stay valid because per-day state only
// depends on ledger entries up to that day. Returns the number of rows deleted.
func (r *MaterializedRepository) DeleteFromDate(pfIDs []string, anchor time.Time) (int64, error) {
	if len(pfIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(pfIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		DELETE FROM fund_history_materialized
		WHERE portfolio_fund_id IN (` + strings.Join(placeholders, ",") + `)
		AND date >= ?
	`

	args := make([]any, 0, len(pfIDs)+1)
	for _, id := range pfIDs {
		args = append(args, id)
	}
	args = append(args, anchor.Format("2006-01-02"))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete fund_history_materialized rows: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// GetStats returns summary statistics over the materialized table.
func (r *MaterializedRepository) GetStats() (model.MaterializedStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(DISTINCT pf.portfolio_id),
		       MIN(fhm.date),
		       MAX(fhm.date)
		FROM fund_history_materialized fhm
		JOIN portfolio_fund pf ON pf.id = fhm.portfolio_fund_id
	`

	var stats model.MaterializedStats
	var oldestStr, newestStr sql.NullString

	err := r.db.QueryRow(query).Scan(
		&stats.TotalRecords,
		&stats.PortfoliosWithData,
		&oldestStr,
		&newestStr,
	)
	if err != nil {
		return model.MaterializedStats{}, fmt.Errorf("failed to query materialized stats: %w", err)
	}

	if oldestStr.Valid {
		oldest, err := ParseTime(oldestStr.String)
		if err != nil {
			return model.MaterializedStats{}, fmt.Errorf("failed to parse oldest date: %w", err)
		}
		stats.OldestDate = &oldest
	}
	if newestStr.Valid {
		newest, err := ParseTime(newestStr.String)
		if err != nil {
			return model.MaterializedStats{}, fmt.Errorf("failed to parse newest date: %w", err)
		}
		stats.NewestDate = &newest
	}

	return stats, nil
}
