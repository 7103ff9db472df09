package repository_test

import (
	"testing"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
	"github.com/rvanbeek/portfolio-tracker/internal/testutil"
)

// TestMaterializedRepository_UpsertRows tests batched upsert writes.
//
// WHY: The materializer replays whole date ranges and must be able to rewrite
// rows that already exist; the ON CONFLICT target and the batch split are what
// keep a multi-year rebuild from tripping over SQLite's bind variable limit.
func TestMaterializedRepository_UpsertRows(t *testing.T) {
	makeRow := func(pfID, fundID string, date time.Time, value float64) model.FundHistoryMaterialized {
		return model.FundHistoryMaterialized{
			ID:              testutil.MakeID(),
			PortfolioFundID: pfID,
			FundID:          fundID,
			Date:            date,
			Shares:          10,
			Price:           value / 10,
			Value:           value,
			Cost:            100,
			CalculatedAt:    time.Now().UTC(),
		}
	}

	t.Run("replaying a range overwrites existing rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		if err := repo.UpsertRows([]model.FundHistoryMaterialized{makeRow(pf.ID, fund.ID, date, 100)}); err != nil {
			t.Fatalf("UpsertRows() returned unexpected error: %v", err)
		}
		if err := repo.UpsertRows([]model.FundHistoryMaterialized{makeRow(pf.ID, fund.ID, date, 150)}); err != nil {
			t.Fatalf("UpsertRows() replay returned unexpected error: %v", err)
		}

		testutil.AssertRowCount(t, db, "fund_history_materialized", 1)

		var value float64
		err := db.QueryRow(
			`SELECT value FROM fund_history_materialized WHERE portfolio_fund_id = ?`, pf.ID,
		).Scan(&value)
		if err != nil {
			t.Fatalf("Failed to read row: %v", err)
		}
		if value != 150 {
			t.Errorf("Expected replay to overwrite value with 150, got %v", value)
		}
	})

	t.Run("writes spanning multiple batches land completely", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := make([]model.FundHistoryMaterialized, 0, 130)
		for d := 0; d < 130; d++ {
			rows = append(rows, makeRow(pf.ID, fund.ID, start.AddDate(0, 0, d), 100))
		}

		if err := repo.UpsertRows(rows); err != nil {
			t.Fatalf("UpsertRows() returned unexpected error: %v", err)
		}

		testutil.AssertRowCount(t, db, "fund_history_materialized", 130)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		if err := repo.UpsertRows(nil); err != nil {
			t.Fatalf("UpsertRows(nil) returned unexpected error: %v", err)
		}
	})
}

// TestMaterializedRepository_DeleteFromDate tests the invalidation primitive.
//
// WHY: Rows strictly before the anchor only depend on ledger entries up to
// their own day and stay valid; deleting them too would turn every small
// ledger edit into a full rebuild.
func TestMaterializedRepository_DeleteFromDate(t *testing.T) {
	jan := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("deletes rows on or after the anchor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		for d := 1; d <= 10; d++ {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(jan(d)).Build(t, db)
		}

		deleted, err := repo.DeleteFromDate([]string{pf.ID}, jan(7))
		if err != nil {
			t.Fatalf("DeleteFromDate() returned unexpected error: %v", err)
		}
		if deleted != 4 {
			t.Errorf("Expected 4 rows deleted (Jan 7-10), got %d", deleted)
		}

		var remaining int
		err = db.QueryRow(`SELECT COUNT(*) FROM fund_history_materialized WHERE date >= ?`, "2024-01-07").Scan(&remaining)
		if err != nil {
			t.Fatalf("Failed to count rows: %v", err)
		}
		if remaining != 0 {
			t.Errorf("Expected no rows on or after the anchor, got %d", remaining)
		}
	})

	t.Run("empty holding list deletes nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		deleted, err := repo.DeleteFromDate(nil, jan(1))
		if err != nil {
			t.Fatalf("DeleteFromDate() returned unexpected error: %v", err)
		}
		if deleted != 0 {
			t.Errorf("Expected 0 deletions, got %d", deleted)
		}
	})
}

// TestHoldingDeletionCascades tests the schema's delete lifecycle.
//
// WHY: A holding owns its ledger entries and cache rows; removing the
// portfolio_fund row must take transactions, dividends, and materialized rows
// with it or the orphans would resurface in cross-portfolio queries.
func TestHoldingDeletionCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)

	portfolio := testutil.CreatePortfolio(t, db, "Doomed")
	fund := testutil.CreateFund(t, db, "DOOM")
	pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.NewTransaction(pf.ID).WithDate(date).Build(t, db)
	testutil.NewDividend(fund.ID, pf.ID).Build(t, db)
	testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(date).Build(t, db)

	if _, err := db.Exec(`DELETE FROM portfolio_fund WHERE id = ?`, pf.ID); err != nil {
		t.Fatalf("Failed to delete holding: %v", err)
	}

	testutil.AssertRowCount(t, db, `"transaction"`, 0)
	testutil.AssertRowCount(t, db, "dividend", 0)
	testutil.AssertRowCount(t, db, "fund_history_materialized", 0)
}

// TestMaterializedRepository_GetLatestPortfolioTotals tests the summary query.
//
// WHY: Each portfolio's summary must come from its own most recent date, not a
// global maximum, or a portfolio that lags a day behind would report zeros.
func TestMaterializedRepository_GetLatestPortfolioTotals(t *testing.T) {
	jan := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("picks each portfolio's own latest date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		current := testutil.CreatePortfolio(t, db, "Current")
		lagging := testutil.CreatePortfolio(t, db, "Lagging")
		fund := testutil.CreateFund(t, db, "VWRL")
		pfCurrent := testutil.NewPortfolioFund(current.ID, fund.ID).Build(t, db)
		pfLagging := testutil.NewPortfolioFund(lagging.ID, fund.ID).Build(t, db)

		testutil.NewMaterializedRow(pfCurrent.ID, fund.ID).WithDate(jan(1)).WithValue(100).Build(t, db)
		testutil.NewMaterializedRow(pfCurrent.ID, fund.ID).WithDate(jan(5)).WithValue(500).Build(t, db)
		testutil.NewMaterializedRow(pfLagging.ID, fund.ID).WithDate(jan(3)).WithValue(300).Build(t, db)

		totals, err := repo.GetLatestPortfolioTotals([]string{current.ID, lagging.ID})
		if err != nil {
			t.Fatalf("GetLatestPortfolioTotals() returned unexpected error: %v", err)
		}

		if totals[current.ID].Value != 500 {
			t.Errorf("Expected current portfolio value 500 from Jan 5, got %v", totals[current.ID].Value)
		}
		if totals[lagging.ID].Value != 300 {
			t.Errorf("Expected lagging portfolio value 300 from Jan 3, got %v", totals[lagging.ID].Value)
		}
		if !totals[lagging.ID].Date.Equal(jan(3)) {
			t.Errorf("Expected lagging portfolio date Jan 3, got %s", totals[lagging.ID].Date.Format("2006-01-02"))
		}
	})

	t.Run("portfolios without rows are absent from the result", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		portfolio := testutil.CreatePortfolio(t, db, "Empty")

		totals, err := repo.GetLatestPortfolioTotals([]string{portfolio.ID})
		if err != nil {
			t.Fatalf("GetLatestPortfolioTotals() returned unexpected error: %v", err)
		}
		if _, ok := totals[portfolio.ID]; ok {
			t.Error("Expected portfolio without materialized rows to be absent")
		}
	})
}

// TestMaterializedRepository_GetStats tests the admin stats query.
//
// WHY: MIN/MAX over an empty table come back NULL; the scan must treat that as
// "no data yet" instead of failing the whole stats endpoint.
func TestMaterializedRepository_GetStats(t *testing.T) {
	t.Run("empty table yields zero counts and nil dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		stats, err := repo.GetStats()
		if err != nil {
			t.Fatalf("GetStats() returned unexpected error: %v", err)
		}
		if stats.TotalRecords != 0 || stats.PortfoliosWithData != 0 {
			t.Errorf("Expected zero counts, got %+v", stats)
		}
		if stats.OldestDate != nil || stats.NewestDate != nil {
			t.Errorf("Expected nil date bounds, got %+v", stats)
		}
	})

	t.Run("reports counts and date bounds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMaterializedRepository(db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(first).Build(t, db)
		testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(last).Build(t, db)

		stats, err := repo.GetStats()
		if err != nil {
			t.Fatalf("GetStats() returned unexpected error: %v", err)
		}

		if stats.TotalRecords != 2 {
			t.Errorf("Expected 2 records, got %d", stats.TotalRecords)
		}
		if stats.PortfoliosWithData != 1 {
			t.Errorf("Expected 1 portfolio with data, got %d", stats.PortfoliosWithData)
		}
		if stats.OldestDate == nil || !stats.OldestDate.Equal(first) {
			t.Errorf("Expected oldest date Jan 1, got %v", stats.OldestDate)
		}
		if stats.NewestDate == nil || !stats.NewestDate.Equal(last) {
			t.Errorf("Expected newest date Jan 3, got %v", stats.NewestDate)
		}
	})
}
