package service_test

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/testutil"
)

// histRow mirrors the numeric columns of a fund_history_materialized row.
type histRow struct {
	Shares         float64
	Price          float64
	Value          float64
	Cost           float64
	RealizedGain   float64
	UnrealizedGain float64
	TotalGainLoss  float64
	Dividends      float64
	Fees           float64
}

func fetchHistRow(t *testing.T, db *sql.DB, pfID string, date time.Time) histRow {
	t.Helper()

	var row histRow
	err := db.QueryRow(`
		SELECT shares, price, value, cost, realized_gain, unrealized_gain,
		       total_gain_loss, dividends, fees
		FROM fund_history_materialized
		WHERE portfolio_fund_id = ? AND date = ?
	`, pfID, date.Format("2006-01-02")).Scan(
		&row.Shares, &row.Price, &row.Value, &row.Cost, &row.RealizedGain,
		&row.UnrealizedGain, &row.TotalGainLoss, &row.Dividends, &row.Fees,
	)
	if err != nil {
		t.Fatalf("Failed to fetch materialized row for %s on %s: %v", pfID, date.Format("2006-01-02"), err)
	}

	return row
}

func countHistRows(t *testing.T, db *sql.DB, pfID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM fund_history_materialized WHERE portfolio_fund_id = ?`, pfID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count materialized rows: %v", err)
	}

	return count
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

// TestMaterializerService_Materialize tests the day-by-day history replay.
//
// WHY: The materialized rows are the single source for every valuation read.
// Wrong shares, prices, or gains here silently corrupt every chart and summary,
// so the fold over buys, sells, dividends, fees, and price carry-forward is
// verified against hand-computed positions.
func TestMaterializerService_Materialize(t *testing.T) {
	t.Run("writes one row per day with carried-forward prices", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Growth")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(jan5).WithPrice(12).Build(t, db)

		written, err := svc.Materialize(pf.ID, jan1, jan10, true)
		if err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}
		if written != 10 {
			t.Errorf("Expected 10 rows written, got %d", written)
		}

		// Before the first recorded price, value stays zero.
		day1 := fetchHistRow(t, db, pf.ID, jan1)
		if !almostEqual(day1.Shares, 10) || !almostEqual(day1.Cost, 100) {
			t.Errorf("Day 1: expected shares=10 cost=100, got shares=%v cost=%v", day1.Shares, day1.Cost)
		}
		if !almostEqual(day1.Price, 0) || !almostEqual(day1.Value, 0) {
			t.Errorf("Day 1: expected zero price and value before first price, got price=%v value=%v", day1.Price, day1.Value)
		}

		// From the price date onward the price carries forward.
		for _, day := range []time.Time{jan5, jan10} {
			row := fetchHistRow(t, db, pf.ID, day)
			if !almostEqual(row.Price, 12) || !almostEqual(row.Value, 120) {
				t.Errorf("%s: expected price=12 value=120, got price=%v value=%v", day.Format("2006-01-02"), row.Price, row.Value)
			}
			if !almostEqual(row.UnrealizedGain, 20) || !almostEqual(row.TotalGainLoss, 20) {
				t.Errorf("%s: expected unrealized=20 total=20, got unrealized=%v total=%v", day.Format("2006-01-02"), row.UnrealizedGain, row.TotalGainLoss)
			}
		}
	})

	t.Run("sell realizes proportional gain and reduces cost basis", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Trading")
		fund := testutil.CreateFund(t, db, "AAPL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		jan3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(jan2).WithPrice(12).Build(t, db)
		testutil.NewTransaction(pf.ID).WithDate(jan3).WithType("sell").WithShares(4).WithCostPerShare(15).Build(t, db)

		if _, err := svc.Materialize(pf.ID, jan1, jan3, true); err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}

		// Sold 4 of 10 shares: cost of sold = 100 * 4/10 = 40, proceeds = 60.
		row := fetchHistRow(t, db, pf.ID, jan3)
		if !almostEqual(row.Shares, 6) {
			t.Errorf("Expected 6 shares after sell, got %v", row.Shares)
		}
		if !almostEqual(row.Cost, 60) {
			t.Errorf("Expected cost basis 60 after sell, got %v", row.Cost)
		}
		if !almostEqual(row.RealizedGain, 20) {
			t.Errorf("Expected realized gain 20, got %v", row.RealizedGain)
		}
		if !almostEqual(row.Value, 72) || !almostEqual(row.UnrealizedGain, 12) {
			t.Errorf("Expected value=72 unrealized=12, got value=%v unrealized=%v", row.Value, row.UnrealizedGain)
		}
		if !almostEqual(row.TotalGainLoss, 32) {
			t.Errorf("Expected total gain 32, got %v", row.TotalGainLoss)
		}
	})

	t.Run("dividend amounts accumulate from the ex-dividend date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Income")
		fund := testutil.CreateFund(t, db, "VHYL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		jan4 := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
		jan6 := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(100).WithCostPerShare(10).Build(t, db)

		div := testutil.NewDividend(fund.ID, pf.ID)
		div.RecordDate = jan4.AddDate(0, 0, -2)
		div.ExDividendDate = jan4
		div.WithSharesOwned(100).WithDividendPerShare(0.50)
		div.Build(t, db)

		if _, err := svc.Materialize(pf.ID, jan1, jan6, true); err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}

		before := fetchHistRow(t, db, pf.ID, jan4.AddDate(0, 0, -1))
		if !almostEqual(before.Dividends, 0) {
			t.Errorf("Expected zero dividends before ex-date, got %v", before.Dividends)
		}

		for _, day := range []time.Time{jan4, jan6} {
			row := fetchHistRow(t, db, pf.ID, day)
			if !almostEqual(row.Dividends, 50) {
				t.Errorf("%s: expected cumulative dividends 50, got %v", day.Format("2006-01-02"), row.Dividends)
			}
		}
	})

	t.Run("dividends count toward total gain and loss", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Income")
		fund := testutil.CreateFund(t, db, "VHYL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		jan4 := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(100).WithCostPerShare(10).Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(jan1).WithPrice(12).Build(t, db)

		div := testutil.NewDividend(fund.ID, pf.ID)
		div.RecordDate = jan1
		div.ExDividendDate = jan4
		div.WithSharesOwned(100).WithDividendPerShare(0.50)
		div.Build(t, db)

		if _, err := svc.Materialize(pf.ID, jan1, jan4, true); err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}

		// Before the ex-date the total is unrealized only; from the ex-date the
		// dividend joins realized and unrealized gains in the total.
		before := fetchHistRow(t, db, pf.ID, jan1)
		if !almostEqual(before.TotalGainLoss, 200) {
			t.Errorf("Expected total 200 before ex-date, got %v", before.TotalGainLoss)
		}
		after := fetchHistRow(t, db, pf.ID, jan4)
		if !almostEqual(after.TotalGainLoss, 250) {
			t.Errorf("Expected total 250 (unrealized 200 + dividends 50), got %v", after.TotalGainLoss)
		}
	})

	t.Run("fee transactions add to cost and cumulative fees", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Fees")
		fund := testutil.CreateFund(t, db, "IWDA")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)
		testutil.NewTransaction(pf.ID).WithDate(jan2).WithType("fee").WithShares(1).WithCostPerShare(5).Build(t, db)

		if _, err := svc.Materialize(pf.ID, jan1, jan2, true); err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}

		row := fetchHistRow(t, db, pf.ID, jan2)
		if !almostEqual(row.Cost, 105) {
			t.Errorf("Expected cost 105 after fee, got %v", row.Cost)
		}
		if !almostEqual(row.Fees, 5) {
			t.Errorf("Expected cumulative fees 5, got %v", row.Fees)
		}
		if !almostEqual(row.Shares, 10) {
			t.Errorf("Expected fee to leave shares unchanged, got %v", row.Shares)
		}
	})

	t.Run("holding without transactions yields no rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Empty")
		fund := testutil.CreateFund(t, db, "EMPT")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		written, err := svc.Materialize(pf.ID, time.Time{}, time.Time{}, true)
		if err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}
		if written != 0 {
			t.Errorf("Expected 0 rows for empty ledger, got %d", written)
		}
		if count := countHistRows(t, db, pf.ID); count != 0 {
			t.Errorf("Expected no materialized rows, got %d", count)
		}
	})

	t.Run("skips a fully covered range unless forced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Cached")
		fund := testutil.CreateFund(t, db, "CACH")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)

		first, err := svc.Materialize(pf.ID, jan1, jan5, false)
		if err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}
		if first != 5 {
			t.Errorf("Expected 5 rows on first run, got %d", first)
		}

		second, err := svc.Materialize(pf.ID, jan1, jan5, false)
		if err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}
		if second != 0 {
			t.Errorf("Expected covered range to be skipped, got %d rows written", second)
		}

		forced, err := svc.Materialize(pf.ID, jan1, jan5, true)
		if err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}
		if forced != 5 {
			t.Errorf("Expected forced run to rewrite 5 rows, got %d", forced)
		}
		if count := countHistRows(t, db, pf.ID); count != 5 {
			t.Errorf("Expected upsert to keep 5 rows, got %d", count)
		}
	})

	t.Run("fills only the missing days of a partially covered range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Gappy")
		fund := testutil.CreateFund(t, db, "GAPP")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan := func(d int) time.Time {
			return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
		}

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)

		// Rows for Jan 1-5 and 8-10 with a sentinel value; the 6th and 7th
		// are the gap.
		for _, d := range []int{1, 2, 3, 4, 5, 8, 9, 10} {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(jan(d)).WithValue(1000).Build(t, db)
		}

		written, err := svc.Materialize(pf.ID, jan(1), jan(10), false)
		if err != nil {
			t.Fatalf("Materialize() returned unexpected error: %v", err)
		}
		if written != 2 {
			t.Errorf("Expected only the 2 missing days to be written, got %d", written)
		}

		// Existing rows keep their values; the gap rows carry replayed state.
		existing := fetchHistRow(t, db, pf.ID, jan(3))
		if !almostEqual(existing.Value, 1000) {
			t.Errorf("Expected covered row to be left alone, got value %v", existing.Value)
		}
		filled := fetchHistRow(t, db, pf.ID, jan(6))
		if !almostEqual(filled.Shares, 10) {
			t.Errorf("Expected gap row with replayed shares 10, got %v", filled.Shares)
		}
	})

	t.Run("rejects unknown transaction types", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Broken")
		fund := testutil.CreateFund(t, db, "BRKN")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("transfer").Build(t, db)

		_, err := svc.Materialize(pf.ID, jan1, jan1, true)
		if err == nil {
			t.Fatal("Expected error for unknown transaction type, got nil")
		}
		if !strings.Contains(err.Error(), "unknown transaction type") {
			t.Errorf("Expected unknown transaction type error, got: %v", err)
		}
	})
}

// TestMaterializerService_MaterializeAllPortfolios tests the full rebuild sweep.
//
// WHY: The nightly sweep and the admin rebuild both go through this path; it must
// cover every holding, including those in archived portfolios, and report row
// counts per portfolio.
func TestMaterializerService_MaterializeAllPortfolios(t *testing.T) {
	t.Run("rebuilds every holding including archived portfolios", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		active := testutil.CreatePortfolio(t, db, "Active")
		archived := testutil.CreateArchivedPortfolio(t, db, "Archived")
		fund := testutil.CreateFund(t, db, "VWRL")
		pfActive := testutil.NewPortfolioFund(active.ID, fund.ID).Build(t, db)
		pfArchived := testutil.NewPortfolioFund(archived.ID, fund.ID).Build(t, db)

		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		testutil.NewTransaction(pfActive.ID).WithDate(start).Build(t, db)
		testutil.NewTransaction(pfArchived.ID).WithDate(start).Build(t, db)

		counts, err := svc.MaterializeAllPortfolios(true)
		if err != nil {
			t.Fatalf("MaterializeAllPortfolios() returned unexpected error: %v", err)
		}

		if counts[active.ID] == 0 {
			t.Error("Expected rows written for active portfolio")
		}
		if counts[archived.ID] == 0 {
			t.Error("Expected rows written for archived portfolio")
		}
		if countHistRows(t, db, pfActive.ID) == 0 || countHistRows(t, db, pfArchived.ID) == 0 {
			t.Error("Expected materialized rows for both holdings")
		}
	})
}
