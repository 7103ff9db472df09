package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
	"github.com/rvanbeek/portfolio-tracker/internal/testutil"
)

// TestDividendService_CreateDividend tests dividend recording.
//
// WHY: SharesOwned is a ledger snapshot as of the ex-dividend date, not a
// user-supplied number; getting the snapshot date wrong silently misprices
// every dividend. Reinvestments must land in the same database transaction as
// the dividend so the ledger never shows one without the other.
func TestDividendService_CreateDividend(t *testing.T) {
	jan := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("snapshots shares owned on the ex-dividend date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Income")
		fund := testutil.CreateFund(t, db, "VHYL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		// 100 shares held on the ex-date; the later buy must not count.
		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(100).WithCostPerShare(10).Build(t, db)
		testutil.NewTransaction(pf.ID).WithDate(jan(6)).WithType("buy").WithShares(50).WithCostPerShare(10).Build(t, db)

		dividend, err := svc.CreateDividend(context.Background(), request.CreateDividendRequest{
			PortfolioFundID:  pf.ID,
			RecordDate:       "2024-01-02",
			ExDividendDate:   "2024-01-04",
			DividendPerShare: 0.50,
		})
		if err != nil {
			t.Fatalf("CreateDividend() returned unexpected error: %v", err)
		}

		if dividend.SharesOwned != 100 {
			t.Errorf("Expected shares owned 100 on the ex-date, got %v", dividend.SharesOwned)
		}
		if dividend.TotalAmount != 50 {
			t.Errorf("Expected total amount 50, got %v", dividend.TotalAmount)
		}
	})

	t.Run("reinvestment creates a linked dividend transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Income")
		fund := testutil.CreateFund(t, db, "VHYL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(100).WithCostPerShare(10).Build(t, db)

		dividend, err := svc.CreateDividend(context.Background(), request.CreateDividendRequest{
			PortfolioFundID:    pf.ID,
			RecordDate:         "2024-01-02",
			ExDividendDate:     "2024-01-04",
			DividendPerShare:   0.50,
			BuyOrderDate:       "2024-01-05",
			ReinvestmentShares: 5,
			ReinvestmentPrice:  10,
		})
		if err != nil {
			t.Fatalf("CreateDividend() returned unexpected error: %v", err)
		}

		if dividend.ReinvestmentTransactionID == "" {
			t.Fatal("Expected linked reinvestment transaction ID")
		}

		var txType string
		var shares float64
		err = db.QueryRow(
			`SELECT type, shares FROM "transaction" WHERE id = ?`, dividend.ReinvestmentTransactionID,
		).Scan(&txType, &shares)
		if err != nil {
			t.Fatalf("Failed to read reinvestment transaction: %v", err)
		}
		if txType != "dividend" || shares != 5 {
			t.Errorf("Expected dividend transaction of 5 shares, got type=%s shares=%v", txType, shares)
		}
	})
}

// TestDividendService_UpdateDividend tests ex-date moves.
//
// WHY: Moving a dividend's ex-date changes which days the cached history is
// wrong for. Invalidation must anchor at the earlier of the old and new dates
// or rows between them survive with stale dividend totals.
func TestDividendService_UpdateDividend(t *testing.T) {
	jan := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("moving the ex-date earlier invalidates from the earlier date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Income")
		fund := testutil.CreateFund(t, db, "VHYL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(100).WithCostPerShare(10).Build(t, db)

		dividend, err := svc.CreateDividend(context.Background(), request.CreateDividendRequest{
			PortfolioFundID:  pf.ID,
			RecordDate:       "2024-01-05",
			ExDividendDate:   "2024-01-07",
			DividendPerShare: 0.50,
		})
		if err != nil {
			t.Fatalf("CreateDividend() returned unexpected error: %v", err)
		}

		for d := 1; d <= 10; d++ {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(jan(d)).Build(t, db)
		}

		newExDate := "2024-01-03"
		updated, err := svc.UpdateDividend(context.Background(), dividend.ID, request.UpdateDividendRequest{
			ExDividendDate: &newExDate,
		})
		if err != nil {
			t.Fatalf("UpdateDividend() returned unexpected error: %v", err)
		}
		if !updated.ExDividendDate.Equal(jan(3)) {
			t.Errorf("Expected ex-date Jan 3, got %s", updated.ExDividendDate.Format("2006-01-02"))
		}

		// Jan 3 through Jan 10 are stale under the new ex-date.
		testutil.AssertRowCount(t, db, "fund_history_materialized", 2)
	})

	t.Run("moving the buy order forward still invalidates from its old date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Income")
		fund := testutil.CreateFund(t, db, "VHYL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(100).WithCostPerShare(10).Build(t, db)

		// Reinvestment executed before the ex-date, then corrected to after it.
		dividend, err := svc.CreateDividend(context.Background(), request.CreateDividendRequest{
			PortfolioFundID:    pf.ID,
			RecordDate:         "2024-01-02",
			ExDividendDate:     "2024-01-07",
			DividendPerShare:   0.50,
			BuyOrderDate:       "2024-01-03",
			ReinvestmentShares: 5,
			ReinvestmentPrice:  10,
		})
		if err != nil {
			t.Fatalf("CreateDividend() returned unexpected error: %v", err)
		}

		for d := 1; d <= 10; d++ {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(jan(d)).Build(t, db)
		}

		newBuyDate := "2024-01-08"
		if _, err := svc.UpdateDividend(context.Background(), dividend.ID, request.UpdateDividendRequest{
			BuyOrderDate: &newBuyDate,
		}); err != nil {
			t.Fatalf("UpdateDividend() returned unexpected error: %v", err)
		}

		// The reinvestment used to sit on Jan 3, so Jan 3 onward is stale even
		// though the ex-date and the new buy date are both later.
		testutil.AssertRowCount(t, db, "fund_history_materialized", 2)
	})
}
