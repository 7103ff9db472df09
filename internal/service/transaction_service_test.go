package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/testutil"
)

// TestTransactionService_CreateTransaction tests ledger writes.
//
// WHY: Sells must atomically record a realized gain/loss row priced with the
// average-cost method, and every write must invalidate cached history without
// ever letting cache problems fail the ledger write itself.
func TestTransactionService_CreateTransaction(t *testing.T) {
	jan := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("sell records realized gain with average-cost basis", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)

		created, err := svc.CreateTransaction(context.Background(), request.CreateTransactionRequest{
			PortfolioFundID: pf.ID,
			Date:            "2024-01-05",
			Type:            "sell",
			Shares:          4,
			CostPerShare:    15,
		})
		if err != nil {
			t.Fatalf("CreateTransaction() returned unexpected error: %v", err)
		}

		var sharesSold, costBasis, proceeds, gain float64
		err = db.QueryRow(`
			SELECT shares_sold, cost_basis, sale_proceeds, realized_gain_loss
			FROM realized_gain_loss
			WHERE transaction_id = ?
		`, created.ID).Scan(&sharesSold, &costBasis, &proceeds, &gain)
		if err != nil {
			t.Fatalf("Failed to read realized gain/loss row: %v", err)
		}

		// Cost of sold = 100 * 4/10 = 40, proceeds = 60.
		if sharesSold != 4 || costBasis != 40 || proceeds != 60 || gain != 20 {
			t.Errorf("Expected sold=4 cost=40 proceeds=60 gain=20, got sold=%v cost=%v proceeds=%v gain=%v",
				sharesSold, costBasis, proceeds, gain)
		}
	})

	t.Run("selling more shares than held is rejected atomically", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)

		_, err := svc.CreateTransaction(context.Background(), request.CreateTransactionRequest{
			PortfolioFundID: pf.ID,
			Date:            "2024-01-05",
			Type:            "sell",
			Shares:          20,
			CostPerShare:    15,
		})
		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Fatalf("Expected ErrInsufficientShares, got %v", err)
		}

		// Neither the sell nor a gain/loss row may exist.
		testutil.AssertRowCount(t, db, `"transaction"`, 1)
		testutil.AssertRowCount(t, db, "realized_gain_loss", 0)
	})

	t.Run("write invalidates cached history from the transaction date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		for d := 1; d <= 10; d++ {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(jan(d)).Build(t, db)
		}

		_, err := svc.CreateTransaction(context.Background(), request.CreateTransactionRequest{
			PortfolioFundID: pf.ID,
			Date:            "2024-01-05",
			Type:            "buy",
			Shares:          5,
			CostPerShare:    10,
		})
		if err != nil {
			t.Fatalf("CreateTransaction() returned unexpected error: %v", err)
		}

		// Rows before the transaction date stay valid.
		testutil.AssertRowCount(t, db, "fund_history_materialized", 4)
	})

	t.Run("ledger write succeeds even when cache invalidation fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		if _, err := db.Exec(`DROP TABLE fund_history_materialized`); err != nil {
			t.Fatalf("Failed to drop table: %v", err)
		}

		created, err := svc.CreateTransaction(context.Background(), request.CreateTransactionRequest{
			PortfolioFundID: pf.ID,
			Date:            "2024-01-05",
			Type:            "buy",
			Shares:          5,
			CostPerShare:    10,
		})
		if err != nil {
			t.Fatalf("Expected ledger write to survive cache failure, got error: %v", err)
		}

		var exists int
		if err := db.QueryRow(`SELECT COUNT(*) FROM "transaction" WHERE id = ?`, created.ID).Scan(&exists); err != nil {
			t.Fatalf("Failed to verify transaction row: %v", err)
		}
		if exists != 1 {
			t.Error("Expected transaction row to be committed")
		}
	})
}

// TestTransactionService_UpdateDelete tests the update and delete paths.
//
// WHY: Updates recompute the realized gain/loss row from scratch, excluding the
// transaction's own prior version; deletes must take the gain/loss row with them.
func TestTransactionService_UpdateDelete(t *testing.T) {
	jan := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("updating a sell recomputes its realized gain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)

		created, err := svc.CreateTransaction(context.Background(), request.CreateTransactionRequest{
			PortfolioFundID: pf.ID,
			Date:            "2024-01-05",
			Type:            "sell",
			Shares:          4,
			CostPerShare:    15,
		})
		if err != nil {
			t.Fatalf("CreateTransaction() returned unexpected error: %v", err)
		}

		newShares := 2.0
		if _, err := svc.UpdateTransaction(context.Background(), created.ID, request.UpdateTransactionRequest{
			Shares: &newShares,
		}); err != nil {
			t.Fatalf("UpdateTransaction() returned unexpected error: %v", err)
		}

		var gain float64
		err = db.QueryRow(
			`SELECT realized_gain_loss FROM realized_gain_loss WHERE transaction_id = ?`, created.ID,
		).Scan(&gain)
		if err != nil {
			t.Fatalf("Failed to read recomputed gain: %v", err)
		}

		// 2 shares sold: proceeds 30, cost of sold 20, gain 10.
		if gain != 10 {
			t.Errorf("Expected recomputed gain 10, got %v", gain)
		}
		testutil.AssertRowCount(t, db, "realized_gain_loss", 1)
	})

	t.Run("deleting a sell removes its realized gain row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		testutil.NewTransaction(pf.ID).WithDate(jan(1)).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)

		created, err := svc.CreateTransaction(context.Background(), request.CreateTransactionRequest{
			PortfolioFundID: pf.ID,
			Date:            "2024-01-05",
			Type:            "sell",
			Shares:          4,
			CostPerShare:    15,
		})
		if err != nil {
			t.Fatalf("CreateTransaction() returned unexpected error: %v", err)
		}

		if err := svc.DeleteTransaction(context.Background(), created.ID); err != nil {
			t.Fatalf("DeleteTransaction() returned unexpected error: %v", err)
		}

		testutil.AssertRowCount(t, db, "realized_gain_loss", 0)

		_, err = svc.GetTransaction(created.ID)
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound after delete, got %v", err)
		}
	})

	t.Run("unknown transaction returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		err := svc.DeleteTransaction(context.Background(), testutil.MakeID())
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})
}
