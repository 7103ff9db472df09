package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/testutil"
)

// TestMaterializerService_CheckCoverage tests gap detection over the cache.
//
// WHY: Coverage drives both the read-path short-circuit (skip materialization
// when everything is cached) and gap repair. A false "complete" serves stale
// holes; a false "missing" rebuilds history on every read.
func TestMaterializerService_CheckCoverage(t *testing.T) {
	mar := func(d int) time.Time {
		return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("reports gap in otherwise covered range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Gaps")
		fund := testutil.CreateFund(t, db, "GAPS")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)
		testutil.NewTransaction(pf.ID).WithDate(mar(1)).Build(t, db)

		// Rows for March 1-5 and 8-10; the 6th and 7th are missing.
		for _, d := range []int{1, 2, 3, 4, 5, 8, 9, 10} {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(mar(d)).Build(t, db)
		}

		coverage, err := svc.CheckCoverage([]string{pf.ID}, mar(1), mar(10))
		if err != nil {
			t.Fatalf("CheckCoverage() returned unexpected error: %v", err)
		}

		if coverage.IsComplete {
			t.Error("Expected incomplete coverage")
		}
		if !coverage.PartialCoverage {
			t.Error("Expected partial coverage")
		}

		if len(coverage.MissingRanges) != 1 {
			t.Fatalf("Expected 1 missing range, got %d: %+v", len(coverage.MissingRanges), coverage.MissingRanges)
		}
		missing := coverage.MissingRanges[0]
		if !missing.Start.Equal(mar(6)) || !missing.End.Equal(mar(7)) {
			t.Errorf("Expected missing range Mar 6-7, got %s to %s",
				missing.Start.Format("2006-01-02"), missing.End.Format("2006-01-02"))
		}

		if len(coverage.CoveredRanges) != 2 {
			t.Fatalf("Expected 2 covered ranges, got %d", len(coverage.CoveredRanges))
		}
		if !coverage.CoveredRanges[0].Start.Equal(mar(1)) || !coverage.CoveredRanges[0].End.Equal(mar(5)) {
			t.Errorf("Expected first covered range Mar 1-5, got %+v", coverage.CoveredRanges[0])
		}
		if !coverage.CoveredRanges[1].Start.Equal(mar(8)) || !coverage.CoveredRanges[1].End.Equal(mar(10)) {
			t.Errorf("Expected second covered range Mar 8-10, got %+v", coverage.CoveredRanges[1])
		}
	})

	t.Run("fully covered range is complete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Full")
		fund := testutil.CreateFund(t, db, "FULL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)
		testutil.NewTransaction(pf.ID).WithDate(mar(1)).Build(t, db)

		for d := 1; d <= 10; d++ {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(mar(d)).Build(t, db)
		}

		coverage, err := svc.CheckCoverage([]string{pf.ID}, mar(1), mar(10))
		if err != nil {
			t.Fatalf("CheckCoverage() returned unexpected error: %v", err)
		}

		if !coverage.IsComplete {
			t.Errorf("Expected complete coverage, got %+v", coverage)
		}
		if len(coverage.MissingRanges) != 0 {
			t.Errorf("Expected no missing ranges, got %+v", coverage.MissingRanges)
		}
	})

	t.Run("days before the first transaction are not expected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Late")
		fund := testutil.CreateFund(t, db, "LATE")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)
		testutil.NewTransaction(pf.ID).WithDate(mar(3)).Build(t, db)

		for d := 3; d <= 10; d++ {
			testutil.NewMaterializedRow(pf.ID, fund.ID).WithDate(mar(d)).Build(t, db)
		}

		// The range starts before the holding existed; those days don't count.
		coverage, err := svc.CheckCoverage([]string{pf.ID}, mar(1), mar(10))
		if err != nil {
			t.Fatalf("CheckCoverage() returned unexpected error: %v", err)
		}

		if !coverage.IsComplete {
			t.Errorf("Expected complete coverage ignoring pre-history days, got %+v", coverage)
		}
	})

	t.Run("holdings without transactions report complete coverage", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "NoTx")
		fund := testutil.CreateFund(t, db, "NOTX")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		coverage, err := svc.CheckCoverage([]string{pf.ID}, mar(1), mar(10))
		if err != nil {
			t.Fatalf("CheckCoverage() returned unexpected error: %v", err)
		}

		if !coverage.IsComplete {
			t.Errorf("Expected complete coverage for empty ledger, got %+v", coverage)
		}
	})

	t.Run("a day is covered only when every holding has a row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Multi")
		fundA := testutil.CreateFund(t, db, "AAAA")
		fundB := testutil.CreateFund(t, db, "BBBB")
		pfA := testutil.NewPortfolioFund(portfolio.ID, fundA.ID).Build(t, db)
		pfB := testutil.NewPortfolioFund(portfolio.ID, fundB.ID).Build(t, db)

		testutil.NewTransaction(pfA.ID).WithDate(mar(1)).Build(t, db)
		testutil.NewTransaction(pfB.ID).WithDate(mar(1)).Build(t, db)

		// Holding A covers the whole range; holding B misses March 2.
		for d := 1; d <= 3; d++ {
			testutil.NewMaterializedRow(pfA.ID, fundA.ID).WithDate(mar(d)).Build(t, db)
		}
		testutil.NewMaterializedRow(pfB.ID, fundB.ID).WithDate(mar(1)).Build(t, db)
		testutil.NewMaterializedRow(pfB.ID, fundB.ID).WithDate(mar(3)).Build(t, db)

		coverage, err := svc.CheckCoverage([]string{pfA.ID, pfB.ID}, mar(1), mar(3))
		if err != nil {
			t.Fatalf("CheckCoverage() returned unexpected error: %v", err)
		}

		if coverage.IsComplete {
			t.Error("Expected incomplete coverage when one holding has a gap")
		}
		if len(coverage.MissingRanges) != 1 {
			t.Fatalf("Expected 1 missing range, got %+v", coverage.MissingRanges)
		}
		if !coverage.MissingRanges[0].Start.Equal(mar(2)) || !coverage.MissingRanges[0].End.Equal(mar(2)) {
			t.Errorf("Expected missing range Mar 2, got %+v", coverage.MissingRanges[0])
		}
	})

	t.Run("rejects inverted date ranges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMaterializerService(t, db)

		_, err := svc.CheckCoverage([]string{testutil.MakeID()}, mar(10), mar(1))
		if !errors.Is(err, apperrors.ErrInvalidDateRange) {
			t.Errorf("Expected ErrInvalidDateRange, got %v", err)
		}
	})
}
