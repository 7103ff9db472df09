package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/api/handlers"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/testutil"
)

// TestPortfolioHandler_Portfolios tests the GET /api/portfolio endpoint.
//
// WHY: This is the primary listing endpoint. The frontend depends on archived
// and overview-excluded portfolios being hidden by default and revealed only
// through explicit query flags.
func TestPortfolioHandler_Portfolios(t *testing.T) {
	t.Run("returns 200 with empty array", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestHistoryService(t, db),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
		w := httptest.NewRecorder()

		handler.Portfolios(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
		}

		var response []model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 0 {
			t.Errorf("Expected empty array, got %d items", len(response))
		}
	})

	t.Run("hides archived portfolios unless requested", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestHistoryService(t, db),
		)

		active := testutil.CreatePortfolio(t, db, "Active")
		testutil.CreateArchivedPortfolio(t, db, "Archived")

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
		w := httptest.NewRecorder()
		handler.Portfolios(w, req)

		var response []model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 1 || response[0].ID != active.ID {
			t.Fatalf("Expected only the active portfolio, got %+v", response)
		}

		// include_archived=true widens the listing.
		req = testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/", map[string]string{
			"include_archived": "true",
		})
		w = httptest.NewRecorder()
		handler.Portfolios(w, req)

		response = nil
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 2 {
			t.Errorf("Expected both portfolios with include_archived, got %d", len(response))
		}
	})
}

// TestPortfolioHandler_Portfolio tests the GET /api/portfolio/{id} endpoint.
//
// WHY: Unknown IDs must map to 404, not 500; the frontend distinguishes
// "deleted portfolio" from "backend broken" on exactly this status code.
func TestPortfolioHandler_Portfolio(t *testing.T) {
	t.Run("returns the portfolio by ID", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestHistoryService(t, db),
		)

		p := testutil.CreatePortfolio(t, db, "Main")

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+p.ID, map[string]string{
			"id": p.ID,
		})
		w := httptest.NewRecorder()
		handler.Portfolio(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.ID != p.ID || response.Name != "Main" {
			t.Errorf("Expected portfolio %s 'Main', got %+v", p.ID, response)
		}
	})

	t.Run("returns 404 for unknown portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestHistoryService(t, db),
		)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/unknown", map[string]string{
			"id": testutil.MakeID(),
		})
		w := httptest.NewRecorder()
		handler.Portfolio(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_FundHistory tests GET /api/portfolio/{id}/funds/history.
//
// WHY: This endpoint drives the per-fund chart and is the entry point of the
// self-healing read: a cold cache must still produce rows, and malformed date
// parameters must fail with 400 before any work happens.
func TestPortfolioHandler_FundHistory(t *testing.T) {
	t.Run("serves history built on demand", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestHistoryService(t, db),
		)

		portfolio := testutil.CreatePortfolio(t, db, "Main")
		fund := testutil.CreateFund(t, db, "VWRL")
		pf := testutil.NewPortfolioFund(portfolio.ID, fund.ID).Build(t, db)

		jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		testutil.NewTransaction(pf.ID).WithDate(jan1).WithType("buy").WithShares(10).WithCostPerShare(10).Build(t, db)
		testutil.NewFundPrice(fund.ID).WithDate(jan1).WithPrice(12).Build(t, db)

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/portfolio/"+portfolio.ID+"/funds/history?start_date=2024-01-01&end_date=2024-01-03",
			map[string]string{"id": portfolio.ID},
		)
		w := httptest.NewRecorder()
		handler.FundHistory(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []model.FundHistoryResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 3 {
			t.Fatalf("Expected 3 dates, got %d", len(response))
		}
		if len(response[0].Funds) != 1 || response[0].Funds[0].Value != 120 {
			t.Errorf("Expected one fund entry with value 120, got %+v", response[0].Funds)
		}
	})

	t.Run("rejects malformed date parameters with 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPortfolioHandler(
			testutil.NewTestPortfolioService(t, db),
			testutil.NewTestHistoryService(t, db),
		)

		portfolio := testutil.CreatePortfolio(t, db, "Main")

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/portfolio/"+portfolio.ID+"/funds/history?start_date=01-01-2024",
			map[string]string{"id": portfolio.ID},
		)
		w := httptest.NewRecorder()
		handler.FundHistory(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}
