package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rvanbeek/portfolio-tracker/internal/api/response"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
	"github.com/rvanbeek/portfolio-tracker/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests, serving both
// portfolio metadata and valuation history from the materialized cache.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	historyService   *service.HistoryService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, historyService *service.HistoryService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		historyService:   historyService,
	}
}

// Portfolios handles GET /api/portfolio. By default archived and
// overview-excluded portfolios are hidden; include_archived=true and
// include_excluded=true widen the listing.
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	filter := model.PortfolioFilter{
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
		IncludeExcluded: r.URL.Query().Get("include_excluded") == "true",
	}

	portfolios, err := h.portfolioService.GetPortfolios(filter)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve portfolios", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolios)
}

// Portfolio handles GET /api/portfolio/{id}.
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	portfolio, err := h.portfolioService.GetPortfolio(portfolioID)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// PortfolioSummary handles GET /api/portfolio/summary: each portfolio's totals
// on its most recent materialized date.
func (h *PortfolioHandler) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.historyService.GetPortfolioSummary()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to get portfolio summary", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summaries)
}

// PortfolioHistory handles GET /api/portfolio/history: day-by-day totals for
// all active portfolios within the optional start_date/end_date range, narrowed
// to a single portfolio when portfolio_id is given.
func (h *PortfolioHandler) PortfolioHistory(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}

	history, err := h.historyService.GetPortfolioHistory(r.URL.Query().Get("portfolio_id"), startDate, endDate)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to get portfolio history", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}

// FundHistory handles GET /api/portfolio/{id}/funds/history: per-holding
// valuation rows grouped by date. The read self-heals the cache first.
func (h *PortfolioHandler) FundHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}

	history, err := h.historyService.GetFundHistory(portfolioID, startDate, endDate)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve fund history", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}

// PortfolioFunds handles GET /api/portfolio/{id}/funds.
func (h *PortfolioHandler) PortfolioFunds(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")

	funds, err := h.portfolioService.GetPortfolioFunds(portfolioID)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve portfolio funds", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, funds)
}
