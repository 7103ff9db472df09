package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
	"github.com/rvanbeek/portfolio-tracker/internal/api/response"
	"github.com/rvanbeek/portfolio-tracker/internal/service"
	"github.com/rvanbeek/portfolio-tracker/internal/validation"
)

// DividendHandler handles dividend HTTP requests.
type DividendHandler struct {
	dividendService *service.DividendService
}

// NewDividendHandler creates a new DividendHandler
func NewDividendHandler(dividendService *service.DividendService) *DividendHandler {
	return &DividendHandler{
		dividendService: dividendService,
	}
}

// Dividends handles GET /api/dividend?portfolio_fund_id=...: dividends for one holding.
func (h *DividendHandler) Dividends(w http.ResponseWriter, r *http.Request) {
	pfID := r.URL.Query().Get("portfolio_fund_id")
	if pfID == "" {
		response.RespondError(w, http.StatusBadRequest, "portfolio_fund_id is required", nil)
		return
	}

	dividends, err := h.dividendService.GetDividendsForPortfolioFund(pfID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve dividends", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividends)
}

// Dividend handles GET /api/dividend/{id}.
func (h *DividendHandler) Dividend(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "id")

	dividend, err := h.dividendService.GetDividend(dividendID)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividend)
}

// CreateDividend handles POST /api/dividend.
func (h *DividendHandler) CreateDividend(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateDividend(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	dividend, err := h.dividendService.CreateDividend(r.Context(), req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to create dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, dividend)
}

// UpdateDividend handles PUT /api/dividend/{id}.
func (h *DividendHandler) UpdateDividend(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "id")

	var req request.UpdateDividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateDividend(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	dividend, err := h.dividendService.UpdateDividend(r.Context(), dividendID, req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to update dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividend)
}

// DeleteDividend handles DELETE /api/dividend/{id}.
func (h *DividendHandler) DeleteDividend(w http.ResponseWriter, r *http.Request) {
	dividendID := chi.URLParam(r, "id")

	if err := h.dividendService.DeleteDividend(r.Context(), dividendID); err != nil {
		response.RespondError(w, statusForError(err), "failed to delete dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
