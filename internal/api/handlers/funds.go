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

// FundHandler handles fund metadata and fund price HTTP requests.
type FundHandler struct {
	fundService *service.FundService
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(fundService *service.FundService) *FundHandler {
	return &FundHandler{
		fundService: fundService,
	}
}

// Fund handles GET /api/fund/{id}.
func (h *FundHandler) Fund(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")

	fund, err := h.fundService.GetFund(fundID)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve fund", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, fund)
}

// FundPrices handles GET /api/fund/{id}/price: the fund's price history, oldest first.
func (h *FundHandler) FundPrices(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")

	prices, err := h.fundService.GetFundPrices(fundID)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve fund prices", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, prices)
}

// UpsertFundPrice handles PUT /api/fund/{id}/price. A second write for the same
// date overwrites the earlier price and invalidates dependent history.
func (h *FundHandler) UpsertFundPrice(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")

	var req request.UpsertFundPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpsertFundPrice(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	price, err := h.fundService.UpsertFundPrice(r.Context(), fundID, req.Date, req.Price)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to upsert fund price", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, price)
}
