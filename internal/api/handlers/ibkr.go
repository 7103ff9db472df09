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

// IbkrHandler handles IBKR import inbox HTTP requests.
type IbkrHandler struct {
	ibkrService *service.IbkrService
}

// NewIbkrHandler creates a new IbkrHandler
func NewIbkrHandler(ibkrService *service.IbkrService) *IbkrHandler {
	return &IbkrHandler{
		ibkrService: ibkrService,
	}
}

// Inbox handles GET /api/ibkr/inbox: imported transactions awaiting allocation.
func (h *IbkrHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.ibkrService.GetInbox()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve inbox", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// Allocations handles GET /api/ibkr/{id}/allocations.
func (h *IbkrHandler) Allocations(w http.ResponseWriter, r *http.Request) {
	ibkrTransactionID := chi.URLParam(r, "id")

	allocations, err := h.ibkrService.GetAllocations(ibkrTransactionID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve allocations", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, allocations)
}

// Allocate handles POST /api/ibkr/{id}/allocations: allocates (or re-allocates)
// an imported transaction across holdings by percentage.
func (h *IbkrHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	ibkrTransactionID := chi.URLParam(r, "id")

	var req request.AllocateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAllocateTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.ibkrService.AllocateTransaction(r.Context(), ibkrTransactionID, req); err != nil {
		response.RespondError(w, statusForError(err), "failed to allocate transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
