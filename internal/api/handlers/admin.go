package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
	"github.com/rvanbeek/portfolio-tracker/internal/api/response"
	"github.com/rvanbeek/portfolio-tracker/internal/service"
)

// AdminHandler exposes maintenance operations for the materialized history cache.
type AdminHandler struct {
	materializer *service.MaterializerService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(materializer *service.MaterializerService) *AdminHandler {
	return &AdminHandler{
		materializer: materializer,
	}
}

// MaterializedStats handles GET /api/admin/materialized/stats.
func (h *AdminHandler) MaterializedStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.materializer.GetStats()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve materialized stats", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}

// Rebuild handles POST /api/admin/materialized/rebuild: re-materializes every
// holding across all portfolios. With force=true existing rows are rebuilt even
// when coverage is already complete.
func (h *AdminHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req request.RebuildRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	rowsPerPortfolio, err := h.materializer.MaterializeAllPortfolios(req.Force)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to rebuild materialized history", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"rows_per_portfolio": rowsPerPortfolio,
	})
}
