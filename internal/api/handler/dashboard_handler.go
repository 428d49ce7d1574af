package handler

import (
	"log/slog"
	"net/http"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/contract"
)

type DashboardHandler struct {
	service contract.ContractService
	logger  *slog.Logger
}

func NewDashboardHandler(s contract.ContractService, l *slog.Logger) *DashboardHandler {
	if s == nil {
		panic("contract service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &DashboardHandler{
		service: s,
		logger:  l.With("component", "DashboardHandler"),
	}
}

// GetDashboardSummary handles GET /dashboard/summary
// @Summary Retrieve the dashboard summary
// @Description Retrieves the main dashboard cards: open capital, active contract count, monthly interest forecast and the most recent contracts. Defaults to the current month.
// @Tags Dashboard
// @Produce json
// @Param from query string false "Start of period (YYYY-MM-DD)"
// @Param to query string false "End of period (YYYY-MM-DD)"
// @Success 200 {object} dto.DashboardSummaryResponse "Dashboard summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid date format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dashboard/summary [get]
// @Security BearerAuth
func (h *DashboardHandler) GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := defaultedPeriod(r)
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := h.service.DashboardSummary(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to get dashboard summary", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewDashboardSummaryResponse(summary))
}
