package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/contract"
	"lending-engine/internal/domain/finance"
	"lending-engine/internal/pkg/apperrors"
)

type FinanceHandler struct {
	service   finance.FinanceService
	contracts contract.ContractService
	logger    *slog.Logger
}

func NewFinanceHandler(s finance.FinanceService, cs contract.ContractService, l *slog.Logger) *FinanceHandler {
	if s == nil || cs == nil {
		panic("finance handler services cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &FinanceHandler{
		service:   s,
		contracts: cs,
		logger:    l.With("component", "FinanceHandler"),
	}
}

// parseExpenseFilter builds the listing filter from query parameters.
func parseExpenseFilter(r *http.Request) (finance.ListFilter, error) {
	from, to, err := parsePeriod(r)
	if err != nil {
		return finance.ListFilter{}, err
	}
	filter := finance.ListFilter{From: from, To: to, Search: r.URL.Query().Get("search")}

	if s := r.URL.Query().Get("kind"); s != "" {
		kind := finance.ExpenseKind(s)
		if !kind.Valid() {
			return finance.ListFilter{}, fmt.Errorf("%w: unknown kind %q", apperrors.ErrInvalidArgument, s)
		}
		filter.Kind = &kind
	}
	if s := r.URL.Query().Get("flow"); s != "" {
		flow := finance.Flow(s)
		if !flow.Valid() {
			return finance.ListFilter{}, fmt.Errorf("%w: unknown flow %q", apperrors.ErrInvalidArgument, s)
		}
		filter.Flow = &flow
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := finance.TransactionStatus(s)
		if !status.Valid() {
			return finance.ListFilter{}, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidArgument, s)
		}
		filter.Status = &status
	}
	return filter, nil
}

// CreateExpense handles POST /finance/expenses
// @Summary Create a financial entry
// @Description Records a manual inflow or outflow. An INSTALLMENT entry with more than one slice is expanded into a monthly series sharing one series ID.
// @Tags Finance
// @Accept json
// @Produce json
// @Param request body dto.ExpenseRequest true "Entry payload"
// @Success 201 {array} dto.ExpenseResponse "Created entries in series order"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses [post]
// @Security BearerAuth
func (h *FinanceHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	input, err := req.ToInput()
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidAmount, err))
		return
	}

	entries, err := h.service.CreateExpense(r.Context(), input)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create expense", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Expense created successfully", slog.Int("slices", len(entries)))
	respondJSON(w, http.StatusCreated, dto.NewExpenseListResponse(entries))
}

// GetExpense handles GET /finance/expenses/{expenseID}
// @Summary Retrieve a financial entry
// @Tags Finance
// @Produce json
// @Param expenseID path string true "Expense ID (UUID)"
// @Success 200 {object} dto.ExpenseResponse "Entry retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid expense ID format"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses/{expenseID} [get]
// @Security BearerAuth
func (h *FinanceHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuidFromURL(r, "expenseID")
	if err != nil {
		respondError(w, err)
		return
	}

	e, err := h.service.GetExpense(r.Context(), expenseID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get expense", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewExpenseResponse(e))
}

// ListExpenses handles GET /finance/expenses
// @Summary List financial entries
// @Description Lists entries filtered by period, kind, flow, status and a free-text search over description and category.
// @Tags Finance
// @Produce json
// @Param from query string false "Start of period (YYYY-MM-DD)"
// @Param to query string false "End of period (YYYY-MM-DD)"
// @Param kind query string false "Entry kind (FIXED, INSTALLMENT, VARIABLE)"
// @Param flow query string false "Entry flow (IN, OUT)"
// @Param status query string false "Entry status (PENDING, COMPLETED, CANCELLED)"
// @Param search query string false "Free-text search"
// @Success 200 {array} dto.ExpenseResponse "List of entries"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter value"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses [get]
// @Security BearerAuth
func (h *FinanceHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExpenseFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	entries, err := h.service.ListExpenses(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list expenses", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewExpenseListResponse(entries))
}

// UpdateExpense handles PUT /finance/expenses/{expenseID}
// @Summary Update a financial entry
// @Description Updates the writable fields of an entry. Empty fields are left unchanged.
// @Tags Finance
// @Accept json
// @Produce json
// @Param expenseID path string true "Expense ID (UUID)"
// @Param request body dto.ExpenseRequest true "Fields to update"
// @Success 200 {object} dto.ExpenseResponse "Entry updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid expense ID or payload"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses/{expenseID} [put]
// @Security BearerAuth
func (h *FinanceHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuidFromURL(r, "expenseID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.ExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	input, err := req.ToInput()
	if err != nil && req.Amount != "" {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidAmount, err))
		return
	}

	updated, err := h.service.UpdateExpense(r.Context(), expenseID, input)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidAmount) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update expense", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Expense updated successfully", slog.String("expenseID", expenseID.String()))
	respondJSON(w, http.StatusOK, dto.NewExpenseResponse(updated))
}

// UpdateExpenseStatus handles PATCH /finance/expenses/{expenseID}/status
// @Summary Update entry status
// @Description Moves an entry between PENDING, COMPLETED and CANCELLED. CANCELLED is terminal.
// @Tags Finance
// @Accept json
// @Produce json
// @Param expenseID path string true "Expense ID (UUID)"
// @Param request body dto.UpdateExpenseStatusRequest true "New status"
// @Success 200 {object} dto.ExpenseResponse "Entry updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status or transition from CANCELLED"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses/{expenseID}/status [patch]
// @Security BearerAuth
func (h *FinanceHandler) UpdateExpenseStatus(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuidFromURL(r, "expenseID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateExpenseStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), expenseID, finance.TransactionStatus(req.Status))
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidState) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update expense status", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Expense status updated successfully",
		slog.String("expenseID", expenseID.String()), slog.String("status", req.Status))
	respondJSON(w, http.StatusOK, dto.NewExpenseResponse(updated))
}

// DeleteExpense handles DELETE /finance/expenses/{expenseID}
// @Summary Delete a financial entry
// @Description Deletes an entry. For series entries, mode=future removes this and later slices and mode=all removes the whole series.
// @Tags Finance
// @Produce json
// @Param expenseID path string true "Expense ID (UUID)"
// @Param mode query string false "Delete mode (single, future, all)" Example(single)
// @Success 204 "Entry deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid expense ID, unknown mode or entry not part of a series"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses/{expenseID} [delete]
// @Security BearerAuth
func (h *FinanceHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuidFromURL(r, "expenseID")
	if err != nil {
		respondError(w, err)
		return
	}

	mode := finance.DeleteMode(r.URL.Query().Get("mode"))
	err = h.service.DeleteExpense(r.Context(), expenseID, mode)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) &&
			!errors.Is(err, apperrors.ErrInvalidArgument) &&
			!errors.Is(err, apperrors.ErrInvalidState) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to delete expense", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Expense deleted successfully", slog.String("expenseID", expenseID.String()))
	respondJSON(w, http.StatusNoContent, nil)
}

// GetCashFlowSummary handles GET /finance/expenses/summary
// @Summary Retrieve the cash-flow summary
// @Description Folds manual entries with contract receipts over a period. Defaults to the current month.
// @Tags Finance
// @Produce json
// @Param from query string false "Start of period (YYYY-MM-DD)"
// @Param to query string false "End of period (YYYY-MM-DD)"
// @Success 200 {object} dto.CashFlowSummaryResponse "Cash-flow summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid date format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/expenses/summary [get]
// @Security BearerAuth
func (h *FinanceHandler) GetCashFlowSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := defaultedPeriod(r)
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := h.service.GetCashFlowSummary(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to get cash flow summary", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCashFlowSummaryResponse(summary))
}

// GetFinanceSummary handles GET /finance/summary
// @Summary Retrieve the lending summary
// @Description Retrieves capital currently lent, receivables and money received over a period. Defaults to the current month.
// @Tags Finance
// @Produce json
// @Param from query string false "Start of period (YYYY-MM-DD)"
// @Param to query string false "End of period (YYYY-MM-DD)"
// @Success 200 {object} dto.FinanceSummaryResponse "Summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid date format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/summary [get]
// @Security BearerAuth
func (h *FinanceHandler) GetFinanceSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := defaultedPeriod(r)
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := h.contracts.FinanceSummary(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to get finance summary", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewFinanceSummaryResponse(summary))
}

// ListPayments handles GET /finance/payments
// @Summary List payments received in a period
// @Description Lists every payment received across all contracts inside a period, with client names. Defaults to the current month.
// @Tags Finance
// @Produce json
// @Param from query string false "Start of period (YYYY-MM-DD)"
// @Param to query string false "End of period (YYYY-MM-DD)"
// @Success 200 {array} dto.PaymentInPeriodResponse "List of payments"
// @Failure 400 {object} dto.ErrorResponse "Invalid date format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /finance/payments [get]
// @Security BearerAuth
func (h *FinanceHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	from, to, err := defaultedPeriod(r)
	if err != nil {
		respondError(w, err)
		return
	}

	payments, err := h.contracts.ListPaymentsInPeriod(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list payments in period", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Payments listed successfully", slog.Int("count", len(payments)))
	respondJSON(w, http.StatusOK, dto.NewPaymentInPeriodListResponse(payments))
}
