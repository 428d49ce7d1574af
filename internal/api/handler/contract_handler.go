package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/contract"
	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/pkg/apperrors"
)

type ContractHandler struct {
	service contract.ContractService
	logger  *slog.Logger
}

func NewContractHandler(s contract.ContractService, l *slog.Logger) *ContractHandler {
	if s == nil {
		panic("contract service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ContractHandler{
		service: s,
		logger:  l.With("component", "ContractHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrInvalidAmount), errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrContractSettled):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized."
	case errors.Is(err, apperrors.ErrForbidden):
		status, message = http.StatusForbidden, "Forbidden."
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func uuidFromURL(r *http.Request, param string) (uuid.UUID, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s format: %s", apperrors.ErrInvalidArgument, param, idStr)
	}
	return id, nil
}

// parsePeriod reads optional from/to query parameters as YYYY-MM-DD dates.
// The to bound is pushed to the end of its day so the range is inclusive.
func parsePeriod(r *http.Request) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: from must be YYYY-MM-DD", apperrors.ErrInvalidArgument)
		}
		from = &t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: to must be YYYY-MM-DD", apperrors.ErrInvalidArgument)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

// defaultedPeriod is parsePeriod with the current month as the fallback range.
func defaultedPeriod(r *http.Request) (time.Time, time.Time, error) {
	from, to, err := parsePeriod(r)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	now := time.Now()
	if from == nil {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		from = &start
	}
	if to == nil {
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0).Add(-time.Nanosecond)
		to = &end
	}
	return *from, *to, nil
}

// CreateContract handles POST /contracts
// @Summary Create a new contract
// @Description Creates a loan contract for an active client. Monthly contracts get their first interest cycle; daily and weekly contracts get their installment schedule.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param request body dto.CreateContractRequest true "Contract creation request"
// @Success 201 {object} dto.ContractResponse "Contract successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or inactive client"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts [post]
// @Security BearerAuth
func (h *ContractHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateContractRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid clientId format", apperrors.ErrInvalidArgument))
		return
	}
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		respondError(w, fmt.Errorf("%w: principal must be a decimal number", apperrors.ErrInvalidAmount))
		return
	}
	rate, err := decimal.NewFromString(req.InterestRatePercent)
	if err != nil {
		respondError(w, fmt.Errorf("%w: interestRatePercent must be a decimal number", apperrors.ErrInvalidAmount))
		return
	}
	var startDate time.Time
	if req.StartDate != "" {
		startDate, _ = time.Parse("2006-01-02", req.StartDate)
	}

	created, err := h.service.CreateContract(r.Context(), clientID, principal, rate, ledger.Periodicity(req.Periodicity), startDate, req.Note)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create contract", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contract created successfully", slog.String("contractID", created.ID.String()))
	respondJSON(w, http.StatusCreated, dto.NewContractResponse(created))
}

// GetContract handles GET /contracts/{contractID}
// @Summary Retrieve contract details
// @Description Retrieves a contract with its installment schedule.
// @Tags Contracts
// @Produce json
// @Param contractID path string true "Contract ID (UUID)"
// @Success 200 {object} dto.ContractResponse "Contract details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid contract ID format"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/{contractID} [get]
// @Security BearerAuth
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuidFromURL(r, "contractID")
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := h.service.GetContract(r.Context(), contractID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get contract", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewContractResponse(c))
}

// ListContracts handles GET /contracts
// @Summary List contracts
// @Description Lists contracts, optionally bounded by a creation date range.
// @Tags Contracts
// @Produce json
// @Param from query string false "Start of creation range (YYYY-MM-DD)"
// @Param to query string false "End of creation range (YYYY-MM-DD)"
// @Success 200 {array} dto.ContractResponse "List of contracts"
// @Failure 400 {object} dto.ErrorResponse "Invalid date format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts [get]
// @Security BearerAuth
func (h *ContractHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		respondError(w, err)
		return
	}

	contracts, err := h.service.ListContracts(r.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list contracts", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contracts listed successfully", slog.Int("count", len(contracts)))
	respondJSON(w, http.StatusOK, dto.NewContractListResponse(contracts))
}

// ListClientContracts handles GET /contracts/client/{clientID}
// @Summary List a client's contracts
// @Description Lists every contract belonging to one client, newest first.
// @Tags Contracts
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 200 {array} dto.ContractResponse "List of contracts"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/client/{clientID} [get]
// @Security BearerAuth
func (h *ContractHandler) ListClientContracts(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuidFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	contracts, err := h.service.ListContractsByClient(r.Context(), clientID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list client contracts", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewContractListResponse(contracts))
}

// GetContractSummary handles GET /contracts/{contractID}/summary
// @Summary Retrieve contract collection summary
// @Description Retrieves the amounts due on a contract as of today: cycle total, late fees and the payoff figure.
// @Tags Contracts
// @Produce json
// @Param contractID path string true "Contract ID (UUID)"
// @Success 200 {object} dto.ContractSummaryResponse "Contract summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid contract ID format"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/{contractID}/summary [get]
// @Security BearerAuth
func (h *ContractHandler) GetContractSummary(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuidFromURL(r, "contractID")
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := h.service.GetContractSummary(r.Context(), contractID, time.Now())
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get contract summary", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewContractSummaryResponse(summary))
}

// RecordPayment handles POST /contracts/{contractID}/payments
// @Summary Record a payment
// @Description Records a payment against a contract. The amount is allocated fee first, then interest, then principal.
// @Tags Payments
// @Accept json
// @Produce json
// @Param contractID path string true "Contract ID (UUID)"
// @Param request body dto.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} dto.PaymentResponse "Payment successfully recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload, non-positive amount, overpayment or settled contract"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/{contractID}/payments [post]
// @Security BearerAuth
func (h *ContractHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuidFromURL(r, "contractID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, fmt.Errorf("%w: amount must be a decimal number", apperrors.ErrInvalidAmount))
		return
	}
	kind := contract.PaymentKindMixed
	if req.Kind != "" {
		kind = contract.PaymentKind(req.Kind)
	}

	payment, err := h.service.RecordPayment(r.Context(), contractID, amount, kind, req.Note)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) &&
			!errors.Is(err, apperrors.ErrInvalidAmount) &&
			!errors.Is(err, apperrors.ErrContractSettled) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to record payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Payment recorded successfully",
		slog.String("contractID", contractID.String()),
		slog.String("paymentID", payment.ID.String()))
	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(payment))
}

// PayOff handles POST /contracts/{contractID}/payoff
// @Summary Pay off a contract
// @Description Settles a contract in one payment covering the open principal, accrued fees and pending interest.
// @Tags Payments
// @Produce json
// @Param contractID path string true "Contract ID (UUID)"
// @Success 201 {object} dto.PaymentResponse "Payoff payment recorded, contract settled"
// @Failure 400 {object} dto.ErrorResponse "Contract already settled"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/{contractID}/payoff [post]
// @Security BearerAuth
func (h *ContractHandler) PayOff(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuidFromURL(r, "contractID")
	if err != nil {
		respondError(w, err)
		return
	}

	payment, err := h.service.PayOff(r.Context(), contractID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrContractSettled) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to pay off contract", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contract paid off successfully", slog.String("contractID", contractID.String()))
	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(payment))
}

// PayInstallments handles POST /contracts/{contractID}/installments/pay
// @Summary Pay selected installments
// @Description Marks the selected pending installments as paid and records one payment covering their amounts plus accrued late fees.
// @Tags Payments
// @Accept json
// @Produce json
// @Param contractID path string true "Contract ID (UUID)"
// @Param request body dto.PayInstallmentsRequest true "Installment selection"
// @Success 201 {object} dto.PaymentResponse "Payment successfully recorded"
// @Failure 400 {object} dto.ErrorResponse "Empty selection, unknown or already paid installment"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/{contractID}/installments/pay [post]
// @Security BearerAuth
func (h *ContractHandler) PayInstallments(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuidFromURL(r, "contractID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.PayInstallmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	installmentIDs := make([]uuid.UUID, 0, len(req.InstallmentIDs))
	for _, idStr := range req.InstallmentIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid installment ID format: %s", apperrors.ErrInvalidArgument, idStr))
			return
		}
		installmentIDs = append(installmentIDs, id)
	}

	payment, err := h.service.PayInstallments(r.Context(), contractID, installmentIDs)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) &&
			!errors.Is(err, apperrors.ErrInvalidArgument) &&
			!errors.Is(err, apperrors.ErrInvalidState) &&
			!errors.Is(err, apperrors.ErrContractSettled) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to pay installments", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Installments paid successfully",
		slog.String("contractID", contractID.String()),
		slog.Int("count", len(installmentIDs)))
	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(payment))
}

// GetPaymentHistory handles GET /contracts/{contractID}/payments
// @Summary Retrieve payment history
// @Description Retrieves a contract's payments, newest first, each with the principal balance before and after it.
// @Tags Payments
// @Produce json
// @Param contractID path string true "Contract ID (UUID)"
// @Success 200 {array} dto.PaymentWithBalanceResponse "Payment history retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid contract ID format"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contracts/{contractID}/payments [get]
// @Security BearerAuth
func (h *ContractHandler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuidFromURL(r, "contractID")
	if err != nil {
		respondError(w, err)
		return
	}

	history, err := h.service.GetPaymentHistory(r.Context(), contractID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get payment history", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentHistoryResponse(history))
}
