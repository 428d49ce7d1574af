package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/contract"
	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/pkg/apperrors"
)

type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) CreateContract(ctx context.Context, clientID uuid.UUID, principal, interestRatePercent decimal.Decimal, periodicity ledger.Periodicity, startDate time.Time, note string) (*contract.Contract, error) {
	args := m.Called(ctx, clientID, principal, interestRatePercent, periodicity, startDate, note)
	if c, ok := args.Get(0).(*contract.Contract); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) GetContract(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, contractID)
	if c, ok := args.Get(0).(*contract.Contract); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) ListContracts(ctx context.Context, from, to *time.Time) ([]*contract.Contract, error) {
	args := m.Called(ctx, from, to)
	if cs, ok := args.Get(0).([]*contract.Contract); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) ListContractsByClient(ctx context.Context, clientID uuid.UUID) ([]*contract.Contract, error) {
	args := m.Called(ctx, clientID)
	if cs, ok := args.Get(0).([]*contract.Contract); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) GetContractSummary(ctx context.Context, contractID uuid.UUID, now time.Time) (*contract.ContractSummary, error) {
	args := m.Called(ctx, contractID, now)
	if s, ok := args.Get(0).(*contract.ContractSummary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) RecordPayment(ctx context.Context, contractID uuid.UUID, amount decimal.Decimal, kind contract.PaymentKind, note string) (*contract.Payment, error) {
	args := m.Called(ctx, contractID, amount, kind, note)
	if p, ok := args.Get(0).(*contract.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) PayInstallments(ctx context.Context, contractID uuid.UUID, installmentIDs []uuid.UUID) (*contract.Payment, error) {
	args := m.Called(ctx, contractID, installmentIDs)
	if p, ok := args.Get(0).(*contract.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) PayOff(ctx context.Context, contractID uuid.UUID) (*contract.Payment, error) {
	args := m.Called(ctx, contractID)
	if p, ok := args.Get(0).(*contract.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) GetPaymentHistory(ctx context.Context, contractID uuid.UUID) ([]contract.PaymentWithBalance, error) {
	args := m.Called(ctx, contractID)
	if h, ok := args.Get(0).([]contract.PaymentWithBalance); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) ListPaymentsInPeriod(ctx context.Context, from, to time.Time) ([]contract.PaymentInPeriod, error) {
	args := m.Called(ctx, from, to)
	if ps, ok := args.Get(0).([]contract.PaymentInPeriod); ok {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) FinanceSummary(ctx context.Context, from, to time.Time) (*ledger.Summary, error) {
	args := m.Called(ctx, from, to)
	if s, ok := args.Get(0).(*ledger.Summary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) DashboardSummary(ctx context.Context, from, to time.Time) (*contract.DashboardSummary, error) {
	args := m.Called(ctx, from, to)
	if s, ok := args.Get(0).(*contract.DashboardSummary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockContractService) AccrueOverdue(ctx context.Context, now time.Time) (*contract.AccrualReport, error) {
	args := m.Called(ctx, now)
	if r, ok := args.Get(0).(*contract.AccrualReport); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func routeContext(req *http.Request, key, value string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{Keys: []string{key}, Values: []string{value}},
	}))
}

func testHandlerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestContractHandlerGetContract(t *testing.T) {
	mockService := new(MockContractService)
	handler := NewContractHandler(mockService, testHandlerLogger())

	t.Run("successfully retrieves contract details", func(t *testing.T) {
		contractID := uuid.New()
		c := &contract.Contract{
			ID:                  contractID,
			ClientID:            uuid.New(),
			Principal:           decimal.RequireFromString("1000.00"),
			OpenPrincipal:       decimal.RequireFromString("1000.00"),
			InterestRatePercent: decimal.RequireFromString("20"),
			AccruedFee:          decimal.Zero,
			InterestDue:         decimal.RequireFromString("200.00"),
			Periodicity:         ledger.PeriodicityMonthly,
			DueDate:             time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			Status:              contract.StatusOpen,
		}
		mockService.On("GetContract", mock.Anything, contractID).Return(c, nil)

		req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String(), nil)
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.GetContract(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.ContractResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, contractID.String(), resp.ID)
		assert.Equal(t, "1000.00", resp.OpenPrincipal)
		assert.Equal(t, "200.00", resp.InterestDue)
		mockService.AssertExpectations(t)
	})

	t.Run("returns error for invalid contract ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/contracts/invalid", nil)
		req = routeContext(req, "contractID", "invalid")
		rec := httptest.NewRecorder()

		handler.GetContract(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Error.Message, "invalid contractID format")
	})

	t.Run("returns error when contract not found", func(t *testing.T) {
		contractID := uuid.New()
		mockService.On("GetContract", mock.Anything, contractID).Return((*contract.Contract)(nil), apperrors.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String(), nil)
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.GetContract(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp dto.ErrorResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Resource not found.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("returns internal server error for unexpected errors", func(t *testing.T) {
		contractID := uuid.New()
		mockService.On("GetContract", mock.Anything, contractID).Return((*contract.Contract)(nil), errors.New("unexpected error"))

		req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String(), nil)
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.GetContract(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp dto.ErrorResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "An unexpected error occurred.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})
}

func TestContractHandlerCreateContract(t *testing.T) {
	t.Run("successfully creates a contract", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		clientID := uuid.New()
		created := &contract.Contract{
			ID:                  uuid.New(),
			ClientID:            clientID,
			Principal:           decimal.RequireFromString("1000.00"),
			OpenPrincipal:       decimal.RequireFromString("1000.00"),
			InterestRatePercent: decimal.RequireFromString("20"),
			AccruedFee:          decimal.Zero,
			InterestDue:         decimal.RequireFromString("200.00"),
			Periodicity:         ledger.PeriodicityMonthly,
			DueDate:             time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			Status:              contract.StatusOpen,
		}
		mockService.On("CreateContract", mock.Anything, clientID,
			decimal.RequireFromString("1000.00"), decimal.RequireFromString("20"),
			ledger.PeriodicityMonthly, mock.Anything, "").Return(created, nil)

		body := `{"clientId":"` + clientID.String() + `","principal":"1000.00","interestRatePercent":"20","periodicity":"MONTHLY","startDate":"2026-01-10"}`
		req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateContract(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.ContractResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, created.ID.String(), resp.ID)
		assert.Equal(t, "MONTHLY", resp.Periodicity)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects unknown periodicity", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		body := `{"clientId":"` + uuid.New().String() + `","principal":"1000.00","interestRatePercent":"20","periodicity":"YEARLY"}`
		req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateContract(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateContract")
	})

	t.Run("rejects non-decimal principal", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		body := `{"clientId":"` + uuid.New().String() + `","principal":"a lot","interestRatePercent":"20","periodicity":"MONTHLY"}`
		req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateContract(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateContract")
	})

	t.Run("rejects unknown body fields", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		body := `{"clientId":"` + uuid.New().String() + `","principal":"1000.00","interestRatePercent":"20","periodicity":"MONTHLY","bogus":true}`
		req := httptest.NewRequest(http.MethodPost, "/contracts", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateContract(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateContract")
	})
}

func TestContractHandlerRecordPayment(t *testing.T) {
	t.Run("successfully records a payment", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		payment := &contract.Payment{
			ID:                 uuid.New(),
			ContractID:         contractID,
			Kind:               contract.PaymentKindMixed,
			AmountPaid:         decimal.RequireFromString("200.00"),
			AllocatedFee:       decimal.Zero,
			AllocatedInterest:  decimal.RequireFromString("200.00"),
			AllocatedPrincipal: decimal.Zero,
			CreatedAt:          time.Now(),
		}
		mockService.On("RecordPayment", mock.Anything, contractID,
			decimal.RequireFromString("200.00"), contract.PaymentKindMixed, "").Return(payment, nil)

		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/payments",
			strings.NewReader(`{"amount":"200.00"}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.PaymentResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "200.00", resp.AmountPaid)
		assert.Equal(t, "200.00", resp.AllocatedInterest)
		mockService.AssertExpectations(t)
	})

	t.Run("maps overpayment to bad request", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		mockService.On("RecordPayment", mock.Anything, contractID,
			decimal.RequireFromString("9999.00"), contract.PaymentKindMixed, "").
			Return((*contract.Payment)(nil), apperrors.ErrInvalidAmount)

		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/payments",
			strings.NewReader(`{"amount":"9999.00"}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("maps settled contract to bad request", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		mockService.On("RecordPayment", mock.Anything, contractID,
			decimal.RequireFromString("10.00"), contract.PaymentKindMixed, "").
			Return((*contract.Payment)(nil), apperrors.ErrContractSettled)

		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/payments",
			strings.NewReader(`{"amount":"10.00"}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects unknown payment kind", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/payments",
			strings.NewReader(`{"amount":"10.00","kind":"BONUS"}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.RecordPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "RecordPayment")
	})
}

func TestContractHandlerPayInstallments(t *testing.T) {
	t.Run("successfully pays selected installments", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		instID := uuid.New()
		payment := &contract.Payment{
			ID:                 uuid.New(),
			ContractID:         contractID,
			Kind:               contract.PaymentKindPrincipal,
			AmountPaid:         decimal.RequireFromString("100.00"),
			AllocatedFee:       decimal.Zero,
			AllocatedInterest:  decimal.Zero,
			AllocatedPrincipal: decimal.RequireFromString("100.00"),
			CreatedAt:          time.Now(),
		}
		mockService.On("PayInstallments", mock.Anything, contractID, []uuid.UUID{instID}).Return(payment, nil)

		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/installments/pay",
			strings.NewReader(`{"installmentIds":["`+instID.String()+`"]}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.PayInstallments(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.PaymentResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "100.00", resp.AllocatedPrincipal)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects empty selection", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/installments/pay",
			strings.NewReader(`{"installmentIds":[]}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.PayInstallments(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "PayInstallments")
	})

	t.Run("maps already paid installment to bad request", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		contractID := uuid.New()
		instID := uuid.New()
		mockService.On("PayInstallments", mock.Anything, contractID, []uuid.UUID{instID}).
			Return((*contract.Payment)(nil), apperrors.ErrInvalidState)

		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/installments/pay",
			strings.NewReader(`{"installmentIds":["`+instID.String()+`"]}`))
		req = routeContext(req, "contractID", contractID.String())
		rec := httptest.NewRecorder()

		handler.PayInstallments(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestContractHandlerPayOff(t *testing.T) {
	mockService := new(MockContractService)
	handler := NewContractHandler(mockService, testHandlerLogger())

	contractID := uuid.New()
	payment := &contract.Payment{
		ID:                 uuid.New(),
		ContractID:         contractID,
		Kind:               contract.PaymentKindMixed,
		AmountPaid:         decimal.RequireFromString("1215.00"),
		AllocatedFee:       decimal.RequireFromString("15.00"),
		AllocatedInterest:  decimal.RequireFromString("200.00"),
		AllocatedPrincipal: decimal.RequireFromString("1000.00"),
		CreatedAt:          time.Now(),
	}
	mockService.On("PayOff", mock.Anything, contractID).Return(payment, nil)

	req := httptest.NewRequest(http.MethodPost, "/contracts/"+contractID.String()+"/payoff", nil)
	req = routeContext(req, "contractID", contractID.String())
	rec := httptest.NewRecorder()

	handler.PayOff(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.PaymentResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "1215.00", resp.AmountPaid)
	mockService.AssertExpectations(t)
}

func TestContractHandlerGetPaymentHistory(t *testing.T) {
	mockService := new(MockContractService)
	handler := NewContractHandler(mockService, testHandlerLogger())

	contractID := uuid.New()
	history := []contract.PaymentWithBalance{
		{
			Payment: contract.Payment{
				ID:                 uuid.New(),
				ContractID:         contractID,
				Kind:               contract.PaymentKindMixed,
				AmountPaid:         decimal.RequireFromString("100.00"),
				AllocatedFee:       decimal.Zero,
				AllocatedInterest:  decimal.Zero,
				AllocatedPrincipal: decimal.RequireFromString("100.00"),
				CreatedAt:          time.Now(),
			},
			BalanceBefore: decimal.RequireFromString("1000.00"),
			BalanceAfter:  decimal.RequireFromString("900.00"),
		},
	}
	mockService.On("GetPaymentHistory", mock.Anything, contractID).Return(history, nil)

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String()+"/payments", nil)
	req = routeContext(req, "contractID", contractID.String())
	rec := httptest.NewRecorder()

	handler.GetPaymentHistory(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.PaymentWithBalanceResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, "1000.00", resp[0].BalanceBefore)
	assert.Equal(t, "900.00", resp[0].BalanceAfter)
	mockService.AssertExpectations(t)
}

func TestContractHandlerListContracts(t *testing.T) {
	t.Run("rejects malformed date filter", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		req := httptest.NewRequest(http.MethodGet, "/contracts?from=notadate", nil)
		rec := httptest.NewRecorder()

		handler.ListContracts(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "ListContracts")
	})

	t.Run("passes parsed bounds to the service", func(t *testing.T) {
		mockService := new(MockContractService)
		handler := NewContractHandler(mockService, testHandlerLogger())

		mockService.On("ListContracts", mock.Anything,
			mock.MatchedBy(func(from *time.Time) bool {
				return from != nil && from.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
			}),
			mock.MatchedBy(func(to *time.Time) bool {
				return to != nil && to.After(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC))
			})).Return([]*contract.Contract{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/contracts?from=2026-01-01&to=2026-01-31", nil)
		rec := httptest.NewRecorder()

		handler.ListContracts(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestContractHandlerGetContractSummary(t *testing.T) {
	mockService := new(MockContractService)
	handler := NewContractHandler(mockService, testHandlerLogger())

	contractID := uuid.New()
	summary := &contract.ContractSummary{
		ContractID:    contractID,
		Status:        contract.StatusOverdue,
		OpenPrincipal: decimal.RequireFromString("1000.00"),
		PendingFee:    decimal.RequireFromString("10.00"),
		CycleInterest: decimal.RequireFromString("200.00"),
		DaysLate:      3,
		LateFee:       decimal.RequireFromString("12.00"),
		CycleTotal:    decimal.RequireFromString("210.00"),
		TotalWithLate: decimal.RequireFromString("222.00"),
		PayoffTotal:   decimal.RequireFromString("1210.00"),
		DueDate:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	mockService.On("GetContractSummary", mock.Anything, contractID, mock.Anything).Return(summary, nil)

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String()+"/summary", nil)
	req = routeContext(req, "contractID", contractID.String())
	rec := httptest.NewRecorder()

	handler.GetContractSummary(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ContractSummaryResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.DaysLate)
	assert.Equal(t, "12.00", resp.LateFee)
	assert.Equal(t, "1210.00", resp.PayoffTotal)
	mockService.AssertExpectations(t)
}
