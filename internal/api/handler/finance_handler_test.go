package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/finance"
	"lending-engine/internal/pkg/apperrors"
)

type MockFinanceService struct {
	mock.Mock
}

func (m *MockFinanceService) CreateExpense(ctx context.Context, input finance.ExpenseInput) ([]*finance.Expense, error) {
	args := m.Called(ctx, input)
	if es, ok := args.Get(0).([]*finance.Expense); ok {
		return es, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceService) GetExpense(ctx context.Context, expenseID uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, expenseID)
	if e, ok := args.Get(0).(*finance.Expense); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceService) ListExpenses(ctx context.Context, filter finance.ListFilter) ([]*finance.Expense, error) {
	args := m.Called(ctx, filter)
	if es, ok := args.Get(0).([]*finance.Expense); ok {
		return es, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceService) UpdateExpense(ctx context.Context, expenseID uuid.UUID, input finance.ExpenseInput) (*finance.Expense, error) {
	args := m.Called(ctx, expenseID, input)
	if e, ok := args.Get(0).(*finance.Expense); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceService) UpdateStatus(ctx context.Context, expenseID uuid.UUID, status finance.TransactionStatus) (*finance.Expense, error) {
	args := m.Called(ctx, expenseID, status)
	if e, ok := args.Get(0).(*finance.Expense); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFinanceService) DeleteExpense(ctx context.Context, expenseID uuid.UUID, mode finance.DeleteMode) error {
	args := m.Called(ctx, expenseID, mode)
	return args.Error(0)
}

func (m *MockFinanceService) GetCashFlowSummary(ctx context.Context, from, to time.Time) (*finance.CashFlowSummary, error) {
	args := m.Called(ctx, from, to)
	if s, ok := args.Get(0).(*finance.CashFlowSummary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func testExpenseEntry() *finance.Expense {
	return &finance.Expense{
		ID:          uuid.New(),
		Description: "Office rent",
		Kind:        finance.KindFixed,
		Flow:        finance.FlowOut,
		Status:      finance.StatusPending,
		Category:    "rent",
		Amount:      decimal.RequireFromString("1500.00"),
		StartDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now(),
	}
}

func TestFinanceHandlerCreateExpense(t *testing.T) {
	t.Run("successfully creates an entry", func(t *testing.T) {
		mockService := new(MockFinanceService)
		mockContracts := new(MockContractService)
		handler := NewFinanceHandler(mockService, mockContracts, testHandlerLogger())

		entry := testExpenseEntry()
		mockService.On("CreateExpense", mock.Anything, mock.MatchedBy(func(in finance.ExpenseInput) bool {
			return in.Description == "Office rent" && in.Kind == finance.KindFixed &&
				in.Flow == finance.FlowOut && in.Amount.Equal(decimal.RequireFromString("1500.00"))
		})).Return([]*finance.Expense{entry}, nil)

		body := `{"description":"Office rent","kind":"FIXED","flow":"OUT","category":"rent","amount":"1500.00","startDate":"2026-01-05"}`
		req := httptest.NewRequest(http.MethodPost, "/finance/expenses", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateExpense(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp []dto.ExpenseResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp, 1)
		assert.Equal(t, "1500.00", resp[0].Amount)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		body := `{"description":"Office rent","kind":"RECURRING","flow":"OUT","amount":"1500.00"}`
		req := httptest.NewRequest(http.MethodPost, "/finance/expenses", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateExpense(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateExpense")
	})

	t.Run("rejects non-decimal amount", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		body := `{"description":"Office rent","kind":"FIXED","flow":"OUT","amount":"lots"}`
		req := httptest.NewRequest(http.MethodPost, "/finance/expenses", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.CreateExpense(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateExpense")
	})
}

func TestFinanceHandlerListExpenses(t *testing.T) {
	t.Run("passes filters to the service", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		mockService.On("ListExpenses", mock.Anything, mock.MatchedBy(func(f finance.ListFilter) bool {
			return f.Flow != nil && *f.Flow == finance.FlowOut && f.Search == "rent"
		})).Return([]*finance.Expense{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/finance/expenses?flow=OUT&search=rent", nil)
		rec := httptest.NewRecorder()

		handler.ListExpenses(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		req := httptest.NewRequest(http.MethodGet, "/finance/expenses?status=DONE", nil)
		rec := httptest.NewRecorder()

		handler.ListExpenses(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "ListExpenses")
	})
}

func TestFinanceHandlerUpdateExpenseStatus(t *testing.T) {
	t.Run("successfully completes an entry", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		entry := testExpenseEntry()
		entry.Status = finance.StatusCompleted
		mockService.On("UpdateStatus", mock.Anything, entry.ID, finance.StatusCompleted).Return(entry, nil)

		req := httptest.NewRequest(http.MethodPatch, "/finance/expenses/"+entry.ID.String()+"/status",
			strings.NewReader(`{"status":"COMPLETED"}`))
		req = routeContext(req, "expenseID", entry.ID.String())
		rec := httptest.NewRecorder()

		handler.UpdateExpenseStatus(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.ExpenseResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "COMPLETED", resp.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("maps cancelled transition to bad request", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		expenseID := uuid.New()
		mockService.On("UpdateStatus", mock.Anything, expenseID, finance.StatusPending).
			Return((*finance.Expense)(nil), apperrors.ErrInvalidState)

		req := httptest.NewRequest(http.MethodPatch, "/finance/expenses/"+expenseID.String()+"/status",
			strings.NewReader(`{"status":"PENDING"}`))
		req = routeContext(req, "expenseID", expenseID.String())
		rec := httptest.NewRecorder()

		handler.UpdateExpenseStatus(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestFinanceHandlerDeleteExpense(t *testing.T) {
	t.Run("deletes future slices of a series", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		expenseID := uuid.New()
		mockService.On("DeleteExpense", mock.Anything, expenseID, finance.DeleteFuture).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/finance/expenses/"+expenseID.String()+"?mode=future", nil)
		req = routeContext(req, "expenseID", expenseID.String())
		rec := httptest.NewRecorder()

		handler.DeleteExpense(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("returns not found for unknown entry", func(t *testing.T) {
		mockService := new(MockFinanceService)
		handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

		expenseID := uuid.New()
		mockService.On("DeleteExpense", mock.Anything, expenseID, finance.DeleteMode("")).Return(apperrors.ErrNotFound)

		req := httptest.NewRequest(http.MethodDelete, "/finance/expenses/"+expenseID.String(), nil)
		req = routeContext(req, "expenseID", expenseID.String())
		rec := httptest.NewRecorder()

		handler.DeleteExpense(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestFinanceHandlerGetCashFlowSummary(t *testing.T) {
	mockService := new(MockFinanceService)
	handler := NewFinanceHandler(mockService, new(MockContractService), testHandlerLogger())

	summary := &finance.CashFlowSummary{
		TotalIn:           decimal.RequireFromString("800.00"),
		TotalOut:          decimal.RequireFromString("300.00"),
		Balance:           decimal.RequireFromString("500.00"),
		CumulativeBalance: decimal.RequireFromString("5200.00"),
		ManualIn:          decimal.RequireFromString("100.00"),
		ContractReceipts:  decimal.RequireFromString("700.00"),
		TransactionCount:  4,
	}
	mockService.On("GetCashFlowSummary", mock.Anything,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), mock.Anything).Return(summary, nil)

	req := httptest.NewRequest(http.MethodGet, "/finance/expenses/summary?from=2026-01-01&to=2026-01-31", nil)
	rec := httptest.NewRecorder()

	handler.GetCashFlowSummary(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CashFlowSummaryResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "800.00", resp.TotalIn)
	assert.Equal(t, "500.00", resp.Balance)
	assert.Equal(t, 4, resp.TransactionCount)
	mockService.AssertExpectations(t)
}
