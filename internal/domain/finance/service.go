package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/pkg/apperrors"
)

// ContractLedger is the slice of the contract service the cash-flow summary
// needs: realized receipts over a period.
type ContractLedger interface {
	FinanceSummary(ctx context.Context, from, to time.Time) (*ledger.Summary, error)
}

// ExpenseInput carries the writable fields of an entry.
type ExpenseInput struct {
	Description       string
	Kind              ExpenseKind
	Flow              Flow
	Category          string
	Amount            decimal.Decimal
	StartDate         time.Time
	TotalInstallments *int
	DayOfMonth        *int
}

// ContractBreakdown splits contract receipts for the summary tooltips.
type ContractBreakdown struct {
	Installments    decimal.Decimal
	MonthlyInterest decimal.Decimal
	Fees            decimal.Decimal
}

// CashFlowSummary is the realized cash position over a period: manual
// entries folded with contract receipts.
type CashFlowSummary struct {
	TotalIn           decimal.Decimal
	TotalOut          decimal.Decimal
	Balance           decimal.Decimal
	CumulativeBalance decimal.Decimal

	ManualIn         decimal.Decimal
	ContractReceipts decimal.Decimal
	ContractDetail   ContractBreakdown

	TransactionCount int
}

type FinanceService interface {
	// CreateExpense records one entry, or the whole monthly series when the
	// kind is INSTALLMENT with more than one slice. Returns the created
	// entries in series order.
	CreateExpense(ctx context.Context, input ExpenseInput) ([]*Expense, error)

	GetExpense(ctx context.Context, expenseID uuid.UUID) (*Expense, error)

	ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error)

	UpdateExpense(ctx context.Context, expenseID uuid.UUID, input ExpenseInput) (*Expense, error)

	UpdateStatus(ctx context.Context, expenseID uuid.UUID, status TransactionStatus) (*Expense, error)

	DeleteExpense(ctx context.Context, expenseID uuid.UUID, mode DeleteMode) error

	GetCashFlowSummary(ctx context.Context, from, to time.Time) (*CashFlowSummary, error)
}

type financeService struct {
	repo      ExpenseRepository
	contracts ContractLedger
	logger    *slog.Logger
}

func NewFinanceService(repo ExpenseRepository, contracts ContractLedger, logger *slog.Logger) FinanceService {
	if repo == nil || contracts == nil || logger == nil {
		panic("finance service dependencies cannot be nil")
	}
	return &financeService{
		repo:      repo,
		contracts: contracts,
		logger:    logger.With(slog.String("component", "financeService")),
	}
}

func (s *financeService) CreateExpense(ctx context.Context, input ExpenseInput) ([]*Expense, error) {
	first, err := NewExpense(input.Description, input.Kind, input.Flow, input.Category, input.Amount, input.StartDate)
	if err != nil {
		return nil, err
	}
	first.DayOfMonth = input.DayOfMonth

	total := 1
	if input.TotalInstallments != nil {
		total = *input.TotalInstallments
	}
	if input.Kind == KindInstallment && total < 1 {
		return nil, fmt.Errorf("%w: installment expense needs at least one slice", apperrors.ErrInvalidArgument)
	}

	if input.Kind != KindInstallment || total == 1 {
		if err := s.repo.Save(ctx, first); err != nil {
			s.logger.ErrorContext(ctx, "Failed to save expense", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to save expense: %v", apperrors.ErrInternalServer, err)
		}
		s.logger.InfoContext(ctx, "Expense created", "expenseID", first.ID, "kind", first.Kind, "flow", first.Flow)
		return []*Expense{first}, nil
	}

	// One row per monthly slice, all sharing the series id.
	seriesID := uuid.New()
	entries := make([]*Expense, 0, total)
	for i := 0; i < total; i++ {
		entry := *first
		if i > 0 {
			entry.ID = uuid.New()
		}
		entry.SeriesID = &seriesID
		entry.StartDate = first.StartDate.AddDate(0, i, 0)
		current, count := i+1, total
		entry.CurrentInstallment = &current
		entry.TotalInstallments = &count
		entries = append(entries, &entry)
	}

	if err := s.repo.SaveBatch(ctx, entries); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save expense series", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save expense series: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Expense series created", "seriesID", seriesID, "slices", total)
	return entries, nil
}

func (s *financeService) GetExpense(ctx context.Context, expenseID uuid.UUID) (*Expense, error) {
	e, err := s.repo.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: expense %s not found", apperrors.ErrNotFound, expenseID)
		}
		return nil, fmt.Errorf("%w: failed to get expense %s: %v", apperrors.ErrInternalServer, expenseID, err)
	}
	return e, nil
}

func (s *financeService) ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list expenses", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list expenses: %v", apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

func (s *financeService) UpdateExpense(ctx context.Context, expenseID uuid.UUID, input ExpenseInput) (*Expense, error) {
	e, err := s.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if input.Description != "" {
		e.Description = input.Description
	}
	if input.Category != "" {
		e.Category = input.Category
	}
	if !input.Amount.IsZero() {
		if input.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidAmount, input.Amount)
		}
		e.Amount = input.Amount
	}
	if !input.StartDate.IsZero() {
		e.StartDate = input.StartDate
	}
	if input.DayOfMonth != nil {
		e.DayOfMonth = input.DayOfMonth
	}

	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update expense", "expenseID", expenseID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update expense %s: %v", apperrors.ErrInternalServer, expenseID, err)
	}
	return e, nil
}

func (s *financeService) UpdateStatus(ctx context.Context, expenseID uuid.UUID, status TransactionStatus) (*Expense, error) {
	e, err := s.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := e.TransitionTo(status); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update expense status", "expenseID", expenseID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update expense %s: %v", apperrors.ErrInternalServer, expenseID, err)
	}
	s.logger.InfoContext(ctx, "Expense status updated", "expenseID", expenseID, "status", status)
	return e, nil
}

func (s *financeService) DeleteExpense(ctx context.Context, expenseID uuid.UUID, mode DeleteMode) error {
	if mode == "" {
		mode = DeleteSingle
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown delete mode %q", apperrors.ErrInvalidArgument, mode)
	}

	e, err := s.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if mode != DeleteSingle && e.SeriesID == nil {
		return fmt.Errorf("%w: expense %s is not part of a series", apperrors.ErrInvalidState, expenseID)
	}

	if err := s.repo.Delete(ctx, e, mode); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete expense", "expenseID", expenseID, "mode", mode, slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete expense %s: %v", apperrors.ErrInternalServer, expenseID, err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", "expenseID", expenseID, "mode", mode)
	return nil
}

func (s *financeService) GetCashFlowSummary(ctx context.Context, from, to time.Time) (*CashFlowSummary, error) {
	manualIn, err := s.repo.SumCompletedByFlow(ctx, FlowIn, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sum inflows: %v", apperrors.ErrInternalServer, err)
	}
	manualOut, err := s.repo.SumCompletedByFlow(ctx, FlowOut, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sum outflows: %v", apperrors.ErrInternalServer, err)
	}

	period, err := s.contracts.FinanceSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountInPeriod(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count transactions: %v", apperrors.ErrInternalServer, err)
	}

	// All-time position for the cumulative balance card.
	allIn, err := s.repo.SumCompletedByFlow(ctx, FlowIn, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sum all-time inflows: %v", apperrors.ErrInternalServer, err)
	}
	allOut, err := s.repo.SumCompletedByFlow(ctx, FlowOut, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sum all-time outflows: %v", apperrors.ErrInternalServer, err)
	}
	allTime, err := s.contracts.FinanceSummary(ctx, time.Time{}, to)
	if err != nil {
		return nil, err
	}

	totalIn := manualIn.Add(period.TotalReceived)
	return &CashFlowSummary{
		TotalIn:           totalIn,
		TotalOut:          manualOut,
		Balance:           totalIn.Sub(manualOut),
		CumulativeBalance: allIn.Add(allTime.TotalReceived).Sub(allOut),
		ManualIn:          manualIn,
		ContractReceipts:  period.TotalReceived,
		ContractDetail: ContractBreakdown{
			Installments:    period.ReceivedViaInstallments,
			MonthlyInterest: period.ReceivedViaMonthly,
			Fees:            period.ReceivedViaFees,
		},
		TransactionCount: count,
	}, nil
}
