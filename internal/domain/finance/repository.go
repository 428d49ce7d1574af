package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeleteMode controls how far a delete reaches into an installment series.
type DeleteMode string

const (
	DeleteSingle DeleteMode = "single"
	DeleteFuture DeleteMode = "future"
	DeleteAll    DeleteMode = "all"
)

func (m DeleteMode) Valid() bool {
	switch m {
	case DeleteSingle, DeleteFuture, DeleteAll:
		return true
	}
	return false
}

// ListFilter narrows an expense listing. Nil fields are ignored.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Kind   *ExpenseKind
	Flow   *Flow
	Status *TransactionStatus
	Search string
}

type ExpenseRepository interface {
	Save(ctx context.Context, e *Expense) error

	SaveBatch(ctx context.Context, entries []*Expense) error

	FindByID(ctx context.Context, expenseID uuid.UUID) (*Expense, error)

	List(ctx context.Context, filter ListFilter) ([]*Expense, error)

	Update(ctx context.Context, e *Expense) error

	Delete(ctx context.Context, e *Expense, mode DeleteMode) error

	// SumCompletedByFlow totals COMPLETED entries of one flow. Nil bounds
	// mean all time.
	SumCompletedByFlow(ctx context.Context, flow Flow, from, to *time.Time) (decimal.Decimal, error)

	CountInPeriod(ctx context.Context, from, to time.Time) (int, error)
}
