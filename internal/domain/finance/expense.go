// Package finance holds the manual cash-flow ledger: fixed bills, purchase
// installments and one-off entries, kept apart from the loan contracts but
// folded together with them in the cash-flow summary.
package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

type ExpenseKind string

const (
	KindFixed       ExpenseKind = "FIXED"
	KindInstallment ExpenseKind = "INSTALLMENT"
	KindVariable    ExpenseKind = "VARIABLE"
)

func (k ExpenseKind) Valid() bool {
	switch k {
	case KindFixed, KindInstallment, KindVariable:
		return true
	}
	return false
}

type Flow string

const (
	FlowIn  Flow = "IN"
	FlowOut Flow = "OUT"
)

func (f Flow) Valid() bool {
	return f == FlowIn || f == FlowOut
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Expense is one manual cash-flow entry. INSTALLMENT entries belong to a
// series sharing SeriesID, one row per monthly slice.
type Expense struct {
	ID                 uuid.UUID
	SeriesID           *uuid.UUID
	Description        string
	Kind               ExpenseKind
	Flow               Flow
	Status             TransactionStatus
	Category           string
	Amount             decimal.Decimal
	StartDate          time.Time
	TotalInstallments  *int
	CurrentInstallment *int
	DayOfMonth         *int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewExpense validates and builds a single entry. Installment series are
// expanded by the service, not here.
func NewExpense(description string, kind ExpenseKind, flow Flow, category string, amount decimal.Decimal, startDate time.Time) (*Expense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrInvalidArgument)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown expense kind %q", apperrors.ErrInvalidArgument, kind)
	}
	if !flow.Valid() {
		return nil, fmt.Errorf("%w: unknown flow %q", apperrors.ErrInvalidArgument, flow)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidAmount, amount)
	}
	if startDate.IsZero() {
		startDate = time.Now().Truncate(24 * time.Hour)
	}

	return &Expense{
		ID:          uuid.New(),
		Description: description,
		Kind:        kind,
		Flow:        flow,
		Status:      StatusPending,
		Category:    strings.TrimSpace(category),
		Amount:      amount,
		StartDate:   startDate,
	}, nil
}

// TransitionTo moves the entry between transaction statuses. CANCELLED is
// terminal.
func (e *Expense) TransitionTo(next TransactionStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidArgument, next)
	}
	if e.Status == StatusCancelled {
		return fmt.Errorf("%w: cancelled entries cannot change status", apperrors.ErrInvalidState)
	}
	if e.Status == next {
		return nil
	}
	e.Status = next
	return nil
}

// Completed reports whether the entry counts toward realized cash flow.
func (e *Expense) Completed() bool {
	return e.Status == StatusCompleted
}
