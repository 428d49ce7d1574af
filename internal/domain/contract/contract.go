package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/pkg/apperrors"
)

type Status string

const (
	StatusOpen               Status = "OPEN"
	StatusOverdue            Status = "OVERDUE"
	StatusSettled            Status = "SETTLED"
	StatusPersonalCollection Status = "PERSONAL_COLLECTION"
)

type PaymentKind string

const (
	PaymentKindInterest  PaymentKind = "INTEREST"
	PaymentKindPrincipal PaymentKind = "PRINCIPAL"
	PaymentKindMixed     PaymentKind = "MIXED"
)

// Contract is one loan extended to a client. OpenPrincipal decreases only
// through allocated principal payments; AccruedFee grows through the overdue
// accrual job and shrinks through allocated fee payments. InterestDue is the
// unpaid part of the current cycle's interest (always zero for installment
// contracts, whose principal is collected through the schedule instead).
type Contract struct {
	ID                  uuid.UUID
	ClientID            uuid.UUID
	Principal           decimal.Decimal
	OpenPrincipal       decimal.Decimal
	InterestRatePercent decimal.Decimal
	AccruedFee          decimal.Decimal
	InterestDue         decimal.Decimal
	Periodicity         ledger.Periodicity
	DueDate             time.Time
	Status              Status
	Note                string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Installments        []Installment
}

// Installment is one scheduled principal slice of a DAILY or WEEKLY contract.
type Installment struct {
	ID             uuid.UUID
	ContractID     uuid.UUID
	SequenceNumber int
	Amount         decimal.Decimal
	Fee            decimal.Decimal
	DueDate        time.Time
	Status         ledger.InstallmentStatus
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Payment is an immutable receipt. The allocation breakdown is fixed at
// payment time; history is append-only and never reordered.
type Payment struct {
	ID                 uuid.UUID
	ContractID         uuid.UUID
	Kind               PaymentKind
	AmountPaid         decimal.Decimal
	AllocatedFee       decimal.Decimal
	AllocatedInterest  decimal.Decimal
	AllocatedPrincipal decimal.Decimal
	Note               string
	CreatedAt          time.Time
}

// PaymentInPeriod is a payment joined with its contract's periodicity, as the
// period listing and the dashboard fold need it.
type PaymentInPeriod struct {
	Payment
	ContractPeriodicity ledger.Periodicity
	ClientName          string
}

// NewContract validates the terms, derives the first cycle's interest for
// monthly contracts and generates the installment schedule for daily and
// weekly ones. The schedule is generated exactly once, here.
func NewContract(clientID uuid.UUID, principal, interestRatePercent decimal.Decimal, periodicity ledger.Periodicity, startDate time.Time, note string) (*Contract, error) {
	if clientID == uuid.Nil {
		return nil, fmt.Errorf("%w: clientID is required", apperrors.ErrInvalidArgument)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", apperrors.ErrInvalidAmount, principal)
	}
	if interestRatePercent.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate must not be negative, got %s", apperrors.ErrInvalidAmount, interestRatePercent)
	}
	if !periodicity.Valid() {
		return nil, fmt.Errorf("%w: unknown periodicity %q", apperrors.ErrInvalidArgument, periodicity)
	}
	if startDate.IsZero() {
		startDate = time.Now().Truncate(24 * time.Hour)
	}

	c := &Contract{
		ID:                  uuid.New(),
		ClientID:            clientID,
		Principal:           principal,
		OpenPrincipal:       principal,
		InterestRatePercent: interestRatePercent,
		AccruedFee:          decimal.Zero,
		InterestDue:         decimal.Zero,
		Periodicity:         periodicity,
		Status:              StatusOpen,
		Note:                strings.TrimSpace(note),
	}

	switch periodicity {
	case ledger.PeriodicityMonthly:
		interest, err := ledger.CycleInterestDue(principal, interestRatePercent)
		if err != nil {
			return nil, err
		}
		c.InterestDue = interest
		c.DueDate = startDate.AddDate(0, 1, 0)
	default:
		schedule, err := ledger.GenerateSchedule(principal, periodicity, startDate)
		if err != nil {
			return nil, err
		}
		c.Installments = make([]Installment, 0, len(schedule))
		for _, entry := range schedule {
			c.Installments = append(c.Installments, Installment{
				ID:             uuid.New(),
				ContractID:     c.ID,
				SequenceNumber: entry.SequenceNumber,
				Amount:         entry.Amount,
				Fee:            entry.Fee,
				DueDate:        entry.DueDate,
				Status:         entry.Status,
			})
		}
		// Next due date is the first installment's.
		c.DueDate = c.Installments[0].DueDate
	}

	return c, nil
}

// State is the contract's position as the allocator expects it.
func (c *Contract) State() ledger.State {
	return ledger.State{
		OpenPrincipal: c.OpenPrincipal,
		AccruedFee:    c.AccruedFee,
		InterestDue:   c.InterestDue,
	}
}

func (c *Contract) IsInstallmentBased() bool {
	return c.Periodicity == ledger.PeriodicityDaily || c.Periodicity == ledger.PeriodicityWeekly
}

// PendingInstallments returns the entries still awaiting payment, in
// sequence order.
func (c *Contract) PendingInstallments() []Installment {
	pending := make([]Installment, 0, len(c.Installments))
	for _, inst := range c.Installments {
		if inst.Status == ledger.InstallmentPending {
			pending = append(pending, inst)
		}
	}
	return pending
}

// Apply writes an allocation back onto the contract's balances and flips the
// status to SETTLED when the position reaches zero. SETTLED is terminal.
func (c *Contract) Apply(alloc ledger.Allocation, now time.Time) {
	c.OpenPrincipal = alloc.NewState.OpenPrincipal
	c.AccruedFee = alloc.NewState.AccruedFee
	c.InterestDue = alloc.NewState.InterestDue
	c.UpdatedAt = now
	if alloc.Settled() {
		c.Status = StatusSettled
	}
}

// RenewCycle advances a monthly contract into its next cycle after an
// interest payment cleared the current one: the due date moves one month out
// and the full cycle interest becomes due again. Principal is untouched; a
// renewal is not an amortization.
func (c *Contract) RenewCycle() error {
	if c.Periodicity != ledger.PeriodicityMonthly {
		return fmt.Errorf("%w: only monthly contracts renew cycles", apperrors.ErrInvalidState)
	}
	if c.Status == StatusSettled {
		return apperrors.ErrContractSettled
	}
	if !c.InterestDue.IsZero() {
		return fmt.Errorf("%w: cannot renew with %s interest still due", apperrors.ErrInvalidState, c.InterestDue)
	}

	interest, err := ledger.CycleInterestDue(c.Principal, c.InterestRatePercent)
	if err != nil {
		return err
	}
	c.InterestDue = interest
	c.DueDate = c.DueDate.AddDate(0, 1, 0)
	if c.Status == StatusOverdue {
		c.Status = StatusOpen
	}
	return nil
}

// Snapshot projects the contract into the summary fold's input shape.
func (c *Contract) Snapshot() ledger.ContractSnapshot {
	snap := ledger.ContractSnapshot{
		Principal:           c.Principal,
		OpenPrincipal:       c.OpenPrincipal,
		InterestRatePercent: c.InterestRatePercent,
		AccruedFee:          c.AccruedFee,
		Periodicity:         c.Periodicity,
		Settled:             c.Status == StatusSettled,
		DueDate:             c.DueDate,
	}
	for _, inst := range c.PendingInstallments() {
		snap.PendingSchedule = append(snap.PendingSchedule, ledger.ScheduleEntry{
			SequenceNumber: inst.SequenceNumber,
			Amount:         inst.Amount,
			Fee:            inst.Fee,
			DueDate:        inst.DueDate,
			Status:         inst.Status,
		})
	}
	return snap
}
