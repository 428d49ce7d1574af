package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

type Periodicity string

const (
	PeriodicityDaily   Periodicity = "DAILY"
	PeriodicityWeekly  Periodicity = "WEEKLY"
	PeriodicityMonthly Periodicity = "MONTHLY"
)

func (p Periodicity) Valid() bool {
	switch p {
	case PeriodicityDaily, PeriodicityWeekly, PeriodicityMonthly:
		return true
	}
	return false
}

// Installment covers schedule terms: daily contracts amortize over 20 daily
// slices, weekly contracts over 4 weekly slices. Monthly contracts carry no
// schedule; they renew cycle by cycle.
const (
	DailyInstallmentCount  = 20
	WeeklyInstallmentCount = 4
)

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// ScheduleEntry is one scheduled slice of principal produced at contract
// creation. Fee starts at zero and accrues only if the entry goes past due.
type ScheduleEntry struct {
	SequenceNumber int
	Amount         decimal.Decimal
	Fee            decimal.Decimal
	DueDate        time.Time
	Status         InstallmentStatus
}

// GenerateSchedule splits principal evenly across the installment count for
// the given periodicity, assigning the rounding remainder to the last entry
// so the schedule sums back to the principal exactly. Due dates advance one
// cycle per entry starting one cycle after startDate. Monthly contracts get
// an empty schedule. This runs once, at contract creation.
func GenerateSchedule(principal decimal.Decimal, periodicity Periodicity, startDate time.Time) ([]ScheduleEntry, error) {
	if err := requirePositive("principal", principal); err != nil {
		return nil, err
	}

	var count, stepDays int
	switch periodicity {
	case PeriodicityDaily:
		count, stepDays = DailyInstallmentCount, 1
	case PeriodicityWeekly:
		count, stepDays = WeeklyInstallmentCount, 7
	case PeriodicityMonthly:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown periodicity %q", apperrors.ErrInvalidArgument, periodicity)
	}

	// The per-slice amount is floored to cents, not rounded, so the last
	// entry's remainder is never negative even for sub-divisible principals.
	slice := principal.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
	schedule := make([]ScheduleEntry, 0, count)
	accumulated := decimal.Zero

	for seq := 1; seq <= count; seq++ {
		amount := slice
		if seq == count {
			amount = principal.Sub(accumulated)
		}
		schedule = append(schedule, ScheduleEntry{
			SequenceNumber: seq,
			Amount:         amount,
			Fee:            decimal.Zero,
			DueDate:        startDate.AddDate(0, 0, seq*stepDays),
			Status:         InstallmentPending,
		})
		accumulated = accumulated.Add(amount)
	}

	if !accumulated.Equal(principal) {
		return nil, fmt.Errorf("%w: schedule sums to %s, expected %s",
			apperrors.ErrRoundingInvariant, accumulated, principal)
	}

	return schedule, nil
}
