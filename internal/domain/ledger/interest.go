package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

// CycleInterestDue computes the interest owed for one cycle:
// principal × (interestRatePercent / 100), rounded to cents half up.
// The rate always applies to the original principal, not the declining
// balance; a monthly renewal payment covers exactly this amount and leaves
// the principal untouched.
func CycleInterestDue(principal, interestRatePercent decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("principal", principal); err != nil {
		return decimal.Zero, err
	}
	if err := requireNonNegative("interestRatePercent", interestRatePercent); err != nil {
		return decimal.Zero, err
	}
	return RoundCents(principal.Mul(interestRatePercent).Div(oneHundred)), nil
}

// LateFee computes the incremental penalty accrued against a late installment
// or cycle: base × (penaltyRatePercent / 100) × daysLate, rounded to cents.
// Zero days late means no penalty.
func LateFee(base, penaltyRatePercent decimal.Decimal, daysLate int) (decimal.Decimal, error) {
	if err := requireNonNegative("base", base); err != nil {
		return decimal.Zero, err
	}
	if err := requireNonNegative("penaltyRatePercent", penaltyRatePercent); err != nil {
		return decimal.Zero, err
	}
	if daysLate < 0 {
		return decimal.Zero, fmt.Errorf("%w: daysLate must not be negative, got %d", apperrors.ErrInvalidAmount, daysLate)
	}
	if daysLate == 0 {
		return decimal.Zero, nil
	}
	days := decimal.NewFromInt(int64(daysLate))
	return RoundCents(base.Mul(penaltyRatePercent).Div(oneHundred).Mul(days)), nil
}
