package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

// BalanceStep is the principal balance immediately before and after one
// historical payment. Index refers to the position in the ascending input.
type BalanceStep struct {
	Index         int
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// ReconstructBalances derives the running principal balance around each
// historical payment for timeline display. principalPaidAsc is the allocated
// principal of every payment in createdAt ascending order. The walk starts
// from the balance as it was before the oldest payment (current open
// principal plus everything ever allocated to principal) and replays the
// payments forward; it must land exactly on the current open principal, or
// the history and the stored balance disagree. Callers may re-sort the output
// newest-first for display, but never recompute it in display order.
func ReconstructBalances(currentOpenPrincipal decimal.Decimal, principalPaidAsc []decimal.Decimal) ([]BalanceStep, error) {
	if currentOpenPrincipal.IsNegative() {
		return nil, fmt.Errorf("%w: open principal must not be negative, got %s",
			apperrors.ErrInvalidState, currentOpenPrincipal)
	}
	if len(principalPaidAsc) == 0 {
		return []BalanceStep{}, nil
	}

	running := currentOpenPrincipal
	for _, paid := range principalPaidAsc {
		if paid.IsNegative() {
			return nil, fmt.Errorf("%w: allocated principal must not be negative, got %s",
				apperrors.ErrInvalidState, paid)
		}
		running = running.Add(paid)
	}

	steps := make([]BalanceStep, 0, len(principalPaidAsc))
	for i, paid := range principalPaidAsc {
		before := running
		running = running.Sub(paid)
		steps = append(steps, BalanceStep{Index: i, BalanceBefore: before, BalanceAfter: running})
	}

	if !running.Equal(currentOpenPrincipal) {
		return nil, fmt.Errorf("%w: reconstruction ended at %s, expected open principal %s",
			apperrors.ErrRoundingInvariant, running, currentOpenPrincipal)
	}

	return steps, nil
}
