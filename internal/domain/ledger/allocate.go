package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

// State is the outstanding position of a contract at allocation time.
type State struct {
	OpenPrincipal decimal.Decimal
	AccruedFee    decimal.Decimal
	InterestDue   decimal.Decimal
}

func (s State) Validate() error {
	if s.OpenPrincipal.IsNegative() || s.AccruedFee.IsNegative() || s.InterestDue.IsNegative() {
		return fmt.Errorf("%w: negative balance in state {principal: %s, fee: %s, interest: %s}",
			apperrors.ErrInvalidState, s.OpenPrincipal, s.AccruedFee, s.InterestDue)
	}
	return nil
}

func (s State) IsZero() bool {
	return s.OpenPrincipal.IsZero() && s.AccruedFee.IsZero() && s.InterestDue.IsZero()
}

// Allocation is the breakdown of one payment across the outstanding balances.
type Allocation struct {
	FeePaid       decimal.Decimal
	InterestPaid  decimal.Decimal
	PrincipalPaid decimal.Decimal
	NewState      State
}

// Settled reports whether the allocation fully cleared the contract.
func (a Allocation) Settled() bool {
	return a.NewState.IsZero()
}

// Allocate splits amountPaid across the outstanding balances in fixed
// precedence: accrued fee first, then the current cycle's interest, then open
// principal. Fees and interest must clear before principal reduces; this is a
// business rule, not an optimization. Each step is capped by what remains of
// the payment and of the respective balance. The computation is pure; the
// caller persists NewState atomically.
func Allocate(amountPaid decimal.Decimal, state State) (Allocation, error) {
	if !amountPaid.IsPositive() {
		return Allocation{}, fmt.Errorf("%w: payment amount must be positive, got %s",
			apperrors.ErrInvalidAmount, amountPaid)
	}
	if err := state.Validate(); err != nil {
		return Allocation{}, err
	}

	remaining := amountPaid

	feePaid := decimal.Min(remaining, state.AccruedFee)
	remaining = remaining.Sub(feePaid)

	interestPaid := decimal.Min(remaining, state.InterestDue)
	remaining = remaining.Sub(interestPaid)

	principalPaid := decimal.Min(remaining, state.OpenPrincipal)

	return Allocation{
		FeePaid:       feePaid,
		InterestPaid:  interestPaid,
		PrincipalPaid: principalPaid,
		NewState: State{
			OpenPrincipal: state.OpenPrincipal.Sub(principalPaid),
			AccruedFee:    state.AccruedFee.Sub(feePaid),
			InterestDue:   state.InterestDue.Sub(interestPaid),
		},
	}, nil
}

// PayoffAmount is the single payment that zeroes the whole position: the
// literal sum of the three balances. Allocating exactly this amount must
// leave the state at zero with no residual cent; computing it as the sum
// (rather than re-deriving any term) is what makes payoff idempotent.
func PayoffAmount(state State) decimal.Decimal {
	return state.OpenPrincipal.Add(state.AccruedFee).Add(state.InterestDue)
}

// Payoff allocates the exact payoff amount and asserts the result is a clean
// zero. A residue here is an accounting bug, not a user error.
func Payoff(state State) (Allocation, error) {
	alloc, err := Allocate(PayoffAmount(state), state)
	if err != nil {
		return Allocation{}, err
	}
	if !alloc.Settled() {
		return Allocation{}, fmt.Errorf("%w: payoff left residue {principal: %s, fee: %s, interest: %s}",
			apperrors.ErrRoundingInvariant,
			alloc.NewState.OpenPrincipal, alloc.NewState.AccruedFee, alloc.NewState.InterestDue)
	}
	return alloc, nil
}
