// Package ledger holds the loan accounting math: cycle interest, late fees,
// installment schedules, payment allocation, balance reconstruction and the
// dashboard summary fold. Every function is pure and synchronous; amounts are
// decimal with cent precision and binary floats never enter the package.
// Persistence of the results is the caller's responsibility.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

var oneHundred = decimal.NewFromInt(100)

// RoundCents rounds an amount to two decimal places, half up.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount parses a decimal money string such as "1250.50". The wire
// format is decimal strings, never binary floats.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: cannot parse %q as money", apperrors.ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func requireNonNegative(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative, got %s", apperrors.ErrInvalidAmount, name, d)
	}
	return nil
}

func requirePositive(name string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", apperrors.ErrInvalidAmount, name, d)
	}
	return nil
}
