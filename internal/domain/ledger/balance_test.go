package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"lending-engine/internal/pkg/apperrors"
)

func TestReconstructBalances(t *testing.T) {
	t.Run("walks the history oldest to newest", func(t *testing.T) {
		// Contract started at 1000; three principal payments brought it to 400.
		steps, err := ReconstructBalances(dec("400"), []decimal.Decimal{dec("100"), dec("250"), dec("250")})
		assert.NoError(t, err)
		assert.Len(t, steps, 3)

		assert.True(t, steps[0].BalanceBefore.Equal(dec("1000")))
		assert.True(t, steps[0].BalanceAfter.Equal(dec("900")))
		assert.True(t, steps[1].BalanceAfter.Equal(dec("650")))
		assert.True(t, steps[2].BalanceAfter.Equal(dec("400")))
	})

	t.Run("final balance equals the current open principal", func(t *testing.T) {
		payments := []decimal.Decimal{dec("33.33"), dec("33.33"), dec("33.34"), decimal.Zero}
		steps, err := ReconstructBalances(dec("900"), payments)
		assert.NoError(t, err)
		assert.True(t, steps[len(steps)-1].BalanceAfter.Equal(dec("900")))
	})

	t.Run("interest-only payments leave the balance flat", func(t *testing.T) {
		steps, err := ReconstructBalances(dec("1000"), []decimal.Decimal{decimal.Zero, decimal.Zero})
		assert.NoError(t, err)
		assert.True(t, steps[0].BalanceBefore.Equal(dec("1000")))
		assert.True(t, steps[1].BalanceAfter.Equal(dec("1000")))
	})

	t.Run("empty history yields empty output", func(t *testing.T) {
		steps, err := ReconstructBalances(dec("1000"), nil)
		assert.NoError(t, err)
		assert.Empty(t, steps)
	})

	t.Run("negative inputs are rejected", func(t *testing.T) {
		_, err := ReconstructBalances(dec("-1"), nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)

		_, err = ReconstructBalances(dec("100"), []decimal.Decimal{dec("-5")})
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})
}
