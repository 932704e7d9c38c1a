package tokenmath

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBreakdown(t *testing.T) {
	breakdown, err := ComputeBreakdown(decimal.NewFromInt(2_600_000), 130)
	require.NoError(t, err)
	assert.Equal(t, int64(1_300_000), breakdown.TotalTokens)
	assert.Equal(t, "2.00", breakdown.TokenPrice.StringFixed(2))
	assert.Equal(t, "200.00", breakdown.MinimumInvestment.StringFixed(2))
	assert.Equal(t, int64(100), breakdown.MinimumTokens)
}

func TestComputeBreakdownRoundsPrice(t *testing.T) {
	// 1,000,000 / 300,000 = 3.333... rounds at the quote boundary
	breakdown, err := ComputeBreakdown(decimal.NewFromInt(1_000_000), 30)
	require.NoError(t, err)
	assert.Equal(t, "3.33", breakdown.TokenPrice.StringFixed(2))
	assert.Equal(t, "333.33", breakdown.MinimumInvestment.StringFixed(2))
}

func TestValidateTokenizationParameters(t *testing.T) {
	cases := []struct {
		name    string
		value   int64
		sizeSqm int64
		wantErr error
	}{
		{"value below minimum", 99_999, 50, ErrValueTooLow},
		{"size below minimum", 150_000, 9, ErrSizeTooSmall},
		{"both at the boundary", 100_000, 10, nil},
		{"comfortably valid", 2_600_000, 130, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTokenizationParameters(decimal.NewFromInt(tc.value), tc.sizeSqm)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestTokenPriceZeroSupply(t *testing.T) {
	_, err := TokenPrice(decimal.NewFromInt(1_000_000), 0)
	assert.ErrorIs(t, err, ErrZeroTotalTokens)
}

func TestTotalTokens(t *testing.T) {
	assert.Equal(t, int64(1_300_000), TotalTokens(130))
	assert.Equal(t, int64(100_000), TotalTokens(10))
}

func TestOwnershipFraction(t *testing.T) {
	fraction, err := OwnershipFraction(130_000, 1_300_000)
	require.NoError(t, err)
	assert.True(t, fraction.Equal(decimal.RequireFromString("0.1")), "got %s", fraction)

	zero, err := OwnershipFraction(0, 1_300_000)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	full, err := OwnershipFraction(1_300_000, 1_300_000)
	require.NoError(t, err)
	assert.True(t, full.Equal(decimal.NewFromInt(1)))
}

func TestRentalIncomeShare(t *testing.T) {
	income := decimal.NewFromInt(10_000)
	share, err := RentalIncomeShare(600, 1_000, income)
	require.NoError(t, err)
	assert.True(t, share.Equal(decimal.NewFromInt(6_000)), "got %s", share)
}

func TestRentalIncomeSharesSumToTotal(t *testing.T) {
	// full-precision shares across uneven holdings reassemble the payout
	income := decimal.RequireFromString("10000.01")
	holdings := []int64{333, 333, 334}
	total := decimal.Zero
	for _, tokens := range holdings {
		share, err := RentalIncomeShare(tokens, 1_000, income)
		require.NoError(t, err)
		total = total.Add(share)
	}
	assert.True(t, total.Equal(income), "shares sum to %s, want %s", total, income)
}

func TestYieldPercentage(t *testing.T) {
	yield, err := YieldPercentage(decimal.NewFromInt(120_000), decimal.NewFromInt(2_600_000))
	require.NoError(t, err)
	assert.Equal(t, "4.62", yield.StringFixed(2))

	_, err = YieldPercentage(decimal.NewFromInt(120_000), decimal.Zero)
	assert.ErrorIs(t, err, ErrZeroPropertyValue)
}

func TestIncomePerToken(t *testing.T) {
	perToken, err := IncomePerToken(decimal.NewFromInt(10_000), 1_000)
	require.NoError(t, err)
	assert.True(t, perToken.Equal(decimal.NewFromInt(10)))

	_, err = IncomePerToken(decimal.NewFromInt(10_000), 0)
	assert.ErrorIs(t, err, ErrNoTokensInCirculation)
}
