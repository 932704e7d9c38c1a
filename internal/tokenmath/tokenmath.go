// Package tokenmath implements the tokenization arithmetic for fractional
// property ownership: token supply from floor area, price from valuation,
// proportional ownership and rental-income shares. Every function is pure.
//
// Amounts are major-unit decimals. Results are kept at full precision;
// rounding to two decimal places happens only in Breakdown, which is the
// recording boundary.
package tokenmath

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// TokensPerSquareMeter fixes the supply rule N = size x 10,000.
	TokensPerSquareMeter = 10_000
	// MinimumPurchaseTokens is the policy floor for a single purchase.
	MinimumPurchaseTokens = 100
	// MinimumPropertyValue is the smallest valuation eligible for tokenization.
	MinimumPropertyValue = 100_000
	// MinimumPropertySizeSqm is the smallest floor area eligible for tokenization.
	MinimumPropertySizeSqm = 10
)

var (
	ErrZeroTotalTokens       = errors.New("total tokens cannot be zero")
	ErrNoTokensInCirculation = errors.New("no tokens in circulation")
	ErrZeroPropertyValue     = errors.New("property value cannot be zero")
	ErrValueTooLow           = errors.New("property value must be at least 100,000")
	ErrSizeTooSmall          = errors.New("property size must be at least 10 square meters")
)

// TokenPrice computes P = V / N.
func TokenPrice(value decimal.Decimal, totalTokens int64) (decimal.Decimal, error) {
	if totalTokens == 0 {
		return decimal.Zero, ErrZeroTotalTokens
	}
	return value.Div(decimal.NewFromInt(totalTokens)), nil
}

// TotalTokens computes N = S x 10,000.
func TotalTokens(sizeSqm int64) int64 {
	return sizeSqm * TokensPerSquareMeter
}

// OwnershipFraction computes F = k / N, in [0,1] for 0 <= k <= N.
func OwnershipFraction(tokensPurchased, totalTokens int64) (decimal.Decimal, error) {
	if totalTokens == 0 {
		return decimal.Zero, ErrZeroTotalTokens
	}
	return decimal.NewFromInt(tokensPurchased).Div(decimal.NewFromInt(totalTokens)), nil
}

// RentalIncomeShare computes I = (k / N) x R.
func RentalIncomeShare(tokensPurchased, totalTokens int64, totalRentalIncome decimal.Decimal) (decimal.Decimal, error) {
	fraction, err := OwnershipFraction(tokensPurchased, totalTokens)
	if err != nil {
		return decimal.Zero, err
	}
	return fraction.Mul(totalRentalIncome), nil
}

// MinimumInvestment is the cost of the minimum purchase of 100 tokens.
func MinimumInvestment(tokenPrice decimal.Decimal) decimal.Decimal {
	return tokenPrice.Mul(decimal.NewFromInt(MinimumPurchaseTokens))
}

// YieldPercentage computes (annual rental income / property value) x 100.
func YieldPercentage(annualRentalIncome, propertyValue decimal.Decimal) (decimal.Decimal, error) {
	if propertyValue.IsZero() {
		return decimal.Zero, ErrZeroPropertyValue
	}
	return annualRentalIncome.Div(propertyValue).Mul(decimal.NewFromInt(100)), nil
}

// IncomePerToken divides a payout evenly across the tokens actually held.
func IncomePerToken(totalIncome decimal.Decimal, totalTokensInCirculation int64) (decimal.Decimal, error) {
	if totalTokensInCirculation == 0 {
		return decimal.Zero, ErrNoTokensInCirculation
	}
	return totalIncome.Div(decimal.NewFromInt(totalTokensInCirculation)), nil
}

// ValidateTokenizationParameters checks the policy minimums. Boundaries are
// inclusive: a 100,000 valuation of a 10 sqm property passes.
func ValidateTokenizationParameters(value decimal.Decimal, sizeSqm int64) error {
	if value.LessThan(decimal.NewFromInt(MinimumPropertyValue)) {
		return ErrValueTooLow
	}
	if sizeSqm < MinimumPropertySizeSqm {
		return ErrSizeTooSmall
	}
	return nil
}

// Breakdown is the complete tokenization quote for a property.
type Breakdown struct {
	TotalTokens       int64           `json:"total_tokens"`
	TokenPrice        decimal.Decimal `json:"token_price"`
	MinimumInvestment decimal.Decimal `json:"minimum_investment"`
	MinimumTokens     int64           `json:"minimum_tokens"`
}

// ComputeBreakdown validates the inputs and composes supply, price, and
// minimum investment. TokenPrice and MinimumInvestment carry two decimal
// places; this is where the frozen listing price gets fixed.
func ComputeBreakdown(value decimal.Decimal, sizeSqm int64) (Breakdown, error) {
	if err := ValidateTokenizationParameters(value, sizeSqm); err != nil {
		return Breakdown{}, err
	}
	totalTokens := TotalTokens(sizeSqm)
	price, err := TokenPrice(value, totalTokens)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		TotalTokens:       totalTokens,
		TokenPrice:        price.Round(2),
		MinimumInvestment: MinimumInvestment(price).Round(2),
		MinimumTokens:     MinimumPurchaseTokens,
	}, nil
}
