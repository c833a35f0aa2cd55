package domain

import "github.com/shopspring/decimal"

// MinorUnits converts a decimal amount to integer minor units (cents)
// as required by the acquirer wire format.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units back to a decimal amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
