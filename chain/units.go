package chain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Units returns whole scaled into base units for a token with the given
// decimal precision, e.g. Units(500, 6) == 500_000_000.
func Units(whole int64, decimals int32) *big.Int {
	d := decimal.NewFromInt(whole).Shift(decimals)
	return d.BigInt()
}

// FormatUnits renders a base-unit amount as a human-readable decimal
// string, e.g. FormatUnits(500000000, 6) == "500".
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseUnits converts a human-readable decimal string into base units.
// It rejects values with more fractional digits than the token carries.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	return scaled.BigInt(), nil
}
