// Package utils holds small helpers shared by the CLI and examples: token
// amount parsing and key handling.
package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseTokenAmount converts a human decimal amount such as "1.5" into token
// base units for the given token decimals. Amounts with more fractional
// digits than the token supports are rejected rather than silently truncated.
func ParseTokenAmount(amount string, decimals int32) (*big.Int, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if dec.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}

	scaled := dec.Shift(decimals)
	if !scaled.Equal(scaled.Floor()) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatTokenAmount renders base units as a human decimal string.
func FormatTokenAmount(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseBigInt parses a base-10 big integer, rejecting empty and malformed
// input.
func ParseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("value cannot be empty")
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", value)
	}
	return n, nil
}
