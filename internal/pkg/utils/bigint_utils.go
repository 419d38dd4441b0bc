package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseHexAmount converts a provider hex quantity string into a big.Int.
// "0x", "0x0" and "" all decode to zero; the zero-balance check downstream
// must run on this integer, never on a float-scaled amount.
func ParseHexAmount(hexAmount string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexAmount), "0x")
	if trimmed == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("malformed hex amount %q", hexAmount)
	}
	return amount, nil
}

// FormatBigInt converts a raw integer amount to a human-readable decimal
// string for the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" || formatted == "-" {
		return "0"
	}
	return formatted
}

// HumanValue scales a raw integer amount by 10^decimals into a float64.
// Display quantity only; fine for thresholds, wrong for accounting.
func HumanValue(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(amountFloat, divisor).Float64()
	return value
}

// CalculateValueUSD computes the USD value of a raw amount at the given
// price, doing the 10^decimals scaling in big.Float before the final
// float64 conversion.
func CalculateValueUSD(amount *big.Int, decimals uint8, priceUsd float64) float64 {
	if amount == nil || priceUsd <= 0 {
		return 0
	}
	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	human := new(big.Float).Quo(amountFloat, divisor)
	value, _ := new(big.Float).Mul(human, big.NewFloat(priceUsd)).Float64()
	return value
}
