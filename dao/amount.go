// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Amount is a 256-bit unsigned token quantity in the token's smallest unit.
// It aliases uint256.Int so all its arithmetic methods apply directly.
type Amount = uint256.Int

// NewAmount creates an amount from a uint64.
func NewAmount(v uint64) *Amount {
	return uint256.NewInt(v)
}

// ZeroAmount creates a zero amount.
func ZeroAmount() *Amount {
	return new(Amount)
}

// ParseAmount parses a decimal or 0x prefixed hex string into an amount.
func ParseAmount(s string) (*Amount, error) {
	if len(s) > 1 && (s[:2] == "0x" || s[:2] == "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}

// MustParseAmount parses like ParseAmount, panic on error.
func MustParseAmount(s string) *Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAmount interprets b as a big-endian unsigned integer.
func BytesToAmount(b []byte) *Amount {
	return new(Amount).SetBytes(b)
}

// CloneAmount returns an independent copy of a. A nil amount clones to zero.
func CloneAmount(a *Amount) *Amount {
	if a == nil {
		return new(Amount)
	}
	return a.Clone()
}

// AmountToFloat converts an amount to float64, losing precision beyond the
// float64 mantissa. Used for rate math and metrics, never for balances.
func AmountToFloat(a *Amount) float64 {
	if a == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(a.ToBig()).Float64()
	return f
}
