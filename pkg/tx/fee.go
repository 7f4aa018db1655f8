package tx

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AtomicDecimals is the number of decimal places of one coin.
const AtomicDecimals = 12

// Fee thresholds used by Warnings, in parts per thousand of the amount sent.
const (
	HighFeePermille     = 10
	CriticalFeePermille = 100
)

// MinRingSize is the smallest ring size accepted without a warning.
const MinRingSize = 16

var coin = decimal.New(1, AtomicDecimals)

// FormatAmount renders atomic units as a decimal coin amount with all
// twelve places.
func FormatAmount(atomic uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(atomic), -AtomicDecimals).StringFixed(AtomicDecimals)
}

// ParseAmount parses a decimal coin amount into atomic units.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	atomic := d.Mul(coin)
	if !atomic.Equal(atomic.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, AtomicDecimals)
	}
	n := atomic.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %q: %w", s, ErrAmountOverflow)
	}
	return n.Uint64(), nil
}

// FeePermille returns fee relative to sent in parts per thousand. Any fee
// on a zero amount sent is rated critical.
func FeePermille(fee, sent uint64) uint64 {
	if sent == 0 {
		if fee == 0 {
			return 0
		}
		return CriticalFeePermille
	}
	f := new(big.Int).SetUint64(fee)
	f.Mul(f, big.NewInt(1000))
	f.Quo(f, new(big.Int).SetUint64(sent))
	if !f.IsUint64() {
		return CriticalFeePermille
	}
	return f.Uint64()
}
