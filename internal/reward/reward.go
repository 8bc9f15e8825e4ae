// Package reward implements the fixed-point yield arithmetic used by the
// stake ledger. All quantities are integers in the token's smallest unit and
// rates are basis points; intermediate products are carried in 256 bits and
// the single division happens last, truncating toward zero.
package reward

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	"stakeVault/internal/model"
)

const (
	// BasisPoints is the rate denominator (10_000 bps = 100%).
	BasisPoints = 10_000
	// SecondsPerYear is the accrual year, 365 days.
	SecondsPerYear = 365 * 24 * 60 * 60
)

var yearDenominator = uint256.NewInt(BasisPoints * SecondsPerYear)

// Accrued returns principal * rateBps * elapsed / (BasisPoints * SecondsPerYear).
// Non-positive elapsed time accrues nothing.
func Accrued(principal uint64, rateBps uint32, elapsed int64) (uint64, error) {
	if elapsed <= 0 || principal == 0 || rateBps == 0 {
		return 0, nil
	}

	acc, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(principal), uint256.NewInt(uint64(rateBps)))
	if overflow {
		return 0, fmt.Errorf("principal * rate: %w", model.ErrArithmeticOverflow)
	}
	if _, overflow = acc.MulOverflow(acc, uint256.NewInt(uint64(elapsed))); overflow {
		return 0, fmt.Errorf("principal * rate * elapsed: %w", model.ErrArithmeticOverflow)
	}
	acc.Div(acc, yearDenominator)
	if !acc.IsUint64() {
		return 0, fmt.Errorf("reward exceeds uint64: %w", model.ErrArithmeticOverflow)
	}
	return acc.Uint64(), nil
}

// Projected returns the reward a position earns over its full lock period.
func Projected(principal uint64, rateBps uint32, lockSeconds int64) (uint64, error) {
	return Accrued(principal, rateBps, lockSeconds)
}

// Add returns a + b or ErrArithmeticOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, fmt.Errorf("%d + %d: %w", a, b, model.ErrArithmeticOverflow)
	}
	return sum, nil
}

// Sub returns a - b or ErrArithmeticOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	diff, overflow := math.SafeSub(a, b)
	if overflow {
		return 0, fmt.Errorf("%d - %d: %w", a, b, model.ErrArithmeticOverflow)
	}
	return diff, nil
}
