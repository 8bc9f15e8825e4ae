package policy

import (
	"fmt"

	"stakeVault/internal/model"
)

// SecondsPerDay converts lock days to seconds.
const SecondsPerDay = 24 * 60 * 60

// LockPeriods lists the allowed lock durations in days.
var LockPeriods = []uint16{30, 60, 90}

// DefaultRates returns the standard APY table: 10%, 15% and 20%.
func DefaultRates() model.Rates {
	return model.Rates{Days30: 1000, Days60: 1500, Days90: 2000}
}

// RateFor resolves the APY in basis points for a lock duration in days.
func RateFor(rates model.Rates, days uint16) (uint32, error) {
	switch days {
	case 30:
		return rates.Days30, nil
	case 60:
		return rates.Days60, nil
	case 90:
		return rates.Days90, nil
	default:
		return 0, fmt.Errorf("%d days: %w", days, model.ErrInvalidLockPeriod)
	}
}

// ValidateRates rejects a table with a zero rate.
func ValidateRates(rates model.Rates) error {
	for _, days := range LockPeriods {
		rate, err := RateFor(rates, days)
		if err != nil {
			return err
		}
		if rate == 0 {
			return fmt.Errorf("rate for %d days must be positive", days)
		}
	}
	return nil
}

// LockSeconds returns the lock duration in seconds.
func LockSeconds(days uint16) int64 {
	return int64(days) * SecondsPerDay
}

// UnlockAt returns the first timestamp at which a lock started at start expires.
func UnlockAt(start int64, days uint16) int64 {
	return start + LockSeconds(days)
}

// IsUnlocked reports whether now has reached start + days. The boundary is inclusive.
func IsUnlocked(start int64, days uint16, now int64) bool {
	return now >= UnlockAt(start, days)
}
