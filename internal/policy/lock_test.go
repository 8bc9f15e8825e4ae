package policy

import (
	"errors"
	"testing"

	"stakeVault/internal/model"
)

func TestRateFor(t *testing.T) {
	rates := DefaultRates()
	want := map[uint16]uint32{30: 1000, 60: 1500, 90: 2000}
	for days, bps := range want {
		got, err := RateFor(rates, days)
		if err != nil {
			t.Fatalf("days %d: unexpected error: %v", days, err)
		}
		if got != bps {
			t.Fatalf("days %d: rate %d != %d", days, got, bps)
		}
	}
}

func TestRateForInvalid(t *testing.T) {
	for _, days := range []uint16{0, 1, 29, 31, 45, 89, 91, 120, 365} {
		if _, err := RateFor(DefaultRates(), days); !errors.Is(err, model.ErrInvalidLockPeriod) {
			t.Fatalf("days %d: expected InvalidLockPeriod, got %v", days, err)
		}
	}
}

func TestIsUnlockedBoundary(t *testing.T) {
	start := int64(1_700_000_000)
	end := start + 30*SecondsPerDay

	if IsUnlocked(start, 30, end-1) {
		t.Fatalf("unlocked one second early")
	}
	if !IsUnlocked(start, 30, end) {
		t.Fatalf("boundary should be unlocked")
	}
	if !IsUnlocked(start, 30, end+1) {
		t.Fatalf("should stay unlocked after boundary")
	}
	if UnlockAt(start, 90) != start+90*SecondsPerDay {
		t.Fatalf("unlock time mismatch")
	}
}

func TestValidateRates(t *testing.T) {
	if err := ValidateRates(DefaultRates()); err != nil {
		t.Fatalf("default rates rejected: %v", err)
	}
	if err := ValidateRates(model.Rates{Days30: 1000, Days60: 0, Days90: 2000}); err == nil {
		t.Fatalf("expected error for zero rate")
	}
}
