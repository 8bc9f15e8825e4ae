package reward

import (
	"errors"
	"math"
	"testing"

	"stakeVault/internal/model"
)

const day = 24 * 60 * 60

func TestAccruedFullYear(t *testing.T) {
	got, err := Accrued(10_000, 2000, 365*day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2000 {
		t.Fatalf("reward mismatch: %d != 2000", got)
	}
}

func TestAccruedZeroElapsed(t *testing.T) {
	for _, elapsed := range []int64{0, -1, -365 * day} {
		got, err := Accrued(10_000, 2000, elapsed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Fatalf("elapsed %d should accrue nothing, got %d", elapsed, got)
		}
	}
}

func TestAccruedTruncates(t *testing.T) {
	// 1000 * 1000 * 86400 / 315360000000 = 0.27...
	got, err := Accrued(1000, 1000, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected truncation to 0, got %d", got)
	}

	// 1_000_000 * 1500 * 30 days / year = 12328.76...
	got, err = Accrued(1_000_000, 1500, 30*day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 12328 {
		t.Fatalf("expected 12328, got %d", got)
	}
}

func TestAccruedAdditiveAcrossSplit(t *testing.T) {
	whole, err := Accrued(10_000, 2000, 365*day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := Accrued(10_000, 2000, 73*day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Accrued(10_000, 2000, 292*day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first+second != whole {
		t.Fatalf("split accrual mismatch: %d + %d != %d", first, second, whole)
	}
}

func TestAccruedSplitNeverOverpays(t *testing.T) {
	principals := []uint64{1, 999, 10_000, 123_456_789, 1 << 40}
	rates := []uint32{1000, 1500, 2000}
	splits := []int64{1, 7, 3599, day + 13, 17 * day}
	total := int64(90 * day)

	for _, p := range principals {
		for _, r := range rates {
			for _, s := range splits {
				whole, err := Accrued(p, r, total)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				a, err := Accrued(p, r, s)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				b, err := Accrued(p, r, total-s)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if a+b > whole {
					t.Fatalf("split overpays p=%d r=%d s=%d: %d + %d > %d", p, r, s, a, b, whole)
				}
				if whole-(a+b) > 1 {
					t.Fatalf("split loses more than one unit p=%d r=%d s=%d: %d vs %d", p, r, s, a+b, whole)
				}
			}
		}
	}
}

func TestAccruedOverflow(t *testing.T) {
	_, err := Accrued(math.MaxUint64, 2000, 100*365*day)
	if !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	// Large but representable: the 256-bit intermediate must not wrap.
	got, err := Accrued(math.MaxUint64, 2000, 365*day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != math.MaxUint64/5 {
		t.Fatalf("large reward mismatch: %d", got)
	}
}

func TestCheckedCounters(t *testing.T) {
	if _, err := Add(math.MaxUint64, 1); !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Fatalf("expected add overflow, got %v", err)
	}
	if _, err := Sub(1, 2); !errors.Is(err, model.ErrArithmeticOverflow) {
		t.Fatalf("expected sub underflow, got %v", err)
	}
	if v, err := Add(2, 3); err != nil || v != 5 {
		t.Fatalf("add mismatch: %d %v", v, err)
	}
	if v, err := Sub(5, 3); err != nil || v != 2 {
		t.Fatalf("sub mismatch: %d %v", v, err)
	}
}
