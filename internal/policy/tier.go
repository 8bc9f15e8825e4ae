package policy

import (
	"fmt"

	"stakeVault/internal/model"
)

// Thresholds are the minimum balances for each tier above None.
type Thresholds struct {
	Basic uint64 `json:"basic"`
	Pro   uint64 `json:"pro"`
	Elite uint64 `json:"elite"`
}

// DefaultThresholds returns 1,000 / 5,000 / 25,000.
func DefaultThresholds() Thresholds {
	return Thresholds{Basic: 1_000, Pro: 5_000, Elite: 25_000}
}

// Validate requires non-zero, strictly increasing thresholds so TierFor stays monotonic.
func (t Thresholds) Validate() error {
	if t.Basic == 0 || t.Pro <= t.Basic || t.Elite <= t.Pro {
		return fmt.Errorf("basic=%d pro=%d elite=%d: %w", t.Basic, t.Pro, t.Elite, model.ErrInvalidThresholds)
	}
	return nil
}

// TierFor maps a balance to a tier, checking the highest threshold first.
func (t Thresholds) TierFor(balance uint64) model.Tier {
	switch {
	case balance >= t.Elite:
		return model.TierElite
	case balance >= t.Pro:
		return model.TierPro
	case balance >= t.Basic:
		return model.TierBasic
	default:
		return model.TierNone
	}
}
