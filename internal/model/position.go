package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PositionStatus is the lifecycle state of a stake position.
type PositionStatus uint8

const (
	StatusActive PositionStatus = iota
	StatusClosed
)

func (s PositionStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s PositionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PositionStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = StatusActive
	case "closed":
		*s = StatusClosed
	default:
		return fmt.Errorf("unknown position status %q", string(text))
	}
	return nil
}

// Position is a single stake with its own lock window and accrual checkpoint.
type Position struct {
	ID         uint64         `json:"id"`
	Owner      common.Address `json:"owner"`
	Principal  uint64         `json:"principal"`
	LockDays   uint16         `json:"lock_days"`
	RateBps    uint32         `json:"rate_bps"`
	CreatedAt  int64          `json:"created_at"`
	UnlockAt   int64          `json:"unlock_at"`
	Checkpoint int64          `json:"checkpoint"`
	Claimed    uint64         `json:"claimed"`
	Status     PositionStatus `json:"status"`
}

// Active reports whether the position still accepts operations.
func (p Position) Active() bool {
	return p.Status == StatusActive
}

// StakeInfo is a read-only view of a position at a point in time.
type StakeInfo struct {
	Position         Position `json:"position"`
	ProjectedReward  uint64   `json:"projected_reward"`
	Unclaimed        uint64   `json:"unclaimed"`
	SecondsRemaining int64    `json:"seconds_remaining"`
	Unlocked         bool     `json:"unlocked"`
	EvaluatedAt      int64    `json:"evaluated_at"`
}
