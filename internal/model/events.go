package model

import "github.com/ethereum/go-ethereum/common"

// EventKind names a ledger event.
type EventKind string

const (
	EventPoolInitialized EventKind = "pool_initialized"
	EventPoolPaused      EventKind = "pool_paused"
	EventAccessPaused    EventKind = "access_paused"
	EventRatesUpdated    EventKind = "rates_updated"
	EventRewardsFunded   EventKind = "rewards_funded"
	EventStaked          EventKind = "staked"
	EventRewardsClaimed  EventKind = "rewards_claimed"
	EventUnstaked        EventKind = "unstaked"
	EventAccessMinted    EventKind = "access_minted"
	EventAccessVerified  EventKind = "access_verified"
	EventTierUpgraded    EventKind = "tier_upgraded"
)

// PoolInitializedData is the payload of a pool_initialized event.
type PoolInitializedData struct {
	Authority    common.Address `json:"authority"`
	Token        common.Address `json:"token"`
	VaultAccount common.Address `json:"vault_account"`
	Rates        Rates          `json:"rates"`
}

// PoolPausedData is the payload of pool_paused and access_paused events.
type PoolPausedData struct {
	Paused bool `json:"paused"`
}

// RatesUpdatedData is the payload of a rates_updated event.
type RatesUpdatedData struct {
	Old Rates `json:"old"`
	New Rates `json:"new"`
}

// RewardsFundedData is the payload of a rewards_funded event.
type RewardsFundedData struct {
	Funder  common.Address `json:"funder"`
	Amount  uint64         `json:"amount"`
	Reserve uint64         `json:"reserve"`
}

// StakedData is the payload of a staked event.
type StakedData struct {
	PositionID      uint64         `json:"position_id"`
	Owner           common.Address `json:"owner"`
	Amount          uint64         `json:"amount"`
	LockDays        uint16         `json:"lock_days"`
	RateBps         uint32         `json:"rate_bps"`
	ProjectedReward uint64         `json:"projected_reward"`
	UnlockAt        int64          `json:"unlock_at"`
}

// RewardsClaimedData is the payload of a rewards_claimed event.
type RewardsClaimedData struct {
	PositionID uint64         `json:"position_id"`
	Owner      common.Address `json:"owner"`
	Paid       uint64         `json:"paid"`
	Claimed    uint64         `json:"claimed"`
	Checkpoint int64          `json:"checkpoint"`
}

// UnstakedData is the payload of an unstaked event.
type UnstakedData struct {
	PositionID uint64         `json:"position_id"`
	Owner      common.Address `json:"owner"`
	Principal  uint64         `json:"principal"`
	Reward     uint64         `json:"reward"`
	Total      uint64         `json:"total"`
}

// AccessData is the payload of access_minted, access_verified and tier_upgraded events.
type AccessData struct {
	Owner    common.Address `json:"owner"`
	Balance  uint64         `json:"balance"`
	Tier     Tier           `json:"tier"`
	Previous Tier           `json:"previous"`
}
