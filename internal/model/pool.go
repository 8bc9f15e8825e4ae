package model

import "github.com/ethereum/go-ethereum/common"

// Rates holds the APY per lock period, in basis points.
type Rates struct {
	Days30 uint32 `json:"days_30"`
	Days60 uint32 `json:"days_60"`
	Days90 uint32 `json:"days_90"`
}

// Pool is the singleton custody record for a deployment.
type Pool struct {
	Authority       common.Address `json:"authority"`
	Token           common.Address `json:"token"`
	VaultAccount    common.Address `json:"vault_account"`
	Vault           uint64         `json:"vault"`
	TotalStaked     uint64         `json:"total_staked"`
	ActivePositions uint64         `json:"active_positions"`
	NextPositionID  uint64         `json:"next_position_id"`
	Rates           Rates          `json:"rates"`
	Paused          bool           `json:"paused"`
	AccessPaused    bool           `json:"access_paused"`
	CreatedAt       int64          `json:"created_at"`
}

// RewardReserve is the part of the vault not backing any principal.
func (p Pool) RewardReserve() uint64 {
	if p.Vault < p.TotalStaked {
		return 0
	}
	return p.Vault - p.TotalStaked
}
