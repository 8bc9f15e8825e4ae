package model

import "github.com/ethereum/go-ethereum/common"

// AccessRecord is the last tier evaluation stored for a holder.
type AccessRecord struct {
	Owner       common.Address `json:"owner"`
	Tier        Tier           `json:"tier"`
	Balance     uint64         `json:"balance"`
	EvaluatedAt int64          `json:"evaluated_at"`
	MintedAt    int64          `json:"minted_at"`
}
