// Package audit checks a pool's solvency against its open positions.
package audit

import (
	"fmt"
	"math/big"

	"stakeVault/internal/model"
	"stakeVault/internal/reward"
)

// Accumulator sums liabilities over active positions. Per-position accrual
// uses the same arithmetic as a claim; only the totals are carried in big
// integers.
type Accumulator struct {
	Now       int64
	Count     uint64
	Principal *big.Int
	Unclaimed *big.Int
}

func NewAccumulator(now int64) *Accumulator {
	return &Accumulator{
		Now:       now,
		Principal: big.NewInt(0),
		Unclaimed: big.NewInt(0),
	}
}

// Add includes pos if it is active. It fails when the position's accrual
// would overflow, exactly when claiming it would.
func (a *Accumulator) Add(pos model.Position) error {
	if !pos.Active() {
		return nil
	}
	accrued, err := reward.Accrued(pos.Principal, pos.RateBps, a.Now-pos.Checkpoint)
	if err != nil {
		return fmt.Errorf("position %d: %w", pos.ID, err)
	}
	a.Count++
	a.Principal.Add(a.Principal, new(big.Int).SetUint64(pos.Principal))
	a.Unclaimed.Add(a.Unclaimed, new(big.Int).SetUint64(accrued))
	return nil
}

// Report is the outcome of a solvency check. Big sums are decimal strings.
type Report struct {
	EvaluatedAt     int64  `json:"evaluated_at"`
	Vault           uint64 `json:"vault"`
	VaultBook       uint64 `json:"vault_book"`
	TotalStaked     uint64 `json:"total_staked"`
	ActivePositions uint64 `json:"active_positions"`
	Principal       string `json:"principal"`
	Unclaimed       string `json:"unclaimed"`
	Liabilities     string `json:"liabilities"`
	Reserve         uint64 `json:"reserve"`
	Deficit         string `json:"deficit"`
	Solvent         bool   `json:"solvent"`
	BookMatches     bool   `json:"book_matches"`
	StakedMatches   bool   `json:"staked_matches"`
	CountMatches    bool   `json:"count_matches"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Solvent && r.BookMatches && r.StakedMatches && r.CountMatches
}

// Check verifies that the vault covers active principal plus unclaimed
// accrual at now, and that the pool's counters agree with its positions and
// with the token book balance of the vault account.
func Check(pool model.Pool, positions []model.Position, vaultBook uint64, now int64) (Report, error) {
	acc := NewAccumulator(now)
	for _, pos := range positions {
		if err := acc.Add(pos); err != nil {
			return Report{}, err
		}
	}

	liabilities := new(big.Int).Add(acc.Principal, acc.Unclaimed)
	vault := new(big.Int).SetUint64(pool.Vault)
	deficit := new(big.Int).Sub(liabilities, vault)
	if deficit.Sign() < 0 {
		deficit.SetInt64(0)
	}

	report := Report{
		EvaluatedAt:     now,
		Vault:           pool.Vault,
		VaultBook:       vaultBook,
		TotalStaked:     pool.TotalStaked,
		ActivePositions: acc.Count,
		Principal:       acc.Principal.String(),
		Unclaimed:       acc.Unclaimed.String(),
		Liabilities:     liabilities.String(),
		Reserve:         pool.RewardReserve(),
		Deficit:         deficit.String(),
		Solvent:         deficit.Sign() == 0,
		BookMatches:     vaultBook == pool.Vault,
		StakedMatches:   acc.Principal.Cmp(new(big.Int).SetUint64(pool.TotalStaked)) == 0,
		CountMatches:    acc.Count == pool.ActivePositions,
	}
	return report, nil
}
