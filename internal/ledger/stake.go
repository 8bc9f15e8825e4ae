package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stakeVault/internal/model"
	"stakeVault/internal/policy"
	"stakeVault/internal/reward"
)

// StakeLedger applies stake, claim and unstake operations to pool and position records.
type StakeLedger struct {
	logger *zap.Logger
}

func NewStakeLedger(logger *zap.Logger) *StakeLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StakeLedger{logger: logger}
}

// Initialize creates the pool record.
func (l *StakeLedger) Initialize(authority, token, vaultAccount common.Address, rates model.Rates, now int64) (*model.Pool, model.Event, error) {
	if err := policy.ValidateRates(rates); err != nil {
		return nil, model.Event{}, fmt.Errorf("%w: %v", model.ErrInvalidInstruction, err)
	}

	pool := &model.Pool{
		Authority:      authority,
		Token:          token,
		VaultAccount:   vaultAccount,
		NextPositionID: 1,
		Rates:          rates,
		CreatedAt:      now,
	}
	ev := model.NewEvent(model.EventPoolInitialized, now, model.PoolInitializedData{
		Authority:    authority,
		Token:        token,
		VaultAccount: vaultAccount,
		Rates:        rates,
	})
	l.logger.Debug("pool initialized", zap.String("authority", authority.Hex()), zap.String("token", token.Hex()))
	return pool, ev, nil
}

// Stake moves amount from caller into the vault and opens a new position.
func (l *StakeLedger) Stake(ctx context.Context, bank Transferer, pool *model.Pool, caller common.Address, amount uint64, lockDays uint16, now int64) (*model.Position, model.Event, error) {
	if amount == 0 {
		return nil, model.Event{}, model.ErrInvalidAmount
	}
	if pool.Paused {
		return nil, model.Event{}, model.ErrPoolPaused
	}
	rate, err := policy.RateFor(pool.Rates, lockDays)
	if err != nil {
		return nil, model.Event{}, err
	}
	projected, err := reward.Projected(amount, rate, policy.LockSeconds(lockDays))
	if err != nil {
		return nil, model.Event{}, fmt.Errorf("projected reward: %w", err)
	}
	vault, err := reward.Add(pool.Vault, amount)
	if err != nil {
		return nil, model.Event{}, fmt.Errorf("vault: %w", err)
	}
	staked, err := reward.Add(pool.TotalStaked, amount)
	if err != nil {
		return nil, model.Event{}, fmt.Errorf("total staked: %w", err)
	}
	active, err := reward.Add(pool.ActivePositions, 1)
	if err != nil {
		return nil, model.Event{}, fmt.Errorf("active positions: %w", err)
	}
	nextID, err := reward.Add(pool.NextPositionID, 1)
	if err != nil {
		return nil, model.Event{}, fmt.Errorf("position id: %w", err)
	}

	if err := bank.Transfer(ctx, caller, pool.VaultAccount, amount); err != nil {
		return nil, model.Event{}, fmt.Errorf("transfer to vault: %w", err)
	}

	pos := &model.Position{
		ID:         pool.NextPositionID,
		Owner:      caller,
		Principal:  amount,
		LockDays:   lockDays,
		RateBps:    rate,
		CreatedAt:  now,
		UnlockAt:   policy.UnlockAt(now, lockDays),
		Checkpoint: now,
		Status:     model.StatusActive,
	}
	pool.Vault = vault
	pool.TotalStaked = staked
	pool.ActivePositions = active
	pool.NextPositionID = nextID

	ev := model.NewEvent(model.EventStaked, now, model.StakedData{
		PositionID:      pos.ID,
		Owner:           caller,
		Amount:          amount,
		LockDays:        lockDays,
		RateBps:         rate,
		ProjectedReward: projected,
		UnlockAt:        pos.UnlockAt,
	})
	l.logger.Debug("staked",
		zap.Uint64("position_id", pos.ID),
		zap.String("owner", caller.Hex()),
		zap.Uint64("amount", amount),
		zap.Uint16("lock_days", lockDays),
		zap.Uint64("projected_reward", projected),
	)
	return pos, ev, nil
}

// ClaimRewards pays the reward accrued since the position's checkpoint and
// advances the checkpoint to now.
func (l *StakeLedger) ClaimRewards(ctx context.Context, bank Transferer, pool *model.Pool, pos *model.Position, caller common.Address, now int64) (uint64, model.Event, error) {
	if caller != pos.Owner {
		return 0, model.Event{}, model.ErrUnauthorized
	}
	if !pos.Active() {
		return 0, model.Event{}, model.ErrPositionClosed
	}

	paid, err := reward.Accrued(pos.Principal, pos.RateBps, now-pos.Checkpoint)
	if err != nil {
		return 0, model.Event{}, err
	}
	if paid > pool.RewardReserve() {
		return 0, model.Event{}, fmt.Errorf("claim %d with reserve %d: %w", paid, pool.RewardReserve(), model.ErrInsufficientRewardReserve)
	}
	claimed, err := reward.Add(pos.Claimed, paid)
	if err != nil {
		return 0, model.Event{}, fmt.Errorf("claimed total: %w", err)
	}
	vault, err := reward.Sub(pool.Vault, paid)
	if err != nil {
		return 0, model.Event{}, fmt.Errorf("vault: %w", err)
	}

	if paid > 0 {
		if err := bank.Transfer(ctx, pool.VaultAccount, pos.Owner, paid); err != nil {
			return 0, model.Event{}, fmt.Errorf("transfer reward: %w", err)
		}
	}

	if now > pos.Checkpoint {
		pos.Checkpoint = now
	}
	pos.Claimed = claimed
	pool.Vault = vault

	ev := model.NewEvent(model.EventRewardsClaimed, now, model.RewardsClaimedData{
		PositionID: pos.ID,
		Owner:      pos.Owner,
		Paid:       paid,
		Claimed:    claimed,
		Checkpoint: pos.Checkpoint,
	})
	l.logger.Debug("rewards claimed", zap.Uint64("position_id", pos.ID), zap.Uint64("paid", paid))
	return paid, ev, nil
}

// Unstake closes an unlocked position, paying principal plus unclaimed reward
// in a single transfer.
func (l *StakeLedger) Unstake(ctx context.Context, bank Transferer, pool *model.Pool, pos *model.Position, caller common.Address, now int64) (uint64, model.Event, error) {
	if caller != pos.Owner {
		return 0, model.Event{}, model.ErrUnauthorized
	}
	if !pos.Active() {
		return 0, model.Event{}, model.ErrPositionClosed
	}
	if !policy.IsUnlocked(pos.CreatedAt, pos.LockDays, now) {
		return 0, model.Event{}, fmt.Errorf("unlocks at %d: %w", policy.UnlockAt(pos.CreatedAt, pos.LockDays), model.ErrLockNotExpired)
	}

	accrued, err := reward.Accrued(pos.Principal, pos.RateBps, now-pos.Checkpoint)
	if err != nil {
		return 0, model.Event{}, err
	}
	if accrued > pool.RewardReserve() {
		return 0, model.Event{}, fmt.Errorf("final reward %d with reserve %d: %w", accrued, pool.RewardReserve(), model.ErrInsufficientRewardReserve)
	}
	total, err := reward.Add(pos.Principal, accrued)
	if err != nil {
		return 0, model.Event{}, fmt.Errorf("payout: %w", err)
	}
	claimed, err := reward.Add(pos.Claimed, accrued)
	if err != nil {
		return 0, model.Event{}, fmt.Errorf("claimed total: %w", err)
	}
	vault, err := reward.Sub(pool.Vault, total)
	if err != nil {
		return 0, model.Event{}, fmt.Errorf("vault: %w", err)
	}
	staked, err := reward.Sub(pool.TotalStaked, pos.Principal)
	if err != nil {
		return 0, model.Event{}, fmt.Errorf("total staked: %w", err)
	}

	if err := bank.Transfer(ctx, pool.VaultAccount, pos.Owner, total); err != nil {
		return 0, model.Event{}, fmt.Errorf("transfer payout: %w", err)
	}

	if now > pos.Checkpoint {
		pos.Checkpoint = now
	}
	pos.Claimed = claimed
	pos.Status = model.StatusClosed
	pool.Vault = vault
	pool.TotalStaked = staked
	if pool.ActivePositions > 0 {
		pool.ActivePositions--
	}

	ev := model.NewEvent(model.EventUnstaked, now, model.UnstakedData{
		PositionID: pos.ID,
		Owner:      pos.Owner,
		Principal:  pos.Principal,
		Reward:     accrued,
		Total:      total,
	})
	l.logger.Debug("unstaked",
		zap.Uint64("position_id", pos.ID),
		zap.Uint64("principal", pos.Principal),
		zap.Uint64("reward", accrued),
	)
	return total, ev, nil
}

// SetPaused toggles whether the pool accepts new stakes.
func (l *StakeLedger) SetPaused(pool *model.Pool, caller common.Address, paused bool, now int64) (model.Event, error) {
	if caller != pool.Authority {
		return model.Event{}, model.ErrUnauthorized
	}
	pool.Paused = paused
	l.logger.Debug("pool paused", zap.Bool("paused", paused))
	return model.NewEvent(model.EventPoolPaused, now, model.PoolPausedData{Paused: paused}), nil
}

// UpdateRates replaces the rate table used for new positions. Existing
// positions keep the rate they were opened with.
func (l *StakeLedger) UpdateRates(pool *model.Pool, caller common.Address, rates model.Rates, now int64) (model.Event, error) {
	if caller != pool.Authority {
		return model.Event{}, model.ErrUnauthorized
	}
	if err := policy.ValidateRates(rates); err != nil {
		return model.Event{}, fmt.Errorf("%w: %v", model.ErrInvalidInstruction, err)
	}
	old := pool.Rates
	pool.Rates = rates
	l.logger.Debug("rates updated",
		zap.Uint32("days_30", rates.Days30),
		zap.Uint32("days_60", rates.Days60),
		zap.Uint32("days_90", rates.Days90),
	)
	return model.NewEvent(model.EventRatesUpdated, now, model.RatesUpdatedData{Old: old, New: rates}), nil
}

// FundRewards moves amount from the authority into the vault reward reserve.
func (l *StakeLedger) FundRewards(ctx context.Context, bank Transferer, pool *model.Pool, caller common.Address, amount uint64, now int64) (model.Event, error) {
	if caller != pool.Authority {
		return model.Event{}, model.ErrUnauthorized
	}
	if amount == 0 {
		return model.Event{}, model.ErrInvalidAmount
	}
	vault, err := reward.Add(pool.Vault, amount)
	if err != nil {
		return model.Event{}, fmt.Errorf("vault: %w", err)
	}

	if err := bank.Transfer(ctx, caller, pool.VaultAccount, amount); err != nil {
		return model.Event{}, fmt.Errorf("transfer to vault: %w", err)
	}
	pool.Vault = vault

	l.logger.Debug("rewards funded", zap.Uint64("amount", amount), zap.Uint64("reserve", pool.RewardReserve()))
	return model.NewEvent(model.EventRewardsFunded, now, model.RewardsFundedData{
		Funder:  caller,
		Amount:  amount,
		Reserve: pool.RewardReserve(),
	}), nil
}

// StakeInfo reports a position's lock and reward state at now.
func StakeInfo(pos model.Position, now int64) (model.StakeInfo, error) {
	projected, err := reward.Projected(pos.Principal, pos.RateBps, policy.LockSeconds(pos.LockDays))
	if err != nil {
		return model.StakeInfo{}, err
	}

	info := model.StakeInfo{
		Position:        pos,
		ProjectedReward: projected,
		Unlocked:        policy.IsUnlocked(pos.CreatedAt, pos.LockDays, now),
		EvaluatedAt:     now,
	}
	if !info.Unlocked {
		info.SecondsRemaining = policy.UnlockAt(pos.CreatedAt, pos.LockDays) - now
	}
	if pos.Active() {
		info.Unclaimed, err = reward.Accrued(pos.Principal, pos.RateBps, now-pos.Checkpoint)
		if err != nil {
			return model.StakeInfo{}, err
		}
	}
	return info, nil
}
