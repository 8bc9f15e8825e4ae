package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stakeVault/internal/model"
	"stakeVault/internal/policy"
)

func setupPool(t *testing.T, reserve uint64) (*StakeLedger, *testBook, *model.Pool) {
	t.Helper()
	l := NewStakeLedger(zap.NewNop())
	pool, ev, err := l.Initialize(authority, token, vaultAddr, policy.DefaultRates(), start)
	require.NoError(t, err)
	require.Equal(t, model.EventPoolInitialized, ev.Kind)

	book := newTestBook()
	book.balances[alice] = 1_000_000
	book.balances[bob] = 1_000_000
	if reserve > 0 {
		book.balances[authority] = reserve
		_, err := l.FundRewards(context.Background(), book, pool, authority, reserve, start)
		require.NoError(t, err)
	}
	return l, book, pool
}

func TestStakeCreatesPosition(t *testing.T) {
	l, book, pool := setupPool(t, 0)

	pos, ev, err := l.Stake(context.Background(), book, pool, alice, 10_000, 90, start)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), pos.ID)
	assert.Equal(t, alice, pos.Owner)
	assert.Equal(t, uint64(10_000), pos.Principal)
	assert.Equal(t, uint32(2000), pos.RateBps)
	assert.Equal(t, start, pos.Checkpoint)
	assert.Equal(t, start+90*day, pos.UnlockAt)
	assert.Equal(t, uint64(0), pos.Claimed)
	assert.True(t, pos.Active())

	assert.Equal(t, uint64(10_000), pool.Vault)
	assert.Equal(t, uint64(10_000), pool.TotalStaked)
	assert.Equal(t, uint64(1), pool.ActivePositions)
	assert.Equal(t, uint64(2), pool.NextPositionID)
	assert.Equal(t, uint64(990_000), book.balances[alice])
	assert.Equal(t, uint64(10_000), book.balances[vaultAddr])

	data, ok := ev.Data.(model.StakedData)
	require.True(t, ok)
	assert.Equal(t, uint64(493), data.ProjectedReward)
}

func TestStakeValidation(t *testing.T) {
	l, book, pool := setupPool(t, 0)
	ctx := context.Background()
	before := *pool

	_, _, err := l.Stake(ctx, book, pool, alice, 0, 30, start)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, _, err = l.Stake(ctx, book, pool, alice, 100, 45, start)
	assert.ErrorIs(t, err, model.ErrInvalidLockPeriod)

	_, _, err = l.Stake(ctx, book, pool, alice, 2_000_000, 30, start)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	assert.Equal(t, before, *pool, "failed stakes must not touch the pool")
	assert.Equal(t, uint64(1_000_000), book.balances[alice])
}

func TestStakeRejectedWhilePaused(t *testing.T) {
	l, book, pool := setupPool(t, 0)

	_, err := l.SetPaused(pool, alice, true, start)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = l.SetPaused(pool, authority, true, start)
	require.NoError(t, err)

	_, _, err = l.Stake(context.Background(), book, pool, alice, 100, 30, start)
	assert.ErrorIs(t, err, model.ErrPoolPaused)

	_, err = l.SetPaused(pool, authority, false, start)
	require.NoError(t, err)
	_, _, err = l.Stake(context.Background(), book, pool, alice, 100, 30, start)
	assert.NoError(t, err)
}

func TestClaimFullYearScenario(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 90, start)
	require.NoError(t, err)

	paid, ev, err := l.ClaimRewards(ctx, book, pool, pos, alice, start+year)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000), paid)
	assert.Equal(t, start+year, pos.Checkpoint)
	assert.Equal(t, uint64(2_000), pos.Claimed)
	assert.Equal(t, model.EventRewardsClaimed, ev.Kind)

	paid, _, err = l.ClaimRewards(ctx, book, pool, pos, alice, start+year)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), paid, "immediate second claim pays nothing")
	assert.Equal(t, uint64(2_000), pos.Claimed)

	assert.Equal(t, uint64(1_000_000-10_000+2_000), book.balances[alice])
	assert.Equal(t, uint64(50_000+10_000-2_000), pool.Vault)
	assert.Equal(t, pool.Vault, book.balances[vaultAddr])
}

func TestClaimAdditiveAcrossCheckpoints(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 90, start)
	require.NoError(t, err)

	first, _, err := l.ClaimRewards(ctx, book, pool, pos, alice, start+73*day)
	require.NoError(t, err)
	second, _, err := l.ClaimRewards(ctx, book, pool, pos, alice, start+year)
	require.NoError(t, err)

	assert.Equal(t, uint64(400), first)
	assert.Equal(t, uint64(1_600), second)
	assert.Equal(t, uint64(2_000), pos.Claimed)
}

func TestClaimAuthorizationAndReserve(t *testing.T) {
	l, book, pool := setupPool(t, 0)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 30, start)
	require.NoError(t, err)

	_, _, err = l.ClaimRewards(ctx, book, pool, pos, bob, start+day)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	before := *pos
	_, _, err = l.ClaimRewards(ctx, book, pool, pos, alice, start+year)
	assert.ErrorIs(t, err, model.ErrInsufficientRewardReserve)
	assert.Equal(t, before, *pos)
	assert.Equal(t, uint64(10_000), pool.Vault, "principal backing is untouched")
}

func TestClaimTransferFailureLeavesNoResidue(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 30, start)
	require.NoError(t, err)

	book.fail = errors.New("token program unavailable")
	posBefore, poolBefore := *pos, *pool
	_, _, err = l.ClaimRewards(ctx, book, pool, pos, alice, start+year)
	require.Error(t, err)
	assert.Equal(t, posBefore, *pos)
	assert.Equal(t, poolBefore, *pool)
}

func TestUnstakeLockBoundary(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 30, start)
	require.NoError(t, err)

	_, _, err = l.Unstake(ctx, book, pool, pos, alice, start+30*day-1)
	assert.ErrorIs(t, err, model.ErrLockNotExpired)
	assert.True(t, pos.Active())

	total, ev, err := l.Unstake(ctx, book, pool, pos, alice, start+30*day)
	require.NoError(t, err)

	// 10_000 * 1000 * 30 days / year = 82.19
	assert.Equal(t, uint64(10_082), total)
	assert.Equal(t, model.StatusClosed, pos.Status)
	assert.Equal(t, uint64(0), pool.TotalStaked)
	assert.Equal(t, uint64(0), pool.ActivePositions)
	assert.Equal(t, uint64(50_000-82), pool.Vault)
	assert.Equal(t, pool.Vault, book.balances[vaultAddr])

	data, ok := ev.Data.(model.UnstakedData)
	require.True(t, ok)
	assert.Equal(t, uint64(82), data.Reward)
	assert.Equal(t, uint64(10_000), data.Principal)
}

func TestClosedPositionRejectsEverything(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 60, start)
	require.NoError(t, err)
	_, _, err = l.Unstake(ctx, book, pool, pos, alice, start+60*day)
	require.NoError(t, err)

	_, _, err = l.Unstake(ctx, book, pool, pos, alice, start+61*day)
	assert.ErrorIs(t, err, model.ErrPositionClosed)
	_, _, err = l.ClaimRewards(ctx, book, pool, pos, alice, start+61*day)
	assert.ErrorIs(t, err, model.ErrPositionClosed)
}

func TestUnstakeUnauthorized(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	pos, _, err := l.Stake(ctx, book, pool, alice, 10_000, 30, start)
	require.NoError(t, err)

	_, _, err = l.Unstake(ctx, book, pool, pos, bob, start+31*day)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.True(t, pos.Active())
}

func TestUpdateRatesKeepsExistingPositions(t *testing.T) {
	l, book, pool := setupPool(t, 50_000)
	ctx := context.Background()

	old, _, err := l.Stake(ctx, book, pool, alice, 10_000, 90, start)
	require.NoError(t, err)

	_, err = l.UpdateRates(pool, bob, model.Rates{Days30: 1, Days60: 2, Days90: 3}, start)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = l.UpdateRates(pool, authority, model.Rates{Days30: 500, Days60: 700, Days90: 900}, start)
	require.NoError(t, err)

	fresh, _, err := l.Stake(ctx, book, pool, bob, 10_000, 90, start)
	require.NoError(t, err)

	assert.Equal(t, uint32(2000), old.RateBps)
	assert.Equal(t, uint32(900), fresh.RateBps)

	paid, _, err := l.ClaimRewards(ctx, book, pool, old, alice, start+year)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000), paid)
}

func TestFundRewards(t *testing.T) {
	l, book, pool := setupPool(t, 0)
	ctx := context.Background()

	_, err := l.FundRewards(ctx, book, pool, alice, 100, start)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = l.FundRewards(ctx, book, pool, authority, 0, start)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = l.FundRewards(ctx, book, pool, authority, 100, start)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Equal(t, uint64(0), pool.Vault)
}

func TestPoolInvariantAcrossSequence(t *testing.T) {
	l, book, pool := setupPool(t, 5_000)
	ctx := context.Background()

	var positions []*model.Position
	for i, days := range []uint16{30, 60, 90, 30} {
		owner := alice
		if i%2 == 1 {
			owner = bob
		}
		pos, _, err := l.Stake(ctx, book, pool, owner, uint64(1_000*(i+1)), days, start+int64(i)*day)
		require.NoError(t, err)
		positions = append(positions, pos)
	}

	steps := []int64{10 * day, 31 * day, 45 * day, 61 * day, 91 * day, 200 * day}
	for _, offset := range steps {
		now := start + offset
		for _, pos := range positions {
			if _, _, err := l.ClaimRewards(ctx, book, pool, pos, pos.Owner, now); err != nil {
				require.True(t, errors.Is(err, model.ErrPositionClosed) || errors.Is(err, model.ErrInsufficientRewardReserve), err)
			}
			if _, _, err := l.Unstake(ctx, book, pool, pos, pos.Owner, now); err != nil {
				require.True(t, errors.Is(err, model.ErrLockNotExpired) || errors.Is(err, model.ErrPositionClosed) || errors.Is(err, model.ErrInsufficientRewardReserve), err)
			}

			var principal, unclaimed uint64
			for _, p := range positions {
				if !p.Active() {
					continue
				}
				principal += p.Principal
				accrued, err := StakeInfo(*p, now)
				require.NoError(t, err)
				unclaimed += accrued.Unclaimed
			}
			assert.Equal(t, principal, pool.TotalStaked)
			assert.Equal(t, pool.Vault, book.balances[vaultAddr])
			assert.GreaterOrEqual(t, pool.Vault, principal)
		}
	}
	for _, pos := range positions {
		assert.Equal(t, model.StatusClosed, pos.Status)
	}
	assert.Equal(t, uint64(0), pool.TotalStaked)
}

func TestStakeInfo(t *testing.T) {
	pos := model.Position{
		ID: 1, Owner: alice, Principal: 10_000, LockDays: 90, RateBps: 2000,
		CreatedAt: start, UnlockAt: start + 90*day, Checkpoint: start, Status: model.StatusActive,
	}

	info, err := StakeInfo(pos, start+10*day)
	require.NoError(t, err)
	assert.False(t, info.Unlocked)
	assert.Equal(t, 80*day, info.SecondsRemaining)
	assert.Equal(t, uint64(493), info.ProjectedReward)
	assert.Equal(t, uint64(54), info.Unclaimed)

	info, err = StakeInfo(pos, start+90*day)
	require.NoError(t, err)
	assert.True(t, info.Unlocked)
	assert.Equal(t, int64(0), info.SecondsRemaining)
}
