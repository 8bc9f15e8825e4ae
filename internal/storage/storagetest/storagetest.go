// Package storagetest holds the transactional behavior every storage.Store
// implementation must share.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeVault/internal/model"
	"stakeVault/internal/storage"
)

var (
	owner = common.HexToAddress("0x1111111111111111111111111111111111111111")
	other = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// Run executes the conformance tests. newStore must return an empty store
// each time it is called.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("UpdateCommitsAllWrites", func(t *testing.T) { testUpdateCommitsAllWrites(t, newStore(t)) })
	t.Run("FailedUpdateLeavesNoResidue", func(t *testing.T) { testFailedUpdateLeavesNoResidue(t, newStore(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testViewIsReadOnly(t, newStore(t)) })
	t.Run("PositionQueries", func(t *testing.T) { testPositionQueries(t, newStore(t)) })
	t.Run("PoolFlagsRoundTrip", func(t *testing.T) { testPoolFlagsRoundTrip(t, newStore(t)) })
	t.Run("EventsPastEndAreEmpty", func(t *testing.T) { testEventsPastEndAreEmpty(t, newStore(t)) })
}

func testUpdateCommitsAllWrites(t *testing.T, s storage.Store) {
	ctx := context.Background()

	err := s.Update(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.PutPool(ctx, model.Pool{Vault: 10, NextPositionID: 2}))
		require.NoError(t, tx.PutPosition(ctx, model.Position{ID: 1, Owner: owner, Principal: 10, LockDays: 30}))
		require.NoError(t, tx.PutAccess(ctx, model.AccessRecord{Owner: owner, Tier: model.TierBasic, Balance: 1_000}))
		require.NoError(t, tx.SetBalance(ctx, owner, 90))
		require.NoError(t, tx.SetNonce(ctx, owner, 4))
		_, err := tx.AppendEvents(ctx, []model.Event{model.NewEvent(model.EventStaked, 1, model.StakedData{PositionID: 1})})
		return err
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx storage.Tx) error {
		pool, ok, err := tx.Pool(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(10), pool.Vault)
		assert.Equal(t, uint64(2), pool.NextPositionID)

		positions, err := tx.PositionsByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, uint16(30), positions[0].LockDays)

		rec, ok, err := tx.Access(ctx, owner)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, model.TierBasic, rec.Tier)

		bal, err := tx.Balance(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(90), bal)

		nonce, err := tx.Nonce(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), nonce)

		events, err := tx.Events(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, uint64(1), events[0].Seq)
		assert.Equal(t, model.EventStaked, events[0].Kind)
		return nil
	})
	require.NoError(t, err)
}

func testFailedUpdateLeavesNoResidue(t *testing.T, s storage.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	require.NoError(t, s.Update(ctx, func(tx storage.Tx) error {
		return tx.SetBalance(ctx, owner, 50)
	}))

	err := s.Update(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.SetBalance(ctx, owner, 0))
		require.NoError(t, tx.SetBalance(ctx, other, 50))
		require.NoError(t, tx.PutPool(ctx, model.Pool{Vault: 50}))
		require.NoError(t, tx.PutPosition(ctx, model.Position{ID: 1, Owner: other, Principal: 50}))
		require.NoError(t, tx.SetNonce(ctx, owner, 9))
		_, err := tx.AppendEvents(ctx, []model.Event{model.NewEvent(model.EventRewardsFunded, 1, model.RewardsFundedData{Amount: 50})})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		bal, err := tx.Balance(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), bal)
		bal, err = tx.Balance(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), bal)

		_, ok, err := tx.Pool(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = tx.Position(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		nonce, err := tx.Nonce(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), nonce)

		events, err := tx.Events(ctx, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, events)
		return nil
	}))
}

func testViewIsReadOnly(t *testing.T, s storage.Store) {
	ctx := context.Background()

	err := s.View(ctx, func(tx storage.Tx) error {
		return tx.SetNonce(ctx, owner, 1)
	})
	assert.ErrorIs(t, err, storage.ErrReadOnly)

	err = s.View(ctx, func(tx storage.Tx) error {
		_, err := tx.AppendEvents(ctx, []model.Event{model.NewEvent(model.EventStaked, 1, model.StakedData{})})
		return err
	})
	assert.ErrorIs(t, err, storage.ErrReadOnly)
}

func testPositionQueries(t *testing.T, s storage.Store) {
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.PutPosition(ctx, model.Position{ID: 1, Owner: owner, Principal: 10}))
		require.NoError(t, tx.PutPosition(ctx, model.Position{ID: 2, Owner: other, Principal: 20}))
		require.NoError(t, tx.PutPosition(ctx, model.Position{ID: 3, Owner: owner, Principal: 30, Status: model.StatusClosed}))
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		mine, err := tx.PositionsByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, uint64(1), mine[0].ID)
		assert.Equal(t, uint64(3), mine[1].ID)

		active, err := tx.ActivePositions(ctx)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, uint64(1), active[0].ID)
		assert.Equal(t, uint64(2), active[1].ID)

		none, err := tx.PositionsByOwner(ctx, common.HexToAddress("0x3333333333333333333333333333333333333333"))
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
		return nil
	}))
}

func testPoolFlagsRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	want := model.Pool{
		Authority:      owner,
		Token:          other,
		Vault:          100,
		TotalStaked:    60,
		NextPositionID: 3,
		Rates:          model.Rates{Days30: 1000, Days60: 1500, Days90: 2000},
		AccessPaused:   true,
		CreatedAt:      1_700_000_000,
	}

	require.NoError(t, s.Update(ctx, func(tx storage.Tx) error {
		return tx.PutPool(ctx, want)
	}))
	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, ok, err := tx.Pool(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
		return nil
	}))
}

func testEventsPastEndAreEmpty(t *testing.T, s storage.Store) {
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx storage.Tx) error {
		_, err := tx.AppendEvents(ctx, []model.Event{
			model.NewEvent(model.EventPoolPaused, 1, model.PoolPausedData{Paused: true}),
			model.NewEvent(model.EventPoolPaused, 2, model.PoolPausedData{Paused: false}),
		})
		return err
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		page, err := tx.Events(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, uint64(2), page[0].Seq)

		for _, after := range []uint64{2, 50} {
			events, err := tx.Events(ctx, after, 10)
			require.NoError(t, err)
			require.NotNil(t, events)
			assert.Empty(t, events)

			raw, err := json.Marshal(events)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(raw))
		}
		return nil
	}))
}
