package host

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"stakeVault/internal/audit"
	"stakeVault/internal/ledger"
	"stakeVault/internal/model"
	"stakeVault/internal/storage"
)

// AccessView is a holder's live tier next to the stored access record.
type AccessView struct {
	Owner   common.Address      `json:"owner"`
	Balance uint64              `json:"balance"`
	Tier    model.Tier          `json:"tier"`
	Record  *model.AccessRecord `json:"record,omitempty"`
	// Required and Meets are set by VerifyHolder.
	Required *model.Tier `json:"required,omitempty"`
	Meets    *bool       `json:"meets,omitempty"`
}

func (e *Executor) Pool(ctx context.Context) (model.Pool, error) {
	var pool model.Pool
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		pool, err = loadPool(ctx, tx)
		return err
	})
	return pool, err
}

func (e *Executor) Position(ctx context.Context, id uint64) (model.Position, error) {
	var pos model.Position
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		pos, err = loadPosition(ctx, tx, id)
		return err
	})
	return pos, err
}

func (e *Executor) Positions(ctx context.Context, owner common.Address) ([]model.Position, error) {
	var positions []model.Position
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		positions, err = tx.PositionsByOwner(ctx, owner)
		return err
	})
	return positions, err
}

// StakeInfo reports a position's lock and reward state now.
func (e *Executor) StakeInfo(ctx context.Context, id uint64) (model.StakeInfo, error) {
	pos, err := e.Position(ctx, id)
	if err != nil {
		return model.StakeInfo{}, err
	}
	return ledger.StakeInfo(pos, e.clock())
}

// Access derives owner's tier from the current balance without writing.
func (e *Executor) Access(ctx context.Context, owner common.Address) (AccessView, error) {
	view := AccessView{Owner: owner}
	err := e.store.View(ctx, func(tx storage.Tx) error {
		pool, err := loadPool(ctx, tx)
		if err != nil {
			return err
		}
		view.Balance, err = e.holderBalance(ctx, tx, pool.Token, owner)
		if err != nil {
			return err
		}
		rec, ok, err := tx.Access(ctx, owner)
		if err != nil {
			return err
		}
		if ok {
			view.Record = &rec
		}
		return nil
	})
	if err != nil {
		return AccessView{}, err
	}
	view.Tier = e.access.Thresholds().TierFor(view.Balance)
	return view, nil
}

// VerifyHolder reports whether owner's live balance derives at least the
// required tier.
func (e *Executor) VerifyHolder(ctx context.Context, owner common.Address, required model.Tier) (AccessView, error) {
	view, err := e.Access(ctx, owner)
	if err != nil {
		return AccessView{}, err
	}
	meets := e.access.MeetsTier(view.Balance, required)
	view.Required = &required
	view.Meets = &meets
	return view, nil
}

// Balance returns account's token book balance.
func (e *Executor) Balance(ctx context.Context, account common.Address) (uint64, error) {
	var balance uint64
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = tx.Balance(ctx, account)
		return err
	})
	return balance, err
}

func (e *Executor) Events(ctx context.Context, afterSeq uint64, limit int) ([]model.EventRecord, error) {
	var records []model.EventRecord
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		records, err = tx.Events(ctx, afterSeq, limit)
		return err
	})
	return records, err
}

// Audit runs a solvency check against the committed state.
func (e *Executor) Audit(ctx context.Context) (audit.Report, error) {
	var (
		pool      model.Pool
		positions []model.Position
		vaultBook uint64
	)
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		if pool, err = loadPool(ctx, tx); err != nil {
			return err
		}
		if positions, err = tx.ActivePositions(ctx); err != nil {
			return err
		}
		vaultBook, err = tx.Balance(ctx, pool.VaultAccount)
		return err
	})
	if err != nil {
		return audit.Report{}, err
	}
	return audit.Check(pool, positions, vaultBook, e.clock())
}

// Nonce returns the last envelope nonce accepted from account.
func (e *Executor) Nonce(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		nonce, err = tx.Nonce(ctx, account)
		return err
	})
	return nonce, err
}
