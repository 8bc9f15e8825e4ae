// Package host runs ledger instructions atomically against a store. Each
// instruction loads its records inside one store transaction, moves tokens
// through a transactional token book and commits records, balances, nonces
// and events together, or discards all of them.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stakeVault/internal/ledger"
	"stakeVault/internal/model"
	"stakeVault/internal/policy"
	"stakeVault/internal/reward"
	"stakeVault/internal/storage"
)

// BalanceReader reads a holder's token balance from an external source.
type BalanceReader interface {
	TokenBalance(ctx context.Context, token, owner common.Address) (uint64, error)
}

// EventSink receives committed event records.
type EventSink interface {
	PutEvents(records []model.EventRecord) error
}

// Options configures an Executor. Zero values select the defaults.
type Options struct {
	Rates      model.Rates
	Thresholds policy.Thresholds
	// Balances overrides the token book as the source of holder balances for
	// access instructions.
	Balances BalanceReader
	Journal  EventSink
	Metrics  *Metrics
	Clock    func() int64
}

type Executor struct {
	store    storage.Store
	stakes   *ledger.StakeLedger
	access   *ledger.AccessLedger
	rates    model.Rates
	balances BalanceReader
	journal  EventSink
	metrics  *Metrics
	clock    func() int64
	logger   *zap.Logger
}

func NewExecutor(store storage.Store, opts Options, logger *zap.Logger) (*Executor, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Rates == (model.Rates{}) {
		opts.Rates = policy.DefaultRates()
	}
	if err := policy.ValidateRates(opts.Rates); err != nil {
		return nil, err
	}
	if opts.Thresholds == (policy.Thresholds{}) {
		opts.Thresholds = policy.DefaultThresholds()
	}
	access, err := ledger.NewAccessLedger(opts.Thresholds, logger)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = func() int64 { return time.Now().Unix() }
	}

	return &Executor{
		store:    store,
		stakes:   ledger.NewStakeLedger(logger),
		access:   access,
		rates:    opts.Rates,
		balances: opts.Balances,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		logger:   logger,
	}, nil
}

// Execute runs ins on behalf of caller.
func (e *Executor) Execute(ctx context.Context, caller common.Address, ins Instruction) (Receipt, error) {
	return e.run(ctx, caller, nil, ins)
}

// Submit verifies a signed envelope and runs its instruction. The envelope's
// nonce is consumed in the same transaction.
func (e *Executor) Submit(ctx context.Context, env Envelope) (Receipt, error) {
	payload, err := env.Open()
	if err != nil {
		e.observe(Op("envelope"), payload.Caller, Receipt{}, err)
		return Receipt{}, err
	}
	return e.run(ctx, payload.Caller, &payload.Nonce, payload.Instruction)
}

func (e *Executor) run(ctx context.Context, caller common.Address, nonce *uint64, ins Instruction) (Receipt, error) {
	if err := ins.Validate(); err != nil {
		e.observe(ins.Op, caller, Receipt{}, err)
		return Receipt{}, err
	}

	now := e.clock()
	var receipt Receipt
	err := e.store.Update(ctx, func(tx storage.Tx) error {
		if nonce != nil {
			if err := consumeNonce(ctx, tx, caller, *nonce); err != nil {
				return err
			}
		}

		r, events, err := e.apply(ctx, tx, caller, ins, now)
		if err != nil {
			return err
		}
		records, err := tx.AppendEvents(ctx, events)
		if err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		r.Events = records
		receipt = r
		return nil
	})
	e.observe(ins.Op, caller, receipt, err)
	if err != nil {
		return Receipt{}, err
	}

	if e.journal != nil {
		if err := e.journal.PutEvents(receipt.Events); err != nil {
			e.logger.Warn("journal events failed", zap.String("op", string(ins.Op)), zap.Error(err))
		}
	}
	return receipt, nil
}

func consumeNonce(ctx context.Context, tx storage.Tx, caller common.Address, nonce uint64) error {
	last, err := tx.Nonce(ctx, caller)
	if err != nil {
		return err
	}
	if nonce <= last {
		return fmt.Errorf("nonce %d, last accepted %d: %w", nonce, last, model.ErrStaleNonce)
	}
	return tx.SetNonce(ctx, caller, nonce)
}

func (e *Executor) apply(ctx context.Context, tx storage.Tx, caller common.Address, ins Instruction, now int64) (Receipt, []model.Event, error) {
	receipt := Receipt{Op: ins.Op, Caller: caller, Timestamp: now}

	if ins.Op == OpInitialize {
		ev, err := e.initialize(ctx, tx, caller, ins, now)
		if err != nil {
			return Receipt{}, nil, err
		}
		return receipt, []model.Event{ev}, nil
	}

	pool, err := loadPool(ctx, tx)
	if err != nil {
		return Receipt{}, nil, err
	}
	bank := book{tx: tx}

	var ev model.Event
	switch ins.Op {
	case OpStake:
		var pos *model.Position
		pos, ev, err = e.stakes.Stake(ctx, bank, &pool, caller, ins.Amount, ins.LockDays, now)
		if err != nil {
			return Receipt{}, nil, err
		}
		if err := tx.PutPosition(ctx, *pos); err != nil {
			return Receipt{}, nil, err
		}
		receipt.PositionID = pos.ID
		receipt.Amount = pos.Principal

	case OpClaimRewards, OpUnstake:
		pos, err := loadPosition(ctx, tx, ins.PositionID)
		if err != nil {
			return Receipt{}, nil, err
		}
		var paid uint64
		if ins.Op == OpClaimRewards {
			paid, ev, err = e.stakes.ClaimRewards(ctx, bank, &pool, &pos, caller, now)
		} else {
			paid, ev, err = e.stakes.Unstake(ctx, bank, &pool, &pos, caller, now)
		}
		if err != nil {
			return Receipt{}, nil, err
		}
		if err := tx.PutPosition(ctx, pos); err != nil {
			return Receipt{}, nil, err
		}
		receipt.PositionID = pos.ID
		receipt.Amount = paid

	case OpMintAccess, OpVerifyAccess, OpUpgradeTier:
		tier, accessEv, err := e.applyAccess(ctx, tx, pool, caller, ins, now)
		if err != nil {
			return Receipt{}, nil, err
		}
		receipt.Tier = &tier
		if accessEv == nil {
			return receipt, nil, nil
		}
		return receipt, []model.Event{*accessEv}, nil

	case OpSetPaused:
		ev, err = e.stakes.SetPaused(&pool, caller, *ins.Paused, now)
	case OpSetAccessPaused:
		ev, err = e.access.SetPaused(&pool, caller, *ins.Paused, now)
	case OpUpdateRates:
		ev, err = e.stakes.UpdateRates(&pool, caller, *ins.Rates, now)
	case OpFundRewards:
		ev, err = e.stakes.FundRewards(ctx, bank, &pool, caller, ins.Amount, now)
		receipt.Amount = ins.Amount
	default:
		return Receipt{}, nil, fmt.Errorf("%w: unknown op %q", model.ErrInvalidInstruction, ins.Op)
	}
	if err != nil {
		return Receipt{}, nil, err
	}

	if err := tx.PutPool(ctx, pool); err != nil {
		return Receipt{}, nil, err
	}
	return receipt, []model.Event{ev}, nil
}

func (e *Executor) initialize(ctx context.Context, tx storage.Tx, caller common.Address, ins Instruction, now int64) (model.Event, error) {
	if _, ok, err := tx.Pool(ctx); err != nil {
		return model.Event{}, err
	} else if ok {
		return model.Event{}, model.ErrPoolAlreadyInitialized
	}

	rates := e.rates
	if ins.Rates != nil {
		rates = *ins.Rates
	}
	pool, ev, err := e.stakes.Initialize(caller, *ins.Token, VaultAddress(*ins.Token), rates, now)
	if err != nil {
		return model.Event{}, err
	}
	return ev, tx.PutPool(ctx, *pool)
}

// applyAccess returns a nil event for a verify without a stored record.
func (e *Executor) applyAccess(ctx context.Context, tx storage.Tx, pool model.Pool, caller common.Address, ins Instruction, now int64) (model.Tier, *model.Event, error) {
	owner := ins.owner(caller)
	balance, err := e.holderBalance(ctx, tx, pool.Token, owner)
	if err != nil {
		return model.TierNone, nil, err
	}

	var existing *model.AccessRecord
	stored, ok, err := tx.Access(ctx, owner)
	if err != nil {
		return model.TierNone, nil, err
	}
	if ok {
		existing = &stored
	}

	var (
		rec *model.AccessRecord
		ev  model.Event
	)
	switch ins.Op {
	case OpVerifyAccess:
		tier, verified, refreshed := e.access.VerifyAccess(existing, owner, balance, now)
		if !refreshed {
			return tier, nil, nil
		}
		rec, ev = existing, verified
	case OpMintAccess:
		rec, ev, err = e.access.MintAccess(pool, existing, caller, owner, balance, now)
	default:
		rec, ev, err = e.access.UpgradeTier(pool, existing, caller, owner, balance, now)
	}
	if err != nil {
		return model.TierNone, nil, err
	}
	if err := tx.PutAccess(ctx, *rec); err != nil {
		return model.TierNone, nil, err
	}
	return rec.Tier, &ev, nil
}

func (e *Executor) holderBalance(ctx context.Context, tx storage.Tx, token, owner common.Address) (uint64, error) {
	if e.balances != nil {
		balance, err := e.balances.TokenBalance(ctx, token, owner)
		if err != nil {
			return 0, fmt.Errorf("read balance of %s: %w", owner.Hex(), err)
		}
		return balance, nil
	}
	return tx.Balance(ctx, owner)
}

// Credit adds amount to account in the token book.
func (e *Executor) Credit(ctx context.Context, account common.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, model.ErrInvalidAmount
	}
	var balance uint64
	err := e.store.Update(ctx, func(tx storage.Tx) error {
		current, err := tx.Balance(ctx, account)
		if err != nil {
			return err
		}
		next, err := reward.Add(current, amount)
		if err != nil {
			return fmt.Errorf("credit %s: %w", account.Hex(), err)
		}
		balance = next
		return tx.SetBalance(ctx, account, next)
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info("token book credited", zap.String("account", account.Hex()), zap.Uint64("amount", amount), zap.Uint64("balance", balance))
	return balance, nil
}

func (e *Executor) observe(op Op, caller common.Address, receipt Receipt, err error) {
	if err != nil {
		kind := model.KindOf(err)
		e.metrics.observe(op, kind)
		e.logger.Warn("instruction rejected",
			zap.String("op", string(op)),
			zap.String("caller", caller.Hex()),
			zap.String("error_kind", kind),
			zap.Error(err),
		)
		return
	}

	e.metrics.observe(op, "ok")
	switch op {
	case OpStake:
		e.metrics.addStaked(receipt.Amount)
	case OpClaimRewards, OpUnstake:
		e.metrics.addPaid(receipt.Amount)
	}

	fields := []zap.Field{
		zap.String("op", string(op)),
		zap.String("caller", caller.Hex()),
		zap.Int("events", len(receipt.Events)),
	}
	if receipt.PositionID != 0 {
		fields = append(fields, zap.Uint64("position_id", receipt.PositionID))
	}
	if receipt.Amount != 0 {
		fields = append(fields, zap.Uint64("amount", receipt.Amount))
	}
	if receipt.Tier != nil {
		fields = append(fields, zap.Stringer("tier", *receipt.Tier))
	}
	e.logger.Info("instruction executed", fields...)
}

func loadPool(ctx context.Context, tx storage.Tx) (model.Pool, error) {
	pool, ok, err := tx.Pool(ctx)
	if err != nil {
		return model.Pool{}, err
	}
	if !ok {
		return model.Pool{}, model.ErrPoolNotInitialized
	}
	return pool, nil
}

func loadPosition(ctx context.Context, tx storage.Tx, id uint64) (model.Position, error) {
	pos, ok, err := tx.Position(ctx, id)
	if err != nil {
		return model.Position{}, err
	}
	if !ok {
		return model.Position{}, fmt.Errorf("position %d: %w", id, model.ErrPositionNotFound)
	}
	return pos, nil
}
