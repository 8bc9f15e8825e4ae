package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stakeVault/internal/model"
	"stakeVault/internal/policy"
)

// AccessLedger derives access tiers from balances and maintains access records.
// A stored tier is only an audit trail; every answer is derived from the
// balance passed in.
type AccessLedger struct {
	thresholds policy.Thresholds
	logger     *zap.Logger
}

func NewAccessLedger(thresholds policy.Thresholds, logger *zap.Logger) (*AccessLedger, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessLedger{thresholds: thresholds, logger: logger}, nil
}

// Thresholds returns the tier table in use.
func (l *AccessLedger) Thresholds() policy.Thresholds {
	return l.thresholds
}

// MeetsTier reports whether balance derives a tier at or above required.
func (l *AccessLedger) MeetsTier(balance uint64, required model.Tier) bool {
	return l.thresholds.TierFor(balance) >= required
}

// SetPaused toggles whether holders may mint or upgrade access records.
// Verification keeps working while paused.
func (l *AccessLedger) SetPaused(pool *model.Pool, caller common.Address, paused bool, now int64) (model.Event, error) {
	if caller != pool.Authority {
		return model.Event{}, model.ErrUnauthorized
	}
	pool.AccessPaused = paused
	l.logger.Debug("access paused", zap.Bool("paused", paused))
	return model.NewEvent(model.EventAccessPaused, now, model.PoolPausedData{Paused: paused}), nil
}

// VerifyAccess returns the tier for balance. When rec is non-nil it is
// refreshed in place and an access_verified event is returned with ok=true.
func (l *AccessLedger) VerifyAccess(rec *model.AccessRecord, owner common.Address, balance uint64, now int64) (tier model.Tier, ev model.Event, ok bool) {
	tier = l.thresholds.TierFor(balance)
	if rec == nil {
		return tier, model.Event{}, false
	}

	previous := rec.Tier
	rec.Owner = owner
	rec.Tier = tier
	rec.Balance = balance
	rec.EvaluatedAt = now

	if tier < previous {
		l.logger.Info("access tier lowered", zap.String("owner", owner.Hex()), zap.Stringer("from", previous), zap.Stringer("to", tier))
	}
	return tier, model.NewEvent(model.EventAccessVerified, now, model.AccessData{
		Owner:    owner,
		Balance:  balance,
		Tier:     tier,
		Previous: previous,
	}), true
}

// MintAccess creates or overwrites the holder's access record.
func (l *AccessLedger) MintAccess(pool model.Pool, rec *model.AccessRecord, caller, owner common.Address, balance uint64, now int64) (*model.AccessRecord, model.Event, error) {
	if pool.AccessPaused {
		return nil, model.Event{}, model.ErrAccessPaused
	}
	if caller != owner {
		return nil, model.Event{}, model.ErrUnauthorized
	}
	tier := l.thresholds.TierFor(balance)
	if tier == model.TierNone {
		return nil, model.Event{}, fmt.Errorf("balance %d below %d: %w", balance, l.thresholds.Basic, model.ErrTierThresholdNotMet)
	}

	previous := model.TierNone
	if rec == nil {
		rec = &model.AccessRecord{}
	} else {
		previous = rec.Tier
	}
	rec.Owner = owner
	rec.Tier = tier
	rec.Balance = balance
	rec.EvaluatedAt = now
	rec.MintedAt = now

	l.logger.Debug("access minted", zap.String("owner", owner.Hex()), zap.Stringer("tier", tier))
	return rec, model.NewEvent(model.EventAccessMinted, now, model.AccessData{
		Owner:    owner,
		Balance:  balance,
		Tier:     tier,
		Previous: previous,
	}), nil
}

// UpgradeTier raises the stored tier when the balance now qualifies for a
// strictly higher one.
func (l *AccessLedger) UpgradeTier(pool model.Pool, rec *model.AccessRecord, caller, owner common.Address, balance uint64, now int64) (*model.AccessRecord, model.Event, error) {
	if pool.AccessPaused {
		return nil, model.Event{}, model.ErrAccessPaused
	}
	if caller != owner {
		return nil, model.Event{}, model.ErrUnauthorized
	}
	if rec == nil {
		return nil, model.Event{}, model.ErrNoExistingAccess
	}
	tier := l.thresholds.TierFor(balance)
	if tier <= rec.Tier {
		return nil, model.Event{}, fmt.Errorf("%s -> %s: %w", rec.Tier, tier, model.ErrTierNotImproved)
	}

	previous := rec.Tier
	rec.Tier = tier
	rec.Balance = balance
	rec.EvaluatedAt = now

	l.logger.Debug("tier upgraded", zap.String("owner", owner.Hex()), zap.Stringer("from", previous), zap.Stringer("to", tier))
	return rec, model.NewEvent(model.EventTierUpgraded, now, model.AccessData{
		Owner:    owner,
		Balance:  balance,
		Tier:     tier,
		Previous: previous,
	}), nil
}
