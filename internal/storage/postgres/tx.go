package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"stakeVault/internal/model"
	"stakeVault/internal/storage"
)

type pgTx struct {
	tx       pgx.Tx
	writable bool
}

// lock returns the row-locking clause for reads inside Update.
func (t *pgTx) lock() string {
	if t.writable {
		return " FOR UPDATE"
	}
	return ""
}

func amount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(field, text string) (uint64, error) {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, text, err)
	}
	return v, nil
}

func (t *pgTx) Pool(ctx context.Context) (model.Pool, bool, error) {
	var (
		pool                           model.Pool
		authority, token, vaultAccount string
		vault, staked, active, nextID  string
		rate30, rate60, rate90         int64
	)
	row := t.tx.QueryRow(ctx, `
		SELECT authority, token, vault_account, vault::text, total_staked::text,
			active_positions::text, next_position_id::text, rate_30, rate_60, rate_90, paused, access_paused, created_at
		FROM pool WHERE id = 1`+t.lock())
	err := row.Scan(&authority, &token, &vaultAccount, &vault, &staked, &active, &nextID,
		&rate30, &rate60, &rate90, &pool.Paused, &pool.AccessPaused, &pool.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}

	pool.Authority = common.HexToAddress(authority)
	pool.Token = common.HexToAddress(token)
	pool.VaultAccount = common.HexToAddress(vaultAccount)
	if pool.Vault, err = parseAmount("vault", vault); err != nil {
		return model.Pool{}, false, err
	}
	if pool.TotalStaked, err = parseAmount("total_staked", staked); err != nil {
		return model.Pool{}, false, err
	}
	if pool.ActivePositions, err = parseAmount("active_positions", active); err != nil {
		return model.Pool{}, false, err
	}
	if pool.NextPositionID, err = parseAmount("next_position_id", nextID); err != nil {
		return model.Pool{}, false, err
	}
	pool.Rates = model.Rates{Days30: uint32(rate30), Days60: uint32(rate60), Days90: uint32(rate90)}
	return pool, true, nil
}

func (t *pgTx) PutPool(ctx context.Context, pool model.Pool) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO pool (
			id, authority, token, vault_account, vault, total_staked, active_positions,
			next_position_id, rate_30, rate_60, rate_90, paused, access_paused, created_at, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (id) DO UPDATE SET
			vault = EXCLUDED.vault,
			total_staked = EXCLUDED.total_staked,
			active_positions = EXCLUDED.active_positions,
			next_position_id = EXCLUDED.next_position_id,
			rate_30 = EXCLUDED.rate_30,
			rate_60 = EXCLUDED.rate_60,
			rate_90 = EXCLUDED.rate_90,
			paused = EXCLUDED.paused,
			access_paused = EXCLUDED.access_paused,
			updated_at = now()
	`,
		pool.Authority.Hex(),
		pool.Token.Hex(),
		pool.VaultAccount.Hex(),
		amount(pool.Vault),
		amount(pool.TotalStaked),
		amount(pool.ActivePositions),
		amount(pool.NextPositionID),
		int64(pool.Rates.Days30),
		int64(pool.Rates.Days60),
		int64(pool.Rates.Days90),
		pool.Paused,
		pool.AccessPaused,
		pool.CreatedAt,
	)
	return err
}

const positionColumns = `id::text, owner, principal::text, lock_days, rate_bps, created_at, unlock_at, checkpoint, claimed::text, status`

func scanPosition(row pgx.Row) (model.Position, error) {
	var (
		pos                    model.Position
		id, principal, claimed string
		owner, status          string
		lockDays               int32
		rateBps                int64
	)
	if err := row.Scan(&id, &owner, &principal, &lockDays, &rateBps, &pos.CreatedAt, &pos.UnlockAt, &pos.Checkpoint, &claimed, &status); err != nil {
		return model.Position{}, err
	}

	var err error
	if pos.ID, err = parseAmount("id", id); err != nil {
		return model.Position{}, err
	}
	if pos.Principal, err = parseAmount("principal", principal); err != nil {
		return model.Position{}, err
	}
	if pos.Claimed, err = parseAmount("claimed", claimed); err != nil {
		return model.Position{}, err
	}
	if err := pos.Status.UnmarshalText([]byte(status)); err != nil {
		return model.Position{}, err
	}
	pos.Owner = common.HexToAddress(owner)
	pos.LockDays = uint16(lockDays)
	pos.RateBps = uint32(rateBps)
	return pos, nil
}

func (t *pgTx) Position(ctx context.Context, id uint64) (model.Position, bool, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1`+t.lock(), amount(id))
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Position{}, false, nil
		}
		return model.Position{}, false, err
	}
	return pos, true, nil
}

func (t *pgTx) PutPosition(ctx context.Context, pos model.Position) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO positions (
			id, owner, principal, lock_days, rate_bps, created_at, unlock_at, checkpoint, claimed, status, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			checkpoint = EXCLUDED.checkpoint,
			claimed = EXCLUDED.claimed,
			status = EXCLUDED.status,
			updated_at = now()
	`,
		amount(pos.ID),
		pos.Owner.Hex(),
		amount(pos.Principal),
		int32(pos.LockDays),
		int64(pos.RateBps),
		pos.CreatedAt,
		pos.UnlockAt,
		pos.Checkpoint,
		amount(pos.Claimed),
		pos.Status.String(),
	)
	return err
}

func (t *pgTx) queryPositions(ctx context.Context, where string, args ...interface{}) ([]model.Position, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+positionColumns+` FROM positions WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

func (t *pgTx) PositionsByOwner(ctx context.Context, owner common.Address) ([]model.Position, error) {
	return t.queryPositions(ctx, `owner = $1`, owner.Hex())
}

func (t *pgTx) ActivePositions(ctx context.Context) ([]model.Position, error) {
	return t.queryPositions(ctx, `status = $1`, model.StatusActive.String())
}

func (t *pgTx) Access(ctx context.Context, owner common.Address) (model.AccessRecord, bool, error) {
	var (
		rec           model.AccessRecord
		tier, balance string
	)
	row := t.tx.QueryRow(ctx, `
		SELECT tier, balance::text, evaluated_at, minted_at
		FROM access_records WHERE owner = $1`+t.lock(), owner.Hex())
	if err := row.Scan(&tier, &balance, &rec.EvaluatedAt, &rec.MintedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AccessRecord{}, false, nil
		}
		return model.AccessRecord{}, false, err
	}
	if err := rec.Tier.UnmarshalText([]byte(tier)); err != nil {
		return model.AccessRecord{}, false, err
	}
	var err error
	if rec.Balance, err = parseAmount("balance", balance); err != nil {
		return model.AccessRecord{}, false, err
	}
	rec.Owner = owner
	return rec, true, nil
}

func (t *pgTx) PutAccess(ctx context.Context, rec model.AccessRecord) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO access_records (owner, tier, balance, evaluated_at, minted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (owner) DO UPDATE SET
			tier = EXCLUDED.tier,
			balance = EXCLUDED.balance,
			evaluated_at = EXCLUDED.evaluated_at,
			minted_at = EXCLUDED.minted_at,
			updated_at = now()
	`, rec.Owner.Hex(), rec.Tier.String(), amount(rec.Balance), rec.EvaluatedAt, rec.MintedAt)
	return err
}

func (t *pgTx) scanCounter(ctx context.Context, query string, account common.Address) (uint64, error) {
	var text string
	if err := t.tx.QueryRow(ctx, query+t.lock(), account.Hex()).Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return parseAmount("counter", text)
}

func (t *pgTx) Balance(ctx context.Context, account common.Address) (uint64, error) {
	return t.scanCounter(ctx, `SELECT amount::text FROM balances WHERE account = $1`, account)
}

func (t *pgTx) SetBalance(ctx context.Context, account common.Address, value uint64) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO balances (account, amount, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (account) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
	`, account.Hex(), amount(value))
	return err
}

func (t *pgTx) Nonce(ctx context.Context, account common.Address) (uint64, error) {
	return t.scanCounter(ctx, `SELECT nonce::text FROM nonces WHERE account = $1`, account)
}

func (t *pgTx) SetNonce(ctx context.Context, account common.Address, nonce uint64) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO nonces (account, nonce, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (account) DO UPDATE SET nonce = EXCLUDED.nonce, updated_at = now()
	`, account.Hex(), amount(nonce))
	return err
}

func (t *pgTx) AppendEvents(ctx context.Context, events []model.Event) ([]model.EventRecord, error) {
	if !t.writable {
		return nil, storage.ErrReadOnly
	}
	records := make([]model.EventRecord, 0, len(events))
	for _, ev := range events {
		rec, err := model.NewEventRecord(0, ev)
		if err != nil {
			return nil, err
		}
		var seq int64
		err = t.tx.QueryRow(ctx, `INSERT INTO events (kind, ts, data) VALUES ($1, $2, $3) RETURNING seq`,
			string(rec.Kind), rec.Timestamp, []byte(rec.Data)).Scan(&seq)
		if err != nil {
			return nil, fmt.Errorf("insert %s event: %w", rec.Kind, err)
		}
		rec.Seq = uint64(seq)
		records = append(records, rec)
	}
	return records, nil
}

func (t *pgTx) Events(ctx context.Context, afterSeq uint64, limit int) ([]model.EventRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := t.tx.Query(ctx, `SELECT seq, kind, ts, data FROM events WHERE seq > $1 ORDER BY seq LIMIT $2`, int64(afterSeq), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.EventRecord, 0)
	for rows.Next() {
		var (
			rec  model.EventRecord
			seq  int64
			kind string
			data []byte
		)
		if err := rows.Scan(&seq, &kind, &rec.Timestamp, &data); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.Kind = model.EventKind(kind)
		rec.Data = data
		out = append(out, rec)
	}
	return out, rows.Err()
}
