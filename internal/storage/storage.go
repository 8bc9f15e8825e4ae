package storage

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"stakeVault/internal/model"
)

// ErrReadOnly is returned by writes attempted inside View.
var ErrReadOnly = errors.New("write in read-only transaction")

// Store persists ledger records. Update runs fn inside a single transaction
// with exclusive access to every record it touches and commits all of fn's
// writes only if fn returns nil.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the record view of one transaction.
type Tx interface {
	Pool(ctx context.Context) (model.Pool, bool, error)
	PutPool(ctx context.Context, pool model.Pool) error

	Position(ctx context.Context, id uint64) (model.Position, bool, error)
	PutPosition(ctx context.Context, pos model.Position) error
	PositionsByOwner(ctx context.Context, owner common.Address) ([]model.Position, error)
	ActivePositions(ctx context.Context) ([]model.Position, error)

	Access(ctx context.Context, owner common.Address) (model.AccessRecord, bool, error)
	PutAccess(ctx context.Context, rec model.AccessRecord) error

	Balance(ctx context.Context, account common.Address) (uint64, error)
	SetBalance(ctx context.Context, account common.Address, amount uint64) error

	Nonce(ctx context.Context, account common.Address) (uint64, error)
	SetNonce(ctx context.Context, account common.Address, nonce uint64) error

	AppendEvents(ctx context.Context, events []model.Event) ([]model.EventRecord, error)
	Events(ctx context.Context, afterSeq uint64, limit int) ([]model.EventRecord, error)
}
