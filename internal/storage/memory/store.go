package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"stakeVault/internal/model"
	"stakeVault/internal/storage"
)

// CommitFunc is called with the state an Update is about to publish. A
// non-nil error aborts the commit.
type CommitFunc func(next *State) error

// Store is a transactional in-memory store. Updates are serialized and run
// against a private copy of the state that replaces the committed state only
// when the update succeeds.
type Store struct {
	mu       sync.RWMutex
	state    *State
	onCommit CommitFunc
}

func NewStore() *Store {
	return &Store{state: NewState()}
}

// NewStoreFromState wraps an existing state, calling onCommit before each commit.
func NewStoreFromState(state *State, onCommit CommitFunc) *Store {
	if state == nil {
		state = NewState()
	}
	state.normalize()
	return &Store{state: state, onCommit: onCommit}
}

func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(&tx{state: working, writable: true}); err != nil {
		return err
	}
	if s.onCommit != nil {
		if err := s.onCommit(working); err != nil {
			return err
		}
	}
	s.state = working
	return nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&tx{state: s.state})
}

// Snapshot returns a copy of the committed state.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) Close() error {
	return nil
}

type tx struct {
	state    *State
	writable bool
}

func (t *tx) Pool(context.Context) (model.Pool, bool, error) {
	if t.state.Pool == nil {
		return model.Pool{}, false, nil
	}
	return *t.state.Pool, true, nil
}

func (t *tx) PutPool(_ context.Context, pool model.Pool) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	t.state.Pool = &pool
	return nil
}

func (t *tx) Position(_ context.Context, id uint64) (model.Position, bool, error) {
	pos, ok := t.state.Positions[id]
	return pos, ok, nil
}

func (t *tx) PutPosition(_ context.Context, pos model.Position) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	t.state.Positions[pos.ID] = pos
	return nil
}

func (t *tx) PositionsByOwner(_ context.Context, owner common.Address) ([]model.Position, error) {
	return t.collect(func(p model.Position) bool { return p.Owner == owner }), nil
}

func (t *tx) ActivePositions(context.Context) ([]model.Position, error) {
	return t.collect(model.Position.Active), nil
}

func (t *tx) collect(keep func(model.Position) bool) []model.Position {
	out := make([]model.Position, 0)
	for _, pos := range t.state.Positions {
		if keep(pos) {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tx) Access(_ context.Context, owner common.Address) (model.AccessRecord, bool, error) {
	rec, ok := t.state.Access[owner]
	return rec, ok, nil
}

func (t *tx) PutAccess(_ context.Context, rec model.AccessRecord) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	t.state.Access[rec.Owner] = rec
	return nil
}

func (t *tx) Balance(_ context.Context, account common.Address) (uint64, error) {
	return t.state.Balances[account], nil
}

func (t *tx) SetBalance(_ context.Context, account common.Address, amount uint64) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	if amount == 0 {
		delete(t.state.Balances, account)
		return nil
	}
	t.state.Balances[account] = amount
	return nil
}

func (t *tx) Nonce(_ context.Context, account common.Address) (uint64, error) {
	return t.state.Nonces[account], nil
}

func (t *tx) SetNonce(_ context.Context, account common.Address, nonce uint64) error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	t.state.Nonces[account] = nonce
	return nil
}

func (t *tx) AppendEvents(_ context.Context, events []model.Event) ([]model.EventRecord, error) {
	if !t.writable {
		return nil, storage.ErrReadOnly
	}
	next := uint64(len(t.state.Events)) + 1
	records := make([]model.EventRecord, 0, len(events))
	for i, ev := range events {
		rec, err := model.NewEventRecord(next+uint64(i), ev)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	t.state.Events = append(t.state.Events, records...)
	return records, nil
}

func (t *tx) Events(_ context.Context, afterSeq uint64, limit int) ([]model.EventRecord, error) {
	if afterSeq >= uint64(len(t.state.Events)) {
		return []model.EventRecord{}, nil
	}
	out := t.state.Events[afterSeq:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append(make([]model.EventRecord, 0, len(out)), out...), nil
}
