package memory

import (
	"github.com/ethereum/go-ethereum/common"

	"stakeVault/internal/model"
)

// State is the full record set held by the store. It doubles as the
// on-disk snapshot format of the file store.
type State struct {
	Pool      *model.Pool                           `json:"pool,omitempty"`
	Positions map[uint64]model.Position             `json:"positions"`
	Access    map[common.Address]model.AccessRecord `json:"access"`
	Balances  map[common.Address]uint64             `json:"balances"`
	Nonces    map[common.Address]uint64             `json:"nonces"`
	Events    []model.EventRecord                   `json:"events"`
}

// NewState returns an empty state with allocated maps.
func NewState() *State {
	return &State{
		Positions: make(map[uint64]model.Position),
		Access:    make(map[common.Address]model.AccessRecord),
		Balances:  make(map[common.Address]uint64),
		Nonces:    make(map[common.Address]uint64),
	}
}

func (s *State) normalize() {
	if s.Positions == nil {
		s.Positions = make(map[uint64]model.Position)
	}
	if s.Access == nil {
		s.Access = make(map[common.Address]model.AccessRecord)
	}
	if s.Balances == nil {
		s.Balances = make(map[common.Address]uint64)
	}
	if s.Nonces == nil {
		s.Nonces = make(map[common.Address]uint64)
	}
}

func (s *State) clone() *State {
	out := &State{
		Positions: make(map[uint64]model.Position, len(s.Positions)),
		Access:    make(map[common.Address]model.AccessRecord, len(s.Access)),
		Balances:  make(map[common.Address]uint64, len(s.Balances)),
		Nonces:    make(map[common.Address]uint64, len(s.Nonces)),
		// Full slice expression so appends in the clone never write into
		// the committed backing array.
		Events: s.Events[:len(s.Events):len(s.Events)],
	}
	if s.Pool != nil {
		pool := *s.Pool
		out.Pool = &pool
	}
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	for k, v := range s.Access {
		out.Access[k] = v
	}
	for k, v := range s.Balances {
		out.Balances[k] = v
	}
	for k, v := range s.Nonces {
		out.Nonces[k] = v
	}
	return out
}
