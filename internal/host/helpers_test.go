package host

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"stakeVault/internal/model"
	"stakeVault/internal/storage/memory"
)

var (
	authority = common.HexToAddress("0xa000000000000000000000000000000000000001")
	token     = common.HexToAddress("0xb000000000000000000000000000000000000002")
	alice     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob       = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

const (
	day   = int64(24 * 60 * 60)
	start = int64(1_700_000_000)
)

type clock struct {
	now int64
}

func (c *clock) Now() int64 { return c.now }

type memorySink struct {
	records []model.EventRecord
}

func (s *memorySink) PutEvents(records []model.EventRecord) error {
	s.records = append(s.records, records...)
	return nil
}

type fixture struct {
	exec  *Executor
	store *memory.Store
	clock *clock
	sink  *memorySink
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		clock: &clock{now: start},
		sink:  &memorySink{},
	}
	opts.Clock = f.clock.Now
	opts.Journal = f.sink
	exec, err := NewExecutor(f.store, opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	f.exec = exec
	return f
}

// initialized returns a fixture with an initialized pool and funded reward
// reserve.
func initialized(t *testing.T, reserve uint64) *fixture {
	t.Helper()
	f := newFixture(t, Options{})
	ctx := context.Background()

	tok := token
	_, err := f.exec.Execute(ctx, authority, Instruction{Op: OpInitialize, Token: &tok})
	require.NoError(t, err)

	if reserve > 0 {
		_, err = f.exec.Credit(ctx, authority, reserve)
		require.NoError(t, err)
		_, err = f.exec.Execute(ctx, authority, Instruction{Op: OpFundRewards, Amount: reserve})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) snapshot(t *testing.T) *memory.State {
	t.Helper()
	return f.store.Snapshot()
}
